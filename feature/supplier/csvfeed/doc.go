// Package csvfeed implements the grouped-CSV supplier client. The feed is
// one flat file with a row per product per language; rows are grouped by
// product code, inactive rows dropped, and one row selected per product by
// locale priority before normalization.
package csvfeed
