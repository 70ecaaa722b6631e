// Package feed defines the source-native record shape shared by all feed
// parsers.
//
// A Record is a tagged union: a leaf string value, a map of named children,
// or a list of records. XML subtrees, grouped CSV rows, and decoded REST
// items all collapse into this one shape so that normalizers can be written
// once per supplier without caring about the transport format.
package feed
