// Package utils provides tolerant conversions for the free-text fields that
// supplier feeds carry: decimal-comma numbers, values with trailing units,
// three-part dimension strings, and name slugging.
package utils
