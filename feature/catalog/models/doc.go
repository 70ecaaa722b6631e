// Package models holds the two product shapes of the pipeline: the
// normalized, source-independent structs that feed clients produce, and the
// persisted rows the catalog store writes them into.
package models
