// Package syncer orchestrates supplier sync runs: it fetches normalized
// feeds through the supplier clients, reconciles products, variants, stock,
// and prices into the catalog, and pushes eligible products to the commerce
// platform as drafts. Every run is persisted with its counters and errors.
package syncer
