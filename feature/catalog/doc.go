// Package catalog persists the unified product catalog: suppliers,
// products, variants, stock, price tiers, categories, and the sync run
// ledger. The Store enforces the invariants the reconciler relies on:
// natural-key upserts, globally unique variant SKUs, replace-only stock,
// and at most one active price tier set per variant.
package catalog
