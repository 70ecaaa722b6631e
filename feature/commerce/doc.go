// Package commerce integrates with the storefront platform API: it builds
// draft product payloads, re-hosts supplier images into object storage, and
// creates or updates remote products one at a time or in batches.
package commerce
