// Package cache keeps parsed supplier feed payloads in memory with per-kind
// TTLs, so that repeated sync passes within a window reuse one download.
// Concurrent refreshes of the same feed collapse into a single upstream
// fetch.
package cache
