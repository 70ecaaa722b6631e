// Package restfeed implements the paginated REST supplier client. JSON
// endpoints are fetched page by page behind a rate limiter, with a fixed
// backoff retry on rate-limit responses and a hard pagination ceiling.
package restfeed
