// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client to provide a simplified interface for the
// image re-hosting pipeline: supplier image URLs are downloaded once and
// uploaded into a bucket that the commerce platform can serve from. The
// abstraction supports both AWS S3 and self-hosted MinIO instances, and the
// Client interface makes storage interactions mockable for unit testing
// (see core/storage/mocks).
package storage
