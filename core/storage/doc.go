// Package storage provides an abstraction layer for object storage services.
//
// It wraps the MinIO Go client behind the small Client interface the loader
// needs: fetching module sources, checking that registry entries are present
// and verifying bucket access. It works against AWS S3 and self-hosted MinIO.
//
// # Client Interface
//
// The Client interface makes storage interactions easy to mock in unit tests
// (see core/storage/mocks).
//
// # Object Keys
//
// ObjectName maps a canonical module path such as "/js/core/auth.js" to its
// key under the configured prefix.
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "modules")
package storage
