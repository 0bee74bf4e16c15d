// Package catphotos implements a small family photo-sharing service backed by
// an object store for binary content and a partition/sort-key metadata table.
//
// Callers are identified by an opaque family identifier checked against an
// optional allow-list. Photo binaries live in the object store under keys of
// the form "{familyId}/{photoId}{extension}"; one metadata record exists per
// (familyId, photoId) pair and is written at most once.
//
// # Key Components
//
//   - PhotoService: Main service combining a metadata repository and an object store
//   - MetadataRepo: Interface for metadata persistence (DynamoDB, SQLite)
//   - ObjectStore: Interface for binary storage and presigned URLs (S3, local filesystem)
//   - Authenticator: Family identifier validation against the configured allow-list
//
// See the gateway package for the HTTP request router, the database and
// objectstore packages for backend implementations, and cmd/catphotos for the
// Lambda and local-server entry points.
package catphotos
