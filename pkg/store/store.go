// Package store persists diagram snapshots and rendered artifacts.
//
// Every backend implements [Store]: a byte-oriented key/value store with
// optional expiry. Keys come from a [Keyer] so that backends shared between
// tools or tenants never collide.
//
//   - [FileStore]: one JSON file per key, for the CLI.
//   - [RedisStore]: Redis, for servers running several instances.
//   - [MongoStore]: a MongoDB collection with a TTL index.
//   - [NullStore]: stores nothing; disables persistence.
//
// Backends report hits, misses and writes to [observability.Store].
package store

import (
	"context"
	"time"
)

// Default expiries.
const (
	// TTLSnapshot is how long a saved diagram is kept.
	TTLSnapshot = 7 * 24 * time.Hour

	// TTLArtifact is how long a rendered artifact is kept. Artifacts are
	// keyed by content hash, so a stale entry is never wrong.
	TTLArtifact = 30 * 24 * time.Hour
)

// Store is a key/value store for encoded snapshots and artifacts.
type Store interface {
	// Get returns the value for key. A missing or expired key is reported
	// with ok == false and a nil error.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores data under key. A ttl of zero keeps the entry until it is
	// deleted.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend's resources.
	Close() error
}

// =============================================================================
// Keys
// =============================================================================

// Keyer builds store keys.
type Keyer interface {
	// SnapshotKey names the saved state of one diagram.
	SnapshotKey(diagramID string) string

	// ArtifactKey names a rendering of a document with the given content hash.
	ArtifactKey(docHash, format string) string
}

// DefaultKeyer produces unprefixed keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns a DefaultKeyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// SnapshotKey implements Keyer.
func (DefaultKeyer) SnapshotKey(diagramID string) string { return "snapshot:" + diagramID }

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(docHash, format string) string {
	return hashKey("artifact", docHash, format)
}

// ScopedKeyer prefixes every key of an inner Keyer, so that several
// deployments can share one backend:
//
//	keyer := store.NewScopedKeyer(nil, "staging:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer wraps inner (DefaultKeyer when nil) with prefix.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// SnapshotKey implements Keyer.
func (k *ScopedKeyer) SnapshotKey(diagramID string) string {
	return k.prefix + k.inner.SnapshotKey(diagramID)
}

// ArtifactKey implements Keyer.
func (k *ScopedKeyer) ArtifactKey(docHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(docHash, format)
}
