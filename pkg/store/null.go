package store

import (
	"context"
	"time"

	"github.com/matzehuels/linkgraph/pkg/observability"
)

// NullStore never stores anything. Every Get is a miss.
type NullStore struct{}

// NewNullStore returns a NullStore.
func NewNullStore() Store { return NullStore{} }

// Get implements Store.
func (NullStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	observability.Store().OnStoreMiss(ctx, "null")
	return nil, false, nil
}

// Set implements Store.
func (NullStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// Delete implements Store.
func (NullStore) Delete(context.Context, string) error { return nil }

// Close implements Store.
func (NullStore) Close() error { return nil }

var _ Store = NullStore{}
