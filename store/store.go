// Package store provides the document-style key-value collections the
// backend persists into, plus the credential adapter layered on top of the
// "users" collection.
package store

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/goliatone/go-errors"
)

// Collection names used by the service.
const (
	CollectionUsers = "users"
	CollectionItems = "items"
	CollectionBooks = "books"
)

// ErrKeyNotFound is returned when a key is absent from a collection.
var ErrKeyNotFound = errors.New("record not found", errors.CategoryNotFound).
	WithTextCode("not_found").
	WithCode(errors.CodeNotFound)

// KV is a remote document store holding JSON records under store-generated
// keys, grouped into named collections. Reads are snapshot reads: there is no
// server-side query, callers scan the returned mapping.
//
// Push, Merge, and Remove are atomic per key. Sequences that read a snapshot
// and then write (duplicate checks, max-id allocation) are not; use RunInTx
// where the backend supports transactions.
type KV interface {
	// Push persists doc under a new store-generated key and returns the key.
	Push(ctx context.Context, collection string, doc any) (string, error)
	// Get returns the raw document stored under key.
	Get(ctx context.Context, collection, key string) (json.RawMessage, error)
	// Snapshot returns the full key to document mapping for a collection.
	Snapshot(ctx context.Context, collection string) (map[string]json.RawMessage, error)
	// Merge updates only the given top-level fields of the document at key.
	Merge(ctx context.Context, collection, key string, fields map[string]any) error
	// Remove deletes the document at key.
	Remove(ctx context.Context, collection, key string) error
	// RunInTx executes fn against a transactional view of the store. Backends
	// without transactions run fn against the store directly.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx KV) error) error
}

// SortedKeys returns the snapshot keys in lexical order so scans visit
// records deterministically.
func SortedKeys(snapshot map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
