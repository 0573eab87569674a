package store

import (
	"context"
	"encoding/json"

	"github.com/chonburidev/records-api/auth"
	"github.com/goliatone/go-errors"
)

// Credentials adapts the generic KV store into the credential store the auth
// service consumes. Lookups scan the full users snapshot: the backing store
// exposes no query surface, only snapshot reads.
type Credentials struct {
	kv KV
}

var _ auth.CredentialStore = (*Credentials)(nil)

// NewCredentials wraps a KV store into a credential adapter.
func NewCredentials(kv KV) *Credentials {
	return &Credentials{kv: kv}
}

func (c *Credentials) FindByUsername(ctx context.Context, username string) (*auth.User, error) {
	snapshot, err := c.kv.Snapshot(ctx, CollectionUsers)
	if err != nil {
		return nil, err
	}

	// exact, case-sensitive match; key order keeps the scan deterministic
	for _, key := range SortedKeys(snapshot) {
		user, err := decodeUser(snapshot[key])
		if err != nil {
			return nil, err
		}
		if user.Username == username {
			return user, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (c *Credentials) FindByID(ctx context.Context, userID int) (string, *auth.User, error) {
	snapshot, err := c.kv.Snapshot(ctx, CollectionUsers)
	if err != nil {
		return "", nil, err
	}

	for _, key := range SortedKeys(snapshot) {
		user, err := decodeUser(snapshot[key])
		if err != nil {
			return "", nil, err
		}
		if user.UserID == userID {
			return key, user, nil
		}
	}
	return "", nil, auth.ErrUserNotFound
}

// NextUserID computes one more than the maximum stored id, or 1 for an empty
// collection. On its own this is read-then-write racy; Register wraps it in
// a store transaction.
func (c *Credentials) NextUserID(ctx context.Context) (int, error) {
	snapshot, err := c.kv.Snapshot(ctx, CollectionUsers)
	if err != nil {
		return 0, err
	}

	maxID := 0
	for _, raw := range snapshot {
		user, err := decodeUser(raw)
		if err != nil {
			return 0, err
		}
		if user.UserID > maxID {
			maxID = user.UserID
		}
	}
	return maxID + 1, nil
}

func (c *Credentials) Insert(ctx context.Context, user *auth.User) (string, error) {
	return c.kv.Push(ctx, CollectionUsers, user)
}

// Update merges only the patch fields; userId, username, passwordHash, and
// createdAt are never touched.
func (c *Credentials) Update(ctx context.Context, key string, patch auth.UserPatch) error {
	if patch.IsZero() {
		return auth.ErrInvalidInput
	}
	return c.kv.Merge(ctx, CollectionUsers, key, patch.Fields())
}

func (c *Credentials) Delete(ctx context.Context, key string) error {
	return c.kv.Remove(ctx, CollectionUsers, key)
}

func (c *Credentials) All(ctx context.Context) (map[string]*auth.User, error) {
	snapshot, err := c.kv.Snapshot(ctx, CollectionUsers)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*auth.User, len(snapshot))
	for key, raw := range snapshot {
		user, err := decodeUser(raw)
		if err != nil {
			return nil, err
		}
		out[key] = user
	}
	return out, nil
}

func (c *Credentials) RunInTx(ctx context.Context, fn func(ctx context.Context, tx auth.CredentialStore) error) error {
	return c.kv.RunInTx(ctx, func(ctx context.Context, tx KV) error {
		return fn(ctx, &Credentials{kv: tx})
	})
}

func decodeUser(raw json.RawMessage) (*auth.User, error) {
	user := &auth.User{}
	if err := json.Unmarshal(raw, user); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to decode user record")
	}
	return user, nil
}
