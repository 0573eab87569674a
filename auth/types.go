package auth

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the auth components need. The
// concrete implementation is wired at startup; the default writes to stdout.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// PasswordAuthenticator hashes and verifies passwords. It is an opaque
// one-way function as far as the rest of the service is concerned.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenService signs and verifies session tokens carrying SessionClaims.
type TokenService interface {
	Generate(user *User) (string, error)
	Validate(tokenString string) (*SessionClaims, error)
}

// TokenValidator validates tokens without tying callers to a specific
// signing implementation.
type TokenValidator interface {
	Validate(tokenString string) (*SessionClaims, error)
}

// CredentialStore is the adapter over the remote "users" collection. The
// backing store is a key-value snapshot API, so lookups are linear scans;
// callers must not assume O(1) semantics.
//
// Single-key operations (Update, Delete) are atomic at the store level.
// Read-scan-then-write sequences (duplicate check, NextUserID) are not;
// wrap them in RunInTx when the backend supports it.
type CredentialStore interface {
	// FindByUsername scans for an exact, case-sensitive username match and
	// returns the first one in key order. Absence is a NotFound error.
	FindByUsername(ctx context.Context, username string) (*User, error)
	// FindByID scans for a numeric user id and returns the storage key
	// alongside the record. The two identifiers are distinct namespaces.
	FindByID(ctx context.Context, userID int) (string, *User, error)
	// NextUserID returns one more than the maximum stored user id, or 1 for
	// an empty collection.
	NextUserID(ctx context.Context) (int, error)
	// Insert persists a new record under a store-generated key. Uniqueness
	// of the username is the caller's responsibility.
	Insert(ctx context.Context, user *User) (string, error)
	// Update merges only the provided fields into the record at key.
	Update(ctx context.Context, key string, patch UserPatch) error
	// Delete removes the record at key.
	Delete(ctx context.Context, key string) error
	// All returns the full storageKey to record mapping.
	All(ctx context.Context) (map[string]*User, error)
	// RunInTx executes fn against a transactional view of the store when the
	// backend supports transactions, and against the store itself otherwise.
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx CredentialStore) error) error
}

type defLogger struct{}

func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args...) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args...) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args...) }
func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args...) }

func (defLogger) print(level, msg string, args ...any) {
	fmt.Printf("[%s] AUTH %s %v\n", level, msg, args)
}
