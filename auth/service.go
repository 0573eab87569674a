package auth

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
)

// Service orchestrates register and login against the credential store. It
// owns the policy decisions: id allocation, duplicate rejection, and token
// issuance. It holds no state across requests; every lookup re-reads the
// store.
type Service struct {
	store  CredentialStore
	hasher PasswordAuthenticator
	tokens TokenService
	logger Logger
	now    func() time.Time
}

// NewService creates an auth Service from its three collaborators.
func NewService(store CredentialStore, hasher PasswordAuthenticator, tokens TokenService) *Service {
	return &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: defLogger{},
		now:    time.Now,
	}
}

func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// WithClock overrides the time source. Meant for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// RegisterInput carries the five required registration fields.
type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
	Role     string
}

// RegisteredUser is the outcome of a successful registration: the
// store-generated key and the allocated numeric id.
type RegisteredUser struct {
	Key    string `json:"id"`
	UserID int    `json:"userId"`
}

// Register validates the input, rejects duplicate usernames, allocates the
// next user id, hashes the password, and persists the record. The duplicate
// check, id allocation, and insert run inside one store transaction so two
// concurrent registrations cannot allocate the same id. No token is issued;
// registration and login are decoupled.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*RegisteredUser, error) {
	if in.Username == "" || in.Password == "" || in.Name == "" || in.Email == "" || in.Role == "" {
		return nil, ErrInvalidInput
	}

	hash, err := s.hasher.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	out := &RegisteredUser{}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx CredentialStore) error {
		if _, err := tx.FindByUsername(ctx, in.Username); err == nil {
			return ErrDuplicateUsername
		} else if !errors.IsNotFound(err) {
			return WrapStoreError(err, "failed to check for existing username")
		}

		id, err := tx.NextUserID(ctx)
		if err != nil {
			return WrapStoreError(err, "failed to allocate user id")
		}

		user := &User{
			UserID:       id,
			Username:     in.Username,
			PasswordHash: hash,
			Name:         in.Name,
			Email:        in.Email,
			Role:         in.Role,
			CreatedAt:    s.now().UTC(),
		}

		key, err := tx.Insert(ctx, user)
		if err != nil {
			return WrapStoreError(err, "failed to persist user")
		}

		out.Key = key
		out.UserID = id
		return nil
	})

	if err != nil {
		var rich *errors.Error
		if errors.As(err, &rich) {
			return nil, rich
		}
		return nil, WrapStoreError(err, "registration failed")
	}

	s.logger.Info("user registered", "username", in.Username, "user_id", out.UserID)
	return out, nil
}

// LoginResult carries the minted token and the user summary handed back to
// the client.
type LoginResult struct {
	Token string
	User  UserSummary
}

// Login verifies the credentials and mints a session token. An unknown
// username and a wrong password both return ErrInvalidCredentials so the
// response cannot distinguish the two.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login lookup failed", "error", err)
		return nil, WrapStoreError(err, "failed to look up user")
	}

	if err := s.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("login hash comparison failed", "error", err)
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		s.logger.Error("login token generation failed", "error", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to mint session token")
	}

	s.logger.Info("user logged in", "username", user.Username, "user_id", user.UserID)
	return &LoginResult{Token: token, User: user.Summary()}, nil
}

// GetUser returns a user by its numeric id along with its storage key.
func (s *Service) GetUser(ctx context.Context, userID int) (string, *User, error) {
	key, user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", nil, ErrUserNotFound
		}
		return "", nil, WrapStoreError(err, "failed to look up user")
	}
	return key, user, nil
}

// ListUsers returns the storageKey to record mapping for every user.
func (s *Service) ListUsers(ctx context.Context) (map[string]*User, error) {
	users, err := s.store.All(ctx)
	if err != nil {
		return nil, WrapStoreError(err, "failed to list users")
	}
	return users, nil
}

// UpdateUser merges the patch into the record identified by its numeric id.
// An empty patch is rejected before any store access.
func (s *Service) UpdateUser(ctx context.Context, userID int, patch UserPatch) error {
	if patch.IsZero() {
		return ErrInvalidInput
	}

	key, _, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to look up user")
	}

	if err := s.store.Update(ctx, key, patch); err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to update user")
	}
	return nil
}

// DeleteUser removes the record identified by its numeric id.
func (s *Service) DeleteUser(ctx context.Context, userID int) error {
	key, _, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to look up user")
	}

	if err := s.store.Delete(ctx, key); err != nil {
		if errors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return WrapStoreError(err, "failed to delete user")
	}
	return nil
}
