package auth

import (
	"time"
)

// User is the persisted user record. The numeric UserID is the externally
// visible identifier; the store-generated key a record lives under is a
// separate namespace and never appears inside the record itself.
//
// UserID, PasswordHash, and CreatedAt are immutable after creation. Only
// Name, Email, and Role are mutable through the exposed operations.
type User struct {
	UserID       int       `json:"userId"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserSummary is the client-facing projection of a User. It never carries
// the password hash.
type UserSummary struct {
	UserID   int    `json:"userId"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Summary strips the record down to its client-facing fields.
func (u *User) Summary() UserSummary {
	return UserSummary{
		UserID:   u.UserID,
		Username: u.Username,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
	}
}

// UserPatch carries a partial update. Empty fields are left untouched.
type UserPatch struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// IsZero reports whether the patch carries no changes at all.
func (p UserPatch) IsZero() bool {
	return p.Name == "" && p.Email == "" && p.Role == ""
}

// Fields returns the patch as a field map holding only the set values.
func (p UserPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != "" {
		fields["name"] = p.Name
	}
	if p.Email != "" {
		fields["email"] = p.Email
	}
	if p.Role != "" {
		fields["role"] = p.Role
	}
	return fields
}
