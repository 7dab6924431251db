// Package entity defines the domain entities for the auth feature.
package entity

import "time"

// User represents a registered account.
// A User exists only after its signup code has been confirmed.
type User struct {
	// Email is the account identifier. It is unique across all users.
	Email string `json:"email" gorm:"primaryKey;size:255"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `json:"passwordHash,omitempty" gorm:"size:255"`

	// SessionToken is the most recently issued session token for the user.
	SessionToken string `json:"sessionToken,omitempty" gorm:"size:64"`
}

// Merge copies the non-empty fields of patch onto u.
func (u *User) Merge(patch *User) {
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.PasswordHash != "" {
		u.PasswordHash = patch.PasswordHash
	}
	if patch.SessionToken != "" {
		u.SessionToken = patch.SessionToken
	}
}

// PendingSignup holds a signup that is waiting for its emailed code.
type PendingSignup struct {
	Code         int       // 6-digit one-time code
	PasswordHash string    // hashed before the code is confirmed
	CreatedAt    time.Time // used for optional expiry
}

// IsExpiredAt returns true if the signup is older than ttl at t. A ttl of 0 never expires.
func (p *PendingSignup) IsExpiredAt(t time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return t.After(p.CreatedAt.Add(ttl))
}
