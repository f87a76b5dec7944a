package types

import "time"

// Session maps an opaque token to a user for a fixed validity window.
// A session past ExpiresAt is dead; it is never revived.
type Session struct {
	Token     string    `json:"token"`
	UserID    int       `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is dead at the given instant.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}
