package models

import "time"

// SessionTTL is the fixed lifetime of a session. Sessions are never refreshed.
const SessionTTL = 24 * time.Hour

// Session is an authenticated window. ID is the token's jti; Token is the
// signed value handed to the caller and is not persisted.
type Session struct {
	ID        string
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ValidAt reports whether the session is still open at now.
func (s *Session) ValidAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}
