package domain

import "time"

// SessionType is the token scheme label echoed in session artifacts.
const SessionType = "Bearer"

// Session is the artifact returned by register/login/update. It is
// recomputed on every successful call and never persisted.
type Session struct {
	Token     string
	Type      string
	Email     string
	Name      string
	Roles     []Role
	ExpiresAt time.Time
}
