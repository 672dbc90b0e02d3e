package domain

import "time"

// Identity represents an authenticated user identity from the identity provider.
type Identity struct {
	UserID    string
	Email     string
	SessionID string
	CreatedAt time.Time
}

// CachedSession is the part of a validated identity kept between requests.
type CachedSession struct {
	UserID    string
	Email     string
	CreatedAt time.Time
}

// SessionClaims is the role snapshot carried by a signed session token.
// It may lag the role store after an assignment.
type SessionClaims struct {
	Subject   string
	Role      Role
	SessionID string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// CachedRoute is an upstream response kept for a role-dependent path.
type CachedRoute struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}
