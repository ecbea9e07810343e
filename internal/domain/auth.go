package domain

import "time"

// Token is the decoded form of an issued bearer token.
type Token struct {
	Raw       string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ExpiredAt reports whether the token is no longer valid at now.
func (t Token) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
