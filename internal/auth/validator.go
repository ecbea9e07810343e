package auth

import (
	"fmt"
	"time"
)

// TokenValidator checks decoded tokens against a subject and the clock.
//
// ExtractSubject and Verify surface errors to their caller. IsValid never does;
// it is the boolean gate for callers that only need a yes/no answer.
type TokenValidator struct {
	codec *TokenCodec
	now   func() time.Time
}

// NewTokenValidator wraps a codec. A nil now uses time.Now.
func NewTokenValidator(codec *TokenCodec, now func() time.Time) *TokenValidator {
	if now == nil {
		now = time.Now
	}
	return &TokenValidator{codec: codec, now: now}
}

// ExtractSubject returns the subject of a correctly signed token, expired or not.
func (v *TokenValidator) ExtractSubject(tokenString string) (string, error) {
	token, err := v.codec.Decode(tokenString)
	if err != nil {
		return "", err
	}
	return token.Subject, nil
}

// Verify reports why tokenString is not a live token for expectedSubject.
func (v *TokenValidator) Verify(tokenString, expectedSubject string) error {
	token, err := v.codec.Decode(tokenString)
	if err != nil {
		return err
	}
	if token.Subject != expectedSubject {
		return ErrSubjectMismatch
	}
	if token.ExpiredAt(v.now()) {
		return fmt.Errorf("%w at %s", ErrExpiredToken, token.ExpiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}

// IsValid is true only for a correctly signed, unexpired token issued to expectedSubject.
func (v *TokenValidator) IsValid(tokenString, expectedSubject string) bool {
	return v.Verify(tokenString, expectedSubject) == nil
}
