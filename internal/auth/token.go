package auth

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/finance-tracker/internal/domain"
)

// DefaultTokenTTL is the lifetime of an issued token (86,400,000 ms).
const DefaultTokenTTL = 24 * time.Hour

var (
	// ErrMalformedToken covers bad segments, bad encoding, bad JSON and signature mismatch.
	ErrMalformedToken = errors.New("malformed token")
	// ErrExpiredToken means the token decoded but exp is not after now.
	ErrExpiredToken = errors.New("token expired")
	// ErrSubjectMismatch means the token belongs to another subject.
	ErrSubjectMismatch = errors.New("token subject mismatch")
	// ErrEmptySubject is returned when issuing a token without a subject.
	ErrEmptySubject = errors.New("token subject must not be empty")
)

// TokenCodec issues and decodes HS256 signed bearer tokens.
// It is immutable after construction and safe for concurrent use.
type TokenCodec struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

// CodecOption customizes a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock overrides the time source used for iat/exp.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// NewTokenCodec builds a codec over the signing key. A non-positive ttl falls back to DefaultTokenTTL.
func NewTokenCodec(key []byte, ttl time.Duration, opts ...CodecOption) *TokenCodec {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	c := &TokenCodec{
		key: append([]byte(nil), key...),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the lifetime given to issued tokens.
func (c *TokenCodec) TTL() time.Duration {
	return c.ttl
}

// Issue signs a token for subject valid from now until now+TTL.
func (c *TokenCodec) Issue(subject string) (domain.Token, error) {
	if subject == "" {
		return domain.Token{}, ErrEmptySubject
	}

	// NumericDate has second precision; truncate so decode returns the same instants.
	issuedAt := c.now().Truncate(time.Second)
	expiresAt := issuedAt.Add(c.ttl)

	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return domain.Token{}, fmt.Errorf("sign token: %w", err)
	}

	return domain.Token{
		Raw:       signed,
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// Decode verifies the signature of tokenString and returns its claims.
// Expiry is not checked here.
func (c *TokenCodec) Decode(tokenString string) (domain.Token, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, c.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return domain.Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if !parsed.Valid {
		return domain.Token{}, ErrMalformedToken
	}
	if claims.Subject == "" || claims.IssuedAt == nil || claims.ExpiresAt == nil {
		return domain.Token{}, fmt.Errorf("%w: missing sub, iat or exp", ErrMalformedToken)
	}

	return domain.Token{
		Raw:       tokenString,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (c *TokenCodec) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS256 {
		return nil, errors.New("unexpected signing method")
	}
	return c.key, nil
}
