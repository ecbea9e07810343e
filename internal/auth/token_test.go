package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestTokenCodecRoundTrip(t *testing.T) {
	codec := NewTokenCodec(testKey, DefaultTokenTTL)

	for _, subject := range []string{"user@example.com", "a@x.com", "Mixed.Case@Example.COM", "ünïcode@example.org"} {
		t.Run(subject, func(t *testing.T) {
			issued, err := codec.Issue(subject)
			require.NoError(t, err)

			decoded, err := codec.Decode(issued.Raw)
			require.NoError(t, err)

			assert.Equal(t, subject, decoded.Subject)
			assert.True(t, decoded.IssuedAt.Before(decoded.ExpiresAt))
			assert.Equal(t, int64(86_400_000), decoded.ExpiresAt.Sub(decoded.IssuedAt).Milliseconds())
			assert.True(t, issued.IssuedAt.Equal(decoded.IssuedAt))
			assert.True(t, issued.ExpiresAt.Equal(decoded.ExpiresAt))
		})
	}
}

func TestTokenCodecWireFormat(t *testing.T) {
	now := time.Date(2026, 2, 14, 10, 30, 15, 0, time.UTC)
	codec := NewTokenCodec(testKey, 0, WithClock(fixedClock(now)))

	token, err := codec.Issue("user@example.com")
	require.NoError(t, err)

	segments := strings.Split(token.Raw, ".")
	require.Len(t, segments, 3)
	for _, seg := range segments {
		assert.NotContains(t, seg, "=")
	}

	headerJSON, err := base64.RawURLEncoding.DecodeString(segments[0])
	require.NoError(t, err)
	var header map[string]string
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "HS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	payloadJSON, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(payloadJSON, &payload))
	assert.Equal(t, "user@example.com", payload["sub"])
	assert.Equal(t, float64(now.Unix()), payload["iat"])
	assert.Equal(t, float64(now.Add(24*time.Hour).Unix()), payload["exp"])
}

func TestTokenCodecIssueRejectsEmptySubject(t *testing.T) {
	codec := NewTokenCodec(testKey, DefaultTokenTTL)

	_, err := codec.Issue("")
	assert.ErrorIs(t, err, ErrEmptySubject)
}

func TestTokenCodecDecodeMalformed(t *testing.T) {
	codec := NewTokenCodec(testKey, DefaultTokenTTL)
	valid, err := codec.Issue("user@example.com")
	require.NoError(t, err)
	segments := strings.Split(valid.Raw, ".")

	otherKey := NewTokenCodec([]byte("ffffffffffffffffffffffffffffffff"), DefaultTokenTTL)
	foreign, err := otherKey.Issue("user@example.com")
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "user@example.com",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testKey)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(testKey)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:  "user@example.com",
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}).SignedString(testKey)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "user@example.com",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	garbageJSON := base64.RawURLEncoding.EncodeToString([]byte("{not json"))

	tests := map[string]string{
		"empty":              "",
		"single segment":     "abc",
		"two segments":       segments[0] + "." + segments[1],
		"four segments":      valid.Raw + ".extra",
		"bad base64 payload": segments[0] + ".***." + segments[2],
		"payload not json":   segments[0] + "." + garbageJSON + "." + segments[2],
		"signature dropped":  segments[0] + "." + segments[1] + ".",
		"foreign key":        foreign.Raw,
		"wrong algorithm":    hs512,
		"alg none":           unsigned,
		"missing subject":    noSubject,
		"missing expiry":     noExpiry,
	}

	validator := NewTokenValidator(codec, nil)
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(input)
			assert.ErrorIs(t, err, ErrMalformedToken)
			assert.False(t, validator.IsValid(input, "user@example.com"))
		})
	}
}

func TestTokenCodecDetectsPayloadTampering(t *testing.T) {
	codec := NewTokenCodec(testKey, DefaultTokenTTL)
	token, err := codec.Issue("user@example.com")
	require.NoError(t, err)

	segments := strings.Split(token.Raw, ".")
	payload, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)

	for i := range payload {
		for bit := 0; bit < 8; bit++ {
			tampered := append([]byte(nil), payload...)
			tampered[i] ^= 1 << bit

			forged := segments[0] + "." + base64.RawURLEncoding.EncodeToString(tampered) + "." + segments[2]
			_, err := codec.Decode(forged)
			require.ErrorIs(t, err, ErrMalformedToken, "byte %d bit %d", i, bit)
		}
	}
}

func TestTokenCodecDecodeIgnoresExpiry(t *testing.T) {
	past := time.Now().Add(-48 * time.Hour)
	codec := NewTokenCodec(testKey, DefaultTokenTTL, WithClock(fixedClock(past)))

	token, err := codec.Issue("user@example.com")
	require.NoError(t, err)

	decoded, err := NewTokenCodec(testKey, DefaultTokenTTL).Decode(token.Raw)
	require.NoError(t, err)
	assert.Equal(t, "user@example.com", decoded.Subject)
	assert.True(t, decoded.ExpiresAt.Before(time.Now()))
}

func TestTokenCodecCopiesKey(t *testing.T) {
	key := append([]byte(nil), testKey...)
	codec := NewTokenCodec(key, DefaultTokenTTL)
	token, err := codec.Issue("user@example.com")
	require.NoError(t, err)

	key[0] ^= 0xff

	_, err = codec.Decode(token.Raw)
	assert.NoError(t, err)
}
