package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedTestToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSessionServiceTokenLifecycle(t *testing.T) {
	session := NewSessionService("initial-token")
	assert.Equal(t, "initial-token", session.Token())

	session.SetToken("rotated-token")
	assert.Equal(t, "rotated-token", session.Token())

	session.Clear()
	assert.Empty(t, session.Token())
}

func TestSessionServiceExpire(t *testing.T) {
	session := NewSessionService("some-token")

	fired := 0
	session.OnExpired(func() { fired++ })
	session.OnExpired(func() { fired++ })
	session.OnExpired(nil) // ignored

	session.Expire()

	assert.Empty(t, session.Token(), "expiry clears the token")
	assert.Equal(t, 2, fired, "every subscribed callback fires once")
}

func TestSessionServiceExpiresWithin(t *testing.T) {
	tests := []struct {
		name   string
		token  func(t *testing.T) string
		window time.Duration
		want   bool
	}{
		{
			name:   "empty token counts as expired",
			token:  func(t *testing.T) string { return "" },
			window: time.Minute,
			want:   true,
		},
		{
			name:   "opaque token cannot be judged",
			token:  func(t *testing.T) string { return "not-a-jwt" },
			window: time.Minute,
			want:   false,
		},
		{
			name:   "jwt expiring inside the window",
			token:  func(t *testing.T) string { return signedTestToken(t, time.Now().Add(30*time.Second)) },
			window: 2 * time.Minute,
			want:   true,
		},
		{
			name:   "jwt expiring outside the window",
			token:  func(t *testing.T) string { return signedTestToken(t, time.Now().Add(time.Hour)) },
			window: 2 * time.Minute,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session := NewSessionService(tt.token(t))
			assert.Equal(t, tt.want, session.ExpiresWithin(tt.window))
		})
	}
}
