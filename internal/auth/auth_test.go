package auth

import (
	"bytes"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkhub/parkhub-tui/internal/kv"
)

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newSession(onRedirect func()) (*Session, *kv.Memory, *kv.Memory) {
	eph, dur := kv.NewMemory(), kv.NewMemory()
	return NewSession(eph, dur, onRedirect, zerolog.Nop()), eph, dur
}

func TestExpired(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		token string
		want  bool
	}{
		{"future exp", signed(t, jwt.MapClaims{"sub": "1", "exp": now.Add(time.Hour).Unix()}), false},
		{"past exp", signed(t, jwt.MapClaims{"sub": "1", "exp": now.Add(-time.Minute).Unix()}), true},
		{"exp equals now", signed(t, jwt.MapClaims{"exp": now.Unix()}), true},
		{"no exp", signed(t, jwt.MapClaims{"sub": "1"}), false},
		{"garbage", "not-a-jwt", true},
		{"empty", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Expired(tt.token, now))
		})
	}
}

func TestParseProfileType(t *testing.T) {
	p, err := ParseProfileType(" Company ")
	require.NoError(t, err)
	assert.Equal(t, Company, p)

	_, err = ParseProfileType("admin")
	assert.Error(t, err)
}

func TestSession_SignInStoresTokenAndProfile(t *testing.T) {
	s, eph, dur := newSession(nil)
	tok := signed(t, jwt.MapClaims{"sub": "7"})

	require.NoError(t, s.SignIn(tok, Driver))

	got, ok := s.Token()
	require.True(t, ok)
	assert.Equal(t, tok, got)

	stored, _ := eph.Get(TokenKey)
	assert.Equal(t, tok, stored, "token belongs in the ephemeral store")
	profile, _ := dur.Get(ProfileKey)
	assert.Equal(t, "driver", profile, "profile type belongs in the durable store")
	_, inDurable := dur.Get(TokenKey)
	assert.False(t, inDurable)

	assert.True(t, s.Authenticated(time.Now()))
}

func TestSession_SignInRejectsBadInput(t *testing.T) {
	s, _, _ := newSession(nil)
	assert.Error(t, s.SignIn("", Driver))
	assert.Error(t, s.SignIn("tok", ProfileType("admin")))
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestSession_SignOutClearsBoth(t *testing.T) {
	s, _, _ := newSession(nil)
	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{}), Company))

	require.NoError(t, s.SignOut())

	_, ok := s.Token()
	assert.False(t, ok)
	_, ok = s.Profile()
	assert.False(t, ok)
	assert.False(t, s.Authenticated(time.Now()))
}

func TestSession_ProfileIgnoresUnknownStoredValue(t *testing.T) {
	s, _, dur := newSession(nil)
	require.NoError(t, dur.Set(ProfileKey, "admin"))
	_, ok := s.Profile()
	assert.False(t, ok)
}

func TestSession_UnauthorizedRedirectsOnce(t *testing.T) {
	var redirects atomic.Int32
	s, _, dur := newSession(func() { redirects.Add(1) })
	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{}), Company))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.HandleUnauthorized()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), redirects.Load())
	assert.True(t, s.Guard().InProgress())
	_, ok := s.Token()
	assert.False(t, ok, "token is cleared on redirect")
	profile, _ := dur.Get(ProfileKey)
	assert.Equal(t, "company", profile, "profile type survives a redirect")

	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{}), Company))
	assert.False(t, s.Guard().InProgress())
	s.HandleUnauthorized()
	assert.Equal(t, int32(2), redirects.Load())
}

func TestRedirectGuard_NilCallbacks(t *testing.T) {
	g := NewRedirectGuard(nil, nil)
	redirected, err := g.HandleUnauthorized()
	require.NoError(t, err)
	assert.True(t, redirected)
	redirected, _ = g.HandleUnauthorized()
	assert.False(t, redirected)
	g.Reset()
	redirected, _ = g.HandleUnauthorized()
	assert.True(t, redirected)
}

func TestRedirectGuard_ReportsClearFailure(t *testing.T) {
	var redirects int
	clearErr := errors.New("disk full")
	g := NewRedirectGuard(func() error { return clearErr }, func() { redirects++ })

	redirected, err := g.HandleUnauthorized()
	assert.True(t, redirected)
	assert.ErrorIs(t, err, clearErr)
	assert.Equal(t, 1, redirects, "redirect fires even when clearing fails")

	redirected, err = g.HandleUnauthorized()
	assert.False(t, redirected)
	assert.NoError(t, err)
}

// failingStore refuses deletes so the token cannot be cleared.
type failingStore struct{ *kv.Memory }

func (failingStore) Delete(string) error { return errors.New("read-only") }

func TestSession_UnauthorizedLogsClearFailure(t *testing.T) {
	var buf bytes.Buffer
	eph := failingStore{kv.NewMemory()}
	s := NewSession(eph, kv.NewMemory(), nil, zerolog.New(&buf))
	require.NoError(t, s.SignIn(signed(t, jwt.MapClaims{}), Driver))

	s.HandleUnauthorized()

	assert.Contains(t, buf.String(), "could not be cleared")
	assert.Contains(t, buf.String(), "read-only")
	assert.True(t, s.Guard().InProgress())
}
