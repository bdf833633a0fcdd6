// Package auth keeps the client's authentication session: the access token, the
// signed-in profile type and the once-only redirect to the login screen after
// the API rejects the token.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/parkhub/parkhub-tui/internal/kv"
)

// Storage keys.
const (
	TokenKey   = "token"
	ProfileKey = "profile_type"
)

// ProfileType distinguishes the two kinds of account.
type ProfileType string

const (
	Driver  ProfileType = "driver"
	Company ProfileType = "company"
)

// Valid reports whether p is a known profile type.
func (p ProfileType) Valid() bool {
	return p == Driver || p == Company
}

// ParseProfileType accepts "driver" or "company" in any case.
func ParseProfileType(value string) (ProfileType, error) {
	p := ProfileType(strings.ToLower(strings.TrimSpace(value)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown profile type %q", value)
	}
	return p, nil
}

// Session stores the token in a session-scoped store and the profile type in a
// durable one.
type Session struct {
	ephemeral kv.Store
	durable   kv.Store
	guard     *RedirectGuard
	log       zerolog.Logger
}

// NewSession builds a Session. onRedirect runs the first time the API rejects
// the token; it may be nil.
func NewSession(ephemeral, durable kv.Store, onRedirect func(), log zerolog.Logger) *Session {
	s := &Session{ephemeral: ephemeral, durable: durable, log: log}
	s.guard = NewRedirectGuard(s.clearToken, onRedirect)
	return s
}

// Token returns the stored access token.
func (s *Session) Token() (string, bool) {
	tok, ok := s.ephemeral.Get(TokenKey)
	if !ok || tok == "" {
		return "", false
	}
	return tok, true
}

// Profile returns the remembered profile type, if any.
func (s *Session) Profile() (ProfileType, bool) {
	raw, ok := s.durable.Get(ProfileKey)
	if !ok {
		return "", false
	}
	p := ProfileType(raw)
	if !p.Valid() {
		return "", false
	}
	return p, true
}

// SetProfile remembers the profile type across runs.
func (s *Session) SetProfile(p ProfileType) error {
	if !p.Valid() {
		return fmt.Errorf("unknown profile type %q", p)
	}
	if err := s.durable.Set(ProfileKey, string(p)); err != nil {
		return fmt.Errorf("store profile type: %w", err)
	}
	return nil
}

// SignIn stores the token and profile type and re-arms the redirect guard.
func (s *Session) SignIn(token string, p ProfileType) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("empty access token")
	}
	if err := s.SetProfile(p); err != nil {
		return err
	}
	if err := s.ephemeral.Set(TokenKey, token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	s.guard.Reset()
	s.log.Info().Str("profile_type", string(p)).Msg("signed in")
	return nil
}

// SignOut forgets the token and the profile type.
func (s *Session) SignOut() error {
	if err := s.clearToken(); err != nil {
		return err
	}
	if err := s.durable.Delete(ProfileKey); err != nil {
		return fmt.Errorf("clear profile type: %w", err)
	}
	s.log.Info().Msg("signed out")
	return nil
}

// Authenticated reports whether a token is stored and has not expired at now.
func (s *Session) Authenticated(now time.Time) bool {
	tok, ok := s.Token()
	return ok && !Expired(tok, now)
}

// HandleUnauthorized reacts to a 401 from the API.
func (s *Session) HandleUnauthorized() {
	redirected, err := s.guard.HandleUnauthorized()
	if err != nil {
		s.log.Error().Err(err).Msg("token rejected but could not be cleared")
	}
	if redirected {
		s.log.Warn().Msg("token rejected, redirecting to login")
	}
}

// Guard exposes the redirect guard.
func (s *Session) Guard() *RedirectGuard {
	return s.guard
}

func (s *Session) clearToken() error {
	if err := s.ephemeral.Delete(TokenKey); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Expired decodes the exp claim of a JWT without verifying the signature.
// Tokens without exp never expire here; tokens that cannot be decoded count as
// expired.
func Expired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return true
	}
	if exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}

// RedirectGuard makes the "send the user back to login" reaction happen once
// per rejected session, however many requests fail with 401 concurrently.
type RedirectGuard struct {
	clear      func() error
	onRedirect func()

	mu         sync.Mutex
	inProgress bool
}

// NewRedirectGuard builds a guard. clear and onRedirect may be nil.
func NewRedirectGuard(clear func() error, onRedirect func()) *RedirectGuard {
	return &RedirectGuard{clear: clear, onRedirect: onRedirect}
}

// HandleUnauthorized clears the credentials and fires the redirect callback on
// the first call. It returns false while a redirect is already in progress.
// A failure to clear is returned; the redirect still fires.
func (g *RedirectGuard) HandleUnauthorized() (bool, error) {
	g.mu.Lock()
	if g.inProgress {
		g.mu.Unlock()
		return false, nil
	}
	g.inProgress = true
	g.mu.Unlock()

	var err error
	if g.clear != nil {
		err = g.clear()
	}
	if g.onRedirect != nil {
		g.onRedirect()
	}
	return true, err
}

// InProgress reports whether a redirect has fired and not been reset.
func (g *RedirectGuard) InProgress() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inProgress
}

// Reset re-arms the guard, typically after a successful sign-in.
func (g *RedirectGuard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inProgress = false
}
