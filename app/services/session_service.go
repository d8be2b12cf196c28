// Package services provides external service integrations and technical concerns like upstream clients and sessions
package services

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/quickship/charge-console/utils"
)

// SessionService holds the backend token and notifies subscribers when the
// upstream rejects it. The console never recovers a session itself; the host
// decides what an expired session means (re-login, process exit, ...).
type SessionService interface {
	Token() string
	SetToken(token string)
	Clear()
	Expire()
	OnExpired(fn func())
	ExpiresWithin(d time.Duration) bool
}

type sessionService struct {
	mu        sync.RWMutex
	token     string
	listeners []func()
}

// NewSessionService creates a session holding the given backend token.
func NewSessionService(token string) SessionService {
	return &sessionService{token: token}
}

func (s *sessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *sessionService) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

func (s *sessionService) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}

// Expire clears the stored token and fires every subscribed callback once.
// Called by the backend client on any 401 outside the password-reset flow.
func (s *sessionService) Expire() {
	s.mu.Lock()
	s.token = ""
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

func (s *sessionService) OnExpired(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// ExpiresWithin reports whether the stored token is a JWT whose exp claim
// falls inside the given window. Opaque tokens always report false; only the
// upstream can judge those.
func (s *sessionService) ExpiresWithin(d time.Duration) bool {
	token := s.Token()
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(utils.UTCNowAdd(d))
}
