// Package auth gates ledger mutations behind a single configured operator
// credential.
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chrisdamba/bentoledger/internal/metrics"
	"github.com/chrisdamba/bentoledger/internal/models"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid admin id or password")
	ErrNotConfigured      = errors.New("admin credential not configured")
)

// Service holds the signed-in state of one process. Authenticated satisfies
// the session gate.
type Service struct {
	mu            sync.Mutex
	adminID       string
	hash          []byte
	authenticated bool
	throttle      throttle
	listeners     map[int]func(bool)
	nextListener  int
	now           func() time.Time
	metrics       *metrics.Metrics
}

// NewService accepts either a bcrypt hash or, for local setups, a plain
// password that is hashed here.
func NewService(cfg models.AdminConfig, m *metrics.Metrics) (*Service, error) {
	s := &Service{
		adminID:   cfg.ID,
		listeners: make(map[int]func(bool)),
		now:       time.Now,
		metrics:   m,
	}
	switch {
	case cfg.PasswordHash != "":
		if _, err := bcrypt.Cost([]byte(cfg.PasswordHash)); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
		s.hash = []byte(cfg.PasswordHash)
	case cfg.Password != "":
		hash, err := HashPassword(cfg.Password)
		if err != nil {
			return nil, err
		}
		s.hash = []byte(hash)
	}
	return s, nil
}

// HashPassword returns the bcrypt hash to put in admin.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) Login(id, secret string) error {
	s.mu.Lock()
	if s.hash == nil {
		s.mu.Unlock()
		return ErrNotConfigured
	}
	now := s.now()
	if wait := s.throttle.wait(now); wait > 0 {
		s.mu.Unlock()
		s.metrics.ObserveLogin("throttled")
		return &ThrottledError{Wait: wait}
	}

	if id != s.adminID || bcrypt.CompareHashAndPassword(s.hash, []byte(secret)) != nil {
		s.throttle.failed(now)
		s.mu.Unlock()
		s.metrics.ObserveLogin("invalid")
		return ErrInvalidCredentials
	}

	s.throttle.reset()
	changed := !s.authenticated
	s.authenticated = true
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	s.metrics.ObserveLogin("ok")
	if changed {
		notify(listeners, true)
	}
	return nil
}

func (s *Service) Logout() {
	s.mu.Lock()
	changed := s.authenticated
	s.authenticated = false
	listeners := s.snapshotListeners()
	s.mu.Unlock()

	if changed {
		notify(listeners, false)
	}
}

// Configured reports whether an admin credential was set.
func (s *Service) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hash != nil
}

func (s *Service) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// OnAuthStateChange calls fn on every sign-in and sign-out until the returned
// func is called.
func (s *Service) OnAuthStateChange(fn func(authenticated bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Service) snapshotListeners() []func(bool) {
	out := make([]func(bool), 0, len(s.listeners))
	for _, fn := range s.listeners {
		out = append(out, fn)
	}
	return out
}

func notify(listeners []func(bool), authenticated bool) {
	for _, fn := range listeners {
		fn(authenticated)
	}
}
