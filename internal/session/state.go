// Package session holds the in-memory view of who is logged in. It is a cache
// of what the stored tokens imply and is only fit for presentation decisions.
package session

import (
	"sync"

	"bistro-bff/internal/domain/auth"
	"bistro-bff/internal/pkg/jwt"
)

// Listener is notified after every change.
type Listener func(role auth.Role, authenticated bool)

type State struct {
	mu        sync.RWMutex
	role      *auth.Role
	listeners []Listener
}

// New returns a logged-out state.
func New() *State {
	return &State{}
}

func (s *State) Role() (auth.Role, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.role == nil {
		return "", false
	}
	return *s.role, true
}

func (s *State) IsAuthenticated() bool {
	_, ok := s.Role()
	return ok
}

func (s *State) Set(role auth.Role) {
	s.mu.Lock()
	r := role
	s.role = &r
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(role, true)
	}
}

func (s *State) Clear() {
	s.mu.Lock()
	wasSet := s.role != nil
	s.role = nil
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	if !wasSet {
		return
	}
	for _, l := range listeners {
		l("", false)
	}
}

// SetFromToken decodes a freshly issued access token and records its role.
// A token that does not decode, or carries an unknown role, logs the state out.
func (s *State) SetFromToken(accessToken string) {
	claims, err := jwt.DecodeUnverified(accessToken)
	if err != nil {
		s.Clear()
		return
	}
	role, err := auth.ParseRole(string(claims.Role))
	if err != nil {
		s.Clear()
		return
	}
	s.Set(role)
}

// TokenSource is the part of the token store hydration needs.
type TokenSource interface {
	Access() string
}

// Hydrate sets the state from the stored access token, if any.
func (s *State) Hydrate(src TokenSource) {
	token := src.Access()
	if token == "" {
		s.Clear()
		return
	}
	s.SetFromToken(token)
}

// Subscribe registers l and returns a function that removes it.
func (s *State) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
	idx := len(s.listeners) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.listeners) {
			s.listeners[idx] = func(auth.Role, bool) {}
		}
	}
}
