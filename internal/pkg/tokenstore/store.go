// Package tokenstore mirrors the session token pair into client-readable
// storage. It holds no logic beyond key-value access.
package tokenstore

import (
	"errors"

	"bistro-bff/internal/domain/auth"
)

type Store struct {
	storage Storage
}

func New(storage Storage) *Store {
	if storage == nil {
		storage = NoopStorage{}
	}
	return &Store{storage: storage}
}

// Noop returns a store for server-side callers.
func Noop() *Store {
	return New(NoopStorage{})
}

func (s *Store) Access() string {
	v, _ := s.storage.Get(auth.AccessTokenKey)
	return v
}

func (s *Store) Refresh() string {
	v, _ := s.storage.Get(auth.RefreshTokenKey)
	return v
}

// Pair returns whatever is stored; either half may be empty.
func (s *Store) Pair() auth.TokenPair {
	return auth.TokenPair{AccessToken: s.Access(), RefreshToken: s.Refresh()}
}

func (s *Store) SetAccess(v string) error {
	return s.storage.Set(auth.AccessTokenKey, v)
}

func (s *Store) SetRefresh(v string) error {
	return s.storage.Set(auth.RefreshTokenKey, v)
}

// SetPair writes both tokens.
func (s *Store) SetPair(p auth.TokenPair) error {
	return errors.Join(s.SetAccess(p.AccessToken), s.SetRefresh(p.RefreshToken))
}

// Clear removes both tokens.
func (s *Store) Clear() error {
	return errors.Join(
		s.storage.Delete(auth.AccessTokenKey),
		s.storage.Delete(auth.RefreshTokenKey),
	)
}
