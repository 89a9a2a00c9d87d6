// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import "time"

// TokenKey is the storage key holding the credential.
const TokenKey = "token"

// =============================================================================
// STORE
// =============================================================================

// Store persists the single session credential.
type Store struct {
	storage Storage
	key     string
}

// NewStore creates a store over storage using TokenKey.
func NewStore(storage Storage) *Store {
	return &Store{storage: storage, key: TokenKey}
}

// Storage returns the underlying backend.
func (s *Store) Storage() Storage {
	return s.storage
}

// Load returns the stored credential, or "" when none is stored.
func (s *Store) Load() (string, error) {
	token, ok, err := s.storage.Get(s.key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Save stores token, replacing any previous credential.
func (s *Store) Save(token string) error {
	return s.storage.Set(s.key, token)
}

// Clear removes the stored credential.
func (s *Store) Clear() error {
	return s.storage.Delete(s.key)
}

// LoadValid loads the credential and validates it at now. An invalid or
// expired credential is cleared from storage before the error is returned.
func (s *Store) LoadValid(now time.Time) (string, *Claims, error) {
	token, err := s.Load()
	if err != nil {
		return "", nil, err
	}
	if token == "" {
		return "", nil, ErrNoToken
	}
	claims, err := Validate(token, now)
	if err != nil {
		_ = s.Clear()
		return "", nil, err
	}
	return token, claims, nil
}
