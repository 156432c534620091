package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/store"
)

// Store is an in-memory implementation of store.Store for tests.
type Store struct {
	mu         sync.RWMutex
	characters map[string]store.Character
	profiles   map[string]store.Profile
}

// New creates a new in-memory store.
func New() *Store {
	return &Store{
		characters: make(map[string]store.Character),
		profiles:   make(map[string]store.Profile),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// LoadCharacter implements store.Store.
func (s *Store) LoadCharacter(ctx context.Context, handle string) (store.Character, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Character{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.characters[handle]
	if !ok {
		return store.Character{}, fmt.Errorf("character not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	return copyCharacter(c), nil
}

// UpsertCharacter implements store.Store.
func (s *Store) UpsertCharacter(ctx context.Context, handle string, c store.Character) error {
	if err := store.ValidateHandle(handle); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.characters[handle] = copyCharacter(c)
	return nil
}

// SaveProfile implements store.Store.
func (s *Store) SaveProfile(ctx context.Context, p store.Profile) error {
	if err := store.ValidateHandle(p.TwitterUsername); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.profiles[p.TwitterUsername] = copyProfile(p)
	return nil
}

// LoadProfile implements store.Store.
func (s *Store) LoadProfile(ctx context.Context, handle string) (store.Profile, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Profile{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[handle]
	if !ok {
		return store.Profile{}, fmt.Errorf("profile not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	return copyProfile(p), nil
}

// Profiles returns the number of stored profiles.
func (s *Store) Profiles() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func copyCharacter(c store.Character) store.Character {
	c.PostExamples = cloneList(c.PostExamples)
	return c
}

func copyProfile(p store.Profile) store.Profile {
	p.TweetExamples = cloneList(p.TweetExamples)
	p.Characteristics = cloneList(p.Characteristics)
	p.Topics = cloneList(p.Topics)
	return p
}

func cloneList(s []string) []string {
	if s == nil {
		return []string{}
	}
	return slices.Clone(s)
}
