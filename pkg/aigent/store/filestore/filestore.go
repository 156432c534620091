// Package filestore keeps characters and profiles as JSON files, one per
// handle: <inputDir>/<handle>.json and <outputDir>/<handle>.json.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/store"
)

// Store is a directory-backed store.Store.
type Store struct {
	inputDir  string
	outputDir string
}

// New creates a store reading characters from inputDir and writing
// profiles to outputDir. Directories are created on first write.
func New(inputDir, outputDir string) *Store {
	return &Store{inputDir: inputDir, outputDir: outputDir}
}

// Open is like New but creates outputDir up front.
func Open(inputDir, outputDir string) (*Store, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create output dir: %v", internalerr.ErrStoreUnavailable, err)
	}
	return New(inputDir, outputDir), nil
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// CharacterPath returns the file a handle's character is read from.
func (s *Store) CharacterPath(handle string) string {
	return filepath.Join(s.inputDir, handle+".json")
}

// ProfilePath returns the file a handle's profile is written to.
func (s *Store) ProfilePath(handle string) string {
	return filepath.Join(s.outputDir, handle+".json")
}

// LoadCharacter reads and leniently decodes a character file.
func (s *Store) LoadCharacter(ctx context.Context, handle string) (store.Character, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Character{}, err
	}
	data, err := os.ReadFile(s.CharacterPath(handle))
	if errors.Is(err, fs.ErrNotExist) {
		return store.Character{}, fmt.Errorf("character file not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Character{}, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return store.DecodeCharacter(data)
}

// UpsertCharacter writes a character file.
func (s *Store) UpsertCharacter(ctx context.Context, handle string, c store.Character) error {
	if err := store.ValidateHandle(handle); err != nil {
		return err
	}
	if c.PostExamples == nil {
		c.PostExamples = []string{}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomic(s.inputDir, s.CharacterPath(handle), data)
}

// SaveProfile writes a profile file, replacing any previous one. A reader
// sees either the old file or the complete new one.
func (s *Store) SaveProfile(ctx context.Context, p store.Profile) error {
	if err := store.ValidateHandle(p.TwitterUsername); err != nil {
		return err
	}
	data, err := store.EncodeProfile(p)
	if err != nil {
		return err
	}
	return writeAtomic(s.outputDir, s.ProfilePath(p.TwitterUsername), data)
}

// LoadProfile reads a previously saved profile.
func (s *Store) LoadProfile(ctx context.Context, handle string) (store.Profile, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Profile{}, err
	}
	data, err := os.ReadFile(s.ProfilePath(handle))
	if errors.Is(err, fs.ErrNotExist) {
		return store.Profile{}, fmt.Errorf("profile not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Profile{}, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return store.DecodeProfile(data)
}

// writeAtomic writes data to a temporary file in dir and renames it over
// path.
func writeAtomic(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+ulid.Make().String()+".tmp")
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	return nil
}
