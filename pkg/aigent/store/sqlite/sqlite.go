package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/aigent/pkg/aigent/internalerr"
	"github.com/cognicore/aigent/pkg/aigent/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}
	// one writer at a time; pragmas below are per connection
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	// Initialize schema
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS characters (
	handle TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	posts TEXT NOT NULL DEFAULT '[]',
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS profiles (
	handle TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	name TEXT NOT NULL,
	tweet_examples TEXT NOT NULL,
	characteristics TEXT NOT NULL,
	topics TEXT NOT NULL,
	language TEXT NOT NULL,
	created_at TEXT NOT NULL
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// LoadCharacter retrieves a character by handle
func (s *sqliteStore) LoadCharacter(ctx context.Context, handle string) (store.Character, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Character{}, err
	}

	var name, posts string
	err := s.db.QueryRowContext(ctx, `SELECT name, posts FROM characters WHERE handle = ?`, handle).Scan(&name, &posts)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Character{}, fmt.Errorf("character not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Character{}, err
	}

	c := store.Character{Name: name}
	if err := json.Unmarshal([]byte(posts), &c.PostExamples); err != nil {
		return store.Character{}, fmt.Errorf("decode posts for %s: %w", handle, err)
	}
	if c.PostExamples == nil {
		c.PostExamples = []string{}
	}
	return c, nil
}

// UpsertCharacter inserts or replaces a character
func (s *sqliteStore) UpsertCharacter(ctx context.Context, handle string, c store.Character) error {
	if err := store.ValidateHandle(handle); err != nil {
		return err
	}
	posts, err := encodeList(c.PostExamples)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO characters (handle, name, posts, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(handle) DO UPDATE SET
	name=excluded.name,
	posts=excluded.posts,
	updated_at=excluded.updated_at;
`, handle, c.Name, posts, time.Now().UTC().Format(time.RFC3339))
	return err
}

// SaveProfile inserts or replaces the profile for p.TwitterUsername
func (s *sqliteStore) SaveProfile(ctx context.Context, p store.Profile) error {
	if err := store.ValidateHandle(p.TwitterUsername); err != nil {
		return err
	}

	examples, err := encodeList(p.TweetExamples)
	if err != nil {
		return err
	}
	characteristics, err := encodeList(p.Characteristics)
	if err != nil {
		return err
	}
	topics, err := encodeList(p.Topics)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO profiles (handle, run_id, name, tweet_examples, characteristics, topics, language, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(handle) DO UPDATE SET
	run_id=excluded.run_id,
	name=excluded.name,
	tweet_examples=excluded.tweet_examples,
	characteristics=excluded.characteristics,
	topics=excluded.topics,
	language=excluded.language,
	created_at=excluded.created_at;
`, p.TwitterUsername, p.RunID, p.Name, examples, characteristics, topics, p.Language, time.Now().UTC().Format(time.RFC3339))
	return err
}

// LoadProfile retrieves the stored profile for handle
func (s *sqliteStore) LoadProfile(ctx context.Context, handle string) (store.Profile, error) {
	if err := store.ValidateHandle(handle); err != nil {
		return store.Profile{}, err
	}

	var (
		p                                   store.Profile
		examples, characteristics, topicsJS string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT run_id, name, tweet_examples, characteristics, topics, language
FROM profiles WHERE handle = ?`, handle).Scan(&p.RunID, &p.Name, &examples, &characteristics, &topicsJS, &p.Language)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Profile{}, fmt.Errorf("profile not found for username: %s: %w", handle, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Profile{}, err
	}
	p.TwitterUsername = handle

	for _, f := range []struct {
		raw string
		dst *[]string
	}{
		{examples, &p.TweetExamples},
		{characteristics, &p.Characteristics},
		{topicsJS, &p.Topics},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return store.Profile{}, fmt.Errorf("decode profile for %s: %w", handle, err)
		}
	}
	return p, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
