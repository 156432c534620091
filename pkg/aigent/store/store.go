package store

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/cognicore/aigent/pkg/aigent/internalerr"
)

// Store persists character records (the input) and derived profiles (the
// output), both keyed by handle.
type Store interface {
	Close() error

	// Characters. LoadCharacter wraps internalerr.ErrNotFound when no
	// record exists for handle.
	LoadCharacter(ctx context.Context, handle string) (Character, error)
	UpsertCharacter(ctx context.Context, handle string, c Character) error

	// Profiles. SaveProfile replaces any previous profile for the same
	// handle in a single write.
	SaveProfile(ctx context.Context, p Profile) error
	LoadProfile(ctx context.Context, handle string) (Profile, error)
}

// Character is a user's raw record: a display name and sample posts.
type Character struct {
	Name         string   `json:"name"`
	PostExamples []string `json:"postExamples"`
}

// Profile is the derived record written for a handle.
type Profile struct {
	Name            string   `json:"name"`
	TweetExamples   []string `json:"tweetExamples"`
	Characteristics []string `json:"characteristics"`
	Topics          []string `json:"topics"`
	Language        string   `json:"language"`
	TwitterUsername string   `json:"twitterUsername"`

	// RunID identifies the run that produced the profile. It is kept by
	// stores that have room for it but is not part of the JSON record.
	RunID string `json:"-"`
}

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.-]{0,63}$`)

// ValidateHandle rejects handles that are empty, too long or could escape
// a storage directory.
func ValidateHandle(handle string) error {
	if !handlePattern.MatchString(handle) {
		return fmt.Errorf("%w: handle %q", internalerr.ErrInvalidInput, handle)
	}
	return nil
}

// DecodeCharacter parses a character record leniently: a missing or
// mistyped name becomes "", a missing posts list becomes empty, and
// non-string posts are dropped. Only input that is not a JSON object is
// an error.
func DecodeCharacter(data []byte) (Character, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Character{}, fmt.Errorf("%w: malformed character record: %v", internalerr.ErrInvalidInput, err)
	}

	var c Character
	if v, ok := raw["name"]; ok {
		// non-string names fall back to ""
		_ = json.Unmarshal(v, &c.Name)
	}

	var items []json.RawMessage
	if v, ok := raw["postExamples"]; ok && json.Unmarshal(v, &items) == nil {
		for _, item := range items {
			var post *string
			if json.Unmarshal(item, &post) == nil && post != nil {
				c.PostExamples = append(c.PostExamples, *post)
			}
		}
	}
	if c.PostExamples == nil {
		c.PostExamples = []string{}
	}
	return c, nil
}

// EncodeProfile renders p the way profiles are stored on disk: JSON
// indented by two spaces, with empty lists as [] rather than null.
func EncodeProfile(p Profile) ([]byte, error) {
	p.TweetExamples = nonNil(p.TweetExamples)
	p.Characteristics = nonNil(p.Characteristics)
	p.Topics = nonNil(p.Topics)
	return json.MarshalIndent(p, "", "  ")
}

// DecodeProfile parses a stored profile.
func DecodeProfile(data []byte) (Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: malformed profile record: %v", internalerr.ErrInvalidInput, err)
	}
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
