package annotate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag is a grammatical or lexical label attached to a token.
type Tag uint8

const (
	// Parts of speech. A token carries at most one of these, except that
	// auxiliaries are also verbs.
	Noun Tag = iota
	Verb
	Adjective
	Adverb
	Preposition
	Pronoun
	Auxiliary
	Determiner
	Conjunction
	Value

	// Entity-like token shapes
	Url
	Email
	PhoneNumber
	Date
	Money
	Hashtag
	AtMention

	// Lexicon categories
	Positive
	Negative
	Technology
	Health
	Science
	Business
	Finance
	Crypto
	AI
	Software
	Medical
	Technical
	Expression
	Slang
	QuestionWord

	numTags
)

var tagNames = [...]string{
	Noun:         "Noun",
	Verb:         "Verb",
	Adjective:    "Adjective",
	Adverb:       "Adverb",
	Preposition:  "Preposition",
	Pronoun:      "Pronoun",
	Auxiliary:    "Auxiliary",
	Determiner:   "Determiner",
	Conjunction:  "Conjunction",
	Value:        "Value",
	Url:          "Url",
	Email:        "Email",
	PhoneNumber:  "PhoneNumber",
	Date:         "Date",
	Money:        "Money",
	Hashtag:      "Hashtag",
	AtMention:    "AtMention",
	Positive:     "Positive",
	Negative:     "Negative",
	Technology:   "Technology",
	Health:       "Health",
	Science:      "Science",
	Business:     "Business",
	Finance:      "Finance",
	Crypto:       "Crypto",
	AI:           "AI",
	Software:     "Software",
	Medical:      "Medical",
	Technical:    "Technical",
	Expression:   "Expression",
	Slang:        "Slang",
	QuestionWord: "QuestionWord",
}

var tagFromName = func() map[string]Tag {
	m := make(map[string]Tag, len(tagNames))
	for i, name := range tagNames {
		m[strings.ToLower(name)] = Tag(i)
	}
	return m
}()

// DomainTags are the subject-matter categories that count as domain terms.
var DomainTags = NewTagSet(Technology, Health, Science, Business, Finance, Crypto, AI, Software, Medical)

// PartsOfSpeech is the set of grammatical tags; the tagger resolves each
// word to exactly one of them.
var PartsOfSpeech = NewTagSet(Noun, Verb, Adjective, Adverb, Preposition, Pronoun, Auxiliary, Determiner, Conjunction, Value)

// String returns the name of the tag.
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", int(t))
}

// MarshalText encodes the tag as its name, so tags render as strings in JSON.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tag name.
func (t *Tag) UnmarshalText(data []byte) error {
	tag, ok := ParseTag(string(data))
	if !ok {
		return fmt.Errorf("annotate: unknown tag %q", data)
	}
	*t = tag
	return nil
}

// ParseTag looks up a tag by name, case-insensitively.
func ParseTag(name string) (Tag, bool) {
	t, ok := tagFromName[strings.ToLower(strings.TrimSpace(name))]
	return t, ok
}

// TagSet is a set of tags.
type TagSet uint64

// NewTagSet returns a set holding tags.
func NewTagSet(tags ...Tag) TagSet {
	var s TagSet
	for _, t := range tags {
		s = s.With(t)
	}
	return s
}

// Has reports whether t is in the set.
func (s TagSet) Has(t Tag) bool { return s&(1<<t) != 0 }

// HasAny reports whether s and other share at least one tag.
func (s TagSet) HasAny(other TagSet) bool { return s&other != 0 }

// With returns s plus t.
func (s TagSet) With(t Tag) TagSet { return s | 1<<t }

// Without returns s minus t.
func (s TagSet) Without(t Tag) TagSet { return s &^ (1 << t) }

// Tags lists the set members in declaration order.
func (s TagSet) Tags() []Tag {
	var out []Tag
	for t := Tag(0); t < numTags; t++ {
		if s.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func (s TagSet) String() string {
	return "{" + strings.Join(s.names(), " ") + "}"
}

// MarshalJSON encodes the set as a list of tag names.
func (s TagSet) MarshalJSON() ([]byte, error) {
	names := s.names()
	if names == nil {
		names = []string{}
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of tag names. Unknown names are an error.
func (s *TagSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set TagSet
	for _, name := range names {
		t, ok := ParseTag(name)
		if !ok {
			return fmt.Errorf("annotate: unknown tag %q", name)
		}
		set = set.With(t)
	}
	*s = set
	return nil
}

func (s TagSet) names() []string {
	tags := s.Tags()
	if len(tags) == 0 {
		return nil
	}
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.String()
	}
	return names
}
