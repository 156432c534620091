package annotate

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

var tagger = NewRuleTagger(nil)

func annotate(t *testing.T, text string) *Annotation {
	t.Helper()
	ann, err := tagger.Annotate(context.Background(), text)
	if err != nil {
		t.Fatalf("Annotate(%q): %v", text, err)
	}
	return ann
}

func tokenTags(t *testing.T, ann *Annotation, text string) TagSet {
	t.Helper()
	for _, tok := range ann.Tokens {
		if tok.Text == text {
			return tok.Tags
		}
	}
	t.Fatalf("no token %q in %v", text, ann.Tokens)
	return 0
}

func TestRuleTaggerPartsOfSpeech(t *testing.T) {
	tests := []struct {
		text  string
		token string
		want  Tag
	}{
		{"I love pizza", "I", Pronoun},
		{"I love pizza", "love", Verb},
		{"I love pizza", "pizza", Noun},
		{"AI research is fun.", "research", Noun},
		{"AI research is fun.", "is", Auxiliary},
		{"AI research is fun.", "fun", Adjective},
		{"We are shipping today", "shipping", Verb},
		{"we code daily", "code", Verb},
		{"my code is clean", "code", Noun},
		{"this code works", "this", Determiner},
		{"this is great", "this", Pronoun},
		{"I like tea", "like", Verb},
		{"like a rocket", "like", Preposition},
		{"the history of art", "of", Preposition},
		{"she quickly left", "quickly", Adverb},
		{"a gorgeous view", "gorgeous", Adjective},
		{"the integration broke", "integration", Noun},
		{"bitcoin rallied", "bitcoin", Noun},
	}
	for _, tt := range tests {
		ann := annotate(t, tt.text)
		tags := tokenTags(t, ann, tt.token)
		if !tags.Has(tt.want) {
			t.Errorf("%q in %q: tags %v, want %v", tt.token, tt.text, tags, tt.want)
		}
		pos := tags & PartsOfSpeech
		if tt.want != Auxiliary && len(pos.Tags()) != 1 {
			t.Errorf("%q in %q: expected exactly one part of speech, got %v", tt.token, tt.text, pos)
		}
	}
}

func TestRuleTaggerAuxiliaryIsVerb(t *testing.T) {
	tags := tokenTags(t, annotate(t, "it was late"), "was")
	if !tags.Has(Auxiliary) || !tags.Has(Verb) {
		t.Errorf("auxiliary should also be a verb: %v", tags)
	}
}

func TestRuleTaggerCategories(t *testing.T) {
	ann := annotate(t, "I love bitcoin but hate the latency lol")
	checks := map[string]Tag{
		"love":    Positive,
		"hate":    Negative,
		"bitcoin": Crypto,
		"latency": Technical,
		"lol":     Expression,
	}
	for text, want := range checks {
		if tags := tokenTags(t, ann, text); !tags.Has(want) {
			t.Errorf("%q: tags %v, want %v", text, tags, want)
		}
	}
	if tags := tokenTags(t, ann, "lol"); tags.HasAny(PartsOfSpeech) {
		t.Errorf("interjection should carry no part of speech: %v", tags)
	}
}

func TestRuleTaggerEntities(t *testing.T) {
	ann := annotate(t, "Email bob@example.com or call 555-123-4567, see https://example.com/x today. "+
		"Costs $25 or 30 dollars from 2024-01-15 for @alice #DeFi")

	checks := []struct {
		token string
		want  Tag
	}{
		{"bob@example.com", Email},
		{"555-123-4567", PhoneNumber},
		{"https://example.com/x", Url},
		{"$25", Money},
		{"30", Money},
		{"dollars", Money},
		{"2024-01-15", Date},
		{"@alice", AtMention},
		{"#DeFi", Hashtag},
		{"today", Date},
	}
	for _, c := range checks {
		if tags := tokenTags(t, ann, c.token); !tags.Has(c.want) {
			t.Errorf("%q: tags %v, want %v", c.token, tags, c.want)
		}
	}

	if tags := tokenTags(t, ann, "#DeFi"); tags.Has(Noun) || tags.Has(Crypto) {
		t.Errorf("hashtags carry only the Hashtag tag, got %v", tags)
	}
}

func TestRuleTaggerPhrases(t *testing.T) {
	ann := annotate(t, "Deep dive into Machine Learning tonight")

	var merged *Token
	for i := range ann.Tokens {
		if ann.Tokens[i].Text == "Machine Learning" {
			merged = &ann.Tokens[i]
		}
	}
	if merged == nil {
		t.Fatalf("phrase not merged: %+v", ann.Tokens)
	}
	if merged.Normal != "machine learning" {
		t.Errorf("Normal = %q", merged.Normal)
	}
	if !merged.Tags.Has(Noun) || !merged.Tags.Has(AI) {
		t.Errorf("phrase tags = %v", merged.Tags)
	}
}

func TestRuleTaggerPhraseDoesNotCrossSentences(t *testing.T) {
	ann := annotate(t, "I like the machine. Learning is hard")
	for _, tok := range ann.Tokens {
		if strings.Contains(tok.Text, " ") {
			t.Errorf("phrase merged across sentences: %q", tok.Text)
		}
	}
}

func TestRuleTaggerSentences(t *testing.T) {
	ann := annotate(t, "Is this real? Wow!! what do you think")

	if len(ann.Sentences) != 3 {
		t.Fatalf("expected 3 sentences, got %+v", ann.Sentences)
	}
	want := []struct {
		question     bool
		exclamations int
	}{
		{true, 0},
		{false, 2},
		{true, 0}, // unterminated, starts with a question word
	}
	for i, w := range want {
		s := ann.Sentences[i]
		if s.Question != w.question || s.Exclamations != w.exclamations {
			t.Errorf("sentence %d: %+v, want question=%v exclamations=%d", i, s, w.question, w.exclamations)
		}
	}
	if ann.Questions() != 2 || ann.Exclamations() != 2 {
		t.Errorf("Questions=%d Exclamations=%d", ann.Questions(), ann.Exclamations())
	}

	for i, tok := range ann.Tokens {
		s := ann.Sentences[tok.Sentence]
		if i < s.Start || i >= s.End {
			t.Errorf("token %d (%q) outside its sentence %+v", i, tok.Text, s)
		}
	}
}

func TestRuleTaggerPhraseAndActionPatterns(t *testing.T) {
	ann := annotate(t, "AI research is fun.")

	phrases := ann.Match(MustCompile("#Noun+ (#Preposition? #Noun+)?"))
	if !reflect.DeepEqual(phrases, []string{"AI research"}) {
		t.Errorf("noun phrases = %q", phrases)
	}

	actions := ann.Match(MustCompile("#Noun+ (#Verb|#Adjective)"))
	if !reflect.DeepEqual(actions, []string{"AI research is"}) {
		t.Errorf("topic actions = %q", actions)
	}
}

func TestRuleTaggerEmpty(t *testing.T) {
	for _, text := range []string{"", "   ", "?!"} {
		ann := annotate(t, text)
		if len(ann.Tokens) != 0 || len(ann.Sentences) != 0 {
			t.Errorf("%q: expected empty annotation, got %+v", text, ann)
		}
	}
}

func TestRuleTaggerErrors(t *testing.T) {
	if _, err := tagger.Annotate(context.Background(), "bad \xff bytes"); !errors.Is(err, ErrUnannotatable) {
		t.Errorf("invalid UTF-8: got %v, want ErrUnannotatable", err)
	}

	small := NewRuleTagger(nil)
	small.MaxTextBytes = 8
	if _, err := small.Annotate(context.Background(), "this is too long"); !errors.Is(err, ErrUnannotatable) {
		t.Errorf("oversized text: got %v, want ErrUnannotatable", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := tagger.Annotate(ctx, "hello"); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func FuzzRuleTagger(f *testing.F) {
	f.Add("I love #AI and #AI research.")
	f.Add("Is this real?! email me at a@b.co or call 555-123-4567")
	f.Add("$5 ... !!! ??")
	f.Add("")

	f.Fuzz(func(t *testing.T, text string) {
		ann, err := tagger.Annotate(context.Background(), text)
		if err != nil {
			if !errors.Is(err, ErrUnannotatable) {
				t.Fatalf("unexpected error %v", err)
			}
			return
		}
		for i, tok := range ann.Tokens {
			if tok.Sentence < 0 || tok.Sentence >= len(ann.Sentences) {
				t.Fatalf("token %d (%q) has sentence %d of %d", i, tok.Text, tok.Sentence, len(ann.Sentences))
			}
		}
		prev := 0
		for _, s := range ann.Sentences {
			if s.Start != prev || s.End <= s.Start {
				t.Fatalf("sentences not contiguous: %+v", ann.Sentences)
			}
			prev = s.End
		}
		if prev != len(ann.Tokens) {
			t.Fatalf("sentences cover %d of %d tokens", prev, len(ann.Tokens))
		}
	})
}
