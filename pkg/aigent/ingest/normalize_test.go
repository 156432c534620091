package ingest

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", " \t\n ", ""},
		{"lowercases", "Hello WORLD", "hello world"},
		{"removes urls", "check https://example.com/a?b=c now", "check now"},
		{"removes http urls", "see http://x.io", "see"},
		{"keeps hashtags", "Loving #Rust and #Go!", "loving #rust and #go"},
		{"punctuation becomes space", "don't-stop", "don t stop"},
		{"collapses whitespace", "a   b\t\tc\n\nd", "a b c d"},
		{"keeps underscores and digits", "web_3 2024", "web_3 2024"},
		{"non-ascii letters dropped", "café crème", "caf cr me"},
		{"mentions lose marker", "@alice said hi", "alice said hi"},
		{"html entity residue", "rust &amp; go", "rust amp go"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsFixedPoint(t *testing.T) {
	inputs := []string{
		"I love #AI and #AI research.",
		"Check THIS out!!! https://t.co/xyz #Launch",
		"  multiple   spaces\tand\nlines ",
		"¿Qué? ¡Sí! — em dash, “quotes”",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestHashtags(t *testing.T) {
	got := Hashtags(Normalize("I love #AI and #AI research #web3"))
	want := []string{"ai", "ai", "web3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Hashtags = %v, want %v", got, want)
	}

	if tags := Hashtags("no tags here"); len(tags) != 0 {
		t.Errorf("expected no hashtags, got %v", tags)
	}
}

func FuzzNormalize(f *testing.F) {
	f.Add("I love #AI and #AI research.")
	f.Add("https://example.com")
	f.Add("")
	f.Add("\xff\xfe")
	f.Add("ÀÉÎ #Ünïcode")

	f.Fuzz(func(t *testing.T, text string) {
		once := Normalize(text)
		if twice := Normalize(once); twice != once {
			t.Errorf("not a fixed point: %q -> %q -> %q", text, once, twice)
		}
	})
}
