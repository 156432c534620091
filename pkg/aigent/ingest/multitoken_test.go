package ingest

import (
	"testing"
)

func TestMultiTokenBasic(t *testing.T) {
	entries := []DictEntry{
		{Canonical: "machine learning", Variants: []string{"ml"}, Category: "ai"},
		{Canonical: "neural network", Variants: []string{"nn"}, Category: "ai"},
	}
	parser := NewMultiTokenParser(entries)

	tokens := []string{"deep", "machine", "learning", "uses", "neural", "network"}
	spans := parser.Spans(tokens)

	expected := []string{"machine learning", "neural network"}
	if len(spans) != len(expected) {
		t.Fatalf("Expected %d spans, got %+v", len(expected), spans)
	}
	for i, s := range spans {
		if s.Entry.Canonical != expected[i] {
			t.Errorf("span %d = %+v, want %q", i, s, expected[i])
		}
	}
}

func TestMultiTokenSpans(t *testing.T) {
	parser := NewMultiTokenParser([]DictEntry{
		{Canonical: "open source", Category: "software"},
		{Canonical: "machine learning", Category: "ai"},
	})

	tokens := []string{"Open", "Source", "machine", "learning", "rocks"}
	spans := parser.Spans(tokens)

	if len(spans) != 2 {
		t.Fatalf("expected 2 spans, got %d: %+v", len(spans), spans)
	}
	if spans[0].Start != 0 || spans[0].End != 2 || spans[0].Entry.Category != "software" {
		t.Errorf("unexpected first span %+v", spans[0])
	}
	if spans[1].Start != 2 || spans[1].End != 4 || spans[1].Entry.Canonical != "machine learning" {
		t.Errorf("unexpected second span %+v", spans[1])
	}
}

func TestMultiTokenSpansIgnoreSingleWordVariants(t *testing.T) {
	parser := NewMultiTokenParser([]DictEntry{
		{Canonical: "photovoltaics", Variants: []string{"pv"}, Category: "energy"},
	})

	if spans := parser.Spans([]string{"pv", "panels"}); len(spans) != 0 {
		t.Errorf("single-word entries should not produce spans, got %+v", spans)
	}
}

func TestMultiTokenMultiWordVariant(t *testing.T) {
	parser := NewMultiTokenParser([]DictEntry{
		{Canonical: "artificial intelligence", Variants: []string{"A I"}, Category: "ai"},
	})

	spans := parser.Spans([]string{"we", "build", "a", "i", "tools"})
	if len(spans) != 1 || spans[0].Start != 2 || spans[0].End != 4 {
		t.Fatalf("variant should match, got %+v", spans)
	}
	if spans[0].Entry.Canonical != "artificial intelligence" {
		t.Errorf("variant should map to its canonical entry, got %+v", spans[0].Entry)
	}
}

func TestMultiTokenGreedyLongest(t *testing.T) {
	entries := []DictEntry{
		{Canonical: "language model", Category: "ai"},
		{Canonical: "large language model", Variants: []string{"llm"}, Category: "ai"},
	}
	parser := NewMultiTokenParser(entries)

	spans := parser.Spans([]string{"large", "language", "model", "training"})
	if len(spans) != 1 || spans[0].Entry.Canonical != "large language model" || spans[0].End != 3 {
		t.Errorf("Should match longest phrase, got %+v", spans)
	}
}

func TestMultiTokenNoMatch(t *testing.T) {
	parser := NewMultiTokenParser([]DictEntry{
		{Canonical: "machine learning", Variants: []string{"ml"}, Category: "ai"},
	})

	if spans := parser.Spans([]string{"hello", "world"}); len(spans) != 0 {
		t.Errorf("Unmatched tokens should produce no spans, got %+v", spans)
	}
}

func TestMultiTokenEmptyDict(t *testing.T) {
	parser := NewMultiTokenParser(nil)

	if spans := parser.Spans([]string{"hello", "world"}); len(spans) != 0 {
		t.Errorf("Empty dictionary should produce no spans, got %+v", spans)
	}
}
