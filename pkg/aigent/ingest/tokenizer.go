package ingest

import (
	"strings"
	"unicode"
)

// Word is a single token as it appears in the source text, stripped of
// surrounding punctuation.
type Word struct {
	Text     string
	Sentence int // index into Tokens.Sentences
}

// Sentence is a half-open range of word indexes [Start, End) together with
// the punctuation run that terminated it ("" when the text simply ended).
type Sentence struct {
	Start    int
	End      int
	Terminal string
}

// Tokens is the result of tokenizing a text.
type Tokens struct {
	Words     []Word
	Sentences []Sentence
}

// Texts returns the text of every word in order.
func (t Tokens) Texts() []string {
	out := make([]string, len(t.Words))
	for i, w := range t.Words {
		out[i] = w.Text
	}
	return out
}

// Tokenize splits text into words and sentences. URLs and e-mail addresses
// stay whole, hashtags and @mentions keep their marker, and a '$' is kept
// when it prefixes an amount. Runs of '.', '?' and '!' end a sentence.
func Tokenize(text string) Tokens {
	tz := tokenizer{}
	for _, field := range strings.Fields(text) {
		if isLink(field) {
			body, tail := splitTrailing(field)
			tz.emit(body)
			tz.punct(tail)
			continue
		}
		tz.scanField(field)
	}
	tz.closeSentence("")
	return Tokens{Words: tz.words, Sentences: tz.sentences}
}

type tokenizer struct {
	words     []Word
	sentences []Sentence
	start     int
	current   strings.Builder
}

func (tz *tokenizer) scanField(field string) {
	runes := []rune(field)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case isWordRune(r):
			tz.current.WriteRune(normalizeQuote(r))
		case (r == '#' || r == '@') && tz.current.Len() == 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			tz.current.WriteRune(r)
		case r == '$' && tz.current.Len() == 0 && i+1 < len(runes) && unicode.IsDigit(runes[i+1]):
			tz.current.WriteRune(r)
		case (r == '.' || r == ',') && tz.current.Len() > 0 && i+1 < len(runes) && isWordRune(runes[i+1]):
			// 3.5, 1,000, node.js
			tz.current.WriteRune(r)
		case r == '%' && tz.current.Len() > 0:
			tz.current.WriteRune(r)
			tz.flush()
		case isTerminal(r):
			tz.flush()
			j := i
			for j < len(runes) && isTerminal(runes[j]) {
				j++
			}
			tz.closeSentence(string(runes[i:j]))
			i = j - 1
		default:
			tz.flush()
		}
	}
	tz.flush()
}

func (tz *tokenizer) flush() {
	if tz.current.Len() == 0 {
		return
	}
	tz.emit(cleanToken(tz.current.String()))
	tz.current.Reset()
}

func (tz *tokenizer) emit(text string) {
	if text == "" {
		return
	}
	tz.words = append(tz.words, Word{Text: text, Sentence: len(tz.sentences)})
}

func (tz *tokenizer) punct(tail string) {
	for _, r := range tail {
		if isTerminal(r) {
			tz.closeSentence(strings.TrimFunc(tail, func(r rune) bool { return !isTerminal(r) }))
			return
		}
	}
}

func (tz *tokenizer) closeSentence(terminal string) {
	if len(tz.words) == tz.start {
		// punctuation without words: attach to the previous sentence
		if terminal != "" && len(tz.sentences) > 0 {
			tz.sentences[len(tz.sentences)-1].Terminal += terminal
		}
		return
	}
	tz.sentences = append(tz.sentences, Sentence{Start: tz.start, End: len(tz.words), Terminal: terminal})
	tz.start = len(tz.words)
}

// cleanToken strips leading/trailing hyphens and apostrophes and normalizes
// consecutive hyphens
func cleanToken(token string) string {
	token = strings.TrimRight(token, "-'")
	if token != "" && token[0] != '#' && token[0] != '@' && token[0] != '$' {
		token = strings.TrimLeft(token, "-'")
	}

	for strings.Contains(token, "--") {
		token = strings.ReplaceAll(token, "--", "-")
	}

	return token
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '-' || r == '\'' || r == '’'
}

func normalizeQuote(r rune) rune {
	if r == '’' {
		return '\''
	}
	return r
}

func isTerminal(r rune) bool {
	return r == '.' || r == '?' || r == '!' || r == '…'
}

func isLink(field string) bool {
	lower := strings.ToLower(field)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(lower, "www.") {
		return true
	}
	at := strings.IndexByte(field, '@')
	return at > 0 && strings.Contains(field[at:], ".") && !strings.HasSuffix(strings.TrimRight(field, ".,!?;:)"), "@")
}

// splitTrailing separates trailing punctuation that belongs to the sentence
// rather than to a URL or address.
func splitTrailing(field string) (string, string) {
	end := len(field)
	for end > 0 && strings.IndexByte(".,!?;:)\"'", field[end-1]) >= 0 {
		end--
	}
	return field[:end], field[end:]
}
