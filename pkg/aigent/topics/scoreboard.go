package topics

import (
	"cmp"
	"slices"
)

// Scored is a candidate term and its accumulated weight.
type Scored struct {
	Term  string `json:"term"`
	Score int    `json:"score"`
}

// scoreboard accumulates scores and remembers the order in which terms were
// first seen, which breaks ties when ranking.
type scoreboard struct {
	index   map[string]int
	entries []Scored
}

func newScoreboard() *scoreboard {
	return &scoreboard{index: make(map[string]int)}
}

func (b *scoreboard) add(term string, weight int) {
	if i, ok := b.index[term]; ok {
		b.entries[i].Score += weight
		return
	}
	b.index[term] = len(b.entries)
	b.entries = append(b.entries, Scored{Term: term, Score: weight})
}

func (b *scoreboard) len() int { return len(b.entries) }

// ranked returns every entry by descending score; equal scores keep
// first-seen order.
func (b *scoreboard) ranked() []Scored {
	out := slices.Clone(b.entries)
	slices.SortStableFunc(out, func(x, y Scored) int {
		return cmp.Compare(y.Score, x.Score)
	})
	return out
}
