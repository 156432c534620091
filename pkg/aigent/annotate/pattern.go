package annotate

import (
	"fmt"
	"strings"
)

// Pattern is a compiled token pattern.
//
// Syntax:
//
//	#Noun           a token carrying the tag
//	love            a token whose text equals the word (case-insensitive)
//	(a b | c)       grouping and alternation
//	x+  x?  x*      one-or-more, optional, zero-or-more (greedy)
//
// A pattern matches at the leftmost position it can, preferring longer
// repeats and earlier alternatives, and backtracks when a greedy repeat
// leaves nothing for what follows.
type Pattern struct {
	src  string
	prog []inst
}

// Compile parses a pattern.
func Compile(src string) (*Pattern, error) {
	p := &parser{src: src, toks: lexPattern(src)}
	root, err := p.alternation()
	if err != nil {
		return nil, fmt.Errorf("annotate: pattern %q: %w", src, err)
	}
	if p.pos < len(p.toks) {
		return nil, fmt.Errorf("annotate: pattern %q: unexpected %q", src, p.toks[p.pos])
	}
	if root == nil {
		return nil, fmt.Errorf("annotate: pattern %q: empty", src)
	}
	prog := root.emit(nil)
	prog = append(prog, inst{op: opAccept})
	return &Pattern{src: src, prog: prog}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(src string) *Pattern {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Pattern) String() string { return p.src }

type opcode uint8

const (
	opTag opcode = iota
	opWord
	opSplit // try x, then y
	opJump
	opAccept
)

type inst struct {
	op   opcode
	tag  Tag
	word string
	x, y int
}

// node is a parsed piece of a pattern. emit appends its instructions;
// control falls through to whatever is appended next.
type node interface {
	emit(prog []inst) []inst
}

type tagNode struct{ tag Tag }

func (n tagNode) emit(prog []inst) []inst {
	return append(prog, inst{op: opTag, tag: n.tag})
}

type wordNode struct{ word string }

func (n wordNode) emit(prog []inst) []inst {
	return append(prog, inst{op: opWord, word: n.word})
}

type seqNode struct{ items []node }

func (n seqNode) emit(prog []inst) []inst {
	for _, item := range n.items {
		prog = item.emit(prog)
	}
	return prog
}

type altNode struct{ alts []node }

func (n altNode) emit(prog []inst) []inst {
	var jumps []int
	last := len(n.alts) - 1
	for _, alt := range n.alts[:last] {
		split := len(prog)
		prog = append(prog, inst{op: opSplit, x: split + 1})
		prog = alt.emit(prog)
		jumps = append(jumps, len(prog))
		prog = append(prog, inst{op: opJump})
		prog[split].y = len(prog)
	}
	prog = n.alts[last].emit(prog)
	for _, j := range jumps {
		prog[j].x = len(prog)
	}
	return prog
}

// repeatNode is x+, x? or x*.
type repeatNode struct {
	item node
	op   rune
}

func (n repeatNode) emit(prog []inst) []inst {
	switch n.op {
	case '+':
		loop := len(prog)
		prog = n.item.emit(prog)
		return append(prog, inst{op: opSplit, x: loop, y: len(prog) + 1})
	case '*':
		loop := len(prog)
		prog = append(prog, inst{op: opSplit, x: loop + 1})
		prog = n.item.emit(prog)
		prog = append(prog, inst{op: opJump, x: loop})
		prog[loop].y = len(prog)
		return prog
	default:
		split := len(prog)
		prog = append(prog, inst{op: opSplit, x: split + 1})
		prog = n.item.emit(prog)
		prog[split].y = len(prog)
		return prog
	}
}

// matcher runs a pattern over the tokens [base, end) of one sentence.
//
// Every (instruction, position) pair is explored at most once across all
// start positions: whether a pair can reach accept does not depend on where
// the match started, except for the empty match at the start itself, and
// later starts never revisit earlier positions. Pairs on a successful path
// are cleared again so the next start can use them.
type matcher struct {
	prog      []inst
	a         *Annotation
	base, end int
	seen      []uint64
	path      []int
	stack     []thread
}

type thread struct {
	pc, i, mark int
}

func newMatcher(p *Pattern, a *Annotation, base, end int) *matcher {
	bits := len(p.prog) * (end - base + 1)
	return &matcher{
		prog: p.prog,
		a:    a,
		base: base,
		end:  end,
		seen: make([]uint64, (bits+63)/64),
	}
}

// matchAt reports the end of the preferred non-empty match starting at
// token start.
func (m *matcher) matchAt(start int) (int, bool) {
	m.path = m.path[:0]
	m.stack = append(m.stack[:0], thread{pc: 0, i: start})
	for len(m.stack) > 0 {
		t := m.stack[len(m.stack)-1]
		m.stack = m.stack[:len(m.stack)-1]
		m.path = m.path[:t.mark]
		if end, ok := m.step(t.pc, t.i, start); ok {
			for _, k := range m.path {
				m.seen[k/64] &^= 1 << (k % 64)
			}
			return end, true
		}
	}
	return 0, false
}

func (m *matcher) step(pc, i, start int) (int, bool) {
	for m.visit(pc, i) {
		in := m.prog[pc]
		switch in.op {
		case opTag:
			if i >= m.end || !m.a.Tokens[i].Tags.Has(in.tag) {
				return 0, false
			}
			pc, i = pc+1, i+1
		case opWord:
			if i >= m.end || !strings.EqualFold(m.a.Tokens[i].Text, in.word) {
				return 0, false
			}
			pc, i = pc+1, i+1
		case opJump:
			pc = in.x
		case opSplit:
			m.stack = append(m.stack, thread{pc: in.y, i: i, mark: len(m.path)})
			pc = in.x
		case opAccept:
			return i, i > start
		}
	}
	return 0, false
}

func (m *matcher) visit(pc, i int) bool {
	k := pc*(m.end-m.base+1) + i - m.base
	w, b := k/64, uint64(1)<<(k%64)
	if m.seen[w]&b != 0 {
		return false
	}
	m.seen[w] |= b
	m.path = append(m.path, k)
	return true
}

// lexPattern splits a pattern into words and the single-rune operators
// ( ) | + ? *.
func lexPattern(src string) []string {
	var toks []string
	var word strings.Builder
	flush := func() {
		if word.Len() > 0 {
			toks = append(toks, word.String())
			word.Reset()
		}
	}
	for _, r := range src {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			flush()
		case strings.ContainsRune("()|+?*", r):
			flush()
			toks = append(toks, string(r))
		default:
			word.WriteRune(r)
		}
	}
	flush()
	return toks
}

type parser struct {
	src  string
	toks []string
	pos  int
}

func (p *parser) peek() string {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return ""
}

// alternation := sequence ('|' sequence)*
func (p *parser) alternation() (node, error) {
	first, err := p.sequence()
	if err != nil {
		return nil, err
	}
	if p.peek() != "|" {
		return first, nil
	}
	alts := []node{first}
	for p.peek() == "|" {
		p.pos++
		next, err := p.sequence()
		if err != nil {
			return nil, err
		}
		alts = append(alts, next)
	}
	for _, alt := range alts {
		if alt == nil {
			return nil, fmt.Errorf("empty alternative")
		}
	}
	return altNode{alts: alts}, nil
}

// sequence := (atom quantifier?)*
func (p *parser) sequence() (node, error) {
	var items []node
	for {
		switch p.peek() {
		case "", "|", ")":
			switch len(items) {
			case 0:
				return nil, nil
			case 1:
				return items[0], nil
			}
			return seqNode{items: items}, nil
		case "+", "?", "*":
			return nil, fmt.Errorf("quantifier %q without operand", p.peek())
		}

		item, err := p.atom()
		if err != nil {
			return nil, err
		}
		switch p.peek() {
		case "+":
			item = repeatNode{item: item, op: '+'}
			p.pos++
		case "?":
			item = repeatNode{item: item, op: '?'}
			p.pos++
		case "*":
			item = repeatNode{item: item, op: '*'}
			p.pos++
		}
		items = append(items, item)
	}
}

// atom := '#' tag | word | '(' alternation ')'
func (p *parser) atom() (node, error) {
	tok := p.peek()
	p.pos++
	switch {
	case tok == "(":
		inner, err := p.alternation()
		if err != nil {
			return nil, err
		}
		if p.peek() != ")" {
			return nil, fmt.Errorf("missing )")
		}
		p.pos++
		if inner == nil {
			return nil, fmt.Errorf("empty group")
		}
		return inner, nil
	case strings.HasPrefix(tok, "#"):
		tag, ok := ParseTag(tok[1:])
		if !ok {
			return nil, fmt.Errorf("unknown tag %q", tok)
		}
		return tagNode{tag: tag}, nil
	default:
		return wordNode{word: tok}, nil
	}
}
