// Package vocab maps entity-identifier strings to dense integer indices.
//
// Natural tokens occupy indices [0, N) in ascending lexicographic order of
// the identifier strings, so the mapping is a pure function of the distinct
// identifier set and never depends on input order or multiplicity. Two
// reserved tokens follow: PAD at N and UNK at N+1.
package vocab

import (
	"fmt"
	"sort"
)

// String forms of the reserved tokens as they appear in persisted artifacts.
const (
	PadString = "<PAD>"
	UnkString = "<UNK>"
)

// Kind discriminates the three token variants.
type Kind int

const (
	KindNatural Kind = iota
	KindPad
	KindUnk
)

// Token is a tagged vocabulary entry: a natural token carrying its dense
// index, or one of the two reserved tokens. Reserved-index arithmetic
// happens only inside Vocabulary, at the dense-integer boundary.
type Token struct {
	kind  Kind
	index int
}

// Natural returns the token for the natural class at the given dense index.
func Natural(index int) Token { return Token{kind: KindNatural, index: index} }

// Pad is the reserved padding token.
func Pad() Token { return Token{kind: KindPad} }

// Unk is the reserved out-of-vocabulary token.
func Unk() Token { return Token{kind: KindUnk} }

// Kind reports which variant the token is.
func (t Token) Kind() Kind { return t.kind }

// NaturalIndex returns the dense class index and true for a natural token,
// or 0 and false for a reserved token.
func (t Token) NaturalIndex() (int, bool) {
	if t.kind == KindNatural {
		return t.index, true
	}
	return 0, false
}

// Vocabulary is an immutable bijective token↔index mapping. Build it once
// per corpus; lookups never mutate it.
type Vocabulary struct {
	indexOf map[string]int
	tokens  []string // natural tokens in index order (sorted ascending)
}

// Build constructs a Vocabulary from a collection of entity identifiers.
// Duplicates are expected and collapse; the result depends only on the
// distinct-identifier set. An empty collection yields a vocabulary holding
// just PAD and UNK.
func Build(identifiers []string) *Vocabulary {
	seen := make(map[string]struct{}, len(identifiers))
	for _, id := range identifiers {
		seen[id] = struct{}{}
	}
	tokens := make([]string, 0, len(seen))
	for id := range seen {
		tokens = append(tokens, id)
	}
	sort.Strings(tokens)

	indexOf := make(map[string]int, len(tokens))
	for i, tok := range tokens {
		indexOf[tok] = i
	}
	return &Vocabulary{indexOf: indexOf, tokens: tokens}
}

// Lookup returns the token for the given identifier, or Unk when the
// identifier was not observed at build time.
func (v *Vocabulary) Lookup(identifier string) Token {
	if i, ok := v.indexOf[identifier]; ok {
		return Natural(i)
	}
	return Unk()
}

// Index converts a token to its dense integer index: naturals keep their
// index, PAD maps to NaturalCount and UNK to NaturalCount+1.
func (v *Vocabulary) Index(t Token) int {
	switch t.kind {
	case KindPad:
		return len(v.tokens)
	case KindUnk:
		return len(v.tokens) + 1
	default:
		return t.index
	}
}

// TokenAt converts a dense integer index back to a tagged token. Indices
// outside [0, Size()) are an error.
func (v *Vocabulary) TokenAt(index int) (Token, error) {
	switch {
	case index >= 0 && index < len(v.tokens):
		return Natural(index), nil
	case index == len(v.tokens):
		return Pad(), nil
	case index == len(v.tokens)+1:
		return Unk(), nil
	default:
		return Token{}, fmt.Errorf("vocab: index %d outside [0, %d)", index, v.Size())
	}
}

// String returns the identifier string for a token; reserved tokens use
// their artifact forms.
func (v *Vocabulary) String(t Token) string {
	switch t.kind {
	case KindPad:
		return PadString
	case KindUnk:
		return UnkString
	default:
		return v.tokens[t.index]
	}
}

// NaturalCount is the number of natural classes N, the class count the
// evaluator scores over.
func (v *Vocabulary) NaturalCount() int { return len(v.tokens) }

// Size is the full vocabulary size N+2, reserved tokens included.
func (v *Vocabulary) Size() int { return len(v.tokens) + 2 }

// Tokens returns the natural tokens in index order. The slice is a copy.
func (v *Vocabulary) Tokens() []string {
	out := make([]string, len(v.tokens))
	copy(out, v.tokens)
	return out
}
