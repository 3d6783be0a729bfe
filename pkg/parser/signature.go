// Package parser implements a layered, indentation-sensitive recursive
// descent over a token stream: definition/body extraction by indent,
// signature-based classification, and per-definition constructors
// (function, data, func-module, entity, enum, variant, error set, import),
// down to statement and expression parsing.
package parser

import "github.com/flint-lang/flintc/pkg/token"

// SigAtom is one quantified, alternating position of a Signature: it matches
// any token whose Kind is in Kinds, repeated between Min and Max times
// (Max == -1 means unbounded). Signatures are regex-like patterns over
// token kinds, not over raw text.
type SigAtom struct {
	Kinds []token.Kind
	Min   int
	Max   int // -1 for unbounded
}

// One matches exactly one occurrence of any of kinds.
func One(kinds ...token.Kind) SigAtom { return SigAtom{Kinds: kinds, Min: 1, Max: 1} }

// Opt matches zero or one occurrence.
func Opt(kinds ...token.Kind) SigAtom { return SigAtom{Kinds: kinds, Min: 0, Max: 1} }

// Star matches zero or more occurrences (the Kleene star).
func Star(kinds ...token.Kind) SigAtom { return SigAtom{Kinds: kinds, Min: 0, Max: -1} }

// Plus matches one or more occurrences.
func Plus(kinds ...token.Kind) SigAtom { return SigAtom{Kinds: kinds, Min: 1, Max: -1} }

// Signature is an ordered sequence of SigAtoms, the unit the signature
// matching primitives operate on.
type Signature []SigAtom

func (a SigAtom) matches(t token.Token) bool {
	for _, k := range a.Kinds {
		if t.Kind == k {
			return true
		}
	}
	return false
}

// matchAt attempts to match sig starting at tokens[pos], greedily consuming
// the maximum allowed repetitions of each atom in turn (no backtracking
// across atoms; sufficient for the unambiguous signatures this parser
// actually declares, since consecutive atoms in practice match disjoint
// token kinds). It reports the index just past the match, or ok=false.
func matchAt(tokens []token.Token, pos int, sig Signature) (end int, ok bool) {
	i := pos
	for _, atom := range sig {
		count := 0
		for i < len(tokens) && (atom.Max < 0 || count < atom.Max) && atom.matches(tokens[i]) {
			i++
			count++
		}
		if count < atom.Min {
			return pos, false
		}
	}
	return i, true
}

// TokensMatch reports whether the whole of tokens matches sig exactly.
func TokensMatch(tokens []token.Token, sig Signature) bool {
	end, ok := matchAt(tokens, 0, sig)
	return ok && end == len(tokens)
}

// TokensContain reports whether any contiguous span of tokens matches sig.
func TokensContain(tokens []token.Token, sig Signature) bool {
	for start := range tokens {
		if _, ok := matchAt(tokens, start, sig); ok {
			return true
		}
	}
	return len(sig) == 0
}

// GetMatchRanges returns every non-overlapping span of tokens matching sig,
// scanning left to right and resuming immediately after each match.
func GetMatchRanges(tokens []token.Token, sig Signature) [][2]int {
	var ranges [][2]int
	pos := 0
	for pos < len(tokens) {
		if end, ok := matchAt(tokens, pos, sig); ok && end > pos {
			ranges = append(ranges, [2]int{pos, end})
			pos = end
			continue
		}
		pos++
	}
	return ranges
}

// BalancedRangeExtraction returns every maximal paren-balanced span
// delimited by open/close token kinds, needed for nested calls and
// parenthesized expressions. A span [i, j) means
// tokens[i] is the opening delimiter and tokens[j-1] is its match; spans do
// not overlap and only top-level (depth-1) delimiters start a new span.
func BalancedRangeExtraction(tokens []token.Token, open, close token.Kind) [][2]int {
	var ranges [][2]int
	depth := 0
	start := -1
	for i, t := range tokens {
		switch t.Kind {
		case open:
			if depth == 0 {
				start = i
			}
			depth++
		case close:
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					ranges = append(ranges, [2]int{start, i + 1})
					start = -1
				}
			}
		}
	}
	return ranges
}

// GetLeadingIndents counts the leading KindIndent tokens of a single
// (already line-split) token slice.
func GetLeadingIndents(line []token.Token) int {
	n := 0
	for n < len(line) && line[n].Kind == token.KindIndent {
		n++
	}
	return n
}
