package leaf

import (
	"fmt"

	"github.com/coregx/ahocorasick"
)

// LiteralConflict flags a pair of literal-only leaves at equal priority
// where one literal's bytes wholly contain the other's. It is reported at
// the leaf-table stage from the literal bytes alone, whether or not the two
// leaves ever accept at the same graph state.
type LiteralConflict struct {
	Outer, Inner LeafId
}

func (c LiteralConflict) Error() string {
	return fmt.Sprintf("leaf %d's literal contains leaf %d's literal at equal priority", c.Outer, c.Inner)
}

// LiteralIndex is a build-time-only diagnostic built from every
// literal-origin leaf in a Table, used to flag leaves whose literal text
// properly contains another leaf's literal text at the same priority. The
// check runs before DFA construction, using the same multi-pattern
// automaton coregex's own
// meta package builds for literal alternations (meta/compile.go,
// meta/engine.go), repurposed from a runtime search structure into a
// compile-time lint.
type LiteralIndex struct {
	entries []literalEntry
}

type literalEntry struct {
	id       LeafId
	priority int
	bytes    []byte
}

// BuildLiteralIndex collects every literal-origin leaf from t.
func BuildLiteralIndex(t *Table) *LiteralIndex {
	idx := &LiteralIndex{}
	for _, e := range t.All() {
		if e.Leaf.Pattern != nil && e.Leaf.Pattern.IsLiteral() {
			idx.entries = append(idx.entries, literalEntry{
				id:       e.ID,
				priority: e.Leaf.Priority,
				bytes:    []byte(e.Leaf.Pattern.Source()),
			})
		}
	}
	return idx
}

// Conflicts reports every LiteralConflict among the indexed leaves.
func (idx *LiteralIndex) Conflicts() ([]LiteralConflict, error) {
	var conflicts []LiteralConflict
	for i, outer := range idx.entries {
		others := make([]literalEntry, 0, len(idx.entries)-1)
		for j, e := range idx.entries {
			if j != i {
				others = append(others, e)
			}
		}
		if len(others) == 0 {
			continue
		}

		builder := ahocorasick.NewBuilder()
		for _, e := range others {
			builder.AddPattern(e.bytes)
		}
		automaton, err := builder.Build()
		if err != nil {
			return nil, fmt.Errorf("building literal conflict automaton: %w", err)
		}

		if automaton.IsMatch(outer.bytes) {
			// Find which of the "other" entries actually matched, and at
			// what priority, so we only flag genuine equal-priority
			// ambiguity (a contained literal at a *different* priority is
			// resolved cleanly by priority, not ambiguous).
			for _, inner := range others {
				if inner.priority != outer.priority {
					continue
				}
				if containsSubslice(outer.bytes, inner.bytes) {
					conflicts = append(conflicts, LiteralConflict{Outer: outer.id, Inner: inner.id})
				}
			}
		}
	}
	return conflicts, nil
}

func containsSubslice(haystack, needle []byte) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	if len(needle) == len(haystack) {
		return false // identical literal, not a containment
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j := range needle {
			if haystack[i+j] != needle[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// RequiredPrefix returns the byte sequence every match of a literal-origin
// leaf starts with: the literal's whole source text. Non-literal leaves
// report false. This narrows
// literal.Extractor's full alternation-sequence extraction (out of scope
// here — we only ever need single-leaf prefixes, not cross-leaf union
// sequences) down to the literal case, which is exact and free.
func RequiredPrefix(l *Leaf) ([]byte, bool) {
	if l.Pattern == nil || !l.Pattern.IsLiteral() {
		return nil, false
	}
	return []byte(l.Pattern.Source()), true
}
