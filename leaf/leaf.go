// Package leaf holds the per-rule Leaf records the graph builder unions
// into a single multi-pattern NFA, per spec.md §3/§4.3.
package leaf

import (
	"fmt"
	"sort"

	"github.com/coregx/lexforge/internal/conv"
	"github.com/coregx/lexforge/pattern"
)

// LeafId identifies a Leaf within one build. Stable across the pipeline
// from rule-table construction through code generation.
type LeafId uint32

// VariantKind describes what a matched leaf produces.
type VariantKind int

const (
	// VariantUnit emits a fixed, argument-less token variant.
	VariantUnit VariantKind = iota
	// VariantValue emits a token variant carrying the matched slice (or a
	// callback-computed value of the declared type).
	VariantValue
	// VariantSkip suppresses emission entirely; bytes are still consumed.
	VariantSkip
)

// CallbackKind describes the callback (if any) attached to a rule.
type CallbackKind int

const (
	// CallbackNone means no callback: for Unit, emit the variant as-is; for
	// Value, emit the raw matched slice; for Skip, just skip.
	CallbackNone CallbackKind = iota
	// CallbackLabel references a named function by identifier.
	CallbackLabel
	// CallbackInline is an inline closure body with one parameter.
	CallbackInline
)

// Callback names the user code invoked when a leaf matches.
type Callback struct {
	Kind CallbackKind
	// Label is the referenced function name, when Kind == CallbackLabel.
	Label string
	// InlineArg/InlineBody describe an inline closure, when
	// Kind == CallbackInline.
	InlineArg  string
	InlineBody string
}

// Leaf is one compiled rule: its pattern, its priority, what it produces,
// and what callback (if any) runs when it matches.
type Leaf struct {
	Name        string // variant identifier; empty for skip rules
	Pattern     *pattern.Pattern
	Priority    int
	VariantKind VariantKind
	ValueType   string // Go type name, only meaningful for VariantValue
	Callback    *Callback
	Span        Span
}

// Span is a byte range over the rule-set source, carried through purely
// for diagnostics.
type Span struct {
	Start, End int
}

// DisambiguationError reports two or more leaves tied for the highest
// priority at some reachable graph state — spec.md §3's leaf-table
// invariant violated.
type DisambiguationError struct {
	Leaves []LeafId
}

func (e *DisambiguationError) Error() string {
	return fmt.Sprintf("leaves %v have equal priority and are ambiguous at a shared match state", e.Leaves)
}

// Table is the ordered collection of Leaf records, indexed by LeafId in
// declaration order (NOT priority order — unlike the original's
// priority-sorted Leaves, declaration order is what spec.md's tie-break
// rule in §9 needs: "rule-declaration order is used" when priority and
// length both tie).
type Table struct {
	leaves []Leaf
}

// NewTable creates an empty leaf table.
func NewTable() *Table {
	return &Table{}
}

// Push appends a leaf and returns its assigned LeafId.
func (t *Table) Push(l Leaf) LeafId {
	id := LeafId(conv.IntToUint32(len(t.leaves)))
	t.leaves = append(t.leaves, l)
	return id
}

// Len returns the number of leaves in the table.
func (t *Table) Len() int { return len(t.leaves) }

// Get returns the leaf for id.
func (t *Table) Get(id LeafId) *Leaf { return &t.leaves[id] }

// All returns every leaf in declaration order, paired with its LeafId.
func (t *Table) All() []struct {
	ID   LeafId
	Leaf *Leaf
} {
	out := make([]struct {
		ID   LeafId
		Leaf *Leaf
	}, len(t.leaves))
	for i := range t.leaves {
		out[i] = struct {
			ID   LeafId
			Leaf *Leaf
		}{LeafId(i), &t.leaves[i]}
	}
	return out
}

// PriorityTies stable-sorts the leaves by priority and returns each
// adjacent pair with identical priority (three leaves sharing a priority
// yield two pairs, not three). This is a cheap, coarse check — the real
// disambiguation happens per-reachable-graph-state in package graph, which
// only flags leaves that are actually ambiguous at a shared state — but it
// gives callers an early, pattern-free warning, matching the original
// Leaves::errors() sorted-priority adjacency check in leaf.rs.
func (t *Table) PriorityTies() []DisambiguationError {
	idx := make([]int, len(t.leaves))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return t.leaves[idx[i]].Priority < t.leaves[idx[j]].Priority
	})

	var errs []DisambiguationError
	for i := 0; i+1 < len(idx); i++ {
		if t.leaves[idx[i]].Priority == t.leaves[idx[i+1]].Priority {
			errs = append(errs, DisambiguationError{Leaves: []LeafId{LeafId(idx[i]), LeafId(idx[i+1])}})
		}
	}
	return errs
}
