// Package dfa subset-constructs a deterministic automaton from a
// multi-pattern nfa.NFA, with MatchKind=All semantics: every leaf whose
// pattern accepts at a state is recorded there, not just the first one
// found. A dense DFA is then minimized by partition refinement.
package dfa

import (
	"sort"

	"github.com/coregx/lexforge/internal/conv"
	"github.com/coregx/lexforge/internal/sparse"
	"github.com/coregx/lexforge/nfa"
)

// StateID identifies a DFA state. DeadState is the distinguished
// no-further-match sink.
type StateID uint32

// DeadState is always state 0 in a freshly subset-constructed DFA: a
// transition to it means "no pattern can match from here."
const DeadState StateID = 0

// Dense is a subset-constructed, byte-equivalence-class-compressed DFA.
// Transitions are stored as a flat []StateID of len(states)*classCount,
// matching the teacher's composite-DFA table layout
// (dense []StateID transitions per state, grouped by byte class).
type Dense struct {
	classes      nfa.ByteClasses
	classCount   int
	transitions  []StateID // len(states) * classCount
	matchLeaves  [][]uint32 // sorted, de-duplicated leaf IDs accepted at each state
	start        StateID
}

// newDense allocates an empty Dense DFA (no states yet) over classes.
func newDense(classes nfa.ByteClasses) *Dense {
	return &Dense{
		classes:    classes,
		classCount: classes.AlphabetLen(),
	}
}

// ClassCount returns the number of byte equivalence classes.
func (d *Dense) ClassCount() int { return d.classCount }

// Classes returns the byte->class mapping this DFA was built with.
func (d *Dense) Classes() *nfa.ByteClasses { return &d.classes }

// States returns the number of states.
func (d *Dense) States() int { return len(d.matchLeaves) }

// Start returns the start state.
func (d *Dense) Start() StateID { return d.start }

// Next returns the successor state for a byte, already reduced through the
// byte-class map.
func (d *Dense) Next(s StateID, b byte) StateID {
	class := d.classes.Get(b)
	return d.transitions[int(s)*d.classCount+int(class)]
}

// NextClass transitions directly on a pre-computed byte class, for callers
// (codegen) that have already grouped bytes into classes.
func (d *Dense) NextClass(s StateID, class byte) StateID {
	return d.transitions[int(s)*d.classCount+int(class)]
}

// MatchLeaves returns the sorted leaf IDs accepted at state s, or nil if s
// accepts nothing.
func (d *Dense) MatchLeaves(s StateID) []uint32 { return d.matchLeaves[s] }

// IsDead reports whether s can never reach a match (DeadState, or any state
// subset-construction produced with only the empty NFA-state-set).
func (d *Dense) IsDead(s StateID) bool {
	return s == DeadState
}

func (d *Dense) addState(leaves []uint32) StateID {
	id := StateID(conv.IntToUint32(len(d.matchLeaves)))
	d.matchLeaves = append(d.matchLeaves, leaves)
	d.transitions = append(d.transitions, make([]StateID, d.classCount)...)
	return id
}

// subsetKey canonicalizes an NFA-state-ID set into a deduplicated, sorted
// slice, used as a map key during subset construction.
type subsetKey string

func keyOf(states []uint32) subsetKey {
	sorted := append([]uint32(nil), states...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	buf := make([]byte, 0, len(sorted)*4)
	for _, s := range sorted {
		buf = append(buf, byte(s), byte(s>>8), byte(s>>16), byte(s>>24))
	}
	return subsetKey(buf)
}

// Build subset-constructs a Dense DFA from n, with MatchKind=All semantics:
// every leaf ID reachable via an epsilon-closure that includes one of its
// pattern's Match states is recorded at that DFA state.
func Build(n *nfa.NFA) *Dense {
	classes := *n.ByteClasses()
	d := newDense(classes)

	// DeadState: the empty subset, never transitions anywhere but itself.
	d.addState(nil)

	startSet := epsilonClosure(n, []uint32{uint32(n.StartUnanchored())})
	startKey := keyOf(startSet)

	seen := map[subsetKey]StateID{}
	worklist := []uint32{}

	d.start = d.addState(leavesOf(n, startSet))
	seen[startKey] = d.start
	worklist = append(worklist, uint32(d.start))
	subsets := map[StateID][]uint32{d.start: startSet}

	for len(worklist) > 0 {
		curID := StateID(worklist[0])
		worklist = worklist[1:]
		curSet := subsets[curID]

		for class := 0; class < d.classCount; class++ {
			rep := representativeByte(&classes, byte(class))
			nextSet := stepAndClose(n, curSet, rep)
			if len(nextSet) == 0 {
				d.transitions[int(curID)*d.classCount+class] = DeadState
				continue
			}
			nk := keyOf(nextSet)
			nid, ok := seen[nk]
			if !ok {
				leaves := leavesOf(n, nextSet)
				nid = d.addState(leaves)
				seen[nk] = nid
				subsets[nid] = nextSet
				worklist = append(worklist, uint32(nid))
			}
			d.transitions[int(curID)*d.classCount+class] = nid
		}
	}

	return d
}

func representativeByte(classes *nfa.ByteClasses, class byte) byte {
	for b := 0; b < 256; b++ {
		if classes.Get(byte(b)) == class {
			return byte(b)
		}
	}
	return 0
}

// epsilonClosure follows Split/Epsilon transitions from a seed set of NFA
// states, using a SparseSet worklist per the teacher's epsilon-closure
// style (nfa.Builder's own states are tracked the same way internally).
func epsilonClosure(n *nfa.NFA, seeds []uint32) []uint32 {
	seen := sparse.NewSparseSet(conv.IntToUint32(n.States()))
	stack := append([]uint32(nil), seeds...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen.Contains(id) {
			continue
		}
		seen.Insert(id)

		s := n.State(nfa.StateID(id))
		if s == nil {
			continue
		}
		switch s.Kind() {
		case nfa.StateSplit:
			l, r := s.Split()
			if l != nfa.InvalidState {
				stack = append(stack, uint32(l))
			}
			if r != nfa.InvalidState {
				stack = append(stack, uint32(r))
			}
		case nfa.StateEpsilon:
			if e := s.Epsilon(); e != nfa.InvalidState {
				stack = append(stack, uint32(e))
			}
		}
	}
	return seen.Values()
}

// stepAndClose advances every byte-consuming state in set on byte b, then
// epsilon-closes the result.
func stepAndClose(n *nfa.NFA, set []uint32, b byte) []uint32 {
	var next []uint32
	for _, id := range set {
		s := n.State(nfa.StateID(id))
		if s == nil {
			continue
		}
		switch s.Kind() {
		case nfa.StateByteRange:
			lo, hi, target := s.ByteRange()
			if b >= lo && b <= hi && target != nfa.InvalidState {
				next = append(next, uint32(target))
			}
		case nfa.StateSparse:
			for _, tr := range s.Transitions() {
				if b >= tr.Lo && b <= tr.Hi && tr.Next != nfa.InvalidState {
					next = append(next, uint32(tr.Next))
				}
			}
		}
	}
	if len(next) == 0 {
		return nil
	}
	return epsilonClosure(n, next)
}

// leavesOf collects every tagged leaf ID reachable in set via a Match
// state, sorted and de-duplicated. This is the MatchKind=All step: unlike
// a single-pattern DFA that would stop at the first Match, every leaf
// whose Match state is in the closure is recorded.
func leavesOf(n *nfa.NFA, set []uint32) []uint32 {
	found := map[uint32]struct{}{}
	for _, id := range set {
		s := n.State(nfa.StateID(id))
		if s == nil {
			continue
		}
		if leaf, ok := s.MatchPattern(); ok {
			found[leaf] = struct{}{}
		}
	}
	if len(found) == 0 {
		return nil
	}
	out := make([]uint32, 0, len(found))
	for id := range found {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
