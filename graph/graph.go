// Package graph lifts a subset-constructed dfa.Dense into the structure
// code generation actually walks: a state is not just a DFA state but a
// (DFA state, most-recently-accepted-leaf) pair, so that a transition past
// the last point a rule could match still remembers which rule to report
// once the run of non-matching bytes dead-ends. This "rollback to last
// accept" behavior is what gives every rule longest-match semantics without
// the generated code needing to backtrack through consumed bytes.
package graph

import (
	"fmt"
	"sort"

	"github.com/coregx/lexforge/dfa"
	"github.com/coregx/lexforge/leaf"
)

// Config controls graph construction.
type Config struct {
	// PrioOverLength: when true, a higher-priority leaf's accept state
	// overrides a lower-priority one even if the lower-priority leaf would
	// match more bytes. When false (the default, and the usual regex-lexer
	// behavior), longest match wins regardless of priority, and priority
	// only breaks ties between leaves accepting at the very same state.
	PrioOverLength bool
}

// StateType classifies a graph State: whether reaching it means some leaf
// has just matched (Accept), or nothing has matched yet at this exact
// state (Normal) — independent of whether an earlier state on the same
// run already recorded a match in its Context.
type StateType int

const (
	StateNormal StateType = iota
	StateAccept
)

// State uniquely identifies a point in the lexer's execution: which DFA
// state it's in, plus which leaf (if any) most recently accepted on this
// run, carried forward so a later dead-end can still roll back to it.
type State struct {
	DFAID   dfa.StateID
	Context leaf.LeafId
	HasCtx  bool
}

func (s State) key() [2]uint64 {
	ctx := uint64(0)
	if s.HasCtx {
		ctx = uint64(s.Context) + 1
	}
	return [2]uint64{uint64(s.DFAID), ctx}
}

// ByteClass is a set of raw byte ranges that share a transition from some
// state — the union of one or more dfa.Dense equivalence classes that
// happen to lead to the same next graph State.
type ByteClass struct {
	Ranges []ByteRange
}

// ByteRange is an inclusive [Lo, Hi] byte range.
type ByteRange struct {
	Lo, Hi byte
}

func (bc *ByteClass) addByte(b byte) {
	if n := len(bc.Ranges); n > 0 && bc.Ranges[n-1].Hi+1 == b {
		bc.Ranges[n-1].Hi = b
		return
	}
	bc.Ranges = append(bc.Ranges, ByteRange{Lo: b, Hi: b})
}

// Edge is one outgoing transition: consume any byte in ByteClass, go to To.
type Edge struct {
	Class ByteClass
	To    State
}

// StateData holds everything attached to a State besides its identity:
// whether it's an accepting state, its byte-consuming transitions (sorted
// by first byte for deterministic codegen output), and an end-of-input
// transition slot (EOI), which Build always leaves nil.
type StateData struct {
	Type   StateType
	Accept leaf.LeafId
	Normal []Edge
	EOI    *State
}

// Graph is the fully-traversed state machine: every State reachable from
// Root, with its StateData, ready for code generation.
type Graph struct {
	config Config
	leaves *leaf.Table
	dfa    *dfa.Dense
	edges  map[[2]uint64]stateEntry
	root   State
	errors []leaf.DisambiguationError
}

type stateEntry struct {
	state State
	data  StateData
}

// Root returns the graph's initial state.
func (g *Graph) Root() State { return g.root }

// States returns every reachable state, in an unspecified but stable order
// (sorted by DFA id then context, for reproducible codegen output).
func (g *Graph) States() []State {
	out := make([]State, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e.state)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := out[i].key(), out[j].key()
		if ki[0] != kj[0] {
			return ki[0] < kj[0]
		}
		return ki[1] < kj[1]
	})
	return out
}

// StateData returns the data attached to s. Panics if s is unreachable —
// callers only ever pass States obtained from Root/States/an Edge.To.
func (g *Graph) StateData(s State) StateData {
	e, ok := g.edges[s.key()]
	if !ok {
		panic(fmt.Sprintf("graph: unreachable state %+v", s))
	}
	return e.data
}

// Leaves returns the leaf table the graph was built from.
func (g *Graph) Leaves() *leaf.Table { return g.leaves }

// DFA returns the underlying dense DFA.
func (g *Graph) DFA() *dfa.Dense { return g.dfa }

// Errors returns every disambiguation error found while traversing the
// graph (two leaves tied for highest priority at some reachable state).
func (g *Graph) Errors() []leaf.DisambiguationError { return g.errors }

// Build lifts d into a Graph over leaves, resolving every reachable
// (DFA-state, context) pair.
func Build(d *dfa.Dense, leaves *leaf.Table, config Config) *Graph {
	g := &Graph{
		config: config,
		leaves: leaves,
		dfa:    d,
		edges:  map[[2]uint64]stateEntry{},
	}

	stateTypeCache := map[dfa.StateID]stateTypeInfo{}
	g.root = State{DFAID: d.Start()}

	stack := []State{g.root}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := g.edges[s.key()]; ok {
			continue
		}

		data, children := g.genStateData(s, stateTypeCache)
		g.edges[s.key()] = stateEntry{state: s, data: data}
		stack = append(stack, children...)
	}

	return g
}

type stateTypeInfo struct {
	isAccept bool
	leaf     leaf.LeafId
}

// stateType computes (and caches) the highest-priority leaf accepting at
// dfaID, flagging a DisambiguationError if more than one leaf ties for
// that priority.
func (g *Graph) stateType(dfaID dfa.StateID, cache map[dfa.StateID]stateTypeInfo) stateTypeInfo {
	if info, ok := cache[dfaID]; ok {
		return info
	}

	leaves := g.dfa.MatchLeaves(dfaID)
	var info stateTypeInfo
	if len(leaves) > 0 {
		best := leaves[0]
		bestPrio := g.leaves.Get(leaf.LeafId(best)).Priority
		for _, l := range leaves[1:] {
			if p := g.leaves.Get(leaf.LeafId(l)).Priority; p > bestPrio {
				best, bestPrio = l, p
			}
		}

		var tied []leaf.LeafId
		for _, l := range leaves {
			if g.leaves.Get(leaf.LeafId(l)).Priority == bestPrio {
				tied = append(tied, leaf.LeafId(l))
			}
		}
		if len(tied) > 1 {
			g.errors = append(g.errors, leaf.DisambiguationError{Leaves: tied})
		}

		info = stateTypeInfo{isAccept: true, leaf: leaf.LeafId(best)}
	}

	cache[dfaID] = info
	return info
}

// filterStateType demotes an Accept classification back to Normal when the
// carried-forward context is already a higher-priority leaf — this is what
// lets a lower-priority rule's accept state, reached further along the
// same run, lose to an already-recorded higher-priority match (spec.md
// §3's priority-over-some-length-ties rule, applied per the original's
// `State::filter_state_type`).
func (g *Graph) filterStateType(ctxLeaf leaf.LeafId, hasCtx bool, info stateTypeInfo) stateTypeInfo {
	if info.isAccept && hasCtx {
		if g.leaves.Get(ctxLeaf).Priority > g.leaves.Get(info.leaf).Priority {
			return stateTypeInfo{}
		}
	}
	return info
}

func (g *Graph) genStateData(s State, cache map[dfa.StateID]stateTypeInfo) (StateData, []State) {
	raw := g.stateType(s.DFAID, cache)
	eff := g.filterStateType(s.Context, s.HasCtx, raw)

	data := StateData{Type: StateNormal}
	if eff.isAccept {
		data.Type = StateAccept
		data.Accept = eff.leaf
	}

	var children []State
	byClass := map[[2]uint64]*ByteClass{}
	nextByClass := map[[2]uint64]State{}

	classes := g.dfa.Classes()
	for class := 0; class < g.dfa.ClassCount(); class++ {
		next := g.dfa.NextClass(s.DFAID, byte(class))
		if g.dfa.IsDead(next) {
			continue
		}
		nextState := g.propagateContext(s, next, cache)
		k := nextState.key()
		if byClass[k] == nil {
			byClass[k] = &ByteClass{}
			nextByClass[k] = nextState
		}
		for _, b := range classes.Elements(byte(class)) {
			byClass[k].addByte(b)
		}
	}

	for k, bc := range byClass {
		sort.Slice(bc.Ranges, func(i, j int) bool { return bc.Ranges[i].Lo < bc.Ranges[j].Lo })
		data.Normal = append(data.Normal, Edge{Class: *bc, To: nextByClass[k]})
		children = append(children, nextByClass[k])
	}
	sort.Slice(data.Normal, func(i, j int) bool {
		return data.Normal[i].Class.Ranges[0].Lo < data.Normal[j].Class.Ranges[0].Lo
	})

	return data, children
}

// propagateContext computes the State reached by following a transition
// from prev to the DFA state next, updating the carried-forward accept
// context per the graph's Config.
func (g *Graph) propagateContext(prev State, next dfa.StateID, cache map[dfa.StateID]stateTypeInfo) State {
	info := g.stateType(next, cache)
	if g.config.PrioOverLength {
		info = g.filterStateType(prev.Context, prev.HasCtx, info)
	}

	if info.isAccept {
		return State{DFAID: next, Context: info.leaf, HasCtx: true}
	}
	return State{DFAID: next, Context: prev.Context, HasCtx: prev.HasCtx}
}
