package dfa

import (
	"testing"

	"github.com/coregx/lexforge/mir"
	"github.com/coregx/lexforge/nfa"
)

func literalMir(s string) *mir.Mir {
	return &mir.Mir{Kind: mir.KindLiteral, Runes: []rune(s)}
}

func buildNFA(t *testing.T, inputs []nfa.PatternInput) *nfa.NFA {
	t.Helper()
	c := nfa.NewDefaultCompiler()
	n, err := c.CompileMany(inputs)
	if err != nil {
		t.Fatalf("CompileMany: %v", err)
	}
	return n
}

func run(d *Dense, s []byte) (StateID, bool) {
	cur := d.Start()
	for _, b := range s {
		cur = d.Next(cur, b)
		if d.IsDead(cur) {
			return cur, false
		}
	}
	return cur, true
}

func TestBuild_SingleLiteral_Accepts(t *testing.T) {
	n := buildNFA(t, []nfa.PatternInput{{Mir: literalMir("if"), LeafID: 7}})
	d := Build(n)

	end, ok := run(d, []byte("if"))
	if !ok {
		t.Fatal("expected \"if\" to reach a live state")
	}
	leaves := d.MatchLeaves(end)
	if len(leaves) != 1 || leaves[0] != 7 {
		t.Fatalf("MatchLeaves(end) = %v, want [7]", leaves)
	}
}

func TestBuild_DeadOnMismatch(t *testing.T) {
	n := buildNFA(t, []nfa.PatternInput{{Mir: literalMir("if"), LeafID: 0}})
	d := Build(n)

	if _, ok := run(d, []byte("xy")); ok {
		t.Fatal("expected dead state on mismatched input")
	}
}

func TestBuild_MatchKindAll_OverlappingPrefix(t *testing.T) {
	// "if" and "i" both present: at state after 'i', leaf 1 ("i") should
	// already be reported, and after "if" both leaves should be reported
	// at their respective reachable states.
	n := buildNFA(t, []nfa.PatternInput{
		{Mir: literalMir("i"), LeafID: 1},
		{Mir: literalMir("if"), LeafID: 2},
	})
	d := Build(n)

	afterI, ok := run(d, []byte("i"))
	if !ok {
		t.Fatal("expected \"i\" to reach a live state")
	}
	leaves := d.MatchLeaves(afterI)
	if len(leaves) != 1 || leaves[0] != 1 {
		t.Fatalf("MatchLeaves after \"i\" = %v, want [1]", leaves)
	}

	afterIf, ok := run(d, []byte("if"))
	if !ok {
		t.Fatal("expected \"if\" to reach a live state")
	}
	leaves = d.MatchLeaves(afterIf)
	if len(leaves) != 1 || leaves[0] != 2 {
		t.Fatalf("MatchLeaves after \"if\" = %v, want [2]", leaves)
	}
}

func TestMinimize_PreservesLanguage(t *testing.T) {
	n := buildNFA(t, []nfa.PatternInput{
		{Mir: literalMir("if"), LeafID: 0},
		{Mir: literalMir("in"), LeafID: 1},
	})
	d := Minimize(Build(n))

	end, ok := run(d, []byte("if"))
	if !ok {
		t.Fatal("expected \"if\" to reach a live state after minimization")
	}
	if leaves := d.MatchLeaves(end); len(leaves) != 1 || leaves[0] != 0 {
		t.Fatalf("MatchLeaves(end) = %v, want [0]", leaves)
	}

	if _, ok := run(d, []byte("ix")); ok {
		t.Fatal("expected dead state for unmatched input after minimization")
	}
}

func TestMinimize_NoStatesNoPanic(t *testing.T) {
	n := buildNFA(t, []nfa.PatternInput{{Mir: literalMir("a"), LeafID: 0}})
	d := Minimize(Build(n))
	if d.States() == 0 {
		t.Fatal("expected at least the dead state to survive minimization")
	}
}
