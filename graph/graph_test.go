package graph

import (
	"testing"

	"github.com/coregx/lexforge/dfa"
	"github.com/coregx/lexforge/leaf"
	"github.com/coregx/lexforge/mir"
	"github.com/coregx/lexforge/nfa"
	"github.com/coregx/lexforge/pattern"
	"github.com/google/go-cmp/cmp"
)

func literalMir(s string) *mir.Mir {
	return &mir.Mir{Kind: mir.KindLiteral, Runes: []rune(s)}
}

func buildGraph(t *testing.T, table *leaf.Table, inputs []nfa.PatternInput, cfg Config) *Graph {
	t.Helper()
	c := nfa.NewDefaultCompiler()
	n, err := c.CompileMany(inputs)
	if err != nil {
		t.Fatalf("CompileMany: %v", err)
	}
	d := dfa.Minimize(dfa.Build(n))
	return Build(d, table, cfg)
}

func walk(g *Graph, s []byte) State {
	cur := g.Root()
	for _, b := range s {
		data := g.StateData(cur)
		var next *State
		for _, e := range data.Normal {
			for _, r := range e.Class.Ranges {
				if b >= r.Lo && b <= r.Hi {
					to := e.To
					next = &to
				}
			}
		}
		if next == nil {
			return State{}
		}
		cur = *next
	}
	return cur
}

func TestBuild_LongestMatch_OverlappingKeywords(t *testing.T) {
	table := leaf.NewTable()
	idIf := table.Push(leaf.Leaf{Name: "If", Pattern: &pattern.Pattern{}, Priority: 0})
	idIdent := table.Push(leaf.Leaf{Name: "Ident", Pattern: &pattern.Pattern{}, Priority: 0})

	g := buildGraph(t, table, []nfa.PatternInput{
		{Mir: literalMir("i"), LeafID: uint32(idIf)},
		{Mir: literalMir("if"), LeafID: uint32(idIdent)},
	}, Config{})

	end := walk(g, []byte("if"))
	data := g.StateData(end)
	if data.Type != StateAccept {
		t.Fatalf("expected accept state after \"if\", got %+v", data)
	}
	if data.Accept != idIdent {
		t.Fatalf("expected longest match (leaf %d) to win, got leaf %d", idIdent, data.Accept)
	}
}

func TestBuild_PrioOverLength_HigherPriorityWins(t *testing.T) {
	table := leaf.NewTable()
	idKeyword := table.Push(leaf.Leaf{Name: "If", Pattern: &pattern.Pattern{}, Priority: 10})
	idIdent := table.Push(leaf.Leaf{Name: "Ident", Pattern: &pattern.Pattern{}, Priority: 0})

	g := buildGraph(t, table, []nfa.PatternInput{
		{Mir: literalMir("if"), LeafID: uint32(idKeyword)},
		{Mir: literalMir("ifx"), LeafID: uint32(idIdent)},
	}, Config{PrioOverLength: true})

	end := walk(g, []byte("ifx"))
	data := g.StateData(end)
	if data.Type != StateNormal {
		t.Fatalf("expected the lower-priority accept after \"ifx\" to be suppressed, got %+v", data)
	}
	if !end.HasCtx || end.Context != idKeyword {
		t.Fatalf("expected higher-priority leaf %d to win over longer match, got context %+v", idKeyword, end)
	}
}

func TestBuild_NoPrioOverLength_LongestStillWins(t *testing.T) {
	table := leaf.NewTable()
	idKeyword := table.Push(leaf.Leaf{Name: "If", Pattern: &pattern.Pattern{}, Priority: 10})
	idIdent := table.Push(leaf.Leaf{Name: "Ident", Pattern: &pattern.Pattern{}, Priority: 0})

	g := buildGraph(t, table, []nfa.PatternInput{
		{Mir: literalMir("if"), LeafID: uint32(idKeyword)},
		{Mir: literalMir("ifx"), LeafID: uint32(idIdent)},
	}, Config{PrioOverLength: false})

	end := walk(g, []byte("ifx"))
	data := g.StateData(end)
	if data.Type != StateAccept {
		t.Fatalf("expected accept state after \"ifx\", got %+v", data)
	}
	if data.Accept != idIdent {
		t.Fatalf("expected longest match (leaf %d) without priority override, got %d", idIdent, data.Accept)
	}
}

func TestBuild_DisambiguationError_OnTiedPriority(t *testing.T) {
	table := leaf.NewTable()
	a := table.Push(leaf.Leaf{Name: "A", Pattern: &pattern.Pattern{}, Priority: 5})
	b := table.Push(leaf.Leaf{Name: "B", Pattern: &pattern.Pattern{}, Priority: 5})

	g := buildGraph(t, table, []nfa.PatternInput{
		{Mir: literalMir("x"), LeafID: uint32(a)},
		{Mir: literalMir("x"), LeafID: uint32(b)},
	}, Config{})

	if len(g.Errors()) == 0 {
		t.Fatal("expected a disambiguation error for two equal-priority leaves matching the same state")
	}
}

func TestBuild_RootEdgesCoverDisjointByteRanges(t *testing.T) {
	table := leaf.NewTable()
	lower := table.Push(leaf.Leaf{Name: "Lower", Pattern: &pattern.Pattern{}, Priority: 0})
	digit := table.Push(leaf.Leaf{Name: "Digit", Pattern: &pattern.Pattern{}, Priority: 0})

	lowerMir := &mir.Mir{Kind: mir.KindClass, Ranges: []mir.RuneRange{{Lo: 'a', Hi: 'z'}}}
	digitMir := &mir.Mir{Kind: mir.KindClass, Ranges: []mir.RuneRange{{Lo: '0', Hi: '9'}}}

	g := buildGraph(t, table, []nfa.PatternInput{
		{Mir: lowerMir, LeafID: uint32(lower)},
		{Mir: digitMir, LeafID: uint32(digit)},
	}, Config{})

	root := g.StateData(g.Root())
	got := make([]ByteClass, len(root.Normal))
	for i, e := range root.Normal {
		got[i] = e.Class
	}

	want := []ByteClass{
		{Ranges: []ByteRange{{Lo: '0', Hi: '9'}}},
		{Ranges: []ByteRange{{Lo: 'a', Hi: 'z'}}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("root edge byte classes mismatch (-want +got):\n%s", diff)
	}
}

func TestDOT_ProducesNonEmptyOutput(t *testing.T) {
	table := leaf.NewTable()
	table.Push(leaf.Leaf{Name: "If", Pattern: &pattern.Pattern{}})

	g := buildGraph(t, table, []nfa.PatternInput{{Mir: literalMir("if"), LeafID: 0}}, Config{})
	out := g.DOT()
	if out == "" {
		t.Fatal("expected non-empty DOT output")
	}
}

func TestMermaid_ProducesNonEmptyOutput(t *testing.T) {
	table := leaf.NewTable()
	table.Push(leaf.Leaf{Name: "If", Pattern: &pattern.Pattern{}})

	g := buildGraph(t, table, []nfa.PatternInput{{Mir: literalMir("if"), LeafID: 0}}, Config{})
	out := g.Mermaid()
	if out == "" {
		t.Fatal("expected non-empty Mermaid output")
	}
}
