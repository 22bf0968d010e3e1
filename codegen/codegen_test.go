package codegen

import (
	"strings"
	"testing"

	"github.com/coregx/lexforge/dfa"
	"github.com/coregx/lexforge/graph"
	"github.com/coregx/lexforge/leaf"
	"github.com/coregx/lexforge/mir"
	"github.com/coregx/lexforge/nfa"
)

func literalMir(s string) *mir.Mir {
	return &mir.Mir{Kind: mir.KindLiteral, Runes: []rune(s)}
}

func classMir(lo, hi rune) *mir.Mir {
	return &mir.Mir{Kind: mir.KindClass, Ranges: []mir.RuneRange{{Lo: lo, Hi: hi}}}
}

func loopMir(sub *mir.Mir) *mir.Mir {
	return &mir.Mir{Kind: mir.KindLoop, Sub: []*mir.Mir{sub}}
}

func concatMir(subs ...*mir.Mir) *mir.Mir {
	return &mir.Mir{Kind: mir.KindConcat, Sub: subs}
}

func buildGraph(t *testing.T, leaves *leaf.Table, inputs []nfa.PatternInput) *graph.Graph {
	t.Helper()
	c := nfa.NewDefaultCompiler()
	n, err := c.CompileMany(inputs)
	if err != nil {
		t.Fatalf("CompileMany: %v", err)
	}
	d := dfa.Build(n)
	return graph.Build(d, leaves, graph.Config{})
}

func TestGenerate_IdentifierLoop_UsesFastLoop(t *testing.T) {
	leaves := leaf.NewTable()
	// identifier body: [a-z]+, a one-state self-loop once past the first byte.
	id := leaves.Push(leaf.Leaf{Name: "Ident", VariantKind: leaf.VariantUnit, Priority: 2})

	pat := concatMir(classMir('a', 'z'), loopMir(classMir('a', 'z')))
	g := buildGraph(t, leaves, []nfa.PatternInput{{Mir: pat, LeafID: uint32(id)}})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(src, "package demo") {
		t.Fatalf("missing package clause:\n%s", src)
	}
	if !strings.Contains(src, "lexruntime.ScanClass(") {
		t.Fatalf("expected a fast-loop ScanClass call for the [a-z]+ tail:\n%s", src)
	}
	if !strings.Contains(src, "l.Cursor.SetMark(l.Cursor.End())") {
		t.Fatalf("expected an accept state to set a rollback mark:\n%s", src)
	}
	if !strings.Contains(src, "TokenKindIdent") {
		t.Fatalf("missing TokenKindIdent constant:\n%s", src)
	}
}

func TestGenerate_ManyEdges_UsesLookupTable(t *testing.T) {
	leaves := leaf.NewTable()

	// Five single-byte tokens, each its own leaf, give the root state five
	// distinct successors: a >2-edge dispatch, crossing tableThreshold.
	// (Five alternatives of one rule would all reach the same successor and
	// form a single edge.)
	var inputs []nfa.PatternInput
	for _, op := range []struct{ name, lit string }{
		{"Plus", "+"}, {"Minus", "-"}, {"Star", "*"}, {"Slash", "/"}, {"Percent", "%"},
	} {
		id := leaves.Push(leaf.Leaf{Name: op.name, VariantKind: leaf.VariantUnit, Priority: 2})
		inputs = append(inputs, nfa.PatternInput{Mir: literalMir(op.lit), LeafID: uint32(id)})
	}
	g := buildGraph(t, leaves, inputs)

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(src, "LUT") {
		t.Fatalf("expected a lookup-table dispatch for a >2-edge state:\n%s", src)
	}
}

func TestGenerate_LongestMatchRollback(t *testing.T) {
	leaves := leaf.NewTable()
	priv := leaves.Push(leaf.Leaf{Name: "Priv", VariantKind: leaf.VariantUnit, Priority: 8})
	private := leaves.Push(leaf.Leaf{Name: "Private", VariantKind: leaf.VariantUnit, Priority: 14})

	g := buildGraph(t, leaves, []nfa.PatternInput{
		{Mir: literalMir("priv"), LeafID: uint32(priv)},
		{Mir: literalMir("private"), LeafID: uint32(private)},
	})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(src, "l.Cursor.SetEnd(l.Cursor.Mark())") {
		t.Fatalf("expected a rollback-to-mark on a dead end past \"priv\":\n%s", src)
	}
	if !strings.Contains(src, "TokenKindPriv") || !strings.Contains(src, "TokenKindPrivate") {
		t.Fatalf("expected both Priv and Private token kinds:\n%s", src)
	}
}

func TestGenerate_ValueCallbackAdapter(t *testing.T) {
	leaves := leaf.NewTable()
	num := leaves.Push(leaf.Leaf{
		Name:        "Number",
		VariantKind: leaf.VariantValue,
		ValueType:   "int64",
		Priority:    2,
		Callback:    &leaf.Callback{Kind: leaf.CallbackLabel, Label: "parseNumber"},
	})

	pat := concatMir(classMir('0', '9'), loopMir(classMir('0', '9')))
	g := buildGraph(t, leaves, []nfa.PatternInput{{Mir: pat, LeafID: uint32(num)}})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !strings.Contains(src, "parseNumber(l)") {
		t.Fatalf("expected a call to the labeled callback:\n%s", src)
	}
	if !strings.Contains(src, "lexruntime.Outcome[int64]") {
		t.Fatalf("expected the value callback to be typed over int64:\n%s", src)
	}
	if !strings.Contains(src, "outcome.Value()") {
		t.Fatalf("expected the emitted token to carry outcome.Value():\n%s", src)
	}
}

func TestGenerate_DefaultErrorType(t *testing.T) {
	leaves := leaf.NewTable()
	id := leaves.Push(leaf.Leaf{Name: "Foo", VariantKind: leaf.VariantUnit, Priority: 2})
	g := buildGraph(t, leaves, []nfa.PatternInput{{Mir: literalMir("foo"), LeafID: uint32(id)}})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(src, "type Error struct") {
		t.Fatalf("expected a default Error type declaration:\n%s", src)
	}
	if !strings.Contains(src, `"fmt"`) {
		t.Fatalf("expected the fmt import for the default Error's Error() method:\n%s", src)
	}
}

func TestGenerate_CustomErrorTypeSkipsDefault(t *testing.T) {
	leaves := leaf.NewTable()
	id := leaves.Push(leaf.Leaf{Name: "Foo", VariantKind: leaf.VariantUnit, Priority: 2})
	g := buildGraph(t, leaves, []nfa.PatternInput{{Mir: literalMir("foo"), LeafID: uint32(id)}})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token", ErrorTypeName: "MyError"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if strings.Contains(src, "type Error struct") {
		t.Fatalf("did not expect a default Error type when ErrorTypeName is set:\n%s", src)
	}
	if !strings.Contains(src, "type Error = MyError") {
		t.Fatalf("expected an Error alias to the custom type:\n%s", src)
	}
}

func TestGenerate_BytesSourceConstructor(t *testing.T) {
	leaves := leaf.NewTable()
	id := leaves.Push(leaf.Leaf{Name: "Foo", VariantKind: leaf.VariantUnit, Priority: 2})
	g := buildGraph(t, leaves, []nfa.PatternInput{{Mir: literalMir("foo"), LeafID: uint32(id)}})

	src, err := Generate(g, Options{PackageName: "demo", TokenTypeName: "Token", BytesSource: true})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(src, "lexruntime.BytesSource(source)") {
		t.Fatalf("expected a BytesSource conversion:\n%s", src)
	}
}
