// Package codegen emits the Go source of a byte-level state machine from
// a graph.Graph, per spec.md §4.4: one function per graph state, a
// match/lookup-table dispatch over the next input byte, self-edge fast
// loops, and leaf-action emission through the callback return-value
// protocol (§4.4.1).
package codegen

import (
	"fmt"
	"strings"

	"github.com/coregx/lexforge/graph"
	"github.com/coregx/lexforge/leaf"
	"github.com/coregx/lexforge/simd"
	"github.com/dave/jennifer/jen"
)

// Options controls the shape of the generated file.
type Options struct {
	PackageName    string
	TokenTypeName  string
	ErrorTypeName  string
	ExtrasTypeName string
	// ErrorCallbackLabel, when non-empty, names a user function
	// `func(*Lexer) <ErrorTypeName>` invoked instead of the default
	// MakeError body (spec.md §6.2: "overridable via error_callback").
	ErrorCallbackLabel string
	// BytesSource selects lexruntime.BytesSource / []byte over
	// lexruntime.StringSource / string.
	BytesSource bool
}

func (o *Options) applyDefaults() {
	if o.PackageName == "" {
		o.PackageName = "lexer"
	}
	if o.TokenTypeName == "" {
		o.TokenTypeName = "Token"
	}
	if o.ExtrasTypeName == "" {
		o.ExtrasTypeName = "struct{}"
	}
}

// Error reports a failure while generating code for a graph.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// tableThreshold is spec §4.4's ">2 normal transitions" cutoff for
// choosing a 256-entry lookup table over a direct byte-range match.
const tableThreshold = 2

// Generate renders g into a complete Go source file implementing the
// runtime lexer contract (spec.md §4.5) against lexruntime.
func Generate(g *graph.Graph, opts Options) (string, error) {
	opts.applyDefaults()

	states := g.States()
	names := assignNames(g, states)

	var typesBuf strings.Builder
	if err := renderTypeDecls(&typesBuf, g.Leaves(), opts); err != nil {
		return "", &Error{Msg: err.Error()}
	}

	var body strings.Builder
	fmt.Fprintf(&body, "package %s\n\n", opts.PackageName)
	if opts.ErrorTypeName == "" {
		fmt.Fprintf(&body, "import (\n\t%q\n\t%q\n)\n\n", "fmt", "github.com/coregx/lexforge/lexruntime")
	} else {
		fmt.Fprintf(&body, "import (\n\t%q\n)\n\n", "github.com/coregx/lexforge/lexruntime")
	}

	body.WriteString(typesBuf.String())
	body.WriteString("\n")

	renderRuntimeGlue(&body, opts, names[g.Root()])

	for _, s := range states {
		data := g.StateData(s)
		if err := renderState(&body, g, s, data, names, opts); err != nil {
			return "", &Error{Msg: err.Error()}
		}
	}

	return body.String(), nil
}

func assignNames(g *graph.Graph, states []graph.State) map[graph.State]string {
	names := make(map[graph.State]string, len(states))
	for i, s := range states {
		if s == g.Root() {
			names[s] = "stateRoot"
			continue
		}
		names[s] = fmt.Sprintf("state%d", i)
	}
	return names
}

// renderTypeDecls renders the TokenKind/Token type pair through jennifer
// (Type/Struct declarations — the one corner of jennifer's API a
// from-memory, never-compiled usage can be trusted on) and hand-writes
// everything else (the const-iota block, the Extras/Lexer aliases, the
// default Error type) as plain text: jennifer's Qual-based import
// tracking only resolves correctly inside a jen.File, and this function
// only ever splices single declarations into a file assembled by hand.
func renderTypeDecls(w *strings.Builder, leaves *leaf.Table, opts Options) error {
	entries := leaves.All()

	var variantConsts []string
	for _, e := range entries {
		if e.Leaf.VariantKind == leaf.VariantSkip {
			continue
		}
		variantConsts = append(variantConsts, "TokenKind"+e.Leaf.Name)
	}

	fmt.Fprintf(w, "%#v\n\n", jen.Type().Id("TokenKind").Uint32())

	w.WriteString("const (\n\ttokenKindInvalid TokenKind = iota\n")
	for _, name := range variantConsts {
		fmt.Fprintf(w, "\t%s\n", name)
	}
	w.WriteString(")\n\n")

	fmt.Fprintf(w, "%#v\n\n", jen.Type().Id(opts.TokenTypeName).Struct(
		jen.Id("Kind").Id("TokenKind"),
		jen.Id("Value").Id("any"),
	))

	extrasType := opts.ExtrasTypeName
	if extrasType == "" {
		extrasType = "struct{}"
	}
	fmt.Fprintf(w, "type Extras = %s\n\n", extrasType)

	if opts.ErrorTypeName == "" {
		w.WriteString("type Error struct {\n\tSpan lexruntime.Span\n}\n\n")
		w.WriteString("func (e Error) Error() string {\n")
		w.WriteString("\treturn fmt.Sprintf(\"lex error at %d..%d\", e.Span.Start, e.Span.End)\n")
		w.WriteString("}\n\n")
	} else {
		fmt.Fprintf(w, "type Error = %s\n\n", opts.ErrorTypeName)
	}

	fmt.Fprintf(w, "type Lexer = lexruntime.Lexer[%s, Extras]\n\n", opts.TokenTypeName)

	return nil
}

// renderRuntimeGlue emits the constructors and MakeError spec.md §6.2 asks
// for (lexer/lexer_with_extras/make_error), plus the package-level Step
// variable the generated per-state functions are wired through.
func renderRuntimeGlue(w *strings.Builder, opts Options, rootName string) {
	sourceType := "string"
	sourceCtor := "StringSource"
	if opts.BytesSource {
		sourceType = "[]byte"
		sourceCtor = "BytesSource"
	}

	fmt.Fprintf(w, "var lexStep lexruntime.Step[%s, Extras] = %s\n\n", opts.TokenTypeName, rootName)

	fmt.Fprintf(w, "// New constructs a Lexer over source with a zero-value Extras.\n")
	fmt.Fprintf(w, "func New(source %s) *Lexer {\n", sourceType)
	fmt.Fprintf(w, "\tvar extras Extras\n")
	fmt.Fprintf(w, "\treturn NewWithExtras(source, extras)\n")
	fmt.Fprintf(w, "}\n\n")

	fmt.Fprintf(w, "// NewWithExtras constructs a Lexer over source carrying extras.\n")
	fmt.Fprintf(w, "func NewWithExtras(source %s, extras Extras) *Lexer {\n", sourceType)
	fmt.Fprintf(w, "\treturn lexruntime.NewLexer[%s, Extras](lexruntime.%s(source), extras, lexStep)\n", opts.TokenTypeName, sourceCtor)
	fmt.Fprintf(w, "}\n\n")

	fmt.Fprintf(w, "// MakeError builds the default error for an unmatched byte or a\n")
	fmt.Fprintf(w, "// callback-signaled DefaultError outcome (spec's prescribed resolution:\n")
	fmt.Fprintf(w, "// cursor_end has already advanced past the matched region by the time\n")
	fmt.Fprintf(w, "// this is called).\n")
	fmt.Fprintf(w, "func MakeError(l *Lexer) Error {\n")
	if opts.ErrorCallbackLabel != "" {
		fmt.Fprintf(w, "\treturn %s(l)\n", opts.ErrorCallbackLabel)
	} else {
		fmt.Fprintf(w, "\treturn Error{Span: l.Span()}\n")
	}
	fmt.Fprintf(w, "}\n\n")
}

// renderState emits one state's function body.
func renderState(w *strings.Builder, g *graph.Graph, s graph.State, data graph.StateData, names map[graph.State]string, opts Options) error {
	name := names[s]
	isAccept := data.Type == graph.StateAccept

	selfLoop := len(data.Normal) == 1 && data.Normal[0].To == s

	fmt.Fprintf(w, "func %s(l *Lexer) {\n", name)

	if selfLoop {
		classVar := name + "Class"
		fmt.Fprintf(w, "\trem := l.Cursor.RemainderBytes()\n")
		fmt.Fprintf(w, "\tadv := lexruntime.ScanClass(rem, 0, &%s)\n", classVar)
		fmt.Fprintf(w, "\tl.Cursor.BumpUnchecked(adv)\n")
		if isAccept {
			fmt.Fprintf(w, "\tl.Cursor.SetMark(l.Cursor.End())\n")
		}
		if err := renderDeadEnd(w, g, s, data, opts); err != nil {
			return err
		}
		fmt.Fprintf(w, "}\n\n")
		renderClassTable(w, classVar, data.Normal[0].Class)
		return nil
	}

	if isAccept {
		fmt.Fprintf(w, "\tl.Cursor.SetMark(l.Cursor.End())\n")
	}

	if len(data.Normal) == 0 {
		if err := renderDeadEnd(w, g, s, data, opts); err != nil {
			return err
		}
		fmt.Fprintf(w, "}\n\n")
		return nil
	}

	fmt.Fprintf(w, "\tb, ok := l.Cursor.ReadByte(0)\n")
	fmt.Fprintf(w, "\tif !ok {\n")
	if err := renderDeadEnd(w, g, s, data, opts); err != nil {
		return err
	}
	fmt.Fprintf(w, "\t}\n\n")

	useTable := len(data.Normal) > tableThreshold || lutHeuristic(data.Normal)
	if useTable {
		lutVar := name + "LUT"
		fmt.Fprintf(w, "\tswitch %s[b] {\n", lutVar)
		for i, e := range data.Normal {
			fmt.Fprintf(w, "\tcase %d:\n", i+1)
			fmt.Fprintf(w, "\t\tl.Cursor.BumpUnchecked(1)\n")
			fmt.Fprintf(w, "\t\t%s(l)\n", names[e.To])
			fmt.Fprintf(w, "\t\treturn\n")
		}
		fmt.Fprintf(w, "\t}\n\n")
		renderLUT(w, lutVar, data.Normal)
	} else {
		for _, e := range data.Normal {
			fmt.Fprintf(w, "\tif %s {\n", byteClassTest("b", e.Class))
			fmt.Fprintf(w, "\t\tl.Cursor.BumpUnchecked(1)\n")
			fmt.Fprintf(w, "\t\t%s(l)\n", names[e.To])
			fmt.Fprintf(w, "\t\treturn\n")
			fmt.Fprintf(w, "\t}\n")
		}
		fmt.Fprintf(w, "\n")
	}

	if err := renderDeadEnd(w, g, s, data, opts); err != nil {
		return err
	}
	fmt.Fprintf(w, "}\n\n")
	return nil
}

// lutAvgRankThreshold is the average simd.ByteRank above which a
// borderline 2-edge state's covered bytes are common enough (in typical
// source text) that the two branches rarely short-circuit, making an
// indexed lookup cheaper than sequential range comparisons.
const lutAvgRankThreshold = 110

// lutHeuristic enriches the fixed ">2 edges" threshold (spec §4.4) with a
// byte-frequency signal from simd.ByteFrequencies: a borderline 2-edge
// state whose covered bytes are, on average, common rather than rare is
// one whose branches get taken often enough that one indexed load beats
// two range comparisons. This only ever pushes a borderline case up to a
// table; it never drops below the spec's own ">2" floor.
func lutHeuristic(edges []graph.Edge) bool {
	if len(edges) != tableThreshold {
		return false
	}
	totalRank, count := 0, 0
	for _, e := range edges {
		for _, r := range e.Class.Ranges {
			for c := int(r.Lo); c <= int(r.Hi); c++ {
				totalRank += int(simd.ByteRank(byte(c)))
				count++
			}
		}
	}
	if count == 0 {
		return false
	}
	return totalRank/count > lutAvgRankThreshold
}

func byteClassTest(varName string, bc graph.ByteClass) string {
	parts := make([]string, 0, len(bc.Ranges))
	for _, r := range bc.Ranges {
		if r.Lo == r.Hi {
			parts = append(parts, fmt.Sprintf("%s == %s", varName, byteLit(r.Lo)))
		} else {
			parts = append(parts, fmt.Sprintf("(%s >= %s && %s <= %s)", varName, byteLit(r.Lo), varName, byteLit(r.Hi)))
		}
	}
	return strings.Join(parts, " || ")
}

func byteLit(b byte) string {
	return fmt.Sprintf("0x%02x", b)
}

func renderLUT(w *strings.Builder, varName string, edges []graph.Edge) {
	var tags [256]byte
	for i, e := range edges {
		for _, r := range e.Class.Ranges {
			for c := int(r.Lo); c <= int(r.Hi); c++ {
				tags[c] = byte(i + 1)
			}
		}
	}
	fmt.Fprintf(w, "var %s = [256]uint8{\n", varName)
	for row := 0; row < 256; row += 16 {
		w.WriteString("\t")
		for col := 0; col < 16; col++ {
			fmt.Fprintf(w, "%d, ", tags[row+col])
		}
		w.WriteString("\n")
	}
	fmt.Fprintf(w, "}\n\n")
}

func renderClassTable(w *strings.Builder, varName string, bc graph.ByteClass) {
	var member [256]bool
	for _, r := range bc.Ranges {
		for c := int(r.Lo); c <= int(r.Hi); c++ {
			member[c] = true
		}
	}
	fmt.Fprintf(w, "var %s = [256]bool{\n", varName)
	for row := 0; row < 256; row += 16 {
		w.WriteString("\t")
		for col := 0; col < 16; col++ {
			fmt.Fprintf(w, "%t, ", member[row+col])
		}
		w.WriteString("\n")
	}
	fmt.Fprintf(w, "}\n\n")
}

// renderDeadEnd emits the "no transition matches" handling (spec §4.4):
// roll back to the carried-forward accept (if any) and run its leaf
// action, otherwise produce an unmatched-byte error. The zero-progress
// guard only consumes a byte to skip past it when one is actually there
// (!l.Cursor.AtEnd()) — at true end of input (reached via the ReadByte
// !ok branch, or a self-loop's fast-loop scan running off the end of the
// remainder) there is no byte to skip, and bumping anyway would push
// tokenEnd past len(source), violating spec.md §8's b <= len(s) invariant
// and panicking the next SliceString/SliceBytes call.
//
// At the root state specifically, hitting end of input here means the
// current Next() call made zero progress before running out of bytes —
// the only way that happens is a Skip leaf's restart (renderSkipAction)
// landing stateRoot exactly on EOF, since Next() itself never calls into
// a state function without bytes left to read. spec.md §8's boundary case
// ("a skip rule at EOF: consumes the bytes, returns no token, then None")
// means this must end the stream, not report an unmatched-byte error.
func renderDeadEnd(w *strings.Builder, g *graph.Graph, s graph.State, data graph.StateData, opts Options) error {
	if s.HasCtx {
		fmt.Fprintf(w, "\tl.Cursor.SetEnd(l.Cursor.Mark())\n")
		l := g.Leaves().Get(s.Context)
		return renderLeafAction(w, s.Context, l, opts)
	}
	if s == g.Root() {
		fmt.Fprintf(w, "\tif l.Cursor.AtEnd() {\n")
		fmt.Fprintf(w, "\t\tl.Stop()\n")
		fmt.Fprintf(w, "\t\treturn\n")
		fmt.Fprintf(w, "\t}\n")
	}
	fmt.Fprintf(w, "\tif sp := l.Span(); sp.Start == sp.End && !l.Cursor.AtEnd() {\n")
	fmt.Fprintf(w, "\t\tl.Cursor.BumpUnchecked(1)\n")
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\tl.SetError(MakeError(l))\n")
	fmt.Fprintf(w, "\treturn\n")
	return nil
}

func renderLeafAction(w *strings.Builder, id leaf.LeafId, l *leaf.Leaf, opts Options) error {
	switch l.VariantKind {
	case leaf.VariantSkip:
		return renderSkipAction(w, l)
	case leaf.VariantUnit:
		return renderUnitAction(w, l)
	case leaf.VariantValue:
		return renderValueAction(w, l)
	default:
		return fmt.Errorf("codegen: leaf %d has unknown variant kind %v", id, l.VariantKind)
	}
}

// renderSkipAction handles a Skip leaf. Skip callbacks are normalized to
// lexruntime.SkipOutcome, not Outcome[T] — a skip rule never produces a
// token, so there is no Emit/DefaultError case, only "resume" or "fail".
// The restart calls stateRoot directly rather than going back through
// Lexer.Next, so if the skip consumed every remaining byte, stateRoot's
// own dead-end handling is what has to notice the stream is exhausted
// (see renderDeadEnd's root-specific AtEnd check) and stop cleanly.
func renderSkipAction(w *strings.Builder, l *leaf.Leaf) error {
	if l.Callback == nil {
		fmt.Fprintf(w, "\tl.Cursor.Trivia()\n")
		fmt.Fprintf(w, "\tstateRoot(l)\n")
		fmt.Fprintf(w, "\treturn\n")
		return nil
	}
	call, err := callExpr(l.Callback, "lexruntime.SkipOutcome")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\toutcome := %s\n", call)
	fmt.Fprintf(w, "\tif outcome.IsError() {\n")
	fmt.Fprintf(w, "\t\tl.SetError(outcome.Err())\n")
	fmt.Fprintf(w, "\t\treturn\n")
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\tl.Cursor.Trivia()\n")
	fmt.Fprintf(w, "\tstateRoot(l)\n")
	fmt.Fprintf(w, "\treturn\n")
	return nil
}

func renderUnitAction(w *strings.Builder, l *leaf.Leaf) error {
	constName := "TokenKind" + l.Name
	if l.Callback == nil {
		fmt.Fprintf(w, "\tl.Set(Token{Kind: %s})\n", constName)
		fmt.Fprintf(w, "\treturn\n")
		return nil
	}
	call, err := callExpr(l.Callback, "lexruntime.Outcome[struct{}]")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\toutcome := %s\n", call)
	fmt.Fprintf(w, "\tswitch isEmit, isSkip, isErr, isDefault := outcome.Kind(); {\n")
	fmt.Fprintf(w, "\tcase isEmit:\n")
	fmt.Fprintf(w, "\t\tl.Set(Token{Kind: %s})\n", constName)
	fmt.Fprintf(w, "\tcase isSkip:\n")
	fmt.Fprintf(w, "\t\tl.Cursor.Trivia()\n")
	fmt.Fprintf(w, "\t\tstateRoot(l)\n")
	fmt.Fprintf(w, "\t\treturn\n")
	fmt.Fprintf(w, "\tcase isErr:\n")
	fmt.Fprintf(w, "\t\tl.SetError(outcome.Err())\n")
	fmt.Fprintf(w, "\tcase isDefault:\n")
	fmt.Fprintf(w, "\t\tl.SetError(MakeError(l))\n")
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\treturn\n")
	return nil
}

func renderValueAction(w *strings.Builder, l *leaf.Leaf) error {
	constName := "TokenKind" + l.Name
	valueType := l.ValueType
	if valueType == "" {
		valueType = "string"
	}
	if l.Callback == nil {
		fmt.Fprintf(w, "\tl.Set(Token{Kind: %s, Value: l.SliceString()})\n", constName)
		fmt.Fprintf(w, "\treturn\n")
		return nil
	}
	call, err := callExpr(l.Callback, "lexruntime.Outcome["+valueType+"]")
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "\toutcome := %s\n", call)
	fmt.Fprintf(w, "\tswitch isEmit, isSkip, isErr, isDefault := outcome.Kind(); {\n")
	fmt.Fprintf(w, "\tcase isEmit:\n")
	fmt.Fprintf(w, "\t\tl.Set(Token{Kind: %s, Value: outcome.Value()})\n", constName)
	fmt.Fprintf(w, "\tcase isSkip:\n")
	fmt.Fprintf(w, "\t\tl.Cursor.Trivia()\n")
	fmt.Fprintf(w, "\t\tstateRoot(l)\n")
	fmt.Fprintf(w, "\t\treturn\n")
	fmt.Fprintf(w, "\tcase isErr:\n")
	fmt.Fprintf(w, "\t\tl.SetError(outcome.Err())\n")
	fmt.Fprintf(w, "\tcase isDefault:\n")
	fmt.Fprintf(w, "\t\tl.SetError(MakeError(l))\n")
	fmt.Fprintf(w, "\t}\n")
	fmt.Fprintf(w, "\treturn\n")
	return nil
}

// callExpr builds the call-site expression invoking a leaf's callback,
// per spec.md §4.4.1: every callback shape is normalized to the single
// Outcome[T] adapter, so codegen always just calls the (labeled or
// inline) callback and reads its Kind()/Value()/Err().
func callExpr(cb *leaf.Callback, outcomeType string) (string, error) {
	switch cb.Kind {
	case leaf.CallbackLabel:
		return fmt.Sprintf("%s(l)", cb.Label), nil
	case leaf.CallbackInline:
		arg := cb.InlineArg
		if arg == "" {
			arg = "l"
		}
		return fmt.Sprintf("func(%s *Lexer) %s {\n%s\n}(l)", arg, outcomeType, cb.InlineBody), nil
	default:
		return "", fmt.Errorf("codegen: unknown callback kind %v", cb.Kind)
	}
}
