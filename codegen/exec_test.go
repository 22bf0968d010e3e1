package codegen

import (
	"fmt"
	"testing"

	"github.com/coregx/lexforge/lexruntime"
)

// The tests below hand-transcribe the exact shape renderState/renderDeadEnd/
// renderSkipAction emit for a tiny two-rule set (Ident = "a", Skip = " ")
// and execute it through the real lexruntime.Lexer — every other test in
// this package only asserts on the generated source text via
// strings.Contains, so none of them would have caught a bug in the runtime
// semantics those templates produce. This one drives the templates for
// real, over an input ending in a skip rule, the scenario a maintainer
// review flagged as capable of running tokenEnd past len(source).

type execTokenKind uint8

const (
	execKindInvalid execTokenKind = iota
	execKindIdent
)

type execToken struct {
	Kind execTokenKind
}

type execError struct {
	Span lexruntime.Span
}

func (e execError) Error() string {
	return fmt.Sprintf("lex error at %d..%d", e.Span.Start, e.Span.End)
}

func execMakeError(l *lexruntime.Lexer[execToken, struct{}]) execError {
	return execError{Span: l.Span()}
}

// execStateRoot mirrors renderState's non-table, non-self-loop dispatch
// for a root with two single-byte edges ('a' and ' '), and
// renderDeadEnd's !ok branch plus root-specific AtEnd/Stop check.
func execStateRoot(l *lexruntime.Lexer[execToken, struct{}]) {
	b, ok := l.Cursor.ReadByte(0)
	if !ok {
		execDeadEndRoot(l)
		return
	}
	if b == 'a' {
		l.Cursor.BumpUnchecked(1)
		execStateIdentAccept(l)
		return
	}
	if b == ' ' {
		l.Cursor.BumpUnchecked(1)
		execStateSkipAccept(l)
		return
	}
	execDeadEndRoot(l)
}

// execDeadEndRoot is renderDeadEnd's output for the root state: the
// AtEnd/Stop guard added for the skip-restart case, then the
// zero-progress bump guard, then the default error.
func execDeadEndRoot(l *lexruntime.Lexer[execToken, struct{}]) {
	if l.Cursor.AtEnd() {
		l.Stop()
		return
	}
	if sp := l.Span(); sp.Start == sp.End && !l.Cursor.AtEnd() {
		l.Cursor.BumpUnchecked(1)
	}
	l.SetError(execMakeError(l))
}

// execStateIdentAccept mirrors an accept state with no outgoing edges:
// mark, immediate dead end with HasCtx true, Unit leaf action.
func execStateIdentAccept(l *lexruntime.Lexer[execToken, struct{}]) {
	l.Cursor.SetMark(l.Cursor.End())
	l.Cursor.SetEnd(l.Cursor.Mark())
	l.Set(execToken{Kind: execKindIdent})
}

// execStateSkipAccept mirrors a Skip leaf's accept state: mark, immediate
// dead end with HasCtx true, renderSkipAction's no-callback restart.
func execStateSkipAccept(l *lexruntime.Lexer[execToken, struct{}]) {
	l.Cursor.SetMark(l.Cursor.End())
	l.Cursor.SetEnd(l.Cursor.Mark())
	l.Cursor.Trivia()
	execStateRoot(l)
}

func TestExec_SkipRuleConsumingToEOF_StopsWithoutSpuriousError(t *testing.T) {
	l := lexruntime.NewLexer[execToken, struct{}](lexruntime.StringSource("a "), struct{}{}, execStateRoot)

	res, ok := l.Next()
	if !ok {
		t.Fatal("expected a token for the leading \"a\"")
	}
	if res.Err != nil {
		t.Fatalf("unexpected error on first token: %v", res.Err)
	}
	if res.Token.Kind != execKindIdent {
		t.Fatalf("expected Ident, got %+v", res.Token)
	}
	if res.Span != (lexruntime.Span{Start: 0, End: 1}) {
		t.Fatalf("unexpected span for \"a\": %+v", res.Span)
	}

	res2, ok2 := l.Next()
	if ok2 {
		t.Fatalf("expected the trailing skip to consume to EOF and stop, got %+v", res2)
	}
	if res2.Span.End > len("a ") {
		t.Fatalf("span end %d exceeded source length %d", res2.Span.End, len("a "))
	}

	if _, ok3 := l.Next(); ok3 {
		t.Fatal("lexer must stay exhausted once stopped")
	}
}

func TestExec_AllSkipInput_ProducesNoTokens(t *testing.T) {
	l := lexruntime.NewLexer[execToken, struct{}](lexruntime.StringSource("   "), struct{}{}, execStateRoot)

	if _, ok := l.Next(); ok {
		t.Fatal("expected no tokens for input that is entirely skip bytes")
	}
}

func TestExec_UnmatchedByteAfterToken_ProducesSingleByteError(t *testing.T) {
	l := lexruntime.NewLexer[execToken, struct{}](lexruntime.StringSource("a!"), struct{}{}, execStateRoot)

	res1, ok1 := l.Next()
	if !ok1 || res1.Err != nil || res1.Token.Kind != execKindIdent {
		t.Fatalf("expected a clean Ident token first, got %+v ok=%v", res1, ok1)
	}

	res2, ok2 := l.Next()
	if !ok2 {
		t.Fatal("expected an error token for the unmatched '!'")
	}
	if res2.Err == nil {
		t.Fatalf("expected an error, got %+v", res2)
	}
	if res2.Span.End > len("a!") {
		t.Fatalf("error span end %d exceeded source length %d", res2.Span.End, len("a!"))
	}

	if _, ok3 := l.Next(); ok3 {
		t.Fatal("expected exhaustion after consuming the trailing unmatched byte")
	}
}
