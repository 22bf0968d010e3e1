package lexforge

import (
	"strings"
	"testing"

	"github.com/coregx/lexforge/ruleset"
)

func simpleRuleSet() *ruleset.RuleSet {
	return &ruleset.RuleSet{
		Options: ruleset.Options{
			TokenTypeName: "Token",
			PackageName:   "demo",
		},
		Tokens: []ruleset.TokenRule{
			{
				VariantName: "Ident",
				Pattern:     ruleset.PatternSource{Source: `[a-zA-Z_][a-zA-Z0-9_]*`},
			},
			{
				VariantName: "If",
				Pattern:     ruleset.PatternSource{IsLiteral: true, Source: "if"},
				HasPriority: true,
				Priority:    100,
			},
			{
				VariantName: "Plus",
				Pattern:     ruleset.PatternSource{IsLiteral: true, Source: "+"},
			},
		},
		Skips: []ruleset.SkipRule{
			{Pattern: ruleset.PatternSource{Source: `[ \t\n]+`}},
		},
	}
}

func TestBuild_Succeeds(t *testing.T) {
	res, errs := Build(simpleRuleSet())
	if errs != nil && errs.Len() > 0 {
		t.Fatalf("Build errors: %v", errs.Err())
	}
	if res == nil {
		t.Fatal("Build returned nil Result with no errors")
	}
	if !strings.Contains(res.Source, "package demo") {
		t.Fatalf("generated source missing package clause:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "TokenKindIdent") {
		t.Fatalf("generated source missing Ident token kind:\n%s", res.Source)
	}
	if res.Leaves.Len() != 4 {
		t.Fatalf("Leaves.Len() = %d, want 4 (3 tokens + 1 skip)", res.Leaves.Len())
	}
}

func TestBuild_RejectsZeroWidthPattern(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "Maybe", Pattern: ruleset.PatternSource{Source: `a*`}},
		},
	}
	_, errs := Build(rs)
	if errs == nil || errs.Len() == 0 {
		t.Fatal("expected a build error for a pattern that matches the empty string")
	}
}

func TestBuild_RejectsGreedyDotWithoutOptIn(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "Rest", Pattern: ruleset.PatternSource{Source: `.+`}},
		},
	}
	_, errs := Build(rs)
	if errs == nil || errs.Len() == 0 {
		t.Fatal("expected a build error for an unopted-in greedy '.+' rule")
	}
}

func TestBuild_AllowGreedyOptsIn(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "Rest", Pattern: ruleset.PatternSource{Source: `.+`}, AllowGreedy: true},
		},
	}
	_, errs := Build(rs)
	if errs != nil && errs.Len() > 0 {
		t.Fatalf("unexpected build errors with allow_greedy set: %v", errs.Err())
	}
}

func TestBuild_RejectsAssertions(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "Word", Pattern: ruleset.PatternSource{Source: `\bfoo\b`}},
		},
	}
	_, errs := Build(rs)
	if errs == nil || errs.Len() == 0 {
		t.Fatal("expected a build error for a pattern containing word-boundary assertions")
	}
}

func TestBuild_UnknownSubpatternReference(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "Num", Pattern: ruleset.PatternSource{Source: `(?&missing)+`}},
		},
	}
	_, errs := Build(rs)
	if errs == nil || errs.Len() == 0 {
		t.Fatal("expected a build error for an undefined subpattern reference")
	}
}

func TestBuild_DisambiguationErrorOnEqualPriorityTie(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{VariantName: "A", Pattern: ruleset.PatternSource{IsLiteral: true, Source: "x"}, HasPriority: true, Priority: 5},
			{VariantName: "B", Pattern: ruleset.PatternSource{IsLiteral: true, Source: "x"}, HasPriority: true, Priority: 5},
		},
	}
	_, errs := Build(rs)
	if errs == nil || errs.Len() == 0 {
		t.Fatal("expected a disambiguation error for two identical literals at equal priority")
	}
}

func TestBuild_ValueVariantAndSkipCallback(t *testing.T) {
	rs := &ruleset.RuleSet{
		Options: ruleset.Options{TokenTypeName: "Token", PackageName: "demo"},
		Tokens: []ruleset.TokenRule{
			{
				VariantName: "Number",
				ValueType:   "int64",
				Pattern:     ruleset.PatternSource{Source: `[0-9]+`},
				Callback:    &ruleset.Callback{Label: "parseNumber"},
			},
		},
		Skips: []ruleset.SkipRule{
			{
				Pattern:  ruleset.PatternSource{Source: `#[^\n]*`},
				Callback: &ruleset.Callback{IsInline: true, InlineArg: "l", InlineBody: "return lexruntime.SkipOK()"},
			},
		},
	}
	res, errs := Build(rs)
	if errs != nil && errs.Len() > 0 {
		t.Fatalf("unexpected build errors: %v", errs.Err())
	}
	if !strings.Contains(res.Source, "parseNumber(l)") {
		t.Fatalf("generated source missing labeled callback call:\n%s", res.Source)
	}
	if !strings.Contains(res.Source, "lexruntime.SkipOutcome") {
		t.Fatalf("generated source missing inline skip callback adapter:\n%s", res.Source)
	}
}

func TestBuild_BytesSource(t *testing.T) {
	rs := simpleRuleSet()
	rs.Options.Source = ruleset.SourceBytes
	res, errs := Build(rs)
	if errs != nil && errs.Len() > 0 {
		t.Fatalf("unexpected build errors: %v", errs.Err())
	}
	if !strings.Contains(res.Source, "func New(source []byte)") {
		t.Fatalf("expected a []byte-based New constructor for SourceBytes:\n%s", res.Source)
	}
}

func TestErrors_ErrJoinsAllMessages(t *testing.T) {
	var errs Errors
	errs.Add("first problem", ruleset.Span{Start: 1, End: 2})
	errs.Add("second problem", ruleset.Span{Start: 3, End: 4})

	err := errs.Err()
	if err == nil {
		t.Fatal("expected a non-nil joined error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "first problem") || !strings.Contains(msg, "second problem") {
		t.Fatalf("joined error missing a message: %s", msg)
	}
}
