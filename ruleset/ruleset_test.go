package ruleset

import (
	"encoding/json"
	"testing"
)

func TestRuleSet_JSONRoundTrip(t *testing.T) {
	rs := RuleSet{
		Options: Options{
			TokenTypeName: "Token",
			PackageName:   "demo",
			UTF8Mode:      true,
		},
		Subpatterns: []Subpattern{
			{Name: "digit", Source: `[0-9]`, Span: Span{Start: 0, End: 10}},
		},
		Tokens: []TokenRule{
			{
				VariantName: "Number",
				ValueType:   "int64",
				Pattern:     PatternSource{Source: `(?&digit)+`, Span: Span{Start: 20, End: 30}},
				Callback:    &Callback{Label: "parseNumber"},
			},
			{
				VariantName: "Plus",
				Pattern:     PatternSource{IsLiteral: true, Source: "+", Span: Span{Start: 31, End: 32}},
			},
		},
		Skips: []SkipRule{
			{Pattern: PatternSource{Source: `\s+`, Span: Span{Start: 40, End: 45}}},
		},
	}

	raw, err := json.Marshal(&rs)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got RuleSet
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if len(got.Tokens) != 2 || got.Tokens[0].VariantName != "Number" {
		t.Fatalf("Tokens round-trip mismatch: %+v", got.Tokens)
	}
	if got.Tokens[0].Callback == nil || got.Tokens[0].Callback.Label != "parseNumber" {
		t.Fatalf("Callback round-trip mismatch: %+v", got.Tokens[0].Callback)
	}
	if len(got.Subpatterns) != 1 || got.Subpatterns[0].Name != "digit" {
		t.Fatalf("Subpatterns round-trip mismatch: %+v", got.Subpatterns)
	}
	if !got.Options.UTF8Mode || got.Options.PackageName != "demo" {
		t.Fatalf("Options round-trip mismatch: %+v", got.Options)
	}
}

func TestIgnoreCase_DistinctValues(t *testing.T) {
	vals := map[IgnoreCase]bool{
		IgnoreCaseNone:    true,
		IgnoreCaseUnicode: true,
		IgnoreCaseASCII:   true,
	}
	if len(vals) != 3 {
		t.Fatalf("expected 3 distinct IgnoreCase values, got %d", len(vals))
	}
}
