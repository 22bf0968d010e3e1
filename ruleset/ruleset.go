// Package ruleset holds the structured rule-surface types spec.md §6.1
// describes as "an opaque producer of structured rule records" — the
// shape attribute parsing from surface syntax (out of scope per §1) would
// hand to the rest of the pipeline.
package ruleset

// IgnoreCase selects a per-rule case-folding mode, mutually exclusive per
// spec.md §6.1 ("ignore(case) or ignore(ascii_case)... mutually exclusive").
type IgnoreCase int

const (
	// IgnoreCaseNone applies no case folding.
	IgnoreCaseNone IgnoreCase = iota
	// IgnoreCaseUnicode folds case over the full Unicode range.
	IgnoreCaseUnicode
	// IgnoreCaseASCII folds only ASCII letters, leaving non-ASCII bytes
	// untouched.
	IgnoreCaseASCII
)

// Span is a byte range over the rule-set's original source, carried
// through purely for diagnostics.
type Span struct {
	Start, End int
}

// Callback names the user-supplied callback (if any) attached to a rule,
// in the shape surface syntax would have already parsed it into: either a
// bare label referencing a function, or an inline single-parameter
// closure body. Exactly one of Label or (InlineArg, InlineBody) is
// meaningful, selected by IsInline.
type Callback struct {
	IsInline bool
	// Label is a referenced function identifier, when !IsInline.
	Label string
	// InlineArg/InlineBody describe a one-parameter inline closure, when
	// IsInline.
	InlineArg  string
	InlineBody string
}

// PatternSource is a rule's pattern text, tagged with whether it's a
// literal (matched verbatim, no regex escaping) or regex source.
type PatternSource struct {
	IsLiteral bool
	Source    string
	Span      Span
}

// TokenRule is one `{ variant_name, variant_kind, pattern_or_literal,
// priority?, callback? }` declaration (spec.md §6.1).
type TokenRule struct {
	VariantName string
	// ValueType is the Go type name carried by a value-variant; empty for
	// a unit variant.
	ValueType string
	Pattern   PatternSource
	// Priority, when HasPriority, overrides the pattern's computed default.
	Priority    int
	HasPriority bool
	Callback    *Callback
	Ignore      IgnoreCase
	// AllowGreedy opts a rule out of the greedy-unbounded-dot rejection
	// (spec.md §4.1, §6.1).
	AllowGreedy bool
	Span        Span
}

// SkipRule is one `{ pattern, priority?, callback? }` declaration whose
// match is consumed but never emitted.
type SkipRule struct {
	Pattern     PatternSource
	Priority    int
	HasPriority bool
	Callback    *Callback
	Ignore      IgnoreCase
	AllowGreedy bool
	Span        Span
}

// Subpattern is one `(name, pattern_source)` definition, in declaration
// order (spec.md §4.2/§6.1).
type Subpattern struct {
	Name   string
	Source string
	Span   Span
}

// SourceKind selects the concrete lexruntime.Source the generated lexer
// reads from.
type SourceKind int

const (
	// SourceStr lexes UTF-8 text (lexruntime.StringSource).
	SourceStr SourceKind = iota
	// SourceBytes lexes opaque bytes (lexruntime.BytesSource).
	SourceBytes
)

// Options carries the rule set's global settings (spec.md §6.1).
type Options struct {
	// TokenTypeName is the name of the generated token enum/type.
	TokenTypeName string
	// ErrorTypeName is the Go type name used for runtime token errors.
	// Empty selects a default error type.
	ErrorTypeName string
	// ErrorCallbackLabel, when non-empty, names a user function invoked to
	// build the default error instead of the generated zero-information
	// one (spec.md §6.2, "overridable via error_callback").
	ErrorCallbackLabel string
	// ExtrasTypeName is the Go type name of the lexer's user-defined
	// extras value. Empty selects struct{}.
	ExtrasTypeName string
	Source         SourceKind
	UTF8Mode       bool
	// PrioOverLength mirrors graph.Config.PrioOverLength.
	PrioOverLength bool
	// GraphExportPath, when non-empty, is the path diagnostic DOT/Mermaid
	// export is written to (spec.md §6.4). Empty disables export.
	GraphExportPath string
	// GraphExportMermaid selects Mermaid over DOT when exporting.
	GraphExportMermaid bool
	// PackageName is the Go package name the generated file declares.
	PackageName string
}

// RuleSet is the complete, structured input to the build pipeline: every
// token and skip rule, every subpattern definition (in declaration order),
// and the global Options — the shape attribute parsing from surface syntax
// is expected to produce (spec.md §1, §6.1).
type RuleSet struct {
	Options     Options
	Subpatterns []Subpattern
	Tokens      []TokenRule
	Skips       []SkipRule
}
