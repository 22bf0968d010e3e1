// Package lexforge turns a ruleset.RuleSet into generated Go source
// implementing a byte-level lexer state machine, per spec.md §2's
// pipeline: pattern compilation, subpattern resolution, leaf-table
// construction, NFA/DFA/graph construction, disambiguation, and code
// generation.
package lexforge

import (
	"errors"
	"fmt"
	"os"

	"github.com/coregx/lexforge/codegen"
	"github.com/coregx/lexforge/dfa"
	"github.com/coregx/lexforge/graph"
	"github.com/coregx/lexforge/leaf"
	"github.com/coregx/lexforge/mir"
	"github.com/coregx/lexforge/nfa"
	"github.com/coregx/lexforge/pattern"
	"github.com/coregx/lexforge/ruleset"
	"github.com/coregx/lexforge/subpattern"
)

// BuildError is one accumulated build-time failure, carrying a span over
// the original rule/pattern source it came from — spec.md §7's "each
// error carries a source span pointing to the offending rule."
type BuildError struct {
	Message string
	Span    ruleset.Span
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("%d..%d: %s", e.Span.Start, e.Span.End, e.Message)
}

// Errors accumulates BuildErrors across an entire build instead of
// short-circuiting on the first one, per spec.md §7's propagation policy.
// Modeled directly on logos-codegen/src/error.rs's Errors/ParseError.
type Errors struct {
	errs []*BuildError
}

// Add records a new error and returns it.
func (e *Errors) Add(message string, span ruleset.Span) *BuildError {
	be := &BuildError{Message: message, Span: span}
	e.errs = append(e.errs, be)
	return be
}

// Len reports how many errors have been accumulated.
func (e *Errors) Len() int { return len(e.errs) }

// All returns every accumulated error.
func (e *Errors) All() []*BuildError { return e.errs }

// Err renders the accumulated errors as a single joined error, or nil if
// none were recorded.
func (e *Errors) Err() error {
	if len(e.errs) == 0 {
		return nil
	}
	joined := make([]error, len(e.errs))
	for i, be := range e.errs {
		joined[i] = be
	}
	return errors.Join(joined...)
}

// Result is everything a successful Build produces.
type Result struct {
	// Source is the generated Go source implementing the lexer.
	Source string
	// Graph is the match graph codegen walked, exposed for callers that
	// want to inspect or independently export it.
	Graph *graph.Graph
	// Leaves is the leaf table the graph was built from.
	Leaves *leaf.Table
}

// Build runs the full pipeline (pattern -> subpattern -> leaf ->
// NFA -> DFA -> graph -> codegen) over rs, returning generated source or
// the full set of accumulated errors. No code is emitted if any errors
// are present, per spec.md §7.
func Build(rs *ruleset.RuleSet) (*Result, *Errors) {
	var errs Errors

	resolver := subpattern.New(rs.Options.UTF8Mode)
	for _, sp := range rs.Subpatterns {
		if err := resolver.Define(subpattern.Definition{
			Name:   sp.Name,
			Source: sp.Source,
			Span:   subpattern.Span{Start: sp.Span.Start, End: sp.Span.End},
		}); err != nil {
			errs.Add(err.Error(), sp.Span)
		}
	}

	leaves := leaf.NewTable()

	compileRule := func(ps ruleset.PatternSource, ignore ruleset.IgnoreCase, allowGreedy bool) (*pattern.Pattern, bool) {
		src := ps.Source
		if !ps.IsLiteral {
			expanded, err := resolver.Substitute(src, subpattern.Span{Start: ps.Span.Start, End: ps.Span.End})
			if err != nil {
				errs.Add(err.Error(), ps.Span)
				return nil, false
			}
			src = expanded
		}

		var pat *pattern.Pattern
		var err error
		if ps.IsLiteral {
			pat = compileLiteralWithIgnore([]byte(src), ignore)
		} else {
			opts := pattern.Options{}
			if ignore != ruleset.IgnoreCaseNone {
				// regexp/syntax has no ASCII-only fold flag distinct from
				// its general FoldCase; ignore(ascii_case) on a regex-origin
				// (as opposed to literal-origin) pattern is approximated by
				// full FoldCase. The exact per-letter [Aa]-class splice
				// spec.md §6.1/SPEC_FULL §1 describes is reserved for
				// literal-origin patterns, where it can be applied exactly
				// (see compileLiteralWithIgnore).
				opts.IgnoreCase = true
			}
			pat, err = pattern.Compile(src, opts)
		}
		if err != nil {
			errs.Add(err.Error(), ps.Span)
			return nil, false
		}
		if pat.HasAssertion() {
			errs.Add("zero-width assertions (anchors, word boundaries) are not supported", ps.Span)
			return nil, false
		}
		if pat.CheckGreedyAll() && !allowGreedy {
			errs.Add("greedy unbounded '.' repetition is rejected unless allow_greedy is set", ps.Span)
			return nil, false
		}
		return pat, true
	}

	for _, tr := range rs.Tokens {
		pat, ok := compileRule(tr.Pattern, tr.Ignore, tr.AllowGreedy)
		if !ok {
			continue
		}
		priority := pat.Priority()
		if tr.HasPriority {
			priority = tr.Priority
		}
		vk := leaf.VariantUnit
		if tr.ValueType != "" {
			vk = leaf.VariantValue
		}
		leaves.Push(leaf.Leaf{
			Name:        tr.VariantName,
			Pattern:     pat,
			Priority:    priority,
			VariantKind: vk,
			ValueType:   tr.ValueType,
			Callback:    convertCallback(tr.Callback),
			Span:        leaf.Span{Start: tr.Span.Start, End: tr.Span.End},
		})
	}

	for _, sr := range rs.Skips {
		pat, ok := compileRule(sr.Pattern, sr.Ignore, sr.AllowGreedy)
		if !ok {
			continue
		}
		priority := pat.Priority()
		if sr.HasPriority {
			priority = sr.Priority
		}
		leaves.Push(leaf.Leaf{
			Pattern:     pat,
			Priority:    priority,
			VariantKind: leaf.VariantSkip,
			Callback:    convertCallback(sr.Callback),
			Span:        leaf.Span{Start: sr.Span.Start, End: sr.Span.End},
		})
	}

	if errs.Len() > 0 {
		return nil, &errs
	}

	if idx := leaf.BuildLiteralIndex(leaves); idx != nil {
		conflicts, err := idx.Conflicts()
		if err != nil {
			errs.Add(err.Error(), ruleset.Span{})
		}
		for _, c := range conflicts {
			errs.Add(fmt.Sprintf("leaf %d's literal is shadowed by leaf %d's literal at equal priority", c.Inner, c.Outer), ruleset.Span{})
		}
	}

	inputs := make([]nfa.PatternInput, 0, leaves.Len())
	for _, e := range leaves.All() {
		m, err := mir.FromSyntax(e.Leaf.Pattern.Regexp())
		if err != nil {
			errs.Add(err.Error(), ruleset.Span{Start: e.Leaf.Span.Start, End: e.Leaf.Span.End})
			continue
		}
		inputs = append(inputs, nfa.PatternInput{Mir: m, LeafID: uint32(e.ID)})
	}
	if errs.Len() > 0 {
		return nil, &errs
	}

	compilerConfig := nfa.DefaultCompilerConfig()
	compilerConfig.UTF8Mode = rs.Options.UTF8Mode
	compiler := nfa.NewCompiler(compilerConfig)
	builtNFA, err := compiler.CompileMany(inputs)
	if err != nil {
		errs.Add(err.Error(), ruleset.Span{})
		return nil, &errs
	}

	dense := dfa.Minimize(dfa.Build(builtNFA))

	g := graph.Build(dense, leaves, graph.Config{
		PrioOverLength: rs.Options.PrioOverLength,
	})
	for _, de := range g.Errors() {
		e := de
		errs.Add(e.Error(), ruleset.Span{})
	}
	if errs.Len() > 0 {
		return nil, &errs
	}

	if rs.Options.GraphExportPath != "" {
		out := g.DOT()
		if rs.Options.GraphExportMermaid {
			out = g.Mermaid()
		}
		if werr := os.WriteFile(rs.Options.GraphExportPath, []byte(out), 0o644); werr != nil {
			errs.Add(fmt.Sprintf("writing graph export: %s", werr), ruleset.Span{})
			return nil, &errs
		}
	}

	src, genErr := codegen.Generate(g, codegen.Options{
		PackageName:        rs.Options.PackageName,
		TokenTypeName:      rs.Options.TokenTypeName,
		ErrorTypeName:      rs.Options.ErrorTypeName,
		ExtrasTypeName:     rs.Options.ExtrasTypeName,
		ErrorCallbackLabel: rs.Options.ErrorCallbackLabel,
		BytesSource:        rs.Options.Source == ruleset.SourceBytes,
	})
	if genErr != nil {
		errs.Add(genErr.Error(), ruleset.Span{})
		return nil, &errs
	}

	return &Result{Source: src, Graph: g, Leaves: leaves}, nil
}

func convertCallback(cb *ruleset.Callback) *leaf.Callback {
	if cb == nil {
		return nil
	}
	if cb.IsInline {
		return &leaf.Callback{Kind: leaf.CallbackInline, InlineArg: cb.InlineArg, InlineBody: cb.InlineBody}
	}
	return &leaf.Callback{Kind: leaf.CallbackLabel, Label: cb.Label}
}

// compileLiteralWithIgnore builds a literal Pattern, applying ASCII case
// folding by expanding every ASCII letter into a two-element class before
// handing the result to the regex parser (ignore(ascii_case) can't be
// applied to a literal-origin Pattern post hoc, since CompileLiteral
// bypasses the regex parser entirely).
func compileLiteralWithIgnore(value []byte, ignore ruleset.IgnoreCase) *pattern.Pattern {
	if ignore == ruleset.IgnoreCaseNone {
		return pattern.CompileLiteral(value)
	}
	// Route through pattern.Compile instead, since case folding needs the
	// regex engine's class/fold machinery either way.
	escaped := asciiCaseFoldLiteral(value, ignore)
	opts := pattern.Options{}
	if ignore == ruleset.IgnoreCaseUnicode {
		opts.IgnoreCase = true
	}
	pat, err := pattern.Compile(escaped, opts)
	if err != nil {
		// Falls back to the verbatim literal; Build's caller already
		// surfaces pattern.Compile errors for the regex path, and a
		// malformed literal escape here is a lexforge bug, not a user
		// error, so there is nothing useful to report per-rule.
		return pattern.CompileLiteral(value)
	}
	return pat
}

// asciiCaseFoldLiteral quotes every byte of value as a regex literal,
// expanding ASCII letters into a same-case class.
func asciiCaseFoldLiteral(value []byte, ignore ruleset.IgnoreCase) string {
	var b []byte
	for _, c := range value {
		if ignore == ruleset.IgnoreCaseASCII && isASCIILetter(c) {
			lo, up := toLowerByte(c), toUpperByte(c)
			b = append(b, '[', lo, up, ']')
			continue
		}
		b = append(b, quoteMetaByte(c)...)
	}
	return string(b)
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func toLowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}

func toUpperByte(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

func quoteMetaByte(c byte) []byte {
	switch c {
	case '\\', '.', '+', '*', '?', '(', ')', '|', '[', ']', '{', '}', '^', '$':
		return []byte{'\\', c}
	default:
		return []byte{c}
	}
}
