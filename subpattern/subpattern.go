// Package subpattern expands named subpattern references, (?&name), inside
// rule pattern sources, per spec.md §4.2.
package subpattern

import (
	"fmt"
	"regexp"

	"github.com/coregx/lexforge/pattern"
	"github.com/coregx/lexforge/simd"
)

var (
	nameRe = regexp.MustCompile(`^[0-9a-zA-Z_]+$`)
	refRe  = regexp.MustCompile(`\(\?&[0-9a-zA-Z_]+\)`)
)

// Definition is one (?logos(subpattern name = "regex")) declaration, kept
// in the order it was declared.
type Definition struct {
	Name   string
	Source string
	Span   Span
}

// Span is a byte range over the rule-set source used purely for
// diagnostics; it carries no semantics of its own.
type Span struct {
	Start, End int
}

// Error reports one subpattern-resolution failure with the span of the
// offending definition or reference.
type Error struct {
	Message string
	Span    Span
}

func (e *Error) Error() string { return e.Message }

// Resolver builds up a name -> expanded-source table by resolving each
// Definition in declaration order, allowing later definitions to reference
// earlier ones (forward references are rejected).
type Resolver struct {
	utf8Mode bool
	resolved map[string]string
	order    []string
}

// New creates a Resolver. utf8Mode mirrors graph.Config.UTF8Mode: when set,
// every subpattern is independently checked for always-valid-UTF-8
// properties, matching original_source's parser/subpattern.rs guard.
func New(utf8Mode bool) *Resolver {
	return &Resolver{utf8Mode: utf8Mode, resolved: make(map[string]string)}
}

// Define resolves one subpattern definition against previously-defined
// subpatterns and adds it to the table. Errors are returned rather than
// accumulated, so the caller decides whether to keep going (matching the
// "accumulate, don't short-circuit" policy at the ruleset level, not here).
func (r *Resolver) Define(def Definition) error {
	if !nameRe.MatchString(def.Name) {
		return &Error{Message: fmt.Sprintf("invalid subpattern name: %q", def.Name), Span: def.Span}
	}
	if _, exists := r.resolved[def.Name]; exists {
		return &Error{Message: fmt.Sprintf("subpattern %q already exists", def.Name), Span: def.Span}
	}

	expanded, err := r.Substitute(def.Source, def.Span)
	if err != nil {
		return err
	}
	wrapped := fmt.Sprintf("(?:%s)", expanded)

	pat, err := pattern.Compile(wrapped, pattern.Options{})
	if err != nil {
		return &Error{Message: err.Error(), Span: def.Span}
	}
	if r.utf8Mode && !alwaysValidUTF8(pat) {
		return &Error{
			Message: fmt.Sprintf(
				"UTF-8 mode is requested, but subpattern %q = %q can match invalid UTF-8",
				def.Name, def.Source),
			Span: def.Span,
		}
	}

	r.resolved[def.Name] = wrapped
	r.order = append(r.order, def.Name)
	return nil
}

// Substitute replaces every (?&name) reference in pattern with the
// already-resolved expansion for name. Unknown names are reported as
// errors; span is attached to the whole pattern since the original
// per-reference span isn't tracked past this entry point.
func (r *Resolver) Substitute(src string, span Span) (string, error) {
	var missing []string
	out := refRe.ReplaceAllStringFunc(src, func(m string) string {
		name := m[3 : len(m)-1] // strip "(?&" and ")"
		expansion, ok := r.resolved[name]
		if !ok {
			missing = append(missing, name)
			return m
		}
		return expansion
	})
	if len(missing) > 0 {
		return "", &Error{
			Message: fmt.Sprintf("subpattern(s) not found: %v", missing),
			Span:    span,
		}
	}
	return out, nil
}

// alwaysValidUTF8 reports whether every byte sequence the pattern can
// produce is valid UTF-8. regexp/syntax always parses in UTF-8 mode (it has
// no "allow invalid UTF-8 bytes" knob at the pattern-text level), so a
// successfully-parsed pattern is always-valid-UTF-8 by construction; this
// exists as an explicit, named check rather than an implicit assumption so
// the UTF-8-mode contract stays visible at the call site, and to leave a
// seat for a future literal byte-string subpattern (which could smuggle
// invalid UTF-8 through CompileLiteral) to plug into.
func alwaysValidUTF8(p *pattern.Pattern) bool {
	return !p.IsLiteral() || isValidUTF8String(p.Source())
}

func isValidUTF8String(s string) bool {
	if simd.IsASCII([]byte(s)) {
		return true
	}
	for _, r := range s {
		if r == '�' {
			return false
		}
	}
	return true
}
