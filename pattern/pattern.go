// Package pattern compiles a single rule's source text — either a literal
// string/byte-string or a regular expression — into a Pattern: a parsed
// regexp/syntax AST plus the metadata the rest of the pipeline needs
// (original source for diagnostics, and a structurally-computed priority).
package pattern

import (
	"fmt"
	"regexp/syntax"
	"unicode/utf8"
)

// Origin records whether a Pattern was built from a literal or a regex,
// purely for diagnostic rendering.
type Origin int

const (
	// OriginRegex marks a pattern parsed from regex source.
	OriginRegex Origin = iota
	// OriginLiteral marks a pattern built directly from literal bytes,
	// bypassing the regex parser entirely.
	OriginLiteral
)

// Pattern is a compiled rule pattern: the original source (for error
// messages), whether it came from a literal or a regex, and the parsed
// syntax tree used for NFA compilation.
type Pattern struct {
	origin Origin
	source string
	re     *syntax.Regexp
}

// Options controls how regex source is parsed.
type Options struct {
	// IgnoreCase folds case for the entire pattern.
	IgnoreCase bool
}

// Error is returned when a pattern fails to compile. It carries the
// original source text so the caller can produce a source-span diagnostic.
type Error struct {
	Source string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("pattern %q: %s", e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// zeroWidthError is returned by Compile/CompileLiteral when the pattern can
// match the empty string.
type zeroWidthError struct{}

func (zeroWidthError) Error() string { return "pattern can match an empty (zero-width) string" }

// nonGreedyError is returned when a repetition is explicitly non-greedy.
type nonGreedyError struct{}

func (nonGreedyError) Error() string { return "non-greedy repetition is not supported" }

// Compile parses regex source into a Pattern.
//
// UTF-8-validity checking at the parser level is intentionally left on
// (regexp/syntax always validates UTF-8 in pattern source itself — unlike
// the Rust regex-syntax crate, Go's parser has no "allow invalid UTF-8"
// knob for the *pattern text*). Whether the resulting Pattern ultimately
// matches Unicode code points or raw bytes is decided later, at NFA
// compile time, by nfa.CompilerConfig.UTF8Mode — Compile itself only
// parses syntax.
func Compile(source string, opts Options) (*Pattern, error) {
	flags := syntax.Perl
	if opts.IgnoreCase {
		flags |= syntax.FoldCase
	}

	re, err := syntax.Parse(source, flags)
	if err != nil {
		return nil, &Error{Source: source, Err: err}
	}
	re = re.Simplify()

	if matchesEmpty(re) {
		return nil, &Error{Source: source, Err: zeroWidthError{}}
	}
	if hasNonGreedy(re) {
		return nil, &Error{Source: source, Err: nonGreedyError{}}
	}

	return &Pattern{origin: OriginRegex, source: source, re: re}, nil
}

// CompileLiteral builds a Pattern directly from literal bytes, bypassing
// the regex parser so that arbitrary bytes (including ones that would need
// regex escaping) are matched verbatim.
func CompileLiteral(value []byte) *Pattern {
	runes := make([]rune, 0, len(value))
	if utf8.Valid(value) {
		for _, r := range string(value) {
			runes = append(runes, r)
		}
	} else {
		// Not valid UTF-8: fall back to one pseudo-rune per byte so the
		// Literal op still round-trips through syntax.Regexp's []rune form.
		for _, b := range value {
			runes = append(runes, rune(b))
		}
	}
	re := &syntax.Regexp{
		Op:   syntax.OpLiteral,
		Rune: runes,
	}
	return &Pattern{
		origin: OriginLiteral,
		source: string(value),
		re:     re,
	}
}

// Source returns the original source text (for literals, the literal bytes
// as a string; for regexes, the regex source).
func (p *Pattern) Source() string { return p.source }

// IsLiteral reports whether this pattern was built via CompileLiteral.
func (p *Pattern) IsLiteral() bool { return p.origin == OriginLiteral }

// Regexp returns the parsed syntax tree.
func (p *Pattern) Regexp() *syntax.Regexp { return p.re }

// Priority computes the default structural priority of the pattern,
// matching spec.md §3: literal bytes contribute 2 per byte (2 per
// codepoint for UTF-8 literals), character classes contribute 2,
// repetitions contribute min_count * child, alternations take the minimum
// child priority, concatenation sums children, and empty/assertions
// contribute 0.
func (p *Pattern) Priority() int {
	return complexity(p.re)
}

func complexity(re *syntax.Regexp) int {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpBeginLine, syntax.OpEndLine,
		syntax.OpBeginText, syntax.OpEndText, syntax.OpWordBoundary,
		syntax.OpNoWordBoundary:
		return 0
	case syntax.OpLiteral:
		return 2 * len(re.Rune)
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return 2
	case syntax.OpRepeat:
		return re.Min * complexity(re.Sub[0])
	case syntax.OpStar, syntax.OpQuest:
		return 0
	case syntax.OpPlus:
		return complexity(re.Sub[0])
	case syntax.OpCapture:
		return complexity(re.Sub[0])
	case syntax.OpConcat:
		sum := 0
		for _, s := range re.Sub {
			sum += complexity(s)
		}
		return sum
	case syntax.OpAlternate:
		if len(re.Sub) == 0 {
			return 0
		}
		min := complexity(re.Sub[0])
		for _, s := range re.Sub[1:] {
			if c := complexity(s); c < min {
				min = c
			}
		}
		return min
	default:
		return 0
	}
}

// CheckGreedyAll reports whether the pattern contains a greedy, unbounded
// "any character" repetition (".+" or ".*" in any dot form) anywhere in its
// tree. Such patterns match nearly all input and are rejected unless the
// rule opts in via allow_greedy.
func (p *Pattern) CheckGreedyAll() bool {
	return hasGreedyAll(p.re)
}

func hasGreedyAll(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus:
		sub := re.Sub[0]
		isDot := sub.Op == syntax.OpAnyChar || sub.Op == syntax.OpAnyCharNotNL
		if isDot && (re.Flags&syntax.NonGreedy) == 0 {
			return true
		}
		return hasGreedyAll(sub)
	case syntax.OpRepeat:
		if re.Max == -1 {
			sub := re.Sub[0]
			isDot := sub.Op == syntax.OpAnyChar || sub.Op == syntax.OpAnyCharNotNL
			if isDot && (re.Flags&syntax.NonGreedy) == 0 {
				return true
			}
		}
		return hasGreedyAll(re.Sub[0])
	case syntax.OpCapture, syntax.OpQuest:
		return hasGreedyAll(re.Sub[0])
	case syntax.OpConcat, syntax.OpAlternate:
		for _, s := range re.Sub {
			if hasGreedyAll(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func matchesEmpty(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return true
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		// Zero-width assertions: rejected separately by the caller's
		// assertion check, but they do technically match empty.
		return true
	case syntax.OpLiteral:
		return len(re.Rune) == 0
	case syntax.OpCharClass, syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		return false
	case syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpPlus:
		return matchesEmpty(re.Sub[0])
	case syntax.OpRepeat:
		return re.Min == 0 || matchesEmpty(re.Sub[0])
	case syntax.OpCapture:
		return matchesEmpty(re.Sub[0])
	case syntax.OpConcat:
		for _, s := range re.Sub {
			if !matchesEmpty(s) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, s := range re.Sub {
			if matchesEmpty(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func hasNonGreedy(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		if re.Flags&syntax.NonGreedy != 0 {
			return true
		}
		return hasNonGreedy(re.Sub[0])
	case syntax.OpCapture:
		return hasNonGreedy(re.Sub[0])
	case syntax.OpConcat, syntax.OpAlternate:
		for _, s := range re.Sub {
			if hasNonGreedy(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// HasAssertion reports whether the pattern contains a zero-width assertion
// (anchors or word boundaries), which this spec rejects (Non-goals, §1).
func (p *Pattern) HasAssertion() bool {
	return hasAssertion(p.re)
}

func hasAssertion(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat, syntax.OpCapture:
		return hasAssertion(re.Sub[0])
	case syntax.OpConcat, syntax.OpAlternate:
		for _, s := range re.Sub {
			if hasAssertion(s) {
				return true
			}
		}
		return false
	default:
		return false
	}
}
