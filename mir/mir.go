// Package mir canonicalizes a regexp/syntax.Regexp tree into a small closed
// sum type before NFA compilation, per spec.md §2 step 2 and §9 ("Cyclic
// references" / grounded on original_source's logos-codegen/src/mir.rs).
//
// The point of this extra pass is the same one the original makes: collapse
// every repetition shape (bounded, unbounded, exact-N) down to three
// primitives (Loop, Maybe, Concat-of-copies) so the NFA compiler never has
// to re-derive repetition bounds, and flatten nested Concat nodes so later
// passes don't need to recurse through them.
package mir

import (
	"fmt"
	"regexp/syntax"
)

// Kind discriminates the Mir sum type.
type Kind int

const (
	KindEmpty Kind = iota
	KindLoop
	KindMaybe
	KindConcat
	KindAlternation
	KindClass
	KindLiteral
)

// Mir is the canonical regex intermediate representation. Exactly one of
// the fields relevant to Kind is populated:
//
//	KindLoop, KindMaybe  -> Sub[0]
//	KindConcat           -> Sub
//	KindAlternation      -> Sub
//	KindClass            -> Ranges (inclusive rune ranges, lo<=hi, sorted)
//	KindLiteral          -> Runes
type Mir struct {
	Kind   Kind
	Sub    []*Mir
	Ranges []RuneRange
	Runes  []rune
}

// RuneRange is an inclusive [Lo, Hi] rune range.
type RuneRange struct {
	Lo, Hi rune
}

// Error reports a pattern that cannot be represented in Mir.
type Error struct {
	Msg string
}

func (e *Error) Error() string { return e.Msg }

// FromSyntax converts a parsed regexp/syntax.Regexp into a Mir tree.
// Non-greedy repetitions and zero-width assertions are rejected (they
// should already have been rejected by pattern.Compile, but this is
// defense in depth since Mir may also be built directly in tests).
func FromSyntax(re *syntax.Regexp) (*Mir, error) {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return &Mir{Kind: KindEmpty}, nil

	case syntax.OpBeginLine, syntax.OpEndLine, syntax.OpBeginText, syntax.OpEndText,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return nil, &Error{Msg: "zero-width assertions are not supported"}

	case syntax.OpLiteral:
		runes := make([]rune, len(re.Rune))
		copy(runes, re.Rune)
		return &Mir{Kind: KindLiteral, Runes: runes}, nil

	case syntax.OpCharClass:
		ranges := make([]RuneRange, 0, len(re.Rune)/2)
		for i := 0; i+1 < len(re.Rune); i += 2 {
			ranges = append(ranges, RuneRange{Lo: re.Rune[i], Hi: re.Rune[i+1]})
		}
		return &Mir{Kind: KindClass, Ranges: ranges}, nil

	case syntax.OpAnyChar:
		return &Mir{Kind: KindClass, Ranges: []RuneRange{{Lo: 0, Hi: 0x10FFFF}}}, nil

	case syntax.OpAnyCharNotNL:
		return &Mir{Kind: KindClass, Ranges: []RuneRange{
			{Lo: 0, Hi: '\n' - 1},
			{Lo: '\n' + 1, Hi: 0x10FFFF},
		}}, nil

	case syntax.OpCapture:
		return FromSyntax(re.Sub[0])

	case syntax.OpConcat:
		out := make([]*Mir, 0, len(re.Sub))
		for _, s := range re.Sub {
			m, err := FromSyntax(s)
			if err != nil {
				return nil, err
			}
			extendConcat(m, &out)
		}
		return &Mir{Kind: KindConcat, Sub: out}, nil

	case syntax.OpAlternate:
		out := make([]*Mir, 0, len(re.Sub))
		for _, s := range re.Sub {
			m, err := FromSyntax(s)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		}
		return &Mir{Kind: KindAlternation, Sub: out}, nil

	case syntax.OpStar:
		if re.Flags&syntax.NonGreedy != 0 {
			return nil, &Error{Msg: "non-greedy repetition is not supported"}
		}
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return &Mir{Kind: KindLoop, Sub: []*Mir{sub}}, nil

	case syntax.OpPlus:
		if re.Flags&syntax.NonGreedy != 0 {
			return nil, &Error{Msg: "non-greedy repetition is not supported"}
		}
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return &Mir{Kind: KindConcat, Sub: []*Mir{sub, {Kind: KindLoop, Sub: []*Mir{sub}}}}, nil

	case syntax.OpQuest:
		if re.Flags&syntax.NonGreedy != 0 {
			return nil, &Error{Msg: "non-greedy repetition is not supported"}
		}
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return &Mir{Kind: KindMaybe, Sub: []*Mir{sub}}, nil

	case syntax.OpRepeat:
		if re.Flags&syntax.NonGreedy != 0 {
			return nil, &Error{Msg: "non-greedy repetition is not supported"}
		}
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return repeatRange(sub, re.Min, re.Max), nil

	default:
		return nil, &Error{Msg: fmt.Sprintf("unsupported regex construct: op=%v", re.Op)}
	}
}

// extendConcat flattens nested Concat nodes into out, matching mir.rs's
// local `extend` helper.
func extendConcat(m *Mir, out *[]*Mir) {
	if m.Kind == KindConcat {
		for _, child := range m.Sub {
			extendConcat(child, out)
		}
		return
	}
	*out = append(*out, m)
}

// repeatRange expands a {n}, {n,}, or {n,m} repetition into Concat/Loop/Maybe
// combinations, matching mir.rs's RepetitionRange handling.
func repeatRange(sub *Mir, min, max int) *Mir {
	if max == -1 {
		// {n,}: n copies followed by a Loop.
		out := make([]*Mir, 0, min+1)
		for i := 0; i < min; i++ {
			out = append(out, cloneMir(sub))
		}
		out = append(out, &Mir{Kind: KindLoop, Sub: []*Mir{sub}})
		return &Mir{Kind: KindConcat, Sub: out}
	}
	if min == max {
		// {n}: n copies.
		out := make([]*Mir, 0, min)
		for i := 0; i < min; i++ {
			out = append(out, cloneMir(sub))
		}
		return &Mir{Kind: KindConcat, Sub: out}
	}
	// {n,m}: n copies, then (m-n) Maybe-wrapped copies.
	out := make([]*Mir, 0, max)
	for i := 0; i < min; i++ {
		out = append(out, cloneMir(sub))
	}
	for i := min; i < max; i++ {
		out = append(out, &Mir{Kind: KindMaybe, Sub: []*Mir{cloneMir(sub)}})
	}
	return &Mir{Kind: KindConcat, Sub: out}
}

func cloneMir(m *Mir) *Mir {
	clone := &Mir{Kind: m.Kind}
	if m.Ranges != nil {
		clone.Ranges = append([]RuneRange(nil), m.Ranges...)
	}
	if m.Runes != nil {
		clone.Runes = append([]rune(nil), m.Runes...)
	}
	for _, s := range m.Sub {
		clone.Sub = append(clone.Sub, cloneMir(s))
	}
	return clone
}

// IsAlwaysUTF8 reports whether every literal rune in m is a Unicode scalar
// value (at most 0x10FFFF and not a surrogate) and every class range ends
// at or below 0x10FFFF, which is what coregex's own UTF8 NFA mode assumes.
// Class ranges are not checked for surrogates.
func IsAlwaysUTF8(m *Mir) bool {
	switch m.Kind {
	case KindLiteral:
		for _, r := range m.Runes {
			if r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
				return false
			}
		}
		return true
	case KindClass:
		for _, rg := range m.Ranges {
			if rg.Hi > 0x10FFFF {
				return false
			}
		}
		return true
	case KindLoop, KindMaybe:
		return IsAlwaysUTF8(m.Sub[0])
	case KindConcat, KindAlternation:
		for _, s := range m.Sub {
			if !IsAlwaysUTF8(s) {
				return false
			}
		}
		return true
	default:
		return true
	}
}
