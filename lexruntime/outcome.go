package lexruntime

// outcomeKind distinguishes the four things a leaf callback can decide to
// do once it runs.
type outcomeKind int

const (
	outcomeEmit outcomeKind = iota
	outcomeSkip
	outcomeError
	outcomeDefaultError
)

// Outcome is the normalized result of running a leaf's callback, replacing
// the Rust original's CallbackRetVal/SkipRetVal trait polymorphism with one
// generic adapter: a user callback returns an Outcome directly (built with
// Emit/Skip/Error/DefaultError or one of the From* adapters below), and the
// generated code switches on its Kind().
type Outcome[T any] struct {
	kind  outcomeKind
	value T
	err   error
}

// Emit builds an Outcome that emits v as the token's value.
func Emit[T any](v T) Outcome[T] { return Outcome[T]{kind: outcomeEmit, value: v} }

// Skip builds an Outcome that discards the current token and resumes
// scanning for the next one.
func Skip[T any]() Outcome[T] { return Outcome[T]{kind: outcomeSkip} }

// Error builds an Outcome carrying a user-supplied error.
func Error[T any](err error) Outcome[T] { return Outcome[T]{kind: outcomeError, err: err} }

// DefaultError builds an Outcome signaling the token's default error value
// should be constructed by the caller (generated code knows how).
func DefaultError[T any]() Outcome[T] { return Outcome[T]{kind: outcomeDefaultError} }

// Kind reports which of the four outcomes this is.
func (o Outcome[T]) Kind() (isEmit, isSkip, isError, isDefaultError bool) {
	return o.kind == outcomeEmit, o.kind == outcomeSkip, o.kind == outcomeError, o.kind == outcomeDefaultError
}

// Value returns the emitted value; only meaningful when Kind()'s isEmit is
// true.
func (o Outcome[T]) Value() T { return o.value }

// Err returns the carried error; only meaningful when Kind()'s isError is
// true.
func (o Outcome[T]) Err() error { return o.err }

// FromValue adapts a callback that unconditionally returns a plain value.
func FromValue[T any](v T) Outcome[T] { return Emit(v) }

// FromResult adapts a callback returning (T, error): nil error emits v,
// non-nil error becomes Error(err).
func FromResult[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Error[T](err)
	}
	return Emit(v)
}

// FromOption adapts a callback returning (T, bool): false becomes
// DefaultError, mirroring the original's Option<T> → None = default error.
func FromOption[T any](v T, ok bool) Outcome[T] {
	if !ok {
		return DefaultError[T]()
	}
	return Emit(v)
}

// FromFilter adapts a callback choosing to either emit v or skip the
// token entirely.
func FromFilter[T any](v T, emit bool) Outcome[T] {
	if !emit {
		return Skip[T]()
	}
	return Emit(v)
}

// FromFilterErr adapts a callback that can emit, skip, or fail.
func FromFilterErr[T any](v T, emit bool, err error) Outcome[T] {
	if err != nil {
		return Error[T](err)
	}
	if !emit {
		return Skip[T]()
	}
	return Emit(v)
}

// FromBool adapts a unit-variant callback returning plain bool: true
// emits the unit value, false becomes DefaultError.
func FromBool(ok bool) Outcome[struct{}] {
	if !ok {
		return DefaultError[struct{}]()
	}
	return Emit(struct{}{})
}

// SkipOutcome is the result of a Skip-rule's callback: either resume
// scanning, or fail with a user error. There is no Emit/DefaultError case
// because a skip rule never produces a token.
type SkipOutcome struct {
	isError bool
	err     error
}

// SkipOK resumes scanning past the skipped bytes.
func SkipOK() SkipOutcome { return SkipOutcome{} }

// SkipErr fails the current token with err.
func SkipErr(err error) SkipOutcome { return SkipOutcome{isError: true, err: err} }

// IsError reports whether the skip failed.
func (s SkipOutcome) IsError() bool { return s.isError }

// Err returns the carried error; only meaningful when IsError is true.
func (s SkipOutcome) Err() error { return s.err }

// FromSkipResult adapts a callback returning a plain error (nil = ok).
func FromSkipResult(err error) SkipOutcome {
	if err != nil {
		return SkipErr(err)
	}
	return SkipOK()
}
