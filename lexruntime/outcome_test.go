package lexruntime

import (
	"errors"
	"testing"
)

func TestFromValue_AlwaysEmits(t *testing.T) {
	o := FromValue(42)
	isEmit, _, _, _ := o.Kind()
	if !isEmit || o.Value() != 42 {
		t.Fatalf("FromValue(42) = %+v", o)
	}
}

func TestFromResult_ErrorBecomesError(t *testing.T) {
	errWant := errors.New("boom")
	o := FromResult(0, errWant)
	_, _, isError, _ := o.Kind()
	if !isError || o.Err() != errWant {
		t.Fatalf("FromResult with error = %+v", o)
	}
}

func TestFromOption_FalseBecomesDefaultError(t *testing.T) {
	o := FromOption(0, false)
	_, _, _, isDefault := o.Kind()
	if !isDefault {
		t.Fatalf("FromOption(_, false) should be DefaultError, got %+v", o)
	}
}

func TestFromFilter_FalseBecomesSkip(t *testing.T) {
	o := FromFilter(0, false)
	_, isSkip, _, _ := o.Kind()
	if !isSkip {
		t.Fatalf("FromFilter(_, false) should be Skip, got %+v", o)
	}
}

func TestFromBool_TrueEmitsUnit(t *testing.T) {
	o := FromBool(true)
	isEmit, _, _, _ := o.Kind()
	if !isEmit {
		t.Fatalf("FromBool(true) should emit, got %+v", o)
	}
}

func TestFromSkipResult(t *testing.T) {
	if FromSkipResult(nil).IsError() {
		t.Fatal("nil error should not be SkipOutcome error")
	}
	errWant := errors.New("bad escape")
	out := FromSkipResult(errWant)
	if !out.IsError() || out.Err() != errWant {
		t.Fatalf("FromSkipResult(err) = %+v", out)
	}
}
