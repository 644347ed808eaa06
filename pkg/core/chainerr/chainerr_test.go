package chainerr

import (
	"errors"
	"testing"
)

func TestJoinOrderPreservingAndSemicolonSeparated(t *testing.T) {
	err := Join(New("first"), nil, errors.New("second"), New("third"))
	if err == nil {
		t.Fatal("Join() = nil, want non-nil")
	}
	want := "first; second; third"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestJoinFlattensNestedValidationErrors(t *testing.T) {
	inner := Join(New("a"), New("b"))
	outer := Join(inner, New("c"))
	want := "a; b; c"
	if outer.Error() != want {
		t.Errorf("Error() = %q, want %q", outer.Error(), want)
	}
}

func TestJoinAllNilReturnsNil(t *testing.T) {
	if err := Join(nil, nil); err != nil {
		t.Errorf("Join(nil, nil) = %v, want nil", err)
	}
	if err := Join(); err != nil {
		t.Errorf("Join() = %v, want nil", err)
	}
}
