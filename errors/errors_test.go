package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "phase_and_kind",
			err:  &Error{Phase: PhaseAccess, Kind: KindOutOfBounds},
			want: []string{"[access]", "out_of_bounds"},
		},
		{
			name: "with_location",
			err:  OutOfBounds(PhaseAccess, 0x10, 8, 16),
			want: []string{"[access]", "0x10", "+8", "buffer length 16"},
		},
		{
			name: "with_arena",
			err:  LocationMismatch("arena-a", "arena-b"),
			want: []string{"location_mismatch", "arena-a", "arena-b"},
		},
		{
			name: "with_cause",
			err:  Wrap(PhaseAlloc, KindAllocation, fmt.Errorf("exhausted"), "free failed"),
			want: []string{"[alloc]", "caused by: exhausted", "free failed"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.err.Error()
			for _, frag := range tc.want {
				if !strings.Contains(got, frag) {
					t.Errorf("message %q missing %q", got, frag)
				}
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	oob := OutOfBounds(PhaseAccess, 0, 4, 2)
	if !stderrors.Is(oob, &Error{Phase: PhaseAccess, Kind: KindOutOfBounds}) {
		t.Error("expected match on same phase and kind")
	}
	if stderrors.Is(oob, &Error{Phase: PhaseAlloc, Kind: KindOutOfBounds}) {
		t.Error("unexpected match across phases")
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := New(PhaseAlloc, KindAllocation).Cause(cause).Detail("alloc %d", 64).Build()
	if !stderrors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
	if err.Detail != "alloc 64" {
		t.Errorf("detail = %q", err.Detail)
	}
}

func TestBuilderLocation(t *testing.T) {
	err := New(PhaseAccess, KindMisaligned).Ptr(0x7).Size(4).Arena("a1").Build()
	if !err.HasLoc {
		t.Fatal("expected location to be recorded")
	}
	if !strings.Contains(err.Error(), "arena=a1") {
		t.Errorf("message %q missing arena", err.Error())
	}
}
