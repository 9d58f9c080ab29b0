package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMatchesSentinelByCategory(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("remove action: %w", New(NotFound, "action \"x\" is not registered"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(%v, ErrNotFound) = false, want true", err)
	}
	if errors.Is(err, ErrEmpty) {
		t.Fatalf("errors.Is(%v, ErrEmpty) = true, want false", err)
	}
}

func TestCategoryOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain", err: errors.New("boom"), want: ""},
		{name: "categorized", err: Newf(InvalidPath, "segment %q", "a"), want: InvalidPath},
		{name: "wrapped", err: fmt.Errorf("walk: %w", ErrEmpty), want: Empty},
	}

	for _, tc := range tests {
		if got := CategoryOf(tc.err); got != tc.want {
			t.Fatalf("%s: CategoryOf = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestErrorString(t *testing.T) {
	t.Parallel()

	if got := New(DuplicateName, "").Error(); got != DuplicateName {
		t.Fatalf("Error() = %q, want %q", got, DuplicateName)
	}
	if got := New(DuplicateName, "action \"a\"").Error(); got != "duplicate_name: action \"a\"" {
		t.Fatalf("Error() = %q", got)
	}
	if got := DetailOf(fmt.Errorf("x: %w", New(Empty, "queue is drained"))); got != "queue is drained" {
		t.Fatalf("DetailOf = %q, want %q", got, "queue is drained")
	}
}
