package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKeyErrorUnwrap(t *testing.T) {
	err := fmt.Errorf("write products: %w", NewKeyError("products", ErrClosed))

	if !IsClosed(err) {
		t.Fatalf("IsClosed(%v) = false, want true", err)
	}

	var keyErr *KeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("errors.As did not find *KeyError in %v", err)
	}
	if keyErr.Key != "products" {
		t.Errorf("Key = %q, want %q", keyErr.Key, "products")
	}
}

func TestHelpers(t *testing.T) {
	testCases := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrNotFound, IsNotFound, true},
		{"wrapped not found", fmt.Errorf("x: %w", ErrNotFound), IsNotFound, true},
		{"line not found", ErrLineNotFound, IsLineNotFound, true},
		{"invalid record", ErrInvalidRecord, IsInvalidRecord, true},
		{"serialization", ErrSerializationFailed, IsSerializationError, true},
		{"deserialization", ErrDeserializationFailed, IsSerializationError, true},
		{"unrelated", ErrKeyEmpty, IsNotFound, false},
		{"nil", nil, IsClosed, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.check(tc.err); got != tc.want {
				t.Errorf("check(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}
