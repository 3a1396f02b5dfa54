package nosql

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorKindsMatchOneSentinel(t *testing.T) {
	vendor := errors.New("dial tcp 10.0.0.1:6379: connection refused")
	cases := []struct {
		name string
		err  error
		kind error
	}{
		{"configuration", NewConfigurationError("redis", "host", "required"), ErrConfiguration},
		{"connection", NewConnectionError("redis", vendor), ErrConnection},
		{"not found", NewKeyNotFoundError("user:1"), ErrKeyNotFound},
		{"operation", NewOperationFailedError("redis", "set", "k", vendor), ErrOperationFailed},
	}
	kinds := []error{ErrConfiguration, ErrConnection, ErrKeyNotFound, ErrOperationFailed}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, k := range kinds {
				if got := errors.Is(tc.err, k); got != (k == tc.kind) {
					t.Fatalf("errors.Is(%v, %v) = %v", tc.err, k, got)
				}
			}
			// wrapping by callers keeps the kind visible
			if !errors.Is(fmt.Errorf("load profile: %w", tc.err), tc.kind) {
				t.Fatalf("kind lost through wrapping")
			}
		})
	}
}

func TestVendorErrorsDoNotLeak(t *testing.T) {
	vendor := errors.New("NOAUTH Authentication required")
	err := NewConnectionError("redis", vendor)
	if errors.Is(err, vendor) {
		t.Fatalf("vendor error must not be reachable through the chain")
	}
	if !strings.Contains(err.Error(), "NOAUTH") {
		t.Fatalf("vendor message must survive: %q", err.Error())
	}

	op := NewOperationFailedError("bolt", "flush", "", vendor)
	if errors.Is(op, vendor) || !strings.Contains(op.Error(), "flush failed") {
		t.Fatalf("operation error: %q", op.Error())
	}
	if NewOperationFailedError("x", "get", "k", nil).Message != "unknown error" {
		t.Fatalf("nil cause should read as unknown error")
	}
}

func TestErrorsAsFields(t *testing.T) {
	var kerr *KeyNotFoundError
	if !errors.As(fmt.Errorf("wrap: %w", NewKeyNotFoundError("k")), &kerr) || kerr.Key != "k" {
		t.Fatalf("errors.As KeyNotFoundError")
	}
	if !IsKeyNotFound(kerr) || IsKeyNotFound(errors.New("k")) {
		t.Fatalf("IsKeyNotFound")
	}

	var cerr *ConfigurationError
	if !errors.As(NewConfigurationError("couchbase", "bucket", "name required"), &cerr) || cerr.Field != "bucket" {
		t.Fatalf("errors.As ConfigurationError")
	}

	closed := &ConnectionError{Err: ErrManagerClosed}
	if !errors.Is(closed, ErrManagerClosed) || closed.Error() != "nosql: connection: connection manager closed" {
		t.Fatalf("manager-owned cause: %q", closed.Error())
	}
}
