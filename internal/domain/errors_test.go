package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestNetworkError(t *testing.T) {
	baseErr := errors.New("connection refused")

	t.Run("retriable error", func(t *testing.T) {
		err := NewNetworkError("connect", baseErr)

		if !err.IsRetriable() {
			t.Error("Expected error to be retriable")
		}

		if err.Error() != "connect: connection refused" {
			t.Errorf("Error message = %q, want %q", err.Error(), "connect: connection refused")
		}

		if !errors.Is(err, baseErr) {
			t.Error("Expected error to wrap baseErr")
		}
	})

	t.Run("fatal error", func(t *testing.T) {
		err := NewFatalNetworkError("send", baseErr)

		if err.IsRetriable() {
			t.Error("Expected error to not be retriable")
		}
	})

	t.Run("IsRetriable helper", func(t *testing.T) {
		retriable := NewNetworkError("dial", baseErr)
		fatal := NewFatalNetworkError("receive", baseErr)
		plain := errors.New("plain error")
		wrapped := fmt.Errorf("client 3: %w", retriable)

		if !IsRetriable(retriable) {
			t.Error("IsRetriable should return true for retriable error")
		}

		if !IsRetriable(wrapped) {
			t.Error("IsRetriable should see through fmt wrapping")
		}

		if IsRetriable(fatal) {
			t.Error("IsRetriable should return false for fatal error")
		}

		if IsRetriable(plain) {
			t.Error("IsRetriable should return false for plain error")
		}
	})
}

func TestConfigError(t *testing.T) {
	err := &ConfigError{Field: "client.num_clients", Err: ErrInvalidArgument}

	if err.IsRetriable() {
		t.Error("ConfigError should never be retriable")
	}

	expected := "config error [client.num_clients]: invalid argument"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if !errors.Is(err, ErrInvalidArgument) {
		t.Error("Expected ConfigError to unwrap to ErrInvalidArgument")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	sentinels := []error{
		ErrSourceUnavailable,
		ErrRange,
		ErrInvalidCatalog,
		ErrInvalidArgument,
		ErrAllocation,
		ErrPack,
		ErrConnectionFailed,
		ErrNotConnected,
		ErrTimeout,
		ErrStopped,
		ErrConfigNotFound,
	}

	for i, target := range sentinels {
		t.Run(target.Error(), func(t *testing.T) {
			wrapped := fmt.Errorf("client 2: %w", fmt.Errorf("packet 17: %w", target))
			if !errors.Is(wrapped, target) {
				t.Errorf("errors.Is lost %v through wrapping", target)
			}
			for j, other := range sentinels {
				if j != i && errors.Is(wrapped, other) {
					t.Errorf("%v also matches %v", target, other)
				}
			}
		})
	}
}

func TestNetworkErrorCarriesSentinel(t *testing.T) {
	err := fmt.Errorf("updater-0: %w", NewNetworkError("receive", fmt.Errorf("%w after 5s", ErrTimeout)))

	var netErr *NetworkError
	if !errors.As(err, &netErr) || netErr.Op != "receive" {
		t.Fatalf("expected receive NetworkError, got %v", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Error("timeout sentinel should be reachable through NetworkError")
	}
	if errors.Is(err, ErrPack) || errors.Is(err, ErrAllocation) {
		t.Error("unrelated sentinels must not match")
	}
	if !IsRetriable(err) {
		t.Error("receive timeout should be retriable")
	}
}
