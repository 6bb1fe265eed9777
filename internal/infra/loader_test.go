package infra

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"chronos_client/internal/domain"
)

func writeSymbols(t *testing.T, content string) string {
	t.Helper()
	home := t.TempDir()
	dir := filepath.Join(home, "data")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "symbols.txt"), []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return home
}

func TestFileLoader(t *testing.T) {
	home := writeSymbols(t, "# NYSE sample\nIBM  International Business Machines\n\n  AAPL\nMSFT\tMicrosoft\nORCL\n")
	loader := NewFileLoader("")

	t.Run("parses tokens and skips comments", func(t *testing.T) {
		got, err := loader.LoadSymbols(home, "data", 10)
		if err != nil {
			t.Fatalf("LoadSymbols failed: %v", err)
		}
		want := []string{"IBM", "AAPL", "MSFT", "ORCL"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("stops at maxCount", func(t *testing.T) {
		got, err := loader.LoadSymbols(home, "data", 2)
		if err != nil {
			t.Fatalf("LoadSymbols failed: %v", err)
		}
		if len(got) != 2 || got[1] != "AAPL" {
			t.Errorf("got %v, want [IBM AAPL]", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.LoadSymbols(t.TempDir(), "data", 10)
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestCalculateBackoff(t *testing.T) {
	testCases := []struct {
		attempt int
		want    time.Duration
	}{
		{-1, 200 * time.Millisecond},
		{0, 200 * time.Millisecond},
		{1, 400 * time.Millisecond},
		{3, 1600 * time.Millisecond},
		{5, 6400 * time.Millisecond},
		{6, BackoffMax},
		{40, BackoffMax},
	}

	for _, tc := range testCases {
		if got := CalculateBackoff(tc.attempt); got != tc.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tc.attempt, got, tc.want)
		}
	}
}
