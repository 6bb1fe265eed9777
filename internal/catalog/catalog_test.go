package catalog

import (
	"errors"
	"fmt"
	"testing"

	"chronos_client/internal/domain"
)

type sliceLoader struct {
	symbols []string
	err     error
}

func (l sliceLoader) LoadSymbols(_, _ string, maxCount int) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	if len(l.symbols) > maxCount {
		return l.symbols[:maxCount], nil
	}
	return l.symbols, nil
}

func makeSymbols(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("SYM%03d", i)
	}
	return out
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c, err := Load(sliceLoader{symbols: makeSymbols(400)}, "/home", "data", Config{})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if c.NumSymbols() != DefaultNumSymbols {
			t.Errorf("NumSymbols = %d, want %d", c.NumSymbols(), DefaultNumSymbols)
		}
		if c.NumUsers() != DefaultNumUsers {
			t.Errorf("NumUsers = %d, want %d", c.NumUsers(), DefaultNumUsers)
		}
		first, count := c.ActiveRange()
		if first != 0 || count != DefaultNumSymbols {
			t.Errorf("ActiveRange = (%d, %d), want (0, %d)", first, count, DefaultNumSymbols)
		}
	})

	t.Run("users are decimal ids from 1", func(t *testing.T) {
		c, err := Load(sliceLoader{symbols: makeSymbols(10)}, "", "", Config{NumSymbols: 10, NumUsers: 3})
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		for i, want := range []string{"1", "2", "3"} {
			got, ok := c.User(i)
			if !ok || got != want {
				t.Errorf("User(%d) = (%q, %v), want (%q, true)", i, got, ok, want)
			}
		}
	})

	t.Run("loader failure", func(t *testing.T) {
		_, err := Load(sliceLoader{err: errors.New("no such file")}, "", "", Config{})
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("short symbol list", func(t *testing.T) {
		_, err := Load(sliceLoader{symbols: makeSymbols(299)}, "", "", Config{})
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})

	t.Run("nil loader", func(t *testing.T) {
		_, err := Load(nil, "", "", Config{})
		if !errors.Is(err, domain.ErrSourceUnavailable) {
			t.Errorf("expected ErrSourceUnavailable, got %v", err)
		}
	})
}

func TestSymbolBounds(t *testing.T) {
	c, _ := New(makeSymbols(5), 2)

	testCases := []struct {
		desc   string
		index  int
		want   string
		wantOK bool
	}{
		{"first", 0, "SYM000", true},
		{"last", 4, "SYM004", true},
		{"one past the end is accepted", 5, "", true},
		{"two past the end", 6, "", false},
		{"negative", -1, "", false},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			got, ok := c.Symbol(tc.index)
			if got != tc.want || ok != tc.wantOK {
				t.Fatalf("Symbol(%d) = (%q, %v), want (%q, %v)", tc.index, got, ok, tc.want, tc.wantOK)
			}
		})
	}

	if _, ok := c.User(2); !ok {
		t.Error("User(NumUsers) should be accepted")
	}
	if _, ok := c.User(3); ok {
		t.Error("User(NumUsers+1) should be rejected")
	}
}

func TestSetActiveRange(t *testing.T) {
	const n = 20
	c, _ := New(makeSymbols(n), 5)

	t.Run("valid ranges map every index", func(t *testing.T) {
		for first := 0; first < n; first++ {
			for count := 1; first+count <= n; count++ {
				if err := c.SetActiveRange(first, count); err != nil {
					t.Fatalf("SetActiveRange(%d, %d) failed: %v", first, count, err)
				}
				for i := 0; i < count; i++ {
					idx, ok := c.MapActiveIndex(i)
					if !ok || idx != first+i {
						t.Fatalf("MapActiveIndex(%d) = (%d, %v), want (%d, true)", i, idx, ok, first+i)
					}
				}
				if _, ok := c.MapActiveIndex(count); ok {
					t.Fatalf("MapActiveIndex(%d) should be invalid for count %d", count, count)
				}
			}
		}
	})

	t.Run("invalid ranges keep the previous range", func(t *testing.T) {
		if err := c.SetActiveRange(3, 7); err != nil {
			t.Fatalf("SetActiveRange failed: %v", err)
		}
		invalid := [][2]int{{-1, 5}, {0, 0}, {5, -2}, {n, 1}, {15, 6}, {0, n + 1}}
		for _, r := range invalid {
			err := c.SetActiveRange(r[0], r[1])
			if !errors.Is(err, domain.ErrRange) {
				t.Errorf("SetActiveRange(%d, %d): expected ErrRange, got %v", r[0], r[1], err)
			}
			first, count := c.ActiveRange()
			if first != 3 || count != 7 {
				t.Errorf("range changed to (%d, %d) after invalid (%d, %d)", first, count, r[0], r[1])
			}
		}
	})

	t.Run("negative index is not guarded", func(t *testing.T) {
		_ = c.SetActiveRange(3, 7)
		idx, ok := c.MapActiveIndex(-2)
		if !ok || idx != 1 {
			t.Errorf("MapActiveIndex(-2) = (%d, %v), want (1, true)", idx, ok)
		}
	})
}

func TestShard(t *testing.T) {
	c, _ := New(makeSymbols(10), 5)
	if err := c.SetActiveRange(2, 7); err != nil {
		t.Fatalf("SetActiveRange failed: %v", err)
	}

	seen := make(map[int]bool)
	for k := 0; k < 3; k++ {
		shard, err := c.Shard(k, 3)
		if err != nil {
			t.Fatalf("Shard(%d, 3) failed: %v", k, err)
		}
		for _, idx := range shard {
			if seen[idx] {
				t.Errorf("index %d appears in more than one shard", idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != 7 {
		t.Errorf("shards cover %d indices, want 7", len(seen))
	}
	for idx := 2; idx < 9; idx++ {
		if !seen[idx] {
			t.Errorf("index %d not covered", idx)
		}
	}

	if _, err := c.Shard(3, 3); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for k == of, got %v", err)
	}
	if _, err := c.Shard(0, 8); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for more shards than symbols, got %v", err)
	}
}

func TestInvalidHandlePanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("zero Catalog should panic on access")
		}
	}()

	var c Catalog
	c.NumSymbols()
}
