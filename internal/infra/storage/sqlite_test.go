package storage

import (
	"path/filepath"
	"testing"
	"time"

	"chronos_client/internal/catalog"
	"chronos_client/internal/domain"
)

func setupTestDB(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage(filepath.Join(t.TempDir(), "db", "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestSymbolRoundTrip(t *testing.T) {
	s := setupTestDB(t)

	in := []string{"IBM", "AAPL", "MSFT", "ORCL", "GE"}
	if err := s.SaveSymbols(in); err != nil {
		t.Fatalf("SaveSymbols failed: %v", err)
	}

	got, err := s.LoadSymbols("", "", 10)
	if err != nil {
		t.Fatalf("LoadSymbols failed: %v", err)
	}
	if len(got) != len(in) {
		t.Fatalf("expected %d symbols, got %d", len(in), len(got))
	}
	for i := range in {
		if got[i] != in[i] {
			t.Errorf("symbol %d = %q, want %q", i, got[i], in[i])
		}
	}

	got, _ = s.LoadSymbols("", "", 3)
	if len(got) != 3 || got[2] != "MSFT" {
		t.Errorf("limited load = %v", got)
	}
}

func TestSaveSymbolsReplaces(t *testing.T) {
	s := setupTestDB(t)

	s.SaveSymbols([]string{"A", "B", "C"})
	if err := s.SaveSymbols([]string{"X"}); err != nil {
		t.Fatalf("SaveSymbols failed: %v", err)
	}

	n, err := s.CountSymbols()
	if err != nil {
		t.Fatalf("CountSymbols failed: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 symbol after replace, got %d", n)
	}
}

func TestStorageAsCatalogSource(t *testing.T) {
	s := setupTestDB(t)

	symbols := make([]string, 30)
	for i := range symbols {
		symbols[i] = string(rune('A'+i%26)) + "X"
	}
	s.SaveSymbols(symbols)

	cat, err := catalog.Load(s, "", "", catalog.Config{NumSymbols: 30, NumUsers: 4})
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	if name, _ := cat.Symbol(27); name != symbols[27] {
		t.Errorf("Symbol(27) = %q, want %q", name, symbols[27])
	}

	// too few rows for the requested universe
	if _, err := catalog.Load(s, "", "", catalog.Config{NumSymbols: 31}); err == nil {
		t.Error("expected error for short symbol table")
	}
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestDB(t)

	start := time.Now().Add(-10 * time.Second).UTC()
	run := &domain.RunRecord{
		ID:            "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		ServerAddress: "127.0.0.1:5000",
		Transport:     "tcp",
		NumClients:    5,
		StartedAt:     start,
		FinishedAt:    start.Add(10 * time.Second),
		Transactions:  500,
		Kinds: []domain.KindStatRecord{
			{Kind: "CHRONOS_USER_TXN_PURCHASE", Completed: 200},
			{Kind: "CHRONOS_USER_TXN_SALE", Completed: 300, Rejected: 2},
		},
	}

	if err := s.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	fetched, err := s.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("fetched run is nil")
	}
	if fetched.Transactions != 500 || len(fetched.Kinds) != 2 {
		t.Errorf("fetched = %+v", fetched)
	}
	if got := fetched.Throughput(); got < 49.9 || got > 50.1 {
		t.Errorf("Throughput = %f, want 50", got)
	}

	missing, err := s.GetRun("does-not-exist")
	if err != nil || missing != nil {
		t.Errorf("GetRun(missing) = %v, %v; want nil, nil", missing, err)
	}

	if err := s.SaveRun(&domain.RunRecord{}); err == nil {
		t.Error("expected error for run without id")
	}

	runs, err := s.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}
