package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stellarlinkco/anova/internal/config"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "anova.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "users/marta/memory", []byte(`{"prefs":{}}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err := s.Get(ctx, "users/marta/memory")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != `{"prefs":{}}` {
		t.Errorf("data = %q", data)
	}
}

func TestSQLiteOverwrite(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, "k", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := s.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "v2" {
		t.Errorf("data = %q, want v2", data)
	}
}

func TestSQLiteNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Get(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestCostLedger(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	entries := []CostEntry{
		{RequestID: "r1", UserID: "marta", Provider: "openai:econ", PromptTokens: 100, CompletionTokens: 50, Cost: 0.001},
		{RequestID: "r1", UserID: "marta", Provider: "anthropic:mid", PromptTokens: 100, CompletionTokens: 80, Cost: 0.002},
	}
	for _, e := range entries {
		if err := s.AppendCost(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	total, err := s.TotalCostSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total < 0.0029 || total > 0.0031 {
		t.Errorf("total = %f, want ~0.003", total)
	}
}

func TestTotalCostSinceExcludesOldWindow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.AppendCost(ctx, CostEntry{RequestID: "r1", Provider: "openai:econ", Cost: 0.5}); err != nil {
		t.Fatalf("append: %v", err)
	}

	total, err := s.TotalCostSince(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Errorf("future window total = %f, want 0", total)
	}
}

func TestPruneCostEntries(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.AppendCost(ctx, CostEntry{RequestID: "r", Provider: "openai:econ", Cost: 0.1}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	pruned, err := s.PruneCostEntries(ctx, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if pruned != 3 {
		t.Errorf("pruned = %d, want 3", pruned)
	}

	total, err := s.TotalCostSince(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Errorf("total after prune = %f, want 0", total)
	}
}

func TestOpenDefaultsToSQLite(t *testing.T) {
	docs, err := Open(config.StoreConfig{Path: filepath.Join(t.TempDir(), "anova.db")})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer docs.Close()
	if _, ok := docs.(*SQLiteStore); !ok {
		t.Errorf("store type = %T, want *SQLiteStore", docs)
	}
}

func TestOpenUnsupportedType(t *testing.T) {
	if _, err := Open(config.StoreConfig{Type: "dynamo"}); err == nil {
		t.Error("expected error for unsupported store type")
	}
}
