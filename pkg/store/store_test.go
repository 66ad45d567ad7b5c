package store_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/store"
	"github.com/rmax-ai/mrpconf/pkg/store/storetest"
)

// setupTestStore creates a temporary database for testing
func setupTestStore(t *testing.T) (*store.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "mrpconf.db")
	s, err := store.NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func TestNewStore(t *testing.T) {
	_, dbPath := setupTestStore(t)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Fatalf("database file was not created at %s", dbPath)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range []string{"scenarios", "config_items"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestNewStore_OpenFailures(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.db")
	if err := os.WriteFile(garbage, []byte("this is not an sqlite database, just some bytes to fill a header page"), 0o600); err != nil {
		t.Fatalf("write garbage file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"MissingDirectory", filepath.Join(dir, "missing", "store.db")},
		{"NotADatabase", garbage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := store.NewStore(tt.path)
			if err == nil {
				s.Close()
				t.Fatal("expected NewStore to fail")
			}
			if s != nil {
				t.Errorf("expected nil store on error, got %v", s)
			}
		})
	}
}

func TestStore_Conformance(t *testing.T) {
	s, _ := setupTestStore(t)
	storetest.RunConfigStoreTests(t, s)
}

func TestStore_Reopen(t *testing.T) {
	s, dbPath := setupTestStore(t)
	ctx := context.Background()

	if err := s.CreateScenario(ctx, model.Scenario{ScenarioID: "A", Description: "a"}, nil); err != nil {
		t.Fatalf("CreateScenario failed: %v", err)
	}
	s.Close()

	reopened, err := store.NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer reopened.Close()

	scenarios, err := reopened.ListScenarios(ctx)
	if err != nil {
		t.Fatalf("ListScenarios failed: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].ScenarioID != "A" {
		t.Errorf("unexpected scenarios after reopen: %+v", scenarios)
	}
}

func TestApplySeed(t *testing.T) {
	s, _ := setupTestStore(t)
	ctx := context.Background()
	seed := store.Seed{
		Scenarios: []model.Scenario{{ScenarioID: "S1", Description: "one"}, {ScenarioID: "S2", Description: "two"}},
		Technical: []model.ConfigItem{model.NewConfigItem("url", model.TypeString, model.StringValue("x"), "URL")},
		Operational: []model.ConfigItem{
			model.NewConfigItem("batchSize", model.TypeString, model.StringValue("1000"), "Batch size"),
		},
	}

	seeded, err := store.ApplySeed(ctx, s, seed)
	if err != nil || !seeded {
		t.Fatalf("ApplySeed = %v, %v; want true, nil", seeded, err)
	}

	op, err := s.GetOperational(ctx, "S2")
	if err != nil {
		t.Fatalf("GetOperational failed: %v", err)
	}
	if len(op) != 1 || op[0].Name != "batchSize" {
		t.Errorf("unexpected operational set: %+v", op)
	}

	seeded, err = store.ApplySeed(ctx, s, seed)
	if err != nil || seeded {
		t.Fatalf("second ApplySeed = %v, %v; want false, nil", seeded, err)
	}
}

func TestStore_RejectsDuplicateNames(t *testing.T) {
	s, _ := setupTestStore(t)
	err := s.PutTechnical(context.Background(), []model.ConfigItem{{Name: "a"}, {Name: "a"}})
	if !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
