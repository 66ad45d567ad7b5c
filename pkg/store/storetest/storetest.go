// Package storetest holds the shared behaviour tests for store.ConfigStore
// implementations.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rmax-ai/mrpconf/pkg/model"
	"github.com/rmax-ai/mrpconf/pkg/store"
)

// RunConfigStoreTests runs the behaviour every ConfigStore must share. The
// store must be empty.
func RunConfigStoreTests(t *testing.T, s store.ConfigStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Empty", func(t *testing.T) {
		scenarios, err := s.ListScenarios(ctx)
		if err != nil {
			t.Fatalf("ListScenarios failed: %v", err)
		}
		if scenarios == nil || len(scenarios) != 0 {
			t.Errorf("expected empty non-nil list, got %#v", scenarios)
		}
		technical, err := s.GetTechnical(ctx)
		if err != nil {
			t.Fatalf("GetTechnical failed: %v", err)
		}
		if technical == nil || len(technical) != 0 {
			t.Errorf("expected empty non-nil set, got %#v", technical)
		}
	})

	t.Run("Scenarios", func(t *testing.T) {
		a := model.Scenario{ScenarioID: "Standard_LDL_M1000", Description: "Production run Client 1000"}
		b := model.Scenario{ScenarioID: "Test_Mandant_3000", Description: "Test scenario for Client 3000"}
		for _, sc := range []model.Scenario{a, b} {
			if err := s.CreateScenario(ctx, sc, nil); err != nil {
				t.Fatalf("CreateScenario(%s) failed: %v", sc.ScenarioID, err)
			}
		}

		err := s.CreateScenario(ctx, model.Scenario{ScenarioID: a.ScenarioID, Description: "again"}, nil)
		if !errors.Is(err, store.ErrScenarioExists) {
			t.Errorf("expected ErrScenarioExists, got %v", err)
		}

		got, err := s.ListScenarios(ctx)
		if err != nil {
			t.Fatalf("ListScenarios failed: %v", err)
		}
		if !reflect.DeepEqual(got, []model.Scenario{a, b}) {
			t.Errorf("ListScenarios = %+v, want creation order", got)
		}

		op, err := s.GetOperational(ctx, b.ScenarioID)
		if err != nil {
			t.Fatalf("GetOperational failed: %v", err)
		}
		if op == nil || len(op) != 0 {
			t.Errorf("expected empty operational set for new scenario, got %#v", op)
		}
	})

	t.Run("TechnicalRoundTrip", func(t *testing.T) {
		items := []model.ConfigItem{
			model.NewConfigItem("datasourceUrl", model.TypeString, model.StringValue("jdbc:mssql://localhost:5432/mydb"), "Datasource URL"),
			model.NewConfigItem("datasourcePassword", model.TypePassword, model.Absent, "Datasource password"),
			model.NewConfigItem("datasourceDebug", model.TypeBoolean, model.BoolValue(false), "Datasource debugging"),
			model.NewConfigItem("legacy", model.ItemType("integer"), model.StringValue("42"), ""),
		}
		if err := s.PutTechnical(ctx, items); err != nil {
			t.Fatalf("PutTechnical failed: %v", err)
		}
		got, err := s.GetTechnical(ctx)
		if err != nil {
			t.Fatalf("GetTechnical failed: %v", err)
		}
		if !reflect.DeepEqual(got, items) {
			t.Errorf("GetTechnical = %+v, want %+v", got, items)
		}

		// Replacement is wholesale.
		if err := s.PutTechnical(ctx, items[:1]); err != nil {
			t.Fatalf("PutTechnical failed: %v", err)
		}
		got, _ = s.GetTechnical(ctx)
		if len(got) != 1 {
			t.Errorf("expected 1 item after replace, got %d", len(got))
		}
	})

	t.Run("Operational", func(t *testing.T) {
		items := []model.ConfigItem{
			model.NewConfigItem("retryCount", model.TypeString, model.StringValue("3"), "Retry count"),
			model.NewConfigItem("enableLogging", model.TypeBoolean, model.BoolValue(true), "Enable logging"),
		}
		if err := s.PutOperational(ctx, "Test_Mandant_3000", items); err != nil {
			t.Fatalf("PutOperational failed: %v", err)
		}
		got, err := s.GetOperational(ctx, "Test_Mandant_3000")
		if err != nil {
			t.Fatalf("GetOperational failed: %v", err)
		}
		if !reflect.DeepEqual(got, items) {
			t.Errorf("GetOperational = %+v, want %+v", got, items)
		}

		other, err := s.GetOperational(ctx, "Standard_LDL_M1000")
		if err != nil {
			t.Fatalf("GetOperational failed: %v", err)
		}
		if len(other) != 0 {
			t.Errorf("sets must be scoped per scenario, got %+v", other)
		}
	})

	t.Run("UnknownScenario", func(t *testing.T) {
		if _, err := s.GetOperational(ctx, "nope"); !errors.Is(err, store.ErrScenarioNotFound) {
			t.Errorf("GetOperational: expected ErrScenarioNotFound, got %v", err)
		}
		if err := s.PutOperational(ctx, "nope", nil); !errors.Is(err, store.ErrScenarioNotFound) {
			t.Errorf("PutOperational: expected ErrScenarioNotFound, got %v", err)
		}
	})

	t.Run("CreateWithInitialSet", func(t *testing.T) {
		items := []model.ConfigItem{
			model.NewConfigItem("batchSize", model.TypeString, model.StringValue("100"), "Batch size"),
		}
		if err := s.CreateScenario(ctx, model.Scenario{ScenarioID: "Seeded_1", Description: "seeded"}, items); err != nil {
			t.Fatalf("CreateScenario failed: %v", err)
		}
		got, err := s.GetOperational(ctx, "Seeded_1")
		if err != nil {
			t.Fatalf("GetOperational failed: %v", err)
		}
		if !reflect.DeepEqual(got, items) {
			t.Errorf("GetOperational = %+v, want %+v", got, items)
		}
	})

	t.Run("CreateIsAllOrNothing", func(t *testing.T) {
		bad := model.Scenario{ScenarioID: "Broken_1", Description: "broken"}
		dup := []model.ConfigItem{{Name: "a"}, {Name: "a"}}
		var verr *model.ValidationError
		if err := s.CreateScenario(ctx, bad, dup); !errors.As(err, &verr) {
			t.Fatalf("expected a validation error, got %v", err)
		}

		scenarios, err := s.ListScenarios(ctx)
		if err != nil {
			t.Fatalf("ListScenarios failed: %v", err)
		}
		if model.IndexOf(scenarios, bad.ScenarioID) >= 0 {
			t.Errorf("failed create left %s listed", bad.ScenarioID)
		}
		if _, err := s.GetOperational(ctx, bad.ScenarioID); !errors.Is(err, store.ErrScenarioNotFound) {
			t.Errorf("GetOperational: expected ErrScenarioNotFound, got %v", err)
		}
		// The id stays free.
		if err := s.CreateScenario(ctx, bad, nil); err != nil {
			t.Errorf("retry after failed create: %v", err)
		}
	})
}
