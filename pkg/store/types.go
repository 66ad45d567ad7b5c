package store

import (
	"context"
	"errors"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

var (
	// ErrScenarioExists is returned when creating a scenario whose id is taken.
	ErrScenarioExists = errors.New("scenario already exists")

	// ErrScenarioNotFound is returned for operational access to an unknown scenario.
	ErrScenarioNotFound = errors.New("scenario not found")
)

// ConfigStore persists scenarios and configuration sets. Sets are always
// read and replaced whole, in order.
type ConfigStore interface {
	// ListScenarios returns scenarios in creation order.
	ListScenarios(ctx context.Context) ([]model.Scenario, error)
	// CreateScenario adds a scenario together with its initial operational
	// set (nil means empty). Either both are stored or neither is.
	CreateScenario(ctx context.Context, s model.Scenario, initial []model.ConfigItem) error

	GetTechnical(ctx context.Context) ([]model.ConfigItem, error)
	PutTechnical(ctx context.Context, items []model.ConfigItem) error

	GetOperational(ctx context.Context, scenarioID string) ([]model.ConfigItem, error)
	PutOperational(ctx context.Context, scenarioID string, items []model.ConfigItem) error

	Close() error
}

// Seed is the initial content of an empty store. Operational is applied to
// every seeded scenario.
type Seed struct {
	Scenarios   []model.Scenario
	Technical   []model.ConfigItem
	Operational []model.ConfigItem
}

// ApplySeed writes seed into s if s holds no scenarios and no technical set.
// It reports whether anything was written.
func ApplySeed(ctx context.Context, s ConfigStore, seed Seed) (bool, error) {
	scenarios, err := s.ListScenarios(ctx)
	if err != nil {
		return false, err
	}
	technical, err := s.GetTechnical(ctx)
	if err != nil {
		return false, err
	}
	if len(scenarios) > 0 || len(technical) > 0 {
		return false, nil
	}

	if err := s.PutTechnical(ctx, seed.Technical); err != nil {
		return false, err
	}
	for _, sc := range seed.Scenarios {
		if err := s.CreateScenario(ctx, sc, seed.Operational); err != nil && !errors.Is(err, ErrScenarioExists) {
			return false, err
		}
	}
	return true, nil
}
