package loader

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Source is the remote collaborator that owns the configuration.
// *client.Client implements it.
type Source interface {
	GetScenarios(ctx context.Context) ([]model.Scenario, error)
	GetTechnicalConfig(ctx context.Context) ([]model.ConfigItem, error)
	GetOperationalConfig(ctx context.Context, scenarioID string) ([]model.ConfigItem, error)
	SaveTechnicalConfig(ctx context.Context, items []model.ConfigItem) error
	SaveOperationalConfig(ctx context.Context, scenarioID string, items []model.ConfigItem) error
	CreateScenario(ctx context.Context, scenario model.Scenario) error
}

// Set holds the loaders for every configuration kind of one source.
type Set struct {
	src    Source
	opts   []Option
	logger *log.Logger

	Scenarios *Loader[model.Scenario]
	Technical *Loader[model.ConfigItem]
}

// NewSet builds the loaders for src.
func NewSet(src Source, opts ...Option) *Set {
	return &Set{
		src:       src,
		opts:      opts,
		logger:    buildOptions(opts).logger,
		Scenarios: New(KindScenarios, "", src.GetScenarios, ScenarioFallback, nil, opts...),
		Technical: New(KindTechnical, "", src.GetTechnicalConfig, TechnicalFallback, src.SaveTechnicalConfig, opts...),
	}
}

// Operational returns the loader for one scenario's operational set.
func (s *Set) Operational(scenarioID string) *Loader[model.ConfigItem] {
	fetch := func(ctx context.Context) ([]model.ConfigItem, error) {
		return s.src.GetOperationalConfig(ctx, scenarioID)
	}
	save := func(ctx context.Context, items []model.ConfigItem) error {
		return s.src.SaveOperationalConfig(ctx, scenarioID, items)
	}
	return New(KindOperational, scenarioID, fetch, OperationalFallback, save, s.opts...)
}

// CreateScenario validates sc and asks the source to create it. An invalid
// scenario never reaches the source.
func (s *Set) CreateScenario(ctx context.Context, sc model.Scenario) error {
	if err := sc.Validate(); err != nil {
		return err
	}
	if err := s.src.CreateScenario(ctx, sc); err != nil {
		SaveTotal.WithLabelValues(string(KindScenarios), "error").Inc()
		return fmt.Errorf("create scenario %q: %w", sc.ScenarioID, err)
	}
	SaveTotal.WithLabelValues(string(KindScenarios), "ok").Inc()
	s.logger.Info("scenario created", "scenario", sc.ScenarioID)
	return nil
}
