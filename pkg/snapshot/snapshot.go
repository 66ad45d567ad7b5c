// Package snapshot captures every scenario and configuration set of a source
// at one point in time, and writes a capture back.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

// DefaultConcurrency bounds the operational loads in flight during Take.
const DefaultConcurrency = 4

// ErrRedacted is returned when restoring a snapshot whose secrets were masked.
var ErrRedacted = errors.New("snapshot is redacted")

// Snapshot is the full content of a config source.
type Snapshot struct {
	TakenAt     time.Time                     `json:"takenAt"`
	Redacted    bool                          `json:"redacted"`
	Scenarios   []model.Scenario              `json:"scenarios"`
	Technical   []model.ConfigItem            `json:"technical"`
	Operational map[string][]model.ConfigItem `json:"operational"`
}

// Redact returns a copy with every secret masked.
func (s Snapshot) Redact() Snapshot {
	out := s
	out.Redacted = true
	out.Technical = model.Redact(s.Technical)
	out.Operational = make(map[string][]model.ConfigItem, len(s.Operational))
	for id, items := range s.Operational {
		out.Operational[id] = model.Redact(items)
	}
	return out
}

// Take loads scenarios, then the technical set and every operational set
// concurrently. Any set that falls back fails the whole snapshot, because
// defaults are not source data.
func Take(ctx context.Context, loaders *loader.Set, concurrency int) (Snapshot, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	scenarios := loaders.Scenarios.Load(ctx)
	if err := fromSource(loaders.Scenarios, scenarios); err != nil {
		return Snapshot{}, err
	}

	var technical loader.Result[model.ConfigItem]
	operational := make([]loader.Result[model.ConfigItem], len(scenarios.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	g.Go(func() error {
		technical = loaders.Technical.Load(gctx)
		return fromSource(loaders.Technical, technical)
	})
	for i, sc := range scenarios.Items {
		g.Go(func() error {
			ld := loaders.Operational(sc.ScenarioID)
			operational[i] = ld.Load(gctx)
			return fromSource(ld, operational[i])
		})
	}
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{
		TakenAt:     time.Now().UTC(),
		Scenarios:   scenarios.Items,
		Technical:   technical.Items,
		Operational: make(map[string][]model.ConfigItem, len(scenarios.Items)),
	}
	for i, sc := range scenarios.Items {
		s.Operational[sc.ScenarioID] = operational[i].Items
	}
	return s, nil
}

// RestoreReport describes what Restore wrote.
type RestoreReport struct {
	Created []string
	Saved   int
}

// Restore creates the snapshot's scenarios missing from the source, then
// saves the technical set and every operational set. Scenarios present in the
// source but not in the snapshot are left alone.
func Restore(ctx context.Context, loaders *loader.Set, s Snapshot) (RestoreReport, error) {
	var report RestoreReport
	if s.Redacted {
		return report, ErrRedacted
	}

	current := loaders.Scenarios.Load(ctx)
	if err := fromSource(loaders.Scenarios, current); err != nil {
		return report, err
	}

	for _, sc := range s.Scenarios {
		if model.IndexOf(current.Items, sc.ScenarioID) >= 0 {
			continue
		}
		if err := loaders.CreateScenario(ctx, sc); err != nil {
			return report, err
		}
		report.Created = append(report.Created, sc.ScenarioID)
	}

	if err := loaders.Technical.Save(ctx, s.Technical); err != nil {
		return report, err
	}
	report.Saved++

	for _, sc := range s.Scenarios {
		items, ok := s.Operational[sc.ScenarioID]
		if !ok {
			continue
		}
		if err := loaders.Operational(sc.ScenarioID).Save(ctx, items); err != nil {
			return report, err
		}
		report.Saved++
	}
	return report, nil
}

func fromSource[T any](ld *loader.Loader[T], res loader.Result[T]) error {
	if !res.IsFallback() {
		return nil
	}
	if ld.Scope() != "" {
		return fmt.Errorf("load %s %s: %w", ld.Kind(), ld.Scope(), res.Err)
	}
	return fmt.Errorf("load %s: %w", ld.Kind(), res.Err)
}
