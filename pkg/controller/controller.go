// Package controller coordinates scenario selection with the loading and
// saving of the technical and operational configuration sets.
package controller

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Notice texts shown after saves.
const (
	MsgSaved      = "Configuration saved successfully!"
	MsgSaveFailed = "Failed to save configuration: "
	MsgNoOpConfig = "No operational configuration available"
	MsgNoScenario = "No scenarios available"
)

// Phase is the externally visible state of the controller.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseLoadingScenarios
	PhaseScenariosReady
	PhaseLoadingOperational
	PhaseOperationalReady
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseLoadingScenarios:
		return "loading_scenarios"
	case PhaseScenariosReady:
		return "scenarios_ready"
	case PhaseLoadingOperational:
		return "loading_operational"
	default:
		return "operational_ready"
	}
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller drives a Surface from a loader.Set.
//
// A Controller is not safe for concurrent use. Call its methods, and run the
// completions handed out by the Scheduler, on the surface goroutine only.
type Controller struct {
	loaders *loader.Set
	surface Surface
	sched   Scheduler
	logger  *log.Logger

	ctx    context.Context
	cancel context.CancelFunc

	started bool
	closed  bool

	list        ScenarioList
	scenarioErr bool
	selected    string

	// Each load is tagged with the generation it was issued for; results
	// from an older generation are dropped.
	scenarioGen uint64
	techGen     uint64
	opGen       uint64

	techErr   bool
	technical []model.ConfigItem

	opLoading   bool
	opErr       bool
	operational []model.ConfigItem
}

// New creates a controller. It is inert until Start, which the surface calls
// once when it comes up; that call moves the controller to
// PhaseLoadingScenarios.
func New(loaders *loader.Set, surface Surface, sched Scheduler, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		loaders: loaders,
		surface: surface,
		sched:   sched,
		logger:  log.New(io.Discard),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the scenario list and the technical set. Only the first call
// has an effect.
func (c *Controller) Start() {
	if c.started || c.closed {
		return
	}
	c.started = true
	c.logger.Debug("controller started")
	c.loadScenarios()
	c.loadTechnical()
}

// Close cancels in-flight loads. Results arriving afterwards are discarded.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
}

// Phase returns the current state.
func (c *Controller) Phase() Phase {
	switch {
	case !c.started:
		return PhaseUninitialized
	case c.list.State == ListLoading:
		return PhaseLoadingScenarios
	case c.selected == "":
		return PhaseScenariosReady
	case c.opLoading:
		return PhaseLoadingOperational
	default:
		return PhaseOperationalReady
	}
}

// ScenariosFailed reports whether the last scenario load failed or was empty.
func (c *Controller) ScenariosFailed() bool { return c.scenarioErr }

// OperationalFailed reports whether the last operational load failed or was empty.
func (c *Controller) OperationalFailed() bool { return c.opErr }

// TechnicalFailed reports whether the last technical load failed.
func (c *Controller) TechnicalFailed() bool { return c.techErr }

// Scenarios returns the current scenario list.
func (c *Controller) Scenarios() ScenarioList { return c.list }

// Selected returns the id of the selected scenario.
func (c *Controller) Selected() (string, bool) {
	return c.selected, c.selected != ""
}

// Refresh reloads the scenario list, the technical set and, if a scenario
// is selected, its operational set.
func (c *Controller) Refresh() {
	if !c.started || c.closed {
		return
	}
	c.loadScenarios()
	c.loadTechnical()
	if c.selected != "" {
		c.loadOperational(c.selected)
	}
}

// Select switches to scenario s and loads its operational set. It reports
// whether a load was issued: selecting a reserved id, an unknown scenario, or
// anything while the list is not ready does nothing. Selecting the current
// scenario again reloads it.
func (c *Controller) Select(s model.Scenario) bool {
	if c.closed || s.IsSentinel() || !c.list.Interactive() {
		return false
	}
	if model.IndexOf(c.list.Scenarios, s.ScenarioID) < 0 {
		return false
	}
	c.selected = s.ScenarioID
	c.loadOperational(s.ScenarioID)
	return true
}

// Save collects fields of panel and writes them to the source. Save owns
// fields: their secret buffers are wiped before it returns.
func (c *Controller) Save(panel Panel, fields []form.Field) {
	defer form.Wipe(fields)
	if c.closed {
		return
	}

	var (
		ld     *loader.Loader[model.ConfigItem]
		schema []model.ConfigItem
	)
	switch panel {
	case PanelTechnical:
		if c.technical == nil {
			c.surface.ShowNotice(panel, Notice{Kind: NoticeError, Message: MsgSaveFailed + "technical configuration not loaded"})
			return
		}
		ld, schema = c.loaders.Technical, c.technical
	case PanelOperational:
		if c.selected == "" || c.operational == nil {
			c.surface.ShowNotice(panel, Notice{Kind: NoticeError, Message: MsgSaveFailed + "no scenario loaded"})
			return
		}
		ld, schema = c.loaders.Operational(c.selected), c.operational
	default:
		return
	}

	items, err := form.Collect(fields)
	if err != nil {
		c.logger.Warn("dropping unmappable fields", "panel", panel, "error", err)
	}
	items = model.WithDescriptions(items, schema)

	ctx := c.ctx
	c.sched.Go(func() func() {
		err := ld.Save(ctx, items)
		return func() {
			if c.closed {
				return
			}
			if err != nil {
				c.logger.Error("save failed", "panel", panel, "scope", ld.Scope(), "error", err)
				c.surface.ShowNotice(panel, Notice{Kind: NoticeError, Message: MsgSaveFailed + err.Error()})
				return
			}
			c.surface.ShowNotice(panel, Notice{Kind: NoticeSuccess, Message: MsgSaved})
		}
	})
}

// CreateScenario validates the candidate and asks the source to create it.
// A validation failure is returned at once and nothing is sent. On success
// the scenario list is reloaded.
func (c *Controller) CreateScenario(id, description string) error {
	sc := model.Scenario{ScenarioID: id, Description: description}
	if err := sc.Validate(); err != nil {
		c.surface.ShowNotice(PanelScenarios, Notice{Kind: NoticeError, Message: err.Error()})
		return err
	}
	if c.closed {
		return nil
	}

	ctx := c.ctx
	c.sched.Go(func() func() {
		err := c.loaders.CreateScenario(ctx, sc)
		return func() {
			if c.closed {
				return
			}
			if err != nil {
				c.logger.Error("create scenario failed", "scenario", sc.ScenarioID, "error", err)
				c.surface.ShowNotice(PanelScenarios, Notice{Kind: NoticeError, Message: "Failed to create scenario: " + err.Error()})
				return
			}
			c.surface.ShowNotice(PanelScenarios, Notice{Kind: NoticeSuccess, Message: fmt.Sprintf("Scenario %s created", sc.ScenarioID)})
			c.loadScenarios()
		}
	})
	return nil
}

func (c *Controller) loadScenarios() {
	c.scenarioGen++
	gen := c.scenarioGen
	c.list = ScenarioList{State: ListLoading, Message: "Loading scenarios..."}
	c.surface.ShowScenarios(c.list)

	ld, ctx := c.loaders.Scenarios, c.ctx
	c.sched.Go(func() func() {
		res := ld.Load(ctx)
		return func() { c.applyScenarios(gen, res) }
	})
}

func (c *Controller) applyScenarios(gen uint64, res loader.Result[model.Scenario]) {
	if c.closed || gen != c.scenarioGen {
		return
	}

	scenarios := make([]model.Scenario, 0, len(res.Items))
	for _, s := range res.Items {
		if s.IsSentinel() {
			c.logger.Warn("ignoring scenario with reserved id", "scenario", s.ScenarioID)
			continue
		}
		scenarios = append(scenarios, s)
	}

	c.scenarioErr = res.IsFallback() || len(scenarios) == 0
	if len(scenarios) == 0 {
		c.list = ScenarioList{State: ListError, Message: MsgNoScenario}
	} else {
		c.list = ScenarioList{State: ListReady, Scenarios: scenarios}
	}
	c.surface.ShowScenarios(c.list)
	if res.IsFallback() && len(scenarios) > 0 {
		c.surface.ShowNotice(PanelScenarios, fallbackNotice("scenarios", res.Err))
	}

	if c.selected != "" && model.IndexOf(scenarios, c.selected) < 0 {
		c.logger.Info("selected scenario no longer listed", "scenario", c.selected)
		c.selected = ""
		c.opGen++
		c.opLoading, c.opErr, c.operational = false, false, nil
		c.surface.ShowFields(PanelOperational, nil)
	}
}

func (c *Controller) loadTechnical() {
	c.techGen++
	gen := c.techGen
	// The panel drops its fields while loading; Save must not collect them.
	c.techErr, c.technical = false, nil
	c.surface.ShowPlaceholder(PanelTechnical, Notice{Kind: NoticeLoading, Message: "Loading technical configuration..."})

	ld, ctx := c.loaders.Technical, c.ctx
	c.sched.Go(func() func() {
		res := ld.Load(ctx)
		return func() { c.applyTechnical(gen, res) }
	})
}

func (c *Controller) applyTechnical(gen uint64, res loader.Result[model.ConfigItem]) {
	if c.closed || gen != c.techGen {
		return
	}
	c.techErr = res.IsFallback()
	c.technical = res.Items
	c.surface.ShowFields(PanelTechnical, form.Bind(res.Items))
	if res.IsFallback() {
		c.surface.ShowNotice(PanelTechnical, fallbackNotice("technical configuration", res.Err))
	}
}

func (c *Controller) loadOperational(scenarioID string) {
	c.opGen++
	gen := c.opGen
	c.opLoading, c.opErr, c.operational = true, false, nil
	c.surface.ShowPlaceholder(PanelOperational, Notice{
		Kind:    NoticeLoading,
		Message: fmt.Sprintf("Loading operational configuration for %s...", scenarioID),
	})

	ld, ctx := c.loaders.Operational(scenarioID), c.ctx
	c.sched.Go(func() func() {
		res := ld.Load(ctx)
		return func() { c.applyOperational(gen, res) }
	})
}

func (c *Controller) applyOperational(gen uint64, res loader.Result[model.ConfigItem]) {
	if c.closed || gen != c.opGen {
		return
	}
	c.opLoading = false
	if len(res.Items) == 0 {
		c.opErr, c.operational = true, nil
		c.surface.ShowPlaceholder(PanelOperational, Notice{Kind: NoticeError, Message: MsgNoOpConfig})
		return
	}
	c.opErr = res.IsFallback()
	c.operational = res.Items
	c.surface.ShowFields(PanelOperational, form.Bind(res.Items))
	if res.IsFallback() {
		c.surface.ShowNotice(PanelOperational, fallbackNotice("operational configuration", res.Err))
	}
}

func fallbackNotice(what string, err error) Notice {
	return Notice{
		Kind:    NoticeError,
		Message: fmt.Sprintf("Could not load %s, showing defaults: %v", what, err),
	}
}
