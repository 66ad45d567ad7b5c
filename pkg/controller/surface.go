package controller

import (
	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

// Panel identifies one area of the presentation surface.
type Panel int

const (
	PanelScenarios Panel = iota
	PanelTechnical
	PanelOperational
)

func (p Panel) String() string {
	switch p {
	case PanelScenarios:
		return "scenarios"
	case PanelTechnical:
		return "technical"
	case PanelOperational:
		return "operational"
	default:
		return "unknown"
	}
}

// ListState is the state of the selectable scenario list.
type ListState int

const (
	ListLoading ListState = iota
	ListError
	ListReady
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListError:
		return "error"
	default:
		return "ready"
	}
}

// ScenarioList is what the surface renders in the scenario selector.
// Scenarios is only populated in ListReady and never holds a reserved id.
// The list is interactive only in ListReady.
type ScenarioList struct {
	State     ListState
	Scenarios []model.Scenario
	Message   string
}

// Interactive reports whether the user may select from the list.
func (l ScenarioList) Interactive() bool {
	return l.State == ListReady
}

// NoticeKind classifies a placeholder or notice.
type NoticeKind int

const (
	NoticeLoading NoticeKind = iota
	NoticeError
	NoticeSuccess
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeLoading:
		return "loading"
	case NoticeError:
		return "error"
	default:
		return "success"
	}
}

// Notice is a short message for the user.
type Notice struct {
	Kind    NoticeKind
	Message string
}

// Surface renders controller output. All methods are called on the goroutine
// that owns the surface.
type Surface interface {
	// ShowScenarios replaces the scenario selector.
	ShowScenarios(list ScenarioList)
	// ShowFields replaces the panel content with a freshly bound form. A nil
	// slice clears the panel.
	ShowFields(panel Panel, fields []form.Field)
	// ShowPlaceholder replaces the panel content with a notice.
	ShowPlaceholder(panel Panel, notice Notice)
	// ShowNotice shows a transient notice and keeps the panel content.
	ShowNotice(panel Panel, notice Notice)
}

// Scheduler runs work off the surface goroutine. The function returned by
// work must be run on the surface goroutine once work finishes.
type Scheduler interface {
	Go(work func() (apply func()))
}
