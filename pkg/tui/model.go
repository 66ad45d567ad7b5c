// Package tui is the terminal presentation surface of the configuration
// editor.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/rmax-ai/mrpconf/pkg/controller"
	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

const (
	defaultWidth = 100
	msgCreateReq = "Scenario id and description are required"
)

type status struct {
	panel  controller.Panel
	notice controller.Notice
}

// Model is the bubbletea model. It implements controller.Surface; the
// controller only calls it from Update.
type Model struct {
	ctrl    *controller.Controller
	sched   *cmdScheduler
	logger  *log.Logger
	keys    keyMap
	help    help.Model
	spinner spinner.Model

	list       controller.ScenarioList
	listCursor int
	technical  *panel
	operation  *panel
	focus      controller.Panel

	creating    bool
	createIn    [2]textinput.Model
	createFocus int
	createErr   string

	status *status
	width  int
}

var _ controller.Surface = (*Model)(nil)

// New builds the model and its controller over loaders.
func New(loaders *loader.Set, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		sched:     &cmdScheduler{},
		logger:    logger,
		keys:      defaultKeys(),
		help:      help.New(),
		spinner:   s,
		technical: newPanel(controller.PanelTechnical, "Technical configuration"),
		operation: newPanel(controller.PanelOperational, "Operational configuration"),
		focus:     controller.PanelScenarios,
		width:     defaultWidth,
	}
	for i, ph := range []string{"Scenario id", "Description"} {
		ti := textinput.New()
		ti.Placeholder = ph
		m.createIn[i] = ti
	}
	m.ctrl = controller.New(loaders, m, m.sched, controller.WithLogger(logger))
	return m
}

// Controller returns the controller driving the model.
func (m *Model) Controller() *controller.Controller {
	return m.ctrl
}

func (m *Model) Init() tea.Cmd {
	m.ctrl.Start()
	return tea.Batch(m.spinner.Tick, m.sched.drain())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case completionMsg:
		if msg.apply != nil {
			msg.apply()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) || (m.focus == controller.PanelScenarios && !m.creating && key.Matches(msg, m.keys.QuitList)) {
			m.ctrl.Close()
			return m, tea.Quit
		}
		cmds = append(cmds, m.handleKey(msg))
	}

	cmds = append(cmds, m.sched.drain())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.creating {
		return m.handleCreateKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.focus = (m.focus + 1) % 3
	case key.Matches(msg, m.keys.Prev):
		m.focus = (m.focus + 2) % 3
	case key.Matches(msg, m.keys.Create):
		return m.openCreate()
	case key.Matches(msg, m.keys.Refresh):
		m.ctrl.Refresh()
	case key.Matches(msg, m.keys.Save):
		m.save()
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case m.focus == controller.PanelScenarios:
		if key.Matches(msg, m.keys.Select) {
			m.selectCurrent()
		}
		return nil
	default:
		p := m.panel(m.focus)
		if f := p.current(); f != nil && f.Kind == model.KindToggle {
			if key.Matches(msg, m.keys.Toggle) {
				p.toggle()
			}
			return nil
		}
		return p.updateInput(msg)
	}
	return m.refocus()
}

func (m *Model) panel(p controller.Panel) *panel {
	if p == controller.PanelOperational {
		return m.operation
	}
	return m.technical
}

func (m *Model) refocus() tea.Cmd {
	return tea.Batch(
		m.technical.focus(!m.creating && m.focus == controller.PanelTechnical),
		m.operation.focus(!m.creating && m.focus == controller.PanelOperational),
	)
}

func (m *Model) move(delta int) {
	if m.focus != controller.PanelScenarios {
		m.panel(m.focus).move(delta)
		return
	}
	if n := len(m.list.Scenarios); n > 0 {
		m.listCursor = (m.listCursor + delta + n) % n
	}
}

func (m *Model) selectCurrent() {
	if !m.list.Interactive() || m.listCursor >= len(m.list.Scenarios) {
		return
	}
	m.ctrl.Select(m.list.Scenarios[m.listCursor])
}

func (m *Model) save() {
	if m.focus == controller.PanelScenarios {
		m.ShowNotice(controller.PanelScenarios, controller.Notice{
			Kind:    controller.NoticeError,
			Message: "Focus the technical or operational pane to save",
		})
		return
	}
	p := m.panel(m.focus)
	m.ctrl.Save(p.id, p.snapshot())
}

func (m *Model) openCreate() tea.Cmd {
	m.creating = true
	m.createErr = ""
	m.createFocus = 0
	for i := range m.createIn {
		m.createIn[i].Reset()
	}
	m.technical.focus(false)
	m.operation.focus(false)
	m.createIn[1].Blur()
	return m.createIn[0].Focus()
}

func (m *Model) closeCreate() tea.Cmd {
	m.creating = false
	for i := range m.createIn {
		m.createIn[i].Blur()
	}
	return m.refocus()
}

func (m *Model) handleCreateKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		return m.closeCreate()
	case key.Matches(msg, m.keys.Next), key.Matches(msg, m.keys.Prev):
		m.createIn[m.createFocus].Blur()
		m.createFocus = 1 - m.createFocus
		return m.createIn[m.createFocus].Focus()
	case key.Matches(msg, m.keys.Select):
		id := strings.TrimSpace(m.createIn[0].Value())
		desc := strings.TrimSpace(m.createIn[1].Value())
		if id == "" || desc == "" {
			m.createErr = msgCreateReq
			return nil
		}
		cmd := m.closeCreate()
		if err := m.ctrl.CreateScenario(id, desc); err != nil {
			m.logger.Warn("scenario rejected", "scenario", id, "error", err)
		}
		return cmd
	}

	var cmd tea.Cmd
	m.createIn[m.createFocus], cmd = m.createIn[m.createFocus].Update(msg)
	return cmd
}

// ShowScenarios implements controller.Surface.
func (m *Model) ShowScenarios(list controller.ScenarioList) {
	m.list = list
	if m.listCursor >= len(list.Scenarios) {
		m.listCursor = 0
	}
}

// ShowFields implements controller.Surface.
func (m *Model) ShowFields(p controller.Panel, fields []form.Field) {
	if p == controller.PanelScenarios {
		return
	}
	m.panel(p).setFields(fields)
	m.panel(p).focus(!m.creating && m.focus == p)
}

// ShowPlaceholder implements controller.Surface.
func (m *Model) ShowPlaceholder(p controller.Panel, n controller.Notice) {
	if p == controller.PanelScenarios {
		return
	}
	m.panel(p).setPlaceholder(n)
}

// ShowNotice implements controller.Surface.
func (m *Model) ShowNotice(p controller.Panel, n controller.Notice) {
	m.status = &status{panel: p, notice: n}
}

func (m *Model) View() string {
	half := max(m.width/2-2, 30)

	header := headerStyle.Width(m.width).Render("MRP Configuration")
	scenarios := m.scenariosView(m.width - 2)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		m.technical.view(m.focus == controller.PanelTechnical && !m.creating, m.spinner.View(), half),
		m.operation.view(m.focus == controller.PanelOperational && !m.creating, m.spinner.View(), half),
	)

	parts := []string{header, scenarios, panes}
	if m.creating {
		parts = append(parts, m.createView(m.width-2))
	}
	parts = append(parts, m.statusView(), m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) scenariosView(width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Scenarios") + "\n\n")

	focused := m.focus == controller.PanelScenarios && !m.creating
	selected, _ := m.ctrl.Selected()
	switch m.list.State {
	case controller.ListLoading:
		sb.WriteString(fmt.Sprintf("%s %s", m.spinner.View(), subtleStyle.Render(m.list.Message)))
	case controller.ListError:
		sb.WriteString(errorStyle.Render(m.list.Message))
	default:
		for i, s := range m.list.Scenarios {
			marker := "  "
			if focused && i == m.listCursor {
				marker = cursorStyle.Render("> ")
			}
			dot := "○ "
			if s.ScenarioID == selected {
				dot = okStyle.Render("● ")
			}
			sb.WriteString(fmt.Sprintf("%s%s%s %s\n", marker, dot, s.String(), subtleStyle.Render("("+s.ScenarioID+")")))
		}
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *Model) createView(width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("New scenario") + "\n\n")
	sb.WriteString(labelStyle.Render("Scenario id") + m.createIn[0].View() + "\n")
	sb.WriteString(labelStyle.Render("Description") + m.createIn[1].View())
	if m.createErr != "" {
		sb.WriteString("\n" + errorStyle.Render(m.createErr))
	}
	return focusedPaneStyle.Width(width).Render(sb.String())
}

func (m *Model) statusView() string {
	if m.status == nil {
		return subtleStyle.Render("Ready")
	}
	text := fmt.Sprintf("[%s] %s", m.status.panel, m.status.notice.Message)
	switch m.status.notice.Kind {
	case controller.NoticeError:
		return errorStyle.Render(text)
	case controller.NoticeSuccess:
		return okStyle.Render(text)
	default:
		return infoStyle.Render(text)
	}
}
