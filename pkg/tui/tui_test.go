package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmax-ai/mrpconf/pkg/controller"
	"github.com/rmax-ai/mrpconf/pkg/loader"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

type stubSource struct {
	scenarios   []model.Scenario
	technical   []model.ConfigItem
	operational map[string][]model.ConfigItem

	savedTech []model.ConfigItem
	savedOp   map[string][]model.ConfigItem
	created   []model.Scenario
}

func newStubSource() *stubSource {
	return &stubSource{
		scenarios: []model.Scenario{
			{ScenarioID: "A", Description: "Scenario A"},
			{ScenarioID: "B", Description: "Scenario B"},
		},
		technical: []model.ConfigItem{
			model.NewConfigItem("debug", model.TypeBoolean, model.BoolValue(false), "Debug"),
			model.NewConfigItem("password", model.TypePassword, model.StringValue("s3cret"), "Password"),
		},
		operational: map[string][]model.ConfigItem{
			"A": {model.NewConfigItem("batchSize", model.TypeString, model.StringValue("10"), "Batch size")},
			"B": {},
		},
		savedOp: map[string][]model.ConfigItem{},
	}
}

func (s *stubSource) GetScenarios(ctx context.Context) ([]model.Scenario, error) {
	return s.scenarios, nil
}

func (s *stubSource) GetTechnicalConfig(ctx context.Context) ([]model.ConfigItem, error) {
	return s.technical, nil
}

func (s *stubSource) GetOperationalConfig(ctx context.Context, id string) ([]model.ConfigItem, error) {
	return s.operational[id], nil
}

func (s *stubSource) SaveTechnicalConfig(ctx context.Context, items []model.ConfigItem) error {
	s.savedTech = items
	return nil
}

func (s *stubSource) SaveOperationalConfig(ctx context.Context, id string, items []model.ConfigItem) error {
	s.savedOp[id] = items
	return nil
}

func (s *stubSource) CreateScenario(ctx context.Context, sc model.Scenario) error {
	s.created = append(s.created, sc)
	s.scenarios = append(s.scenarios, sc)
	return nil
}

// runCmd runs c, giving up on commands that wait on timers (cursor blink,
// spinner ticks).
func runCmd(c tea.Cmd) tea.Msg {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- c() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(50 * time.Millisecond):
		return nil
	}
}

// pump feeds completions back into the model until no work is left.
func pump(m *Model, cmd tea.Cmd) {
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		switch msg := runCmd(c).(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case completionMsg:
			_, next := m.Update(msg)
			queue = append(queue, next)
		}
	}
}

func send(m *Model, msgs ...tea.Msg) {
	for _, msg := range msgs {
		_, cmd := m.Update(msg)
		pump(m, cmd)
	}
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keySpace = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	keySave  = tea.KeyMsg{Type: tea.KeyCtrlS}
	keyNew   = tea.KeyMsg{Type: tea.KeyCtrlN}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func start(t *testing.T, src *stubSource) *Model {
	t.Helper()
	m := New(loader.NewSet(src), nil)
	pump(m, m.Init())
	require.Equal(t, controller.PhaseScenariosReady, m.Controller().Phase())
	return m
}

func TestModel_StartRendersScenarios(t *testing.T) {
	m := start(t, newStubSource())
	view := m.View()
	assert.Contains(t, view, "Scenario A")
	assert.Contains(t, view, "Scenario B")
	assert.Contains(t, view, "Debug")
	assert.NotContains(t, view, "s3cret")
}

func TestModel_SelectLoadsOperational(t *testing.T) {
	m := start(t, newStubSource())

	send(m, keyEnter)
	id, ok := m.Controller().Selected()
	require.True(t, ok)
	assert.Equal(t, "A", id)
	require.Len(t, m.operation.fields, 1)
	assert.Contains(t, m.View(), "Batch size")

	send(m, keyDown, keyEnter)
	id, _ = m.Controller().Selected()
	assert.Equal(t, "B", id)
	require.NotNil(t, m.operation.placeholder)
	assert.Equal(t, controller.NoticeError, m.operation.placeholder.Kind)
}

func TestModel_ToggleAndSaveTechnical(t *testing.T) {
	src := newStubSource()
	m := start(t, src)

	send(m, keyTab, keySpace, keySave)
	require.Len(t, src.savedTech, 2)
	assert.Equal(t, model.BoolValue(true), src.savedTech[0].Value)
	assert.Equal(t, "Debug", src.savedTech[0].Description)
	assert.Equal(t, model.StringValue("s3cret"), src.savedTech[1].Value)
	assert.Contains(t, m.View(), controller.MsgSaved)

	// The surface keeps its own edit state after the controller wiped its copy.
	assert.Equal(t, []byte("s3cret"), m.technical.fields[1].Secret)
}

func TestModel_SaveDuringTechnicalReload(t *testing.T) {
	src := newStubSource()
	m := start(t, src)

	send(m, keyTab)
	_, reload := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	send(m, keySave)
	assert.Nil(t, src.savedTech)
	require.NotNil(t, m.status)
	assert.Equal(t, controller.NoticeError, m.status.notice.Kind)

	pump(m, reload)
	assert.Len(t, m.technical.fields, 2)
	assert.Nil(t, src.savedTech)
}

func TestModel_EditAndSaveOperational(t *testing.T) {
	src := newStubSource()
	m := start(t, src)

	send(m, keyEnter, keyTab, keyTab, runes("5"), keySave)
	require.Len(t, src.savedOp["A"], 1)
	assert.Equal(t, model.StringValue("105"), src.savedOp["A"][0].Value)
}

func TestModel_CreateScenario(t *testing.T) {
	src := newStubSource()
	m := start(t, src)

	send(m, keyNew, keyEnter)
	assert.True(t, m.creating)
	assert.Equal(t, msgCreateReq, m.createErr)
	assert.Empty(t, src.created)

	send(m, runes("C"), keyTab, runes("Scenario C"), keyEnter)
	assert.False(t, m.creating)
	require.Len(t, src.created, 1)
	assert.Equal(t, model.Scenario{ScenarioID: "C", Description: "Scenario C"}, src.created[0])
	assert.Len(t, m.list.Scenarios, 3)
	assert.True(t, strings.Contains(m.View(), "Scenario C"))
}

func TestModel_QuitClosesController(t *testing.T) {
	m := start(t, newStubSource())
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
