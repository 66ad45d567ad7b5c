package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rmax-ai/mrpconf/pkg/controller"
	"github.com/rmax-ai/mrpconf/pkg/form"
	"github.com/rmax-ai/mrpconf/pkg/model"
)

// panel holds the bound form of one configuration set. Its fields are only
// ever replaced wholesale by the controller; edits go into them in place.
type panel struct {
	id          controller.Panel
	title       string
	fields      []form.Field
	inputs      []textinput.Model
	cursor      int
	placeholder *controller.Notice
}

func newPanel(id controller.Panel, title string) *panel {
	return &panel{id: id, title: title}
}

func (p *panel) setFields(fields []form.Field) {
	form.Wipe(p.fields)
	for i := range p.inputs {
		p.inputs[i].Reset()
	}

	p.fields = fields
	p.inputs = make([]textinput.Model, len(fields))
	p.placeholder = nil
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.CharLimit = 1024
		switch f.Kind {
		case model.KindSecret:
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '•'
			ti.SetValue(string(f.Secret))
		case model.KindText:
			ti.SetValue(f.Text)
		}
		p.inputs[i] = ti
	}
	if p.cursor >= len(fields) {
		p.cursor = max(0, len(fields)-1)
	}
}

func (p *panel) setPlaceholder(n controller.Notice) {
	p.setFields(nil)
	p.placeholder = &n
}

func (p *panel) current() *form.Field {
	if p.cursor < 0 || p.cursor >= len(p.fields) {
		return nil
	}
	return &p.fields[p.cursor]
}

func (p *panel) move(delta int) {
	if len(p.fields) == 0 {
		return
	}
	p.cursor = (p.cursor + delta + len(p.fields)) % len(p.fields)
}

// focus focuses the input under the cursor when active, blurring the rest.
func (p *panel) focus(active bool) tea.Cmd {
	var cmd tea.Cmd
	for i := range p.inputs {
		if active && i == p.cursor && p.fields[i].Kind != model.KindToggle {
			cmd = p.inputs[i].Focus()
			continue
		}
		p.inputs[i].Blur()
	}
	return cmd
}

func (p *panel) toggle() {
	if f := p.current(); f != nil && f.Kind == model.KindToggle {
		f.Checked = !f.Checked
	}
}

func (p *panel) updateInput(msg tea.Msg) tea.Cmd {
	f := p.current()
	if f == nil || f.Kind == model.KindToggle {
		return nil
	}
	var cmd tea.Cmd
	p.inputs[p.cursor], cmd = p.inputs[p.cursor].Update(msg)

	v := p.inputs[p.cursor].Value()
	switch f.Kind {
	case model.KindSecret:
		if string(f.Secret) != v {
			clear(f.Secret)
			f.Secret = []byte(v)
		}
	default:
		f.Text = v
	}
	return cmd
}

// snapshot returns copies the controller may consume and wipe.
func (p *panel) snapshot() []form.Field {
	out := make([]form.Field, len(p.fields))
	for i, f := range p.fields {
		out[i] = f.Clone()
	}
	return out
}

func (p *panel) view(focused bool, spin string, width int) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(p.title) + "\n\n")

	switch {
	case p.placeholder != nil && p.placeholder.Kind == controller.NoticeLoading:
		sb.WriteString(fmt.Sprintf("%s %s", spin, subtleStyle.Render(p.placeholder.Message)))
	case p.placeholder != nil:
		sb.WriteString(errorStyle.Render(p.placeholder.Message))
	case len(p.fields) == 0:
		sb.WriteString(subtleStyle.Render("Nothing loaded."))
	default:
		for i, f := range p.fields {
			marker := "  "
			if focused && i == p.cursor {
				marker = cursorStyle.Render("> ")
			}
			label := f.Label
			if label == "" {
				label = f.Name
			}
			sb.WriteString(marker + labelStyle.Render(label) + p.widget(i) + "\n")
		}
	}

	style := paneStyle
	if focused {
		style = focusedPaneStyle
	}
	return style.Width(width).Render(strings.TrimRight(sb.String(), "\n"))
}

func (p *panel) widget(i int) string {
	f := p.fields[i]
	switch f.Kind {
	case model.KindToggle:
		if f.Checked {
			return "[x]"
		}
		return "[ ]"
	case model.KindText, model.KindSecret:
		return p.inputs[i].View()
	default:
		return errorStyle.Render("unsupported")
	}
}
