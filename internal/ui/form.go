package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// formKind identifies which action a form submits.
type formKind int

const (
	formVehicle formKind = iota + 1
	formEntry
	formPrice
)

type formField struct {
	label       string
	placeholder string
	value       string
	limit       int
}

// form is a small stack of text inputs shown as a modal.
type form struct {
	kind       formKind
	title      string
	labels     []string
	inputs     []textinput.Model
	focus      int
	err        string
	submitting bool
}

func newForm(kind formKind, title string, fields ...formField) *form {
	f := &form{kind: kind, title: title}
	for _, field := range fields {
		in := textinput.New()
		in.Placeholder = field.placeholder
		in.SetValue(field.value)
		in.CharLimit = field.limit
		if in.CharLimit == 0 {
			in.CharLimit = 64
		}
		in.Width = 30
		f.labels = append(f.labels, field.label)
		f.inputs = append(f.inputs, in)
	}
	f.setFocus(0)
	return f
}

func (f *form) setFocus(i int) {
	n := len(f.inputs)
	if n == 0 {
		return
	}
	f.focus = (i%n + n) % n
	for idx := range f.inputs {
		if idx == f.focus {
			f.inputs[idx].Focus()
		} else {
			f.inputs[idx].Blur()
		}
	}
}

// update handles a key press. It reports submit=true when enter is pressed
// on the last field.
func (f *form) update(msg tea.KeyMsg, keys keyMap) (submit bool, cmd tea.Cmd) {
	if f.submitting {
		return false, nil
	}
	switch {
	case key.Matches(msg, keys.Submit):
		if f.focus == len(f.inputs)-1 {
			return true, nil
		}
		f.setFocus(f.focus + 1)
		return false, nil
	case key.Matches(msg, keys.NextField):
		f.setFocus(f.focus + 1)
		return false, nil
	case key.Matches(msg, keys.PrevField):
		f.setFocus(f.focus - 1)
		return false, nil
	}
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return false, cmd
}

func (f *form) value(i int) string {
	if i < 0 || i >= len(f.inputs) {
		return ""
	}
	return strings.TrimSpace(f.inputs[i].Value())
}

func (f *form) view(styles Styles, theme Theme) string {
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render(f.title))
	b.WriteString("\n\n")
	label := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Muted)).Width(14)
	for i, in := range f.inputs {
		b.WriteString(label.Render(f.labels[i]))
		b.WriteString(in.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	switch {
	case f.submitting:
		b.WriteString(styles.InfoText.Render("Enviando..."))
	case f.err != "":
		b.WriteString(styles.DangerText.Render(f.err))
	default:
		b.WriteString(styles.FaintText.Render("enter enviar · tab próximo · esc cancelar"))
	}
	return styles.FocusPanel.Render(b.String())
}
