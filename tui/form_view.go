// ABOUTME: Add and edit form screen for the TUI
// ABOUTME: Text, select, and debounced relation picker inputs over a forms.Form
package tui

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/harperreed/salesdesk/api"
	"github.com/harperreed/salesdesk/forms"
	"github.com/harperreed/salesdesk/models"
)

type (
	pickerTickMsg struct {
		field string
		tag   int
	}
	pickerResultMsg struct {
		field string
		tag   int
		opts  []forms.Option
		err   error
	}
)

type formState struct {
	form    *forms.Form
	quick   bool
	fields  []forms.Field
	inputs  []textinput.Model
	pickers map[string]*forms.Picker

	focusIndex     int
	option         int
	errs           map[string]string
	confirmDiscard bool
	submitting     bool
}

// openForm shows f. Quick forms come from the dashboard and return there.
func (m Model) openForm(f *forms.Form, quick bool) (tea.Model, tea.Cmd) {
	st := formState{form: f, quick: quick, fields: f.Fields(), pickers: map[string]*forms.Picker{}}
	for _, fld := range st.fields {
		ti := textinput.New()
		ti.Placeholder = fld.Label
		ti.CharLimit = 500
		ti.Width = 40
		if fld.Kind == forms.Relation {
			sel := forms.Option{ID: models.ID(f.Get(fld.Key)), Label: f.Label(fld.Key)}
			st.pickers[fld.Key] = forms.NewPicker(fld.Key, m.deps.Pages.Lookup(fld.Relation), sel)
			ti.SetValue(sel.Label)
		} else {
			ti.SetValue(f.Get(fld.Key))
		}
		st.inputs = append(st.inputs, ti)
	}
	m.form = st
	m.viewMode = ViewForm
	next := m.focusField(0)
	return m, next
}

func (m *Model) focusField(i int) tea.Cmd {
	st := &m.form
	if len(st.inputs) == 0 {
		return nil
	}
	if prev := st.fields[st.focusIndex]; prev.Kind == forms.Relation && i != st.focusIndex {
		p := st.pickers[prev.Key]
		p.Blur()
		st.inputs[st.focusIndex].SetValue(p.Text())
	}
	st.focusIndex = i
	st.option = 0

	var cmds []tea.Cmd
	for j := range st.inputs {
		if j == i {
			cmds = append(cmds, st.inputs[j].Focus())
		} else {
			st.inputs[j].Blur()
		}
	}
	if fld := st.fields[i]; fld.Kind == forms.Relation {
		cmds = append(cmds, debounce(fld.Key, st.pickers[fld.Key].Focus()))
	}
	return tea.Batch(cmds...)
}

// debounce arms the search timer for a picker keystroke.
func debounce(field string, tag int) tea.Cmd {
	return tea.Tick(forms.Debounce, func(time.Time) tea.Msg {
		return pickerTickMsg{field: field, tag: tag}
	})
}

func (m Model) pickerTick(msg pickerTickMsg) (tea.Model, tea.Cmd) {
	p, ok := m.form.pickers[msg.field]
	if m.viewMode != ViewForm || !ok || !p.Due(msg.tag) {
		return m, nil
	}
	p.Begin(msg.tag)
	search := p.Search(m.ctx)
	next := m.start(func() tea.Msg {
		opts, err := search()
		return pickerResultMsg{field: msg.field, tag: msg.tag, opts: opts, err: err}
	})
	return m, next
}

func (m *Model) pickerResult(msg pickerResultMsg) {
	if p, ok := m.form.pickers[msg.field]; ok {
		p.Results(msg.tag, msg.opts, msg.err)
		m.form.option = 0
	}
}

func (m Model) renderFormView() string {
	st := m.form
	var s strings.Builder

	// Title
	verb := "NEW "
	if st.form.Mode() == forms.Edit {
		verb = "EDIT "
	}
	s.WriteString(titleStyle.Render(verb + strings.ToUpper(st.form.Schema().Entity)))
	s.WriteString("\n")

	// Form fields
	for i, fld := range st.fields {
		marker := "  "
		if i == st.focusIndex {
			marker = "> "
		}
		label := fld.Label
		if fld.Required {
			label += " *"
		}
		s.WriteString(marker + fieldLabelStyle.Render(label) + " ")
		if fld.Kind == forms.Select {
			s.WriteString(renderSelect(st.form.Get(fld.Key), i == st.focusIndex))
		} else {
			s.WriteString(st.inputs[i].View())
		}
		s.WriteString("\n")
		if msg, ok := st.errs[fld.Key]; ok {
			s.WriteString("    " + errorStyle.Render(msg) + "\n")
		}
		if p := st.pickers[fld.Key]; p != nil && i == st.focusIndex && p.IsOpen() {
			s.WriteString(renderDropdown(p, st.option))
		}
	}
	s.WriteString("\n")

	save := "[ Save ]"
	if st.form.CanSubmit() && !st.submitting {
		save = tabActiveStyle.Render(save)
	} else {
		save = disabledStyle.Render(save)
	}
	s.WriteString(save)
	if st.confirmDiscard {
		s.WriteString("  " + errorStyle.Render("Discard unsaved changes? (y/n)"))
	}
	s.WriteString("\n")

	// Help
	s.WriteString(renderHelp("Tab: Next field", "←/→: Choose option", "Enter: Save or pick", "Ctrl+X: Clear relation", "Esc: Cancel"))
	return s.String()
}

func renderSelect(value string, focused bool) string {
	if value == "" {
		value = "—"
	}
	if focused {
		return "‹ " + value + " ›"
	}
	return value
}

func renderDropdown(p *forms.Picker, cursor int) string {
	var s strings.Builder
	switch {
	case p.Loading():
		s.WriteString("    Searching...\n")
	case p.Err() != nil:
		s.WriteString("    " + errorStyle.Render("Search failed: "+p.Err().Error()) + "\n")
	case len(p.Options()) == 0:
		s.WriteString("    " + disabledStyle.Render("No matches") + "\n")
	default:
		for i, opt := range p.Options() {
			if i == cursor {
				s.WriteString("    ▶ " + opt.Label + "\n")
			} else {
				s.WriteString("      " + opt.Label + "\n")
			}
		}
	}
	return s.String()
}

func (m Model) handleFormKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := &m.form
	if st.submitting {
		return m, nil
	}
	if st.confirmDiscard {
		st.confirmDiscard = false
		if msg.String() == "y" || msg.String() == "esc" {
			return m.closeForm()
		}
		return m, nil
	}
	if len(st.fields) == 0 {
		if msg.String() == "esc" {
			return m.closeForm()
		}
		return m, nil
	}

	fld := st.fields[st.focusIndex]
	picker := st.pickers[fld.Key]
	open := picker != nil && picker.IsOpen() && len(picker.Options()) > 0

	switch msg.String() {
	case "esc":
		if picker != nil && picker.IsOpen() {
			picker.Blur()
			st.inputs[st.focusIndex].SetValue(picker.Text())
			return m, nil
		}
		if st.form.HasChanges() {
			st.confirmDiscard = true
			return m, nil
		}
		return m.closeForm()
	case "tab":
		next := m.focusField((st.focusIndex + 1) % len(st.fields))
		return m, next
	case "shift+tab":
		next := m.focusField((st.focusIndex + len(st.fields) - 1) % len(st.fields))
		return m, next
	case "down":
		if open {
			st.option = min(st.option+1, len(picker.Options())-1)
			return m, nil
		}
		next := m.focusField((st.focusIndex + 1) % len(st.fields))
		return m, next
	case "up":
		if open {
			st.option = max(st.option-1, 0)
			return m, nil
		}
		next := m.focusField((st.focusIndex + len(st.fields) - 1) % len(st.fields))
		return m, next
	case "enter":
		if open {
			opt := picker.Options()[st.option]
			picker.Select(opt)
			st.form.SetRelation(fld.Key, opt.ID, opt.Label)
			st.inputs[st.focusIndex].SetValue(opt.Label)
			return m, nil
		}
		return m.submitForm()
	case "ctrl+s":
		return m.submitForm()
	case "ctrl+x":
		if picker != nil {
			picker.Clear()
			st.form.SetRelation(fld.Key, "", "")
			st.inputs[st.focusIndex].SetValue("")
		}
		return m, nil
	case "left", "right":
		if fld.Kind == forms.Select {
			st.form.Set(fld.Key, stepOption(fld, st.form.Get(fld.Key), msg.String() == "right"))
			delete(st.errs, fld.Key)
			return m, nil
		}
	}
	if fld.Kind == forms.Select {
		return m, nil
	}

	var cmd tea.Cmd
	before := st.inputs[st.focusIndex].Value()
	st.inputs[st.focusIndex], cmd = st.inputs[st.focusIndex].Update(msg)
	after := st.inputs[st.focusIndex].Value()
	if after == before {
		return m, cmd
	}
	delete(st.errs, fld.Key)
	if picker != nil {
		return m, tea.Batch(cmd, debounce(fld.Key, picker.Type(after)))
	}
	st.form.Set(fld.Key, after)
	return m, cmd
}

// stepOption moves a select through its options. Optional selects include a
// blank entry.
func stepOption(fld forms.Field, current string, forward bool) string {
	opts := fld.Options
	if !fld.Required {
		opts = append([]string{""}, opts...)
	}
	if len(opts) == 0 {
		return current
	}
	i := slices.Index(opts, current)
	switch {
	case i < 0:
		i = 0
	case forward:
		i = (i + 1) % len(opts)
	default:
		i = (i + len(opts) - 1) % len(opts)
	}
	return opts[i]
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	st := &m.form
	if !st.form.CanSubmit() {
		if missing := st.form.Missing(); len(missing) > 0 {
			st.errs = map[string]string{}
			for _, k := range missing {
				st.errs[k] = "required"
			}
		}
		return m, nil
	}
	if errs := st.form.Validate(); errs != nil {
		st.errs = errs
		return m, nil
	}

	st.submitting = true
	f, ctx, quick := st.form, m.ctx, st.quick
	dash, page := m.deps.Dash, m.list.page
	next := m.start(func() tea.Msg {
		if quick {
			return savedMsg{err: dash.QuickCreate(ctx, f)}
		}
		return savedMsg{err: page.Submit(ctx, f)}
	})
	return m, next
}

func (m Model) saved(msg savedMsg) (tea.Model, tea.Cmd) {
	if m.viewMode != ViewForm {
		return m, nil
	}
	m.form.submitting = false
	if msg.err != nil {
		var errs forms.Errors
		switch {
		case errors.As(msg.err, &errs):
			m.form.errs = errs
		case api.FieldErrors(msg.err) != nil:
			m.form.errs = api.FieldErrors(msg.err)
		default:
			m.form.errs = map[string]string{}
		}
		return m, nil
	}
	return m.closeForm()
}

func (m Model) closeForm() (tea.Model, tea.Cmd) {
	if m.form.quick {
		m.viewMode = ViewDashboard
	} else {
		m.viewMode = ViewList
	}
	m.form = formState{}
	return m, nil
}
