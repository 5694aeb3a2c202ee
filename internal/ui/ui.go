package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"quest/internal/agenda"
	"quest/internal/config"
	"quest/internal/daily"
	"quest/internal/recurrence"
	"quest/internal/task"
)

// Store is everything the TUI reads and changes.
type Store interface {
	daily.Store
	AddAdhoc(name string, points int, date time.Time) (task.Instance, error)
	SetCompleted(id string, completed bool) error
	AddRepetition(id string) error
	DeleteInstance(id string) error
	SaveTemplate(t recurrence.Template) error
	DeleteTemplate(id string) error
	AddException(templateID string, date time.Time) error
}

type mode int

const (
	modeList mode = iota
	modeAdd
	modeSchedule
)

type view int

const (
	viewToday view = iota
	viewAgenda
)

type pendingDelete struct {
	instanceID string
	templateID string
	name       string
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	doneStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle   = lipgloss.NewStyle().Italic(true)
)

type Model struct {
	store      Store
	cfg        config.Config
	runner     *daily.Runner
	projector  agenda.Projector
	today      time.Time
	view       view
	tasks      []task.Instance
	groups     []agenda.Group
	items      []agenda.Item
	cursor     int
	mode       mode
	input      textinput.Model
	status     string
	confirmDel bool
	pendingDel *pendingDelete
	form       *scheduleForm
}

// New materializes today's missions and loads both views.
func New(store Store, cfg config.Config, logger *log.Logger, today time.Time) (Model, error) {
	ti := textinput.New()
	ti.Placeholder = "Mission name"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		store:  store,
		cfg:    cfg,
		runner: daily.NewRunner(store, daily.Materializer{Logger: logger}),
		projector: agenda.Projector{
			Limit:       cfg.AgendaLimit,
			HorizonDays: cfg.HorizonDays,
			Logger:      logger,
		},
		today:  recurrence.Day(today),
		input:  ti,
		mode:   modeList,
		status: fmt.Sprintf("Press '%s' to add, '%s' to schedule, %s for agenda.", cfg.Keys.Add, cfg.Keys.Schedule, cfg.Keys.SwitchView),
	}
	if _, err := m.runner.Run(context.Background(), m.today); err != nil {
		return m, err
	}
	if err := m.reload(); err != nil {
		return m, err
	}
	return m, nil
}

func Run(store Store, cfg config.Config, logger *log.Logger) error {
	m, err := New(store, cfg, logger, time.Now())
	if err != nil {
		return err
	}
	program := tea.NewProgram(m)
	_, err = program.Run()
	return err
}

func (m *Model) reload() error {
	tasks, err := m.store.Instances(m.today)
	if err != nil {
		return err
	}
	templates, err := m.store.Templates()
	if err != nil {
		return err
	}
	m.tasks = tasks
	m.groups = m.projector.Build(templates, m.today)
	m.items = nil
	for _, g := range m.groups {
		m.items = append(m.items, g.Items...)
	}
	m.cursor = clampCursor(m.cursor, m.rows())
	return nil
}

func (m Model) rows() int {
	if m.view == viewAgenda {
		return len(m.items)
	}
	return len(m.tasks)
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.form != nil {
			return m.updateScheduleMode(msg.String(), msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(msg.String())
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.mode == modeAdd {
		return m.updateAddMode(key, msg)
	}
	return m.updateListMode(key)
}

func (m Model) updateAddMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel:
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Cancelled"
		return m, nil
	case m.cfg.Keys.Confirm:
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			m.status = "Name cannot be empty"
			return m, nil
		}
		inst, err := m.store.AddAdhoc(name, 1, m.today)
		if err != nil {
			m.status = fmt.Sprintf("save failed: %v", err)
			return m, nil
		}
		if err := m.reload(); err != nil {
			m.status = fmt.Sprintf("reload failed: %v", err)
		} else {
			m.status = "Added mission"
			m.cursor = clampCursor(m.indexOfTask(inst.ID), len(m.tasks))
		}
		m.input.SetValue("")
		m.input.Blur()
		m.mode = modeList
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", m.cfg.Keys.Quit:
		return m, tea.Quit
	case m.cfg.Keys.Down, "down":
		if m.rows() == 0 {
			return m, nil
		}
		m.cursor = clampCursor(m.cursor+1, m.rows())
	case m.cfg.Keys.Up, "up":
		if m.cursor > 0 {
			m.cursor = clampCursor(m.cursor-1, m.rows())
		}
	case m.cfg.Keys.SwitchView:
		if m.view == viewToday {
			m.view = viewAgenda
			m.status = "Agenda"
		} else {
			m.view = viewToday
			m.status = "Today"
		}
		m.cursor = clampCursor(0, m.rows())
	case m.cfg.Keys.Add:
		m.mode = modeAdd
		m.input.Placeholder = "Mission name"
		m.input.Focus()
		m.status = "Add mode: type a name and press Enter"
	case m.cfg.Keys.Schedule:
		return m.startSchedule()
	case m.cfg.Keys.Toggle:
		if m.view != viewToday || len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		if err := m.store.SetCompleted(t.ID, !t.Completed); err != nil {
			m.status = fmt.Sprintf("toggle failed: %v", err)
			return m, nil
		}
		m.status = "Toggled mission"
		return m.afterChange()
	case m.cfg.Keys.Repetition:
		if m.view != viewToday || len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		if t.Completed {
			m.status = "Already complete"
			return m, nil
		}
		if err := m.store.AddRepetition(t.ID); err != nil {
			m.status = fmt.Sprintf("update failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("%s: %d/%d", t.Name, t.CurrentRepetitions+1, max(t.Repetitions, 1))
		return m.afterChange()
	case m.cfg.Keys.Skip:
		if m.view != viewAgenda || len(m.items) == 0 {
			return m, nil
		}
		it := m.items[m.cursor]
		if err := m.store.AddException(it.TemplateID, it.Date); err != nil {
			m.status = fmt.Sprintf("skip failed: %v", err)
			return m, nil
		}
		m.status = fmt.Sprintf("Skipped %s on %s", it.Name, recurrence.FormatDate(it.Date))
		return m.afterChange()
	case m.cfg.Keys.Delete:
		return m.startDelete()
	}
	return m, nil
}

func (m Model) afterChange() (tea.Model, tea.Cmd) {
	if err := m.reload(); err != nil {
		m.status = fmt.Sprintf("reload failed: %v", err)
	}
	return m, nil
}

func (m Model) startDelete() (tea.Model, tea.Cmd) {
	switch m.view {
	case viewToday:
		if len(m.tasks) == 0 {
			return m, nil
		}
		t := m.tasks[m.cursor]
		m.pendingDel = &pendingDelete{instanceID: t.ID, name: t.Name}
		m.status = fmt.Sprintf("Delete \"%s\" for today? y/n", t.Name)
	case viewAgenda:
		if len(m.items) == 0 {
			return m, nil
		}
		it := m.items[m.cursor]
		if !it.Canonical {
			m.status = fmt.Sprintf("Only the first occurrence deletes a schedule; press %s to skip this one", m.cfg.Keys.Skip)
			return m, nil
		}
		m.pendingDel = &pendingDelete{templateID: it.TemplateID, name: it.Name}
		m.status = fmt.Sprintf("Delete schedule \"%s\" and all future occurrences? y/n", it.Name)
	}
	m.confirmDel = true
	return m, nil
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.cfg.Keys.Cancel:
		m.status = "Delete cancelled"
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case "y", "Y":
		p := m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil
		if p == nil {
			m.status = "Nothing to delete"
			return m, nil
		}
		var err error
		if p.templateID != "" {
			err = m.store.DeleteTemplate(p.templateID)
		} else {
			err = m.store.DeleteInstance(p.instanceID)
		}
		if err != nil {
			m.status = fmt.Sprintf("delete failed: %v", err)
			return m, nil
		}
		m.status = "Deleted " + p.name
		return m.afterChange()
	default:
		return m, nil
	}
}

func (m Model) startSchedule() (tea.Model, tea.Cmd) {
	m.form = newScheduleForm(m.today)
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.input.Focus()
	m.mode = modeSchedule
	m.status = m.formPrompt()
	return m, nil
}

func (m Model) updateScheduleMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key {
	case m.cfg.Keys.Cancel, "esc":
		m.form = nil
		m.mode = modeList
		m.input.SetValue("")
		m.input.Blur()
		m.status = "Schedule cancelled"
		return m, nil
	case "tab", "down":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index+1, formFieldCount)
		m.syncFormInput()
		return m, nil
	case "shift+tab", "up":
		m.form.setCurrentValue(m.input.Value())
		m.form.index = wrapIndex(m.form.index-1, formFieldCount)
		m.syncFormInput()
		return m, nil
	case m.cfg.Keys.Confirm, "enter":
		m.form.setCurrentValue(m.input.Value())
		if m.form.last() {
			return m.saveSchedule()
		}
		m.form.index++
		m.syncFormInput()
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *Model) syncFormInput() {
	m.input.SetValue(m.form.currentValue())
	m.input.Placeholder = m.form.currentLabel()
	m.status = m.formPrompt()
}

func (m Model) saveSchedule() (tea.Model, tea.Cmd) {
	t, err := m.form.template()
	if err != nil {
		m.status = fmt.Sprintf("invalid: %v", err)
		return m, nil
	}
	if err := m.store.SaveTemplate(t); err != nil {
		m.status = fmt.Sprintf("save failed: %v", err)
		return m, nil
	}
	m.form = nil
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()

	// a schedule due today shows up in today's list right away
	if _, err := m.runner.Run(context.Background(), m.today); err != nil {
		m.status = fmt.Sprintf("materialize failed: %v", err)
		return m, nil
	}
	m.status = "Scheduled " + t.Describe()
	return m.afterChange()
}

func (m Model) formPrompt() string {
	if m.form == nil {
		return ""
	}
	return fmt.Sprintf("Editing %s (field %d of %d). Enter to advance, Esc to cancel, tab to move.",
		m.form.currentLabel(), m.form.index+1, formFieldCount)
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Quest"))
	b.WriteString(dimStyle.Render("  " + recurrence.FormatDate(m.today)))
	b.WriteString("\n\n")

	switch {
	case m.form != nil:
		b.WriteString(headerStyle.Render("Schedule a mission"))
		b.WriteString("\n\n")
		b.WriteString(m.renderForm())
		b.WriteString("\n")
		b.WriteString(m.input.View())
	case m.view == viewAgenda:
		b.WriteString(m.renderAgenda())
	default:
		b.WriteString(m.renderToday())
		if m.mode == modeAdd {
			b.WriteString("\n")
			b.WriteString(m.input.View())
		}
	}

	b.WriteString("\n\n")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(renderHelp(m.cfg.Keys, m.view)))

	return b.String()
}

func renderHelp(k config.Keymap, v view) string {
	if v == viewAgenda {
		return fmt.Sprintf("%s/%s move • %s skip date • %s delete schedule • %s schedule • %s today • %s quit",
			k.Up, k.Down, k.Skip, k.Delete, k.Schedule, k.SwitchView, k.Quit)
	}
	return fmt.Sprintf("%s/%s move • %s add • %s schedule • %q toggle • %s +1 rep • %s delete • %s agenda • %s quit",
		k.Up, k.Down, k.Add, k.Schedule, k.Toggle, k.Repetition, k.Delete, k.SwitchView, k.Quit)
}

func (m Model) renderToday() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Today"))
	b.WriteString("\n")
	if len(m.tasks) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Nothing due. Press '%s' to add a mission.", m.cfg.Keys.Add)))
		return b.String()
	}
	earned, total := 0, 0
	for i, t := range m.tasks {
		cursor := " "
		if m.cursor == i && m.mode == modeList {
			cursor = ">"
		}
		checkbox := "[ ]"
		if t.Completed {
			checkbox = "[x]"
			earned += t.Points
		}
		total += t.Points

		body := fmt.Sprintf("%s %s %s", cursor, checkbox, t.Name)
		if reps := max(t.Repetitions, 1); reps > 1 {
			body += fmt.Sprintf(" (%d/%d)", t.CurrentRepetitions, reps)
		}
		body += dimStyle.Render(fmt.Sprintf("  %d pts", t.Points))
		switch {
		case t.Completed:
			body = doneStyle.Render(body)
		case m.cursor == i && m.mode == modeList:
			body = selectedStyle.Render(body)
		}
		b.WriteString(body)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d/%d points", earned, total)))
	return b.String()
}

func (m Model) renderAgenda() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Agenda"))
	b.WriteString("\n")
	if len(m.items) == 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Nothing scheduled. Press '%s' to schedule a mission.", m.cfg.Keys.Schedule)))
		return b.String()
	}
	row := 0
	for _, g := range m.groups {
		b.WriteString(g.Label)
		b.WriteString("\n")
		for _, it := range g.Items {
			cursor := " "
			if m.cursor == row {
				cursor = ">"
			}
			body := fmt.Sprintf("%s   %s", cursor, it.Name)
			if it.Canonical {
				body += dimStyle.Render("  (first)")
			}
			if m.cursor == row {
				body = selectedStyle.Render(body)
			}
			b.WriteString(body)
			b.WriteString("\n")
			row++
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m Model) renderForm() string {
	if m.form == nil {
		return ""
	}
	var b strings.Builder
	for i, name := range formFields() {
		prefix := " "
		if i == m.form.index {
			prefix = ">"
		}
		val := m.form.values[i]
		if strings.TrimSpace(val) == "" {
			val = "(empty)"
		}
		b.WriteString(fmt.Sprintf("%s %-34s : %s\n", prefix, name, val))
	}
	return b.String()
}

func (m Model) indexOfTask(id string) int {
	for i, t := range m.tasks {
		if t.ID == id {
			return i
		}
	}
	return m.cursor
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
