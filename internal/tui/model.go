// Package tui implements a terminal UI for a planner session.
package tui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/twiced-technology-gmbh/studyplanner/internal/gate"
	"github.com/twiced-technology-gmbh/studyplanner/internal/planner"
	"github.com/twiced-technology-gmbh/studyplanner/internal/task"
	"github.com/twiced-technology-gmbh/studyplanner/internal/view"
)

// mode represents the current screen state.
type mode int

const (
	modeList mode = iota
	modeSearch
	modeForm
	modeConfirm
	modeExportError
)

// Key and layout constants.
const (
	keyEsc = "esc"

	listChrome   = 4 // header, blank line, blank line, status bar
	errorChrome  = 1 // extra line when an error is displayed
	cardLines    = 4 // two content lines plus borders
	tickInterval = 30 * time.Second
	storeTimeout = 30 * time.Second
)

// ExportFunc renders tasks to an image and returns where it was written.
type ExportFunc func(tasks []task.Task) (string, error)

// Options configures a Model.
type Options struct {
	Name     string
	Priority task.Priority
	Category task.Category
	Location *time.Location
	Export   ExportFunc
}

// Model is the top-level bubbletea model.
type Model struct {
	session *planner.Session
	opts    Options
	now     func() time.Time

	visible []task.Task
	loading bool
	cursor  int
	offset  int
	mode    mode
	width   int
	height  int

	search textinput.Model
	form   *form
	prompt gate.Prompt

	// err is the last non-blocking failure, shown in the status area.
	err error
	// exportErr blocks the screen until dismissed.
	exportErr error
	info      string
}

// New creates a Model over session.
func New(session *planner.Session, opts Options) *Model {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Priority == "" {
		opts.Priority = task.Medium
	}
	if opts.Category == "" {
		opts.Category = task.Homework
	}
	search := textinput.New()
	search.Prompt = "/"
	search.Placeholder = "search name, subject, notes"
	search.CharLimit = 80

	m := &Model{
		session: session,
		opts:    opts,
		now:     time.Now,
		search:  search,
	}
	m.refresh()
	return m
}

// SetNow overrides the clock used for urgency display (for testing).
func (m *Model) SetNow(fn func() time.Time) {
	m.now = fn
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickCmd())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil
	case ReloadMsg:
		return m, m.loadCmd()
	case ChangedMsg:
		m.refresh()
		return m, nil
	case TickMsg:
		m.refresh()
		return m, tickCmd()
	case doneMsg:
		m.err = msg.err
		m.refresh()
		return m, nil
	case exportMsg:
		if msg.err != nil {
			m.exportErr = msg.err
			m.mode = modeExportError
			return m, nil
		}
		m.info = "Exported " + msg.path
		return m, nil
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	switch m.mode {
	case modeForm:
		return m.viewForm()
	case modeConfirm:
		return m.viewConfirm()
	case modeExportError:
		return m.viewExportError()
	default:
		return m.viewList()
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys.
	if key.Matches(msg, key.NewBinding(key.WithKeys("ctrl+c"))) {
		return m, tea.Quit
	}

	switch m.mode {
	case modeSearch:
		return m.handleSearchKey(msg)
	case modeForm:
		return m.handleFormKey(msg)
	case modeConfirm:
		return m.handleConfirmKey(msg)
	case modeExportError:
		// Any key dismisses the dialog.
		m.exportErr = nil
		m.mode = modeList
		return m, nil
	default:
		return m.handleListKey(msg)
	}
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", keyEsc:
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.ensureVisible()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
	case "1", "2", "3", "4":
		m.setFilter(view.Filters[msg.String()[0]-'1'])
	case "tab":
		m.setFilter(next(view.Filters, m.session.Options().Filter))
	case "s":
		m.session.SetSort(next(view.Sorts, m.session.Options().Sort))
		m.refresh()
	case "/":
		m.mode = modeSearch
		m.search.SetValue(m.session.Options().Search)
		return m, m.search.Focus()
	case " ":
		if t, ok := m.current(); ok {
			if _, err := m.session.ToggleSelect(t.ID); err != nil {
				m.err = err
			}
		}
	case "A":
		m.session.SelectAll()
	case "x":
		return m, m.startToggle()
	case "d":
		m.startDelete()
	case "a":
		m.form = newForm(nil, m.opts.Priority, m.opts.Category)
		m.mode = modeForm
		return m, textinput.Blink
	case "e":
		if t, ok := m.current(); ok {
			m.form = newForm(&t, m.opts.Priority, m.opts.Category)
			m.mode = modeForm
			return m, textinput.Blink
		}
	case "E":
		return m, m.exportCmd()
	case "r":
		return m, m.loadCmd()
	}
	return m, nil
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.search.Blur()
		m.mode = modeList
		return m, nil
	case keyEsc:
		m.search.Blur()
		m.search.SetValue("")
		m.session.SetSearch("")
		m.mode = modeList
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.session.SetSearch(m.search.Value())
	m.cursor = 0
	m.refresh()
	return m, cmd
}

func (m *Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case keyEsc:
		m.form = nil
		m.mode = modeList
		return m, nil
	case "tab", "down":
		f.move(1)
		return m, nil
	case "shift+tab", "up":
		f.move(-1)
		return m, nil
	case "left":
		if f.focus >= textFields {
			f.cycle(-1)
			return m, nil
		}
	case "right", " ":
		if f.focus >= textFields {
			f.cycle(1)
			return m, nil
		}
	case "enter", "ctrl+s":
		if msg.String() == "enter" && f.focus < fieldCount-1 {
			f.move(1)
			return m, nil
		}
		return m, m.submitForm()
	}
	return m, f.update(msg)
}

func (m *Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	g := m.session.Gate()
	switch msg.String() {
	case "y", "Y", "enter":
		action := g.Accept()
		m.mode = modeList
		if action == nil {
			return m, nil
		}
		return m, m.mutate(action)
	case "n", "N", keyEsc, "q":
		g.Cancel()
		m.mode = modeList
	}
	return m, nil
}

// startToggle marks the current task complete or reopens it. Completing
// asks for confirmation first.
func (m *Model) startToggle() tea.Cmd {
	t, ok := m.current()
	if !ok {
		return nil
	}
	p, gated, err := m.session.RequestToggle(t.ID)
	if err != nil {
		m.err = err
		return nil
	}
	if gated {
		m.prompt = p
		m.mode = modeConfirm
		return nil
	}
	return m.mutate(func(ctx context.Context) error {
		_, err := m.session.Toggle(ctx, t.ID)
		return err
	})
}

func (m *Model) startDelete() {
	t, ok := m.current()
	if !ok {
		return
	}
	p, err := m.session.RequestDelete(t.ID)
	if err != nil {
		m.err = err
		return
	}
	m.prompt = p
	m.mode = modeConfirm
}

func (m *Model) submitForm() tea.Cmd {
	f := m.form
	d, ok := f.draft(m.opts.Location)
	if !ok {
		return nil
	}
	m.form = nil
	m.mode = modeList

	if f.editing != nil {
		edited := f.editing.WithEdits(d)
		return m.mutate(func(ctx context.Context) error {
			_, err := m.session.Update(ctx, edited)
			return err
		})
	}
	return m.mutate(func(ctx context.Context) error {
		_, err := m.session.Add(ctx, d)
		return err
	})
}

// mutate runs fn as a command off the event loop. The repository applies
// the change optimistically inside fn and notifies through ChangedMsg; the
// returned doneMsg only reports the store outcome.
func (m *Model) mutate(fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return doneMsg{err: fn(ctx)}
	}
}

func (m *Model) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()
		return doneMsg{err: m.session.Load(ctx)}
	}
}

func (m *Model) exportCmd() tea.Cmd {
	tasks := m.session.Selected()
	if len(tasks) == 0 {
		m.err = errNothingSelected
		return nil
	}
	if m.opts.Export == nil {
		m.err = errors.New("export is not configured")
		return nil
	}
	export := m.opts.Export
	return func() tea.Msg {
		path, err := export(tasks)
		return exportMsg{path: path, err: err}
	}
}

var errNothingSelected = errors.New("select at least one task to export")

func (m *Model) setFilter(f view.Filter) {
	m.session.SetFilter(f)
	m.cursor = 0
	m.offset = 0
	m.refresh()
}

// refresh rebuilds the visible list from the session.
func (m *Model) refresh() {
	snap := m.session.Repository().Snapshot()
	m.loading = snap.Loading
	if snap.LoadErr != nil && m.err == nil {
		m.err = snap.LoadErr
	}
	m.visible = m.session.Visible()
	m.clampCursor()
}

func (m *Model) current() (task.Task, bool) {
	if m.cursor >= 0 && m.cursor < len(m.visible) {
		return m.visible[m.cursor], true
	}
	return task.Task{}, false
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

// pageSize returns how many cards fit on screen.
func (m *Model) pageSize() int {
	h := m.height - listChrome
	if m.err != nil || m.info != "" {
		h -= errorChrome
	}
	if n := h / cardLines; n > 0 {
		return n
	}
	return 1
}

// ensureVisible adjusts the scroll offset so the cursor is on screen.
func (m *Model) ensureVisible() {
	n := m.pageSize()
	switch {
	case m.cursor >= m.offset+n:
		m.offset = m.cursor - n + 1
	case m.cursor < m.offset:
		m.offset = m.cursor
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// next returns the element after cur, wrapping around.
func next[T comparable](list []T, cur T) T {
	for i, v := range list {
		if v == cur {
			return list[(i+1)%len(list)]
		}
	}
	return list[0]
}

// --- Messages ---

// ReloadMsg is sent by the file watcher to trigger a reload from the store.
type ReloadMsg struct{}

// ChangedMsg is sent when the repository collection changed.
type ChangedMsg struct{}

// TickMsg is sent periodically to refresh urgency colors.
type TickMsg struct{}

type doneMsg struct {
	err error
}

type exportMsg struct {
	path string
	err  error
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return TickMsg{} })
}
