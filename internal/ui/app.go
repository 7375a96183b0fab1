package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/guardcore/guarddash/internal/guardcore"
	"github.com/guardcore/guarddash/internal/prefs"
	"github.com/guardcore/guarddash/internal/route"
	"github.com/guardcore/guarddash/internal/state"
	"github.com/guardcore/guarddash/internal/toast"
)

// Session is the account and data surface the dashboard drives.
type Session interface {
	Login(ctx context.Context, username, password, totpCode string) (*guardcore.AdminToken, error)
	SetAPIKey(key string) error
	Logout()
	SetNodeEnabled(ctx context.Context, nodeID int64, enabled bool) error
	SetAdminEnabled(ctx context.Context, username string, enabled bool) error
	SetSubscriptionEnabled(ctx context.Context, username string, enabled bool) error
	ExportBackup(ctx context.Context, dir string, now time.Time) (string, error)
}

// Refresher exposes the per-view refresh controllers.
type Refresher interface {
	RefreshNow(path string) bool
	SetInterval(path string, d time.Duration) error
	Interval(path string) time.Duration
	Refreshing(path string) bool
	LastRefresh(path string) (time.Time, bool)
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Session   Session
	Refresher Refresher
	Store     *state.Store
	Router    *route.Router
	// Toasts receives notifications raised by the UI itself; it is normally
	// the same limiter that feeds Feed.
	Toasts    toast.Notifier
	Feed      *Feed
	Storage   prefs.Storage
	ThemeName string
	BaseURL   string
	BackupDir string
	// Tick is how often the UI re-reads the store. Zero means 500ms.
	Tick time.Duration
	Now  func() time.Time
}

// intervalSteps are the refresh periods +/- step through.
var intervalSteps = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
	time.Minute,
	2 * time.Minute,
	5 * time.Minute,
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx       context.Context
	session   Session
	refresher Refresher
	store     *state.Store
	router    *route.Router
	notify    toast.Notifier
	feed      *Feed
	storage   prefs.Storage
	baseURL   string
	backupDir string
	tick      time.Duration
	now       func() time.Time
	keys      keyMap

	theme    Theme
	width    int
	height   int
	ready    bool
	showHelp bool

	path      string
	snapshot  state.Snapshot
	table     table.Model
	tableKeys []string
	login     loginForm
	toasts    []activeToast
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	tick := opts.Tick
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	store := opts.Store
	if store == nil {
		store = &state.Store{}
	}
	router := opts.Router
	if router == nil {
		router = route.New(route.Home, nil)
	}
	feed := opts.Feed
	if feed == nil {
		feed = NewFeed()
	}
	notify := opts.Toasts
	if notify == nil {
		notify = feed
	}

	theme := GetTheme(opts.ThemeName)
	m := Model{
		ctx:       ctx,
		session:   opts.Session,
		refresher: opts.Refresher,
		store:     store,
		router:    router,
		notify:    notify,
		feed:      feed,
		storage:   opts.Storage,
		baseURL:   opts.BaseURL,
		backupDir: opts.BackupDir,
		tick:      tick,
		now:       now,
		keys:      DefaultKeyMap(),
		theme:     theme,
		path:      router.Current(),
		snapshot:  store.Snapshot(),
		table:     newTable(theme),
		login:     newLoginForm(),
	}
	m.rebuildTable()
	return m
}

func newTable(theme Theme) table.Model {
	t := table.New(table.WithFocused(true), table.WithHeight(10))
	t.SetStyles(tableStyles(theme))
	return t
}

func tableStyles(theme Theme) table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(theme.Border)).
		BorderBottom(true).
		Foreground(lipgloss.Color(theme.Accent)).
		Bold(true)
	s.Cell = s.Cell.Foreground(lipgloss.Color(theme.Text))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color(theme.SelectionText)).
		Background(lipgloss.Color(theme.SelectionBg)).
		Bold(false)
	return s
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tickCmd(m.tick),
		m.feed.next(m.ctx),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.path == route.Login {
			return m.handleLoginKey(msg)
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.table.SetHeight(max(m.height-6, 3))
		m.table.SetWidth(m.width)
		return m, nil

	case tickMsg:
		m.toasts = expireToasts(m.toasts, m.now())
		m.sync()
		return m, tickCmd(m.tick)

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.rebuildTable()
		return m, nil

	case toastMsg:
		m.toasts = pushToast(m.toasts, toast.Toast(msg), m.now())
		return m, m.feed.next(m.ctx)

	case loginResultMsg:
		m = m.handleLoginResult(msg)
		m.sync()
		return m, nil

	case actionMsg:
		m.reportAction(msg)
		m.sync()
		return m, nil
	}

	if m.path == route.Login {
		var cmd tea.Cmd
		if m.login.useKey {
			m.login.apiKey, cmd = m.login.apiKey.Update(msg)
		} else {
			m.login.inputs[m.login.focus], cmd = m.login.inputs[m.login.focus].Update(msg)
		}
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var body string
	if m.path == route.Login {
		body = m.renderLogin()
	} else {
		var b strings.Builder
		b.WriteString(m.renderHeader())
		b.WriteString("\n")
		b.WriteString(m.renderTabs())
		b.WriteString("\n")
		b.WriteString(m.renderContent())
		body = b.String()
	}

	if toasts := m.renderToasts(); toasts != "" {
		body += "\n" + lipgloss.PlaceHorizontal(m.width, lipgloss.Right, toasts)
	}
	return body
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		return m.navigate(m.relativeView(1)), nil
	case key.Matches(msg, m.keys.ShiftTab):
		return m.navigate(m.relativeView(-1)), nil
	case key.Matches(msg, m.keys.ViewHome):
		return m.navigate(route.Home), nil
	case key.Matches(msg, m.keys.ViewAdmins):
		return m.navigate(route.Admins), nil
	case key.Matches(msg, m.keys.ViewNodes):
		return m.navigate(route.Nodes), nil
	case key.Matches(msg, m.keys.ViewServices):
		return m.navigate(route.Services), nil
	case key.Matches(msg, m.keys.ViewSubscriptions):
		return m.navigate(route.Subscriptions), nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.SlowerRefresh):
		m.stepInterval(1)
		return m, nil
	case key.Matches(msg, m.keys.FasterRefresh):
		m.stepInterval(-1)
		return m, nil
	case key.Matches(msg, m.keys.Enable):
		return m, m.toggleCmd(true)
	case key.Matches(msg, m.keys.Disable):
		return m, m.toggleCmd(false)
	case key.Matches(msg, m.keys.Backup):
		return m, m.backupCmd()
	case key.Matches(msg, m.keys.Logout):
		if m.session != nil {
			m.session.Logout()
		}
		m.sync()
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// sync re-reads the router and the store.
func (m *Model) sync() {
	if path := m.router.Current(); path != m.path {
		m.path = path
		m.table.SetCursor(0)
	}
	m.snapshot = m.store.Snapshot()
	m.rebuildTable()
}

func (m Model) navigate(path string) Model {
	m.router.Navigate(path)
	m.sync()
	return m
}

func (m Model) relativeView(step int) string {
	idx := 0
	for i, tab := range viewTabs {
		if tab.path == m.path {
			idx = i
			break
		}
	}
	n := len(viewTabs)
	return viewTabs[((idx+step)%n+n)%n].path
}

func (m *Model) rebuildTable() {
	data := buildTable(m.path, m.snapshot, m.now())
	// Clearing the rows before a column change resets the cursor to -1.
	cursor := max(m.table.Cursor(), 0)
	m.table.SetRows(nil)
	m.table.SetColumns(data.columns)
	m.table.SetRows(data.rows)
	m.tableKeys = data.keys
	if len(data.rows) > 0 {
		m.table.SetCursor(cursor)
	}
}

func (m *Model) cycleTheme() {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.table.SetStyles(tableStyles(m.theme))
	if m.storage == nil {
		return
	}
	if err := prefs.SetTheme(m.storage, m.theme.Name); err != nil {
		m.notify.Notify(toast.Toast{Level: toast.LevelWarning, Message: "Theme not saved", Description: err.Error()})
	}
}

func (m *Model) stepInterval(direction int) {
	if m.refresher == nil {
		return
	}
	if _, ok := refreshedView(m.path); !ok {
		return
	}
	next := nextInterval(m.refresher.Interval(m.path), direction)
	if err := m.refresher.SetInterval(m.path, next); err != nil {
		m.notify.Notify(toast.Toast{Level: toast.LevelWarning, Message: "Refresh interval unchanged", Description: err.Error()})
		return
	}
	m.notify.Notify(toast.Toast{Level: toast.LevelInfo, Message: "Refreshing every " + formatInterval(next)})
}

// nextInterval returns the step after current in direction, clamped to the
// ends of intervalSteps.
func nextInterval(current time.Duration, direction int) time.Duration {
	if direction > 0 {
		for _, step := range intervalSteps {
			if step > current {
				return step
			}
		}
		return intervalSteps[len(intervalSteps)-1]
	}
	for i := len(intervalSteps) - 1; i >= 0; i-- {
		if intervalSteps[i] < current {
			return intervalSteps[i]
		}
	}
	return intervalSteps[0]
}

func (m Model) selectedKey() (string, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.tableKeys) {
		return "", false
	}
	return m.tableKeys[idx], true
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

// actionMsg reports the outcome of a user action. API failures have already
// been toasted by the client's error handler.
type actionMsg struct {
	title  string
	detail string
	err    error
}

func (m Model) reportAction(msg actionMsg) {
	if msg.err != nil {
		var apiErr *guardcore.APIError
		if errors.As(msg.err, &apiErr) {
			return
		}
		m.notify.Notify(toast.Toast{Level: toast.LevelError, Message: msg.title + " failed", Description: msg.err.Error()})
		return
	}
	if msg.title != "" {
		m.notify.Notify(toast.Toast{Level: toast.LevelSuccess, Message: msg.title, Description: msg.detail})
	}
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	if m.refresher == nil {
		return nil
	}
	refresher, store, path := m.refresher, m.store, m.path
	return func() tea.Msg {
		refresher.RefreshNow(path)
		return snapshotMsg(store.Snapshot())
	}
}

func (m Model) toggleCmd(enabled bool) tea.Cmd {
	if m.session == nil {
		return nil
	}
	target, ok := m.selectedKey()
	if !ok {
		return nil
	}
	verb := "Disabled"
	if enabled {
		verb = "Enabled"
	}
	ctx, session, path := m.ctx, m.session, m.path

	var run func() error
	switch path {
	case route.Nodes:
		nodeID, err := strconv.ParseInt(target, 10, 64)
		if err != nil {
			return nil
		}
		run = func() error { return session.SetNodeEnabled(ctx, nodeID, enabled) }
	case route.Admins:
		run = func() error { return session.SetAdminEnabled(ctx, target, enabled) }
	case route.Subscriptions:
		run = func() error { return session.SetSubscriptionEnabled(ctx, target, enabled) }
	default:
		return nil
	}
	return func() tea.Msg {
		return actionMsg{title: fmt.Sprintf("%s %s", verb, target), err: run()}
	}
}

func (m Model) backupCmd() tea.Cmd {
	if m.session == nil {
		return nil
	}
	ctx, session, dir, now := m.ctx, m.session, m.backupDir, m.now()
	return func() tea.Msg {
		path, err := session.ExportBackup(ctx, dir, now)
		return actionMsg{title: "Backup exported", detail: path, err: err}
	}
}

// Run starts the Bubble Tea program and blocks until it exits or the
// context is cancelled.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && m.ctx.Err() != nil {
		return nil
	}
	return err
}
