// Package tui provides the interactive Bubble Tea dashboard for finview.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/fetch"
	"github.com/theirongolddev/finview/internal/finapi"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/pipeline"
	"github.com/theirongolddev/finview/internal/projection"
	"github.com/theirongolddev/finview/internal/session"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Deps carries the services the dashboard reads from and writes to.
type Deps struct {
	Loader      *pipeline.Loader
	Session     *session.Session
	Drafts      projection.KV // nil disables draft persistence
	Config      config.Config
	ConfigPath  string
	StorePath   string
	Logger      *log.Logger
	CacheCounts func() (hits, misses int64)
}

// guards hold one fetch.Guard per view so late responses for a query the
// user has moved away from are dropped.
type guards struct {
	cal      fetch.Guard
	upcoming fetch.Guard
	cats     fetch.Guard
	search   fetch.Guard
	preds    fetch.Guard
	interval fetch.Guard
	movers   fetch.Guard
	balances fetch.Guard
	detail   fetch.Guard
}

// App is the root Bubble Tea model.
type App struct {
	deps Deps
	cfg  config.Config
	log  *log.Logger
	now  func() time.Time

	loaded      bool
	autoRefresh bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	notice    string
	noticeErr bool
	noticeAt  time.Time

	// Per-tab state
	cal      calendarState
	proj     projectionState
	stocks   stocksState
	cats     categoriesState
	settings settingsState

	// Modal huh form (setup, add transaction, projection edits)
	form      *huh.Form
	formKind  formKind
	formVals  *formValues
	needSetup bool

	spinner spinner.Model
	guards  *guards
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	tickInterval = 250 * time.Millisecond
	noticeTTL    = 6 * time.Second
	searchDelay  = 300 * time.Millisecond
)

// NewApp creates a new TUI app model.
func NewApp(deps Deps, needSetup bool) App {
	if deps.Logger == nil {
		deps.Logger = log.Nop()
	}
	if deps.ConfigPath == "" {
		deps.ConfigPath = config.Path()
	}
	now := time.Now
	if deps.Loader != nil {
		now = deps.Loader.Now
	}

	theme.SetActive(deps.Config.Appearance.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	today := calendar.StartOfDay(now())
	fallback := projection.DefaultInput(today)
	input := fallback
	if deps.Drafts != nil {
		input = projection.LoadDraft(deps.Drafts, fallback)
	}

	return App{
		deps:        deps,
		cfg:         deps.Config,
		log:         deps.Logger.WithComponent(log.ComponentTUI),
		now:         now,
		autoRefresh: deps.Config.TUI.AutoRefresh,
		needSetup:   needSetup,
		cal:         newCalendarState(calendar.ParseViewMode(deps.Config.General.DefaultView), today),
		proj:        projectionState{input: input},
		stocks:      newStocksState(),
		spinner:     sp,
		guards:      &guards{},
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.spinner.Tick,
		tickCmd(),
		a.loadCalendarCmd(false),
		a.loadUpcomingCmd(false),
		a.loadBalancesCmd(),
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.form != nil {
			a.form = a.form.WithWidth(a.formWidth()).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.form != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}
		if a.form != nil {
			return a.updateForm(msg)
		}
		return a.updateKey(msg)

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		return a.onTick()

	case rangeMsg:
		return a.onRange(msg)
	case upcomingMsg:
		return a.onUpcoming(msg)
	case txSavedMsg:
		return a.onTxSaved(msg)
	case categoriesMsg:
		return a.onCategories(msg)
	case searchDebounceMsg:
		return a.onSearchDebounce(msg)
	case searchResultMsg:
		return a.onSearchResult(msg)
	case moversMsg:
		return a.onMovers(msg)
	case predictionsMsg:
		return a.onPredictions(msg)
	case intervalMsg:
		return a.onInterval(msg)
	case balancesMsg:
		return a.onBalances(msg)
	case detailMsg:
		return a.onDetail(msg)
	}

	// Forward unhandled messages to the active form (cursor blinks, etc.)
	if a.form != nil {
		return a.updateForm(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	// Text inputs own the keyboard while focused
	if a.activeTab == components.TabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == components.TabStocks && a.stocks.searching {
		return a.updateStocksSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	var (
		handled bool
		model   tea.Model
		cmd     tea.Cmd
	)
	switch a.activeTab {
	case components.TabCalendar:
		model, cmd, handled = a.updateCalendarKey(key)
	case components.TabProjections:
		model, cmd, handled = a.updateProjectionsKey(key)
	case components.TabStocks:
		model, cmd, handled = a.updateStocksKey(key)
	case components.TabSettings:
		model, cmd, handled = a.updateSettingsKey(key)
	}
	if handled {
		return model, cmd
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "r":
		return a.refreshActive()
	case "R":
		a.autoRefresh = !a.autoRefresh
		a.cfg.TUI.AutoRefresh = a.autoRefresh
		if err := config.SaveFile(a.deps.ConfigPath, a.cfg); err != nil {
			a.log.Warn("saving auto-refresh setting failed", log.FieldError, err)
		}
		return a, nil
	case "left":
		return a.switchTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
	case "right", "tab":
		return a.switchTab((a.activeTab + 1) % len(components.Tabs))
	}

	if r := []rune(key); len(r) == 1 {
		if idx := components.TabIdxByKey(r[0]); idx >= 0 {
			return a.switchTab(idx)
		}
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case components.TabCalendar:
			return a.moveSelection(-1)
		case components.TabStocks:
			a.stocks.moveCursor(-1)
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case components.TabCalendar:
			return a.moveSelection(1)
		case components.TabStocks:
			a.stocks.moveCursor(1)
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				return a.switchTab(tab)
			}
		}
	}
	return a, nil
}

// switchTab leaves the current tab, dropping its in-flight polls, and
// kicks off whatever the new tab needs.
func (a App) switchTab(idx int) (tea.Model, tea.Cmd) {
	if idx == a.activeTab {
		return a, nil
	}
	switch a.activeTab {
	case components.TabCategories:
		a = a.leaveCategories()
	case components.TabStocks:
		a = a.leaveStocks()
	}
	a.activeTab = idx
	cmd := a.pollActive(true)
	return a, cmd
}

// pollActive returns the fetches the active tab is due for. entering is
// set on a tab switch so first loads do not wait for the next tick.
func (a *App) pollActive(entering bool) tea.Cmd {
	now := a.now()
	switch a.activeTab {
	case components.TabCategories:
		if a.cats.due(now, a.cfg.Polling.Categories.Or(config.DefaultCategoriesPoll), a.autoRefresh) {
			return a.startCategories()
		}
	case components.TabStocks:
		var cmds []tea.Cmd
		if entering && !a.stocks.moversLoaded && !a.stocks.moversLoading {
			cmds = append(cmds, a.startMovers(false))
		}
		if a.stocks.predsDue(now, a.cfg.Polling.Predictions.Or(config.DefaultPredictionsPoll), a.autoRefresh) {
			// The first load may come from cache; later polls go to the backend.
			cmds = append(cmds, a.startPredictions(!a.stocks.predsPolledAt.IsZero()))
		}
		return tea.Batch(cmds...)
	}
	return nil
}

func (a App) onTick() (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd()}
	if a.notice != "" && a.now().Sub(a.noticeAt) > noticeTTL {
		a.notice = ""
	}
	if a.loaded && a.form == nil {
		if cmd := a.pollActive(false); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a App) refreshActive() (tea.Model, tea.Cmd) {
	switch a.activeTab {
	case components.TabCalendar:
		a.cal.loading = true
		cmd := tea.Batch(a.loadCalendarCmd(true), a.loadUpcomingCmd(true), a.loadBalancesCmd())
		return a, cmd
	case components.TabCategories:
		cmd := a.startCategories()
		return a, cmd
	case components.TabStocks:
		cmds := []tea.Cmd{a.startMovers(true), a.startPredictions(true)}
		if a.stocks.ticker != "" {
			cmds = append(cmds, a.startInterval(a.stocks.ticker, true), a.startDetail(a.stocks.ticker, true))
		}
		return a, tea.Batch(cmds...)
	}
	return a, nil
}

// note shows a transient message in the status bar.
func (a *App) note(msg string) {
	a.notice = msg
	a.noticeErr = false
	a.noticeAt = a.now()
}

// noteErr reports a failed fetch. Unauthorized responses get the sign-in
// hint; the loader has already cleared the stored token.
func (a *App) noteErr(err error) {
	a.notice = errorText(err)
	a.noticeErr = true
	a.noticeAt = a.now()
	a.log.Debug("fetch failed", log.FieldError, err)
}

func errorText(err error) string {
	switch {
	case errors.Is(err, finapi.ErrUnauthorized), errors.Is(err, session.ErrNoToken):
		return "not authenticated, run `finview login`"
	case errors.Is(err, finapi.ErrRateLimited):
		return "rate limited by the backend, try again shortly"
	}
	return err.Error()
}

func (a App) authenticated() bool {
	return a.deps.Session.Authenticated()
}

func (a App) contentWidth() int {
	cw := a.width
	if cw > maxContentWidth {
		cw = maxContentWidth
	}
	return cw
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.form != nil {
		return a.viewForm()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := a.height
	if h < 5 {
		h = 5
	}

	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  finview needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ finview"))
	b.WriteString(subtitleStyle.Render(" · Personal Finance"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	start, end := calendar.Range(a.cal.mode, a.cal.ref)
	b.WriteString(subtitleStyle.Render(fmt.Sprintf(" Loading %s – %s…",
		start.Format("Jan 2"), end.Format("Jan 2, 2006"))))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"c p s g x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"h l", "Previous / Next day"},
			{"j k", "Week down / up, list cursor"},
			{"[ ]", "Previous / Next week or month"},
			{"t", "Jump to today"},
		}},
		{"Actions", []struct{ key, desc string }{
			{"w m", "Week / Month view"},
			{"a", "Add transaction"},
			{"e", "Edit projection plan"},
			{"/", "Search stocks"},
			{"Enter", "Select / Edit"},
			{"r", "Refresh"},
			{"R", "Toggle auto-refresh"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, s := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(s.title))
		b.WriteString("\n")
		for _, bind := range s.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + context pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	start, end := calendar.Range(a.cal.mode, a.cal.ref)
	pill := pillStyle.Render(" ") +
		pillAccent.Render(a.cal.mode.String()) +
		pillStyle.Render(" │ ") +
		pillAccent.Render(start.Format("Jan 2")+" – "+end.Format("Jan 2, 2006")) +
		pillStyle.Render(" │ "+a.deps.Config.Backend.BaseURL+" ")
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.statusInfo())

	// 3. Content zone height
	contentH := h - lipgloss.Height(header) - lipgloss.Height(statusBar)
	if contentH < minContentHeight {
		contentH = minContentHeight
	}

	// 4. Tab content
	var content string
	switch a.activeTab {
	case components.TabCalendar:
		content = a.renderCalendarTab(cw)
	case components.TabProjections:
		content = a.renderProjectionsTab(cw)
	case components.TabStocks:
		content = a.renderStocksTab(cw)
	case components.TabCategories:
		content = a.renderCategoriesTab(cw)
	case components.TabSettings:
		content = a.renderSettingsTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, fill background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusInfo() components.StatusInfo {
	info := components.StatusInfo{
		AutoRefresh:   a.autoRefresh,
		Authenticated: a.authenticated(),
		Message:       a.notice,
		Error:         a.noticeErr,
	}

	var at time.Time
	var refreshing bool
	switch a.activeTab {
	case components.TabCalendar:
		at, refreshing = a.cal.fetchedAt, a.cal.loading
		if a.cal.fromCache {
			info.DataAge = "cached"
		}
	case components.TabStocks:
		at, refreshing = a.stocks.movers.FetchedAt, a.stocks.moversLoading || a.stocks.predsLoading
	case components.TabCategories:
		at, refreshing = a.cats.fetchedAt, a.cats.loading
	}
	info.Refreshing = refreshing
	if info.DataAge == "" && !at.IsZero() {
		info.DataAge = cli.FormatAge(at, a.now())
	}
	return info
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		result.WriteString(lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg)))
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
