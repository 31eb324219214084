// Package tui provides the interactive Bubble Tea dashboard for fintrack.
package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/theirongolddev/fintrack/internal/calendar"
	"github.com/theirongolddev/fintrack/internal/cli"
	"github.com/theirongolddev/fintrack/internal/config"
	"github.com/theirongolddev/fintrack/internal/ledger"
	"github.com/theirongolddev/fintrack/internal/logging"
	"github.com/theirongolddev/fintrack/internal/model"
	"github.com/theirongolddev/fintrack/internal/pipeline"
	"github.com/theirongolddev/fintrack/internal/store"
	"github.com/theirongolddev/fintrack/internal/tui/components"
	"github.com/theirongolddev/fintrack/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// LedgerLoadedMsg is sent when the ledger has been opened, regenerated and
// saved.
type LedgerLoadedMsg struct {
	Store    *ledger.Store
	Regen    ledger.RegenResult
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports which loading stage is running.
type ProgressMsg struct {
	Stage   string
	Current int
	Total   int
}

// RegenDoneMsg is sent when a regeneration requested from the dashboard
// completes.
type RegenDoneMsg struct {
	Result ledger.RegenResult
	Err    error
}

// Tab indexes, matching components.Tabs.
const (
	tabOverview = iota
	tabTransactions
	tabBudgets
	tabGoals
	tabRecurring
	tabSettings
)

// Options configures NewApp.
type Options struct {
	Path   string // ledger file
	Config config.Config
	Logger logrus.FieldLogger

	// Month is the first month shown. Zero means the current month.
	Month calendar.Date

	// Today overrides the clock, for tests.
	Today func() calendar.Date
}

// App is the root Bubble Tea model.
type App struct {
	// Data
	lg        *ledger.Store
	path      string
	cfg       config.Config
	log       *logrus.Entry
	loaded    bool
	loadErr   error
	loadTime  time.Duration
	lastRegen ledger.RegenResult

	clock func() calendar.Date
	today calendar.Date
	month calendar.Date // first day of the month on screen

	// Pre-computed for the month on screen
	txs         []model.Transaction // month, newest first
	stats       model.SummaryStats
	prevStats   model.SummaryStats
	dailyStats  []model.DailyStats
	expenseCats []model.CategoryStats
	budgets     []model.BudgetStatus
	goals       []pipeline.GoalReport
	rules       []model.RecurringRule

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	busy      bool
	flash     string
	flashOK   bool
	flashAt   time.Time

	// Per-tab state
	txState  transactionsState
	recState recurringState
	settings settingsState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues // shared with setupForm
	needSetup bool

	// Loading, fed by the loader goroutine through loadSub
	spinner     spinner.Model
	stage       string
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	scrollOverhead    = 10 // header + status bar + card chrome, for half-page scroll
	minHalfPageScroll = 1
	minContentHeight  = 5

	flashTTL = 4 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	clock := opts.Today
	if clock == nil {
		clock = func() calendar.Date { return calendar.Today(time.Local) }
	}
	today := clock()
	month := opts.Month
	if month.IsZero() {
		month = today
	}

	return App{
		path:      opts.Path,
		cfg:       opts.Config,
		log:       logging.Component(opts.Logger, "tui"),
		clock:     clock,
		today:     today,
		month:     month.StartOfMonth(),
		needSetup: !config.Exists(),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadLedgerCmd(a.path, a.log, a.clock, a.loadSub),
		a.spinner.Tick,
		tickCmd(),
	)
}

// monthAsOf is the date budgets are evaluated at for the month on screen.
func (a App) monthAsOf() calendar.Date {
	switch end := a.month.EndOfMonth(); {
	case end.Before(a.today):
		return end
	case a.month.After(a.today):
		return a.month
	default:
		return a.today
	}
}

func (a *App) recompute() {
	if a.lg == nil {
		return
	}
	all := a.lg.Transactions()
	start, end := a.month, a.month.EndOfMonth()

	a.txs = pipeline.FilterByTime(all, start, end)
	pipeline.SortByDate(a.txs)
	a.stats = pipeline.Aggregate(all, start, end)
	a.prevStats = pipeline.Aggregate(all, start.AddMonths(-1), start.AddDays(-1))
	a.dailyStats = pipeline.AggregateDays(all, start, end)

	budgets := a.lg.Budgets()
	a.expenseCats = pipeline.AggregateCategories(a.txs, model.Expense, budgets)
	a.budgets = a.lg.BudgetStatus(a.monthAsOf())
	a.goals = a.lg.GoalReports()
	a.rules = a.lg.Rules()

	a.txState.clamp(len(a.visibleTransactions()))
	a.recState.clamp(len(a.rules))
}

func (a *App) setFlash(msg string, ok bool) {
	a.flash = msg
	a.flashOK = ok
	a.flashAt = time.Now()
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)

	case ProgressMsg:
		a.stage = msg.Stage
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case LedgerLoadedMsg:
		a.loaded = true
		a.busy = false
		a.loadTime = msg.LoadTime
		if msg.Err != nil {
			a.loadErr = msg.Err
			return a, nil
		}
		if a.lg != nil && a.lg != msg.Store {
			a.lg.Close()
		}
		a.lg = msg.Store
		a.lastRegen = msg.Regen
		a.recompute()

		if a.needSetup && a.setupForm == nil {
			a.setupVals = defaultSetupValues(a.cfg)
			a.setupForm = newSetupForm(len(a.lg.Transactions()), a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case RegenDoneMsg:
		a.busy = false
		a.lastRegen = msg.Result
		a.recompute()
		switch {
		case msg.Err != nil:
			a.setFlash("regeneration failed: "+msg.Err.Error(), false)
		case len(msg.Result.Failed) > 0:
			a.setFlash(fmt.Sprintf("%d generated, %d rules failed", msg.Result.Generated, len(msg.Result.Failed)), false)
		default:
			a.setFlash(fmt.Sprintf("%d generated", msg.Result.Generated), true)
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case tickMsg:
		cmds := []tea.Cmd{tickCmd()}
		if a.flash != "" && time.Since(a.flashAt) > flashTTL {
			a.flash = ""
		}
		// Left open past midnight: materialize the new day's occurrences.
		if now := a.clock(); a.loaded && a.lg != nil && !now.Equal(a.today) {
			followMonth := a.month.Equal(a.today.StartOfMonth())
			a.today = now
			if followMonth {
				a.month = now.StartOfMonth()
			}
			if !a.busy {
				a.busy = true
				cmds = append(cmds, regenerateCmd(a.lg, now, a.log))
			}
		}
		return a, tea.Batch(cmds...)
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		switch a.activeTab {
		case tabTransactions:
			a.txState.move(-1, len(a.visibleTransactions()))
		case tabRecurring:
			a.recState.move(-1, len(a.rules))
		}
	case tea.MouseButtonWheelDown:
		switch a.activeTab {
		case tabTransactions:
			a.txState.move(1, len(a.visibleTransactions()))
		case tabRecurring:
			a.recState.move(1, len(a.rules))
		}
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if a.loadErr != nil {
		if key == "q" || key == "esc" {
			return a, tea.Quit
		}
		return a, nil
	}

	// First-run setup intercepts all keys
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.activeTab == tabSettings && a.settings.editing {
		return a.updateSettingsInput(msg)
	}
	if a.activeTab == tabTransactions && a.txState.searching {
		return a.updateTransactionSearch(msg)
	}

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch a.activeTab {
	case tabTransactions:
		if next, cmd, ok := a.updateTransactionsKey(key); ok {
			return next, cmd
		}
	case tabRecurring:
		if next, cmd, ok := a.updateRecurringKey(key); ok {
			return next, cmd
		}
	case tabSettings:
		if next, cmd, ok := a.updateSettingsKey(key); ok {
			return next, cmd
		}
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "[":
		a.month = a.month.AddMonths(-1)
		a.recompute()
	case "]":
		a.month = a.month.AddMonths(1)
		a.recompute()
	case ".":
		a.month = a.today.StartOfMonth()
		a.recompute()
	case "r":
		if !a.busy {
			a.busy = true
			return a, loadLedgerCmd(a.path, a.log, a.clock, a.loadSub)
		}
	case "R":
		if !a.busy {
			a.busy = true
			return a, regenerateCmd(a.lg, a.today, a.log)
		}
	case "left":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
	case "right", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
	default:
		if r := []rune(key); len(r) == 1 {
			if idx := components.TabIdxByKey(r[0]); idx >= 0 {
				a.activeTab = idx
			}
		}
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.setFlash("config not saved: "+err.Error(), false)
		} else {
			a.setFlash("config saved", true)
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) halfPage() int {
	return max((a.height-scrollOverhead)/2, minHalfPageScroll)
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
	if a.loadErr != nil {
		return a.viewError()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  fintrack needs at least %d columns.\n",
		a.width, minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) centeredCard(body string) string {
	t := theme.Active
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3).
		Render(body)
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewLoading() string {
	t := theme.Active
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ fintrack"))
	b.WriteString(subtitleStyle.Render(" · personal finances"))
	b.WriteString("\n\n")

	stage := a.stage
	if stage == "" {
		stage = "Opening ledger"
	}
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" " + stage + "…"))
	if a.progressMax > 0 {
		barW := min(max(a.width-30, 20), 40)
		b.WriteString("\n\n")
		b.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), barW))
	}
	return a.centeredCard(b.String())
}

func (a App) viewError() string {
	t := theme.Active
	errStyle := lipgloss.NewStyle().Foreground(t.Expense).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	body := errStyle.Render("Could not open the ledger") + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface).Render(a.loadErr.Error()) + "\n\n" +
		dimStyle.Render("Press q to quit")
	return a.centeredCard(body)
}

func (a App) viewHelp() string {
	t := theme.Active
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Highlight).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o t b g c x", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]", "Previous / Next month"},
			{".", "Back to this month"},
			{"j k", "Navigate lists"},
			{"home end", "First / Last row"},
			{"^d ^u", "Half-page scroll"},
		}},
		{"Actions", [][2]string{
			{"/", "Search transactions"},
			{"f", "Cycle income / expense filter"},
			{"Enter", "Edit setting"},
			{"Esc", "Back / Cancel"},
			{"r", "Reload ledger from disk"},
			{"R", "Regenerate recurring now"},
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
				keyStyle.Render(fmt.Sprintf("%-12s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))
	return a.centeredCard(b.String())
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + month pill
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	pillAccent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" ") + pillAccent.Render(cli.FormatMonth(a.month))
	if !a.month.Equal(a.today.StartOfMonth()) {
		pill += pillStyle.Render(" │ today " + a.today.String())
	}
	if a.activeTab == tabTransactions && a.txState.typeFilter != "" {
		pill += pillStyle.Render(" │ ") + pillAccent.Render(string(a.txState.typeFilter))
	}
	if q := a.txState.query; a.activeTab == tabTransactions && q != "" {
		pill += pillStyle.Render(" │ ") + pillAccent.Render("/"+q)
	}
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	info := components.StatusInfo{
		Ledger:  shortPath(a.path),
		Dirty:   a.lg != nil && a.lg.Dirty(),
		Busy:    a.busy,
		Flash:   a.flash,
		FlashOK: a.flashOK,
		Right:   fmt.Sprintf("loaded in %s", a.loadTime.Round(time.Millisecond)),
	}
	statusBar := components.RenderStatusBar(w, info)

	// 3. Content zone
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabTransactions:
		content = a.renderTransactionsTab(cw, contentH)
	case tabBudgets:
		content = a.renderBudgetsTab(cw)
	case tabGoals:
		content = a.renderGoalsTab(cw)
	case tabRecurring:
		content = a.renderRecurringTab(cw, contentH)
	case tabSettings:
		content = a.renderSettingsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Loading ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadLedgerCmd opens the ledger in a background goroutine, runs the
// regeneration pass and saves the result. Stage updates and the final
// LedgerLoadedMsg arrive through sub.
func loadLedgerCmd(path string, log *logrus.Entry, clock func() calendar.Date, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			stage := func(name string, n int) {
				// Non-blocking: a skipped stage update is caught up by the next one.
				select {
				case sub <- ProgressMsg{Stage: name, Current: n, Total: 3}:
				default:
				}
			}

			stage("Reading ledger", 1)
			lg, err := ledger.Open(path, ledger.Options{Logger: log, Today: clock})
			if err != nil {
				sub <- LedgerLoadedMsg{Err: err, LoadTime: time.Since(start)}
				return
			}

			stage("Materializing recurring transactions", 2)
			res := lg.Regenerate(lg.Today())

			if lg.Dirty() {
				stage("Saving", 3)
				if err := lg.Save(); err != nil {
					log.WithError(err).Warn("saving regenerated ledger")
				}
			}
			mirrorRun(lg, res, log)
			sub <- LedgerLoadedMsg{Store: lg, Regen: res, LoadTime: time.Since(start)}
		}()

		// Block until the first message (either ProgressMsg or LedgerLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// regenerateCmd runs a regeneration pass as of asOf and saves the ledger.
func regenerateCmd(lg *ledger.Store, asOf calendar.Date, log *logrus.Entry) tea.Cmd {
	return func() tea.Msg {
		// Pick up anything the CLI or daemon wrote since the dashboard loaded.
		if lg.Path() != "" {
			if err := lg.Reload(); err != nil {
				return RegenDoneMsg{Err: err}
			}
		}
		res := lg.Regenerate(asOf)
		var err error
		if lg.Dirty() && lg.Path() != "" {
			err = lg.Save()
		}
		mirrorRun(lg, res, log)
		return RegenDoneMsg{Result: res, Err: err}
	}
}

// mirrorRun copies the ledger into the SQLite mirror and records the pass.
// The mirror is a reporting aid, so failures are only logged.
func mirrorRun(lg *ledger.Store, res ledger.RegenResult, log *logrus.Entry) {
	if lg.Path() == "" {
		return
	}
	m, err := store.Open(ledger.MirrorPath())
	if err != nil {
		log.WithError(err).Debug("mirror unavailable")
		return
	}
	defer func() { _ = m.Close() }()

	if err := m.SyncTransactions(lg.Transactions()); err != nil {
		log.WithError(err).Warn("mirror sync failed")
		return
	}
	err = m.RecordRun(store.Run{
		RanAt:          time.Now(),
		AsOf:           res.At,
		Source:         "tui",
		RulesProcessed: res.RulesProcessed,
		RulesFailed:    len(res.Failed),
		Generated:      res.Generated,
		Duration:       res.Duration,
	})
	if err != nil {
		log.WithError(err).Warn("recording run failed")
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// chartDateLabels builds X-axis labels for a chronological day series: the
// month abbreviation first, then every seventh day number.
func chartDateLabels(days []model.DailyStats) []string {
	labels := make([]string, len(days))
	for i, d := range days {
		switch {
		case i == 0:
			labels[i] = d.Date.Time(time.UTC).Format("Jan")
		case d.Date.Day()%7 == 1:
			labels[i] = strconv.Itoa(d.Date.Day())
		}
	}
	return labels
}

func shortPath(p string) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rel, err := filepath.Rel(home, p); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.Join("~", rel)
		}
	}
	return p
}

func shortID(id model.ID) string {
	s := string(id)
	if len(s) > 8 {
		return s[:8]
	}
	return s
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

// fillLinesWithBackground pads each line to width w with the background color
// so gaps between cards are not left unstyled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes use the same widths as RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // separator
	}
	return -1
}
