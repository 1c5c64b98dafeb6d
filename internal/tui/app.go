// Package tui provides the interactive Bubble Tea dashboard for pburn.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/pburn/internal/cli"
	"github.com/theirongolddev/pburn/internal/config"
	"github.com/theirongolddev/pburn/internal/model"
	"github.com/theirongolddev/pburn/internal/pipeline"
	"github.com/theirongolddev/pburn/internal/store"
	"github.com/theirongolddev/pburn/internal/tui/components"
	"github.com/theirongolddev/pburn/internal/tui/theme"
)

// ReportsLoadedMsg is sent when a ledger read finishes.
type ReportsLoadedMsg struct {
	Reports  []model.ProjectReport
	LoadTime time.Duration
	Err      error
}

// Options configures a dashboard instance.
type Options struct {
	DBPath        string
	Config        config.Config
	ProjectFilter string
	StatusFilter  model.BudgetStatus
	// NeedSetup shows the setup form before the dashboard.
	NeedSetup bool
	// Now is the clock used for deadline evaluation. Defaults to time.Now.
	Now func() time.Time
}

// App is the root Bubble Tea model.
type App struct {
	opts Options
	cfg  config.Config

	// Data
	all      []model.ProjectReport
	reports  []model.ProjectReport // after filters
	loaded   bool
	loadErr  error
	loadTime time.Duration

	// Auto-refresh state
	autoRefresh     bool
	refreshInterval time.Duration
	lastRefresh     time.Time
	refreshing      bool

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	cursor    int // selected project on the Projects tab

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals SetupValues
	setupErr  error
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	maxContentWidth  = 160
	minContentHeight = 5

	refreshInterval = 30 * time.Second
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:            opts,
		cfg:             opts.Config,
		needSetup:       opts.NeedSetup,
		setupVals:       NewSetupValues(opts.Config),
		autoRefresh:     true,
		refreshInterval: refreshInterval,
		spinner:         sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadReportsCmd(a.opts.DBPath, a.cfg, a.opts.Now),
		a.spinner.Tick,
		tickCmd(),
	)
}

func (a *App) applyFilters() {
	reports := a.all
	if a.opts.ProjectFilter != "" {
		reports = pipeline.FilterByName(reports, a.opts.ProjectFilter)
	}
	if a.opts.StatusFilter != "" {
		reports = pipeline.FilterByStatus(reports, a.opts.StatusFilter)
	}
	a.reports = reports

	if a.cursor >= len(a.reports) {
		a.cursor = len(a.reports) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
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
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabProjects && a.cursor > 0 {
				a.cursor--
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabProjects && a.cursor < len(a.reports)-1 {
				a.cursor++
			}
		case tea.MouseButtonLeft:
			if msg.Action == tea.MouseActionPress && msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		// Setup wizard intercepts all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if !a.loaded {
			return a, nil
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if !a.refreshing {
				a.refreshing = true
				return a, loadReportsCmd(a.opts.DBPath, a.cfg, a.opts.Now)
			}
			return a, nil
		case "R":
			a.autoRefresh = !a.autoRefresh
			return a, nil
		case "S":
			return a, a.startSetup()
		case "left", "h":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
			return a, nil
		case "right", "l", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
			return a, nil
		case "j", "down":
			if a.activeTab == tabProjects && a.cursor < len(a.reports)-1 {
				a.cursor++
			}
			return a, nil
		case "k", "up":
			if a.activeTab == tabProjects && a.cursor > 0 {
				a.cursor--
			}
			return a, nil
		case "g":
			a.cursor = 0
			return a, nil
		case "G":
			a.cursor = max(len(a.reports)-1, 0)
			return a, nil
		}

		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case ReportsLoadedMsg:
		a.refreshing = false
		a.lastRefresh = a.opts.Now()
		a.loadTime = msg.LoadTime
		a.loadErr = msg.Err
		if msg.Err == nil {
			a.all = msg.Reports
			a.applyFilters()
		}
		first := !a.loaded
		a.loaded = true

		if first && a.needSetup {
			return a, a.startSetup()
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
		if a.loaded && a.autoRefresh && !a.refreshing && a.setupForm == nil {
			if a.opts.Now().Sub(a.lastRefresh) >= a.refreshInterval {
				a.refreshing = true
				cmds = append(cmds, loadReportsCmd(a.opts.DBPath, a.cfg, a.opts.Now))
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

func (a *App) startSetup() tea.Cmd {
	a.setupVals = NewSetupValues(a.cfg)
	a.setupForm = NewSetupForm(&a.setupVals)
	if a.width > 0 {
		a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
	}
	return a.setupForm.Init()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupErr = a.saveSetupConfig()
		a.needSetup = false
		a.setupForm = nil
		a.refreshing = true
		return a, loadReportsCmd(a.opts.DBPath, a.cfg, a.opts.Now)
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

// saveSetupConfig applies the form answers. The new settings take effect
// for this session even when writing the file fails.
func (a *App) saveSetupConfig() error {
	if err := a.setupVals.Apply(&a.cfg); err != nil {
		return err
	}
	theme.SetActive(a.cfg.Appearance.Theme)
	cli.SetLocale(a.cfg.General.Locale)
	return config.Save(a.cfg)
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
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
		"\n  Terminal too narrow (%d cols)\n\n  pburn needs at least %d columns.\n",
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

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ pburn"))
	b.WriteString(subtitleStyle.Render(" · Project Budget Burn"))
	b.WriteString("\n\n")
	b.WriteString(a.spinner.View())
	b.WriteString(subtitleStyle.Render(" Reading ledger..."))

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
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	bindings := []struct{ key, desc string }{
		{"o p d c", "Jump to tab"},
		{"← →", "Previous / Next tab"},
		{"j k", "Select project"},
		{"g G", "First / Last project"},
		{"r", "Refresh now"},
		{"R", "Toggle auto-refresh"},
		{"S", "Edit settings"},
		{"?", "Toggle help"},
		{"q", "Quit"},
	}
	for _, bind := range bindings {
		fmt.Fprintf(&b, "  %s  %s\n",
			keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
			descStyle.Render(bind.desc))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w)

	dataAge := ""
	if !a.lastRefresh.IsZero() {
		dataAge = a.lastRefresh.Format("15:04:05")
	}
	statusBar := components.RenderStatusBar(w, dataAge, a.refreshing, a.autoRefresh)

	contentH := max(a.height-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	var content string
	switch {
	case a.loadErr != nil:
		content = a.renderError(cw)
	case len(a.all) == 0:
		content = a.renderEmpty(cw)
	default:
		switch a.activeTab {
		case tabOverview:
			content = a.renderOverviewTab(cw)
		case tabProjects:
			content = a.renderProjectsTab(cw, contentH)
		case tabDeadlines:
			content = a.renderDeadlinesTab(cw)
		case tabCurrencies:
			content = a.renderCurrenciesTab(cw)
		}
	}

	if a.setupErr != nil {
		warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Background)
		content = warn.Render(" Settings not saved: "+a.setupErr.Error()) + "\n" + content
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, a.height, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) renderError(cw int) string {
	t := theme.Active
	body := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface).Render(a.loadErr.Error()) + "\n\n" +
		lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Render("Press r to retry.")
	return components.ContentCard("Could not read the ledger", body, cw, true)
}

func (a App) renderEmpty(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	body := muted.Render("No projects yet. Create one from the shell:") + "\n\n" +
		lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).
			Render(`  pburn project add "Website redesign" --budget 2000 --currency EUR`)
	return components.ContentCard("Empty ledger", body, cw, false)
}

// ─── Helpers ────────────────────────────────────────────────────

type tickMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// loadReportsCmd reads the ledger and builds reports in the background.
func loadReportsCmd(dbPath string, cfg config.Config, now func() time.Time) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		l, err := store.Open(dbPath)
		if err != nil {
			return ReportsLoadedMsg{Err: err, LoadTime: time.Since(start)}
		}
		defer func() { _ = l.Close() }()

		reports, err := pipeline.Load(l, cfg.Engine(), cfg.DeadlineThresholds(), now())
		return ReportsLoadedMsg{Reports: reports, Err: err, LoadTime: time.Since(start)}
	}
}

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1 // one-column separator
	}
	return -1
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
