package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	settingsFieldBaseURL = iota
	settingsFieldTheme
	settingsFieldView
	settingsFieldAutoRefresh
	settingsFieldCategoriesPoll
	settingsFieldPredictionsPoll
	settingsFieldTickers
	settingsFieldSearchLimit
	settingsFieldCount // sentinel
)

var settingsLabels = [settingsFieldCount]string{
	"Backend URL",
	"Theme",
	"Default View",
	"Auto Refresh",
	"Category Poll",
	"Prediction Poll",
	"Tickers",
	"Search Limit",
}

// settingsState tracks the settings tab state.
type settingsState struct {
	cursor  int
	editing bool
	input   textinput.Model
	saved   bool  // flash "saved" message briefly
	saveErr error // non-nil if last save failed
	invalid string
}

func newSettingsInput() textinput.Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 50
	return ti
}

func (a App) updateSettingsKey(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "j", "down":
		if a.settings.cursor < settingsFieldCount-1 {
			a.settings.cursor++
		}
		return a, nil, true
	case "k", "up":
		if a.settings.cursor > 0 {
			a.settings.cursor--
		}
		return a, nil, true
	case "enter":
		m, cmd := a.settingsStartEdit()
		return m, cmd, true
	}
	return a, nil, false
}

// settingValue renders the current value of field as editable text.
func (a App) settingValue(field int) string {
	switch field {
	case settingsFieldBaseURL:
		return a.cfg.Backend.BaseURL
	case settingsFieldTheme:
		return a.cfg.Appearance.Theme
	case settingsFieldView:
		return calendar.ParseViewMode(a.cfg.General.DefaultView).String()
	case settingsFieldAutoRefresh:
		return strconv.FormatBool(a.autoRefresh)
	case settingsFieldCategoriesPoll:
		return a.cfg.Polling.Categories.Or(config.DefaultCategoriesPoll).String()
	case settingsFieldPredictionsPoll:
		return a.cfg.Polling.Predictions.Or(config.DefaultPredictionsPoll).String()
	case settingsFieldTickers:
		return strings.Join(a.cfg.Stocks.Tickers, ", ")
	case settingsFieldSearchLimit:
		return strconv.Itoa(a.cfg.Stocks.SearchLimit)
	}
	return ""
}

func (a App) settingsStartEdit() (tea.Model, tea.Cmd) {
	a.settings.editing = true
	a.settings.saved = false
	a.settings.invalid = ""

	ti := newSettingsInput()
	switch a.settings.cursor {
	case settingsFieldBaseURL:
		ti.Placeholder = "http://localhost:8000"
	case settingsFieldTheme:
		ti.Placeholder = strings.Join(theme.Names(), ", ")
	case settingsFieldView:
		ti.Placeholder = "week or month"
	case settingsFieldAutoRefresh:
		ti.Placeholder = "true or false"
	case settingsFieldCategoriesPoll, settingsFieldPredictionsPoll:
		ti.Placeholder = "60s, 5m (minimum 10s)"
	case settingsFieldTickers:
		ti.Placeholder = "AAPL, MSFT, NVDA"
	case settingsFieldSearchLimit:
		ti.Placeholder = "10"
	}
	ti.SetValue(a.settingValue(a.settings.cursor))

	cmd := ti.Focus()
	a.settings.input = ti
	return a, cmd
}

func (a App) updateSettingsInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.settingsSave()
		a.settings.editing = false
		a.settings.saved = a.settings.saveErr == nil && a.settings.invalid == ""
		return a, nil
	case "esc":
		a.settings.editing = false
		return a, nil
	}

	var cmd tea.Cmd
	a.settings.input, cmd = a.settings.input.Update(msg)
	return a, cmd
}

// settingsSave validates the edited field and writes the config. Invalid
// input leaves the config untouched.
func (a *App) settingsSave() {
	val := strings.TrimSpace(a.settings.input.Value())
	cfg := a.cfg

	switch a.settings.cursor {
	case settingsFieldBaseURL:
		if val == "" {
			a.settings.invalid = "backend URL is required"
			return
		}
		cfg.Backend.BaseURL = strings.TrimRight(val, "/")
	case settingsFieldTheme:
		if !theme.Valid(val) {
			a.settings.invalid = "unknown theme " + strconv.Quote(val)
			return
		}
		cfg.Appearance.Theme = val
		theme.SetActive(val)
	case settingsFieldView:
		if val != "week" && val != "month" {
			a.settings.invalid = "view must be week or month"
			return
		}
		cfg.General.DefaultView = val
	case settingsFieldAutoRefresh:
		b, err := strconv.ParseBool(val)
		if err != nil {
			a.settings.invalid = "enter true or false"
			return
		}
		cfg.TUI.AutoRefresh = b
		a.autoRefresh = b
	case settingsFieldCategoriesPoll, settingsFieldPredictionsPoll:
		d, err := time.ParseDuration(val)
		if err != nil || d < 10*time.Second {
			a.settings.invalid = "enter a duration of at least 10s"
			return
		}
		if a.settings.cursor == settingsFieldCategoriesPoll {
			cfg.Polling.Categories = config.D(d)
		} else {
			cfg.Polling.Predictions = config.D(d)
		}
	case settingsFieldTickers:
		var tickers []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				tickers = append(tickers, s)
			}
		}
		if len(tickers) == 0 {
			a.settings.invalid = "list at least one ticker"
			return
		}
		cfg.Stocks.Tickers = tickers
		// Force a fresh forecast for the new list on the next visit.
		a.stocks.predsPolledAt = time.Time{}
	case settingsFieldSearchLimit:
		n, err := strconv.Atoi(val)
		if err != nil || n < 1 || n > 50 {
			a.settings.invalid = "enter a number between 1 and 50"
			return
		}
		cfg.Stocks.SearchLimit = n
	}

	a.cfg = cfg
	a.settings.saveErr = config.SaveFile(a.deps.ConfigPath, cfg)
}

func (a App) renderSettingsTab(cw int) string {
	t := theme.Active

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	valueStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	selectedStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.SurfaceBright).Bold(true)
	selectedLabelStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceBright).Bold(true)
	accentStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface)
	greenStyle := lipgloss.NewStyle().Foreground(t.GreenBright).Background(t.Surface)
	warnStyle := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)
	markerStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.SurfaceBright)

	var formBody strings.Builder
	for i, label := range settingsLabels {
		if a.settings.editing && i == a.settings.cursor {
			formBody.WriteString(markerStyle.Render("▸ "))
			formBody.WriteString(accentStyle.Render(fmt.Sprintf("%-18s ", label)))
			formBody.WriteString(a.settings.input.View())
			formBody.WriteString("\n")
			continue
		}

		value := a.settingValue(i)
		if i == a.settings.cursor {
			marker := markerStyle.Render("▸ ")
			l := selectedLabelStyle.Render(fmt.Sprintf("%-18s ", label+":"))
			v := selectedStyle.Render(value)
			formBody.WriteString(marker + l + v)
			if pad := components.CardInnerWidth(cw) - lipgloss.Width(marker+l+v); pad > 0 {
				formBody.WriteString(lipgloss.NewStyle().Background(t.SurfaceBright).Render(strings.Repeat(" ", pad)))
			}
		} else {
			formBody.WriteString(lipgloss.NewStyle().Background(t.Surface).Render("  "))
			formBody.WriteString(labelStyle.Render(fmt.Sprintf("%-18s ", label+":")))
			formBody.WriteString(valueStyle.Render(value))
		}
		formBody.WriteString("\n")
	}

	switch {
	case a.settings.invalid != "":
		formBody.WriteString("\n" + warnStyle.Render(a.settings.invalid))
	case a.settings.saveErr != nil:
		formBody.WriteString("\n" + warnStyle.Render(fmt.Sprintf("Save failed: %s", a.settings.saveErr)))
	case a.settings.saved:
		formBody.WriteString("\n" + greenStyle.Render("Saved!"))
	}
	formBody.WriteString("\n")
	formBody.WriteString(labelStyle.Render("[j/k] navigate  [Enter] edit  [Esc] cancel"))

	var infoBody strings.Builder
	info := func(k, v string) {
		infoBody.WriteString(labelStyle.Render(fmt.Sprintf("%-17s", k)) + valueStyle.Render(v) + "\n")
	}
	info("Session:", a.sessionSummary())
	info("Config file:", a.deps.ConfigPath)
	if a.deps.StorePath != "" {
		info("Local store:", a.deps.StorePath)
	}
	if a.deps.CacheCounts != nil {
		hits, misses := a.deps.CacheCounts()
		info("Cache:", fmt.Sprintf("%s hits · %s misses", cli.FormatNumber(hits), cli.FormatNumber(misses)))
	}
	infoBody.WriteString(labelStyle.Render("Backend URL changes apply on next start."))

	var b strings.Builder
	b.WriteString(components.ContentCard("Settings", formBody.String(), cw))
	b.WriteString("\n")
	b.WriteString(components.ContentCard("General", infoBody.String(), cw))
	return b.String()
}

func (a App) sessionSummary() string {
	s := a.deps.Session
	if !s.Authenticated() {
		return "signed out"
	}
	desc := "signed in"
	if id, err := s.UserID(); err == nil {
		desc += " as user " + id
	}
	if s.FromEnv() {
		desc += " (from FINVIEW_TOKEN)"
	}
	if s.Expired(a.now()) {
		desc += " · token expired"
	}
	return desc
}
