package tui

import (
	"strings"

	"github.com/theirongolddev/finview/internal/calendar"
	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/log"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
)

// openSetup shows the first-run wizard: backend, theme and default view.
// Signing in stays a CLI step (`finview login`) so the password never
// passes through the dashboard.
func (a App) openSetup() (tea.Model, tea.Cmd) {
	v := &formValues{
		baseURL: a.cfg.Backend.BaseURL,
		theme:   a.cfg.Appearance.Theme,
		view:    a.cfg.General.DefaultView,
	}

	themes := make([]huh.Option[string], len(theme.All))
	for i, th := range theme.All {
		themes[i] = huh.NewOption(th.Name, th.Name)
	}

	f := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Backend URL").
				Description("Where the finance API is served.").
				Value(&v.baseURL).
				Validate(required("backend URL")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().Title("Color theme").Options(themes...).Value(&v.theme),
			huh.NewSelect[string]().Title("Calendar opens in").
				Options(huh.NewOption("Week view", "week"), huh.NewOption("Month view", "month")).
				Value(&v.view),
		),
	)
	return a.openForm(formSetup, f, v)
}

// saveSetup applies the wizard answers and writes the config file. A failed
// save keeps the answers for this session only.
func (a *App) saveSetup(v *formValues) {
	a.needSetup = false

	if u := strings.TrimSpace(v.baseURL); u != "" {
		a.cfg.Backend.BaseURL = strings.TrimRight(u, "/")
	}
	if theme.Valid(v.theme) {
		a.cfg.Appearance.Theme = v.theme
		theme.SetActive(v.theme)
	}
	a.cfg.General.DefaultView = calendar.ParseViewMode(v.view).String()
	a.cal.mode = calendar.ParseViewMode(v.view)

	if err := config.SaveFile(a.deps.ConfigPath, a.cfg); err != nil {
		a.log.Warn("saving setup failed", log.FieldError, err)
		a.noteErr(err)
		return
	}
	a.note("Saved to " + a.deps.ConfigPath + " · run `finview login` to sign in")
}
