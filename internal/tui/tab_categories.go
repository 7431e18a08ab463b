package tui

import (
	"errors"
	"strings"
	"time"

	"github.com/theirongolddev/finview/internal/cli"
	"github.com/theirongolddev/finview/internal/config"
	"github.com/theirongolddev/finview/internal/model"
	"github.com/theirongolddev/finview/internal/session"
	"github.com/theirongolddev/finview/internal/tui/components"
	"github.com/theirongolddev/finview/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// categoriesState tracks the category spend tab, which polls while open.
type categoriesState struct {
	shares    []model.CategoryShare
	loading   bool
	polledAt  time.Time
	fetchedAt time.Time
	err       error
}

// due reports whether a poll should start now.
func (s categoriesState) due(now time.Time, every time.Duration, auto bool) bool {
	if s.loading {
		return false
	}
	if s.polledAt.IsZero() {
		return true
	}
	return auto && now.Sub(s.polledAt) >= every
}

// leaveCategories stops polling; a request in flight is discarded and the
// next visit fetches again.
func (a App) leaveCategories() App {
	if a.cats.loading {
		a.guards.cats.Close()
		a.cats.loading = false
		a.cats.polledAt = time.Time{}
	}
	return a
}

func (a App) onCategories(msg categoriesMsg) (tea.Model, tea.Cmd) {
	if !a.guards.cats.Current(msg.ticket) {
		return a, nil
	}
	a.cats.loading = false
	a.cats.err = msg.err
	if msg.err != nil {
		a.noteErr(msg.err)
		return a, nil
	}
	a.cats.shares = msg.shares
	a.cats.fetchedAt = a.now()
	return a, nil
}

func (a App) renderCategoriesTab(cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Orange).Background(t.Surface)

	var total float64
	for _, s := range a.cats.shares {
		total += s.Total
	}

	top := "-"
	if len(a.cats.shares) > 0 {
		top = a.cats.shares[0].Category
	}
	var b strings.Builder
	b.WriteString(components.MetricCardRow([]components.Metric{
		{Label: "Total spend", Value: cli.FormatMoney(total)},
		{Label: "Categories", Value: cli.FormatNumber(int64(len(a.cats.shares)))},
		{Label: "Largest", Value: top},
		{Label: "Updated", Value: cli.FormatAge(a.cats.fetchedAt, a.now()),
			Delta: "every " + a.cfg.Polling.Categories.Or(config.DefaultCategoriesPoll).String()},
	}, cw))
	b.WriteString("\n")

	iw := components.CardInnerWidth(cw)
	var body strings.Builder
	switch {
	case errors.Is(a.cats.err, session.ErrNoToken):
		body.WriteString(warn.Render("Sign in with `finview login` to see category spend."))
	case a.cats.err != nil && len(a.cats.shares) == 0:
		body.WriteString(warn.Render(errorText(a.cats.err)))
	case a.cats.loading && len(a.cats.shares) == 0:
		body.WriteString(muted.Render("Loading…"))
	case len(a.cats.shares) == 0:
		body.WriteString(muted.Render("No data"))
	default:
		labelW := 18
		valueW := 12
		barW := iw - labelW - valueW - 12
		if barW < 10 {
			barW = 10
		}
		for i, s := range a.cats.shares {
			if i > 0 {
				body.WriteString("\n")
			}
			body.WriteString(components.ShareBar(s.Category, cli.FormatMoney(s.Total), s.SharePercent/100, labelW, barW))
		}
	}

	title := "Spend by category"
	if a.cats.loading {
		title += " · refreshing…"
	}
	b.WriteString(components.ContentCard(title, body.String(), cw))
	return b.String()
}
