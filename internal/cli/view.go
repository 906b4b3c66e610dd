package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

// maxPaneRows caps how many entries a list pane shows around its cursor.
const maxPaneRows = 10

func (m appModel) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderIssue(),
		m.renderTimer(),
	}
	if m.form != nil {
		sections = append(sections, m.form.View())
	} else {
		sections = append(sections, m.renderPanes())
	}
	sections = append(sections, m.renderMessage(), m.renderHelp())
	return strings.Join(sections, "\n\n")
}

func (m *appModel) renderHeader() string {
	title := formatter.StylePurple.Render("redtimer")
	if app := m.state.App; app != nil && app.Redmine != nil {
		title += " " + formatter.Dim("› "+app.Redmine.BaseURL())
	}
	today := formatter.Dim("today ") + formatter.Bold(formatter.Clock(m.state.TodaySeconds))
	gap := m.state.ContentWidth() - lipgloss.Width(title) - lipgloss.Width(today)
	if gap < 2 {
		gap = 2
	}
	sep := formatter.Dim(strings.Repeat("─", m.state.ContentWidth()))
	return title + strings.Repeat(" ", gap) + today + "\n" + sep
}

func (m *appModel) renderIssue() string {
	is := m.state.Issue
	if is == nil {
		return formatter.Dim("No issue loaded. Press o to open one.")
	}
	line := formatter.Bold(formatter.Truncate(is.Label(), m.state.ContentWidth()))
	meta := []string{is.Project.Name, is.Tracker.Name, is.Status.Name}
	var parts []string
	for _, p := range meta {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return line + "\n" + formatter.Dim(strings.Join(parts, " · "))
}

func (m *appModel) renderTimer() string {
	c := m.state.Controls
	clock := formatter.StyleHeader.Render(formatter.Clock(m.state.Seconds))
	out := clock + "  " + formatter.TimerPill(c.Running, c.Saving)
	if tracked, ok := m.state.Session.TrackedIssue(); ok && m.state.Issue != nil && tracked.ID != m.state.Issue.ID {
		out += "  " + formatter.StyleYellow.Render(fmt.Sprintf("tracking #%d", tracked.ID))
	}
	return out
}

func (m *appModel) renderPanes() string {
	lists := m.state.Lists
	width := (m.state.ContentWidth() - 4) / int(paneCount)

	recent := make([]string, len(lists.Recent))
	for i, is := range lists.Recent {
		recent[i] = is.Label()
	}
	activities := make([]string, len(lists.Activities))
	activityMarks := make([]bool, len(lists.Activities))
	for i, a := range lists.Activities {
		activities[i] = a.Name
		activityMarks[i] = a.ID == lists.SelectedActivityID
	}
	statuses := make([]string, len(lists.Statuses))
	statusMarks := make([]bool, len(lists.Statuses))
	for i, s := range lists.Statuses {
		statuses[i] = s.Name
		statusMarks[i] = s.ID == lists.SelectedStatusID
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderPane(paneRecent, recent, nil, width),
		"  ",
		m.renderPane(paneActivities, activities, activityMarks, width),
		"  ",
		m.renderPane(paneStatuses, statuses, statusMarks, width),
	)
}

// renderPane draws one list. marks flags the selected entity, the cursor
// is only drawn on the focused pane.
func (m *appModel) renderPane(p pane, items []string, marks []bool, width int) string {
	focused := m.focus == p
	title := formatter.Dim(strings.ToUpper(p.title()))
	if focused {
		title = formatter.StyleHeader.Render(strings.ToUpper(p.title()))
	}
	lines := []string{title}
	if len(items) == 0 {
		lines = append(lines, formatter.Dim("  (empty)"))
	}

	cursor := m.cursorAt(p)
	start := 0
	if cursor >= maxPaneRows {
		start = cursor - maxPaneRows + 1
	}
	for i := start; i < len(items) && i < start+maxPaneRows; i++ {
		prefix := "  "
		if focused && i == cursor {
			prefix = formatter.StyleHeader.Render("› ")
		}
		text := formatter.Truncate(items[i], width-4)
		if marks != nil && marks[i] {
			text = formatter.StyleGreen.Render("● " + text)
		} else if marks != nil {
			text = "  " + text
		}
		lines = append(lines, prefix+text)
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

func (m *appModel) renderMessage() string {
	msg := m.state.Message
	if msg.text == "" {
		return ""
	}
	switch msg.severity {
	case tracking.SeverityCritical:
		return formatter.StyleRed.Render("✖ " + msg.text)
	case tracking.SeverityWarning:
		return formatter.StyleYellow.Render("▲ " + msg.text)
	default:
		return formatter.StyleGreen.Render("✔ " + msg.text)
	}
}

func (m *appModel) renderHelp() string {
	if m.form != nil {
		return formatter.Dim("enter: confirm  esc: cancel")
	}
	return m.help.View(m.keys)
}
