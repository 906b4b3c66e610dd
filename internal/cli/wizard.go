package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexanderramin/redtimer/internal/cli/formatter"
	"github.com/alexanderramin/redtimer/internal/domain"
	"github.com/alexanderramin/redtimer/internal/tracking"
)

// redtimerHuhTheme matches huh forms to the formatter palette.
func redtimerHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.Description = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.SelectSelector = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.SelectedOption = lipgloss.NewStyle().Foreground(formatter.ColorGreen)
	t.Focused.UnselectedOption = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

func validateIssueID(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("enter an issue number")
	}
	_, err := parseIssueID(s)
	return err
}

// issueIDForm asks for the issue to open.
func issueIDForm(value *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Open issue").
				Placeholder("42").
				Value(value).
				Validate(validateIssueID),
		),
	).WithTheme(redtimerHuhTheme()).WithShowHelp(false)
}

// issuePickerForm offers issues to start tracking.
func issuePickerForm(issues []domain.Issue, id *int) *huh.Form {
	opts := make([]huh.Option[int], 0, len(issues))
	for _, is := range issues {
		opts = append(opts, huh.NewOption(formatter.Truncate(is.Label(), 70), is.ID))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Track issue").
				Options(opts...).
				Value(id),
		),
	).WithTheme(redtimerHuhTheme())
}

func runIssuePicker(issues []domain.Issue) (int, error) {
	var id int
	if err := issuePickerForm(issues, &id).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return domain.NullID, nil
		}
		return domain.NullID, err
	}
	return id, nil
}

// exitChoiceForm asks what to do with unsaved time on the way out.
func exitChoiceForm(tracked *domain.Issue, seconds int, choice *tracking.ExitChoice) *huh.Form {
	desc := fmt.Sprintf("%s of unsaved time", formatter.Clock(seconds))
	if tracked != nil {
		desc += " on " + tracked.Label()
	}
	*choice = tracking.ExitSave
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[tracking.ExitChoice]().
				Title("Quit redtimer?").
				Description(desc).
				Options(
					huh.NewOption("Save to Redmine and quit", tracking.ExitSave),
					huh.NewOption("Discard and quit", tracking.ExitDiscard),
					huh.NewOption("Keep tracking", tracking.ExitAbort),
				).
				Value(choice),
		),
	).WithTheme(redtimerHuhTheme()).WithShowHelp(false)
}
