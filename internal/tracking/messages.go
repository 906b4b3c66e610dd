package tracking

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alexanderramin/redtimer/internal/apperr"
	"github.com/alexanderramin/redtimer/internal/domain"
)

// describe turns a failure into the text and severity shown to the user.
func describe(err error) (string, Severity) {
	msg := apperr.Message(err)
	switch apperr.KindOf(err) {
	case apperr.KindConnection:
		return "Cannot reach Redmine: " + msg, SeverityCritical
	case apperr.KindNotFound:
		return capitalize(msg), SeverityWarning
	case apperr.KindValidation:
		return "Redmine rejected the request: " + msg, SeverityWarning
	case apperr.KindLocalPrecondition:
		return capitalize(msg), SeverityWarning
	default:
		return "Unexpected error: " + msg, SeverityWarning
	}
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// FormatDuration renders seconds as hh:mm:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func savedMessage(issue domain.Issue, seconds int, activity string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Saved %s on #%d", FormatDuration(seconds), issue.ID)
	if activity != "" {
		fmt.Fprintf(&b, " (%s)", activity)
	}
	return b.String()
}
