package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/redtimer/internal/domain"
)

// issueListFlags backs `issue list`.
type issueListFlags struct {
	all     bool
	anyone  bool
	project string
	limit   int
}

func addIssueFlag(fs *pflag.FlagSet, target *int, usage string) {
	fs.IntVarP(target, "issue", "i", 0, usage)
}

func addIssueListFlags(fs *pflag.FlagSet, f *issueListFlags) {
	fs.BoolVar(&f.all, "all", false, "include closed issues")
	fs.BoolVar(&f.anyone, "anyone", false, "not only issues assigned to me")
	fs.StringVarP(&f.project, "project", "p", "", "project id or identifier")
	fs.IntVarP(&f.limit, "limit", "n", 25, "maximum number of issues")
}

// parseIssueID accepts "42" and "#42".
func parseIssueID(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid issue id %q", s)
	}
	return n, nil
}

// named is an entity with an id and a display name.
type named interface {
	EntityID() int
}

// resolveByIDOrName finds the entity whose id equals ref, or whose name
// matches it case-insensitively.
func resolveByIDOrName[T named](items []T, ref string, name func(T) string) (T, bool) {
	var zero T
	ref = strings.TrimSpace(ref)
	if id, err := strconv.Atoi(ref); err == nil {
		for _, it := range items {
			if it.EntityID() == id {
				return it, true
			}
		}
		return zero, false
	}
	for _, it := range items {
		if strings.EqualFold(name(it), ref) {
			return it, true
		}
	}
	return zero, false
}

func activityName(a domain.Activity) string  { return a.Name }
func statusName(s domain.IssueStatus) string { return s.Name }
