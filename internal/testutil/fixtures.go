package testutil

import (
	"fmt"

	"github.com/alexanderramin/redtimer/internal/domain"
)

type IssueOption func(*domain.Issue)

func WithSubject(s string) IssueOption {
	return func(i *domain.Issue) { i.Subject = s }
}

func WithStatus(id int, name string) IssueOption {
	return func(i *domain.Issue) { i.Status = domain.Ref{ID: id, Name: name} }
}

func WithProject(id int, name string) IssueOption {
	return func(i *domain.Issue) { i.Project = domain.Ref{ID: id, Name: name} }
}

// NewTestIssue builds an open issue in project "Web".
func NewTestIssue(id int, opts ...IssueOption) domain.Issue {
	is := domain.Issue{
		ID:      id,
		Subject: fmt.Sprintf("Issue %d", id),
		Project: domain.Ref{ID: 1, Name: "Web"},
		Tracker: domain.Ref{ID: 1, Name: "Bug"},
		Status:  domain.Ref{ID: 1, Name: "New"},
	}
	for _, opt := range opts {
		opt(&is)
	}
	return is
}

// TestActivities returns Design, Development (default) and Testing.
func TestActivities() []domain.Activity {
	return []domain.Activity{
		{ID: 8, Name: "Design"},
		{ID: 9, Name: "Development", IsDefault: true},
		{ID: 10, Name: "Testing"},
	}
}

// TestStatuses returns New, In Progress, Resolved and Closed.
func TestStatuses() []domain.IssueStatus {
	return []domain.IssueStatus{
		{ID: 1, Name: "New"},
		{ID: 2, Name: "In Progress"},
		{ID: 3, Name: "Resolved"},
		{ID: 5, Name: "Closed", IsClosed: true},
	}
}
