package redmine

import (
	"time"

	"github.com/alexanderramin/redtimer/internal/domain"
)

// Wire types for the Redmine REST API (JSON format).

type refJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

func (r *refJSON) toDomain() domain.Ref {
	if r == nil {
		return domain.Ref{}
	}
	return domain.Ref{ID: r.ID, Name: r.Name}
}

type issueJSON struct {
	ID             int       `json:"id"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description"`
	Project        *refJSON  `json:"project"`
	Tracker        *refJSON  `json:"tracker"`
	Status         *refJSON  `json:"status"`
	Priority       *refJSON  `json:"priority"`
	AssignedTo     *refJSON  `json:"assigned_to"`
	DoneRatio      int       `json:"done_ratio"`
	SpentHours     float64   `json:"spent_hours"`
	EstimatedHours *float64  `json:"estimated_hours"`
	UpdatedOn      time.Time `json:"updated_on"`
}

func (i issueJSON) toDomain() domain.Issue {
	out := domain.Issue{
		ID:          i.ID,
		Subject:     i.Subject,
		Description: i.Description,
		Project:     i.Project.toDomain(),
		Tracker:     i.Tracker.toDomain(),
		Status:      i.Status.toDomain(),
		Priority:    i.Priority.toDomain(),
		AssignedTo:  i.AssignedTo.toDomain(),
		DoneRatio:   i.DoneRatio,
		SpentHours:  i.SpentHours,
		UpdatedOn:   i.UpdatedOn,
	}
	if i.EstimatedHours != nil {
		out.EstimatedHours = *i.EstimatedHours
	}
	return out
}

type issueEnvelope struct {
	Issue issueJSON `json:"issue"`
}

type issueListEnvelope struct {
	Issues     []issueJSON `json:"issues"`
	TotalCount int         `json:"total_count"`
}

type activityJSON struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
	Active    *bool  `json:"active"`
}

type activityListEnvelope struct {
	Activities []activityJSON `json:"time_entry_activities"`
}

type statusJSON struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
}

type statusListEnvelope struct {
	Statuses []statusJSON `json:"issue_statuses"`
}

type timeEntryJSON struct {
	ID       int      `json:"id"`
	Issue    *refJSON `json:"issue"`
	Activity *refJSON `json:"activity"`
	Hours    float64  `json:"hours"`
	Comments string   `json:"comments"`
	SpentOn  string   `json:"spent_on"`
}

func (e timeEntryJSON) toDomain() domain.TimeEntry {
	out := domain.TimeEntry{
		ID:         e.ID,
		IssueID:    e.Issue.toDomain().ID,
		ActivityID: e.Activity.toDomain().ID,
		Seconds:    domain.SecondsFromHours(e.Hours),
		Comment:    e.Comments,
	}
	if t, err := time.Parse(dateLayout, e.SpentOn); err == nil {
		out.SpentOn = t
	}
	return out
}

type timeEntryEnvelope struct {
	TimeEntry timeEntryJSON `json:"time_entry"`
}

type timeEntryListEnvelope struct {
	TimeEntries []timeEntryJSON `json:"time_entries"`
}

// timeEntryPayload is the create/update body for /time_entries.
type timeEntryPayload struct {
	IssueID    int     `json:"issue_id"`
	ActivityID int     `json:"activity_id"`
	Hours      float64 `json:"hours"`
	Comments   string  `json:"comments,omitempty"`
	SpentOn    string  `json:"spent_on,omitempty"`
}

type issueUpdatePayload struct {
	StatusID int    `json:"status_id,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type issueCreatePayload struct {
	ProjectID   string `json:"project_id"`
	TrackerID   int    `json:"tracker_id,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
}

type userJSON struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

type userEnvelope struct {
	User userJSON `json:"user"`
}

type errorEnvelope struct {
	Errors []string `json:"errors"`
}

// User is the account the API key belongs to.
type User struct {
	ID    int
	Login string
	Name  string
}

// IssueQuery filters the issue list.
type IssueQuery struct {
	AssignedToMe bool
	ProjectID    string
	OpenOnly     bool
	Limit        int
}

// NewIssue is the input of CreateIssue.
type NewIssue struct {
	ProjectID   string
	TrackerID   int
	Subject     string
	Description string
}
