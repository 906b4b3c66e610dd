package domain

import (
	"fmt"
	"time"
)

// NullID marks an unset entity reference. Redmine ids start at 1.
const NullID = 0

// Ref is a named reference to another Redmine entity.
type Ref struct {
	ID   int
	Name string
}

type Issue struct {
	ID             int
	Subject        string
	Description    string
	Project        Ref
	Tracker        Ref
	Status         Ref
	Priority       Ref
	AssignedTo     Ref
	DoneRatio      int
	SpentHours     float64
	EstimatedHours float64
	UpdatedOn      time.Time
}

// Label renders the issue as "#42 Subject" for lists and messages.
func (i Issue) Label() string {
	if i.Subject == "" {
		return fmt.Sprintf("#%d", i.ID)
	}
	return fmt.Sprintf("#%d %s", i.ID, i.Subject)
}

func (i Issue) EntityID() int { return i.ID }

type Activity struct {
	ID        int
	Name      string
	IsDefault bool
}

func (a Activity) EntityID() int { return a.ID }

type IssueStatus struct {
	ID       int
	Name     string
	IsClosed bool
}

func (s IssueStatus) EntityID() int { return s.ID }

// TimeEntry is a remote record of time spent on an issue under an activity.
// ID is zero until Redmine has stored it.
type TimeEntry struct {
	ID         int
	IssueID    int
	ActivityID int
	Seconds    int
	Comment    string
	SpentOn    time.Time
}

// Hours converts the tracked seconds to the decimal hours Redmine stores.
func (e TimeEntry) Hours() float64 {
	return float64(e.Seconds) / 3600
}

// SecondsFromHours converts Redmine's decimal hours back to whole seconds.
func SecondsFromHours(h float64) int {
	if h <= 0 {
		return 0
	}
	return int(h*3600 + 0.5)
}
