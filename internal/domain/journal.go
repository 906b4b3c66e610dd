package domain

import "time"

// JournalEntry is the local record of a time entry Redmine accepted.
// Only saved time is journaled; unsent time lives in the counter alone.
type JournalEntry struct {
	ID           string
	RemoteID     int
	IssueID      int
	IssueSubject string
	ActivityID   int
	ActivityName string
	Seconds      int
	Comment      string
	SpentOn      time.Time
	SavedAt      time.Time
}
