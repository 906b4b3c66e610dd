package redmine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/redtimer/internal/apperr"
	"github.com/alexanderramin/redtimer/internal/domain"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/", APIKey: "k3y", Timeout: time.Second})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestClient_Issue_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/issues/42.json", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "k3y", r.Header.Get("X-Redmine-API-Key"))
		writeJSON(w, http.StatusOK, `{"issue":{"id":42,"subject":"Fix login",
			"project":{"id":1,"name":"Web"},"status":{"id":2,"name":"In Progress"},
			"done_ratio":30,"spent_hours":1.5,"estimated_hours":4}}`)
	})

	issue, err := c.Issue(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 42, issue.ID)
	assert.Equal(t, "Fix login", issue.Subject)
	assert.Equal(t, domain.Ref{ID: 1, Name: "Web"}, issue.Project)
	assert.Equal(t, 2, issue.Status.ID)
	assert.Equal(t, 4.0, issue.EstimatedHours)
	assert.Equal(t, domain.Ref{}, issue.AssignedTo)
}

func TestClient_Issue_NotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := c.Issue(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "issue #7 not found", apperr.Message(err))
}

func TestClient_Unauthorized_IsConnectionAndNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, MaxRetries: 3})

	_, err := c.Activities(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
	assert.Contains(t, apperr.Message(err), "API key")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_ServerErrorRetriesReads(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, `{"issue_statuses":[{"id":1,"name":"New"},{"id":5,"name":"Closed","is_closed":true}]}`)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, MaxRetries: 1})

	statuses, err := c.IssueStatuses(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Len(t, statuses, 2)
	assert.True(t, statuses[1].IsClosed)
}

func TestClient_WritesAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()
	c := NewClient(Options{BaseURL: srv.URL, MaxRetries: 3})

	_, err := c.SaveTimeEntry(context.Background(), domain.TimeEntry{IssueID: 1, ActivityID: 9, Seconds: 60})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Activities_SkipsInactive(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/enumerations/time_entry_activities.json", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"time_entry_activities":[
			{"id":8,"name":"Design","is_default":false},
			{"id":9,"name":"Development","is_default":true,"active":true},
			{"id":10,"name":"Legacy","active":false}]}`)
	})

	acts, err := c.Activities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.Activity{
		{ID: 8, Name: "Design"},
		{ID: 9, Name: "Development", IsDefault: true},
	}, acts)
}

func TestClient_LatestActivity(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/time_entries.json", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("issue_id"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `{"time_entries":[{"id":3,"issue":{"id":42},
			"activity":{"id":9,"name":"Development"},"hours":0.5,"spent_on":"2026-03-01"}]}`)
	})

	act, err := c.LatestActivity(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, act)
	assert.Equal(t, 9, act.ID)
	assert.Equal(t, "Development", act.Name)
}

func TestClient_LatestActivity_NoEntries(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"time_entries":[]}`)
	})

	act, err := c.LatestActivity(context.Background(), 42)
	require.NoError(t, err)
	assert.Nil(t, act)
}

func TestClient_SaveTimeEntry_Create(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/time_entries.json", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]timeEntryPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		p := body["time_entry"]
		assert.Equal(t, 42, p.IssueID)
		assert.Equal(t, 9, p.ActivityID)
		assert.InDelta(t, 0.5, p.Hours, 1e-9)
		assert.Equal(t, "2026-03-02", p.SpentOn)

		writeJSON(w, http.StatusCreated, `{"time_entry":{"id":77,"issue":{"id":42},
			"activity":{"id":9,"name":"Development"},"hours":0.5,"spent_on":"2026-03-02"}}`)
	})

	saved, err := c.SaveTimeEntry(context.Background(), domain.TimeEntry{
		IssueID:    42,
		ActivityID: 9,
		Seconds:    1800,
		SpentOn:    time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 77, saved.ID)
	assert.Equal(t, 1800, saved.Seconds)
	assert.Equal(t, 42, saved.IssueID)
}

func TestClient_SaveTimeEntry_UpdateUsesPut(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/time_entries/77.json", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	saved, err := c.SaveTimeEntry(context.Background(), domain.TimeEntry{ID: 77, IssueID: 42, ActivityID: 9, Seconds: 60})
	require.NoError(t, err)
	assert.Equal(t, 77, saved.ID)
}

func TestClient_SaveTimeEntry_ValidationErrors(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, `{"errors":["Activity cannot be blank","Hours is invalid"]}`)
	})

	_, err := c.SaveTimeEntry(context.Background(), domain.TimeEntry{IssueID: 42})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, "Activity cannot be blank; Hours is invalid", apperr.Message(err))
}

func TestClient_UpdateIssueStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/issues/42.json", r.URL.Path)
		var body map[string]issueUpdatePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 3, body["issue"].StatusID)
		w.WriteHeader(http.StatusNoContent)
	})

	require.NoError(t, c.UpdateIssueStatus(context.Background(), 42, 3))
}

func TestClient_Issues_Query(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/issues.json", r.URL.Path)
		assert.Equal(t, "me", q.Get("assigned_to_id"))
		assert.Equal(t, "open", q.Get("status_id"))
		assert.Equal(t, "25", q.Get("limit"))
		writeJSON(w, http.StatusOK, `{"issues":[{"id":1,"subject":"a"},{"id":2,"subject":"b"}],"total_count":2}`)
	})

	issues, err := c.Issues(context.Background(), IssueQuery{AssignedToMe: true, OpenOnly: true, Limit: 25})
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, "b", issues[1].Subject)
}

func TestClient_CreateIssue(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var body map[string]issueCreatePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "web", body["issue"].ProjectID)
		assert.Equal(t, "New thing", body["issue"].Subject)
		writeJSON(w, http.StatusCreated, `{"issue":{"id":101,"subject":"New thing","project":{"id":1,"name":"Web"}}}`)
	})

	issue, err := c.CreateIssue(context.Background(), NewIssue{ProjectID: "web", Subject: "New thing"})
	require.NoError(t, err)
	assert.Equal(t, 101, issue.ID)
}

func TestClient_CreateIssue_RequiresSubject(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1"})
	_, err := c.CreateIssue(context.Background(), NewIssue{ProjectID: "web"})
	assert.True(t, apperr.Is(err, apperr.KindLocalPrecondition))
}

func TestClient_Reconnect_RefreshesUser(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/current.json", r.URL.Path)
		calls.Add(1)
		writeJSON(w, http.StatusOK, `{"user":{"id":5,"login":"jdoe","firstname":"Jo","lastname":"Doe"}}`)
	})

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jo Doe", u.Name)
	_, err = c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load(), "user is cached")

	require.NoError(t, c.Reconnect(context.Background()))
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Unreachable(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})

	err := c.Reconnect(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindConnection))
}

func TestClient_MissingBaseURL(t *testing.T) {
	c := NewClient(Options{})
	_, err := c.Issue(context.Background(), 1)
	assert.True(t, apperr.Is(err, apperr.KindLocalPrecondition))
}
