// Package redmine is a small client for the Redmine REST API covering the
// calls the time tracker needs: issues, activities, statuses, time entries.
package redmine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/redtimer/internal/apperr"
	"github.com/alexanderramin/redtimer/internal/domain"
)

const dateLayout = "2006-01-02"

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	MaxRetries int // extra attempts for idempotent reads
	HTTPClient *http.Client
}

// Client talks to one Redmine instance. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	http       *http.Client

	mu   sync.Mutex
	user *User
}

// NewClient creates a Client. A zero Timeout means 10s.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
			},
		}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		timeout:    timeout,
		maxRetries: opts.MaxRetries,
		http:       hc,
	}
}

func (c *Client) BaseURL() string { return c.baseURL }

// Issue fetches one issue.
func (c *Client) Issue(ctx context.Context, id int) (*domain.Issue, error) {
	var env issueEnvelope
	path := fmt.Sprintf("/issues/%d.json", id)
	if err := c.do(ctx, "fetch_issue", http.MethodGet, path, nil, nil, &env); err != nil {
		return nil, notFoundAs(err, "fetch_issue", "issue", id)
	}
	issue := env.Issue.toDomain()
	return &issue, nil
}

// Issues lists issues matching q, most recently updated first.
func (c *Client) Issues(ctx context.Context, q IssueQuery) ([]domain.Issue, error) {
	params := url.Values{}
	params.Set("sort", "updated_on:desc")
	if q.AssignedToMe {
		params.Set("assigned_to_id", "me")
	}
	if q.ProjectID != "" {
		params.Set("project_id", q.ProjectID)
	}
	if q.OpenOnly {
		params.Set("status_id", "open")
	} else {
		params.Set("status_id", "*")
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var env issueListEnvelope
	if err := c.do(ctx, "list_issues", http.MethodGet, "/issues.json", params, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Issue, 0, len(env.Issues))
	for _, is := range env.Issues {
		out = append(out, is.toDomain())
	}
	return out, nil
}

// CreateIssue creates an issue and returns it as stored.
func (c *Client) CreateIssue(ctx context.Context, in NewIssue) (*domain.Issue, error) {
	if strings.TrimSpace(in.Subject) == "" || in.ProjectID == "" {
		return nil, apperr.NewPrecondition("create_issue", "project and subject are required")
	}
	body := map[string]issueCreatePayload{"issue": {
		ProjectID:   in.ProjectID,
		TrackerID:   in.TrackerID,
		Subject:     in.Subject,
		Description: in.Description,
	}}
	var env issueEnvelope
	if err := c.do(ctx, "create_issue", http.MethodPost, "/issues.json", nil, body, &env); err != nil {
		return nil, err
	}
	issue := env.Issue.toDomain()
	return &issue, nil
}

// Activities returns the active time entry activities.
func (c *Client) Activities(ctx context.Context) ([]domain.Activity, error) {
	var env activityListEnvelope
	if err := c.do(ctx, "fetch_activities", http.MethodGet, "/enumerations/time_entry_activities.json", nil, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(env.Activities))
	for _, a := range env.Activities {
		if a.Active != nil && !*a.Active {
			continue
		}
		out = append(out, domain.Activity{ID: a.ID, Name: a.Name, IsDefault: a.IsDefault})
	}
	return out, nil
}

// IssueStatuses returns all issue statuses.
func (c *Client) IssueStatuses(ctx context.Context) ([]domain.IssueStatus, error) {
	var env statusListEnvelope
	if err := c.do(ctx, "fetch_issue_statuses", http.MethodGet, "/issue_statuses.json", nil, nil, &env); err != nil {
		return nil, err
	}
	out := make([]domain.IssueStatus, 0, len(env.Statuses))
	for _, s := range env.Statuses {
		out = append(out, domain.IssueStatus{ID: s.ID, Name: s.Name, IsClosed: s.IsClosed})
	}
	return out, nil
}

// LatestActivity returns the activity of the newest time entry on the
// issue, or nil when the issue has no time entries yet.
func (c *Client) LatestActivity(ctx context.Context, issueID int) (*domain.Activity, error) {
	entries, err := c.timeEntries(ctx, issueID, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 || entries[0].Activity == nil {
		return nil, nil
	}
	ref := entries[0].Activity
	return &domain.Activity{ID: ref.ID, Name: ref.Name}, nil
}

// timeEntries lists the newest time entries of an issue.
func (c *Client) timeEntries(ctx context.Context, issueID, limit int) ([]timeEntryJSON, error) {
	params := url.Values{}
	params.Set("issue_id", strconv.Itoa(issueID))
	params.Set("sort", "spent_on:desc")
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var env timeEntryListEnvelope
	if err := c.do(ctx, "fetch_time_entries", http.MethodGet, "/time_entries.json", params, nil, &env); err != nil {
		return nil, err
	}
	return env.TimeEntries, nil
}

// SaveTimeEntry creates the entry when e.ID is zero and updates it otherwise.
func (c *Client) SaveTimeEntry(ctx context.Context, e domain.TimeEntry) (*domain.TimeEntry, error) {
	payload := timeEntryPayload{
		IssueID:    e.IssueID,
		ActivityID: e.ActivityID,
		Hours:      e.Hours(),
		Comments:   e.Comment,
	}
	if !e.SpentOn.IsZero() {
		payload.SpentOn = e.SpentOn.Format(dateLayout)
	}
	body := map[string]timeEntryPayload{"time_entry": payload}

	if e.ID != 0 {
		path := fmt.Sprintf("/time_entries/%d.json", e.ID)
		if err := c.do(ctx, "update_time_entry", http.MethodPut, path, nil, body, nil); err != nil {
			return nil, notFoundAs(err, "update_time_entry", "time entry", e.ID)
		}
		saved := e
		return &saved, nil
	}

	var env timeEntryEnvelope
	if err := c.do(ctx, "create_time_entry", http.MethodPost, "/time_entries.json", nil, body, &env); err != nil {
		return nil, notFoundAs(err, "create_time_entry", "issue", e.IssueID)
	}
	saved := env.TimeEntry.toDomain()
	if saved.IssueID == 0 {
		saved.IssueID = e.IssueID
	}
	if saved.ActivityID == 0 {
		saved.ActivityID = e.ActivityID
	}
	// Redmine rounds hours; keep the locally measured duration.
	saved.Seconds = e.Seconds
	return &saved, nil
}

// UpdateIssueStatus moves an issue to another status.
func (c *Client) UpdateIssueStatus(ctx context.Context, issueID, statusID int) error {
	body := map[string]issueUpdatePayload{"issue": {StatusID: statusID}}
	path := fmt.Sprintf("/issues/%d.json", issueID)
	if err := c.do(ctx, "update_issue_status", http.MethodPut, path, nil, body, nil); err != nil {
		return notFoundAs(err, "update_issue_status", "issue", issueID)
	}
	return nil
}

// CurrentUser returns the account behind the API key, cached after the
// first successful call.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	c.mu.Lock()
	cached := c.user
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var env userEnvelope
	if err := c.do(ctx, "fetch_current_user", http.MethodGet, "/users/current.json", nil, nil, &env); err != nil {
		return nil, err
	}
	u := &User{
		ID:    env.User.ID,
		Login: env.User.Login,
		Name:  strings.TrimSpace(env.User.Firstname + " " + env.User.Lastname),
	}
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
	return u, nil
}

// Reconnect drops pooled connections and the cached user, then verifies
// the server and credentials again.
func (c *Client) Reconnect(ctx context.Context) error {
	c.http.CloseIdleConnections()
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	_, err := c.CurrentUser(ctx)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, params url.Values, body, out any) error {
	if c.baseURL == "" {
		return apperr.NewPrecondition(op, "redmine url is not configured")
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return apperr.NewInternal(op, fmt.Errorf("marshaling request: %w", err))
		}
	}

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		lastErr = c.attempt(ctx, op, method, target, payload, out)
		if lastErr == nil {
			return nil
		}
		// Only transport failures are worth another try.
		if !apperr.Is(lastErr, apperr.KindConnection) || ctx.Err() != nil {
			break
		}
		var ae *apperr.Error
		if errors.As(lastErr, &ae) && ae.Status != 0 && ae.Status < 500 {
			break
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, op, method, target string, payload []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return apperr.NewInternal(op, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Redmine-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return apperr.NewConnection(op, fmt.Errorf("request timed out after %s", c.timeout))
		}
		return apperr.NewConnection(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.NewConnection(op, fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode >= 300 {
		return classifyStatus(op, resp.StatusCode, respBody)
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return apperr.NewInternal(op, fmt.Errorf("decoding response: %w", err))
	}
	return nil
}

func classifyStatus(op string, status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.NewUnauthorized(op, status)
	case status == http.StatusNotFound:
		return &apperr.Error{Kind: apperr.KindNotFound, Op: op, Status: status, Message: "not found"}
	case status >= 500:
		return &apperr.Error{
			Kind:    apperr.KindConnection,
			Op:      op,
			Status:  status,
			Message: fmt.Sprintf("server error (HTTP %d)", status),
		}
	default:
		msg := fmt.Sprintf("request rejected (HTTP %d)", status)
		var env errorEnvelope
		if json.Unmarshal(body, &env) == nil && len(env.Errors) > 0 {
			msg = strings.Join(env.Errors, "; ")
		}
		return apperr.NewValidation(op, status, msg)
	}
}

// notFoundAs names the missing entity in a 404.
func notFoundAs(err error, op, entity string, id int) error {
	if apperr.Is(err, apperr.KindNotFound) {
		return apperr.NewNotFound(op, entity, id)
	}
	return err
}
