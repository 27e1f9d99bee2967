package records

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
)

const (
	// DefaultTimeout covers single-record reads and writes.
	DefaultTimeout = 30 * time.Second

	// findChunkSize caps how many record ids go into one find-by-id-set
	// formula; larger sets are split across sequential requests.
	findChunkSize = 50
)

// ClientOptions configures the remote record-store client.
type ClientOptions struct {
	BaseURL       string
	APIKey        string
	BaseID        string
	ProjectsTable string
	ContactsTable string

	// RatePerSec throttles outbound calls to stay inside the store's
	// request-per-second cap. Zero means 5 req/s.
	RatePerSec float64
}

// Client talks to the remote tabular record store over its REST API.
// Endpoints follow the /v0/{base}/{table}[/{id}] shape; partial updates go
// through PATCH with a fields object, and find-by-id-set is expressed as a
// filterByFormula query.
type Client struct {
	baseURL       string
	apiKey        string
	projectsTable string
	contactsTable string
	httpClient    *http.Client
	limiter       *rate.Limiter
}

// NewClient creates a record-store client.
func NewClient(opt ClientOptions) *Client {
	rps := opt.RatePerSec
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		baseURL:       strings.TrimRight(opt.BaseURL, "/") + "/v0/" + opt.BaseID,
		apiKey:        opt.APIKey,
		projectsTable: opt.ProjectsTable,
		contactsTable: opt.ContactsTable,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), int(rps)),
	}
}

// record is the wire shape of one row in the remote store.
type record struct {
	ID          string                 `json:"id"`
	CreatedTime time.Time              `json:"createdTime"`
	Fields      map[string]interface{} `json:"fields"`
}

type recordPage struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// GetProject fetches one project by id.
func (c *Client) GetProject(ctx context.Context, id string) (*domain.Project, error) {
	rec, err := c.getRecord(ctx, c.projectsTable, id)
	if err != nil {
		return nil, err
	}
	return projectFromRecord(rec), nil
}

// ListProjects fetches every project row, following pagination offsets.
func (c *Client) ListProjects(ctx context.Context) ([]domain.Project, error) {
	out := make([]domain.Project, 0, 16)
	offset := ""
	for {
		q := url.Values{}
		q.Set("pageSize", "100")
		if offset != "" {
			q.Set("offset", offset)
		}
		var page recordPage
		if err := c.do(ctx, http.MethodGet, c.tableURL(c.projectsTable)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			out = append(out, *projectFromRecord(&rec))
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

// CreateProject inserts a project row and returns the stored representation.
func (c *Client) CreateProject(ctx context.Context, fields domain.ProjectPatch) (*domain.Project, error) {
	rec, err := c.createRecord(ctx, c.projectsTable, projectFields(fields))
	if err != nil {
		return nil, err
	}
	return projectFromRecord(rec), nil
}

// UpdateProject patches a project row and returns the stored representation.
func (c *Client) UpdateProject(ctx context.Context, id string, fields domain.ProjectPatch) (*domain.Project, error) {
	rec, err := c.updateRecord(ctx, c.projectsTable, id, projectFields(fields))
	if err != nil {
		return nil, err
	}
	return projectFromRecord(rec), nil
}

// DeleteProject removes a project row.
func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.deleteRecord(ctx, c.projectsTable, id)
}

// GetContactsByIDs fetches contacts whose id is in the given set. An empty
// set short-circuits to an empty result without a network call.
func (c *Client) GetContactsByIDs(ctx context.Context, ids []string) ([]domain.Contact, error) {
	if len(ids) == 0 {
		return []domain.Contact{}, nil
	}

	out := make([]domain.Contact, 0, len(ids))
	for start := 0; start < len(ids); start += findChunkSize {
		end := start + findChunkSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk, err := c.findContacts(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
	return out, nil
}

func (c *Client) findContacts(ctx context.Context, ids []string) ([]domain.Contact, error) {
	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		terms = append(terms, fmt.Sprintf("RECORD_ID()='%s'", id))
	}
	q := url.Values{}
	q.Set("filterByFormula", "OR("+strings.Join(terms, ",")+")")
	q.Set("pageSize", "100")

	out := make([]domain.Contact, 0, len(ids))
	offset := ""
	for {
		if offset != "" {
			q.Set("offset", offset)
		}
		var page recordPage
		if err := c.do(ctx, http.MethodGet, c.tableURL(c.contactsTable)+"?"+q.Encode(), nil, &page); err != nil {
			return nil, err
		}
		for _, rec := range page.Records {
			out = append(out, *contactFromRecord(&rec))
		}
		if page.Offset == "" {
			return out, nil
		}
		offset = page.Offset
	}
}

// CreateContact inserts a contact row and returns the stored representation.
func (c *Client) CreateContact(ctx context.Context, fields domain.ContactPatch) (*domain.Contact, error) {
	rec, err := c.createRecord(ctx, c.contactsTable, contactFields(fields))
	if err != nil {
		return nil, err
	}
	return contactFromRecord(rec), nil
}

// UpdateContact patches a contact row and returns the stored representation.
func (c *Client) UpdateContact(ctx context.Context, id string, fields domain.ContactPatch) (*domain.Contact, error) {
	rec, err := c.updateRecord(ctx, c.contactsTable, id, contactFields(fields))
	if err != nil {
		return nil, err
	}
	return contactFromRecord(rec), nil
}

// DeleteContact removes a contact row. Callers unlink first; the store does
// not cascade.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	return c.deleteRecord(ctx, c.contactsTable, id)
}

// LinkContactToProject appends the contact id to the project's link list.
// Read-modify-write; last write wins against concurrent writers.
func (c *Client) LinkContactToProject(ctx context.Context, projectID, contactID string) error {
	p, err := c.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	if p.HasLinkedContact(contactID) {
		return nil
	}
	links := append(append([]string{}, p.LinkedContacts...), contactID)
	_, err = c.UpdateProject(ctx, projectID, domain.ProjectPatch{LinkedContacts: &links})
	return err
}

// UnlinkContactFromProject removes the contact id from the project's link
// list. Read-modify-write; last write wins against concurrent writers.
func (c *Client) UnlinkContactFromProject(ctx context.Context, projectID, contactID string) error {
	p, err := c.GetProject(ctx, projectID)
	if err != nil {
		return err
	}
	links := make([]string, 0, len(p.LinkedContacts))
	for _, id := range p.LinkedContacts {
		if id != contactID {
			links = append(links, id)
		}
	}
	if len(links) == len(p.LinkedContacts) {
		return nil
	}
	_, err = c.UpdateProject(ctx, projectID, domain.ProjectPatch{LinkedContacts: &links})
	return err
}

func (c *Client) tableURL(table string) string {
	return c.baseURL + "/" + url.PathEscape(table)
}

func (c *Client) recordURL(table, id string) string {
	return c.tableURL(table) + "/" + url.PathEscape(id)
}

func (c *Client) getRecord(ctx context.Context, table, id string) (*record, error) {
	var rec record
	if err := c.do(ctx, http.MethodGet, c.recordURL(table, id), nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) createRecord(ctx context.Context, table string, fields map[string]interface{}) (*record, error) {
	body := map[string]interface{}{"fields": fields}
	var rec record
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) updateRecord(ctx context.Context, table, id string, fields map[string]interface{}) (*record, error) {
	body := map[string]interface{}{"fields": fields}
	var rec record
	if err := c.do(ctx, http.MethodPatch, c.recordURL(table, id), body, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) deleteRecord(ctx context.Context, table, id string) error {
	return c.do(ctx, http.MethodDelete, c.recordURL(table, id), nil, nil)
}

// do performs one store call: waits on the rate limiter, sends the request
// with auth, and decodes the response into out when non-nil.
func (c *Client) do(ctx context.Context, method, reqURL string, body, out interface{}) error {
	logger := NewLogger(ctx)

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.LogError("store_call", err)
		recordStoreCall(duration, err)
		return fmt.Errorf("record store request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		recordStoreCall(duration, domain.ErrNotFound)
		return domain.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("record store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
		logger.LogWarnf("store_call", "%s %s -> %d", method, reqURL, resp.StatusCode)
		recordStoreCall(duration, err)
		return err
	}
	recordStoreCall(duration, nil)

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
