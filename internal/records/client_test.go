package records

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/domain"
	"github.com/packsmith-hq/magic-cards-backend/internal/funnel/stage"
)

func newTestClient(serverURL string) *Client {
	return NewClient(ClientOptions{
		BaseURL:       serverURL,
		APIKey:        "key-test",
		BaseID:        "base1",
		ProjectsTable: "Projects",
		ContactsTable: "Contacts",
		RatePerSec:    1000, // keep tests fast
	})
}

func TestGetProject_MapsFields(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/v0/base1/Projects/rec1", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "rec1",
			"createdTime": "2026-03-01T10:00:00Z",
			"fields": map[string]interface{}{
				"Name":            "Q3 Magic Cards",
				"Stage":           "Design Brief",
				"Tracking Number": "1Z999",
				"Illustrator Files": []map[string]interface{}{
					{"url": "https://assets.test/front.ai", "filename": "front.ai"},
				},
				"Contacts": []string{"recC1", "recC2"},
			},
		})
	}))
	defer server.Close()

	p, err := newTestClient(server.URL).GetProject(context.Background(), "rec1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer key-test", gotAuth)
	assert.Equal(t, "rec1", p.ID)
	assert.Equal(t, stage.DesignBrief, p.Stage)
	assert.Equal(t, "1Z999", p.TrackingNumber)
	require.Len(t, p.IllustratorFiles, 1)
	assert.Equal(t, "front.ai", p.IllustratorFiles[0].Filename)
	assert.Equal(t, []string{"recC1", "recC2"}, p.LinkedContacts)
}

func TestGetProject_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProject(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetContactsByIDs_EmptySetMakesNoCall(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).GetContactsByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Zero(t, calls)
}

func TestGetContactsByIDs_FilterFormula(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		formula := r.URL.Query().Get("filterByFormula")
		assert.Equal(t, "OR(RECORD_ID()='c1',RECORD_ID()='c2')", formula)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{
					"id":          "c1",
					"createdTime": "2026-03-01T10:00:00Z",
					"fields": map[string]interface{}{
						"Name":            "Ada Lovelace",
						"Contact Reviewd": "Flag",
						"Contact Review Feedback": "needs better photo",
						"Reject Round 1": true,
					},
				},
				{
					"id":          "c2",
					"createdTime": "2026-03-01T10:00:00Z",
					"fields":      map[string]interface{}{"Name": "Grace Hopper"},
				},
			},
		})
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).GetContactsByIDs(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// The legacy review column maps onto the domain field.
	assert.Equal(t, domain.ReviewFlag, out[0].ContactReview)
	assert.Equal(t, "needs better photo", out[0].ContactReviewFeedback)
	assert.True(t, out[0].RejectRound1)
}

func TestUpdateContact_SendsOnlyPatchedFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPatch, r.Method)
		require.Equal(t, "/v0/base1/Contacts/c1", r.URL.Path)

		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"Copy Title 1": "Dear Ada"}, body.Fields)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "c1",
			"createdTime": "2026-03-01T10:00:00Z",
			"fields":      map[string]interface{}{"Copy Title 1": "Dear Ada"},
		})
	}))
	defer server.Close()

	title := "Dear Ada"
	c, err := newTestClient(server.URL).UpdateContact(context.Background(), "c1", domain.ContactPatch{CopyTitle1: &title})
	require.NoError(t, err)
	assert.Equal(t, "Dear Ada", c.CopyTitle1)
}

func TestLinkContactToProject_ReadModifyWrite(t *testing.T) {
	var patched []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":          "p1",
				"createdTime": "2026-03-01T10:00:00Z",
				"fields": map[string]interface{}{
					"Stage":    "Contacts",
					"Contacts": []string{"c1"},
				},
			})
		case http.MethodPatch:
			var body struct {
				Fields map[string]interface{} `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			patched = body.Fields["Contacts"].([]interface{})
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":          "p1",
				"createdTime": "2026-03-01T10:00:00Z",
				"fields": map[string]interface{}{
					"Stage":    "Contacts",
					"Contacts": body.Fields["Contacts"],
				},
			})
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	require.NoError(t, client.LinkContactToProject(context.Background(), "p1", "c2"))
	assert.Equal(t, []interface{}{"c1", "c2"}, patched)

	// Unlink removes only the named id.
	require.NoError(t, client.UnlinkContactFromProject(context.Background(), "p1", "c1"))
	assert.Equal(t, []interface{}{}, patched)
}

func TestLinkContactToProject_AlreadyLinkedIsNoOp(t *testing.T) {
	patchCalls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			patchCalls++
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "p1",
			"createdTime": "2026-03-01T10:00:00Z",
			"fields": map[string]interface{}{
				"Contacts": []string{"c1"},
			},
		})
	}))
	defer server.Close()

	require.NoError(t, newTestClient(server.URL).LinkContactToProject(context.Background(), "p1", "c1"))
	assert.Zero(t, patchCalls)
}

func TestListProjects_FollowsPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("offset") == "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"records": []map[string]interface{}{
					{"id": "p1", "createdTime": "2026-03-01T10:00:00Z", "fields": map[string]interface{}{"Name": "A"}},
				},
				"offset": "page2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"records": []map[string]interface{}{
				{"id": "p2", "createdTime": "2026-03-01T10:00:00Z", "fields": map[string]interface{}{"Name": "B"}},
			},
		})
	}))
	defer server.Close()

	out, err := newTestClient(server.URL).ListProjects(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "p1", out[0].ID)
	assert.Equal(t, "p2", out[1].ID)
}

func TestServerErrorIsWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"INVALID_REQUEST"}`, http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).GetProject(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 422")
}
