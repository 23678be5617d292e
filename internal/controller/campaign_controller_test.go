package controller_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/deskagent/internal/controller"
	appErrors "github.com/unclebandit/deskagent/internal/errors"
	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/repository"
	"github.com/unclebandit/deskagent/internal/service"
)

// --- Mock Repositories ---

type MockCampaignRepoForPagination struct {
	campaigns []*model.Campaign
}

func (m *MockCampaignRepoForPagination) Load() ([]*model.Campaign, error) { return m.campaigns, nil }
func (m *MockCampaignRepoForPagination) Save(c []*model.Campaign) error   { return nil }
func (m *MockCampaignRepoForPagination) Add(c *model.Campaign) (string, error) {
	return c.ID, nil
}
func (m *MockCampaignRepoForPagination) Update(id string, updates map[string]string) error {
	return nil
}

func (m *MockCampaignRepoForPagination) GetByID(id string) (*model.Campaign, error) {
	for _, c := range m.campaigns {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, appErrors.NewCampaignNotFound(id)
}

func (m *MockCampaignRepoForPagination) Query(pred repository.Predicate) (iter.Seq[*model.Campaign], error) {
	return func(yield func(*model.Campaign) bool) {
		for _, c := range m.campaigns {
			if pred(c) && !yield(c) {
				return
			}
		}
	}, nil
}

func (m *MockCampaignRepoForPagination) ListCampaigns(offset, limit int, status string) ([]*model.Campaign, int, error) {
	var filtered []*model.Campaign
	for _, c := range m.campaigns {
		if status != "" && c.Status != status {
			continue
		}
		filtered = append(filtered, c)
	}
	total := len(filtered)

	start := offset
	end := offset + limit
	if start > total {
		return []*model.Campaign{}, total, nil
	}
	if end > total {
		end = total
	}
	return filtered[start:end], total, nil
}

func newRouter(svc *service.CampaignService) http.Handler {
	ctrl := &controller.CampaignController{CampaignService: svc}
	r := chi.NewRouter()
	r.Route("/api", ctrl.Routes)
	return r
}

func newStoreService(t *testing.T) (*service.CampaignService, *repository.CampaignRepository) {
	t.Helper()
	repo := repository.NewCampaignRepository(filepath.Join(t.TempDir(), "campaigns.csv"))
	return &service.CampaignService{CampaignRepo: repo}, repo
}

func do(t *testing.T, h http.Handler, method, target string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var res map[string]interface{}
	json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(&res)
	return w, res
}

// --- Test Functions ---

func TestListCampaignsPagination(t *testing.T) {
	totalCampaigns := 25
	campaigns := []*model.Campaign{}
	for i := 1; i <= totalCampaigns; i++ {
		campaigns = append(campaigns, &model.Campaign{
			ID:     fmt.Sprintf("c%07d", i),
			Name:   "Campaign " + strconv.Itoa(i),
			Status: model.StatusDraft,
		})
	}
	campaigns = append(campaigns, &model.Campaign{ID: "active01", Name: "Other", Status: model.StatusActive})

	repo := &MockCampaignRepoForPagination{campaigns: campaigns}
	h := newRouter(&service.CampaignService{CampaignRepo: repo})

	pageSize := 10
	seen := map[string]bool{}
	totalPages := (totalCampaigns + pageSize - 1) / pageSize

	for page := 1; page <= totalPages; page++ {
		req := httptest.NewRequest(
			"GET",
			"/api/campaigns?page="+strconv.Itoa(page)+"&page_size="+strconv.Itoa(pageSize)+"&status=draft",
			nil,
		)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var res struct {
			Data       []model.Campaign `json:"data"`
			Pagination struct {
				Page       int `json:"page"`
				PageSize   int `json:"page_size"`
				TotalCount int `json:"total_count"`
				TotalPages int `json:"total_pages"`
			} `json:"pagination"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))

		assert.Equal(t, page, res.Pagination.Page)
		assert.Equal(t, totalCampaigns, res.Pagination.TotalCount)
		assert.Equal(t, totalPages, res.Pagination.TotalPages)
		for _, c := range res.Data {
			assert.False(t, seen[c.ID], "campaign %s returned twice", c.ID)
			assert.Equal(t, model.StatusDraft, c.Status)
			seen[c.ID] = true
		}
	}
	assert.Len(t, seen, totalCampaigns)
}

func TestListCampaignsRejectsUnknownStatus(t *testing.T) {
	h := newRouter(&service.CampaignService{CampaignRepo: &MockCampaignRepoForPagination{}})
	w, res := do(t, h, "GET", "/api/campaigns?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, res["success"])
}

func TestSubmitCampaign(t *testing.T) {
	svc, repo := newStoreService(t)
	h := newRouter(svc)

	w, res := do(t, h, "POST", "/api/submit-campaign", map[string]interface{}{
		"name":              "Amina",
		"email":             "amina@example.com",
		"phone":             "+31 6 1234 5678",
		"campaign_title":    "Clean Water for Kibera",
		"presentation_text": "we need   clean water. please help",
		"tags":              []string{"water", "kenya"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, true, res["success"])
	assert.Equal(t, false, res["queued"])

	id, _ := res["campaign_id"].(string)
	require.NotEmpty(t, id)

	stored, err := repo.GetByID(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, stored.Status)
	assert.Equal(t, "Clean Water for Kibera", stored.SuggestedTitle)
	assert.Equal(t, "water,kenya", stored.Tags)
	assert.Contains(t, stored.WhatsAppMessage, service.PlaceholderURLBase+id)
	assert.Equal(t, res["whatsapp_message"], stored.WhatsAppMessage)
}

func TestSubmitCampaignMissingFields(t *testing.T) {
	svc, repo := newStoreService(t)
	h := newRouter(svc)

	w, res := do(t, h, "POST", "/api/submit-campaign", map[string]interface{}{
		"name":           "Amina",
		"campaign_title": "Clean Water",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	msg, _ := res["error"].(string)
	for _, field := range []string{"email", "phone", "presentation_text"} {
		assert.Contains(t, msg, field)
	}

	all, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCampaignErrors(t *testing.T) {
	svc, repo := newStoreService(t)
	h := newRouter(svc)

	_, err := repo.Add(&model.Campaign{ID: "live0001", Name: "Amina", Title: "Help", WhydonateURL: "https://whydonate.com/fundraising/x", Status: model.StatusActive})
	require.NoError(t, err)
	_, err = repo.Add(&model.Campaign{ID: "draft001", Name: "Joost", Title: "Roof"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		method string
		target string
		body   interface{}
		status int
	}{
		{"unknown campaign", "GET", "/api/campaigns/nope", nil, http.StatusNotFound},
		{"unknown template", "POST", "/api/campaigns/live0001/message", map[string]string{"template": "birthday"}, http.StatusBadRequest},
		{"message before creation", "POST", "/api/campaigns/draft001/message", nil, http.StatusBadRequest},
		{"created_date is immutable", "PATCH", "/api/campaigns/draft001", map[string]string{"created_date": "2020-01-01"}, http.StatusBadRequest},
		{"blank column", "PATCH", "/api/campaigns/draft001", map[string]string{"": "x"}, http.StatusBadRequest},
		{"padded column", "PATCH", "/api/campaigns/draft001", map[string]string{" name": "x"}, http.StatusBadRequest},
		{"clean without text", "POST", "/api/campaigns/draft001/clean", nil, http.StatusBadRequest},
		{"bad seed", "POST", "/api/campaigns/draft001/clean?seed=x", nil, http.StatusBadRequest},
		{"queue without queue", "POST", "/api/campaigns/draft001/create", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.Equal(t, false, res["success"])
		})
	}

	all, err := repo.Load()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCleanAndMessage(t *testing.T) {
	svc, repo := newStoreService(t)
	h := newRouter(svc)

	_, err := repo.Add(&model.Campaign{ID: "abc12345", Name: "Amina", Title: "Water", PresentationText: "hello   world.  we need help"})
	require.NoError(t, err)

	w, res := do(t, h, "POST", "/api/campaigns/abc12345/clean", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Hello world. We need help.", res["clean_text"])
	assert.Equal(t, "Support Amina's Cause", res["suggested_title"])

	w, res = do(t, h, "PATCH", "/api/campaigns/abc12345", map[string]string{
		"whydonate_url": "https://whydonate.com/fundraising/water",
		"status":        model.StatusActive,
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.StatusActive, res["status"])

	w, res = do(t, h, "POST", "/api/campaigns/abc12345/message", map[string]string{"template": service.TemplateUrgent})
	require.Equal(t, http.StatusOK, w.Code)
	msg, _ := res["whatsapp_message"].(string)
	assert.True(t, strings.HasPrefix(msg, "🚨 *URGENT: Water*"))
	assert.Contains(t, msg, "https://whydonate.com/fundraising/water")

	w, res = do(t, h, "GET", "/api/campaigns/abc12345/titles", nil)
	require.Equal(t, http.StatusOK, w.Code)
	titles, _ := res["titles"].([]interface{})
	assert.Contains(t, titles, "Hello world")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{appErrors.NewCampaignNotFound("x"), http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", appErrors.NewValidation("name", "blank")), http.StatusBadRequest},
		{&appErrors.UnknownTemplateError{Kind: "x"}, http.StatusBadRequest},
		{&appErrors.StoreCorruptionError{Path: "a.csv", Err: errors.New("bad")}, http.StatusConflict},
		{&appErrors.StoreCorruptionError{Path: "a.csv", Err: appErrors.NewValidation("status", "unknown")}, http.StatusConflict},
		{appErrors.NewIO("write", "a.csv", errors.New("disk full")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, controller.StatusFor(tt.err), tt.err.Error())
	}
}
