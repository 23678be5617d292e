// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

// Routes mounts the campaign endpoints on r.
func (c *CampaignController) Routes(r chi.Router) {
	r.Post("/submit-campaign", c.SubmitCampaign)
	r.Get("/campaigns", c.ListCampaigns)
	r.Get("/campaigns/pending", c.PendingCampaigns)
	r.Get("/campaigns/{id}", c.GetCampaignDetails)
	r.Patch("/campaigns/{id}", c.UpdateCampaign)
	r.Post("/campaigns/{id}/clean", c.CleanCampaign)
	r.Get("/campaigns/{id}/titles", c.SuggestTitles)
	r.Post("/campaigns/{id}/message", c.GenerateMessage)
	r.Post("/campaigns/{id}/create", c.QueueCreation)
}

func (c *CampaignController) SubmitCampaign(w http.ResponseWriter, r *http.Request) {
	var sub service.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		writeError(w, appErrors.NewValidation("body", "invalid JSON: "+err.Error()))
		return
	}

	result, err := c.CampaignService.SubmitCampaign(sub)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success":          true,
		"campaign_id":      result.CampaignID,
		"whatsapp_message": result.WhatsAppMessage,
		"queued":           result.Queued,
	})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	if status != "" && !model.ValidStatus(status) {
		writeError(w, appErrors.NewValidation(model.ColStatus, "unknown status "+status))
		return
	}

	campaigns, pagination, err := c.CampaignService.ListCampaigns(page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) PendingCampaigns(w http.ResponseWriter, r *http.Request) {
	pending, err := c.CampaignService.PendingCampaigns()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  pending,
		"count": len(pending),
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	campaign, err := c.CampaignService.GetCampaignDetails(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, appErrors.NewValidation("body", "expected an object of column to string value"))
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(chi.URLParam(r, "id"), updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) CleanCampaign(w http.ResponseWriter, r *http.Request) {
	var seed *int64
	if v := r.URL.Query().Get("seed"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, appErrors.NewValidation("seed", "must be an integer"))
			return
		}
		seed = &n
	}

	campaign, err := c.CampaignService.CleanCampaign(chi.URLParam(r, "id"), seed)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) SuggestTitles(w http.ResponseWriter, r *http.Request) {
	titles, err := c.CampaignService.SuggestTitlesFor(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"titles": titles})
}

func (c *CampaignController) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Template string `json:"template"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, appErrors.NewValidation("body", "invalid JSON: "+err.Error()))
			return
		}
	}
	if body.Template == "" {
		body.Template = service.TemplateStandard
	}

	msg, err := c.CampaignService.GenerateMessage(chi.URLParam(r, "id"), body.Template)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"template":         body.Template,
		"whatsapp_message": msg,
	})
}

func (c *CampaignController) QueueCreation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := c.CampaignService.QueueForCreation(id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"success":     true,
		"campaign_id": id,
		"queued":      true,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the typed store errors onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		logrus.WithError(err).Error("Request failed")
	}
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   err.Error(),
	})
}

func StatusFor(err error) int {
	var (
		notFound   *appErrors.ErrCampaignNotFound
		validation *appErrors.ValidationError
		template   *appErrors.UnknownTemplateError
		corrupt    *appErrors.StoreCorruptionError
	)
	// Corruption first: its cause may itself be a validation error.
	switch {
	case errors.As(err, &corrupt):
		return http.StatusConflict
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &validation), errors.As(err, &template):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
