// internal/handler/campaign_handler.go
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/deskagent/internal/backup"
	"github.com/unclebandit/deskagent/internal/export"
	"github.com/unclebandit/deskagent/internal/repository"
)

// CampaignHandler serves the maintenance endpoints: health, backups and
// spreadsheet export.
type CampaignHandler struct {
	Repo    repository.CampaignRepositoryInterface
	Backups *backup.Manager
	Now     func() time.Time
}

// NewCampaignHandler creates a new CampaignHandler with the given repository
func NewCampaignHandler(repo repository.CampaignRepositoryInterface, backups *backup.Manager) *CampaignHandler {
	return &CampaignHandler{
		Repo:    repo,
		Backups: backups,
		Now:     time.Now,
	}
}

func (h *CampaignHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthHandler)
	r.Get("/campaigns/export", h.ExportHandler)
	r.Post("/backups", h.CreateBackupHandler)
	r.Get("/backups", h.ListBackupsHandler)
}

// HealthHandler reports whether the campaign store can be read.
func (h *CampaignHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Repo.Load()
	if err != nil {
		logrus.WithError(err).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.Now().Format(time.RFC3339),
		"campaigns": len(campaigns),
	})
}

// CreateBackupHandler copies the store aside and prunes old copies.
func (h *CampaignHandler) CreateBackupHandler(w http.ResponseWriter, r *http.Request) {
	path, err := h.Backups.Backup()
	if err != nil {
		http.Error(w, "failed to create backup: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"backup":  path,
	})
}

func (h *CampaignHandler) ListBackupsHandler(w http.ResponseWriter, r *http.Request) {
	backups, err := h.Backups.List()
	if err != nil {
		http.Error(w, "failed to list backups: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  backups,
		"count": len(backups),
	})
}

// ExportHandler streams every campaign as an xlsx workbook.
func (h *CampaignHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.Repo.Load()
	if err != nil {
		http.Error(w, "failed to load campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	f, err := export.Workbook(campaigns)
	if err != nil {
		http.Error(w, "failed to build export: "+err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="campaigns_%d.xlsx"`, h.Now().Unix()))
	if err := f.Write(w); err != nil {
		logrus.WithError(err).Error("Failed to write export")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
