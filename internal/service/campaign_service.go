// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/unclebandit/deskagent/internal/automation"
	appErrors "github.com/unclebandit/deskagent/internal/errors"
	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/queue"
	"github.com/unclebandit/deskagent/internal/repository"
)

// PlaceholderURLBase prefixes the campaign id in messages drafted before
// the campaign exists on the site.
const PlaceholderURLBase = "https://whydonate.com/campaign/"

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	Queue        queue.Queue
	Creator      automation.Creator

	// Topic names the creation queue; blank means
	// queue.TopicCampaignCreations.
	Topic string

	DefaultCategory     string
	DefaultTargetAmount float64
}

// Submission is a campaign sent in from the public web form.
type Submission struct {
	Name             string   `json:"name"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	CampaignTitle    string   `json:"campaign_title"`
	PresentationText string   `json:"presentation_text"`
	Category         string   `json:"category"`
	TargetAmount     float64  `json:"target_amount"`
	DonationType     string   `json:"donation_type"`
	Tags             []string `json:"tags"`
}

type SubmissionResult struct {
	CampaignID      string `json:"campaign_id"`
	WhatsAppMessage string `json:"whatsapp_message"`
	Queued          bool   `json:"queued"`
}

// CreationResult reports one attempt to create a campaign on the site.
type CreationResult struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	URL        string `json:"url,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (s *CampaignService) creationTopic() string {
	if s.Topic != "" {
		return s.Topic
	}
	return queue.TopicCampaignCreations
}

func (s *CampaignService) applyDefaults(c *model.Campaign) {
	if c.Category == "" && s.DefaultCategory != "" {
		c.Category = s.DefaultCategory
	}
	if c.TargetAmount == 0 && s.DefaultTargetAmount > 0 {
		c.TargetAmount = s.DefaultTargetAmount
	}
}

// CreateCampaign stores a new draft record as entered by an operator.
func (s *CampaignService) CreateCampaign(c *model.Campaign) (*model.Campaign, error) {
	s.applyDefaults(c)
	if _, err := s.CampaignRepo.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SubmitCampaign accepts a web-form submission: the record is stored as
// pending with a drafted outreach message and queued for creation.
func (s *CampaignService) SubmitCampaign(sub Submission) (*SubmissionResult, error) {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", sub.Name},
		{"email", sub.Email},
		{"phone", sub.Phone},
		{"campaign_title", sub.CampaignTitle},
		{"presentation_text", sub.PresentationText},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, appErrors.NewMissingFields(missing)
	}

	c := &model.Campaign{
		ID:               repository.NewCampaignID(),
		Name:             strings.TrimSpace(sub.Name),
		Email:            strings.TrimSpace(sub.Email),
		Phone:            strings.TrimSpace(sub.Phone),
		Title:            strings.TrimSpace(sub.CampaignTitle),
		SuggestedTitle:   strings.TrimSpace(sub.CampaignTitle),
		PresentationText: sub.PresentationText,
		Category:         strings.TrimSpace(sub.Category),
		TargetAmount:     sub.TargetAmount,
		DonationType:     strings.TrimSpace(sub.DonationType),
		Status:           model.StatusPending,
	}
	c.SetTags(sub.Tags)

	msg, err := DraftOutreachMessage(c.Name, c.Title, PlaceholderURLBase+c.ID, TemplateStandard)
	if err != nil {
		return nil, err
	}
	c.WhatsAppMessage = msg

	if _, err := s.CreateCampaign(c); err != nil {
		return nil, err
	}

	result := &SubmissionResult{CampaignID: c.ID, WhatsAppMessage: msg}
	if s.Queue != nil {
		if err := s.Queue.Publish(s.creationTopic(), c.ID); err != nil {
			logrus.WithError(err).WithField("campaign_id", c.ID).Warn("Failed to queue campaign creation")
		} else {
			result.Queued = true
		}
	}
	return result, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.CampaignRepo.ListCampaigns(offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return campaigns, pagination, nil
}

// GetCampaignDetails fetches a campaign by ID
func (s *CampaignService) GetCampaignDetails(id string) (*model.Campaign, error) {
	return s.CampaignRepo.GetByID(id)
}

func (s *CampaignService) UpdateCampaign(id string, updates map[string]string) (*model.Campaign, error) {
	if err := s.CampaignRepo.Update(id, updates); err != nil {
		return nil, err
	}
	return s.CampaignRepo.GetByID(id)
}

// PendingCampaigns lists campaigns that still need creating on the site.
func (s *CampaignService) PendingCampaigns() ([]*model.Campaign, error) {
	seq, err := s.CampaignRepo.Query(repository.Pending)
	if err != nil {
		return nil, err
	}
	pending := []*model.Campaign{}
	for c := range seq {
		pending = append(pending, c)
	}
	return pending, nil
}

// CleanCampaign derives clean_text and suggested_title from the stored
// story. seed selects a title candidate reproducibly; nil takes the first.
func (s *CampaignService) CleanCampaign(id string, seed *int64) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(c.PresentationText) == "" {
		return nil, appErrors.NewValidation(model.ColPresentationText, "no text to clean")
	}

	cleaned := Normalize(c.PresentationText)
	suggested := PickTitle(SuggestTitles(c.Name, cleaned, c.Category), seed)

	return s.UpdateCampaign(id, map[string]string{
		model.ColCleanText:      cleaned,
		model.ColSuggestedTitle: suggested,
	})
}

func (s *CampaignService) SuggestTitlesFor(id string) ([]string, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	story := c.CleanText
	if story == "" {
		story = c.PresentationText
	}
	return SuggestTitles(c.Name, story, c.Category), nil
}

// GenerateMessage drafts the outreach message for a created campaign and
// stores it in whatsapp_message.
func (s *CampaignService) GenerateMessage(id, kind string) (string, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(c.WhydonateURL) == "" {
		return "", appErrors.NewValidation(model.ColWhydonateURL, "create the campaign on the site first")
	}

	title := c.Title
	if strings.TrimSpace(title) == "" {
		title = c.SuggestedTitle
	}
	msg, err := DraftOutreachMessage(c.Name, title, c.WhydonateURL, kind)
	if err != nil {
		return "", err
	}
	if err := s.CampaignRepo.Update(id, map[string]string{model.ColWhatsAppMessage: msg}); err != nil {
		return "", err
	}
	return msg, nil
}

// QueueForCreation marks a campaign pending and publishes it for the
// creation worker.
func (s *CampaignService) QueueForCreation(id string) error {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return err
	}
	if !c.IsPending() {
		return appErrors.NewValidation(model.ColStatus, "campaign "+id+" is "+c.Status+" and cannot be queued")
	}
	if s.Queue == nil {
		return appErrors.NewValidation("queue", "no creation queue configured")
	}
	if c.Status != model.StatusPending {
		if err := s.CampaignRepo.Update(id, map[string]string{model.ColStatus: model.StatusPending}); err != nil {
			return err
		}
	}
	return s.Queue.Publish(s.creationTopic(), id)
}

// CreateOnSite sends one campaign to the creation collaborator. On success
// the URL and active status are recorded together; on failure the record
// is left as it was and the error is returned.
func (s *CampaignService) CreateOnSite(ctx context.Context, id string) (string, error) {
	c, err := s.CampaignRepo.GetByID(id)
	if err != nil {
		return "", err
	}
	if !c.IsPending() {
		logrus.WithFields(logrus.Fields{"campaign_id": id, "status": c.Status}).Info("Campaign already created, skipping")
		return c.WhydonateURL, nil
	}
	if s.Creator == nil {
		return "", appErrors.NewValidation("creator", "no automation service configured")
	}

	url, err := s.Creator.Create(ctx, automation.NewCreationRequest(c))
	if err != nil {
		logrus.WithError(err).WithField("campaign_id", id).Error("Campaign creation failed")
		return "", err
	}
	if err := s.RecordCreated(id, url); err != nil {
		return "", err
	}
	return url, nil
}

// RecordCreated stores the URL reported by the creation collaborator.
func (s *CampaignService) RecordCreated(id, url string) error {
	if strings.TrimSpace(url) == "" {
		return appErrors.NewValidation(model.ColWhydonateURL, "must not be blank")
	}
	err := s.CampaignRepo.Update(id, map[string]string{
		model.ColWhydonateURL: url,
		model.ColStatus:       model.StatusActive,
	})
	if err == nil {
		logrus.WithFields(logrus.Fields{"campaign_id": id, "url": url}).Info("Campaign created")
	}
	return err
}

// ProcessPending tries every pending campaign once, in store order.
func (s *CampaignService) ProcessPending(ctx context.Context) ([]CreationResult, error) {
	pending, err := s.PendingCampaigns()
	if err != nil {
		return nil, err
	}

	results := make([]CreationResult, 0, len(pending))
	for _, c := range pending {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		url, err := s.CreateOnSite(ctx, c.ID)
		if err != nil {
			results = append(results, CreationResult{CampaignID: c.ID, Status: "failed", Error: err.Error()})
			continue
		}
		results = append(results, CreationResult{CampaignID: c.ID, Status: "created", URL: url})
	}
	return results, nil
}
