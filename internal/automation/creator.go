// Package automation holds the contract with the external service that
// creates campaigns on the fundraising site. Browser driving lives in that
// service; this package only sends requests and reads back the result.
package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/unclebandit/deskagent/internal/model"
)

// Creator creates a campaign on the fundraising site and returns its URL.
type Creator interface {
	Create(ctx context.Context, req CreationRequest) (string, error)
}

type Organizer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type CreationRequest struct {
	CampaignID    string    `json:"campaign_id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	TargetAmount  float64   `json:"target_amount"`
	Currency      string    `json:"currency"`
	DonationType  string    `json:"donation_type,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	CampaignImage string    `json:"campaign_image,omitempty"`
	Organizer     Organizer `json:"organizer"`
}

// NewCreationRequest picks the fields the site form needs. The title falls
// back to suggested_title and the description prefers clean_text.
func NewCreationRequest(c *model.Campaign) CreationRequest {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = strings.TrimSpace(c.SuggestedTitle)
	}
	description := strings.TrimSpace(c.CleanText)
	if description == "" {
		description = strings.TrimSpace(c.PresentationText)
	}
	category := c.Category
	if category == "" {
		category = model.DefaultCategory
	}
	amount := c.TargetAmount
	if amount == 0 {
		amount = model.DefaultTargetAmount
	}

	return CreationRequest{
		CampaignID:    c.ID,
		Title:         title,
		Description:   description,
		Category:      category,
		TargetAmount:  amount,
		Currency:      model.DefaultCurrency,
		DonationType:  c.DonationType,
		Tags:          c.TagList(),
		CampaignImage: c.CampaignImage,
		Organizer: Organizer{
			Name:  c.Name,
			Email: c.Email,
			Phone: c.Phone,
		},
	}
}

type creationResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
	Error   string `json:"error"`
}

// ErrCreationFailed is returned when the automation service answered but
// did not create the campaign.
var ErrCreationFailed = errors.New("campaign creation failed")

// Client posts creation requests to the automation service.
type Client struct {
	client *resty.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	client := resty.New()
	client.SetBaseURL(strings.TrimRight(baseURL, "/"))
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(timeout)
	return &Client{client: client}
}

func (c *Client) Create(ctx context.Context, req CreationRequest) (string, error) {
	var out creationResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post("/campaigns")
	if err != nil {
		return "", fmt.Errorf("automation request for %s: %w", req.CampaignID, err)
	}
	if res.IsError() {
		return "", fmt.Errorf("%w: %s: status %d: %s", ErrCreationFailed, req.CampaignID, res.StatusCode(), out.Error)
	}
	if !out.Success || strings.TrimSpace(out.URL) == "" {
		reason := out.Error
		if reason == "" {
			reason = "no campaign URL returned"
		}
		return "", fmt.Errorf("%w: %s: %s", ErrCreationFailed, req.CampaignID, reason)
	}
	return strings.TrimSpace(out.URL), nil
}

var _ Creator = (*Client)(nil)
