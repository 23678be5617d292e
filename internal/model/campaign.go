// internal/model/campaign.go
package model

import (
	"strconv"
	"strings"
	"time"
)

const (
	StatusDraft     = "draft"
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

const (
	DefaultCategory     = "General"
	DefaultTargetAmount = 1000.0
	DefaultDonationType = "one-time"
	DefaultCurrency     = "EUR"

	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

var validStatuses = map[string]bool{
	StatusDraft:     true,
	StatusPending:   true,
	StatusActive:    true,
	StatusCompleted: true,
}

func ValidStatus(s string) bool { return validStatuses[s] }

// Campaign is one fundraising campaign draft or live entry. Columns the
// store does not know about are kept in Extra so a rewrite never drops them.
type Campaign struct {
	ID               string  `csv:"campaign_id" json:"campaign_id"`
	Name             string  `csv:"name" json:"name"`
	Email            string  `csv:"email" json:"email"`
	Phone            string  `csv:"phone" json:"phone"`
	Title            string  `csv:"title" json:"title"`
	PresentationText string  `csv:"presentation_text" json:"presentation_text"`
	CleanText        string  `csv:"clean_text" json:"clean_text"`
	SuggestedTitle   string  `csv:"suggested_title" json:"suggested_title"`
	WhatsAppMessage  string  `csv:"whatsapp_message" json:"whatsapp_message"`
	WhydonateURL     string  `csv:"whydonate_url" json:"whydonate_url"`
	Status           string  `csv:"status" json:"status"`
	CreatedDate      string  `csv:"created_date" json:"created_date"`
	LastUpdated      string  `csv:"last_updated" json:"last_updated"`
	Category         string  `csv:"category" json:"category"`
	TargetAmount     float64 `csv:"target_amount" json:"target_amount"`
	DonationType     string  `csv:"donation_type" json:"donation_type"`
	Tags             string  `csv:"tags" json:"tags"`
	CampaignImage    string  `csv:"campaign_image" json:"campaign_image"`
	Notes            string  `csv:"notes" json:"notes"`

	Extra map[string]string `csv:"-" json:"extra,omitempty"`
}

// ApplyDefaults fills the fields that have a documented default and are
// still blank.
func (c *Campaign) ApplyDefaults() {
	if c.Status == "" {
		c.Status = StatusDraft
	}
	if c.Category == "" {
		c.Category = DefaultCategory
	}
	if c.TargetAmount == 0 {
		c.TargetAmount = DefaultTargetAmount
	}
	if c.DonationType == "" {
		c.DonationType = DefaultDonationType
	}
}

// IsPending reports whether the campaign is still waiting for external
// creation.
func (c *Campaign) IsPending() bool {
	return (c.Status == StatusDraft || c.Status == StatusPending) && strings.TrimSpace(c.WhydonateURL) == ""
}

// TagList splits the comma-separated tags column.
func (c *Campaign) TagList() []string {
	var tags []string
	for _, t := range strings.Split(c.Tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (c *Campaign) SetTags(tags []string) {
	c.Tags = strings.Join(tags, ",")
}

// Touch stamps last_updated, and created_date when it is still blank.
func (c *Campaign) Touch(now time.Time) {
	if c.CreatedDate == "" {
		c.CreatedDate = now.Format(DateLayout)
	}
	c.LastUpdated = now.Format(TimestampLayout)
}

// Clone returns a deep copy.
func (c *Campaign) Clone() *Campaign {
	cp := *c
	if c.Extra != nil {
		cp.Extra = make(map[string]string, len(c.Extra))
		for k, v := range c.Extra {
			cp.Extra[k] = v
		}
	}
	return &cp
}

// Get returns the column value as it is persisted.
func (c *Campaign) Get(column string) string {
	if p := c.stringField(column); p != nil {
		return *p
	}
	if column == ColTargetAmount {
		return FormatAmount(c.TargetAmount)
	}
	return c.Extra[column]
}

// Set writes a persisted column value into the struct. target_amount must
// parse as a non-negative number and status must be a known status.
func (c *Campaign) Set(column, value string) error {
	switch column {
	case ColTargetAmount:
		amount, err := ParseAmount(value)
		if err != nil {
			return err
		}
		c.TargetAmount = amount
		return nil
	case ColStatus:
		if value != "" && !ValidStatus(value) {
			return newFieldError(ColStatus, "unknown status "+strconv.Quote(value))
		}
	}
	if p := c.stringField(column); p != nil {
		*p = value
		return nil
	}
	if c.Extra == nil {
		c.Extra = map[string]string{}
	}
	c.Extra[column] = value
	return nil
}

func (c *Campaign) stringField(column string) *string {
	switch column {
	case ColCampaignID:
		return &c.ID
	case ColName:
		return &c.Name
	case ColEmail:
		return &c.Email
	case ColPhone:
		return &c.Phone
	case ColTitle:
		return &c.Title
	case ColPresentationText:
		return &c.PresentationText
	case ColCleanText:
		return &c.CleanText
	case ColSuggestedTitle:
		return &c.SuggestedTitle
	case ColWhatsAppMessage:
		return &c.WhatsAppMessage
	case ColWhydonateURL:
		return &c.WhydonateURL
	case ColStatus:
		return &c.Status
	case ColCreatedDate:
		return &c.CreatedDate
	case ColLastUpdated:
		return &c.LastUpdated
	case ColCategory:
		return &c.Category
	case ColDonationType:
		return &c.DonationType
	case ColTags:
		return &c.Tags
	case ColCampaignImage:
		return &c.CampaignImage
	case ColNotes:
		return &c.Notes
	}
	return nil
}

// ParseAmount parses a target amount cell. Blank means the default.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTargetAmount, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, newFieldError(ColTargetAmount, "not a number: "+strconv.Quote(s))
	}
	if v < 0 {
		return 0, newFieldError(ColTargetAmount, "must not be negative")
	}
	return v, nil
}

func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
