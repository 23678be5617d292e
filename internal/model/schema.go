// internal/model/schema.go
package model

import (
	"fmt"
	"strings"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
)

const (
	ColCampaignID       = "campaign_id"
	ColName             = "name"
	ColEmail            = "email"
	ColPhone            = "phone"
	ColTitle            = "title"
	ColPresentationText = "presentation_text"
	ColCleanText        = "clean_text"
	ColSuggestedTitle   = "suggested_title"
	ColWhatsAppMessage  = "whatsapp_message"
	ColWhydonateURL     = "whydonate_url"
	ColStatus           = "status"
	ColCreatedDate      = "created_date"
	ColLastUpdated      = "last_updated"
	ColCategory         = "category"
	ColTargetAmount     = "target_amount"
	ColDonationType     = "donation_type"
	ColTags             = "tags"
	ColCampaignImage    = "campaign_image"
	ColNotes            = "notes"
)

// Columns is the canonical header, in the order new files are written.
var Columns = []string{
	ColCampaignID, ColName, ColEmail, ColPhone, ColTitle,
	ColPresentationText, ColCleanText, ColSuggestedTitle,
	ColWhatsAppMessage, ColWhydonateURL, ColStatus,
	ColCreatedDate, ColLastUpdated, ColCategory, ColTargetAmount,
	ColDonationType, ColTags, ColCampaignImage, ColNotes,
}

// RequiredColumns must be present (or be healed into) every store header.
var RequiredColumns = []string{ColCampaignID, ColName, ColEmail, ColPhone, ColTitle}

// EnsureSchema appends every canonical column missing from header. Unknown
// columns keep their position. rewrite is true when anything was added.
func EnsureSchema(header []string) (repaired []string, rewrite bool) {
	seen := make(map[string]bool, len(header))
	repaired = make([]string, 0, len(header)+len(Columns))
	for _, col := range header {
		col = strings.TrimSpace(col)
		seen[col] = true
		repaired = append(repaired, col)
	}
	for _, col := range Columns {
		if !seen[col] {
			repaired = append(repaired, col)
			rewrite = true
		}
	}
	return repaired, rewrite
}

// HasAnyRequired reports whether header shares at least one required column
// with the canonical schema. A header with none of them is not a campaign
// file at all.
func HasAnyRequired(header []string) bool {
	for _, col := range header {
		for _, req := range RequiredColumns {
			if strings.TrimSpace(col) == req {
				return true
			}
		}
	}
	return false
}

// ValidateColumnName rejects names that would not read back as the same
// header column: blank names and names with surrounding whitespace.
func ValidateColumnName(col string) error {
	trimmed := strings.TrimSpace(col)
	if trimmed == "" {
		return appErrors.NewValidation("column", "name must not be blank")
	}
	if trimmed != col {
		return appErrors.NewValidation(trimmed, fmt.Sprintf("column name %q has surrounding whitespace", col))
	}
	return nil
}

// IsCanonical reports whether col is one of Columns.
func IsCanonical(col string) bool {
	for _, c := range Columns {
		if c == col {
			return true
		}
	}
	return false
}

// FromRow builds a Campaign from a data row indexed by header. A blank
// campaign_id is an error: ids are never fabricated for existing rows.
func FromRow(header, row []string) (*Campaign, error) {
	if len(row) > len(header) {
		return nil, appErrors.NewValidation("row", fmt.Sprintf("has %d fields, header has %d", len(row), len(header)))
	}
	c := &Campaign{}
	for i, col := range header {
		var value string
		if i < len(row) {
			value = row[i]
		}
		if err := c.Set(col, value); err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(c.ID) == "" {
		return nil, appErrors.NewValidation(ColCampaignID, "row has no campaign_id")
	}
	return c, nil
}

// ToRow renders c in header order.
func (c *Campaign) ToRow(header []string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = c.Get(col)
	}
	return row
}

func newFieldError(field, reason string) error {
	return appErrors.NewValidation(field, reason)
}
