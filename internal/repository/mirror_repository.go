package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/unclebandit/deskagent/internal/db"
	"github.com/unclebandit/deskagent/internal/model"
)

// Execer is the part of *sql.DB / *sql.Tx the mirror needs.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// MirrorRepository copies campaign records into a Postgres reporting
// table. The CSV store stays authoritative; the mirror is write-only.
type MirrorRepository struct {
	DB Execer
}

// EnsureTable creates the campaigns table if needed.
func (m *MirrorRepository) EnsureTable(ctx context.Context) error {
	if _, err := m.DB.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("create campaigns table: %w", err)
	}
	return nil
}

const upsertCampaign = `
    INSERT INTO campaigns (
        campaign_id, name, email, phone, title, suggested_title,
        presentation_text, clean_text, whatsapp_message, whydonate_url,
        status, category, target_amount, donation_type, tags,
        campaign_image, notes, extra,
        created_date, last_updated, synced_at
    )
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
    ON CONFLICT (campaign_id) DO UPDATE SET
        name=EXCLUDED.name, email=EXCLUDED.email, phone=EXCLUDED.phone,
        title=EXCLUDED.title, suggested_title=EXCLUDED.suggested_title,
        presentation_text=EXCLUDED.presentation_text, clean_text=EXCLUDED.clean_text,
        whatsapp_message=EXCLUDED.whatsapp_message, whydonate_url=EXCLUDED.whydonate_url,
        status=EXCLUDED.status, category=EXCLUDED.category,
        target_amount=EXCLUDED.target_amount, donation_type=EXCLUDED.donation_type,
        tags=EXCLUDED.tags, campaign_image=EXCLUDED.campaign_image,
        notes=EXCLUDED.notes, extra=EXCLUDED.extra, last_updated=EXCLUDED.last_updated, synced_at=NOW()
`

// Upsert inserts or refreshes one campaign keyed by campaign_id.
// created_date is written only on insert. Columns outside the canonical
// set land in the extra JSONB column.
func (m *MirrorRepository) Upsert(ctx context.Context, c *model.Campaign) error {
	extra := c.Extra
	if extra == nil {
		extra = map[string]string{}
	}
	extraJSON, err := json.Marshal(extra)
	if err != nil {
		return fmt.Errorf("encode extra columns of campaign %s: %w", c.ID, err)
	}

	_, err = m.DB.ExecContext(ctx, upsertCampaign,
		c.ID, c.Name, c.Email, c.Phone, c.Title, c.SuggestedTitle,
		c.PresentationText, c.CleanText, c.WhatsAppMessage, c.WhydonateURL,
		c.Status, c.Category, c.TargetAmount, c.DonationType, c.Tags,
		c.CampaignImage, c.Notes, string(extraJSON),
		c.CreatedDate, c.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert campaign %s: %w", c.ID, err)
	}
	return nil
}

// Sync upserts every campaign and returns how many were written. It stops
// at the first failure.
func (m *MirrorRepository) Sync(ctx context.Context, campaigns []*model.Campaign) (int, error) {
	for i, c := range campaigns {
		if err := m.Upsert(ctx, c); err != nil {
			return i, err
		}
	}
	return len(campaigns), nil
}
