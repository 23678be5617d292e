// internal/db/db.go
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// Open connects to the reporting Postgres database and verifies the
// connection.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	if err = conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logrus.Info("Connected to database")
	return conn, nil
}

// Schema creates the mirror table when it does not exist yet and adds
// columns that older tables lack.
const Schema = `
CREATE TABLE IF NOT EXISTS campaigns (
    campaign_id       TEXT PRIMARY KEY,
    name              TEXT NOT NULL DEFAULT '',
    email             TEXT NOT NULL DEFAULT '',
    phone             TEXT NOT NULL DEFAULT '',
    title             TEXT NOT NULL DEFAULT '',
    suggested_title   TEXT NOT NULL DEFAULT '',
    presentation_text TEXT NOT NULL DEFAULT '',
    clean_text        TEXT NOT NULL DEFAULT '',
    whatsapp_message  TEXT NOT NULL DEFAULT '',
    whydonate_url     TEXT NOT NULL DEFAULT '',
    status            TEXT NOT NULL DEFAULT 'draft',
    category          TEXT NOT NULL DEFAULT 'General',
    target_amount     NUMERIC(12,2) NOT NULL DEFAULT 1000,
    donation_type     TEXT NOT NULL DEFAULT 'one-time',
    tags              TEXT NOT NULL DEFAULT '',
    campaign_image    TEXT NOT NULL DEFAULT '',
    notes             TEXT NOT NULL DEFAULT '',
    extra             JSONB NOT NULL DEFAULT '{}',
    created_date      TEXT NOT NULL DEFAULT '',
    last_updated      TEXT NOT NULL DEFAULT '',
    synced_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
ALTER TABLE campaigns ADD COLUMN IF NOT EXISTS campaign_image TEXT NOT NULL DEFAULT '';
ALTER TABLE campaigns ADD COLUMN IF NOT EXISTS notes TEXT NOT NULL DEFAULT '';
ALTER TABLE campaigns ADD COLUMN IF NOT EXISTS extra JSONB NOT NULL DEFAULT '{}';`
