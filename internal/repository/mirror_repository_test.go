package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/deskagent/internal/model"
	"github.com/unclebandit/deskagent/internal/repository"
)

type execCall struct {
	query string
	args  []any
}

type fakeExecer struct {
	calls  []execCall
	failOn string
}

func (f *fakeExecer) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	f.calls = append(f.calls, execCall{query: query, args: args})
	if f.failOn != "" && len(args) > 0 && args[0] == f.failOn {
		return nil, errors.New("connection reset")
	}
	return nil, nil
}

func TestMirrorSync(t *testing.T) {
	db := &fakeExecer{}
	mirror := &repository.MirrorRepository{DB: db}

	require.NoError(t, mirror.EnsureTable(context.Background()))
	require.Len(t, db.calls, 1)
	assert.Contains(t, db.calls[0].query, "CREATE TABLE IF NOT EXISTS campaigns")

	campaigns := []*model.Campaign{
		{ID: "a1", Name: "Amina", Status: model.StatusActive, TargetAmount: 2500,
			CampaignImage: "water.jpg", Notes: "call back Monday", Extra: map[string]string{"region": "Kisumu"}},
		{ID: "b2", Name: "Joost", Status: model.StatusDraft, TargetAmount: 1000},
	}
	n, err := mirror.Sync(context.Background(), campaigns)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	upserts := db.calls[1:]
	require.Len(t, upserts, 2)
	for i, call := range upserts {
		assert.Contains(t, call.query, "ON CONFLICT (campaign_id) DO UPDATE")
		require.Len(t, call.args, 20)
		assert.Equal(t, campaigns[i].ID, call.args[0])
		assert.Equal(t, campaigns[i].TargetAmount, call.args[12])
		assert.Equal(t, campaigns[i].CampaignImage, call.args[15])
		assert.Equal(t, campaigns[i].Notes, call.args[16])
	}
	assert.JSONEq(t, `{"region":"Kisumu"}`, upserts[0].args[17].(string))
	assert.JSONEq(t, `{}`, upserts[1].args[17].(string))
	assert.Contains(t, upserts[0].query, "notes=EXCLUDED.notes")
	assert.Contains(t, db.calls[0].query, "ADD COLUMN IF NOT EXISTS campaign_image")
	assert.False(t, strings.Contains(upserts[0].query, "created_date=EXCLUDED"), "created_date must stay as first inserted")
}

func TestMirrorSyncStopsAtFirstFailure(t *testing.T) {
	db := &fakeExecer{failOn: "b2"}
	mirror := &repository.MirrorRepository{DB: db}

	n, err := mirror.Sync(context.Background(), []*model.Campaign{{ID: "a1"}, {ID: "b2"}, {ID: "c3"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b2")
	assert.Equal(t, 1, n)
	assert.Len(t, db.calls, 2)
}
