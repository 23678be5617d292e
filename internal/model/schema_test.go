package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
)

func TestEnsureSchema(t *testing.T) {
	t.Run("canonical header is left alone", func(t *testing.T) {
		repaired, rewrite := EnsureSchema(Columns)
		assert.False(t, rewrite)
		assert.Equal(t, Columns, repaired)
	})

	t.Run("missing columns are appended after unknown ones", func(t *testing.T) {
		header := []string{"campaign_id", " name ", "legacy_flag"}
		repaired, rewrite := EnsureSchema(header)
		assert.True(t, rewrite)
		assert.Equal(t, []string{"campaign_id", "name", "legacy_flag"}, repaired[:3])
		assert.Len(t, repaired, len(Columns)+1)
	})
}

func TestHasAnyRequired(t *testing.T) {
	assert.True(t, HasAnyRequired([]string{"x", "title"}))
	assert.False(t, HasAnyRequired([]string{"foo", "bar"}))
}

func TestFromRowToRow(t *testing.T) {
	header := []string{ColCampaignID, ColName, ColTargetAmount, "referrer"}

	c, err := FromRow(header, []string{"a1", "Amina", "2500.5", "church"})
	require.NoError(t, err)
	assert.Equal(t, 2500.5, c.TargetAmount)
	assert.Equal(t, map[string]string{"referrer": "church"}, c.Extra)
	assert.Equal(t, []string{"a1", "Amina", "2500.5", "church"}, c.ToRow(header))

	_, err = FromRow(header, []string{"", "Amina"})
	var ve *appErrors.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, ColCampaignID, ve.Field)
}

func TestSetValidates(t *testing.T) {
	c := &Campaign{}
	assert.Error(t, c.Set(ColStatus, "archived"))
	assert.Error(t, c.Set(ColTargetAmount, "-1"))
	assert.Error(t, c.Set(ColTargetAmount, "a lot"))

	require.NoError(t, c.Set(ColTargetAmount, ""))
	assert.Equal(t, DefaultTargetAmount, c.TargetAmount)
	require.NoError(t, c.Set(ColStatus, StatusCompleted))
	assert.Equal(t, StatusCompleted, c.Get(ColStatus))
}

func TestIsPending(t *testing.T) {
	tests := []struct {
		status, url string
		want        bool
	}{
		{StatusDraft, "", true},
		{StatusPending, "", true},
		{StatusPending, "https://whydonate.com/fundraising/x", false},
		{StatusActive, "", false},
		{StatusCompleted, "", false},
	}
	for _, tt := range tests {
		c := &Campaign{Status: tt.status, WhydonateURL: tt.url}
		assert.Equal(t, tt.want, c.IsPending(), "%s/%q", tt.status, tt.url)
	}
}

func TestTouchKeepsCreatedDate(t *testing.T) {
	c := &Campaign{}
	c.Touch(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, "2024-01-02", c.CreatedDate)
	assert.Equal(t, "2024-01-02 03:04:05", c.LastUpdated)

	c.Touch(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-01-02", c.CreatedDate)
	assert.Equal(t, "2024-02-01 00:00:00", c.LastUpdated)
}

func TestTags(t *testing.T) {
	c := &Campaign{Tags: " water, ,kenya "}
	assert.Equal(t, []string{"water", "kenya"}, c.TagList())
	c.SetTags([]string{"a", "b"})
	assert.Equal(t, "a,b", c.Tags)
}

func TestCloneCopiesExtra(t *testing.T) {
	c := &Campaign{ID: "a1", Extra: map[string]string{"k": "v"}}
	cp := c.Clone()
	cp.Extra["k"] = "changed"
	assert.Equal(t, "v", c.Extra["k"])
}
