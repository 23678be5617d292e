package service_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
	"github.com/unclebandit/deskagent/internal/service"
)

func TestRenderTemplate(t *testing.T) {
	got := service.RenderTemplate("Hi {name}, see {url} ({missing})", map[string]string{
		"name": "Amina",
		"url":  "https://whydonate.com/fundraising/x",
	})
	assert.Equal(t, "Hi Amina, see https://whydonate.com/fundraising/x ({missing})", got)
}

func TestRenderTemplateSinglePass(t *testing.T) {
	got := service.RenderTemplate("{name} / {title}", map[string]string{
		"name":  "{title}",
		"title": "Water",
	})
	assert.Equal(t, "{title} / Water", got)
}

func TestDraftOutreachMessage(t *testing.T) {
	for _, kind := range service.TemplateKinds() {
		t.Run(kind, func(t *testing.T) {
			msg, err := service.DraftOutreachMessage("Amina", "Clean Water", "https://whydonate.com/fundraising/water", kind)
			require.NoError(t, err)
			assert.Contains(t, msg, "Amina")
			assert.Contains(t, msg, "Clean Water")
			assert.Contains(t, msg, "https://whydonate.com/fundraising/water")
			assert.False(t, strings.Contains(msg, "{"), "unfilled placeholder in %q", msg)
		})
	}

	msg, err := service.DraftOutreachMessage("Amina", "Clean Water", "https://x", service.TemplateStandard)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "🌟 *Clean Water*\n\nHi! I'm Amina."))
	assert.True(t, strings.HasSuffix(msg, "- Amina"))
}

func TestDraftOutreachMessageUnknownKind(t *testing.T) {
	_, err := service.DraftOutreachMessage("Amina", "Water", "https://x", "birthday")
	var ute *appErrors.UnknownTemplateError
	require.True(t, errors.As(err, &ute))
	assert.Equal(t, "birthday", ute.Kind)
	assert.Equal(t, []string{service.TemplateStandard, service.TemplateThankYou, service.TemplateUrgent}, ute.Known)
}
