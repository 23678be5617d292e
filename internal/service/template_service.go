// internal/service/template_service.go
package service

import (
	"sort"
	"strings"

	appErrors "github.com/unclebandit/deskagent/internal/errors"
)

const (
	TemplateStandard = "standard"
	TemplateUrgent   = "urgent"
	TemplateThankYou = "thank_you"
)

var outreachTemplates = map[string]string{
	TemplateStandard: "🌟 *{title}*\n\n" +
		"Hi! I'm {name}. I've started a fundraising campaign and would appreciate your support!\n\n" +
		"🔗 Campaign: {url}\n\n" +
		"Thank you for considering!\n" +
		"- {name}",
	TemplateUrgent: "🚨 *URGENT: {title}*\n\n" +
		"Hello, I'm {name}. We urgently need your help with our campaign.\n\n" +
		"🔗 Please support: {url}\n\n" +
		"Every contribution counts!\n" +
		"- {name}",
	TemplateThankYou: "🙏 *Thank You!*\n\n" +
		"This is {name}. Thank you for considering our campaign: {title}\n\n" +
		"🔗 Learn more: {url}\n\n" +
		"With gratitude,\n" +
		"{name}",
}

// TemplateKinds lists the known outreach templates in sorted order.
func TemplateKinds() []string {
	kinds := make([]string, 0, len(outreachTemplates))
	for k := range outreachTemplates {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RenderTemplate replaces every {key} in template with data[key] in a
// single pass, so values containing braces are never expanded again.
func RenderTemplate(template string, data map[string]string) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", data[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// DraftOutreachMessage fills the named template. An unknown kind is an
// error; there is no fallback template.
func DraftOutreachMessage(name, title, url, kind string) (string, error) {
	tmpl, ok := outreachTemplates[kind]
	if !ok {
		return "", &appErrors.UnknownTemplateError{Kind: kind, Known: TemplateKinds()}
	}
	return RenderTemplate(tmpl, map[string]string{
		"name":  strings.TrimSpace(name),
		"title": strings.TrimSpace(title),
		"url":   strings.TrimSpace(url),
	}), nil
}
