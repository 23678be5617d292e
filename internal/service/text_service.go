// internal/service/text_service.go
package service

import (
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/unclebandit/deskagent/internal/model"
)

// Normalize collapses whitespace, capitalizes the first letter of every
// sentence and terminates the text with a period. Normalize is idempotent.
func Normalize(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text) + 1)

	capNext := true
	var prev rune
	for _, r := range text {
		if unicode.IsSpace(r) && isSentenceEnd(prev) {
			capNext = true
		}
		if capNext && !unicode.IsSpace(r) {
			switch {
			case unicode.IsLetter(r):
				r = unicode.ToUpper(r)
				capNext = false
			case unicode.IsDigit(r):
				capNext = false
			}
		}
		b.WriteRune(r)
		prev = r
	}

	if !isSentenceEnd(prev) {
		b.WriteByte('.')
	}
	return b.String()
}

func isSentenceEnd(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

const maxStoryTitleLen = 60

// SuggestTitles returns title candidates built from fixed templates. The
// result depends only on the arguments.
func SuggestTitles(name, story, category string) []string {
	name = strings.TrimSpace(name)
	category = strings.TrimSpace(category)

	var titles []string
	if name == "" {
		titles = []string{
			"Support Our Cause",
			"Our Fundraising Campaign",
			"Help Us Make a Difference",
			"Join Our Mission",
		}
	} else {
		titles = []string{
			"Support " + name + "'s Cause",
			name + "'s Fundraising Campaign",
			"Help " + name + " Make a Difference",
			"Join " + name + "'s Mission",
		}
	}

	if category != "" && !strings.EqualFold(category, model.DefaultCategory) {
		if name == "" {
			titles = append(titles, "Support Our "+category+" Appeal")
		} else {
			titles = append(titles,
				name+"'s "+category+" Appeal",
				"Stand with "+name+": "+category+" Fund",
			)
		}
	}

	if lead := leadSentence(story); lead != "" {
		titles = append(titles, lead)
	}
	return titles
}

// leadSentence returns the story's first sentence without its terminator
// when it is short enough to be a title.
func leadSentence(story string) string {
	clean := Normalize(story)
	if clean == "" {
		return ""
	}
	end := strings.IndexAny(clean, ".!?")
	lead := strings.TrimSpace(clean[:end])
	if lead == "" || utf8.RuneCountInString(lead) > maxStoryTitleLen {
		return ""
	}
	return lead
}

// PickTitle returns the first candidate, or a reproducible pseudo-random
// one when seed is given.
func PickTitle(candidates []string, seed *int64) string {
	if len(candidates) == 0 {
		return ""
	}
	if seed == nil {
		return candidates[0]
	}
	return candidates[rand.New(rand.NewSource(*seed)).Intn(len(candidates))]
}
