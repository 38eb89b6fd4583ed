// Package mention decides whether, where and how an agent is named in a
// model's answer.
package mention

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// ContextRadius is the number of characters kept on each side of a mention.
const ContextRadius = 100

var listMarker = regexp.MustCompile(`\d+\.`)

var positiveCues = []string{
	"best", "top", "excellent", "recommended", "highly",
	"great", "outstanding", "premier", "expert", "trusted",
}

var negativeCues = []string{
	"avoid", "not recommended", "issues", "problems", "complaints",
}

// Parse inspects text for target. Matching is a case-insensitive substring
// test; the first occurrence decides rank and context.
func Parse(text, target string) models.ParsedMention {
	empty := models.ParsedMention{Competitors: []models.Competitor{}}

	target = strings.TrimSpace(target)
	if target == "" || text == "" {
		return empty
	}

	runes := []rune(text)
	lowered := lowerRunes(runes)
	needle := lowerRunes([]rune(target))

	idx := indexRunes(lowered, needle)
	if idx < 0 {
		return empty
	}

	start := max(idx-ContextRadius, 0)
	end := min(idx+len(needle)+ContextRadius, len(runes))
	window := string(runes[start:end])

	before := string(runes[:idx])
	markers := listMarker.FindAllStringIndex(before, -1)
	rank := precedingItems(before, markers) + 1
	sentiment := classify(window)

	return models.ParsedMention{
		Mentioned:    true,
		Rank:         &rank,
		Context:      &window,
		Sentiment:    &sentiment,
		Competitors:  []models.Competitor{},
		RankFromList: len(markers) > 0,
	}
}

// precedingItems counts list markers before the mention, excluding the
// marker of the item the mention itself sits in (no line break between the
// last marker and the mention).
func precedingItems(before string, markers [][]int) int {
	n := len(markers)
	if n == 0 {
		return 0
	}
	if !strings.Contains(before[markers[n-1][1]:], "\n") {
		n--
	}
	return n
}

// classify checks positive cues first, so a window with both kinds of cue
// is positive.
func classify(window string) models.Sentiment {
	lw := strings.ToLower(window)
	for _, cue := range positiveCues {
		if strings.Contains(lw, cue) {
			return models.SentimentPositive
		}
	}
	for _, cue := range negativeCues {
		if strings.Contains(lw, cue) {
			return models.SentimentNegative
		}
	}
	return models.SentimentNeutral
}

func indexRunes(haystack, needle []rune) int {
	n := len(needle)
	for i := 0; i+n <= len(haystack); i++ {
		match := true
		for j := 0; j < n; j++ {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}

// lowerRunes folds case rune by rune so indexes stay aligned with the input.
func lowerRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		out[i] = unicode.ToLower(r)
	}
	return out
}
