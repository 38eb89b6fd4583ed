package scan

import (
	"regexp"
	"strings"
)

const (
	maxCompetitors    = 10
	maxCompetitorName = 60
)

var (
	listItem = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+)$`)
	// nameEnd cuts an item at the first separator that usually follows a name.
	nameEnd = regexp.MustCompile(`\s+[-–—|]\s+|:|\(|,`)
)

// ExtractCompetitors returns the names of numbered list items that do not
// mention target, in list order without duplicates.
func ExtractCompetitors(text, target string) []string {
	target = strings.ToLower(strings.TrimSpace(target))
	seen := make(map[string]bool)
	var out []string

	for _, m := range listItem.FindAllStringSubmatch(text, -1) {
		item := m[1]
		if target != "" && strings.Contains(strings.ToLower(item), target) {
			continue
		}
		name := cleanName(item)
		if name == "" || len(name) > maxCompetitorName {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
		if len(out) == maxCompetitors {
			break
		}
	}
	return out
}

func cleanName(item string) string {
	item = strings.ReplaceAll(item, "**", "")
	item = strings.ReplaceAll(item, "__", "")
	if loc := nameEnd.FindStringIndex(item); loc != nil {
		item = item[:loc[0]]
	}
	return strings.Trim(strings.TrimSpace(item), "*_#.")
}
