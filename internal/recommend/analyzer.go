// Package recommend turns scan history and platform presence into a short,
// prioritized list of actions.
package recommend

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	// MaxRecommendations caps the list returned by Analyze.
	MaxRecommendations = 6

	lowVisibilityRate      = 0.2
	moderateVisibilityRate = 0.5
	frequentCompetitorMin  = 3
)

var idNamespace = uuid.MustParse("5b0f4c1e-8d7a-4a57-9a4e-3d1f6c2b7e90")

// archetypes maps each query archetype to the prompt keywords that identify it.
var archetypes = []struct {
	queryType models.QueryType
	label     string
	keywords  []string
}{
	{models.QueryLuxury, "luxury home", []string{"luxury"}},
	{models.QueryRelocation, "relocation", []string{"relocat"}},
	{models.QueryFirstTime, "first-time buyer", []string{"first-time", "first time"}},
	{models.QueryInvestment, "investment property", []string{"invest"}},
}

// Input is everything the analyzer looks at for one agent.
type Input struct {
	AgentName string
	Scans     []models.Scan
	Profiles  []models.PlatformPresence
}

// ProviderStat is the mention rate for one provider.
type ProviderStat struct {
	Provider models.Provider `json:"provider"`
	Scans    int             `json:"scans"`
	Mentions int             `json:"mentions"`
	Rate     float64         `json:"rate"`
}

// CompetitorCount is how often another agent appeared in answers.
type CompetitorCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the scan history.
type Stats struct {
	TotalScans       int                `json:"total_scans"`
	Mentions         int                `json:"mentions"`
	MentionRate      float64            `json:"mention_rate"`
	Providers        []ProviderStat     `json:"providers"`
	MissedArchetypes []models.QueryType `json:"missed_archetypes"`
	Competitors      []CompetitorCount  `json:"competitors"`
}

// Report is the analyzer output.
type Report struct {
	Stats           Stats                   `json:"stats"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

// Analyze computes statistics and evaluates the rule table top to bottom.
// Scans that ended in a provider error are ignored.
func Analyze(in Input) Report {
	stats := computeStats(in.Scans)

	var recs []models.Recommendation
	for _, rule := range rules {
		recs = append(recs, rule(in, stats)...)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Priority.Rank() < recs[j].Priority.Rank()
	})
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	if recs == nil {
		recs = []models.Recommendation{}
	}
	return Report{Stats: stats, Recommendations: recs}
}

func computeStats(scans []models.Scan) Stats {
	stats := Stats{
		Providers:        []ProviderStat{},
		MissedArchetypes: []models.QueryType{},
		Competitors:      []CompetitorCount{},
	}

	byProvider := make(map[models.Provider]*ProviderStat)
	queried := make(map[models.QueryType]bool)
	hit := make(map[models.QueryType]bool)
	competitors := make(map[string]*CompetitorCount)

	for _, sc := range scans {
		if sc.Error != nil {
			continue
		}
		stats.TotalScans++
		ps, ok := byProvider[sc.Provider]
		if !ok {
			ps = &ProviderStat{Provider: sc.Provider}
			byProvider[sc.Provider] = ps
		}
		ps.Scans++
		if sc.Mentioned {
			stats.Mentions++
			ps.Mentions++
		}

		prompt := strings.ToLower(sc.Prompt)
		for _, a := range archetypes {
			if containsAny(prompt, a.keywords) {
				queried[a.queryType] = true
				if sc.Mentioned {
					hit[a.queryType] = true
				}
			}
		}

		for _, name := range sc.Competitors {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if c, ok := competitors[key]; ok {
				c.Count++
			} else {
				competitors[key] = &CompetitorCount{Name: strings.TrimSpace(name), Count: 1}
			}
		}
	}

	stats.MentionRate = rate(stats.Mentions, stats.TotalScans)
	for _, p := range models.AllProviders {
		if ps, ok := byProvider[p]; ok {
			ps.Rate = rate(ps.Mentions, ps.Scans)
			stats.Providers = append(stats.Providers, *ps)
		}
	}
	for _, a := range archetypes {
		if queried[a.queryType] && !hit[a.queryType] {
			stats.MissedArchetypes = append(stats.MissedArchetypes, a.queryType)
		}
	}
	for _, c := range competitors {
		stats.Competitors = append(stats.Competitors, *c)
	}
	sort.Slice(stats.Competitors, func(i, j int) bool {
		a, b := stats.Competitors[i], stats.Competitors[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	return stats
}

type rule func(in Input, s Stats) []models.Recommendation

var rules = []rule{
	noScans,
	lowVisibility,
	moderateVisibility,
	silentProviders,
	missedArchetypes,
	missingProfiles,
	unverifiedProfiles,
	frequentCompetitor,
	strongVisibility,
}

func noScans(_ Input, s Stats) []models.Recommendation {
	if s.TotalScans > 0 {
		return nil
	}
	return one(newRec("no-scans", models.PriorityHigh, models.CategoryVisibility,
		"Run your first visibility scan",
		"There is no scan history yet, so AI visibility cannot be measured.",
		"Start a scan for your name and primary market.",
		"Establishes the baseline every other recommendation depends on."))
}

func lowVisibility(_ Input, s Stats) []models.Recommendation {
	if s.TotalScans == 0 || s.MentionRate >= lowVisibilityRate {
		return nil
	}
	return one(newRec("low-visibility", models.PriorityHigh, models.CategoryVisibility,
		"AI assistants rarely mention you",
		fmt.Sprintf("You were mentioned in %s of %d answers.", percent(s.MentionRate), s.TotalScans),
		"Publish consistent bio, reviews and market pages on the directories AI assistants cite.",
		"Raising the mention rate above 20% puts you in front of buyers asking assistants for referrals."))
}

func moderateVisibility(_ Input, s Stats) []models.Recommendation {
	if s.TotalScans == 0 || s.MentionRate < lowVisibilityRate || s.MentionRate >= moderateVisibilityRate {
		return nil
	}
	return one(newRec("moderate-visibility", models.PriorityMedium, models.CategoryVisibility,
		"Grow from occasional to consistent mentions",
		fmt.Sprintf("You were mentioned in %s of %d answers.", percent(s.MentionRate), s.TotalScans),
		"Collect recent client reviews and keep profile details identical across platforms.",
		"Consistent signals make assistants more likely to list you every time."))
}

func silentProviders(_ Input, s Stats) []models.Recommendation {
	var out []models.Recommendation
	for _, ps := range s.Providers {
		if ps.Scans == 0 || ps.Mentions > 0 {
			continue
		}
		out = append(out, newRec("provider-"+string(ps.Provider), models.PriorityHigh, models.CategoryProvider,
			fmt.Sprintf("%s never mentions you", providerLabel(ps.Provider)),
			fmt.Sprintf("None of %d %s answers named you.", ps.Scans, providerLabel(ps.Provider)),
			fmt.Sprintf("Check which sources %s cites for your market and get listed there.", providerLabel(ps.Provider)),
			"Each assistant draws on different sources; closing one gap reaches its whole audience."))
	}
	return out
}

func missedArchetypes(_ Input, s Stats) []models.Recommendation {
	var out []models.Recommendation
	for _, qt := range s.MissedArchetypes {
		label := archetypeLabel(qt)
		out = append(out, newRec("archetype-"+string(qt), models.PriorityMedium, models.CategoryContent,
			fmt.Sprintf("Not recommended for %s searches", label),
			fmt.Sprintf("You were never mentioned when assistants were asked about %s agents.", label),
			fmt.Sprintf("Publish content and listings that show your %s experience.", label),
			"Specialty queries carry high intent and fewer competing names."))
	}
	return out
}

func missingProfiles(in Input, _ Stats) []models.Recommendation {
	var out []models.Recommendation
	for _, p := range in.Profiles {
		if p.Status != models.StatusNotFound {
			continue
		}
		out = append(out, newRec("profile-"+string(p.Platform), models.PriorityHigh, models.CategoryProfile,
			fmt.Sprintf("Claim your %s profile", p.Platform.Label()),
			fmt.Sprintf("No %s profile was found for %s.", p.Platform.Label(), in.AgentName),
			fmt.Sprintf("Create or claim your profile on %s and link it from your website.", p.Platform.Label()),
			"Directory profiles are among the sources assistants cite most often."))
	}
	return out
}

func unverifiedProfiles(in Input, _ Stats) []models.Recommendation {
	var labels []string
	for _, p := range in.Profiles {
		if p.Status == models.StatusUnknown {
			labels = append(labels, p.Platform.Label())
		}
	}
	if len(labels) == 0 {
		return nil
	}
	return one(newRec("profiles-unverified", models.PriorityLow, models.CategoryProfile,
		"Verify your directory profiles",
		fmt.Sprintf("Presence could not be confirmed on %s.", strings.Join(labels, ", ")),
		"Run a profile audit or mark each platform yourself.",
		"Accurate profile data sharpens every other recommendation."))
}

func frequentCompetitor(_ Input, s Stats) []models.Recommendation {
	if len(s.Competitors) == 0 || s.Competitors[0].Count < frequentCompetitorMin {
		return nil
	}
	top := s.Competitors[0]
	return one(newRec("competitor", models.PriorityMedium, models.CategoryCompetition,
		fmt.Sprintf("%s is recommended instead of you", top.Name),
		fmt.Sprintf("%s appeared in %d answers.", top.Name, top.Count),
		fmt.Sprintf("Compare your reviews and directory coverage with %s's.", top.Name),
		"Closing the gap with the most-cited competitor wins the same referrals."))
}

func strongVisibility(_ Input, s Stats) []models.Recommendation {
	if s.TotalScans == 0 || s.MentionRate < moderateVisibilityRate {
		return nil
	}
	return one(newRec("strong-visibility", models.PriorityLow, models.CategoryVisibility,
		"Keep your visibility strong",
		fmt.Sprintf("You were mentioned in %s of %d answers.", percent(s.MentionRate), s.TotalScans),
		"Re-run scans monthly and keep reviews current.",
		"Protects the position you already hold."))
}

func newRec(slug string, p models.Priority, c models.RecommendationCategory, title, desc, action, impact string) models.Recommendation {
	return models.Recommendation{
		ID:          uuid.NewSHA1(idNamespace, []byte(slug)).String(),
		Priority:    p,
		Category:    c,
		Title:       title,
		Description: desc,
		Action:      action,
		Impact:      impact,
	}
}

func one(r models.Recommendation) []models.Recommendation {
	return []models.Recommendation{r}
}

func rate(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

func percent(r float64) string {
	return fmt.Sprintf("%.0f%%", r*100)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func archetypeLabel(qt models.QueryType) string {
	for _, a := range archetypes {
		if a.queryType == qt {
			return a.label
		}
	}
	return string(qt)
}

func providerLabel(p models.Provider) string {
	switch p {
	case models.ProviderChatGPT:
		return "ChatGPT"
	case models.ProviderClaude:
		return "Claude"
	case models.ProviderGemini:
		return "Gemini"
	case models.ProviderPerplexity:
		return "Perplexity"
	case models.ProviderGrok:
		return "Grok"
	}
	return string(p)
}
