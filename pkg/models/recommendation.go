package models

// Priority orders recommendations; lower Rank sorts first.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank returns the sort position of the priority.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// RecommendationCategory groups recommendations by the lever they pull.
type RecommendationCategory string

const (
	CategoryVisibility  RecommendationCategory = "visibility"
	CategoryProvider    RecommendationCategory = "provider"
	CategoryContent     RecommendationCategory = "content"
	CategoryProfile     RecommendationCategory = "profile"
	CategoryCompetition RecommendationCategory = "competition"
)

// Recommendation is one ranked, actionable suggestion. It is regenerated on
// every analysis and never stored in Postgres.
type Recommendation struct {
	ID          string                 `json:"id"`
	Priority    Priority               `json:"priority"`
	Category    RecommendationCategory `json:"category"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Action      string                 `json:"action"`
	Impact      string                 `json:"impact"`
}
