package models

// Sentiment classifies the wording around a mention.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Competitor is another agent named in the same response.
type Competitor struct {
	Name string `json:"name"`
	Rank int    `json:"rank"`
}

// ParsedMention is derived from one response and a target agent name.
// When Mentioned is false, Rank, Context and Sentiment are nil.
type ParsedMention struct {
	Mentioned   bool         `json:"mentioned"`
	Rank        *int         `json:"rank,omitempty"`
	Context     *string      `json:"context,omitempty"`
	Sentiment   *Sentiment   `json:"sentiment,omitempty"`
	Competitors []Competitor `json:"competitors"`

	// RankFromList is true when at least one numbered-list marker preceded the
	// mention. Prose answers always rank 1 and leave this false.
	RankFromList bool `json:"rank_from_list"`
}
