package scan

import (
	"fmt"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// Query is one rendered recommendation prompt.
type Query struct {
	Type   models.QueryType
	Prompt string
}

var templates = []struct {
	queryType models.QueryType
	format    string
}{
	{models.QueryGeneral, "Who are the best real estate agents in %s?"},
	{models.QueryLuxury, "Which real estate agents in %s specialize in luxury homes?"},
	{models.QueryRelocation, "I'm relocating to %s. Which real estate agent should I work with?"},
	{models.QueryFirstTime, "Can you recommend a real estate agent in %s for a first-time home buyer?"},
	{models.QueryInvestment, "Who is the best real estate agent in %s for investment properties?"},
}

// Queries renders the full prompt set for a location.
func Queries(location string) []Query {
	out := make([]Query, 0, len(templates))
	for _, t := range templates {
		out = append(out, Query{Type: t.queryType, Prompt: fmt.Sprintf(t.format, location)})
	}
	return out
}
