package audit

import (
	"fmt"
	"strings"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// BuildPrompt asks a web-search model to check every audited platform for the
// agent and answer with a bare JSON object.
func BuildPrompt(agentName, location string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search the web for real estate agent %q in %s.\n", agentName, location)
	b.WriteString("For each of these platforms, determine whether the agent has a profile:\n")
	for _, p := range models.AllPlatforms {
		fmt.Fprintf(&b, "- %s (key: %s)\n", p.Label(), p)
	}
	b.WriteString("\nRespond with ONLY a JSON object, no prose, keyed by platform key. ")
	b.WriteString(`Each value must be {"status": "FOUND" | "NOT_FOUND" | "UNKNOWN", "url": string or null}. `)
	b.WriteString("Use FOUND only when you located the profile page, and include its URL. ")
	b.WriteString("Use UNKNOWN when the search was inconclusive.\n")
	b.WriteString("Example:\n")
	b.WriteString(`{"zillow": {"status": "FOUND", "url": "https://www.zillow.com/profile/example"}, "homes_com": {"status": "NOT_FOUND", "url": null}}`)
	return b.String()
}
