package audit

import (
	"strings"

	"github.com/kiranshivaraju/notable/pkg/models"
)

// citationDomains maps a substring of a cited URL or host to the platform it
// proves. Checked in order; the first match wins.
var citationDomains = []struct {
	fragment string
	platform models.Platform
}{
	{"zillow.com", models.PlatformZillow},
	{"homes.com", models.PlatformHomesCom},
	{"realtor.com", models.PlatformRealtorCom},
	{"bing.com", models.PlatformBingPlaces},
	{"google.com/maps", models.PlatformGoogleBusiness},
	{"business.google.com", models.PlatformGoogleBusiness},
	{"g.page", models.PlatformGoogleBusiness},
	{"fastexpert.com", models.PlatformFastExpert},
}

// PlatformForCitation returns the platform a cited domain or URL belongs to.
func PlatformForCitation(citation string) (models.Platform, bool) {
	c := strings.ToLower(strings.TrimSpace(citation))
	if c == "" {
		return "", false
	}
	for _, d := range citationDomains {
		if strings.Contains(c, d.fragment) {
			return d.platform, true
		}
	}
	return "", false
}

// matchCitations groups citations by platform, keeping the first citation
// seen for each. The result follows models.AllPlatforms order.
func matchCitations(citations []string) []citationMatch {
	first := make(map[models.Platform]string)
	for _, c := range citations {
		p, ok := PlatformForCitation(c)
		if !ok {
			continue
		}
		if _, seen := first[p]; !seen {
			first[p] = strings.TrimSpace(c)
		}
	}

	var out []citationMatch
	for _, p := range models.AllPlatforms {
		if c, ok := first[p]; ok {
			out = append(out, citationMatch{platform: p, citation: c})
		}
	}
	return out
}

type citationMatch struct {
	platform models.Platform
	citation string
}
