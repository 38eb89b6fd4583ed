package audit

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/kiranshivaraju/notable/pkg/models"
)

var (
	// ErrNoJSON means the reply contained no {...} span.
	ErrNoJSON = errors.New("audit reply contains no JSON object")
	// ErrMalformedJSON means the {...} span did not decode.
	ErrMalformedJSON = errors.New("audit reply JSON is malformed")
)

var (
	codeFence  = regexp.MustCompile("```(?:json|JSON)?")
	objectSpan = regexp.MustCompile(`(?s)\{.*\}`)
)

// Finding is what the model reported for one platform.
type Finding struct {
	Status models.ProfileStatus
	URL    *string
}

// entry accepts either {"status": "...", "url": "..."} or a bare status string.
type entry struct {
	Status string          `json:"status"`
	URL    json.RawMessage `json:"url"`
}

func (e *entry) UnmarshalJSON(b []byte) error {
	trimmed := strings.TrimSpace(string(b))
	switch {
	case trimmed == "null":
		return nil
	case strings.HasPrefix(trimmed, `"`):
		return json.Unmarshal(b, &e.Status)
	case !strings.HasPrefix(trimmed, "{"):
		return nil
	}
	// Anything else that fails to decode is treated as no information for
	// this platform rather than failing the whole reply.
	type plain entry
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return nil
	}
	*e = entry(p)
	return nil
}

func (e entry) url() *string {
	if len(e.URL) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(e.URL, &s); err != nil {
		return nil
	}
	return cleanURL(s)
}

// ParseReply extracts per-platform findings from free-form model output.
// Code fences are stripped and the widest {...} span is decoded. Keys that
// are not known platforms are ignored; platforms the model left out are
// simply absent from the map.
func ParseReply(text string) (map[models.Platform]Finding, error) {
	stripped := codeFence.ReplaceAllString(text, "")
	span := objectSpan.FindString(stripped)
	if span == "" {
		return nil, ErrNoJSON
	}

	var raw map[string]entry
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJSON, err)
	}

	findings := make(map[models.Platform]Finding, len(raw))
	for key, e := range raw {
		platform, err := models.ParsePlatform(key)
		if err != nil {
			continue
		}
		findings[platform] = Finding{
			Status: NormalizeStatus(e.Status),
			URL:    e.url(),
		}
	}
	return findings, nil
}

// NormalizeStatus maps the many spellings models use onto a ProfileStatus.
func NormalizeStatus(s string) models.ProfileStatus {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "FOUND", "CONFIRMED", "YES", "ACTIVE":
		return models.StatusConfirmed
	case "NOT_FOUND", "NOT FOUND", "NO", "INACTIVE":
		return models.StatusNotFound
	default:
		return models.StatusUnknown
	}
}

// cleanURL keeps absolute http(s) URLs and drops placeholders.
func cleanURL(s string) *string {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "n/a", "none", "unknown":
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	return &s
}
