package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform is a third-party directory where an agent may hold a profile.
type Platform string

const (
	PlatformZillow         Platform = "zillow"
	PlatformHomesCom       Platform = "homes_com"
	PlatformRealtorCom     Platform = "realtor_com"
	PlatformBingPlaces     Platform = "bing_places"
	PlatformGoogleBusiness Platform = "google_business"
	PlatformFastExpert     Platform = "fastexpert"
)

// AllPlatforms is the fixed set audited for every agent, in display order.
var AllPlatforms = []Platform{
	PlatformZillow,
	PlatformHomesCom,
	PlatformRealtorCom,
	PlatformBingPlaces,
	PlatformGoogleBusiness,
	PlatformFastExpert,
}

// Label returns the human-readable platform name.
func (p Platform) Label() string {
	switch p {
	case PlatformZillow:
		return "Zillow"
	case PlatformHomesCom:
		return "Homes.com"
	case PlatformRealtorCom:
		return "Realtor.com"
	case PlatformBingPlaces:
		return "Bing Places"
	case PlatformGoogleBusiness:
		return "Google Business Profile"
	case PlatformFastExpert:
		return "FastExpert"
	}
	return string(p)
}

// ParsePlatform validates a platform key.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllPlatforms {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ProfileStatus is the audited state of a platform profile.
type ProfileStatus string

const (
	StatusConfirmed ProfileStatus = "confirmed"
	StatusNotFound  ProfileStatus = "not_found"
	StatusUnknown   ProfileStatus = "unknown"
)

// ParseProfileStatus validates a stored or user-supplied status.
func ParseProfileStatus(s string) (ProfileStatus, error) {
	switch ProfileStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusNotFound:
		return StatusNotFound, nil
	case StatusUnknown:
		return StatusUnknown, nil
	}
	return "", fmt.Errorf("unknown profile status %q: must be one of confirmed, not_found, unknown", s)
}

// ProfileSource records which mechanism produced a presence record.
type ProfileSource string

const (
	SourceLLMAudit     ProfileSource = "llm_audit"
	SourceCitation     ProfileSource = "citation"
	SourceUserReported ProfileSource = "user_reported"
)

// ParseProfileSource validates a stored source value.
func ParseProfileSource(s string) (ProfileSource, error) {
	switch ProfileSource(s) {
	case SourceLLMAudit:
		return SourceLLMAudit, nil
	case SourceCitation:
		return SourceCitation, nil
	case SourceUserReported:
		return SourceUserReported, nil
	}
	return "", fmt.Errorf("unknown profile source %q", s)
}

// PlatformPresence is one agent's status on one platform. At most one row
// exists per (UserID, Platform).
type PlatformPresence struct {
	ID          uuid.UUID     `db:"id"           json:"id"`
	UserID      uuid.UUID     `db:"user_id"      json:"user_id"`
	AgentName   string        `db:"agent_name"   json:"agent_name"`
	Platform    Platform      `db:"platform"     json:"platform"`
	Label       string        `db:"-"            json:"label"`
	Status      ProfileStatus `db:"status"       json:"status"`
	Source      ProfileSource `db:"source"       json:"source,omitempty"`
	ProfileURL  *string       `db:"profile_url"  json:"profile_url,omitempty"`
	RawResponse *string       `db:"raw_response" json:"-"`
	CheckedAt   *time.Time    `db:"checked_at"   json:"checked_at,omitempty"`
	UpdatedAt   time.Time     `db:"updated_at"   json:"updated_at"`
}

// YieldsToCitation reports whether citation evidence may overwrite this record.
// User corrections and audit confirmations are never downgraded.
func (p PlatformPresence) YieldsToCitation() bool {
	if p.Source == SourceUserReported {
		return false
	}
	if p.Status == StatusConfirmed && p.Source == SourceLLMAudit {
		return false
	}
	return true
}

// UnknownPresence is the placeholder for a platform with no stored record.
func UnknownPresence(userID uuid.UUID, agentName string, platform Platform) PlatformPresence {
	return PlatformPresence{
		UserID:    userID,
		AgentName: agentName,
		Platform:  platform,
		Label:     platform.Label(),
		Status:    StatusUnknown,
	}
}
