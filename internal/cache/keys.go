package cache

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

func AuditLockKey(userID uuid.UUID) string {
	return fmt.Sprintf("audit:lock:%s", userID)
}

// RecommendationsKey is case-insensitive in the agent name.
func RecommendationsKey(userID uuid.UUID, agentName string) string {
	return fmt.Sprintf("recs:%s:%s", userID, url.QueryEscape(strings.ToLower(strings.TrimSpace(agentName))))
}
