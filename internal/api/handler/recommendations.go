package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/internal/recommend"
)

// Recommender builds recommendation reports. Implemented by recommend.Service.
type Recommender interface {
	Recommendations(ctx context.Context, userID uuid.UUID, agentName string) (*recommend.Report, error)
}

// NewRecommendationsHandler returns an http.HandlerFunc for GET /api/v1/recommendations.
func NewRecommendationsHandler(svc Recommender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		agentName := strings.TrimSpace(r.URL.Query().Get("agent_name"))
		if agentName == "" {
			invalid(w, "agent_name is required")
			return
		}

		report, err := svc.Recommendations(r.Context(), userID, agentName)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, report)
	}
}
