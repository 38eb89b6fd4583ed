package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// Auditor is the audit engine as the API sees it. Implemented by audit.Service.
type Auditor interface {
	Profiles(ctx context.Context, userID uuid.UUID, agentName string) ([]models.PlatformPresence, error)
	IsAuditStale(ctx context.Context, userID uuid.UUID, maxAgeDays int) (bool, error)
	RunAudit(ctx context.Context, userID uuid.UUID, agentName, location string) (*audit.Result, error)
	UpdateProfileStatus(ctx context.Context, userID uuid.UUID, agentName string, platform models.Platform, status models.ProfileStatus, profileURL *string) (*models.PlatformPresence, error)
}

// AuditPolicy sets how old an audit may get before POST /audit reruns it.
type AuditPolicy struct {
	MaxAgeDays      int
	ForceMaxAgeDays int
}

type auditStatusResponse struct {
	Profiles []models.PlatformPresence `json:"profiles"`
	Stale    bool                      `json:"stale"`
}

type auditRunResponse struct {
	Ran      bool                      `json:"ran"`
	Profiles []models.PlatformPresence `json:"profiles"`
	Result   *audit.Result             `json:"result,omitempty"`
}

// NewGetAuditHandler returns an http.HandlerFunc for GET /api/v1/audit.
func NewGetAuditHandler(svc Auditor, policy AuditPolicy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		agentName := strings.TrimSpace(r.URL.Query().Get("agent_name"))

		profiles, err := svc.Profiles(r.Context(), userID, agentName)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		stale, err := svc.IsAuditStale(r.Context(), userID, policy.MaxAgeDays)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, auditStatusResponse{Profiles: profiles, Stale: stale})
	}
}

// NewRunAuditHandler returns an http.HandlerFunc for POST /api/v1/audit.
// The audit only runs when the stored one is stale; force shortens the
// allowed age instead of bypassing it.
func NewRunAuditHandler(svc Auditor, policy AuditPolicy) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			AgentName string `json:"agent_name"`
			Location  string `json:"location"`
			Force     bool   `json:"force"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		req.AgentName = strings.TrimSpace(req.AgentName)
		req.Location = strings.TrimSpace(req.Location)
		if req.AgentName == "" {
			invalid(w, "agent_name is required")
			return
		}
		if req.Location == "" {
			invalid(w, "location is required")
			return
		}

		maxAge := policy.MaxAgeDays
		if req.Force {
			maxAge = policy.ForceMaxAgeDays
		}
		stale, err := svc.IsAuditStale(r.Context(), userID, maxAge)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		if !stale {
			profiles, err := svc.Profiles(r.Context(), userID, req.AgentName)
			if err != nil {
				response.Internal(w, r, err)
				return
			}
			response.JSON(w, auditRunResponse{Ran: false, Profiles: profiles})
			return
		}

		result, err := svc.RunAudit(r.Context(), userID, req.AgentName, req.Location)
		if err != nil {
			if errors.Is(err, audit.ErrAuditInProgress) {
				response.Error(w, http.StatusConflict, "AUDIT_IN_PROGRESS",
					"An audit for this account is already running", nil)
				return
			}
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, auditRunResponse{Ran: true, Profiles: result.Profiles, Result: result})
	}
}

// NewUpdateProfileHandler returns an http.HandlerFunc for PUT /api/v1/audit/{platform}.
func NewUpdateProfileHandler(svc Auditor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		platform, err := models.ParsePlatform(chi.URLParam(r, "platform"))
		if err != nil {
			invalid(w, err.Error())
			return
		}

		var req struct {
			AgentName string  `json:"agent_name"`
			Status    string  `json:"status"`
			URL       *string `json:"url"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		req.AgentName = strings.TrimSpace(req.AgentName)
		if req.AgentName == "" {
			invalid(w, "agent_name is required")
			return
		}
		status, err := models.ParseProfileStatus(req.Status)
		if err != nil {
			invalid(w, err.Error())
			return
		}

		p, err := svc.UpdateProfileStatus(r.Context(), userID, req.AgentName, platform, status, req.URL)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		response.JSON(w, p)
	}
}
