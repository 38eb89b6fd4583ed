package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/internal/api/response"
	"github.com/kiranshivaraju/notable/internal/scan"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	defaultScanLimit = 50
	maxScanLimit     = 500
)

// ScanRunner runs and lists scans. Implemented by scan.Service.
type ScanRunner interface {
	Run(ctx context.Context, userID uuid.UUID, req scan.Request) (*models.ScanBatch, error)
	History(ctx context.Context, userID uuid.UUID, agentName string, limit int) ([]*models.Scan, error)
}

// NewCreateScanHandler returns an http.HandlerFunc for POST /api/v1/scans.
func NewCreateScanHandler(svc ScanRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req struct {
			AgentName string   `json:"agent_name"`
			Location  string   `json:"location"`
			Providers []string `json:"providers"`
		}
		if !decodeBody(w, r, &req) {
			return
		}
		providers, ok := parseProviders(w, req.Providers)
		if !ok {
			return
		}

		batch, err := svc.Run(r.Context(), userID, scan.Request{
			AgentName: req.AgentName,
			Location:  req.Location,
			Providers: providers,
		})
		if err != nil {
			if errors.Is(err, scan.ErrInvalidRequest) {
				invalid(w, err.Error())
				return
			}
			response.Internal(w, r, err)
			return
		}
		response.Created(w, batch)
	}
}

// NewListScansHandler returns an http.HandlerFunc for GET /api/v1/scans.
func NewListScansHandler(svc ScanRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		agentName := strings.TrimSpace(r.URL.Query().Get("agent_name"))
		limit := queryLimit(r, defaultScanLimit, maxScanLimit)

		scans, err := svc.History(r.Context(), userID, agentName, limit)
		if err != nil {
			response.Internal(w, r, err)
			return
		}
		if scans == nil {
			scans = []*models.Scan{}
		}
		response.List(w, scans, len(scans), limit)
	}
}
