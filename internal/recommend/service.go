package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/internal/cache"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
)

const (
	cacheTTL     = 10 * time.Minute
	historyLimit = 500
)

// ScanLister reads scan history.
type ScanLister interface {
	ListScans(ctx context.Context, filter store.ScanFilter) ([]*models.Scan, error)
}

// ProfileLister returns one presence entry per platform. Implemented by audit.Service.
type ProfileLister interface {
	Profiles(ctx context.Context, userID uuid.UUID, agentName string) ([]models.PlatformPresence, error)
}

// Service loads an agent's data, analyzes it and caches the report.
type Service struct {
	scans    ScanLister
	profiles ProfileLister
	cache    cache.Cache
}

// NewService creates a Service. c may be nil to disable caching.
func NewService(scans ScanLister, profiles ProfileLister, c cache.Cache) *Service {
	return &Service{scans: scans, profiles: profiles, cache: c}
}

// Recommendations returns the report for one agent, from cache when fresh.
func (s *Service) Recommendations(ctx context.Context, userID uuid.UUID, agentName string) (*Report, error) {
	agentName = strings.TrimSpace(agentName)
	key := cache.RecommendationsKey(userID, agentName)

	if s.cache != nil {
		if data, found, err := s.cache.Get(ctx, key); err == nil && found {
			var cached Report
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		} else if err != nil {
			slog.Warn("recommendation cache read failed", "user_id", userID, "error", err)
		}
	}

	scans, err := s.scans.ListScans(ctx, store.ScanFilter{UserID: userID, AgentName: agentName, Limit: historyLimit})
	if err != nil {
		return nil, fmt.Errorf("loading scans: %w", err)
	}
	profiles, err := s.profiles.Profiles(ctx, userID, agentName)
	if err != nil {
		return nil, fmt.Errorf("loading profiles: %w", err)
	}

	in := Input{AgentName: agentName, Profiles: profiles, Scans: make([]models.Scan, 0, len(scans))}
	for _, sc := range scans {
		in.Scans = append(in.Scans, *sc)
	}
	report := Analyze(in)

	if s.cache != nil {
		if data, err := json.Marshal(report); err == nil {
			if err := s.cache.Set(ctx, key, data, cacheTTL); err != nil {
				slog.Warn("recommendation cache write failed", "user_id", userID, "error", err)
			}
		}
	}
	return &report, nil
}
