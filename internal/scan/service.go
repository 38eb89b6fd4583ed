// Package scan asks every provider the agent-recommendation prompt set for a
// location and records whether the agent was mentioned.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/kiranshivaraju/notable/internal/audit"
	"github.com/kiranshivaraju/notable/internal/cache"
	"github.com/kiranshivaraju/notable/internal/mention"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// ErrInvalidRequest wraps validation failures of a scan request.
var ErrInvalidRequest = errors.New("invalid scan request")

// Querier fans a prompt out to providers. Implemented by llm.Orchestrator.
type Querier interface {
	QueryAll(ctx context.Context, prompt string, providers ...models.Provider) []models.LLMResponse
}

// Auditor is the slice of audit.Service a scan drives.
type Auditor interface {
	EnrichFromCitations(ctx context.Context, userID uuid.UUID, agentName string, citations []string) ([]models.Platform, error)
	IsAuditStale(ctx context.Context, userID uuid.UUID, maxAgeDays int) (bool, error)
	RunAudit(ctx context.Context, userID uuid.UUID, agentName, location string) (*audit.Result, error)
}

// Store is the persistence a scan needs.
type Store interface {
	UpsertAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)
	CreateScanBatch(ctx context.Context, batch *models.ScanBatch) error
	ListScans(ctx context.Context, filter store.ScanFilter) ([]*models.Scan, error)
}

// Request describes one scan run.
type Request struct {
	AgentName string
	Location  string
	Providers []models.Provider
}

// Service runs scans.
type Service struct {
	querier       Querier
	store         Store
	auditor       Auditor
	cache         cache.Cache
	auditMaxAge   int
	maxConcurrent int
	now           func() time.Time
}

// NewService creates a Service. auditor and c may be nil.
func NewService(q Querier, st Store, auditor Auditor, c cache.Cache, auditMaxAgeDays int) *Service {
	if auditMaxAgeDays <= 0 {
		auditMaxAgeDays = audit.DefaultMaxAgeDays
	}
	return &Service{
		querier:       q,
		store:         st,
		auditor:       auditor,
		cache:         c,
		auditMaxAge:   auditMaxAgeDays,
		maxConcurrent: 2,
		now:           time.Now,
	}
}

// Run renders the prompt set, queries the providers, parses mentions and
// stores the batch. Citation enrichment and the stale-audit check run after
// the batch is stored; their failures are logged and do not fail the scan.
func (s *Service) Run(ctx context.Context, userID uuid.UUID, req Request) (*models.ScanBatch, error) {
	req.AgentName = strings.TrimSpace(req.AgentName)
	req.Location = strings.TrimSpace(req.Location)
	if req.AgentName == "" {
		return nil, fmt.Errorf("%w: agent_name is required", ErrInvalidRequest)
	}
	if req.Location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidRequest)
	}
	providers := req.Providers
	if len(providers) == 0 {
		providers = models.DefaultProviders
	}

	if _, err := s.store.UpsertAgent(ctx, &models.Agent{UserID: userID, Name: req.AgentName, Location: req.Location}); err != nil {
		return nil, fmt.Errorf("saving agent: %w", err)
	}

	queries := Queries(req.Location)
	answers := make([][]models.LLMResponse, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, q := range queries {
		g.Go(func() error {
			answers[i] = s.querier.QueryAll(gctx, q.Prompt, providers...)
			return nil
		})
	}
	_ = g.Wait()

	now := s.now().UTC()
	batch := &models.ScanBatch{
		ID:        uuid.New(),
		UserID:    userID,
		AgentName: req.AgentName,
		Location:  req.Location,
		CreatedAt: now,
	}

	var citations []string
	for i, q := range queries {
		for _, resp := range answers[i] {
			batch.Scans = append(batch.Scans, buildScan(batch, q, resp, now))
			citations = append(citations, resp.Citations...)
		}
	}

	if err := s.store.CreateScanBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("saving scan batch: %w", err)
	}

	mentioned := 0
	for _, sc := range batch.Scans {
		if sc.Mentioned {
			mentioned++
		}
	}
	slog.Info("scan completed",
		"user_id", userID,
		"batch_id", batch.ID,
		"scans", len(batch.Scans),
		"mentioned", mentioned,
	)

	s.followUp(ctx, userID, req, citations)
	return batch, nil
}

// History returns stored scans for an agent, newest first.
func (s *Service) History(ctx context.Context, userID uuid.UUID, agentName string, limit int) ([]*models.Scan, error) {
	scans, err := s.store.ListScans(ctx, store.ScanFilter{
		UserID:    userID,
		AgentName: strings.TrimSpace(agentName),
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing scans: %w", err)
	}
	return scans, nil
}

func buildScan(batch *models.ScanBatch, q Query, resp models.LLMResponse, now time.Time) models.Scan {
	sc := models.Scan{
		ID:          uuid.New(),
		BatchID:     batch.ID,
		UserID:      batch.UserID,
		AgentName:   batch.AgentName,
		Location:    batch.Location,
		Provider:    resp.Provider,
		Model:       resp.Model,
		Prompt:      q.Prompt,
		QueryType:   q.Type,
		Response:    resp.Response,
		Competitors: []string{},
		Citations:   resp.Citations,
		Tokens:      resp.Tokens,
		LatencyMs:   resp.LatencyMs,
		CreatedAt:   now,
	}
	if resp.Failed() {
		e := resp.Error
		sc.Error = &e
		return sc
	}

	m := mention.Parse(resp.Response, batch.AgentName)
	sc.Mentioned = m.Mentioned
	sc.Rank = m.Rank
	sc.Context = m.Context
	sc.Sentiment = m.Sentiment
	sc.Competitors = ExtractCompetitors(resp.Response, batch.AgentName)
	return sc
}

func (s *Service) followUp(ctx context.Context, userID uuid.UUID, req Request, citations []string) {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.RecommendationsKey(userID, req.AgentName)); err != nil {
			slog.Warn("invalidate recommendations", "user_id", userID, "error", err)
		}
	}
	if s.auditor == nil {
		return
	}

	if len(citations) > 0 {
		upgraded, err := s.auditor.EnrichFromCitations(ctx, userID, req.AgentName, citations)
		if err != nil {
			slog.Warn("citation enrichment incomplete", "user_id", userID, "error", err)
		}
		if len(upgraded) > 0 {
			slog.Info("profiles confirmed from citations", "user_id", userID, "platforms", upgraded)
		}
	}

	stale, err := s.auditor.IsAuditStale(ctx, userID, s.auditMaxAge)
	if err != nil {
		slog.Warn("audit staleness check failed", "user_id", userID, "error", err)
		return
	}
	if !stale {
		return
	}
	if _, err := s.auditor.RunAudit(ctx, userID, req.AgentName, req.Location); err != nil && !errors.Is(err, audit.ErrAuditInProgress) {
		slog.Warn("post-scan audit failed", "user_id", userID, "error", err)
	}
}
