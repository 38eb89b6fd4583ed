// Package audit determines whether an agent has a profile on each directory
// platform and reconciles that evidence with what is already stored.
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/notable/internal/cache"
	"github.com/kiranshivaraju/notable/internal/llm"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// ErrAuditInProgress is returned when another audit for the same user holds the lock.
var ErrAuditInProgress = errors.New("audit already in progress")

const (
	auditTemperature float32 = 0.1
	auditMaxTokens           = 1000
	// DefaultMaxAgeDays is how long an audit stays fresh.
	DefaultMaxAgeDays = 7
	defaultLockTTL    = 2 * time.Minute
)

// State tracks one audit run.
type State string

const (
	StateNotStarted  State = "not_started"
	StateRequested   State = "requested"
	StateParsedOK    State = "parsed_ok"
	StateParsedEmpty State = "parsed_empty"
	StatePersisted   State = "persisted"
)

// Outcome says why an audit produced the statuses it did.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeUnparseable   Outcome = "unparseable"
	OutcomeProviderError Outcome = "provider_error"
)

// Result is returned by RunAudit. Profiles always has one entry per platform.
type Result struct {
	Profiles      []models.PlatformPresence `json:"profiles"`
	State         State                     `json:"state"`
	Outcome       Outcome                   `json:"outcome"`
	Reason        string                    `json:"reason,omitempty"`
	Provider      models.Provider           `json:"provider,omitempty"`
	Model         string                    `json:"model,omitempty"`
	LatencyMs     int64                     `json:"latency_ms"`
	PersistErrors int                       `json:"persist_errors"`
	// Kept counts platforms where a user correction outranked the audit.
	Kept int `json:"kept"`
}

// Inconclusive reports whether the statuses carry no audit evidence.
func (r Result) Inconclusive() bool {
	return r.Outcome != OutcomeOK
}

// Locker serializes audits per user across processes.
type Locker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// Options tunes a Service. Zero values select defaults.
type Options struct {
	Timeout time.Duration
	LockTTL time.Duration
	Now     func() time.Time
}

// Service runs audits against a web-search-capable provider and maintains
// the agent_profiles rows.
type Service struct {
	provider models.LLMProvider
	profiles store.ProfileStore
	locker   Locker
	timeout  time.Duration
	lockTTL  time.Duration
	now      func() time.Time
}

// NewService creates a Service. provider may be nil when no search-capable
// vendor is configured; audits then report OutcomeProviderError. locker may
// be nil to skip locking.
func NewService(provider models.LLMProvider, profiles store.ProfileStore, locker Locker, opts Options) *Service {
	s := &Service{
		provider: provider,
		profiles: profiles,
		locker:   locker,
		timeout:  opts.Timeout,
		lockTTL:  opts.LockTTL,
		now:      opts.Now,
	}
	if s.lockTTL <= 0 {
		s.lockTTL = defaultLockTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// RunAudit asks the provider about every platform and persists the answer.
// A provider failure leaves storage untouched and returns all-unknown with
// OutcomeProviderError. Persistence failures are logged and counted; the
// returned profiles are the freshly computed ones either way.
func (s *Service) RunAudit(ctx context.Context, userID uuid.UUID, agentName, location string) (*Result, error) {
	if agentName == "" {
		return nil, fmt.Errorf("agent name is required")
	}

	if s.locker != nil {
		key := cache.AuditLockKey(userID)
		token := uuid.NewString()
		ok, err := s.locker.AcquireLock(ctx, key, token, s.lockTTL)
		switch {
		case err != nil:
			slog.Warn("audit lock unavailable, continuing without it", "user_id", userID, "error", err)
		case !ok:
			return nil, ErrAuditInProgress
		default:
			defer func() {
				if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
					slog.Warn("release audit lock", "user_id", userID, "error", err)
				}
			}()
		}
	}

	res := &Result{State: StateNotStarted}
	now := s.now().UTC()

	if s.provider == nil {
		res.State = StateParsedEmpty
		res.Outcome = OutcomeProviderError
		res.Reason = fmt.Sprintf("%v: no web-search provider", llm.ErrNotConfigured)
		res.Profiles = unknownProfiles(userID, agentName)
		slog.Warn("audit skipped", "user_id", userID, "reason", res.Reason)
		return res, nil
	}

	res.State = StateRequested
	res.Provider = s.provider.Name()
	temperature := auditTemperature
	resp, err := llm.Invoke(ctx, s.provider, models.CompletionRequest{
		Prompt:      BuildPrompt(agentName, location),
		Temperature: &temperature,
		MaxTokens:   auditMaxTokens,
	}, s.timeout)
	res.Model = resp.Model
	res.LatencyMs = resp.LatencyMs
	if err != nil {
		res.State = StateParsedEmpty
		res.Outcome = OutcomeProviderError
		res.Reason = resp.Error
		res.Profiles = unknownProfiles(userID, agentName)
		slog.Error("audit request failed", "user_id", userID, "provider", res.Provider, "error", err)
		return res, nil
	}

	findings, err := ParseReply(resp.Response)
	if err != nil {
		res.State = StateParsedEmpty
		res.Outcome = OutcomeUnparseable
		res.Reason = err.Error()
		slog.Warn("audit reply unparseable, defaulting to unknown", "user_id", userID, "error", err)
	} else {
		res.State = StateParsedOK
		res.Outcome = OutcomeOK
	}

	raw := resp.Response
	res.Profiles = make([]models.PlatformPresence, 0, len(models.AllPlatforms))
	for _, platform := range models.AllPlatforms {
		p := models.UnknownPresence(userID, agentName, platform)
		if f, ok := findings[platform]; ok {
			p.Status = f.Status
			p.ProfileURL = f.URL
		}
		p.Source = models.SourceLLMAudit
		p.CheckedAt = &now
		p.UpdatedAt = now
		p.RawResponse = &raw
		res.Profiles = append(res.Profiles, p)
	}

	for i := range res.Profiles {
		stored, err := s.profiles.UpsertProfile(ctx, &res.Profiles[i])
		switch {
		case errors.Is(err, store.ErrSuperseded):
			res.Kept++
		case err != nil:
			res.PersistErrors++
			slog.Error("persist audit result",
				"user_id", userID,
				"platform", res.Profiles[i].Platform,
				"error", err,
			)
		default:
			res.Profiles[i].ID = stored.ID
		}
	}
	res.State = StatePersisted

	slog.Info("audit completed",
		"user_id", userID,
		"outcome", res.Outcome,
		"latency_ms", res.LatencyMs,
		"persist_errors", res.PersistErrors,
	)
	return res, nil
}

// IsAuditStale reports whether a new audit is due. It is stale when no audit
// has run or the newest audit row is strictly older than maxAgeDays; a check
// exactly maxAgeDays old is still fresh. Citation and user rows cover single
// platforms and do not postpone an audit.
func (s *Service) IsAuditStale(ctx context.Context, userID uuid.UUID, maxAgeDays int) (bool, error) {
	if maxAgeDays < 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	latest, err := s.profiles.LatestAuditCheck(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("checking audit age: %w", err)
	}
	if latest == nil {
		return true, nil
	}
	maxAge := time.Duration(maxAgeDays) * 24 * time.Hour
	return s.now().Sub(*latest) > maxAge, nil
}

// UpdateProfileStatus records a user's correction. It always wins.
func (s *Service) UpdateProfileStatus(ctx context.Context, userID uuid.UUID, agentName string, platform models.Platform, status models.ProfileStatus, profileURL *string) (*models.PlatformPresence, error) {
	now := s.now().UTC()
	if profileURL != nil {
		profileURL = cleanURL(*profileURL)
	}
	p := &models.PlatformPresence{
		UserID:     userID,
		AgentName:  agentName,
		Platform:   platform,
		Label:      platform.Label(),
		Status:     status,
		Source:     models.SourceUserReported,
		ProfileURL: profileURL,
		CheckedAt:  &now,
		UpdatedAt:  now,
	}
	stored, err := s.profiles.UpsertProfile(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("updating %s profile: %w", platform, err)
	}
	return stored, nil
}

// EnrichFromCitations marks platforms whose domains appear in citations as
// confirmed. User reports and audit confirmations are never overwritten.
// It returns the platforms that were upgraded; failures for individual
// platforms are joined into the error.
func (s *Service) EnrichFromCitations(ctx context.Context, userID uuid.UUID, agentName string, citations []string) ([]models.Platform, error) {
	matches := matchCitations(citations)
	if len(matches) == 0 {
		return nil, nil
	}

	// Stored rows that outrank citations are skipped here; UpsertProfile
	// still enforces the rule for concurrent writers.
	existing := make(map[models.Platform]*models.PlatformPresence)
	if stored, err := s.profiles.ListProfiles(ctx, userID); err != nil {
		slog.Warn("list profiles before enrichment", "user_id", userID, "error", err)
	} else {
		for _, p := range stored {
			existing[p.Platform] = p
		}
	}

	now := s.now().UTC()
	var upgraded []models.Platform
	var errs []error
	for _, m := range matches {
		if cur, ok := existing[m.platform]; ok && !cur.YieldsToCitation() {
			slog.Debug("citation kept existing profile", "user_id", userID, "platform", m.platform, "source", cur.Source)
			continue
		}
		p := &models.PlatformPresence{
			UserID:    userID,
			AgentName: agentName,
			Platform:  m.platform,
			Status:    models.StatusConfirmed,
			Source:    models.SourceCitation,
			CheckedAt: &now,
			UpdatedAt: now,
		}
		if u := cleanURL(m.citation); u != nil {
			p.ProfileURL = u
		}

		_, err := s.profiles.UpsertProfile(ctx, p)
		switch {
		case errors.Is(err, store.ErrSuperseded):
			slog.Debug("citation kept existing profile", "user_id", userID, "platform", m.platform)
		case err != nil:
			slog.Error("persist citation evidence", "user_id", userID, "platform", m.platform, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", m.platform, err))
		default:
			upgraded = append(upgraded, m.platform)
		}
	}
	return upgraded, errors.Join(errs...)
}

// Profiles returns the stored view with one entry per platform, filling
// platforms that were never checked with unknown placeholders.
func (s *Service) Profiles(ctx context.Context, userID uuid.UUID, agentName string) ([]models.PlatformPresence, error) {
	stored, err := s.profiles.ListProfiles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}
	byPlatform := make(map[models.Platform]*models.PlatformPresence, len(stored))
	for _, p := range stored {
		byPlatform[p.Platform] = p
	}

	out := make([]models.PlatformPresence, 0, len(models.AllPlatforms))
	for _, platform := range models.AllPlatforms {
		if p, ok := byPlatform[platform]; ok {
			p.Label = platform.Label()
			out = append(out, *p)
			continue
		}
		out = append(out, models.UnknownPresence(userID, agentName, platform))
	}
	return out, nil
}

func unknownProfiles(userID uuid.UUID, agentName string) []models.PlatformPresence {
	out := make([]models.PlatformPresence, 0, len(models.AllPlatforms))
	for _, platform := range models.AllPlatforms {
		out = append(out, models.UnknownPresence(userID, agentName, platform))
	}
	return out
}
