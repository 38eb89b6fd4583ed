package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/notable/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrSuperseded is returned by UpsertProfile when the stored record outranks
// the incoming one and was left untouched.
var ErrSuperseded = errors.New("profile write superseded by higher-priority record")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	UpsertUser(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	UpsertAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error)

	CreateScanBatch(ctx context.Context, batch *models.ScanBatch) error
	ListScans(ctx context.Context, filter ScanFilter) ([]*models.Scan, error)

	ProfileStore
}

// ProfileStore covers the agent_profiles table. It is split out so the audit
// engine can depend on it alone.
type ProfileStore interface {
	ListProfiles(ctx context.Context, userID uuid.UUID) ([]*models.PlatformPresence, error)
	// UpsertProfile writes p keyed by (user, platform). The source of p decides
	// which stored rows it may replace:
	//   user_reported replaces anything;
	//   llm_audit replaces anything but user_reported;
	//   citation replaces anything but user_reported and confirmed llm_audit.
	// A rejected write returns ErrSuperseded.
	UpsertProfile(ctx context.Context, p *models.PlatformPresence) (*models.PlatformPresence, error)
	// LatestAuditCheck returns the newest checked_at among the user's
	// llm_audit rows, or nil. Citation and user rows do not count as audits.
	LatestAuditCheck(ctx context.Context, userID uuid.UUID) (*time.Time, error)
}

type ScanFilter struct {
	UserID    uuid.UUID
	AgentName string
	Provider  models.Provider
	Since     time.Time
	Limit     int
}
