package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/notable/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) UpsertUser(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (email) VALUES ($1)
		 ON CONFLICT (email) DO UPDATE SET updated_at = NOW()
		 RETURNING id, email, created_at, updated_at`,
		strings.ToLower(strings.TrimSpace(email)),
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// --- API Keys ---

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, last_used_at, deleted_at, created_at, updated_at`

func scanAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return scanAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Agents ---

func (s *PostgresStore) UpsertAgent(ctx context.Context, agent *models.Agent) (*models.Agent, error) {
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	var a models.Agent
	err := s.pool.QueryRow(ctx,
		`INSERT INTO agents (id, user_id, name, location, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, NOW(), NOW())
		 ON CONFLICT (user_id, name) DO UPDATE SET
		   location = EXCLUDED.location,
		   updated_at = NOW()
		 RETURNING id, user_id, name, location, created_at, updated_at`,
		agent.ID, agent.UserID, agent.Name, agent.Location,
	).Scan(&a.ID, &a.UserID, &a.Name, &a.Location, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert agent: %w", err)
	}
	return &a, nil
}

// --- Scans ---

// CreateScanBatch inserts the batch row and all of its scans in one transaction.
func (s *PostgresStore) CreateScanBatch(ctx context.Context, batch *models.ScanBatch) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO scan_batches (id, user_id, agent_name, location, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			batch.ID, batch.UserID, batch.AgentName, batch.Location, batch.CreatedAt)
		if err != nil {
			return fmt.Errorf("create scan batch: %w", err)
		}

		b := &pgx.Batch{}
		for i := range batch.Scans {
			sc := &batch.Scans[i]
			b.Queue(
				`INSERT INTO scans (id, batch_id, user_id, agent_name, location, provider, model, prompt,
				   query_type, response, mentioned, rank, context, sentiment, competitors, citations,
				   tokens, latency_ms, error, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`,
				sc.ID, batch.ID, sc.UserID, sc.AgentName, sc.Location, sc.Provider, sc.Model, sc.Prompt,
				sc.QueryType, sc.Response, sc.Mentioned, sc.Rank, sc.Context, sc.Sentiment,
				nonNil(sc.Competitors), nonNil(sc.Citations), sc.Tokens, sc.LatencyMs, sc.Error, sc.CreatedAt,
			)
		}
		if err := tx.SendBatch(ctx, b).Close(); err != nil {
			return fmt.Errorf("insert scans: %w", err)
		}
		return nil
	})
}

// ListScans returns scans newest first.
func (s *PostgresStore) ListScans(ctx context.Context, filter ScanFilter) ([]*models.Scan, error) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}
	argIdx := 2

	if filter.AgentName != "" {
		conditions = append(conditions, fmt.Sprintf("agent_name = $%d", argIdx))
		args = append(args, filter.AgentName)
		argIdx++
	}
	if filter.Provider != "" {
		conditions = append(conditions, fmt.Sprintf("provider = $%d", argIdx))
		args = append(args, filter.Provider)
		argIdx++
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIdx))
		args = append(args, filter.Since)
		argIdx++
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	query := fmt.Sprintf(
		`SELECT id, batch_id, user_id, agent_name, location, provider, model, prompt, query_type,
		   response, mentioned, rank, context, sentiment, competitors, citations, tokens, latency_ms,
		   error, created_at
		 FROM scans WHERE %s ORDER BY created_at DESC, id LIMIT $%d`,
		strings.Join(conditions, " AND "), argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scans: %w", err)
	}
	defer rows.Close()

	var scans []*models.Scan
	for rows.Next() {
		var sc models.Scan
		if err := rows.Scan(&sc.ID, &sc.BatchID, &sc.UserID, &sc.AgentName, &sc.Location, &sc.Provider,
			&sc.Model, &sc.Prompt, &sc.QueryType, &sc.Response, &sc.Mentioned, &sc.Rank, &sc.Context,
			&sc.Sentiment, &sc.Competitors, &sc.Citations, &sc.Tokens, &sc.LatencyMs, &sc.Error,
			&sc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scan row: %w", err)
		}
		scans = append(scans, &sc)
	}
	return scans, rows.Err()
}

// --- Agent Profiles ---

const profileColumns = `id, user_id, agent_name, platform, status, source, profile_url, raw_response, checked_at, updated_at`

func scanProfile(row pgx.Row) (*models.PlatformPresence, error) {
	var p models.PlatformPresence
	var source string
	if err := row.Scan(&p.ID, &p.UserID, &p.AgentName, &p.Platform, &p.Status, &source,
		&p.ProfileURL, &p.RawResponse, &p.CheckedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	src, err := models.ParseProfileSource(source)
	if err != nil {
		return nil, err
	}
	p.Source = src
	p.Label = p.Platform.Label()
	return &p, nil
}

func (s *PostgresStore) ListProfiles(ctx context.Context, userID uuid.UUID) ([]*models.PlatformPresence, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+profileColumns+` FROM agent_profiles WHERE user_id = $1 ORDER BY platform`, userID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var out []*models.PlatformPresence
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpsertProfile carries the source-priority rule in the conflict clause, so
// concurrent writers cannot interleave a read and a write.
func (s *PostgresStore) UpsertProfile(ctx context.Context, p *models.PlatformPresence) (*models.PlatformPresence, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO agent_profiles (id, user_id, agent_name, platform, status, source, profile_url, raw_response, checked_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		 ON CONFLICT (user_id, platform) DO UPDATE SET
		   agent_name = EXCLUDED.agent_name,
		   status = EXCLUDED.status,
		   source = EXCLUDED.source,
		   profile_url = CASE WHEN EXCLUDED.source = 'citation'
		     THEN COALESCE(EXCLUDED.profile_url, agent_profiles.profile_url)
		     ELSE EXCLUDED.profile_url END,
		   raw_response = CASE WHEN EXCLUDED.source = 'citation'
		     THEN COALESCE(EXCLUDED.raw_response, agent_profiles.raw_response)
		     ELSE EXCLUDED.raw_response END,
		   checked_at = EXCLUDED.checked_at,
		   updated_at = NOW()
		 WHERE EXCLUDED.source = 'user_reported'
		    OR (EXCLUDED.source = 'llm_audit' AND agent_profiles.source <> 'user_reported')
		    OR (EXCLUDED.source = 'citation'
		        AND agent_profiles.source <> 'user_reported'
		        AND NOT (agent_profiles.source = 'llm_audit' AND agent_profiles.status = 'confirmed'))
		 RETURNING `+profileColumns,
		p.ID, p.UserID, p.AgentName, p.Platform, p.Status, p.Source, p.ProfileURL, p.RawResponse, p.CheckedAt,
	)
	out, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, fmt.Errorf("upsert profile %s: %w", p.Platform, err)
	}
	return out, nil
}

func (s *PostgresStore) LatestAuditCheck(ctx context.Context, userID uuid.UUID) (*time.Time, error) {
	var latest *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(checked_at) FROM agent_profiles WHERE user_id = $1 AND source = $2`,
		userID, models.SourceLLMAudit,
	).Scan(&latest)
	if err != nil {
		return nil, fmt.Errorf("latest audit check: %w", err)
	}
	return latest, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}
