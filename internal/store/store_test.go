package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/notable/internal/store"
	"github.com/kiranshivaraju/notable/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("notable_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newUser(t *testing.T, s store.Store) uuid.UUID {
	t.Helper()
	u, err := s.UpsertUser(context.Background(), uuid.NewString()[:8]+"@example.com")
	require.NoError(t, err)
	return u.ID
}

func presence(userID uuid.UUID, platform models.Platform, status models.ProfileStatus, source models.ProfileSource) *models.PlatformPresence {
	now := time.Now().UTC()
	return &models.PlatformPresence{
		UserID:    userID,
		AgentName: "Jane Doe",
		Platform:  platform,
		Status:    status,
		Source:    source,
		CheckedAt: &now,
	}
}

// --- User Tests ---

func TestUpsertUser_Idempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	first, err := s.UpsertUser(ctx, "Agent@Example.com")
	require.NoError(t, err)
	second, err := s.UpsertUser(ctx, "agent@example.com")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "agent@example.com", second.Email)

	got, err := s.GetUser(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)

	_, err = s.GetUser(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- API Key Tests ---

func TestAPIKey_CreateGetRevoke(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	now := time.Now().UTC().Truncate(time.Microsecond)
	key := &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "cli",
		KeyHash:   "bcrypt-hash-here",
		KeyPrefix: "nt_abcde",
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateAPIKey(ctx, key))

	keys, err := s.GetAPIKeyByPrefix(ctx, "nt_abcde")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, key.ID, keys[0].ID)
	assert.Equal(t, userID, keys[0].UserID)

	require.NoError(t, s.UpdateAPIKeyLastUsed(ctx, key.ID))
	listed, err := s.ListAPIKeys(ctx, userID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotNil(t, listed[0].LastUsedAt)

	require.NoError(t, s.RevokeAPIKey(ctx, key.ID, userID))
	keys, err = s.GetAPIKeyByPrefix(ctx, "nt_abcde")
	require.NoError(t, err)
	assert.Empty(t, keys)

	assert.ErrorIs(t, s.RevokeAPIKey(ctx, key.ID, userID), store.ErrNotFound)
}

func TestAPIKey_DuplicateHash(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)
	now := time.Now().UTC()

	k := func() *models.APIKey {
		return &models.APIKey{ID: uuid.New(), UserID: userID, Name: "dup", KeyHash: "same",
			KeyPrefix: "nt_dupli", CreatedAt: now, UpdatedAt: now}
	}
	require.NoError(t, s.CreateAPIKey(ctx, k()))
	assert.ErrorIs(t, s.CreateAPIKey(ctx, k()), store.ErrDuplicateKey)
}

// --- Scan Tests ---

func TestScanBatch_CreateAndList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	agent, err := s.UpsertAgent(ctx, &models.Agent{UserID: userID, Name: "Jane Doe", Location: "Austin, TX"})
	require.NoError(t, err)
	again, err := s.UpsertAgent(ctx, &models.Agent{UserID: userID, Name: "Jane Doe", Location: "Dallas, TX"})
	require.NoError(t, err)
	assert.Equal(t, agent.ID, again.ID)
	assert.Equal(t, "Dallas, TX", again.Location)

	rank := 2
	sentiment := models.SentimentPositive
	errMsg := "llm provider unavailable: 503"
	base := time.Now().UTC().Truncate(time.Microsecond)
	batch := &models.ScanBatch{
		ID:        uuid.New(),
		UserID:    userID,
		AgentName: "Jane Doe",
		Location:  "Austin, TX",
		CreatedAt: base,
		Scans: []models.Scan{
			{
				ID: uuid.New(), UserID: userID, AgentName: "Jane Doe", Location: "Austin, TX",
				Provider: models.ProviderChatGPT, Model: "gpt-4o-mini", Prompt: "p1",
				QueryType: models.QueryGeneral, Response: "1. Bob\n2. Jane Doe", Mentioned: true,
				Rank: &rank, Sentiment: &sentiment, Competitors: []string{"Bob"}, Tokens: 42,
				LatencyMs: 120, CreatedAt: base,
			},
			{
				ID: uuid.New(), UserID: userID, AgentName: "Jane Doe", Location: "Austin, TX",
				Provider: models.ProviderClaude, Prompt: "p1", QueryType: models.QueryGeneral,
				Error: &errMsg, CreatedAt: base.Add(time.Millisecond),
			},
		},
	}
	require.NoError(t, s.CreateScanBatch(ctx, batch))

	scans, err := s.ListScans(ctx, store.ScanFilter{UserID: userID, AgentName: "Jane Doe"})
	require.NoError(t, err)
	require.Len(t, scans, 2)

	assert.Equal(t, models.ProviderClaude, scans[0].Provider, "newest first")
	require.NotNil(t, scans[0].Error)
	assert.Empty(t, scans[0].Competitors)

	assert.True(t, scans[1].Mentioned)
	require.NotNil(t, scans[1].Rank)
	assert.Equal(t, 2, *scans[1].Rank)
	assert.Equal(t, []string{"Bob"}, scans[1].Competitors)
	assert.Equal(t, batch.ID, scans[1].BatchID)

	filtered, err := s.ListScans(ctx, store.ScanFilter{UserID: userID, Provider: models.ProviderChatGPT, Limit: 1})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, models.ProviderChatGPT, filtered[0].Provider)

	other, err := s.ListScans(ctx, store.ScanFilter{UserID: uuid.New()})
	require.NoError(t, err)
	assert.Empty(t, other)
}

// --- Profile Tests ---

func TestUpsertProfile_SourcePriority(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	// citation upgrades an empty slot
	got, err := s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceCitation))
	require.NoError(t, err)
	assert.Equal(t, models.SourceCitation, got.Source)
	assert.Equal(t, "Zillow", got.Label)

	// audit overwrites citation
	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceLLMAudit))
	require.NoError(t, err)

	// citation cannot overwrite confirmed audit
	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceCitation))
	assert.ErrorIs(t, err, store.ErrSuperseded)

	// user report beats everything, and audit cannot overwrite it
	url := "https://www.zillow.com/profile/janedoe"
	user := presence(userID, models.PlatformZillow, models.StatusNotFound, models.SourceUserReported)
	user.ProfileURL = &url
	_, err = s.UpsertProfile(ctx, user)
	require.NoError(t, err)

	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceLLMAudit))
	assert.ErrorIs(t, err, store.ErrSuperseded)
	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceCitation))
	assert.ErrorIs(t, err, store.ErrSuperseded)

	profiles, err := s.ListProfiles(ctx, userID)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, models.SourceUserReported, profiles[0].Source)
	assert.Equal(t, models.StatusNotFound, profiles[0].Status)
	require.NotNil(t, profiles[0].ProfileURL)
	assert.Equal(t, url, *profiles[0].ProfileURL)
}

func TestUpsertProfile_CitationUpgradesNotFoundAudit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	_, err := s.UpsertProfile(ctx, presence(userID, models.PlatformRealtorCom, models.StatusNotFound, models.SourceLLMAudit))
	require.NoError(t, err)

	got, err := s.UpsertProfile(ctx, presence(userID, models.PlatformRealtorCom, models.StatusConfirmed, models.SourceCitation))
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, models.SourceCitation, got.Source)
}

func TestUpsertProfile_ConcurrentWritersKeepUserReport(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	_, err := s.UpsertProfile(ctx, presence(userID, models.PlatformFastExpert, models.StatusConfirmed, models.SourceUserReported))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			src := models.SourceLLMAudit
			if i%2 == 0 {
				src = models.SourceCitation
			}
			_, _ = s.UpsertProfile(ctx, presence(userID, models.PlatformFastExpert, models.StatusNotFound, src))
		}(i)
	}
	wg.Wait()

	profiles, err := s.ListProfiles(ctx, userID)
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, models.SourceUserReported, profiles[0].Source)
	assert.Equal(t, models.StatusConfirmed, profiles[0].Status)
}

func TestLatestAuditCheck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()
	userID := newUser(t, s)

	latest, err := s.LatestAuditCheck(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, latest)

	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformZillow, models.StatusConfirmed, models.SourceCitation))
	require.NoError(t, err)
	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformRealtorCom, models.StatusConfirmed, models.SourceUserReported))
	require.NoError(t, err)

	latest, err = s.LatestAuditCheck(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, latest, "citation and user rows are not audits")

	old := time.Now().UTC().Add(-10 * 24 * time.Hour)
	p := presence(userID, models.PlatformHomesCom, models.StatusUnknown, models.SourceLLMAudit)
	p.CheckedAt = &old
	_, err = s.UpsertProfile(ctx, p)
	require.NoError(t, err)

	_, err = s.UpsertProfile(ctx, presence(userID, models.PlatformBingPlaces, models.StatusUnknown, models.SourceLLMAudit))
	require.NoError(t, err)

	latest, err = s.LatestAuditCheck(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.WithinDuration(t, time.Now(), *latest, time.Minute)
}
