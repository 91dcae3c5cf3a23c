package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiranshivaraju/nichescout/internal/store"
	"github.com/kiranshivaraju/nichescout/pkg/models"
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

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("nichescout_test"),
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

	// A second run is a no-op.
	require.NoError(t, store.RunMigrations(connStr, migrationsDir()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newAnalysis(userID, product string, createdAt time.Time) *models.Analysis {
	return &models.Analysis{
		ID:          uuid.New(),
		UserID:      userID,
		ProductName: product,
		Steps:       4,
		Result: models.AnalysisResult{
			Name:             product,
			DemandScore:      85,
			Revenue:          "$52,000/mo",
			Trend:            models.TrendUp,
			OpportunityLevel: models.OpportunityHigh,
			Recommendation:   "Launch.",
			Competitors: []models.Competitor{{
				Domain:        "glamglow.com",
				Traffic:       models.SeeAnalysis,
				TrafficSource: models.TrafficPaid,
				TopKeywords:   []string{"clay mask"},
			}},
		},
		Transcript: "[user]\nanalyze",
		CreatedAt:  createdAt,
	}
}

func TestPing(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	assert.NoError(t, s.Ping(context.Background()))
}

func TestAnalysis_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	a := newAnalysis("user-1", "Clay Mask", now)
	a.ChallengeDetected = true
	require.NoError(t, s.CreateAnalysis(ctx, a))

	got, err := s.GetAnalysis(ctx, a.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)
	assert.Equal(t, "Clay Mask", got.ProductName)
	assert.True(t, got.ChallengeDetected)
	assert.Equal(t, 4, got.Steps)
	assert.Equal(t, "[user]\nanalyze", got.Transcript)
	assert.True(t, now.Equal(got.CreatedAt))
	assert.Equal(t, 85, got.Result.DemandScore)
	require.Len(t, got.Result.Competitors, 1)
	assert.Equal(t, models.TrafficPaid, got.Result.Competitors[0].TrafficSource)
	assert.NotNil(t, got.Result.RevenueHistory)
}

func TestAnalysis_Duplicate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	a := newAnalysis("user-1", "Clay Mask", time.Now().UTC())
	require.NoError(t, s.CreateAnalysis(ctx, a))
	assert.ErrorIs(t, s.CreateAnalysis(ctx, a), store.ErrDuplicateKey)
}

func TestAnalysis_GetScopedToUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	a := newAnalysis("owner", "Clay Mask", time.Now().UTC())
	require.NoError(t, s.CreateAnalysis(ctx, a))

	_, err := s.GetAnalysis(ctx, a.ID, "someone-else")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetAnalysis(ctx, uuid.New(), "owner")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAnalysis_ListNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	s := store.NewPostgresStore(setupTestDB(t))
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i, name := range []string{"first", "second", "third"} {
		require.NoError(t, s.CreateAnalysis(ctx, newAnalysis("user-1", name, base.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, s.CreateAnalysis(ctx, newAnalysis("user-2", "other", base)))

	list, err := s.ListAnalyses(ctx, "user-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "third", list[0].ProductName)
	assert.Equal(t, "first", list[2].ProductName)
	assert.Empty(t, list[0].Transcript, "listings omit transcripts")

	list, err = s.ListAnalyses(ctx, "user-1", 2)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = s.ListAnalyses(ctx, "nobody", 10)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, store.DefaultListLimit, store.ClampLimit(0))
	assert.Equal(t, store.DefaultListLimit, store.ClampLimit(-5))
	assert.Equal(t, 7, store.ClampLimit(7))
	assert.Equal(t, store.MaxListLimit, store.ClampLimit(1000))
}
