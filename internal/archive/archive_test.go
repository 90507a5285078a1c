package archive_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyeh/qcwatch/internal/archive"
	"github.com/gyeh/qcwatch/internal/db"
	"github.com/gyeh/qcwatch/internal/logging"
	"github.com/gyeh/qcwatch/internal/metrics"
)

const (
	testPort     = 15433
	testDB       = "qctest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var (
	testDSN string
	pg      *embeddedpostgres.EmbeddedPostgres
)

func TestMain(m *testing.M) {
	if os.Getenv("QCWATCH_PG_TESTS") != "1" {
		fmt.Fprintln(os.Stderr, "SKIP: set QCWATCH_PG_TESTS=1 to run archive integration tests")
		os.Exit(0)
	}

	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg = embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30*time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start embedded postgres: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}
	os.Exit(code)
}

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()
	log := logging.Setup("text", "warn")

	pool, err := db.Connect(ctx, testDSN, log)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.ApplyMigrations(ctx, pool, log)
	require.NoError(t, err)
	return pool
}

func TestApplyMigrations_Idempotent(t *testing.T) {
	pool := setupPool(t)
	applied, err := db.ApplyMigrations(context.Background(), pool, logging.Setup("text", "warn"))
	require.NoError(t, err)
	assert.Empty(t, applied)
}

func TestSave(t *testing.T) {
	ctx := context.Background()
	pool := setupPool(t)
	a := archive.New(pool, logging.Setup("text", "warn"))

	main, _ := metrics.Extract(metrics.DefaultTable(), "Ion Injection Times for IDs\n  MS1 Median   12.50\n")
	doc := metrics.Assemble(
		map[string]string{"f_size": "97.8", "runtime": "0:00:01", "date": "2012/Jan/19 - 11:08"},
		main,
		map[string]string{"ms1_spectra": "6349 (4135)"},
	)

	runID := uuid.NewString()
	n, err := a.Save(ctx, archive.RunMeta{
		RunID:     runID,
		RawFile:   "U87_10mg_B.raw",
		ReportDir: "2012/Jan/U87_10mg_B",
		Warnings:  2,
	}, doc)
	require.NoError(t, err)
	assert.Equal(t, int64(38+4), n)

	var numeric *float64
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT numeric_value FROM qc.metric_values WHERE run_id = $1 AND metric_id = 'ms1-1'`, runID,
	).Scan(&numeric))
	require.NotNil(t, numeric)
	assert.InDelta(t, 12.5, *numeric, 1e-9)

	runs, err := a.LatestRuns(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, runs)
	assert.Equal(t, runID, runs[0].RunID)
	assert.Equal(t, 2, runs[0].Warnings)

	series, err := a.Series(ctx, "ms1", "ms1-1")
	require.NoError(t, err)
	require.NotEmpty(t, series)
	assert.Equal(t, "12.50", series[len(series)-1].Value)

	// Same run id twice violates the primary key and leaves nothing behind.
	_, err = a.Save(ctx, archive.RunMeta{RunID: runID, RawFile: "x", ReportDir: "x"}, doc)
	assert.Error(t, err)
}
