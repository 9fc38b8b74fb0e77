package submission

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/prior-art-search/pkg/postgres"
)

func TestPostgresReporterRoundTrip(t *testing.T) {
	cfg := config.Default().Postgres
	if v := os.Getenv("PA_TEST_POSTGRES_HOST"); v != "" {
		cfg.Host = v
	}
	client, err := postgres.New(cfg)
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	ctx := context.Background()
	r := NewPostgresReporter(client, true)
	defer r.Close()

	require.NoError(t, r.Init(ctx, 4, 2, []string{"single-term[ti]", "best-effort[cpc|ti|ab|clm]"}))
	require.NoError(t, r.ReportGenerator(ctx, 1, "single-term[ti]", 0.5, 0.25))
	require.NoError(t, r.ReportTask(ctx, 1, "single-term[ti]", 0.5, 1.25))

	var rows int
	require.NoError(t, client.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM generators").Scan(&rows))
	assert.Equal(t, 4, rows)

	var score float64
	require.NoError(t, client.DB.QueryRowContext(ctx,
		"SELECT score FROM generators WHERE task = 1 AND generator = 'single-term[ti]'").Scan(&score))
	assert.Equal(t, 0.5, score)

	var generator string
	require.NoError(t, client.DB.QueryRowContext(ctx, "SELECT generator FROM tasks WHERE id = 1").Scan(&generator))
	assert.Equal(t, "single-term[ti]", generator)
}
