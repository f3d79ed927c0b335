package postgresql_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/dukex/cadence/pkg/persistence/postgresql"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

var (
	postgresContainer *postgres.PostgresContainer
	containerMu       sync.Mutex
)

func dropDb(ctx context.Context, t *testing.T, databaseURL string) {
	t.Helper()

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	for _, table := range []string{"sequence_steps", "sequences", "workflow_edges", "workflow_nodes", "workflows", "schema_migrations"} {
		_, err = db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE")
		require.NoError(t, err)
	}

	require.NoError(t, db.Close())
}

func setupTestDB(t *testing.T) (*postgresql.Persistence, context.Context, string) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	containerMu.Lock()
	if postgresContainer == nil || !postgresContainer.IsRunning() {
		var err error

		postgresContainer, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cadence_test"),
			postgres.WithUsername("cadence"),
			postgres.WithPassword("cadence"),
			postgres.BasicWaitStrategies(),
		)
		if err != nil {
			containerMu.Unlock()
			cancel()
			require.NoError(t, err)
		}
	}
	containerMu.Unlock()

	databaseURL, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	dropDb(ctx, t, databaseURL)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	persistence, err := postgresql.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		dropDb(ctx, t, databaseURL)
		require.NoError(t, persistence.Close(ctx))
		cancel()
	})

	return persistence, ctx, databaseURL
}

func TestNewPersistence_Migrations(t *testing.T) {
	p, ctx, databaseURL := setupTestDB(t)

	require.NoError(t, p.HealthCheck(ctx))

	db, err := sql.Open("postgres", databaseURL)
	require.NoError(t, err)

	defer func() {
		require.NoError(t, db.Close())
	}()

	for _, table := range []string{"sequences", "sequence_steps", "workflows", "workflow_nodes", "workflow_edges"} {
		var exists bool

		err = db.QueryRowContext(ctx, `SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_name = $1)`, table).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists, "%s table should exist", table)
	}

	var version int

	err = db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_migrations").Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}

func TestPersistence_SequenceRoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	campaignID := uuid.NewString()
	when := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	sequence := &models.Sequence{
		CampaignID:  campaignID,
		Name:        "Outreach",
		Description: "first touch",
		Steps: []*models.Step{
			{ID: "s3", Type: models.StepTypePhoneCall, Title: "Call"},
			{ID: "s1", Type: models.StepTypeManualEmail, Title: "Intro", DeliveryTime: &when, Approved: true,
				Variations: []*models.Variant{{ID: "v1", Subject: "A", Body: "a"}, {ID: "v2", Subject: "B", Body: "b"}}},
			{ID: "s2", Type: models.StepTypeActionItem},
		},
	}

	require.NoError(t, p.SaveSequence(ctx, sequence))
	require.NotEmpty(t, sequence.ID)

	got, err := p.SequenceByID(ctx, sequence.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, []string{"s3", "s1", "s2"}, got.StepIDs())
	assert.Nil(t, got.Steps[0].DeliveryTime)
	require.NotNil(t, got.Steps[1].DeliveryTime)
	assert.True(t, when.Equal(*got.Steps[1].DeliveryTime))
	assert.True(t, got.Steps[1].Approved)
	assert.Len(t, got.Steps[1].Variations, 2)
	assert.Empty(t, got.Steps[2].Variations)

	got.Steps = got.Steps[1:]
	require.NoError(t, p.SaveSequence(ctx, got))

	sequences, err := p.Sequences(ctx, campaignID)
	require.NoError(t, err)
	require.Len(t, sequences, 1)
	assert.Equal(t, []string{"s1", "s2"}, sequences[0].StepIDs())

	others, err := p.Sequences(ctx, uuid.NewString())
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, p.DeleteSequence(ctx, sequence.ID))

	deleted, err := p.SequenceByID(ctx, sequence.ID)
	require.NoError(t, err)
	assert.Nil(t, deleted)

	all, err := p.AllSequences(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPersistence_WorkflowRoundTrip(t *testing.T) {
	p, ctx, _ := setupTestDB(t)

	workflow := &models.Workflow{
		Name:        "qualification",
		Description: "route hot leads",
		Nodes: []*models.Node{
			{ID: "trigger", Type: models.NodeTypeTrigger, Data: models.NodeData{Label: "Start", Parameters: map[string]any{}}},
			{ID: "node-1", Type: models.NodeTypeDataEnrichment, Position: models.Position{X: 10.5, Y: -4},
				Data: models.NodeData{Parameters: map[string]any{"enrichmentSource": "hunter", "fieldsToEnrich": []any{"email"}}}},
			{ID: "end", Type: models.NodeTypeEnd},
		},
		Edges: []*models.Edge{
			{ID: "edge-1", Source: "trigger", Target: "node-1", Type: models.DefaultEdgeType},
			{ID: "edge-2", Source: "node-1", Target: "end", Type: models.DefaultEdgeType},
		},
	}

	require.NoError(t, p.SaveWorkflow(ctx, workflow))
	require.NotEmpty(t, workflow.ID)

	got, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "qualification", got.Name)
	assert.Empty(t, got.CampaignID)
	require.Len(t, got.Nodes, 3)
	assert.Equal(t, "Start", got.Nodes[0].Data.Label)
	assert.Equal(t, models.Position{X: 10.5, Y: -4}, got.Nodes[1].Position)
	assert.Equal(t, []any{"email"}, got.Nodes[1].Data.Parameters["fieldsToEnrich"])
	assert.NotNil(t, got.Nodes[2].Data.Parameters)
	assert.Equal(t, workflow.Edges, got.Edges)

	got.Edges = got.Edges[:1]
	got.CampaignID = "camp-1"
	require.NoError(t, p.SaveWorkflow(ctx, got))

	workflows, err := p.Workflows(ctx)
	require.NoError(t, err)
	require.Len(t, workflows, 1)
	assert.Len(t, workflows[0].Edges, 1)
	assert.Equal(t, "camp-1", workflows[0].CampaignID)

	require.NoError(t, p.DeleteWorkflow(ctx, workflow.ID))

	missing, err := p.WorkflowByID(ctx, workflow.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
