package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/google/uuid"
)

type scanner interface {
	Scan(dest ...any) error
}

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

const workflowColumns = `
	id
  , COALESCE(campaign_id, '')
  , name
  , description
  , created_at
  , updated_at
`

// GetAll returns all workflows from the database, newest first.
func (r *WorkflowRepository) GetAll(ctx context.Context) ([]*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer r.closeRows(ctx, rows)

	workflows := make([]*models.Workflow, 0)

	for rows.Next() {
		workflow, err := r.scanWorkflowBase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow: %w", err)
		}

		workflows = append(workflows, workflow)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	for _, workflow := range workflows {
		err = r.loadNodesAndEdges(ctx, workflow)
		if err != nil {
			return nil, err
		}
	}

	return workflows, nil
}

// GetByID returns the workflow or nil when it does not exist.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT ` + workflowColumns + `
		FROM workflows
		WHERE id = $1 AND deleted_at IS NULL
	`

	workflow, err := r.scanWorkflowBase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	err = r.loadNodesAndEdges(ctx, workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

// Save upserts a workflow and replaces its nodes and edges.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) (err error) {
	now := time.Now().UTC()

	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now

	if workflow.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate workflow ID: %w", err)
		}

		workflow.ID = id.String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	workflowQuery := `
		INSERT INTO workflows (id, campaign_id, name, description, created_at, updated_at, deleted_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, NULL)
		ON CONFLICT (id) DO UPDATE SET
			campaign_id = EXCLUDED.campaign_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = tx.ExecContext(ctx, workflowQuery,
		workflow.ID,
		workflow.CampaignID,
		workflow.Name,
		workflow.Description,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save workflow base: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_edges WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing edges: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM workflow_nodes WHERE workflow_id = $1", workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing nodes: %w", err)
	}

	for i, node := range workflow.Nodes {
		parameters, err := json.Marshal(node.Data.Parameters)
		if err != nil {
			return fmt.Errorf("failed to marshal parameters of node %s: %w", node.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO workflow_nodes (workflow_id, id, ordinal, node_type, label, parameters, position_x, position_y)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			workflow.ID, node.ID, i, string(node.Type), node.Data.Label, parameters, node.Position.X, node.Position.Y,
		)
		if err != nil {
			return fmt.Errorf("failed to save node %s: %w", node.ID, err)
		}
	}

	for i, edge := range workflow.Edges {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO workflow_edges (workflow_id, id, ordinal, source_node_id, target_node_id, edge_type)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			workflow.ID, edge.ID, i, edge.Source, edge.Target, edge.Type,
		)
		if err != nil {
			return fmt.Errorf("failed to save edge %s: %w", edge.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a workflow by setting deleted_at timestamp.
func (r *WorkflowRepository) Delete(ctx context.Context, id string) error {
	query := `UPDATE workflows SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete workflow: %w", err)
	}

	return nil
}

func (r *WorkflowRepository) scanWorkflowBase(row scanner) (*models.Workflow, error) {
	var workflow models.Workflow

	err := row.Scan(
		&workflow.ID,
		&workflow.CampaignID,
		&workflow.Name,
		&workflow.Description,
		&workflow.CreatedAt,
		&workflow.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	workflow.Nodes = []*models.Node{}
	workflow.Edges = []*models.Edge{}

	return &workflow, nil
}

func (r *WorkflowRepository) loadNodesAndEdges(ctx context.Context, workflow *models.Workflow) error {
	err := r.loadNodes(ctx, workflow)
	if err != nil {
		return fmt.Errorf("failed to load nodes of workflow %s: %w", workflow.ID, err)
	}

	err = r.loadEdges(ctx, workflow)
	if err != nil {
		return fmt.Errorf("failed to load edges of workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (r *WorkflowRepository) loadNodes(ctx context.Context, workflow *models.Workflow) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, node_type, label, parameters, position_x, position_y
		FROM workflow_nodes
		WHERE workflow_id = $1
		ORDER BY ordinal
	`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow nodes: %w", err)
	}

	defer r.closeRows(ctx, rows)

	for rows.Next() {
		var (
			node       models.Node
			nodeType   string
			parameters []byte
		)

		err := rows.Scan(&node.ID, &nodeType, &node.Data.Label, &parameters, &node.Position.X, &node.Position.Y)
		if err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}

		node.Type = models.NodeType(nodeType)
		node.Data.Parameters = map[string]any{}

		if len(parameters) > 0 {
			err := json.Unmarshal(parameters, &node.Data.Parameters)
			if err != nil {
				return fmt.Errorf("failed to unmarshal node parameters: %w", err)
			}
		}

		workflow.Nodes = append(workflow.Nodes, &node)
	}

	return rows.Err()
}

func (r *WorkflowRepository) loadEdges(ctx context.Context, workflow *models.Workflow) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source_node_id, target_node_id, edge_type
		FROM workflow_edges
		WHERE workflow_id = $1
		ORDER BY ordinal
	`, workflow.ID)
	if err != nil {
		return fmt.Errorf("failed to query workflow edges: %w", err)
	}

	defer r.closeRows(ctx, rows)

	for rows.Next() {
		var edge models.Edge

		err := rows.Scan(&edge.ID, &edge.Source, &edge.Target, &edge.Type)
		if err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}

		workflow.Edges = append(workflow.Edges, &edge)
	}

	return rows.Err()
}

func (r *WorkflowRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
