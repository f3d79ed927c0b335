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

// SequenceRepository handles sequence-related database operations.
type SequenceRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSequenceRepository(db *sql.DB, logger *slog.Logger) *SequenceRepository {
	return &SequenceRepository{db: db, logger: logger}
}

const sequenceColumns = `
	id
  , campaign_id
  , name
  , description
  , created_at
  , updated_at
`

// GetAll returns every live sequence, oldest first.
func (r *SequenceRepository) GetAll(ctx context.Context) ([]*models.Sequence, error) {
	return r.query(ctx, `SELECT `+sequenceColumns+`
		FROM sequences
		WHERE deleted_at IS NULL
		ORDER BY created_at, id
	`)
}

// GetByCampaign returns the sequences of one campaign, oldest first.
func (r *SequenceRepository) GetByCampaign(ctx context.Context, campaignID string) ([]*models.Sequence, error) {
	return r.query(ctx, `SELECT `+sequenceColumns+`
		FROM sequences
		WHERE campaign_id = $1 AND deleted_at IS NULL
		ORDER BY created_at, id
	`, campaignID)
}

// GetByID returns the sequence or nil when it does not exist.
func (r *SequenceRepository) GetByID(ctx context.Context, id string) (*models.Sequence, error) {
	query := `SELECT ` + sequenceColumns + `
		FROM sequences
		WHERE id = $1 AND deleted_at IS NULL
	`

	sequence, err := r.scanSequenceBase(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan sequence: %w", err)
	}

	err = r.loadSteps(ctx, sequence)
	if err != nil {
		return nil, err
	}

	return sequence, nil
}

// Save upserts a sequence and replaces its steps, keeping their order.
func (r *SequenceRepository) Save(ctx context.Context, sequence *models.Sequence) (err error) {
	now := time.Now().UTC()

	if sequence.CreatedAt.IsZero() {
		sequence.CreatedAt = now
	}

	sequence.UpdatedAt = now

	if sequence.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate sequence ID: %w", err)
		}

		sequence.ID = id.String()
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sequences (id, campaign_id, name, description, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULL)
		ON CONFLICT (id) DO UPDATE SET
			campaign_id = EXCLUDED.campaign_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`,
		sequence.ID,
		sequence.CampaignID,
		sequence.Name,
		sequence.Description,
		sequence.CreatedAt,
		sequence.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save sequence base: %w", err)
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM sequence_steps WHERE sequence_id = $1", sequence.ID)
	if err != nil {
		return fmt.Errorf("failed to delete existing steps: %w", err)
	}

	for i, step := range sequence.Steps {
		variations := step.Variations
		if variations == nil {
			variations = []*models.Variant{}
		}

		variationsJSON, err := json.Marshal(variations)
		if err != nil {
			return fmt.Errorf("failed to marshal variations of step %s: %w", step.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sequence_steps (sequence_id, id, ordinal, step_type, title, description, delivery_time, approved, variations)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			sequence.ID, step.ID, i, string(step.Type), step.Title, step.Description, step.DeliveryTime, step.Approved, variationsJSON,
		)
		if err != nil {
			return fmt.Errorf("failed to save step %s: %w", step.ID, err)
		}
	}

	err = tx.Commit()
	if err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Delete soft deletes a sequence by setting deleted_at timestamp.
func (r *SequenceRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE sequences SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return fmt.Errorf("failed to delete sequence: %w", err)
	}

	return nil
}

func (r *SequenceRepository) query(ctx context.Context, query string, args ...any) ([]*models.Sequence, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sequences: %w", err)
	}

	sequences := make([]*models.Sequence, 0)

	for rows.Next() {
		sequence, err := r.scanSequenceBase(rows)
		if err != nil {
			r.closeRows(ctx, rows)

			return nil, fmt.Errorf("failed to scan sequence: %w", err)
		}

		sequences = append(sequences, sequence)
	}

	err = rows.Err()
	r.closeRows(ctx, rows)

	if err != nil {
		return nil, fmt.Errorf("error iterating sequences: %w", err)
	}

	for _, sequence := range sequences {
		err = r.loadSteps(ctx, sequence)
		if err != nil {
			return nil, err
		}
	}

	return sequences, nil
}

func (r *SequenceRepository) scanSequenceBase(row scanner) (*models.Sequence, error) {
	var sequence models.Sequence

	err := row.Scan(
		&sequence.ID,
		&sequence.CampaignID,
		&sequence.Name,
		&sequence.Description,
		&sequence.CreatedAt,
		&sequence.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sequence.Steps = []*models.Step{}

	return &sequence, nil
}

func (r *SequenceRepository) loadSteps(ctx context.Context, sequence *models.Sequence) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, step_type, title, description, delivery_time, approved, variations
		FROM sequence_steps
		WHERE sequence_id = $1
		ORDER BY ordinal
	`, sequence.ID)
	if err != nil {
		return fmt.Errorf("failed to query steps of sequence %s: %w", sequence.ID, err)
	}

	defer r.closeRows(ctx, rows)

	for rows.Next() {
		var (
			step         models.Step
			stepType     string
			deliveryTime sql.NullTime
			variations   []byte
		)

		err := rows.Scan(&step.ID, &stepType, &step.Title, &step.Description, &deliveryTime, &step.Approved, &variations)
		if err != nil {
			return fmt.Errorf("failed to scan step: %w", err)
		}

		step.Type = models.StepType(stepType)

		if deliveryTime.Valid {
			t := deliveryTime.Time.UTC()
			step.DeliveryTime = &t
		}

		err = json.Unmarshal(variations, &step.Variations)
		if err != nil {
			return fmt.Errorf("failed to unmarshal variations of step %s: %w", step.ID, err)
		}

		sequence.Steps = append(sequence.Steps, &step)
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("error iterating steps: %w", err)
	}

	return nil
}

func (r *SequenceRepository) closeRows(ctx context.Context, rows *sql.Rows) {
	err := rows.Close()
	if err != nil {
		r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
	}
}
