package file

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dukex/cadence/pkg/models"
	"github.com/google/uuid"
)

// SequenceRepository handles sequence-related file operations.
type SequenceRepository struct {
	docs *documents[models.Sequence]
}

func NewSequenceRepository(root string) *SequenceRepository {
	return &SequenceRepository{docs: &documents[models.Sequence]{root: root, dir: "sequences"}}
}

// GetAll returns every stored sequence, oldest first.
func (sr *SequenceRepository) GetAll(_ context.Context) ([]*models.Sequence, error) {
	sequences, err := sr.docs.all()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(sequences, func(a, b *models.Sequence) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), cmp.Compare(a.ID, b.ID))
	})

	return sequences, nil
}

func (sr *SequenceRepository) GetByCampaign(ctx context.Context, campaignID string) ([]*models.Sequence, error) {
	sequences, err := sr.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(sequences, func(s *models.Sequence) bool {
		return s.CampaignID != campaignID
	}), nil
}

func (sr *SequenceRepository) GetByID(_ context.Context, id string) (*models.Sequence, error) {
	return sr.docs.get(id)
}

// Save saves a sequence to the file system, assigning an id to new sequences.
func (sr *SequenceRepository) Save(_ context.Context, sequence *models.Sequence) error {
	if sequence.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate sequence ID: %w", err)
		}

		sequence.ID = id.String()
	}

	now := time.Now().UTC()
	if sequence.CreatedAt.IsZero() {
		sequence.CreatedAt = now
	}

	sequence.UpdatedAt = now

	return sr.docs.put(sequence.ID, sequence)
}

func (sr *SequenceRepository) Delete(_ context.Context, id string) error {
	return sr.docs.remove(id)
}
