package usecase

import (
	"context"
	"fmt"

	"github.com/kirillkom/docstream/internal/core/domain"
	"github.com/kirillkom/docstream/internal/core/ports"
)

// AssessJobUseCase runs the assessment for a stored document: the worker
// side of the upload → assess flow.
type AssessJobUseCase struct {
	repo     ports.DocumentRepository
	storage  ports.ObjectStorage
	assessor *AssessDocumentUseCase
}

func NewAssessJobUseCase(
	repo ports.DocumentRepository,
	storage ports.ObjectStorage,
	assessor *AssessDocumentUseCase,
) *AssessJobUseCase {
	return &AssessJobUseCase{
		repo:     repo,
		storage:  storage,
		assessor: assessor,
	}
}

func (uc *AssessJobUseCase) AssessByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusAssessing, ""); err != nil {
		return fmt.Errorf("set status=assessing: %w", err)
	}

	if err := uc.runAssessment(ctx, documentID); err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusAssessed, ""); err != nil {
		return fmt.Errorf("set status=assessed: %w", err)
	}
	return nil
}

func (uc *AssessJobUseCase) runAssessment(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	profile, err := uc.assessor.Assess(ctx, uc.storage.Path(doc.StoragePath))
	if err != nil {
		return fmt.Errorf("assess document: %w", err)
	}

	strategy, err := DeriveStrategy(profile)
	if err != nil {
		return fmt.Errorf("derive strategy: %w", err)
	}

	if err := uc.repo.SaveAssessment(ctx, documentID, profile, strategy); err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}
