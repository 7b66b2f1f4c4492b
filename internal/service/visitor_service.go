package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// VisitorService covers visitor enrollment and visit listings.
type VisitorService struct {
	visitors repository.VisitorRepository
	visits   repository.VisitRepository
}

// NewVisitorService builds the service.
func NewVisitorService(visitors repository.VisitorRepository, visits repository.VisitRepository) *VisitorService {
	return &VisitorService{visitors: visitors, visits: visits}
}

// Create enrolls a visitor. Idempotent on hardware id: a second create
// returns the existing record.
func (s *VisitorService) Create(ctx context.Context, hardwareID, displayName string, email *string) (*domain.Visitor, error) {
	if hardwareID == "" {
		return nil, apperrors.NewValidationError("hardware_id required", nil)
	}
	if displayName == "" {
		displayName = hardwareID
	}

	visitor, err := s.visitors.Create(ctx, &domain.Visitor{
		HardwareID:  hardwareID,
		DisplayName: displayName,
		Email:       email,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return visitor, nil
}

// Get returns a visitor by hardware id.
func (s *VisitorService) Get(ctx context.Context, hardwareID string) (*domain.Visitor, error) {
	visitor, err := s.visitors.GetByHardwareID(ctx, hardwareID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("visitor", map[string]any{"hardware_id": hardwareID})
		}
		return nil, apperrors.MapError(err)
	}
	return visitor, nil
}

// List returns all visitors in enrollment order.
func (s *VisitorService) List(ctx context.Context) ([]domain.Visitor, error) {
	visitors, err := s.visitors.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return visitors, nil
}

// ListVisits returns a visitor's visits, optionally bounded in time.
func (s *VisitorService) ListVisits(ctx context.Context, hardwareID string, window repository.VisitWindow) ([]domain.Visit, error) {
	if _, err := s.Get(ctx, hardwareID); err != nil {
		return nil, err
	}
	visits, err := s.visits.ListForVisitor(ctx, hardwareID, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return visits, nil
}

// PurgeVisits removes a visitor's entire visit log. The visitor record
// itself stays enrolled.
func (s *VisitorService) PurgeVisits(ctx context.Context, hardwareID string) error {
	if _, err := s.Get(ctx, hardwareID); err != nil {
		return err
	}
	if err := s.visits.DeleteForVisitor(ctx, hardwareID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// ListAllVisits returns all visits in the window across visitors.
func (s *VisitorService) ListAllVisits(ctx context.Context, window repository.VisitWindow) ([]domain.Visit, error) {
	visits, err := s.visits.ListAll(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return visits, nil
}
