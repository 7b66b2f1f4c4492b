package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// MachineService covers machine registration and the status read path.
type MachineService struct {
	machines repository.MachineRepository
}

// NewMachineService builds the service.
func NewMachineService(machines repository.MachineRepository) *MachineService {
	return &MachineService{machines: machines}
}

// Create registers a machine under a unique name.
func (s *MachineService) Create(ctx context.Context, machine *domain.Machine) (*domain.Machine, error) {
	if machine.Name == "" {
		return nil, apperrors.NewValidationError("machine_name required", nil)
	}
	if machine.DisplayName == "" {
		machine.DisplayName = machine.Name
	}

	if err := s.machines.Create(ctx, machine); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("machine name already registered",
				map[string]any{"machine_name": machine.Name})
		}
		return nil, apperrors.MapError(err)
	}
	return machine, nil
}

// ListWithStatus returns machines joined with the derived status and the
// open-task count.
func (s *MachineService) ListWithStatus(ctx context.Context) ([]domain.MachineWithStatus, error) {
	machines, err := s.machines.ListWithStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return machines, nil
}

// Delete removes a machine. Refused while non-resolved tasks reference it.
func (s *MachineService) Delete(ctx context.Context, name string) error {
	err := s.machines.Delete(ctx, name)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrMachineInUse):
		return apperrors.NewInUse("machine has open tasks", map[string]any{"machine_name": name})
	case errors.Is(err, pgx.ErrNoRows):
		return apperrors.NewNotFound("machine", map[string]any{"machine_name": name})
	default:
		return apperrors.MapError(err)
	}
}
