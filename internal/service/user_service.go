package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// UserService covers staff lifecycle beyond authentication: the invite flow,
// listing, patching, and deletion.
type UserService struct {
	users      repository.UserRepository
	tokens     repository.VerificationTokenRepository
	dispatcher events.Dispatcher
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, tokens repository.VerificationTokenRepository, dispatcher events.Dispatcher) *UserService {
	return &UserService{users: users, tokens: tokens, dispatcher: dispatcher}
}

// UserPatch describes partial staff updates. Nil fields are untouched.
type UserPatch struct {
	FirstName *string
	LastName  *string
	Role      *domain.StaffRole
	Status    *domain.UserStatus
}

// IssueVerificationToken mints a one-shot invite token for a future staff
// member. Delivery happens out of band; the notification path renders the
// activation link.
func (s *UserService) IssueVerificationToken(ctx context.Context, targetEmail string, role domain.StaffRole) (*domain.UserVerificationToken, error) {
	if !domain.ValidStaffRole(role) {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if user, err := s.users.GetByEmail(ctx, targetEmail); err == nil && user != nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return nil, apperrors.MapError(err)
	}

	token := &domain.UserVerificationToken{
		Token:       base64.RawURLEncoding.EncodeToString(raw),
		TargetEmail: targetEmail,
		Role:        role,
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type: events.EventUserInvited,
		Payload: events.UserInvitedPayload{
			Email: targetEmail,
			Role:  role,
			Token: token.Token,
		},
	})
	return token, nil
}

// Get returns a staff user by id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// List returns all staff users in insertion order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// Patch applies partial updates to a staff user.
func (s *UserService) Patch(ctx context.Context, id string, patch UserPatch) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Role != nil {
		if !domain.ValidStaffRole(*patch.Role) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *patch.Role})
		}
		user.Role = *patch.Role
	}
	if patch.Status != nil {
		user.Status = *patch.Status
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// Delete removes a staff user. The credential is revoked (account disabled)
// before the record goes away, so a partial failure can never leave a live
// credential without a matching record.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.MapError(err)
	}

	if user.Status != domain.UserStatusDisabled {
		user.Status = domain.UserStatusDisabled
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
	}
	return apperrors.MapError(s.users.Delete(ctx, id))
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
