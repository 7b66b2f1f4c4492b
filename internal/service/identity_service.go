package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/auth"
	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// IdentityService authenticates both principal populations and issues
// bearer tokens. Staff and visitor pools remain independent: staff sign-up
// is gated by a one-shot verification token, visitor sign-up is open.
type IdentityService struct {
	users      repository.UserRepository
	visitors   repository.VisitorRepository
	tokens     repository.VerificationTokenRepository
	resets     repository.ResetTokenRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	minPwLen   int
	resetTTL   time.Duration
}

// IdentityDependencies encapsulates repo requirements.
type IdentityDependencies struct {
	UserRepo              repository.UserRepository
	VisitorRepo           repository.VisitorRepository
	VerificationTokenRepo repository.VerificationTokenRepository
	ResetTokenRepo        repository.ResetTokenRepository
}

// NewIdentityService builds the service.
func NewIdentityService(cfg config.Config, deps IdentityDependencies) *IdentityService {
	return &IdentityService{
		users:      deps.UserRepo,
		visitors:   deps.VisitorRepo,
		tokens:     deps.VerificationTokenRepo,
		resets:     deps.ResetTokenRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		minPwLen:   cfg.Auth.MinPasswordLength,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterStaff activates a staff account. The credential is created only if
// the verification token consumes successfully; a token never authorizes two
// registrations.
func (s *IdentityService) RegisterStaff(ctx context.Context, email, password, firstName, lastName, tokenStr string) (*domain.User, string, time.Time, error) {
	if err := auth.ValidatePassword(password, s.minPwLen); err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError(err.Error(), nil)
	}

	token, err := s.tokens.Consume(ctx, tokenStr)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTokenConsumed):
			return nil, "", time.Time{}, apperrors.NewAlreadyConsumed()
		case errors.Is(err, pgx.ErrNoRows):
			return nil, "", time.Time{}, apperrors.NewInvalidToken()
		default:
			return nil, "", time.Time{}, apperrors.MapError(err)
		}
	}
	if token.TargetEmail != email {
		return nil, "", time.Time{}, apperrors.NewInvalidToken()
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
		Role:         token.Role,
		Status:       domain.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", time.Time{}, apperrors.NewConflict("email already registered", nil)
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	bearer, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeStaff, &user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, bearer, exp, nil
}

// LoginStaff authenticates against the staff pool.
func (s *IdentityService) LoginStaff(ctx context.Context, email, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if user.Status != domain.UserStatusActive {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account disabled")
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	bearer, exp, err := s.tokenMgr.GenerateToken(user.ID, domain.SubjectTypeStaff, &user.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, bearer, exp, nil
}

// RegisterVisitorAccount attaches a credential to a visitor record, creating
// the record when necessary. Visitor self-registration is open.
func (s *IdentityService) RegisterVisitorAccount(ctx context.Context, hardwareID, displayName, email, password string) (*domain.Visitor, string, time.Time, error) {
	if err := auth.ValidatePassword(password, s.minPwLen); err != nil {
		return nil, "", time.Time{}, apperrors.NewValidationError(err.Error(), nil)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	var emailPtr *string
	if email != "" {
		emailPtr = &email
	}
	visitor, err := s.visitors.Create(ctx, &domain.Visitor{
		HardwareID:   hardwareID,
		DisplayName:  displayName,
		Email:        emailPtr,
		PasswordHash: &hash,
	})
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if visitor.PasswordHash == nil {
		if err := s.visitors.UpdateCredential(ctx, hardwareID, &hash); err != nil {
			return nil, "", time.Time{}, apperrors.MapError(err)
		}
		visitor.PasswordHash = &hash
	}

	bearer, exp, err := s.tokenMgr.GenerateToken(visitor.HardwareID, domain.SubjectTypeVisitor, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return visitor, bearer, exp, nil
}

// LoginVisitor authenticates against the visitor pool.
func (s *IdentityService) LoginVisitor(ctx context.Context, hardwareID, password string) (*domain.Visitor, string, time.Time, error) {
	visitor, err := s.visitors.GetByHardwareID(ctx, hardwareID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if visitor.PasswordHash == nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	if err := auth.ComparePassword(*visitor.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	bearer, exp, err := s.tokenMgr.GenerateToken(visitor.HardwareID, domain.SubjectTypeVisitor, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return visitor, bearer, exp, nil
}

// RequestPasswordReset persists a reset token for an email in either pool.
// The token itself travels out of band.
func (s *IdentityService) RequestPasswordReset(ctx context.Context, email string) (*repository.ResetToken, error) {
	subjectType := domain.SubjectTypeStaff
	subjectID := ""

	if user, err := s.users.GetByEmail(ctx, email); err == nil {
		subjectID = user.ID
	} else if errors.Is(err, pgx.ErrNoRows) {
		visitor, found := s.findVisitorByEmail(ctx, email)
		if !found {
			return nil, apperrors.NewNotFound("account", nil)
		}
		subjectType = domain.SubjectTypeVisitor
		subjectID = visitor.HardwareID
	} else {
		return nil, apperrors.MapError(err)
	}

	token := &repository.ResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *IdentityService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	if err := auth.ValidatePassword(newPassword, s.minPwLen); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewInvalidToken()
		}
		return apperrors.MapError(err)
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewInvalidToken()
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeStaff:
		user, err := s.users.GetByID(ctx, token.SubjectID)
		if err != nil {
			return apperrors.MapError(err)
		}
		user.PasswordHash = hash
		if err := s.users.Update(ctx, user); err != nil {
			return apperrors.MapError(err)
		}
	case domain.SubjectTypeVisitor:
		if err := s.visitors.UpdateCredential(ctx, token.SubjectID, &hash); err != nil {
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewInvalidToken()
	}

	return s.resets.MarkUsed(ctx, token.ID)
}

// ChangePassword verifies the current password before updating.
func (s *IdentityService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword, s.minPwLen); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	switch subject.Type {
	case domain.SubjectTypeStaff:
		user, err := s.users.GetByID(ctx, subject.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		user.PasswordHash = hash
		return apperrors.MapError(s.users.Update(ctx, user))
	case domain.SubjectTypeVisitor:
		visitor, err := s.visitors.GetByHardwareID(ctx, subject.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if visitor.PasswordHash == nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		if err := auth.ComparePassword(*visitor.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		return apperrors.MapError(s.visitors.UpdateCredential(ctx, subject.ID, &hash))
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *IdentityService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *IdentityService) findVisitorByEmail(ctx context.Context, email string) (*domain.Visitor, bool) {
	visitors, err := s.visitors.List(ctx)
	if err != nil {
		return nil, false
	}
	for i := range visitors {
		if visitors[i].Email != nil && *visitors[i].Email == email {
			return &visitors[i], true
		}
	}
	return nil, false
}
