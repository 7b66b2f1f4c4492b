package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/makerspace-admin/internal/config"
	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/events"
	"github.com/spec-kit/makerspace-admin/internal/observability"
	"github.com/spec-kit/makerspace-admin/internal/persistence"
	"github.com/spec-kit/makerspace-admin/internal/repository"
	apperrors "github.com/spec-kit/makerspace-admin/pkg/util/errorutil"
)

// SessionService drives the kiosk sign-in / sign-out state machine. Session
// state is implicit in the visits table: a visitor is signed in exactly when
// an open visit exists. Timestamps come from the server clock at the moment
// of acknowledgement; kiosks never submit them.
type SessionService struct {
	visitors      repository.VisitorRepository
	visits        repository.VisitRepository
	redis         *redis.Client
	dispatcher    events.Dispatcher
	metrics       *observability.Metrics
	logger        *zap.Logger
	autoProvision bool
	lockTTL       time.Duration
	lockPrefix    string
	now           func() time.Time
}

// SessionDependencies bundles collaborators for the session service.
type SessionDependencies struct {
	VisitorRepo repository.VisitorRepository
	VisitRepo   repository.VisitRepository
	Redis       *redis.Client
	Dispatcher  events.Dispatcher
	Metrics     *observability.Metrics
	Logger      *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(cfg config.Config, deps SessionDependencies) *SessionService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		visitors:      deps.VisitorRepo,
		visits:        deps.VisitRepo,
		redis:         deps.Redis,
		dispatcher:    deps.Dispatcher,
		metrics:       deps.Metrics,
		logger:        logger,
		autoProvision: cfg.Session.AutoProvision,
		lockTTL:       time.Duration(cfg.Session.LockTTLSeconds) * time.Second,
		lockPrefix:    cfg.App.ResourcePrefix(),
		now:           time.Now,
	}
}

// SignInResult reports the outcome of a sign-in.
type SignInResult struct {
	Visit *domain.Visit
	// AutoClosed is set when a previous open visit was closed as part of
	// this sign-in.
	AutoClosed bool
	// Provisioned is set when the visitor record was created inline.
	Provisioned bool
}

// SignOutResult reports the outcome of a sign-out. SignedIn=false with a nil
// Visit is the informational "not signed in" no-op.
type SignOutResult struct {
	SignedIn bool
	Visit    *domain.Visit
}

// SignIn opens a visit for the visitor. A sign-in while already signed in
// auto-closes the open visit first, both stamped with the same server time.
// Concurrent sign-ins for one visitor converge on exactly one open visit.
func (s *SessionService) SignIn(ctx context.Context, hardwareID, kioskID string, machineName *string) (*SignInResult, error) {
	if hardwareID == "" || kioskID == "" {
		return nil, apperrors.NewValidationError("hardware_id and kiosk_id required", nil)
	}

	provisioned := false
	if _, err := s.visitors.GetByHardwareID(ctx, hardwareID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if !s.autoProvision {
			return nil, apperrors.NewUnknownVisitor(hardwareID)
		}
		if _, err := s.visitors.Create(ctx, &domain.Visitor{
			HardwareID:  hardwareID,
			DisplayName: hardwareID,
		}); err != nil {
			return nil, apperrors.MapError(err)
		}
		provisioned = true
	}

	unlock := s.lockVisitor(ctx, hardwareID)
	defer unlock()

	t := s.now().Truncate(time.Millisecond)
	visit := &domain.Visit{
		VisitorID:   hardwareID,
		SignInTime:  t,
		KioskID:     kioskID,
		MachineName: machineName,
	}

	autoClosed := false
	err := s.visits.Append(ctx, visit)
	if errors.Is(err, repository.ErrOpenVisitExists) {
		if _, closeErr := s.visits.CloseOpenVisit(ctx, hardwareID, t); closeErr != nil && !errors.Is(closeErr, pgx.ErrNoRows) {
			return nil, apperrors.MapError(closeErr)
		}
		autoClosed = true
		err = s.visits.Append(ctx, visit)
		if errors.Is(err, repository.ErrOpenVisitExists) {
			// A concurrent sign-in won the race; treat this request as a
			// no-op observing the winner's visit.
			winner, getErr := s.visits.GetOpenVisit(ctx, hardwareID)
			if getErr != nil {
				return nil, apperrors.MapError(getErr)
			}
			return &SignInResult{Visit: winner, Provisioned: provisioned}, nil
		}
	}
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordSession(true)
	s.publish(ctx, events.Event{
		Type: events.EventVisitorSignedIn,
		Payload: events.VisitorSessionPayload{
			HardwareID:  hardwareID,
			KioskID:     kioskID,
			MachineName: machineName,
			AutoClosed:  autoClosed,
		},
	})
	return &SignInResult{Visit: visit, AutoClosed: autoClosed, Provisioned: provisioned}, nil
}

// SignOut closes the visitor's open visit. Signing out while signed out is a
// no-op, so repeated calls are safe.
func (s *SessionService) SignOut(ctx context.Context, hardwareID string) (*SignOutResult, error) {
	if hardwareID == "" {
		return nil, apperrors.NewValidationError("hardware_id required", nil)
	}

	if _, err := s.visitors.GetByHardwareID(ctx, hardwareID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnknownVisitor(hardwareID)
		}
		return nil, apperrors.MapError(err)
	}

	t := s.now().Truncate(time.Millisecond)
	visit, err := s.visits.CloseOpenVisit(ctx, hardwareID, t)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &SignOutResult{SignedIn: false}, nil
		}
		return nil, apperrors.MapError(err)
	}

	s.metrics.RecordSession(false)
	s.publish(ctx, events.Event{
		Type: events.EventVisitorSignedOut,
		Payload: events.VisitorSessionPayload{
			HardwareID: hardwareID,
			KioskID:    visit.KioskID,
		},
	})
	return &SignOutResult{SignedIn: true, Visit: visit}, nil
}

// lockVisitor serializes sign-ins per visitor via an advisory Redis lock.
// The visits table's conditional writes stay authoritative: when Redis is
// down or contended the sign-in proceeds and the unique index arbitrates.
func (s *SessionService) lockVisitor(ctx context.Context, hardwareID string) func() {
	if s.redis == nil {
		return func() {}
	}
	key := s.lockPrefix + ":session:" + hardwareID
	lock, ok, err := persistence.AcquireLock(ctx, s.redis, key, s.lockTTL)
	if err != nil || !ok {
		if err != nil {
			s.logger.Warn("session lock unavailable", zap.Error(err))
		}
		return func() {}
	}
	return func() {
		if err := persistence.ReleaseLock(ctx, s.redis, lock); err != nil {
			s.logger.Warn("session lock release failed", zap.Error(err))
		}
	}
}

func (s *SessionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
