package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/makerspace-admin/internal/domain"
	"github.com/spec-kit/makerspace-admin/internal/repository"
)

// In-memory repository fakes mirroring the conditional-write semantics of
// the Postgres implementations.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]domain.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		result = append(result, user)
	}
	return result, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

type fakeVisitorRepo struct {
	mu       sync.Mutex
	visitors map[string]domain.Visitor
}

func newFakeVisitorRepo() *fakeVisitorRepo {
	return &fakeVisitorRepo{visitors: map[string]domain.Visitor{}}
}

func (r *fakeVisitorRepo) Create(_ context.Context, visitor *domain.Visitor) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.visitors[visitor.HardwareID]; ok {
		v := existing
		return &v, nil
	}
	visitor.RegisteredAt = time.Now()
	r.visitors[visitor.HardwareID] = *visitor
	v := *visitor
	return &v, nil
}

func (r *fakeVisitorRepo) GetByHardwareID(_ context.Context, hardwareID string) (*domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	visitor, ok := r.visitors[hardwareID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &visitor, nil
}

func (r *fakeVisitorRepo) List(_ context.Context) ([]domain.Visitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Visitor, 0, len(r.visitors))
	for _, visitor := range r.visitors {
		result = append(result, visitor)
	}
	return result, nil
}

func (r *fakeVisitorRepo) UpdateCredential(_ context.Context, hardwareID string, passwordHash *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	visitor, ok := r.visitors[hardwareID]
	if !ok {
		return pgx.ErrNoRows
	}
	visitor.PasswordHash = passwordHash
	r.visitors[hardwareID] = visitor
	return nil
}

type fakeVisitRepo struct {
	mu     sync.Mutex
	visits []domain.Visit
}

func newFakeVisitRepo() *fakeVisitRepo {
	return &fakeVisitRepo{}
}

func (r *fakeVisitRepo) Append(_ context.Context, visit *domain.Visit) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.visits {
		if r.visits[i].VisitorID == visit.VisitorID && r.visits[i].SignOutTime == nil {
			return repository.ErrOpenVisitExists
		}
	}
	r.visits = append(r.visits, *visit)
	return nil
}

func (r *fakeVisitRepo) CloseOpenVisit(_ context.Context, visitorID string, signOutTime time.Time) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.visits {
		if r.visits[i].VisitorID == visitorID && r.visits[i].SignOutTime == nil {
			t := signOutTime
			r.visits[i].SignOutTime = &t
			v := r.visits[i]
			return &v, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVisitRepo) GetOpenVisit(_ context.Context, visitorID string) (*domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.visits {
		if r.visits[i].VisitorID == visitorID && r.visits[i].SignOutTime == nil {
			v := r.visits[i]
			return &v, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeVisitRepo) ListForVisitor(_ context.Context, visitorID string, window repository.VisitWindow) ([]domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Visit
	for _, visit := range r.visits {
		if visit.VisitorID == visitorID && inWindow(visit, window) {
			result = append(result, visit)
		}
	}
	return result, nil
}

func (r *fakeVisitRepo) ListAll(_ context.Context, window repository.VisitWindow) ([]domain.Visit, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Visit
	for _, visit := range r.visits {
		if inWindow(visit, window) {
			result = append(result, visit)
		}
	}
	return result, nil
}

func (r *fakeVisitRepo) DeleteForVisitor(_ context.Context, visitorID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.visits[:0]
	for _, visit := range r.visits {
		if visit.VisitorID != visitorID {
			kept = append(kept, visit)
		}
	}
	r.visits = kept
	return nil
}

func inWindow(visit domain.Visit, window repository.VisitWindow) bool {
	if window.Since != nil && visit.SignInTime.Before(*window.Since) {
		return false
	}
	if window.Until != nil && visit.SignInTime.After(*window.Until) {
		return false
	}
	return true
}

type fakeMachineRepo struct {
	mu       sync.Mutex
	machines map[string]domain.Machine
	tasks    *fakeTaskRepo
}

func newFakeMachineRepo(tasks *fakeTaskRepo) *fakeMachineRepo {
	return &fakeMachineRepo{machines: map[string]domain.Machine{}, tasks: tasks}
}

func (r *fakeMachineRepo) Create(_ context.Context, machine *domain.Machine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[machine.Name]; ok {
		return repository.ErrDuplicate
	}
	machine.AddedAt = time.Now()
	r.machines[machine.Name] = *machine
	return nil
}

func (r *fakeMachineRepo) GetByName(_ context.Context, name string) (*domain.Machine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	machine, ok := r.machines[name]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &machine, nil
}

func (r *fakeMachineRepo) ListWithStatus(_ context.Context) ([]domain.MachineWithStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.MachineWithStatus, 0, len(r.machines))
	for _, machine := range r.machines {
		open := r.openTaskCount(machine.Name)
		status := domain.MachineStatusOK
		if open > 0 {
			status = domain.MachineStatusAttention
		}
		result = append(result, domain.MachineWithStatus{Machine: machine, Status: status, OpenTasks: open})
	}
	return result, nil
}

func (r *fakeMachineRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.machines[name]; !ok {
		return pgx.ErrNoRows
	}
	if r.openTaskCount(name) > 0 {
		return repository.ErrMachineInUse
	}
	delete(r.machines, name)
	return nil
}

func (r *fakeMachineRepo) openTaskCount(name string) int {
	if r.tasks == nil {
		return 0
	}
	r.tasks.mu.Lock()
	defer r.tasks.mu.Unlock()
	count := 0
	for _, task := range r.tasks.tasks {
		if task.MachineName == name && task.State != domain.TaskStateResolved {
			count++
		}
	}
	return count
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks []domain.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{}
}

func (r *fakeTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks = append(r.tasks, *task)
	return nil
}

func (r *fakeTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == task.ID {
			task.UpdatedAt = time.Now()
			r.tasks[i] = *task
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTaskRepo) GetByID(_ context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			task := r.tasks[i]
			return &task, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTaskRepo) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Task
	for _, task := range r.tasks {
		if filter.MachineName != nil && task.MachineName != *filter.MachineName {
			continue
		}
		if filter.AssigneeID != nil && (task.AssigneeID == nil || *task.AssigneeID != *filter.AssigneeID) {
			continue
		}
		if len(filter.States) > 0 && !containsState(filter.States, task.State) {
			continue
		}
		if len(filter.Severities) > 0 && !containsSeverity(filter.Severities, task.Severity) {
			continue
		}
		result = append(result, task)
	}
	return result, nil
}

func (r *fakeTaskRepo) Resolve(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.tasks {
		if r.tasks[i].ID == task.ID {
			if r.tasks[i].State == domain.TaskStateResolved {
				return pgx.ErrNoRows
			}
			r.tasks[i].State = domain.TaskStateResolved
			r.tasks[i].ResolvedAt = task.ResolvedAt
			r.tasks[i].ResolvedBy = task.ResolvedBy
			task.State = domain.TaskStateResolved
			return nil
		}
	}
	return pgx.ErrNoRows
}

func containsState(states []domain.TaskState, state domain.TaskState) bool {
	for _, s := range states {
		if s == state {
			return true
		}
	}
	return false
}

func containsSeverity(severities []domain.TaskSeverity, severity domain.TaskSeverity) bool {
	for _, s := range severities {
		if s == severity {
			return true
		}
	}
	return false
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TaskHistory
}

func newFakeHistoryRepo() *fakeHistoryRepo {
	return &fakeHistoryRepo{}
}

func (r *fakeHistoryRepo) Create(_ context.Context, entry *domain.TaskHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.CreatedAt = time.Now()
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *fakeHistoryRepo) ListByTask(_ context.Context, taskID string) ([]domain.TaskHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TaskHistory
	for _, entry := range r.entries {
		if entry.TaskID == taskID {
			result = append(result, entry)
		}
	}
	return result, nil
}

type fakeVerificationTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]domain.UserVerificationToken
}

func newFakeVerificationTokenRepo() *fakeVerificationTokenRepo {
	return &fakeVerificationTokenRepo{tokens: map[string]domain.UserVerificationToken{}}
}

func (r *fakeVerificationTokenRepo) Create(_ context.Context, token *domain.UserVerificationToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	token.IssuedAt = time.Now()
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeVerificationTokenRepo) Consume(_ context.Context, tokenStr string) (*domain.UserVerificationToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if token.Consumed {
		return nil, repository.ErrTokenConsumed
	}
	now := time.Now()
	token.Consumed = true
	token.ConsumedAt = &now
	r.tokens[tokenStr] = token
	return &token, nil
}

type fakeResetTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]repository.ResetToken
	nextID int
}

func newFakeResetTokenRepo() *fakeResetTokenRepo {
	return &fakeResetTokenRepo{tokens: map[string]repository.ResetToken{}}
}

func (r *fakeResetTokenRepo) Create(_ context.Context, token *repository.ResetToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = time.Now().Format("20060102150405.000000000")
	token.CreatedAt = time.Now()
	r.tokens[token.Token] = *token
	return nil
}

func (r *fakeResetTokenRepo) GetByToken(_ context.Context, tokenStr string) (*repository.ResetToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, ok := r.tokens[tokenStr]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &token, nil
}

func (r *fakeResetTokenRepo) MarkUsed(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, token := range r.tokens {
		if token.ID == id {
			now := time.Now()
			token.UsedAt = &now
			r.tokens[key] = token
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeKioskRepo struct {
	mu     sync.Mutex
	kiosks map[string]domain.Kiosk
}

func newFakeKioskRepo() *fakeKioskRepo {
	return &fakeKioskRepo{kiosks: map[string]domain.Kiosk{}}
}

func (r *fakeKioskRepo) Upsert(_ context.Context, kiosk *domain.Kiosk) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kiosk.EnrolledAt = time.Now()
	kiosk.Active = true
	r.kiosks[kiosk.DeviceID] = *kiosk
	return nil
}

func (r *fakeKioskRepo) GetByDeviceID(_ context.Context, deviceID string) (*domain.Kiosk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kiosk, ok := r.kiosks[deviceID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &kiosk, nil
}

func (r *fakeKioskRepo) List(_ context.Context) ([]domain.Kiosk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]domain.Kiosk, 0, len(r.kiosks))
	for _, kiosk := range r.kiosks {
		result = append(result, kiosk)
	}
	return result, nil
}

func (r *fakeKioskRepo) Deactivate(_ context.Context, deviceID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kiosk, ok := r.kiosks[deviceID]
	if !ok {
		return pgx.ErrNoRows
	}
	kiosk.Active = false
	r.kiosks[deviceID] = kiosk
	return nil
}
