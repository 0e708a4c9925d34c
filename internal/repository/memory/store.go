// Package memory provides in-process repository implementations used for
// local runs without Postgres and as test doubles.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/repository"
)

// Store holds every entity in maps guarded by one mutex.
type Store struct {
	mu            sync.Mutex
	users         map[string]domain.User
	userOrder     []string
	departments   map[string]domain.Department
	categories    map[string]domain.Category
	categoryOrder []string
	solutions     map[string]domain.Solution
	solutionOrder []string
	tickets       map[string]domain.Ticket
	ticketOrder   []string
	notifications []domain.Notification
	availability  map[string]domain.AvailabilitySlot
	now           func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:        map[string]domain.User{},
		departments:  map[string]domain.Department{},
		categories:   map[string]domain.Category{},
		solutions:    map[string]domain.Solution{},
		tickets:      map[string]domain.Ticket{},
		availability: map[string]domain.AvailabilitySlot{},
		now:          time.Now,
	}
}

// Users returns a UserRepository view.
func (s *Store) Users() repository.UserRepository { return userRepo{s} }

// Departments returns a DepartmentRepository view.
func (s *Store) Departments() repository.DepartmentRepository { return departmentRepo{s} }

// Categories returns a CategoryRepository view.
func (s *Store) Categories() repository.CategoryRepository { return categoryRepo{s} }

// Solutions returns a SolutionRepository view.
func (s *Store) Solutions() repository.SolutionRepository { return solutionRepo{s} }

// Tickets returns a TicketRepository view.
func (s *Store) Tickets() repository.TicketRepository { return ticketRepo{s} }

// Notifications returns a NotificationRepository view.
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }

// Availability returns an AvailabilityRepository view.
func (s *Store) Availability() repository.AvailabilityRepository { return availabilityRepo{s} }

// Stats returns a StatsRepository computed over the stored tickets.
func (s *Store) Stats() repository.StatsRepository { return statsRepo{s} }

// TxManager runs fn as a unit of work. Writes made with the context passed to
// fn are undone when fn fails; AfterCommit hooks run when it succeeds. There
// is no isolation: other callers see writes before fn returns.
func (s *Store) TxManager() repository.TxManager { return txManager{s} }

type txManager struct{ s *Store }

type undoKey struct{}

type undoLog struct {
	fns []func()
}

func (m txManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(undoKey{}).(*undoLog); ok {
		return fn(ctx)
	}
	log := &undoLog{}
	txCtx, runHooks := repository.WithAfterCommit(context.WithValue(ctx, undoKey{}, log))
	if err := fn(txCtx); err != nil {
		m.s.mu.Lock()
		for i := len(log.fns) - 1; i >= 0; i-- {
			log.fns[i]()
		}
		m.s.mu.Unlock()
		return err
	}
	runHooks(context.WithoutCancel(ctx))
	return nil
}

// remember records the current value of m[key] so a failing unit of work
// bound to ctx can restore it. Callers hold s.mu.
func remember[K comparable, V any](ctx context.Context, m map[K]V, key K) {
	log, ok := ctx.Value(undoKey{}).(*undoLog)
	if !ok {
		return
	}
	prev, existed := m[key]
	log.fns = append(log.fns, func() {
		if existed {
			m[key] = prev
		} else {
			delete(m, key)
		}
	})
}

// users

type userRepo struct{ s *Store }

func (r userRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return errDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.s.now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	stored.Profile.Skills = append([]string(nil), user.Profile.Skills...)
	remember(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = stored
	r.s.userOrder = append(r.s.userOrder, user.ID)
	return nil
}

func (r userRepo) Update(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	updated := *user
	updated.Profile.Skills = append([]string(nil), user.Profile.Skills...)
	updated.Email = strings.ToLower(updated.Email)
	updated.TicketCount = current.TicketCount
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = r.s.now()
	remember(ctx, r.s.users, user.ID)
	r.s.users[user.ID] = updated
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range r.s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) List(_ context.Context, filter repository.UserFilter) ([]domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.User
	for _, u := range r.s.orderedUsers() {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.DepartmentID != nil && (u.DepartmentID == nil || *u.DepartmentID != *filter.DepartmentID) {
			continue
		}
		if filter.Search != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.Search))
			if !strings.Contains(strings.ToLower(u.Name), term) && !strings.Contains(u.Email, term) {
				continue
			}
		}
		out = append(out, u)
	}
	return page(out, filter.Limit, filter.Offset), nil
}

func (r userRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, t := range r.s.tickets {
		if t.RequesterID == id {
			return errReferenced
		}
	}
	for tid, t := range r.s.tickets {
		if t.IsAssignedTo(id) {
			remember(ctx, r.s.tickets, tid)
			t.AssignedAgentID = nil
			r.s.tickets[tid] = t
		}
	}
	for sid, slot := range r.s.availability {
		if slot.UserID == id {
			remember(ctx, r.s.availability, sid)
			delete(r.s.availability, sid)
		}
	}
	remember(ctx, r.s.users, id)
	delete(r.s.users, id)
	return nil
}

// page applies LIMIT/OFFSET with the Postgres defaults.
func page[T any](items []T, limit, offset int) []T {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (r userRepo) ClaimLeastLoadedAgent(ctx context.Context, departmentID string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.orderedUsers() {
		if !u.IsAgentOf(departmentID) {
			continue
		}
		u.TicketCount++
		u.UpdatedAt = r.s.now()
		remember(ctx, r.s.users, u.ID)
		r.s.users[u.ID] = u
		return &u, nil
	}
	return nil, pgx.ErrNoRows
}

func (r userRepo) IncrementTicketCount(ctx context.Context, agentID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[agentID]
	if !ok || u.Role != domain.RoleAgent {
		return pgx.ErrNoRows
	}
	u.TicketCount++
	remember(ctx, r.s.users, agentID)
	r.s.users[agentID] = u
	return nil
}

// orderedUsers sorts by load then creation, matching the Postgres query.
func (s *Store) orderedUsers() []domain.User {
	out := make([]domain.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		if u, ok := s.users[id]; ok {
			out = append(out, u)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TicketCount < out[j].TicketCount
	})
	return out
}

// departments

type departmentRepo struct{ s *Store }

func (r departmentRepo) Create(ctx context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dept.ID = uuid.NewString()
	dept.CreatedAt = r.s.now()
	dept.UpdatedAt = dept.CreatedAt
	remember(ctx, r.s.departments, dept.ID)
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r departmentRepo) Update(ctx context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.departments[dept.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	dept.CreatedAt = current.CreatedAt
	dept.UpdatedAt = r.s.now()
	remember(ctx, r.s.departments, dept.ID)
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r departmentRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[id]; !ok {
		return pgx.ErrNoRows
	}
	remember(ctx, r.s.departments, id)
	delete(r.s.departments, id)
	return nil
}

func (r departmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (r departmentRepo) List(_ context.Context) ([]domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]domain.Department, 0, len(r.s.departments))
	for _, d := range r.s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// categories

type categoryRepo struct{ s *Store }

func (r categoryRepo) Create(ctx context.Context, cat *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, cat.Name) {
			return errDuplicate
		}
	}
	cat.ID = uuid.NewString()
	cat.CreatedAt = r.s.now()
	cat.UpdatedAt = cat.CreatedAt
	remember(ctx, r.s.categories, cat.ID)
	r.s.categories[cat.ID] = cloneCategory(*cat)
	r.s.categoryOrder = append(r.s.categoryOrder, cat.ID)
	return nil
}

func (r categoryRepo) Update(ctx context.Context, cat *domain.Category) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.categories[cat.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	for id, c := range r.s.categories {
		if id != cat.ID && strings.EqualFold(c.Name, cat.Name) {
			return errDuplicate
		}
	}
	cat.CreatedAt = current.CreatedAt
	cat.UpdatedAt = r.s.now()
	remember(ctx, r.s.categories, cat.ID)
	r.s.categories[cat.ID] = cloneCategory(*cat)
	return nil
}

func (r categoryRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.categories[id]; !ok {
		return pgx.ErrNoRows
	}
	remember(ctx, r.s.categories, id)
	delete(r.s.categories, id)
	for sid, sol := range r.s.solutions {
		if sol.CategoryID == id {
			remember(ctx, r.s.solutions, sid)
			delete(r.s.solutions, sid)
		}
	}
	return nil
}

func (r categoryRepo) GetByID(_ context.Context, id string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.categories[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c = cloneCategory(c)
	return &c, nil
}

func (r categoryRepo) GetByName(_ context.Context, name string) (*domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if strings.EqualFold(c.Name, name) {
			c = cloneCategory(c)
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r categoryRepo) List(_ context.Context) ([]domain.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Category
	for _, id := range r.s.categoryOrder {
		if c, ok := r.s.categories[id]; ok {
			out = append(out, cloneCategory(c))
		}
	}
	return out, nil
}

func (r categoryRepo) ListByDepartment(ctx context.Context, departmentID string) ([]domain.Category, error) {
	all, _ := r.List(ctx)
	var out []domain.Category
	for _, c := range all {
		if c.DepartmentID != nil && *c.DepartmentID == departmentID {
			out = append(out, c)
		}
	}
	return out, nil
}

func cloneCategory(c domain.Category) domain.Category {
	c.Keywords = append([]string(nil), c.Keywords...)
	return c
}

// solutions

type solutionRepo struct{ s *Store }

func (r solutionRepo) Create(ctx context.Context, sol *domain.Solution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sol.ID = uuid.NewString()
	sol.CreatedAt = r.s.now()
	sol.UpdatedAt = sol.CreatedAt
	c := *sol
	c.Keywords = append([]string(nil), sol.Keywords...)
	remember(ctx, r.s.solutions, sol.ID)
	r.s.solutions[sol.ID] = c
	r.s.solutionOrder = append(r.s.solutionOrder, sol.ID)
	return nil
}

func (r solutionRepo) Update(ctx context.Context, sol *domain.Solution) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.solutions[sol.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	sol.CreatedAt = current.CreatedAt
	sol.UpdatedAt = r.s.now()
	c := *sol
	c.Keywords = append([]string(nil), sol.Keywords...)
	remember(ctx, r.s.solutions, sol.ID)
	r.s.solutions[sol.ID] = c
	return nil
}

func (r solutionRepo) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.solutions[id]; !ok {
		return pgx.ErrNoRows
	}
	remember(ctx, r.s.solutions, id)
	delete(r.s.solutions, id)
	return nil
}

func (r solutionRepo) GetByID(_ context.Context, id string) (*domain.Solution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sol, ok := r.s.solutions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	sol.Keywords = append([]string(nil), sol.Keywords...)
	return &sol, nil
}

func (r solutionRepo) ListByCategory(_ context.Context, categoryID string) ([]domain.Solution, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []domain.Solution
	for _, id := range r.s.solutionOrder {
		sol, ok := r.s.solutions[id]
		if !ok || sol.CategoryID != categoryID {
			continue
		}
		sol.Keywords = append([]string(nil), sol.Keywords...)
		out = append(out, sol)
	}
	return out, nil
}
