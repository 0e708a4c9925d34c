package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/config"
	"github.com/deskflow/helpdesk/internal/domain"
	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/platform/mail"
	"github.com/deskflow/helpdesk/internal/platform/storage"
	"github.com/deskflow/helpdesk/internal/repository/memory"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes map[string][]any
}

func (p *recordingPusher) Push(userID string, payload any) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushes == nil {
		p.pushes = map[string][]any{}
	}
	p.pushes[userID] = append(p.pushes[userID], payload)
	return 1
}

func (p *recordingPusher) count(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pushes[userID])
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

type fixture struct {
	ctx           context.Context
	store         *memory.Store
	dispatcher    events.Dispatcher
	clock         *fakeClock
	mailer        *recordingMailer
	pusher        *recordingPusher
	objects       *storage.MemoryStorage
	tickets       *TicketService
	assignment    *AssignmentService
	notifications *NotificationService
	catalog       *CatalogService

	it, facilities *domain.Department
	category       *domain.Category
	admin          *domain.User
	client         *domain.User
	otherClient    *domain.User
	agentIT        *domain.User
	agentIT2       *domain.User
	agentFac       *domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:        context.Background(),
		store:      memory.NewStore(),
		dispatcher: events.NewInMemoryDispatcher(zap.NewNop()),
		clock:      &fakeClock{now: time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)},
		mailer:     &recordingMailer{},
		pusher:     &recordingPusher{},
		objects:    storage.NewMemoryStorage(),
	}
	f.assignment = NewAssignmentService(AssignmentDependencies{
		TicketRepo: f.store.Tickets(),
		UserRepo:   f.store.Users(),
		TxManager:  f.store.TxManager(),
		Dispatcher: f.dispatcher,
	})
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo:     f.store.Tickets(),
		UserRepo:       f.store.Users(),
		DepartmentRepo: f.store.Departments(),
		CategoryRepo:   f.store.Categories(),
		Assignment:     f.assignment,
		TxManager:      f.store.TxManager(),
		Dispatcher:     f.dispatcher,
		ObjectStore:    f.objects,
		Clock:          f.clock.Now,
	})
	f.notifications = NewNotificationService(NotificationDependencies{
		Dispatcher:       f.dispatcher,
		NotificationRepo: f.store.Notifications(),
		UserRepo:         f.store.Users(),
		Pusher:           f.pusher,
		Mailer:           f.mailer,
		Config:           config.NotificationConfig{RealtimeEnabled: true},
	})
	f.notifications.RegisterHandlers()
	f.catalog = NewCatalogService(CatalogDependencies{
		DepartmentRepo: f.store.Departments(),
		CategoryRepo:   f.store.Categories(),
		SolutionRepo:   f.store.Solutions(),
		TxManager:      f.store.TxManager(),
	})

	var err error
	f.it, err = f.catalog.CreateDepartment(f.ctx, DepartmentInput{Name: "Informatique"})
	require.NoError(t, err)
	f.facilities, err = f.catalog.CreateDepartment(f.ctx, DepartmentInput{Name: "Services généraux"})
	require.NoError(t, err)
	f.category, err = f.catalog.CreateCategory(f.ctx, CategoryInput{
		Name:         "Informatique",
		DepartmentID: &f.it.ID,
		Keywords:     []string{"wifi", "internet"},
	})
	require.NoError(t, err)

	f.admin = f.addUser(t, "admin", domain.RoleAdmin, nil)
	f.client = f.addUser(t, "client", domain.RoleClient, nil)
	f.otherClient = f.addUser(t, "other", domain.RoleClient, nil)
	f.agentIT = f.addUser(t, "agent-it", domain.RoleAgent, &f.it.ID)
	f.agentIT2 = f.addUser(t, "agent-it-2", domain.RoleAgent, &f.it.ID)
	f.agentFac = f.addUser(t, "agent-fac", domain.RoleAgent, &f.facilities.ID)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role domain.Role, dept *string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: role, DepartmentID: dept}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := f.store.Users().GetByID(f.ctx, id)
	require.NoError(t, err)
	return u
}

func (f *fixture) bump(t *testing.T, u *domain.User, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, f.store.Users().IncrementTicketCount(f.ctx, u.ID))
	}
}

func (f *fixture) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.tickets.CreateTicket(f.ctx, f.client.Actor(), TicketCreateInput{
		Title:        "Wifi en panne",
		Description:  "Le wifi du bureau ne fonctionne plus",
		DepartmentID: f.it.ID,
		CategoryID:   f.category.ID,
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) reload(t *testing.T, id string) *domain.Ticket {
	t.Helper()
	ticket, err := f.store.Tickets().GetByID(f.ctx, id)
	require.NoError(t, err)
	return ticket
}

var errMailDown = errors.New("smtp unavailable")
