package app_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neomorfeo/fabflow/internal/adapter/fsm"
	"github.com/neomorfeo/fabflow/internal/app"
	"github.com/neomorfeo/fabflow/internal/domain"
)

// --- Mocks ---

type mockProfiles struct {
	byUser map[int64]domain.Profile
}

func (m *mockProfiles) GetByUserID(_ context.Context, userID int64) (domain.Profile, error) {
	p, ok := m.byUser[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfiles) GetByID(_ context.Context, id int64) (domain.Profile, error) {
	for _, p := range m.byUser {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Profile{}, domain.ErrProfileNotFound
}

type mockPlatforms struct {
	platforms []domain.Platform
}

func (m *mockPlatforms) GetByCode(_ context.Context, code string) (domain.Platform, error) {
	for _, p := range m.platforms {
		if p.Code == code {
			return p, nil
		}
	}
	return domain.Platform{}, domain.ErrPlatformNotFound
}

func (m *mockPlatforms) ForCompany(_ context.Context, company string) (domain.Platform, error) {
	for _, p := range m.platforms {
		if p.CompanyName == company {
			return p, nil
		}
	}
	return domain.Platform{}, domain.ErrPlatformNotFound
}

type mockOrders struct {
	mu       sync.Mutex
	orders   map[int64]domain.Order
	nextID   int64
	profiles *mockProfiles
	updates  int
	// conflict makes every Update lose the optimistic race.
	conflict bool
}

func newMockOrders(profiles *mockProfiles) *mockOrders {
	return &mockOrders{orders: make(map[int64]domain.Order), nextID: 1, profiles: profiles}
}

func (m *mockOrders) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o.ID = m.nextID
	m.nextID++
	o.Number, _ = domain.FormatOrderNumber(o.CreatedAt, int(o.ID))
	m.orders[o.ID] = o
	return o, nil
}

func (m *mockOrders) GetByID(_ context.Context, id int64) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (m *mockOrders) List(ctx context.Context, f domain.ListFilter) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		if f.CreatorID != 0 && o.CreatorID != f.CreatorID {
			continue
		}
		if f.PlatformCode != "" && o.PlatformCode != f.PlatformCode && !m.placedBy(ctx, o, f.OrCreatorCompany) {
			continue
		}
		if f.CreatorCompany != "" {
			creator, err := m.profiles.GetByID(ctx, o.CreatorID)
			if err != nil || creator.CompanyName != f.CreatorCompany {
				continue
			}
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockOrders) placedBy(ctx context.Context, o domain.Order, company string) bool {
	if company == "" {
		return false
	}
	creator, err := m.profiles.GetByID(ctx, o.CreatorID)
	return err == nil && creator.CompanyName == company
}

func (m *mockOrders) Update(_ context.Context, o domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.orders[o.ID]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if m.conflict || stored.Version != o.Version {
		return domain.Order{}, domain.ErrConcurrentUpdate
	}
	o.Version++
	m.orders[o.ID] = o
	m.updates++
	return o, nil
}

func (m *mockOrders) stored(t *testing.T, id int64) domain.Order {
	t.Helper()
	o, err := m.GetByID(context.Background(), id)
	require.NoError(t, err, "order %d not stored", id)
	return o
}

type mockNotifier struct {
	mu     sync.Mutex
	events []domain.StatusChanged
	err    error
}

func (m *mockNotifier) OnStatusChanged(_ context.Context, e domain.StatusChanged) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

func (m *mockNotifier) received() []domain.StatusChanged {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.StatusChanged(nil), m.events...)
}

type mockMessages struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (m *mockMessages) AppendMessage(_ context.Context, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockMessages) ListMessages(_ context.Context, orderID int64) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Message{}
	for _, msg := range m.msgs {
		if msg.OrderID == orderID {
			out = append(out, msg)
		}
	}
	return out, nil
}

// --- Fixture ---

// User ids of the seeded actors.
const (
	userCustomer   int64 = 1
	userCurator    int64 = 2
	userExecutor   int64 = 3
	userOtherFab   int64 = 4
	userStranger   int64 = 5
	userPeer       int64 = 6
	userNoPlatform int64 = 7
	userInHouse    int64 = 8
	userUnknown    int64 = 99
)

const creatorProfileID int64 = 11

type fixture struct {
	engine   *app.WorkflowEngine
	orders   *app.OrderService
	repo     *mockOrders
	notifier *mockNotifier
	messages *mockMessages
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newFixture() *fixture {
	profiles := &mockProfiles{byUser: map[int64]domain.Profile{
		userCustomer:   {ID: creatorProfileID, UserID: userCustomer, Role: domain.RoleCustomer, CompanyName: "Acme"},
		userCurator:    {ID: 12, UserID: userCurator, Role: domain.RoleCurator, CompanyName: "Center"},
		userExecutor:   {ID: 13, UserID: userExecutor, Role: domain.RoleExecutor, CompanyName: "MicroTech"},
		userOtherFab:   {ID: 14, UserID: userOtherFab, Role: domain.RoleExecutor, CompanyName: "KI Fab"},
		userStranger:   {ID: 15, UserID: userStranger, Role: domain.RoleCustomer, CompanyName: "Globex"},
		userPeer:       {ID: 16, UserID: userPeer, Role: domain.RoleCustomer, CompanyName: "Acme"},
		userNoPlatform: {ID: 17, UserID: userNoPlatform, Role: domain.RoleExecutor, CompanyName: "Garage"},
		userInHouse:    {ID: 18, UserID: userInHouse, Role: domain.RoleExecutor, CompanyName: "Acme"},
	}}
	platforms := &mockPlatforms{platforms: []domain.Platform{
		{Code: "MT", CompanyName: "MicroTech"},
		{Code: "KI", CompanyName: "KI Fab"},
	}}
	repo := newMockOrders(profiles)
	notifier := &mockNotifier{}
	messages := &mockMessages{}

	return &fixture{
		engine:   app.NewWorkflowEngine(repo, profiles, platforms, fsm.New(), notifier, discardLogger()),
		orders:   app.NewOrderService(repo, profiles, platforms, messages),
		repo:     repo,
		notifier: notifier,
		messages: messages,
	}
}

// seed stores an order placed by userCustomer at platform MT in status.
func (f *fixture) seed(status domain.Status, mutate ...func(*domain.Order)) domain.Order {
	o := domain.NewOrder(creatorProfileID, "MT", "mask")
	o.Status = status
	for _, fn := range mutate {
		fn(&o)
	}
	created, _ := f.repo.Create(context.Background(), o)
	return created
}

func withFile(kind domain.AttachmentKind) func(*domain.Order) {
	return func(o *domain.Order) { o.Attachments = o.Attachments.With(kind, true) }
}

func isAccessDenied(err error, reason domain.DenialReason) bool {
	var denied *domain.AccessDeniedError
	return errors.As(err, &denied) && denied.Reason == reason
}
