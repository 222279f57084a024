package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

func TestMain(m *testing.M) {
	passwordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type stubTokens struct{}

func (stubTokens) Issue(u *model.User) (string, error) {
	return "token-" + u.ID, nil
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	orders []model.Order
}

func (b *recordingBroadcaster) OrderChanged(_ context.Context, o *model.Order) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.orders = append(b.orders, *o)
}

func (b *recordingBroadcaster) statuses() []model.OrderStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	res := make([]model.OrderStatus, 0, len(b.orders))
	for _, o := range b.orders {
		res = append(res, o.Status)
	}
	return res
}

type fixture struct {
	svc  *Service
	repo *repository.MemoryRepository
	bc   *recordingBroadcaster
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := repository.NewMemoryRepository()
	bc := &recordingBroadcaster{}
	return &fixture{
		svc:  NewService(repo, stubTokens{}, bc, nil, nil),
		repo: repo,
		bc:   bc,
	}
}

func (f *fixture) register(t *testing.T, name, email string, role model.Role) *model.User {
	t.Helper()
	res, err := f.svc.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: "secret123",
		Role:     role,
	})
	require.NoError(t, err)
	return res.User
}

func (f *fixture) beverage(t *testing.T, name, price string, available bool) *model.Beverage {
	t.Helper()
	b, err := f.svc.CreateBeverage(context.Background(), BeverageInput{
		Name:      name,
		NameAr:    name + " ar",
		Category:  model.CategoryHotDrinks,
		Price:     decimal.RequireFromString(price),
		Available: &available,
	})
	require.NoError(t, err)
	return b
}

func TestOrderLifecycle_Scenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sarah, err := f.svc.Register(ctx, RegisterInput{Name: "Sarah", Email: "sarah@x.com", Password: "sarah123"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleEmployee, sarah.User.Role)
	assert.Equal(t, defaultQuota, sarah.User.Quota)
	assert.NotEmpty(t, sarah.Token)

	login, err := f.svc.Login(ctx, "sarah@x.com", "sarah123")
	require.NoError(t, err)
	assert.Equal(t, sarah.User.ID, login.User.ID)

	worker := f.register(t, "Worker", "worker@x.com", model.RoleWorker)
	a := f.beverage(t, "Espresso", "3.50", true)
	b := f.beverage(t, "Cappuccino", "4.50", true)

	order, err := f.svc.CreateOrder(ctx, sarah.User.ID, CreateOrderInput{
		Items: []OrderItemInput{{BeverageID: a.ID, Quantity: 2}, {BeverageID: b.ID, Quantity: 1}},
		Notes: "no sugar",
	})
	require.NoError(t, err)
	assert.True(t, order.TotalPrice.Equal(decimal.RequireFromString("11.50")), "total = %s", order.TotalPrice)
	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, "Sarah", order.EmployeeName)
	assert.Nil(t, order.CompletedDate)

	for _, next := range []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusReady} {
		order, err = f.svc.UpdateStatus(ctx, order.ID, next, worker.ID)
		require.NoError(t, err)
		assert.Nil(t, order.CompletedDate, "completion stamped at %s", next)
	}
	assert.Equal(t, worker.ID, order.WorkerID)
	assert.Equal(t, "Worker", order.WorkerName)

	order, err = f.svc.UpdateStatus(ctx, order.ID, model.OrderStatusDelivered, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, order.CompletedDate)

	_, err = f.svc.CancelOrder(ctx, order.ID, sarah.User.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	assert.Equal(t, []model.OrderStatus{
		model.OrderStatusPending,
		model.OrderStatusPreparing,
		model.OrderStatusReady,
		model.OrderStatusDelivered,
	}, f.bc.statuses())

	espresso, err := f.svc.GetBeverage(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, espresso.TotalOrders)

	notes, err := f.svc.ListNotifications(ctx, sarah.User.ID, model.PageRequest{Page: 0, Size: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 3, notes.TotalElements)
	assert.Equal(t, model.NotificationTypeOrderStatus, notes.Content[0].Type)
	assert.Equal(t, order.ID, notes.Content[0].Data["orderId"])
}

func TestCreateOrder_SnapshotSurvivesCatalogEdit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Latte", "4.00", true)

	order, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: 3}}})
	require.NoError(t, err)

	_, err = f.svc.UpdateBeverage(ctx, bev.ID, BeverageInput{
		Name:     "Latte Grande",
		NameAr:   "لاتيه",
		Category: model.CategoryHotDrinks,
		Price:    decimal.RequireFromString("9.99"),
	})
	require.NoError(t, err)

	stored, err := f.svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Latte", stored.Items[0].BeverageName)
	assert.True(t, stored.Items[0].Price.Equal(decimal.RequireFromString("4.00")))
	assert.True(t, stored.TotalPrice.Equal(decimal.RequireFromString("12.00")))
}

func TestCreateOrder_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	available := f.beverage(t, "Tea", "2.50", true)
	unavailable := f.beverage(t, "Seasonal", "7.00", false)

	tests := []struct {
		name       string
		employeeID string
		in         CreateOrderInput
		wantErr    error
	}{
		{
			name:       "empty order",
			employeeID: emp.ID,
			in:         CreateOrderInput{},
			wantErr:    ErrEmptyOrder,
		},
		{
			name:       "unavailable beverage",
			employeeID: emp.ID,
			in: CreateOrderInput{Items: []OrderItemInput{
				{BeverageID: available.ID, Quantity: 1},
				{BeverageID: unavailable.ID, Quantity: 1},
			}},
			wantErr: ErrBeverageUnavailable,
		},
		{
			name:       "unknown beverage",
			employeeID: emp.ID,
			in:         CreateOrderInput{Items: []OrderItemInput{{BeverageID: "missing", Quantity: 1}}},
			wantErr:    ErrBeverageNotFound,
		},
		{
			name:       "unknown employee",
			employeeID: "ghost",
			in:         CreateOrderInput{Items: []OrderItemInput{{BeverageID: available.ID, Quantity: 1}}},
			wantErr:    ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateOrder(ctx, tt.employeeID, tt.in)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: available.ID, Quantity: 0}}})
		var verr *validation.Error
		assert.True(t, errors.As(err, &verr))
	})

	page, err := f.svc.ListOrders(ctx, "", model.PageRequest{Page: 0, Size: 20})
	require.NoError(t, err)
	assert.Zero(t, page.TotalElements, "no order must be persisted")
	assert.Empty(t, f.bc.statuses())
}

func TestUpdateStatus_Transitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Tea", "2.50", true)

	newOrderIn := func(t *testing.T, status model.OrderStatus) *model.Order {
		t.Helper()
		o, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: 1}}})
		require.NoError(t, err)
		path := map[model.OrderStatus][]model.OrderStatus{
			model.OrderStatusPending:   nil,
			model.OrderStatusPreparing: {model.OrderStatusPreparing},
			model.OrderStatusReady:     {model.OrderStatusPreparing, model.OrderStatusReady},
			model.OrderStatusDelivered: {model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered},
		}
		if status == model.OrderStatusCancelled {
			o, err = f.svc.CancelOrder(ctx, o.ID, emp.ID)
			require.NoError(t, err)
			return o
		}
		for _, next := range path[status] {
			o, err = f.svc.UpdateStatus(ctx, o.ID, next, "")
			require.NoError(t, err)
		}
		return o
	}

	for _, from := range model.OrderStatuses {
		for _, to := range model.OrderStatuses {
			allowed := from.CanTransitionTo(to) && to != model.OrderStatusCancelled
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				o := newOrderIn(t, from)
				updated, err := f.svc.UpdateStatus(ctx, o.ID, to, "")
				if allowed {
					require.NoError(t, err)
					assert.Equal(t, to, updated.Status)
					return
				}
				assert.ErrorIs(t, err, ErrInvalidStateTransition)
				stored, err := f.svc.GetOrder(ctx, o.ID)
				require.NoError(t, err)
				assert.Equal(t, from, stored.Status)
			})
		}
	}

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.UpdateStatus(ctx, "missing", model.OrderStatusPreparing, "")
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("unknown status", func(t *testing.T) {
		o := newOrderIn(t, model.OrderStatusPending)
		_, err := f.svc.UpdateStatus(ctx, o.ID, "BREWING", "")
		var verr *validation.Error
		assert.True(t, errors.As(err, &verr))
	})
}

func TestCancelOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	owner := f.register(t, "Owner", "owner@x.com", model.RoleEmployee)
	other := f.register(t, "Other", "other@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Tea", "2.50", true)

	create := func() *model.Order {
		o, err := f.svc.CreateOrder(ctx, owner.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: 1}}})
		require.NoError(t, err)
		return o
	}

	t.Run("not owner", func(t *testing.T) {
		o := create()
		_, err := f.svc.CancelOrder(ctx, o.ID, other.ID)
		assert.ErrorIs(t, err, ErrNotOwner)
	})

	t.Run("not pending", func(t *testing.T) {
		o := create()
		_, err := f.svc.UpdateStatus(ctx, o.ID, model.OrderStatusPreparing, "")
		require.NoError(t, err)
		_, err = f.svc.CancelOrder(ctx, o.ID, owner.ID)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := f.svc.CancelOrder(ctx, "missing", owner.ID)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})

	t.Run("owner cancels pending", func(t *testing.T) {
		o := create()
		cancelled, err := f.svc.CancelOrder(ctx, o.ID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)

		_, err = f.svc.CancelOrder(ctx, o.ID, owner.ID)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})
}

func TestUpdateStatus_ConcurrentClaimSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Tea", "2.50", true)

	const workers = 8
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = f.register(t, "Worker", "worker"+string(rune('a'+i))+"@x.com", model.RoleWorker).ID
	}

	o, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: 1}}})
	require.NoError(t, err)

	queue, err := f.svc.ListPendingUnassigned(ctx)
	require.NoError(t, err)
	require.Len(t, queue, 1)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []string
		conflicts int
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(workerID string) {
			defer wg.Done()
			<-start
			_, err := f.svc.UpdateStatus(ctx, o.ID, model.OrderStatusPreparing, workerID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded = append(succeeded, workerID)
			case errors.Is(err, ErrConcurrentUpdate), errors.Is(err, ErrInvalidStateTransition):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(id)
	}
	close(start)
	wg.Wait()

	require.Len(t, succeeded, 1)
	assert.Equal(t, workers-1, conflicts)

	stored, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPreparing, stored.Status)
	assert.Equal(t, succeeded[0], stored.WorkerID)

	queue, err = f.svc.ListPendingUnassigned(ctx)
	require.NoError(t, err)
	assert.Empty(t, queue)
}

func TestRegister_Duplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Register(ctx, RegisterInput{Name: "A", Email: "a@x.com", Password: "secret1", EmployeeID: "EMP1"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "B", Email: "A@X.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "C", Email: "c@x.com", Password: "secret1", EmployeeID: "EMP1"})
	assert.ErrorIs(t, err, ErrDuplicateEmployeeID)

	_, err = f.svc.Register(ctx, RegisterInput{Name: "D", Email: "d@x.com", Password: "secret1"})
	assert.NoError(t, err, "empty employee id must not collide")
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{Name: "", Email: "bad", Password: "123"})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	fields := make([]string, 0, len(verr.Fields))
	for _, fe := range verr.Fields {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email", "password"}, fields)
}

func TestLogin_FailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)

	inactive := f.register(t, "Gone", "gone@x.com", model.RoleEmployee)
	_, err := f.svc.SetUserActive(ctx, inactive.ID, false)
	require.NoError(t, err)

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", u.Email, "wrong-password"},
		{"unknown email", "nobody@x.com", "secret123"},
		{"deactivated account", inactive.Email, "secret123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Login(ctx, tt.email, tt.password)
			assert.Nil(t, res)
			assert.Equal(t, ErrInvalidCredentials, err)
		})
	}
}

func TestRateOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	other := f.register(t, "Other", "other@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Mocha", "5.50", true)

	o, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{
		{BeverageID: bev.ID, Quantity: 1},
		{BeverageID: bev.ID, Quantity: 2},
	}})
	require.NoError(t, err)

	_, err = f.svc.RateOrder(ctx, o.ID, emp.ID, RatingInput{Stars: 5})
	assert.ErrorIs(t, err, ErrInvalidStateTransition, "pending orders cannot be rated")

	for _, next := range []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered} {
		_, err = f.svc.UpdateStatus(ctx, o.ID, next, "")
		require.NoError(t, err)
	}

	_, err = f.svc.RateOrder(ctx, o.ID, other.ID, RatingInput{Stars: 4})
	assert.ErrorIs(t, err, ErrNotOwner)

	_, err = f.svc.RateOrder(ctx, o.ID, emp.ID, RatingInput{Stars: 9})
	var verr *validation.Error
	assert.True(t, errors.As(err, &verr))

	rated, err := f.svc.RateOrder(ctx, o.ID, emp.ID, RatingInput{Stars: 4, Comment: "good"})
	require.NoError(t, err)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	_, err = f.svc.RateOrder(ctx, o.ID, emp.ID, RatingInput{Stars: 1})
	assert.ErrorIs(t, err, ErrAlreadyRated)

	b, err := f.svc.GetBeverage(ctx, bev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.RatingCount, "a beverage counts once per order")
	assert.InDelta(t, 4.0, b.AverageRating, 1e-9)
	assert.Equal(t, 3, b.TotalOrders)
}

// barrierRepository задерживает GetOrder, пока его не вызовут все участники гонки.
type barrierRepository struct {
	*repository.MemoryRepository
	readers *sync.WaitGroup
}

func (r *barrierRepository) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := r.MemoryRepository.GetOrder(ctx, id)
	r.readers.Done()
	r.readers.Wait()
	return o, err
}

func TestRateOrder_ConcurrentRatingsSingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Latte", "4.00", true)

	o, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: 1}}})
	require.NoError(t, err)
	for _, next := range []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered} {
		_, err = f.svc.UpdateStatus(ctx, o.ID, next, "")
		require.NoError(t, err)
	}

	const raters = 2
	readers := &sync.WaitGroup{}
	readers.Add(raters)
	svc := NewService(&barrierRepository{MemoryRepository: f.repo, readers: readers}, stubTokens{}, f.bc, nil, nil)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok       int
		rejected int
	)
	for _, stars := range []int{5, 1} {
		wg.Add(1)
		go func(stars int) {
			defer wg.Done()
			_, err := svc.RateOrder(ctx, o.ID, emp.ID, RatingInput{Stars: stars})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyRated):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(stars)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	b, err := f.svc.GetBeverage(ctx, bev.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, b.RatingCount)

	stored, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Rating)
	assert.InDelta(t, float64(*stored.Rating), b.AverageRating, 1e-9)
}

func TestStatistics(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	emp := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)
	bev := f.beverage(t, "Juice", "5.00", true)

	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	var ids []string
	for i := 0; i < 3; i++ {
		o, err := f.svc.CreateOrder(ctx, emp.ID, CreateOrderInput{Items: []OrderItemInput{{BeverageID: bev.ID, Quantity: i + 1}}})
		require.NoError(t, err)
		ids = append(ids, o.ID)
	}
	_, err := f.svc.CancelOrder(ctx, ids[0], emp.ID)
	require.NoError(t, err)
	for _, next := range []model.OrderStatus{model.OrderStatusPreparing, model.OrderStatusReady, model.OrderStatusDelivered} {
		_, err = f.svc.UpdateStatus(ctx, ids[1], next, "")
		require.NoError(t, err)
	}

	stats, err := f.svc.Statistics(ctx, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(decimal.RequireFromString("30.00")), "revenue = %s", stats.TotalRevenue)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 1, stats.CompletedOrders)
	assert.Equal(t, 1, stats.CancelledOrders)
	assert.Equal(t, 0, stats.ByStatus[model.OrderStatusPreparing])

	empty, err := f.svc.Statistics(ctx, now.Add(24*time.Hour), now.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, empty.TotalOrders)

	_, err = f.svc.Statistics(ctx, now, now.Add(-time.Hour))
	var verr *validation.Error
	assert.True(t, errors.As(err, &verr))
}

func TestUserAdministration(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	u := f.register(t, "Emp", "emp@x.com", model.RoleEmployee)

	updated, err := f.svc.SetUserRole(ctx, u.ID, model.RoleWorker)
	require.NoError(t, err)
	assert.Equal(t, model.RoleWorker, updated.Role)

	_, err = f.svc.SetUserRole(ctx, u.ID, "CHEF")
	var verr *validation.Error
	assert.True(t, errors.As(err, &verr))

	_, err = f.svc.SetUserActive(ctx, "missing", false)
	assert.ErrorIs(t, err, ErrUserNotFound)

	page, err := f.svc.ListUsers(ctx, model.PageRequest{Page: 0, Size: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalElements)
}

func TestCatalogValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateBeverage(context.Background(), BeverageInput{
		Name:     "Water",
		Category: "SNACKS",
		Price:    decimal.Zero,
	})
	var verr *validation.Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)

	_, err = f.svc.GetBeverage(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrBeverageNotFound)
}

func TestCatalogValidation_PriceScale(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		price string
		valid bool
	}{
		{price: "1.005", valid: false},
		{price: "0.004", valid: false},
		{price: "2.50", valid: true},
		{price: "2.500", valid: true},
		{price: "3", valid: true},
	}

	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			b, err := f.svc.CreateBeverage(context.Background(), BeverageInput{
				Name:     "Tea " + tt.price,
				NameAr:   "Tea ar",
				Category: model.CategoryHotDrinks,
				Price:    decimal.RequireFromString(tt.price),
			})
			if tt.valid {
				require.NoError(t, err)
				assert.True(t, b.Price.Equal(decimal.RequireFromString(tt.price)))
				return
			}
			var verr *validation.Error
			require.True(t, errors.As(err, &verr))
			require.Len(t, verr.Fields, 1)
			assert.Equal(t, "price", verr.Fields[0].Field)
		})
	}
}

type stubPusher struct {
	mu     sync.Mutex
	sent   []string
	failOn string
}

func (p *stubPusher) Send(_ context.Context, n model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.ID == p.failOn {
		return errors.New("gateway unavailable")
	}
	p.sent = append(p.sent, n.ID)
	return nil
}

func TestProcessNotificationBatch(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	pusher := &stubPusher{failOn: "n2"}
	svc := NewService(repo, stubTokens{}, nil, pusher, nil)

	base := time.Now()
	for i, id := range []string{"n1", "n2", "n3"} {
		require.NoError(t, repo.CreateNotification(ctx, &model.Notification{
			ID: id, UserID: "u1", Type: model.NotificationTypeOrderStatus, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	svc.processNotificationBatch(ctx)
	assert.Equal(t, []string{"n1", "n3"}, pusher.sent)

	unsent, err := repo.ListUnsentNotifications(ctx, model.NotificationCursor{}, 10)
	require.NoError(t, err)
	require.Len(t, unsent, 1)
	assert.Equal(t, "n2", unsent[0].ID)

	require.NoError(t, svc.MarkNotificationRead(ctx, "n1", "u1"))
	assert.ErrorIs(t, svc.MarkNotificationRead(ctx, "n1", "someone-else"), ErrNotificationNotFound)
}

type failingPusher struct {
	stubPusher
	failing map[string]bool
}

func (p *failingPusher) Send(ctx context.Context, n model.Notification) error {
	if p.failing[n.ID] {
		return errors.New("gateway rejected notification")
	}
	return p.stubPusher.Send(ctx, n)
}

func TestProcessNotificationBatch_FailuresDoNotStarveQueue(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	pusher := &failingPusher{failing: make(map[string]bool)}
	svc := NewService(repo, stubTokens{}, nil, pusher, nil)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < dispatchBatchSize; i++ {
		id := fmt.Sprintf("bad-%03d", i)
		pusher.failing[id] = true
		require.NoError(t, repo.CreateNotification(ctx, &model.Notification{ID: id, UserID: "u1", CreatedAt: base}))
	}
	require.NoError(t, repo.CreateNotification(ctx, &model.Notification{ID: "fresh", UserID: "u1", CreatedAt: base.Add(time.Minute)}))

	svc.processNotificationBatch(ctx)
	assert.Empty(t, pusher.sent)

	svc.processNotificationBatch(ctx)
	assert.Equal(t, []string{"fresh"}, pusher.sent)
	assert.Equal(t, model.NotificationCursor{}, svc.dispatchCursor, "short batch restarts the sweep")

	unsent, err := repo.ListUnsentNotifications(ctx, model.NotificationCursor{}, 2*dispatchBatchSize)
	require.NoError(t, err)
	assert.Len(t, unsent, dispatchBatchSize)
}

func TestStartNotificationDispatch_NoPusher(t *testing.T) {
	svc := &Service{}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		svc.StartNotificationDispatch(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("StartNotificationDispatch did not return without pusher")
	}
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	require.NoError(t, f.svc.Seed(ctx))
	require.NoError(t, f.svc.Seed(ctx))

	count, err := f.repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, len(seedUsers), count)

	page, err := f.svc.ListBeverages(ctx, model.BeverageFilter{}, model.PageRequest{Page: 0, Size: 100})
	require.NoError(t, err)
	assert.EqualValues(t, len(seedBeverages), page.TotalElements)

	res, err := f.svc.Login(ctx, "admin@company.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, res.User.Role)
}
