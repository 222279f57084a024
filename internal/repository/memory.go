package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mmeshcher/beverages-system/internal/model"
)

// MemoryRepository хранит данные в памяти процесса. Используется без настроенной БД и в тестах.
type MemoryRepository struct {
	mu            sync.RWMutex
	users         map[string]model.User
	beverages     map[string]model.Beverage
	orders        map[string]model.Order
	notifications map[string]model.Notification
}

// NewMemoryRepository создаёт пустое хранилище в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		users:         make(map[string]model.User),
		beverages:     make(map[string]model.Beverage),
		orders:        make(map[string]model.Order),
		notifications: make(map[string]model.Notification),
	}
}

// Close ничего не освобождает и нужен для совместимости с другими хранилищами.
func (r *MemoryRepository) Close() error {
	return nil
}

// CreateUser сохраняет нового пользователя.
func (r *MemoryRepository) CreateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return ErrDuplicateEmail
		}
		if u.EmployeeID != "" && existing.EmployeeID == u.EmployeeID {
			return ErrDuplicateEmployeeID
		}
	}
	r.users[u.ID] = *u
	return nil
}

// GetUserByID возвращает пользователя по идентификатору.
func (r *MemoryRepository) GetUserByID(_ context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail возвращает пользователя по email без учёта регистра.
func (r *MemoryRepository) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

// ListUsers возвращает страницу пользователей, упорядоченных по имени.
func (r *MemoryRepository) ListUsers(_ context.Context, page model.PageRequest) (model.Page[model.User], error) {
	r.mu.RLock()
	all := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		all = append(all, u)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return paginate(all, page), nil
}

// UpdateUser заменяет запись пользователя целиком.
func (r *MemoryRepository) UpdateUser(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[u.ID]; !ok {
		return ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}

// CountUsers возвращает число пользователей.
func (r *MemoryRepository) CountUsers(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

// CreateBeverage сохраняет новый напиток.
func (r *MemoryRepository) CreateBeverage(_ context.Context, b *model.Beverage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.beverages[b.ID] = *b
	return nil
}

// GetBeverage возвращает напиток по идентификатору.
func (r *MemoryRepository) GetBeverage(_ context.Context, id string) (*model.Beverage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.beverages[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

// ListBeverages возвращает страницу каталога с учётом фильтра.
func (r *MemoryRepository) ListBeverages(_ context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error) {
	search := strings.ToLower(f.Search)

	r.mu.RLock()
	var matched []model.Beverage
	for _, b := range r.beverages {
		if f.Category != "" && b.Category != f.Category {
			continue
		}
		if f.Available != nil && b.Available != *f.Available {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(b.Name), search) &&
			!strings.Contains(strings.ToLower(b.NameAr), search) {
			continue
		}
		matched = append(matched, b)
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, page), nil
}

// UpdateBeverage заменяет запись напитка целиком.
func (r *MemoryRepository) UpdateBeverage(_ context.Context, b *model.Beverage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.beverages[b.ID]; !ok {
		return ErrNotFound
	}
	r.beverages[b.ID] = *b
	return nil
}

// IncrementBeverageOrders увеличивает счётчик заказанных порций напитка.
func (r *MemoryRepository) IncrementBeverageOrders(_ context.Context, id string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.beverages[id]
	if !ok {
		return ErrNotFound
	}
	b.TotalOrders += quantity
	r.beverages[id] = b
	return nil
}

// AddBeverageRating учитывает новую оценку в среднем рейтинге напитка.
func (r *MemoryRepository) AddBeverageRating(_ context.Context, id string, stars int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.beverages[id]
	if !ok {
		return ErrNotFound
	}
	b.AverageRating = (b.AverageRating*float64(b.RatingCount) + float64(stars)) / float64(b.RatingCount+1)
	b.RatingCount++
	r.beverages[id] = b
	return nil
}

// CreateOrder сохраняет новый заказ.
func (r *MemoryRepository) CreateOrder(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[o.ID] = copyOrder(*o)
	return nil
}

// GetOrder возвращает заказ по идентификатору.
func (r *MemoryRepository) GetOrder(_ context.Context, id string) (*model.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o = copyOrder(o)
	return &o, nil
}

// UpdateOrder заменяет заказ, если его статус всё ещё равен expected.
func (r *MemoryRepository) UpdateOrder(_ context.Context, o *model.Order, expected model.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != expected {
		return ErrStaleOrder
	}
	r.orders[o.ID] = copyOrder(*o)
	return nil
}

// SetOrderRating сохраняет оценку выданного заказа, если он ещё не оценён.
func (r *MemoryRepository) SetOrderRating(_ context.Context, o *model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.orders[o.ID]
	if !ok {
		return ErrNotFound
	}
	if current.Status != model.OrderStatusDelivered {
		return ErrStaleOrder
	}
	if current.Rating != nil {
		return ErrAlreadyRated
	}

	stars := *o.Rating
	current.Rating = &stars
	current.RatingComment = o.RatingComment
	current.UpdatedAt = o.UpdatedAt
	r.orders[o.ID] = current
	return nil
}

// ListOrders возвращает страницу заказов, новые первыми.
func (r *MemoryRepository) ListOrders(_ context.Context, f model.OrderFilter, page model.PageRequest) (model.Page[model.Order], error) {
	matched := r.filterOrders(func(o model.Order) bool {
		return (f.Status == "" || o.Status == f.Status) &&
			(f.EmployeeID == "" || o.EmployeeID == f.EmployeeID)
	})
	sortByOrderDateDesc(matched)
	return paginate(matched, page), nil
}

// ListPendingUnassigned возвращает ожидающие заказы без назначенного работника, старые первыми.
func (r *MemoryRepository) ListPendingUnassigned(_ context.Context) ([]model.Order, error) {
	matched := r.filterOrders(func(o model.Order) bool {
		return o.Status == model.OrderStatusPending && o.WorkerID == ""
	})
	sort.Slice(matched, func(i, j int) bool { return matched[i].OrderDate.Before(matched[j].OrderDate) })
	return matched, nil
}

// ListOrdersInRange возвращает заказы, оформленные в интервале [start, end].
func (r *MemoryRepository) ListOrdersInRange(_ context.Context, start, end time.Time) ([]model.Order, error) {
	matched := r.filterOrders(func(o model.Order) bool {
		return !o.OrderDate.Before(start) && !o.OrderDate.After(end)
	})
	sortByOrderDateDesc(matched)
	return matched, nil
}

func (r *MemoryRepository) filterOrders(keep func(model.Order) bool) []model.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var res []model.Order
	for _, o := range r.orders {
		if keep(o) {
			res = append(res, copyOrder(o))
		}
	}
	return res
}

// CreateNotification сохраняет уведомление.
func (r *MemoryRepository) CreateNotification(_ context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications[n.ID] = *n
	return nil
}

// ListNotificationsByUser возвращает страницу уведомлений пользователя, новые первыми.
func (r *MemoryRepository) ListNotificationsByUser(_ context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error) {
	r.mu.RLock()
	var matched []model.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			matched = append(matched, n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })
	return paginate(matched, page), nil
}

// MarkNotificationRead помечает уведомление пользователя прочитанным.
func (r *MemoryRepository) MarkNotificationRead(_ context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	r.notifications[id] = n
	return nil
}

// ListUnsentNotifications возвращает не более limit неотправленных уведомлений после курсора, старые первыми.
func (r *MemoryRepository) ListUnsentNotifications(_ context.Context, after model.NotificationCursor, limit int) ([]model.Notification, error) {
	r.mu.RLock()
	var matched []model.Notification
	for _, n := range r.notifications {
		if !n.Sent && after.After(n) {
			matched = append(matched, n)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// MarkNotificationSent помечает уведомление отправленным.
func (r *MemoryRepository) MarkNotificationSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.notifications[id]
	if !ok {
		return ErrNotFound
	}
	n.Sent = true
	r.notifications[id] = n
	return nil
}

func copyOrder(o model.Order) model.Order {
	o.Items = append([]model.OrderItem(nil), o.Items...)
	if o.CompletedDate != nil {
		t := *o.CompletedDate
		o.CompletedDate = &t
	}
	if o.Rating != nil {
		v := *o.Rating
		o.Rating = &v
	}
	return o
}

func sortByOrderDateDesc(orders []model.Order) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
}

func paginate[T any](all []T, page model.PageRequest) model.Page[T] {
	total := int64(len(all))
	from := page.Offset()
	if from < 0 || from > len(all) {
		from = len(all)
	}
	to := from + page.Size
	if to > len(all) {
		to = len(all)
	}
	return model.NewPage(all[from:to], page, total)
}
