package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

// OrderItemInput задаёт позицию нового заказа.
type OrderItemInput struct {
	BeverageID string `json:"beverageId"`
	Quantity   int    `json:"quantity"`
}

// CreateOrderInput содержит позиции и комментарий нового заказа.
type CreateOrderInput struct {
	Items []OrderItemInput `json:"items"`
	Notes string           `json:"notes"`
}

// RatingInput содержит оценку выданного заказа.
type RatingInput struct {
	Stars   int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateOrder оформляет заказ сотрудника. Цены и названия напитков копируются в позиции заказа.
func (s *Service) CreateOrder(ctx context.Context, employeeID string, in CreateOrderInput) (*model.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyOrder
	}

	var v validation.Validator
	for i, it := range in.Items {
		v.Check(validation.NotBlank(it.BeverageID), fmt.Sprintf("items[%d].beverageId", i), "Beverage is required")
		v.Check(it.Quantity > 0, fmt.Sprintf("items[%d].quantity", i), "Quantity must be positive")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	items := make([]model.OrderItem, 0, len(in.Items))
	total := decimal.Zero
	for _, it := range in.Items {
		b, err := s.repo.GetBeverage(ctx, it.BeverageID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrBeverageNotFound, it.BeverageID)
			}
			return nil, fmt.Errorf("get beverage: %w", err)
		}
		if !b.Available {
			return nil, fmt.Errorf("%w: %s", ErrBeverageUnavailable, b.Name)
		}

		subtotal := b.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
		items = append(items, model.OrderItem{
			BeverageID:     b.ID,
			BeverageName:   b.Name,
			BeverageNameAr: b.NameAr,
			Quantity:       it.Quantity,
			Price:          b.Price,
			Subtotal:       subtotal,
		})
		total = total.Add(subtotal)
	}

	now := s.now()
	o := &model.Order{
		ID:           uuid.NewString(),
		EmployeeID:   user.ID,
		EmployeeName: user.Name,
		Department:   user.Department,
		Items:        items,
		TotalPrice:   total,
		Status:       model.OrderStatusPending,
		Notes:        strings.TrimSpace(in.Notes),
		OrderDate:    now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateOrder(ctx, o); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created",
		zap.String("orderID", o.ID),
		zap.String("employeeID", o.EmployeeID),
		zap.String("total", o.TotalPrice.StringFixed(2)),
	)

	s.broadcast(ctx, o)
	return o, nil
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// ListOrders возвращает страницу всех заказов, при необходимости с фильтром по статусу.
func (s *Service) ListOrders(ctx context.Context, status model.OrderStatus, page model.PageRequest) (model.Page[model.Order], error) {
	if status != "" && !status.Valid() {
		return model.Page[model.Order]{}, &validation.Error{Fields: []validation.FieldError{
			{Field: "status", Message: "Unknown order status"},
		}}
	}
	return s.repo.ListOrders(ctx, model.OrderFilter{Status: status}, page)
}

// ListMyOrders возвращает страницу заказов сотрудника.
func (s *Service) ListMyOrders(ctx context.Context, employeeID string, page model.PageRequest) (model.Page[model.Order], error) {
	return s.repo.ListOrders(ctx, model.OrderFilter{EmployeeID: employeeID}, page)
}

// ListPendingUnassigned возвращает очередь ожидающих заказов без работника.
func (s *Service) ListPendingUnassigned(ctx context.Context) ([]model.Order, error) {
	orders, err := s.repo.ListPendingUnassigned(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []model.Order{}
	}
	return orders, nil
}

// UpdateStatus переводит заказ в следующий статус. Отмена выполняется только через CancelOrder.
// Если за время обработки статус заказа изменился, возвращается ErrConcurrentUpdate.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, next model.OrderStatus, workerID string) (*model.Order, error) {
	if !next.Valid() {
		return nil, &validation.Error{Fields: []validation.FieldError{
			{Field: "status", Message: "Unknown order status"},
		}}
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if next == model.OrderStatusCancelled || !o.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, o.Status, next)
	}

	if workerID != "" {
		worker, err := s.repo.GetUserByID(ctx, workerID)
		switch {
		case err == nil:
			o.WorkerID = worker.ID
			o.WorkerName = worker.Name
		case errors.Is(err, repository.ErrNotFound):
			s.logger.Warn("acting worker not found", zap.String("workerID", workerID))
		default:
			return nil, fmt.Errorf("get worker: %w", err)
		}
	}

	previous := o.Status
	now := s.now()
	o.Status = next
	o.UpdatedAt = now
	if next == model.OrderStatusDelivered {
		o.CompletedDate = &now
	}

	if err := s.saveOrder(ctx, o, previous); err != nil {
		return nil, err
	}

	s.logger.Info("order status updated",
		zap.String("orderID", o.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(next)),
		zap.String("workerID", o.WorkerID),
	)

	if next == model.OrderStatusDelivered {
		s.countDelivered(ctx, o)
	}
	s.notifyStatus(ctx, o)
	s.broadcast(ctx, o)
	return o, nil
}

// CancelOrder отменяет ожидающий заказ по запросу его владельца.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID string) (*model.Order, error) {
	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.EmployeeID != userID {
		return nil, ErrNotOwner
	}
	if o.Status != model.OrderStatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidStateTransition, o.Status)
	}

	o.Status = model.OrderStatusCancelled
	o.UpdatedAt = s.now()
	if err := s.saveOrder(ctx, o, model.OrderStatusPending); err != nil {
		return nil, err
	}

	s.logger.Info("order cancelled", zap.String("orderID", o.ID), zap.String("employeeID", userID))

	s.notifyStatus(ctx, o)
	s.broadcast(ctx, o)
	return o, nil
}

// RateOrder сохраняет оценку выданного заказа и учитывает её в рейтинге напитков.
func (s *Service) RateOrder(ctx context.Context, orderID, userID string, in RatingInput) (*model.Order, error) {
	var v validation.Validator
	v.Check(validation.IsValidRating(in.Stars), "rating", "Rating must be between 1 and 5")
	if err := v.Err(); err != nil {
		return nil, err
	}

	o, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.EmployeeID != userID {
		return nil, ErrNotOwner
	}
	if o.Status != model.OrderStatusDelivered {
		return nil, fmt.Errorf("%w: only delivered orders can be rated", ErrInvalidStateTransition)
	}
	if o.Rating != nil {
		return nil, ErrAlreadyRated
	}

	stars := in.Stars
	o.Rating = &stars
	o.RatingComment = strings.TrimSpace(in.Comment)
	o.UpdatedAt = s.now()
	if err := s.repo.SetOrderRating(ctx, o); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRated):
			return nil, ErrAlreadyRated
		case errors.Is(err, repository.ErrStaleOrder):
			return nil, ErrConcurrentUpdate
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("set order rating: %w", err)
	}

	seen := make(map[string]struct{}, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.BeverageID]; ok {
			continue
		}
		seen[it.BeverageID] = struct{}{}
		if err := s.repo.AddBeverageRating(ctx, it.BeverageID, stars); err != nil {
			s.logger.Error("add beverage rating", zap.Error(err), zap.String("beverageID", it.BeverageID))
		}
	}

	s.broadcast(ctx, o)
	return o, nil
}

// Statistics считает агрегаты по заказам, оформленным в интервале [start, end].
func (s *Service) Statistics(ctx context.Context, start, end time.Time) (*model.Statistics, error) {
	if end.Before(start) {
		return nil, &validation.Error{Fields: []validation.FieldError{
			{Field: "endDate", Message: "End date must not be before start date"},
		}}
	}

	orders, err := s.repo.ListOrdersInRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list orders in range: %w", err)
	}

	stats := &model.Statistics{
		StartDate:    start,
		EndDate:      end,
		TotalOrders:  len(orders),
		TotalRevenue: decimal.Zero,
		ByStatus:     make(map[model.OrderStatus]int, len(model.OrderStatuses)),
	}
	for _, st := range model.OrderStatuses {
		stats.ByStatus[st] = 0
	}

	for _, o := range orders {
		stats.TotalRevenue = stats.TotalRevenue.Add(o.TotalPrice)
		stats.ByStatus[o.Status]++
	}
	stats.PendingOrders = stats.ByStatus[model.OrderStatusPending]
	stats.CompletedOrders = stats.ByStatus[model.OrderStatusDelivered]
	stats.CancelledOrders = stats.ByStatus[model.OrderStatusCancelled]

	return stats, nil
}

func (s *Service) saveOrder(ctx context.Context, o *model.Order, expected model.OrderStatus) error {
	err := s.repo.UpdateOrder(ctx, o, expected)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrStaleOrder):
		return ErrConcurrentUpdate
	case errors.Is(err, repository.ErrNotFound):
		return ErrOrderNotFound
	}
	return fmt.Errorf("update order: %w", err)
}

// countDelivered увеличивает счётчики заказанных напитков. Ошибки только логируются.
func (s *Service) countDelivered(ctx context.Context, o *model.Order) {
	for _, it := range o.Items {
		if err := s.repo.IncrementBeverageOrders(ctx, it.BeverageID, it.Quantity); err != nil {
			s.logger.Error("increment beverage orders", zap.Error(err), zap.String("beverageID", it.BeverageID))
		}
	}
}
