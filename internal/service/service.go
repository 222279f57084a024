// Package service реализует бизнес-логику сервиса заказа напитков.
package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
)

var (
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrUserNotFound           = errors.New("user not found")
	ErrBeverageNotFound       = errors.New("beverage not found")
	ErrBeverageUnavailable    = errors.New("beverage not available")
	ErrEmptyOrder             = errors.New("order must contain at least one item")
	ErrOrderNotFound          = errors.New("order not found")
	ErrInvalidStateTransition = errors.New("invalid order status transition")
	ErrNotOwner               = errors.New("order belongs to another employee")
	ErrDuplicateEmail         = errors.New("email already exists")
	ErrDuplicateEmployeeID    = errors.New("employee id already exists")
	ErrConcurrentUpdate       = errors.New("order was changed by another request")
	ErrAlreadyRated           = errors.New("order already rated")
	ErrNotificationNotFound   = errors.New("notification not found")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.User], error)
	UpdateUser(ctx context.Context, u *model.User) error
	CountUsers(ctx context.Context) (int64, error)

	CreateBeverage(ctx context.Context, b *model.Beverage) error
	GetBeverage(ctx context.Context, id string) (*model.Beverage, error)
	ListBeverages(ctx context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error)
	UpdateBeverage(ctx context.Context, b *model.Beverage) error
	IncrementBeverageOrders(ctx context.Context, id string, quantity int) error
	AddBeverageRating(ctx context.Context, id string, stars int) error

	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	UpdateOrder(ctx context.Context, o *model.Order, expected model.OrderStatus) error
	SetOrderRating(ctx context.Context, o *model.Order) error
	ListOrders(ctx context.Context, f model.OrderFilter, page model.PageRequest) (model.Page[model.Order], error)
	ListPendingUnassigned(ctx context.Context) ([]model.Order, error)
	ListOrdersInRange(ctx context.Context, start, end time.Time) ([]model.Order, error)

	CreateNotification(ctx context.Context, n *model.Notification) error
	ListNotificationsByUser(ctx context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	ListUnsentNotifications(ctx context.Context, after model.NotificationCursor, limit int) ([]model.Notification, error)
	MarkNotificationSent(ctx context.Context, id string) error
}

// TokenIssuer выпускает токен сессии для пользователя.
type TokenIssuer interface {
	Issue(u *model.User) (string, error)
}

// Broadcaster рассылает снимок изменённого заказа подписчикам. Ошибки доставки не возвращаются.
type Broadcaster interface {
	OrderChanged(ctx context.Context, o *model.Order)
}

// Pusher доставляет уведомление во внешний шлюз.
type Pusher interface {
	Send(ctx context.Context, n model.Notification) error
}

// Service содержит бизнес-логику сервиса заказа напитков.
type Service struct {
	repo        Repository
	tokens      TokenIssuer
	broadcaster Broadcaster
	pusher      Pusher
	logger      *zap.Logger
	now         func() time.Time

	// dispatchCursor используется только горутиной рассылки.
	dispatchCursor model.NotificationCursor
}

// NewService создаёт сервис. broadcaster и pusher могут быть nil.
func NewService(repo Repository, tokens TokenIssuer, broadcaster Broadcaster, pusher Pusher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		broadcaster: broadcaster,
		pusher:      pusher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

func (s *Service) broadcast(ctx context.Context, o *model.Order) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.OrderChanged(ctx, o)
}
