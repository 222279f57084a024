// Package handler содержит HTTP-обработчики API сервиса заказа напитков.
package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/middleware"
	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// maxPage не даёт page*size выйти за пределы int.
	maxPage = math.MaxInt32 / maxPageSize
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Register(ctx context.Context, in service.RegisterInput) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*model.User, error)

	CreateOrder(ctx context.Context, employeeID string, in service.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, status model.OrderStatus, page model.PageRequest) (model.Page[model.Order], error)
	ListMyOrders(ctx context.Context, employeeID string, page model.PageRequest) (model.Page[model.Order], error)
	ListPendingUnassigned(ctx context.Context) ([]model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, next model.OrderStatus, workerID string) (*model.Order, error)
	CancelOrder(ctx context.Context, orderID, userID string) (*model.Order, error)
	RateOrder(ctx context.Context, orderID, userID string, in service.RatingInput) (*model.Order, error)
	Statistics(ctx context.Context, start, end time.Time) (*model.Statistics, error)

	ListBeverages(ctx context.Context, f model.BeverageFilter, page model.PageRequest) (model.Page[model.Beverage], error)
	GetBeverage(ctx context.Context, id string) (*model.Beverage, error)
	CreateBeverage(ctx context.Context, in service.BeverageInput) (*model.Beverage, error)
	UpdateBeverage(ctx context.Context, id string, in service.BeverageInput) (*model.Beverage, error)

	ListUsers(ctx context.Context, page model.PageRequest) (model.Page[model.User], error)
	SetUserRole(ctx context.Context, userID string, role model.Role) (*model.User, error)
	SetUserActive(ctx context.Context, userID string, active bool) (*model.User, error)

	ListNotifications(ctx context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// Subscriber обслуживает WebSocket-соединение подписчика на обновления заказов.
type Subscriber interface {
	ServeClient(conn *websocket.Conn, userID string, role model.Role)
}

// Handler реализует HTTP-обработчики API сервиса заказа напитков.
type Handler struct {
	service        Service
	subscriber     Subscriber
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	upgrader       websocket.Upgrader
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, sub Subscriber, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		subscriber:     sub,
		logger:         logger,
		authMiddleware: auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

type apiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", zap.Error(err))
	}
}

func (h *Handler) writeSuccess(w http.ResponseWriter, message string, data any) {
	h.writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: message, Data: data})
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, errorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeErrorStatus(w, http.StatusBadRequest, "Malformed JSON body")
		return false
	}
	return true
}

// parsePage читает page и size из строки запроса: по умолчанию 0 и 20, size не больше 100.
func parsePage(r *http.Request) (model.PageRequest, error) {
	var v validation.Validator
	page, size := 0, defaultPageSize

	q := r.URL.Query()
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		v.Check(err == nil && n >= 0 && n <= maxPage, "page", "Page must be a non-negative integer not greater than "+strconv.Itoa(maxPage))
		page = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		v.Check(err == nil && n > 0, "size", "Size must be a positive integer")
		size = n
	}
	if err := v.Err(); err != nil {
		return model.PageRequest{}, err
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return model.PageRequest{Page: page, Size: size}, nil
}

// identity возвращает личность пользователя. Маршруты за Require всегда её содержат.
func identity(r *http.Request) (userID string, role model.Role) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return "", ""
	}
	return id.UserID, id.Role
}
