// Package model содержит доменные сущности сервиса заказа напитков.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role определяет роль пользователя в системе.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
	RoleWorker     Role = "WORKER"
	RoleManagement Role = "MANAGEMENT"
)

// Valid сообщает, относится ли роль к известному набору.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployee, RoleWorker, RoleManagement:
		return true
	}
	return false
}

// User представляет учётную запись сотрудника.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Department   string    `json:"department,omitempty"`
	EmployeeID   string    `json:"employeeId,omitempty"`
	Quota        int       `json:"quota"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Category описывает категорию напитка в каталоге.
type Category string

const (
	CategoryHotDrinks  Category = "HOT_DRINKS"
	CategoryColdDrinks Category = "COLD_DRINKS"
	CategoryJuices     Category = "JUICES"
	CategorySmoothies  Category = "SMOOTHIES"
	CategorySpecialty  Category = "SPECIALTY"
	CategorySeasonal   Category = "SEASONAL"
)

// Valid сообщает, относится ли категория к известному набору.
func (c Category) Valid() bool {
	switch c {
	case CategoryHotDrinks, CategoryColdDrinks, CategoryJuices,
		CategorySmoothies, CategorySpecialty, CategorySeasonal:
		return true
	}
	return false
}

// Beverage описывает позицию каталога с текстами на английском и арабском.
type Beverage struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	NameAr        string          `json:"nameAr"`
	Description   string          `json:"description,omitempty"`
	DescriptionAr string          `json:"descriptionAr,omitempty"`
	Category      Category        `json:"category"`
	Price         decimal.Decimal `json:"price"`
	Image         string          `json:"image,omitempty"`
	Available     bool            `json:"available"`
	AverageRating float64         `json:"averageRating"`
	RatingCount   int             `json:"ratingCount"`
	TotalOrders   int             `json:"totalOrders"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BeverageFilter ограничивает выборку каталога.
type BeverageFilter struct {
	Category  Category
	Available *bool
	Search    string
}

// OrderItem хранит снимок названия и цены напитка на момент заказа.
type OrderItem struct {
	BeverageID     string          `json:"beverageId"`
	BeverageName   string          `json:"beverageName"`
	BeverageNameAr string          `json:"beverageNameAr"`
	Quantity       int             `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// Order описывает заказ сотрудника и ход его выполнения.
type Order struct {
	ID            string          `json:"id"`
	EmployeeID    string          `json:"employeeId"`
	EmployeeName  string          `json:"employeeName"`
	Department    string          `json:"department,omitempty"`
	Items         []OrderItem     `json:"beverages"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	Status        OrderStatus     `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	OrderDate     time.Time       `json:"orderDate"`
	CompletedDate *time.Time      `json:"completedDate,omitempty"`
	Rating        *int            `json:"rating,omitempty"`
	RatingComment string          `json:"ratingComment,omitempty"`
	WorkerID      string          `json:"workerId,omitempty"`
	WorkerName    string          `json:"workerName,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// OrderFilter ограничивает выборку заказов.
type OrderFilter struct {
	Status     OrderStatus
	EmployeeID string
}

// Notification описывает сообщение для конкретного пользователя.
type Notification struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Type      string            `json:"type"`
	Data      map[string]string `json:"data"`
	Read      bool              `json:"read"`
	Sent      bool              `json:"sent"`
	CreatedAt time.Time         `json:"createdAt"`
}

// NotificationTypeOrderStatus помечает уведомления о смене статуса заказа.
const NotificationTypeOrderStatus = "ORDER_STATUS"

// NotificationCursor указывает позицию в очереди неотправленных уведомлений.
// Нулевое значение означает начало очереди.
type NotificationCursor struct {
	CreatedAt time.Time
	ID        string
}

// After сообщает, стоит ли уведомление n в очереди после курсора.
func (c NotificationCursor) After(n Notification) bool {
	if c.ID == "" {
		return true
	}
	if !n.CreatedAt.Equal(c.CreatedAt) {
		return n.CreatedAt.After(c.CreatedAt)
	}
	return n.ID > c.ID
}

// PageRequest задаёт номер и размер страницы.
type PageRequest struct {
	Page int
	Size int
}

// Offset возвращает смещение первой записи страницы.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page содержит одну страницу результатов выборки.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Last          bool  `json:"last"`
}

// NewPage собирает страницу по выборке и общему числу записей.
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if req.Size > 0 {
		totalPages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		Last:          req.Page+1 >= totalPages,
	}
}

// Statistics содержит агрегаты по заказам за период.
type Statistics struct {
	StartDate       time.Time           `json:"startDate"`
	EndDate         time.Time           `json:"endDate"`
	TotalOrders     int                 `json:"totalOrders"`
	TotalRevenue    decimal.Decimal     `json:"totalRevenue"`
	PendingOrders   int                 `json:"pendingOrders"`
	CompletedOrders int                 `json:"completedOrders"`
	CancelledOrders int                 `json:"cancelledOrders"`
	ByStatus        map[OrderStatus]int `json:"byStatus"`
}
