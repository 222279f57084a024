package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

const (
	dateLayout         = "2006-01-02"
	defaultReportRange = 30 * 24 * time.Hour
)

// CreateOrder оформляет заказ текущего пользователя.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.CreateOrderInput
	if !h.decodeJSON(w, r, &req) {
		return
	}

	userID, _ := identity(r)
	o, err := h.service.CreateOrder(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, "create order", err)
		return
	}

	h.writeSuccess(w, "Order created successfully", o)
}

// ListOrders возвращает страницу всех заказов с необязательным фильтром по статусу.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}

	status := model.OrderStatus(strings.ToUpper(r.URL.Query().Get("status")))
	res, err := h.service.ListOrders(r.Context(), status, page)
	if err != nil {
		h.writeError(w, r, "list orders", err)
		return
	}

	h.writeSuccess(w, "Orders retrieved successfully", res)
}

// ListMyOrders возвращает страницу заказов текущего сотрудника.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, "list my orders", err)
		return
	}

	userID, _ := identity(r)
	res, err := h.service.ListMyOrders(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, "list my orders", err)
		return
	}

	h.writeSuccess(w, "Your orders retrieved successfully", res)
}

// GetOrder возвращает один заказ.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get order", err)
		return
	}

	h.writeSuccess(w, "Order retrieved successfully", o)
}

// UpdateOrderStatus переводит заказ в статус из параметра status от имени текущего работника.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		h.writeError(w, r, "update order status", &validation.Error{Fields: []validation.FieldError{
			{Field: "status", Message: "Status is required"},
		}})
		return
	}

	workerID, _ := identity(r)
	o, err := h.service.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.OrderStatus(strings.ToUpper(raw)), workerID)
	if err != nil {
		h.writeError(w, r, "update order status", err)
		return
	}

	h.writeSuccess(w, "Order status updated successfully", o)
}

// CancelOrder отменяет ожидающий заказ текущего сотрудника.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	o, err := h.service.CancelOrder(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.writeError(w, r, "cancel order", err)
		return
	}

	h.writeSuccess(w, "Order cancelled successfully", o)
}

// ListPendingOrders возвращает очередь ожидающих заказов без работника.
func (h *Handler) ListPendingOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListPendingUnassigned(r.Context())
	if err != nil {
		h.writeError(w, r, "list pending orders", err)
		return
	}

	h.writeSuccess(w, "Pending orders retrieved successfully", orders)
}

// RateOrder сохраняет оценку выданного заказа.
func (h *Handler) RateOrder(w http.ResponseWriter, r *http.Request) {
	var req service.RatingInput
	if !h.decodeJSON(w, r, &req) {
		return
	}

	userID, _ := identity(r)
	o, err := h.service.RateOrder(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		h.writeError(w, r, "rate order", err)
		return
	}

	h.writeSuccess(w, "Order rated successfully", o)
}

// Statistics возвращает агрегаты по заказам за период. По умолчанию берутся последние 30 дней.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	q := r.URL.Query()

	var v validation.Validator
	start, okStart := parseDate(q.Get("startDate"), now.Add(-defaultReportRange), false)
	end, okEnd := parseDate(q.Get("endDate"), now, true)
	v.Check(okStart, "startDate", "Date must be RFC3339 or YYYY-MM-DD")
	v.Check(okEnd, "endDate", "Date must be RFC3339 or YYYY-MM-DD")
	if err := v.Err(); err != nil {
		h.writeError(w, r, "statistics", err)
		return
	}

	stats, err := h.service.Statistics(r.Context(), start, end)
	if err != nil {
		h.writeError(w, r, "statistics", err)
		return
	}

	h.writeSuccess(w, "Statistics retrieved successfully", stats)
}

// parseDate разбирает дату. Для конца интервала дата без времени означает конец суток.
func parseDate(raw string, fallback time.Time, endOfDay bool) (time.Time, bool) {
	if raw == "" {
		return fallback, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, true
}
