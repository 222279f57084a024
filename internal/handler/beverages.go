package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

// ListBeverages возвращает страницу каталога. Фильтры: category, available, search.
func (h *Handler) ListBeverages(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, "list beverages", err)
		return
	}

	q := r.URL.Query()
	filter := model.BeverageFilter{
		Category: model.Category(strings.ToUpper(q.Get("category"))),
		Search:   q.Get("search"),
	}
	if raw := q.Get("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, "list beverages", &validation.Error{Fields: []validation.FieldError{
				{Field: "available", Message: "Available must be true or false"},
			}})
			return
		}
		filter.Available = &available
	}

	res, err := h.service.ListBeverages(r.Context(), filter, page)
	if err != nil {
		h.writeError(w, r, "list beverages", err)
		return
	}

	h.writeSuccess(w, "Beverages retrieved successfully", res)
}

// GetBeverage возвращает один напиток.
func (h *Handler) GetBeverage(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.GetBeverage(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, "get beverage", err)
		return
	}

	h.writeSuccess(w, "Beverage retrieved successfully", b)
}

// CreateBeverage добавляет напиток в каталог.
func (h *Handler) CreateBeverage(w http.ResponseWriter, r *http.Request) {
	var req service.BeverageInput
	if !h.decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.CreateBeverage(r.Context(), req)
	if err != nil {
		h.writeError(w, r, "create beverage", err)
		return
	}

	h.writeSuccess(w, "Beverage created successfully", b)
}

// UpdateBeverage изменяет напиток каталога.
func (h *Handler) UpdateBeverage(w http.ResponseWriter, r *http.Request) {
	var req service.BeverageInput
	if !h.decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.UpdateBeverage(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeError(w, r, "update beverage", err)
		return
	}

	h.writeSuccess(w, "Beverage updated successfully", b)
}
