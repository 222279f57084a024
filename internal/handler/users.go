package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

type roleRequest struct {
	Role model.Role `json:"role"`
}

type activeRequest struct {
	Active *bool `json:"active"`
}

// ListUsers возвращает страницу пользователей.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, "list users", err)
		return
	}

	res, err := h.service.ListUsers(r.Context(), page)
	if err != nil {
		h.writeError(w, r, "list users", err)
		return
	}

	h.writeSuccess(w, "Users retrieved successfully", res)
}

// SetUserRole меняет роль пользователя.
func (h *Handler) SetUserRole(w http.ResponseWriter, r *http.Request) {
	var req roleRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	u, err := h.service.SetUserRole(r.Context(), chi.URLParam(r, "id"), model.Role(strings.ToUpper(string(req.Role))))
	if err != nil {
		h.writeError(w, r, "set user role", err)
		return
	}

	h.writeSuccess(w, "User role updated successfully", u)
}

// SetUserActive включает или отключает учётную запись.
func (h *Handler) SetUserActive(w http.ResponseWriter, r *http.Request) {
	var req activeRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	if req.Active == nil {
		h.writeError(w, r, "set user active", &validation.Error{Fields: []validation.FieldError{
			{Field: "active", Message: "Active flag is required"},
		}})
		return
	}

	u, err := h.service.SetUserActive(r.Context(), chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		h.writeError(w, r, "set user active", err)
		return
	}

	h.writeSuccess(w, "User updated successfully", u)
}
