package handler

import (
	"net/http"

	"github.com/mmeshcher/beverages-system/internal/access"
	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Password   string     `json:"password"`
	Role       model.Role `json:"role"`
	Department string     `json:"department"`
	EmployeeID string     `json:"employeeId"`
	Quota      *int       `json:"quota"`
}

// Login выполняет аутентификацию пользователя и возвращает токен с профилем.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	var v validation.Validator
	v.Check(req.Email == "" || validation.IsValidEmail(req.Email), "email", "Invalid email format")
	if err := v.Err(); err != nil {
		h.writeError(w, r, "login", err)
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, "login", err)
		return
	}

	h.writeSuccess(w, "Login successful", res)
}

// Register создаёт учётную запись. Роль, отличную от EMPLOYEE, может назначить только администратор.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	if req.Role != "" && req.Role != model.RoleEmployee {
		_, role := identity(r)
		if !access.Allowed(role, access.OpManageUsers) {
			h.writeErrorStatus(w, http.StatusForbidden, "Only administrators can assign roles")
			return
		}
	}

	res, err := h.service.Register(r.Context(), service.RegisterInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		Department: req.Department,
		EmployeeID: req.EmployeeID,
		Quota:      req.Quota,
	})
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}

	h.writeSuccess(w, "Registration successful", res)
}

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)

	u, err := h.service.Me(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, "me", err)
		return
	}

	h.writeSuccess(w, "Profile retrieved successfully", u)
}
