package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mmeshcher/beverages-system/internal/access"
	custommiddleware "github.com/mmeshcher/beverages-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса заказа напитков.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(custommiddleware.GzipMiddleware)
	r.Use(h.authMiddleware.Middleware)

	require := custommiddleware.Require

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/register", h.Register)
			r.With(require(access.OpViewProfile)).Get("/me", h.Me)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(require(access.OpCreateOrder)).Post("/", h.CreateOrder)
			r.With(require(access.OpListOrders)).Get("/", h.ListOrders)
			r.With(require(access.OpListOwnOrders)).Get("/my-orders", h.ListMyOrders)
			r.With(require(access.OpListPendingOrders)).Get("/pending", h.ListPendingOrders)
			r.With(require(access.OpViewOrder)).Get("/{id}", h.GetOrder)
			r.With(require(access.OpUpdateOrderStatus)).Put("/{id}/status", h.UpdateOrderStatus)
			r.With(require(access.OpCancelOrder)).Delete("/{id}", h.CancelOrder)
			r.With(require(access.OpRateOrder)).Post("/{id}/rating", h.RateOrder)
		})

		r.Route("/beverages", func(r chi.Router) {
			r.With(require(access.OpViewCatalog)).Get("/", h.ListBeverages)
			r.With(require(access.OpViewCatalog)).Get("/{id}", h.GetBeverage)
			r.With(require(access.OpManageCatalog)).Post("/", h.CreateBeverage)
			r.With(require(access.OpManageCatalog)).Put("/{id}", h.UpdateBeverage)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(require(access.OpManageUsers))
			r.Get("/", h.ListUsers)
			r.Put("/{id}/role", h.SetUserRole)
			r.Put("/{id}/active", h.SetUserActive)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Use(require(access.OpViewNotifications))
			r.Get("/", h.ListNotifications)
			r.Put("/{id}/read", h.MarkNotificationRead)
		})

		r.With(require(access.OpViewReports)).Get("/reports/statistics", h.Statistics)
		r.With(require(access.OpSubscribeOrderFeed)).Get("/ws", h.Subscribe)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorStatus(w, http.StatusNotFound, "Resource not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeErrorStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r
}
