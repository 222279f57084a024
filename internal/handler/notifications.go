package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ListNotifications возвращает страницу уведомлений текущего пользователя.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		h.writeError(w, r, "list notifications", err)
		return
	}

	userID, _ := identity(r)
	res, err := h.service.ListNotifications(r.Context(), userID, page)
	if err != nil {
		h.writeError(w, r, "list notifications", err)
		return
	}

	h.writeSuccess(w, "Notifications retrieved successfully", res)
}

// MarkNotificationRead помечает уведомление текущего пользователя прочитанным.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID, _ := identity(r)
	if err := h.service.MarkNotificationRead(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.writeError(w, r, "mark notification read", err)
		return
	}

	h.writeSuccess(w, "Notification marked as read", nil)
}

// Subscribe переводит соединение на WebSocket и подписывает его на обновления заказов.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, role := identity(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err), zap.String("userID", userID))
		return
	}

	h.subscriber.ServeClient(conn, userID, role)
}
