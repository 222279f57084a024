package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/service"
	"github.com/mmeshcher/beverages-system/internal/token"
	"github.com/mmeshcher/beverages-system/internal/validation"
)

const internalErrorMessage = "An unexpected error occurred"

func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr),
		errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrBeverageUnavailable),
		errors.Is(err, service.ErrInvalidStateTransition):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrBeverageNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNotificationNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrDuplicateEmployeeID),
		errors.Is(err, service.ErrConcurrentUpdate),
		errors.Is(err, service.ErrAlreadyRated):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError переводит ошибку сервиса в HTTP-ответ. Подробности внутренних ошибок остаются в логе.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(op+" error",
			zap.Error(err),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
		)
		h.writeErrorStatus(w, status, internalErrorMessage)
		return
	}
	h.writeErrorStatus(w, status, err.Error())
}
