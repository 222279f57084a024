package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
	"github.com/mmeshcher/beverages-system/internal/repository"
)

const (
	dispatchInterval  = 2 * time.Second
	dispatchBatchSize = 100
)

var statusTitles = map[model.OrderStatus]string{
	model.OrderStatusPending:   "Order received",
	model.OrderStatusPreparing: "Order is being prepared",
	model.OrderStatusReady:     "Order is ready",
	model.OrderStatusDelivered: "Order delivered",
	model.OrderStatusCancelled: "Order cancelled",
}

// notifyStatus сохраняет уведомление владельцу заказа о смене статуса. Ошибки только логируются.
func (s *Service) notifyStatus(ctx context.Context, o *model.Order) {
	n := &model.Notification{
		ID:     uuid.NewString(),
		UserID: o.EmployeeID,
		Title:  statusTitles[o.Status],
		Body:   fmt.Sprintf("Your order %s is now %s", shortID(o.ID), o.Status),
		Type:   model.NotificationTypeOrderStatus,
		Data: map[string]string{
			"orderId": o.ID,
			"status":  string(o.Status),
		},
		CreatedAt: s.now(),
	}

	if err := s.repo.CreateNotification(ctx, n); err != nil {
		s.logger.Error("create notification", zap.Error(err), zap.String("orderID", o.ID))
	}
}

// ListNotifications возвращает страницу уведомлений пользователя.
func (s *Service) ListNotifications(ctx context.Context, userID string, page model.PageRequest) (model.Page[model.Notification], error) {
	return s.repo.ListNotificationsByUser(ctx, userID, page)
}

// MarkNotificationRead помечает уведомление пользователя прочитанным.
func (s *Service) MarkNotificationRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkNotificationRead(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// StartNotificationDispatch запускает фоновую отправку уведомлений во внешний шлюз.
func (s *Service) StartNotificationDispatch(ctx context.Context) {
	if s.pusher == nil {
		return
	}

	go func() {
		ticker := time.NewTicker(dispatchInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.processNotificationBatch(ctx)
			}
		}
	}()
}

// processNotificationBatch отправляет очередную порцию уведомлений. Курсор сдвигается за
// обработанную порцию, поэтому неудачные отправки не заслоняют более новые уведомления.
// После неполной порции обход очереди начинается заново.
func (s *Service) processNotificationBatch(ctx context.Context) {
	pending, err := s.repo.ListUnsentNotifications(ctx, s.dispatchCursor, dispatchBatchSize)
	if err != nil {
		s.logger.Error("list unsent notifications", zap.Error(err))
		return
	}

	if len(pending) < dispatchBatchSize {
		s.dispatchCursor = model.NotificationCursor{}
	} else {
		last := pending[len(pending)-1]
		s.dispatchCursor = model.NotificationCursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	for _, n := range pending {
		if ctx.Err() != nil {
			return
		}
		if err := s.pusher.Send(ctx, n); err != nil {
			s.logger.Warn("push notification", zap.Error(err), zap.String("notificationID", n.ID))
			continue
		}
		if err := s.repo.MarkNotificationSent(ctx, n.ID); err != nil {
			s.logger.Error("mark notification sent", zap.Error(err), zap.String("notificationID", n.ID))
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
