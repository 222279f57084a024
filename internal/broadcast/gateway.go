package broadcast

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/mmeshcher/beverages-system/internal/model"
)

// Publisher доставляет готовое сообщение в канал.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}

// Frame описывает сообщение, которое получает WebSocket-клиент.
type Frame struct {
	Topic string       `json:"topic"`
	Order *model.Order `json:"order"`
}

// Gateway публикует снимок заказа в общий канал и в личный канал владельца.
// Ошибки публикации логируются и не возвращаются.
type Gateway struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewGateway создаёт шлюз поверх издателя: локального хаба или межпроцессного ретранслятора.
func NewGateway(p Publisher, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{publisher: p, logger: logger}
}

// OrderChanged рассылает текущий снимок заказа.
func (g *Gateway) OrderChanged(ctx context.Context, o *model.Order) {
	for _, topic := range []string{SharedTopic, UserTopic(o.EmployeeID)} {
		payload, err := json.Marshal(Frame{Topic: topic, Order: o})
		if err != nil {
			g.logger.Error("marshal order frame", zap.Error(err), zap.String("orderID", o.ID))
			return
		}
		if err := g.publisher.Publish(ctx, topic, payload); err != nil {
			g.logger.Error("publish order update",
				zap.Error(err),
				zap.String("orderID", o.ID),
				zap.String("topic", topic),
			)
		}
	}
}
