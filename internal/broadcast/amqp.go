package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	relayExchange = "orders.fanout"
	topicHeader   = "topic"
)

// Relay пересылает сообщения через fanout-обменник RabbitMQ, чтобы их получили хабы всех экземпляров.
type Relay struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	queue  string
	local  Publisher
	logger *zap.Logger

	mu sync.Mutex
}

// DialRelay подключается к брокеру, объявляет обменник и временную очередь этого экземпляра.
func DialRelay(url string, local Publisher, logger *zap.Logger) (*Relay, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(relayExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, "", relayExchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &Relay{
		conn:   conn,
		ch:     ch,
		queue:  q.Name,
		local:  local,
		logger: logger,
	}, nil
}

// Publish отправляет сообщение в обменник. Канал указывается в заголовке.
func (r *Relay) Publish(ctx context.Context, topic string, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.ch.PublishWithContext(ctx, relayExchange, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   time.Now(),
		Headers:     amqp.Table{topicHeader: topic},
		Body:        payload,
	})
}

// Run передаёт полученные из брокера сообщения локальному хабу до отмены контекста.
func (r *Relay) Run(ctx context.Context) error {
	deliveries, err := r.ch.Consume(r.queue, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	r.logger.Info("order relay started", zap.String("queue", r.queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("rabbitmq delivery channel closed")
			}
			topic, _ := d.Headers[topicHeader].(string)
			if topic == "" {
				r.logger.Warn("relay message without topic")
				continue
			}
			if err := r.local.Publish(ctx, topic, d.Body); err != nil {
				r.logger.Warn("deliver relayed message", zap.Error(err), zap.String("topic", topic))
			}
		}
	}
}

// Close закрывает канал и соединение с брокером.
func (r *Relay) Close() error {
	var errs []error
	if r.ch != nil {
		errs = append(errs, r.ch.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
