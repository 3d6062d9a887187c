package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/KasumiMercury/dietfit-notification-scheduler/internal/observability/tracing"
)

const (
	DefaultExchange = "billing.events"
	DefaultQueue    = "notification-scheduler.billing"
	prefetchCount   = 10
)

// ErrConsumerStopped reports that the broker closed the delivery channel and
// billing events are no longer being consumed.
var ErrConsumerStopped = errors.New("billing consumer stopped receiving deliveries")

type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
}

// Consumer binds a durable queue to the billing topic exchange and feeds
// deliveries to a Handler.
type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     ConsumerConfig
	handler *Handler
	wg      sync.WaitGroup
	stopped atomic.Bool
}

// NewConsumer returns nil without error when no broker URL is configured.
func NewConsumer(cfg ConsumerConfig, handler *Handler) (*Consumer, error) {
	if cfg.URL == "" {
		slog.Warn("RabbitMQ URL is empty, billing event consumption disabled")
		return nil, nil
	}
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		conn:    conn,
		channel: ch,
		cfg:     cfg,
		handler: handler,
	}, nil
}

// Start declares the topology and consumes until ctx is cancelled or the
// channel closes.
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.channel.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange %s: %w", c.cfg.Exchange, err)
	}

	if _, err := c.channel.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.cfg.Queue, err)
	}

	for _, key := range []string{RoutingKeySubscriptionCanceled, RoutingKeySubscriptionTrialExpired} {
		if err := c.channel.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind queue %s to %s with key %s: %w", c.cfg.Queue, c.cfg.Exchange, key, err)
		}
	}

	msgs, err := c.channel.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.consume(ctx, msgs)
	}()

	slog.InfoContext(ctx, "billing event consumer started",
		slog.String("exchange", c.cfg.Exchange),
		slog.String("queue", c.cfg.Queue),
	)
	return nil
}

func (c *Consumer) consume(ctx context.Context, msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-msgs:
			if !ok {
				c.stopped.Store(true)
				slog.ErrorContext(ctx, "billing delivery channel closed, cancellations from billing are no longer applied",
					slog.String("event", "billing.consume.stopped"),
					slog.String("queue", c.cfg.Queue),
				)
				return
			}
			c.process(ctx, d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	headers := make(map[string]string, len(d.Headers))
	for k, v := range d.Headers {
		if s, ok := v.(string); ok {
			headers[k] = s
		}
	}
	ctx = tracing.ExtractFromMap(ctx, headers)

	err := c.handler.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			slog.WarnContext(ctx, "failed to ack billing event", slog.String("error", ackErr.Error()))
		}
	case isPermanent(err):
		slog.WarnContext(ctx, "dropping billing event",
			slog.String("error", err.Error()),
			slog.String("routing_key", d.RoutingKey),
		)
		_ = d.Nack(false, false)
	default:
		// requeue once; a redelivered failure is dropped
		slog.ErrorContext(ctx, "failed to handle billing event",
			slog.String("error", err.Error()),
			slog.String("routing_key", d.RoutingKey),
			slog.Bool("redelivered", d.Redelivered),
		)
		_ = d.Nack(false, !d.Redelivered)
	}
}

// Check fails once the delivery channel has closed underneath the consumer,
// so readiness reflects that billing events are not being processed.
func (c *Consumer) Check(_ context.Context) error {
	if c.stopped.Load() {
		return ErrConsumerStopped
	}
	return nil
}

func (c *Consumer) Close() error {
	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	c.wg.Wait()
	if c.conn != nil {
		if cerr := c.conn.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
