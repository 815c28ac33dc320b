package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/logger"
	"github.com/baechuer/real-time-ressys/services/recommendation-service/internal/metrics"
)

type Config struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
	Tag      string
}

// Consumer reads order events and feeds them to a PurchaseRecorder. It
// reconnects with backoff until Stop is called or its context ends.
type Consumer struct {
	cfg Config
	rec PurchaseRecorder
	lg  zerolog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConsumer(cfg Config, rec PurchaseRecorder) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 16
	}
	if cfg.Tag == "" {
		cfg.Tag = "recommendation-service"
	}
	return &Consumer{cfg: cfg, rec: rec, lg: logger.Component("rabbitmq_consumer")}
}

func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done != nil {
		return nil
	}
	if c.rec == nil {
		return fmt.Errorf("nil purchase recorder")
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx, c.done)
	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	done, cancel := c.done, c.cancel
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	cancel()
	c.closeConn()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for ctx.Err() == nil {
		deliveries, err := c.connect()
		if err != nil {
			c.lg.Error().Err(err).Dur("backoff", backoff).Msg("rabbitmq connect failed; retrying")
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}

		backoff = time.Second
		c.consume(ctx, deliveries)
		c.closeConn()
		if ctx.Err() == nil {
			c.lg.Warn().Msg("deliveries closed; reconnecting")
			if !sleepOrDone(ctx, backoff) {
				return
			}
		}
	}
}

func (c *Consumer) connect() (<-chan amqp.Delivery, error) {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (<-chan amqp.Delivery, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("exchange declare", err)
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fail("queue declare", err)
	}
	if err := ch.QueueBind(c.cfg.Queue, RoutingKeyOrderDelivered, c.cfg.Exchange, false, nil); err != nil {
		return fail("queue bind", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail("qos", err)
	}
	deliveries, err := ch.Consume(c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fail("consume", err)
	}

	c.mu.Lock()
	c.conn, c.ch = conn, ch
	c.mu.Unlock()

	c.lg.Info().
		Str("exchange", c.cfg.Exchange).
		Str("queue", c.cfg.Queue).
		Int("prefetch", c.cfg.Prefetch).
		Msg("rabbitmq consumer ready")
	return deliveries, nil
}

func (c *Consumer) consume(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			c.dispatch(ctx, d)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, d amqp.Delivery) {
	err := handleMessage(ctx, c.rec, d.RoutingKey, d.Body)
	ack := decide(err, d.Redelivered)
	switch ack {
	case ackOK:
		_ = d.Ack(false)
	case ackRequeue:
		_ = d.Nack(false, true)
		c.lg.Warn().Err(err).Str("message_id", d.MessageId).Msg("handle failed; requeued")
	default:
		_ = d.Nack(false, false)
		c.lg.Error().Err(err).Str("routing_key", d.RoutingKey).Msg("message dropped")
	}
	metrics.RecordMessage(d.RoutingKey, ack.String())
}

type ackAction int

const (
	ackOK ackAction = iota
	ackRequeue
	ackDrop
)

func (a ackAction) String() string {
	switch a {
	case ackOK:
		return "ok"
	case ackRequeue:
		return "requeued"
	default:
		return "dropped"
	}
}

// decide retries a transient failure once; poison messages and second
// failures are dropped.
func decide(err error, redelivered bool) ackAction {
	switch {
	case err == nil:
		return ackOK
	case errors.Is(err, errPoison), redelivered:
		return ackDrop
	default:
		return ackRequeue
	}
}

func (c *Consumer) closeConn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ch != nil {
		_ = c.ch.Close()
		c.ch = nil
	}
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
