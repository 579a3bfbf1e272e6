package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/application/reset"
	"github.com/baechuer/real-time-ressys/services/reset-mailer/internal/metrics"
	appctx "github.com/baechuer/real-time-ressys/services/reset-mailer/internal/pkg/context"
)

const (
	transportName = "rabbitmq"

	RoutingKeyPasswordReset = "auth.password.reset.requested"
)

// Handler is the app-layer contract that MQ consumer calls.
type Handler interface {
	Handle(ctx context.Context, req reset.Request) reset.Response
}

type Config struct {
	RabbitURL string
	Exchange  string
	Queue     string
	Prefetch  int
	Tag       string
}

// decision is what happens to a delivery once handled.
type decision string

const (
	decisionAck        decision = "ack"
	decisionDrop       decision = "drop"        // ack without effect: bad payload, 400, unknown key
	decisionDeadLetter decision = "dead_letter" // nack requeue=false -> <queue>.dlq
)

type Consumer struct {
	url      string
	exchange string
	queue    string
	prefetch int
	tag      string

	lg      zerolog.Logger
	handler Handler

	mu      sync.Mutex
	running bool
	doneCh  chan struct{}

	conn       *amqp.Connection
	ch         *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func NewConsumer(cfg Config, h Handler, lg zerolog.Logger) *Consumer {
	return &Consumer{
		url:      cfg.RabbitURL,
		exchange: cfg.Exchange,
		queue:    cfg.Queue,
		prefetch: cfg.Prefetch,
		tag:      cfg.Tag,
		handler:  h,
		lg:       lg.With().Str("component", "rabbitmq_consumer").Logger(),
	}
}

func (c *Consumer) dlxName() string { return c.queue + ".dlx" }
func (c *Consumer) dlqName() string { return c.queue + ".dlq" }

func (c *Consumer) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	if c.handler == nil {
		return fmt.Errorf("nil handler")
	}

	c.doneCh = make(chan struct{})
	c.running = true
	go c.run(ctx)
	return nil
}

func (c *Consumer) Stop(ctx context.Context) error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	doneCh := c.doneCh
	c.running = false
	c.mu.Unlock()

	c.closeConn()

	select {
	case <-doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Consumer) run(ctx context.Context) {
	defer func() {
		c.mu.Lock()
		doneCh := c.doneCh
		c.doneCh = nil
		c.running = false
		c.mu.Unlock()

		if doneCh != nil {
			close(doneCh)
		}
	}()

	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consumer supervisor exiting (ctx cancelled)")
			return
		default:
		}

		if !c.isRunning() {
			c.lg.Info().Msg("consumer supervisor exiting (stopped)")
			return
		}

		if err := c.connectAndDeclare(); err != nil {
			c.lg.Error().Err(err).Dur("backoff", backoff).Msg("connectAndDeclare failed; retrying")
			if !sleepOrDone(ctx, backoff) {
				return
			}
			backoff = minDur(backoff*2, maxBackoff)
			continue
		}

		backoff = 1 * time.Second
		c.consumeLoop(ctx)

		select {
		case <-ctx.Done():
			return
		default:
		}

		c.lg.Warn().Dur("backoff", backoff).Msg("deliveries closed; reconnecting")
		c.closeConn()

		if !sleepOrDone(ctx, backoff) {
			return
		}
		backoff = minDur(backoff*2, maxBackoff)
	}
}

func (c *Consumer) isRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

func (c *Consumer) connectAndDeclare() error {
	c.closeConn()

	conn, err := amqp.Dial(c.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("consume channel: %w", err)
	}

	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("main exchange declare: %w", err))
	}
	if err := ch.ExchangeDeclare(c.dlxName(), "fanout", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("dlx exchange declare: %w", err))
	}

	if _, err := ch.QueueDeclare(c.dlqName(), true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("dlq declare: %w", err))
	}
	if err := ch.QueueBind(c.dlqName(), "", c.dlxName(), false, nil); err != nil {
		return fail(fmt.Errorf("dlq bind: %w", err))
	}

	mainArgs := amqp.Table{"x-dead-letter-exchange": c.dlxName()}
	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, mainArgs); err != nil {
		return fail(fmt.Errorf("main queue declare: %w", err))
	}
	if err := ch.QueueBind(c.queue, RoutingKeyPasswordReset, c.exchange, false, nil); err != nil {
		return fail(fmt.Errorf("main queue bind: %w", err))
	}

	if c.prefetch > 0 {
		if err := ch.Qos(c.prefetch, 0, false); err != nil {
			return fail(fmt.Errorf("qos: %w", err))
		}
	}

	dlv, err := ch.Consume(c.queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return fail(fmt.Errorf("consume: %w", err))
	}

	c.mu.Lock()
	c.conn = conn
	c.ch = ch
	c.deliveries = dlv
	c.mu.Unlock()

	c.lg.Info().
		Str("exchange", c.exchange).
		Str("queue", c.queue).
		Str("dlq", c.dlqName()).
		Int("prefetch", c.prefetch).
		Msg("rabbitmq consumer ready")

	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	c.mu.Lock()
	deliveries := c.deliveries
	c.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			c.lg.Info().Msg("consume loop context cancelled")
			return

		case d, ok := <-deliveries:
			if !ok {
				c.lg.Warn().Msg("deliveries channel closed")
				return
			}

			start := time.Now()
			dec := c.handleDelivery(ctx, d)
			if err := settle(d, dec); err != nil {
				c.lg.Error().Err(err).Str("decision", string(dec)).Msg("settle failed")
			}
			metrics.RecordMessageConsumed(c.queue, string(dec))

			c.lg.Info().
				Str("routing_key", d.RoutingKey).
				Str("decision", string(dec)).
				Dur("took", time.Since(start)).
				Msg("message processed")
		}
	}
}

// handleDelivery makes a single handler call and maps its outcome; it never retries.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) decision {
	rk := strings.TrimSpace(d.RoutingKey)
	if rk != RoutingKeyPasswordReset {
		c.lg.Warn().
			Str("routing_key", truncateString(rk, 100)).
			Msg("unknown routing key; dropping")
		return decisionDrop
	}

	var req reset.Request
	if err := json.Unmarshal(d.Body, &req); err != nil {
		c.lg.Warn().Err(err).Msg("bad json; dropping")
		return decisionDrop
	}

	ctx = appctx.WithTransport(ctx, transportName)
	if d.MessageId != "" {
		ctx = appctx.WithRequestID(ctx, d.MessageId)
	}

	resp := c.handler.Handle(ctx, req)
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return decisionAck
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return decisionDrop
	default:
		c.lg.Error().Str("details", resp.Body.Details).Msg("delivery failed; dead-lettering")
		return decisionDeadLetter
	}
}

func settle(d amqp.Delivery, dec decision) error {
	if dec == decisionDeadLetter {
		return d.Nack(false, false)
	}
	return d.Ack(false)
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
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
	c.deliveries = nil
}

func truncateString(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
