package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chancat/channel-catalog-go/internal/config"
	"github.com/chancat/channel-catalog-go/internal/service/digest"
	"github.com/chancat/channel-catalog-go/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const confirmTimeout = 5 * time.Second

// RabbitMQNotifier publishes digests as persistent JSON messages to a
// topic exchange with publisher confirms.
type RabbitMQNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	logger  *zap.Logger
	mu      sync.RWMutex
}

// NewRabbitMQNotifier connects and declares the exchange, queue and binding.
func NewRabbitMQNotifier(cfg config.RabbitMQConfig, log *zap.Logger) (*RabbitMQNotifier, error) {
	n := &RabbitMQNotifier{
		config: cfg,
		logger: logger.OrNop(log),
	}

	if err := n.connect(); err != nil {
		return nil, err
	}

	return n, nil
}

func (n *RabbitMQNotifier) connect() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	conn, err := amqp.Dial(n.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		n.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Digests are weekly; a month of backlog is plenty.
	_, err = ch.QueueDeclare(
		n.config.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		amqp.Table{
			"x-message-ttl": int64(30 * 24 * time.Hour / time.Millisecond),
			"x-max-length":  1000,
		},
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare queue: %w", err)
	}

	if err := ch.QueueBind(n.config.Queue, n.config.RoutingKey, n.config.Exchange, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to bind queue: %w", err)
	}

	n.conn = conn
	n.channel = ch

	n.logger.Info("connected to RabbitMQ",
		zap.String("exchange", n.config.Exchange),
		zap.String("queue", n.config.Queue),
	)

	return nil
}

// Name implements Notifier.
func (n *RabbitMQNotifier) Name() string { return "rabbitmq" }

// Notify implements Notifier.
func (n *RabbitMQNotifier) Notify(ctx context.Context, d *digest.Digest) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.channel == nil {
		return errors.New("channel is not initialized")
	}

	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal digest: %w", err)
	}

	confirm, err := n.channel.PublishWithDeferredConfirmWithContext(
		ctx,
		n.config.Exchange,
		n.config.RoutingKey,
		true,  // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    d.GeneratedAt,
			MessageId:    d.ID.String(),
			Type:         "catalog.digest",
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, confirmTimeout)
	defer cancel()

	acked, err := confirm.WaitContext(waitCtx)
	if err != nil {
		return fmt.Errorf("waiting for publish confirmation: %w", err)
	}
	if !acked {
		return errors.New("message was not acknowledged by broker")
	}

	n.logger.Debug("published digest to RabbitMQ",
		zap.String("digest_id", d.ID.String()),
		zap.String("routing_key", n.config.RoutingKey),
	)

	return nil
}

// Close closes the channel and the connection.
func (n *RabbitMQNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	var errs []error
	if n.channel != nil {
		if err := n.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		n.channel = nil
	}
	if n.conn != nil {
		if err := n.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		n.conn = nil
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("errors closing publisher: %w", err)
	}

	n.logger.Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection is open.
func (n *RabbitMQNotifier) IsHealthy() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	return n.conn != nil && !n.conn.IsClosed() && n.channel != nil
}
