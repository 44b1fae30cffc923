package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// VerificationMailer performs the actual SMTP delivery of one verification
// email.
type VerificationMailer interface {
	SendVerification(ctx context.Context, email, username, baseURL string) error
}

// EmailConsumer drains the verification queue and hands each request to the
// mailer. A failed delivery is requeued once; a redelivered message that
// fails again is dropped so it cannot wedge the queue under prefetch 1.
type EmailConsumer struct {
	conn        *amqp091.Connection
	ch          *amqp091.Channel
	mailer      VerificationMailer
	logger      *zap.Logger
	queueName   string
	consumerTag string
	done        chan error
}

// NewEmailConsumer creates a consumer on an established connection.
func NewEmailConsumer(conn *amqp091.Connection, mailer VerificationMailer, logger *zap.Logger) (*EmailConsumer, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}
	if mailer == nil {
		return nil, fmt.Errorf("verification mailer is nil")
	}

	consumerTag := fmt.Sprintf("email_consumer_%d", time.Now().UnixNano())
	consumer := &EmailConsumer{
		conn:        conn,
		mailer:      mailer,
		logger:      logger.Named("EmailConsumer").With(zap.String("consumerTag", consumerTag), zap.String("queue", QueueEmailVerification)),
		queueName:   QueueEmailVerification,
		consumerTag: consumerTag,
		done:        make(chan error),
	}

	if err := consumer.setupChannelAndQueue(); err != nil {
		return nil, fmt.Errorf("failed to setup channel and queue: %w", err)
	}
	return consumer, nil
}

func (c *EmailConsumer) setupChannelAndQueue() error {
	var err error
	c.ch, err = c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = c.ch.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to declare queue '%s': %w", c.queueName, err)
	}

	// One in-flight email per worker; SMTP is the bottleneck anyway.
	if err := c.ch.Qos(1, 0, false); err != nil {
		_ = c.ch.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	return nil
}

// StartConsuming blocks until the consumer is stopped or the channel closes.
func (c *EmailConsumer) StartConsuming() error {
	if c.ch == nil {
		return fmt.Errorf("channel is not initialized")
	}

	deliveries, err := c.ch.Consume(
		c.queueName,
		c.consumerTag,
		false, // auto-ack (manual ack after delivery)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	go c.handleDeliveries(deliveries)

	go func() {
		notifyClose := make(chan *amqp091.Error)
		c.ch.NotifyClose(notifyClose)
		select {
		case err := <-notifyClose:
			if err != nil {
				c.logger.Error("RabbitMQ channel closed unexpectedly", zap.Error(err))
				c.done <- err
			} else {
				c.done <- nil
			}
		case <-c.done:
		}
	}()

	c.logger.Info("Email consumer started", zap.String("tag", c.consumerTag))
	return <-c.done
}

func (c *EmailConsumer) handleDeliveries(deliveries <-chan amqp091.Delivery) {
	for d := range deliveries {
		if failed := c.processDelivery(d); failed {
			// Back off a little so a down SMTP server is not hammered.
			time.Sleep(1 * time.Second)
		}
	}

	c.logger.Info("Deliveries channel closed")
	select {
	case c.done <- nil:
	default:
	}
}

// processDelivery handles a single message and reports whether delivery
// failed (so the caller can back off).
func (c *EmailConsumer) processDelivery(d amqp091.Delivery) bool {
	log := c.logger.With(zap.Uint64("deliveryTag", d.DeliveryTag))

	var req VerificationRequest
	if err := json.Unmarshal(d.Body, &req); err != nil || req.Email == "" {
		log.Warn("Dropping unreadable verification request", zap.Error(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Error("Failed to nack unreadable message", zap.Error(nackErr))
		}
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	err := c.mailer.SendVerification(ctx, req.Email, req.Username, req.BaseURL)
	cancel()

	if err != nil {
		// A first failure gets one more try; a message that already failed
		// once is dropped so it cannot starve everything behind it.
		requeue := !d.Redelivered
		log.Error("Verification email delivery failed",
			zap.Error(err), zap.String("email", req.Email), zap.Bool("requeue", requeue))
		if nackErr := d.Nack(false, requeue); nackErr != nil {
			log.Error("Failed to nack message", zap.Error(nackErr))
		}
		return true
	}

	log.Info("Verification email sent", zap.String("email", req.Email))
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("Failed to ack message", zap.Error(ackErr))
	}
	return false
}

// Stop cancels the subscription and closes the channel.
func (c *EmailConsumer) Stop() error {
	if c.ch == nil {
		return nil
	}

	if err := c.ch.Cancel(c.consumerTag, false); err != nil {
		c.logger.Error("Failed to cancel consumer", zap.Error(err))
	}
	if err := c.ch.Close(); err != nil {
		c.logger.Error("Failed to close RabbitMQ channel", zap.Error(err))
	}

	select {
	case c.done <- nil:
	default:
	}
	return nil
}
