package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"contacts-server/internal/interfaces"

	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// QueueEmailVerification - queue carrying verification email requests from
// the HTTP layer to the delivery worker.
const QueueEmailVerification = "email_verification_requests"

// VerificationRequest is the message body published for each verification
// email to be sent.
type VerificationRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	BaseURL  string `json:"base_url"`
}

// Compile-time check to ensure EmailPublisher implements EmailDispatcher
var _ interfaces.EmailDispatcher = (*EmailPublisher)(nil)

// EmailPublisher enqueues verification requests into RabbitMQ so the request
// path never blocks on SMTP.
type EmailPublisher struct {
	conn   *amqp091.Connection
	ch     *amqp091.Channel
	logger *zap.Logger
}

// NewEmailPublisher opens a channel on an established connection and
// declares the durable verification queue. Reconnect handling is owned by
// the caller that holds the connection.
func NewEmailPublisher(conn *amqp091.Connection, logger *zap.Logger) (*EmailPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("rabbitmq connection is nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		QueueEmailVerification,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("failed to declare queue '%s': %w", QueueEmailVerification, err)
	}

	log := logger.Named("EmailPublisher")
	log.Info("Verification email queue declared", zap.String("queue", QueueEmailVerification))

	return &EmailPublisher{conn: conn, ch: ch, logger: log}, nil
}

// DispatchVerification publishes a verification request onto the queue.
func (p *EmailPublisher) DispatchVerification(ctx context.Context, email, username, baseURL string) error {
	body, err := json.Marshal(VerificationRequest{
		Email:    email,
		Username: username,
		BaseURL:  baseURL,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal verification request: %w", err)
	}

	err = p.ch.PublishWithContext(ctx,
		"",                     // exchange (default)
		QueueEmailVerification, // routing key
		false,                  // mandatory
		false,                  // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		p.logger.Error("Failed to publish verification request", zap.Error(err), zap.String("email", email))
		return fmt.Errorf("failed to publish verification request: %w", err)
	}

	p.logger.Debug("Verification request published", zap.String("email", email))
	return nil
}

// Close closes the RabbitMQ channel.
func (p *EmailPublisher) Close() error {
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
