package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nackCall struct {
	tag     uint64
	requeue bool
}

// recordingAcknowledger captures ack/nack decisions for a delivery.
type recordingAcknowledger struct {
	acks  []uint64
	nacks []nackCall
}

func (a *recordingAcknowledger) Ack(tag uint64, _ bool) error {
	a.acks = append(a.acks, tag)
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, _ bool, requeue bool) error {
	a.nacks = append(a.nacks, nackCall{tag: tag, requeue: requeue})
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type stubMailer struct {
	err   error
	sent  []string
	calls int
}

func (m *stubMailer) SendVerification(_ context.Context, email, _, _ string) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func newTestConsumer(mailer VerificationMailer) *EmailConsumer {
	return &EmailConsumer{
		mailer:    mailer,
		logger:    zap.NewNop(),
		queueName: QueueEmailVerification,
		done:      make(chan error),
	}
}

func verificationDelivery(t *testing.T, ack amqp091.Acknowledger, tag uint64, redelivered bool) amqp091.Delivery {
	t.Helper()
	body, err := json.Marshal(VerificationRequest{
		Email:    "user@example.com",
		Username: "testuser",
		BaseURL:  "http://localhost:8000",
	})
	require.NoError(t, err)
	return amqp091.Delivery{
		Acknowledger: ack,
		DeliveryTag:  tag,
		Redelivered:  redelivered,
		Body:         body,
	}
}

func TestProcessDeliveryAcksOnSuccess(t *testing.T) {
	mailer := &stubMailer{}
	consumer := newTestConsumer(mailer)
	ack := &recordingAcknowledger{}

	failed := consumer.processDelivery(verificationDelivery(t, ack, 1, false))

	assert.False(t, failed)
	assert.Equal(t, []string{"user@example.com"}, mailer.sent)
	assert.Equal(t, []uint64{1}, ack.acks)
	assert.Empty(t, ack.nacks)
}

func TestProcessDeliveryRequeuesFirstFailure(t *testing.T) {
	mailer := &stubMailer{err: fmt.Errorf("smtp down")}
	consumer := newTestConsumer(mailer)
	ack := &recordingAcknowledger{}

	failed := consumer.processDelivery(verificationDelivery(t, ack, 2, false))

	assert.True(t, failed)
	require.Len(t, ack.nacks, 1)
	assert.True(t, ack.nacks[0].requeue, "a fresh delivery gets one retry")
	assert.Empty(t, ack.acks)
}

func TestProcessDeliveryDropsRedeliveredFailure(t *testing.T) {
	mailer := &stubMailer{err: fmt.Errorf("mailbox unavailable")}
	consumer := newTestConsumer(mailer)
	ack := &recordingAcknowledger{}

	failed := consumer.processDelivery(verificationDelivery(t, ack, 3, true))

	assert.True(t, failed)
	require.Len(t, ack.nacks, 1)
	assert.False(t, ack.nacks[0].requeue,
		"a redelivered message that fails again must not go back to the queue")
}

func TestProcessDeliveryDropsUnreadableMessage(t *testing.T) {
	mailer := &stubMailer{}
	consumer := newTestConsumer(mailer)
	ack := &recordingAcknowledger{}

	failed := consumer.processDelivery(amqp091.Delivery{
		Acknowledger: ack,
		DeliveryTag:  4,
		Body:         []byte("{not json"),
	})

	assert.False(t, failed)
	assert.Zero(t, mailer.calls, "unreadable messages never reach the mailer")
	require.Len(t, ack.nacks, 1)
	assert.False(t, ack.nacks[0].requeue)
}
