package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/platform/mail"
	"github.com/deskflow/helpdesk/internal/platform/queue"
)

// EmailWorker drains the email queue into a transport, usually SMTP.
type EmailWorker struct {
	consumer  queue.Consumer
	queueName string
	transport mail.Sender
	logger    *zap.Logger
}

// NewEmailWorker builds the worker.
func NewEmailWorker(consumer queue.Consumer, queueName string, transport mail.Sender, logger *zap.Logger) *EmailWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailWorker{consumer: consumer, queueName: queueName, transport: transport, logger: logger}
}

// Start consumes until ctx is cancelled.
func (w *EmailWorker) Start(ctx context.Context) error {
	w.logger.Info("email worker started", zap.String("queue", w.queueName))
	return w.consumer.Consume(ctx, w.queueName, w.Handle)
}

// Handle delivers one queued message. Malformed bodies are rejected.
func (w *EmailWorker) Handle(ctx context.Context, body []byte) error {
	var msg mail.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("decode email: %w", err)
	}
	if msg.To == "" {
		return errors.New("email without recipient")
	}
	if err := w.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("deliver email to %s: %w", msg.To, err)
	}
	w.logger.Debug("email delivered", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}
