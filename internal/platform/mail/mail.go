// Package mail delivers outbound email directly over SMTP or through a queue.
package mail

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/deskflow/helpdesk/internal/platform/queue"
)

// Message is an outbound HTML email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}

// Sender delivers a message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends through an SMTP relay.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPSender builds a sender for host:port.
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{dialer: gomail.NewDialer(host, port, username, password), from: from}
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

// QueueSender hands messages to a worker through a durable queue.
type QueueSender struct {
	publisher queue.Publisher
	queueName string
}

// NewQueueSender publishes to queueName.
func NewQueueSender(publisher queue.Publisher, queueName string) *QueueSender {
	return &QueueSender{publisher: publisher, queueName: queueName}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	return s.publisher.Publish(ctx, s.queueName, msg)
}

// LogSender only logs. Used when no mail transport is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent, no transport configured",
		zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

// ErrQueueFull is returned when the async buffer cannot take another message.
var ErrQueueFull = errors.New("mail: send queue full")

// AsyncSender decouples callers from delivery latency. Send enqueues and
// returns at once; a background goroutine delivers and logs failures.
type AsyncSender struct {
	next   Sender
	queue  chan Message
	logger *zap.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAsyncSender starts the delivery goroutine.
func NewAsyncSender(next Sender, size int, logger *zap.Logger) *AsyncSender {
	if size <= 0 {
		size = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AsyncSender{next: next, queue: make(chan Message, size), logger: logger}
	s.wg.Add(1)
	go s.run()
	return s
}

func (s *AsyncSender) run() {
	defer s.wg.Done()
	for msg := range s.queue {
		if err := s.next.Send(context.Background(), msg); err != nil {
			s.logger.Warn("email delivery failed",
				zap.String("to", msg.To), zap.String("subject", msg.Subject), zap.Error(err))
		}
	}
}

func (s *AsyncSender) Send(_ context.Context, msg Message) error {
	select {
	case s.queue <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close drains pending messages and stops the goroutine.
func (s *AsyncSender) Close() {
	s.once.Do(func() { close(s.queue) })
	s.wg.Wait()
}
