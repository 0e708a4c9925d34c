package events

import (
	"context"
	"encoding/json"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// RecordProducer is the subset of *kgo.Client the sink needs.
type RecordProducer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// KafkaSink exports every dispatched event to a Kafka topic, keyed by ticket
// id so events of one ticket stay ordered within a partition.
type KafkaSink struct {
	producer RecordProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaSink builds a sink.
func NewKafkaSink(producer RecordProducer, topic string, logger *zap.Logger) *KafkaSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaSink{producer: producer, topic: topic, logger: logger}
}

// NewKafkaClient dials the brokers with franz-go.
func NewKafkaClient(brokers []string, clientID string) (*kgo.Client, error) {
	opts := []kgo.Opt{kgo.SeedBrokers(brokers...)}
	if clientID != "" {
		opts = append(opts, kgo.ClientID(clientID))
	}
	return kgo.NewClient(opts...)
}

// Register subscribes the sink to all events.
func (s *KafkaSink) Register(dispatcher Dispatcher) {
	dispatcher.SubscribeAll(s.Handle)
}

// Handle queues the event asynchronously. Delivery failures are logged.
func (s *KafkaSink) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(event.TicketID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	// The request context ends with the HTTP response; delivery must outlive it.
	s.producer.Produce(context.WithoutCancel(ctx), record, func(r *kgo.Record, err error) {
		if err != nil {
			s.logger.Warn("kafka export failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	})
	return nil
}
