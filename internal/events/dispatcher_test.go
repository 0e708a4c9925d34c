package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/deskflow/helpdesk/internal/domain"
)

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(EventTicketClosed, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.SubscribeAll(func(context.Context, Event) error {
		calls = append(calls, "all")
		return nil
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTicketClosed, "t1", domain.Actor{ID: "u1", Role: domain.RoleAdmin}, nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "all"}, calls)
}

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.mu.Lock()
	p.records = append(p.records, r)
	p.mu.Unlock()
	promise(r, p.err)
}

func TestKafkaSinkProducesKeyedRecord(t *testing.T) {
	producer := &fakeProducer{}
	d := NewInMemoryDispatcher(nil)
	NewKafkaSink(producer, "helpdesk.tickets", nil).Register(d)

	ticket := &domain.Ticket{ID: "t1", TicketNumber: "TCK-1", Title: "Wifi", RequesterID: "c1"}
	event := NewEvent(EventTicketCreated, ticket.ID, domain.Actor{ID: "c1", Role: domain.RoleClient},
		TicketCreatedPayload{Ticket: RefOf(ticket), Priority: domain.TicketPriorityHigh})
	require.NoError(t, d.Publish(context.Background(), event))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "helpdesk.tickets", rec.Topic)
	assert.Equal(t, "t1", string(rec.Key))
	assert.Equal(t, "event_type", rec.Headers[0].Key)
	assert.Equal(t, string(EventTicketCreated), string(rec.Headers[0].Value))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "ticket_created", decoded["type"])
	assert.Equal(t, "TCK-1", decoded["payload"].(map[string]any)["ticket"].(map[string]any)["ticket_number"])
}

func TestKafkaSinkSwallowsDeliveryErrors(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker unavailable")}
	sink := NewKafkaSink(producer, "topic", nil)
	err := sink.Handle(context.Background(), NewEvent(EventTicketDeleted, "t1", domain.Actor{}, nil))
	assert.NoError(t, err)
	assert.Len(t, producer.records, 1)
}
