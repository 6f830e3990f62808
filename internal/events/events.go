// Package events carries workflow notifications from the services to the
// websocket hub, NATS and the metrics collector.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type Type string

const (
	KotCreated            Type = "kot.created"
	KotStatusChanged      Type = "kot.status_changed"
	StockAdditionCreated  Type = "stock_addition.created"
	StockAdditionApproved Type = "stock_addition.approved"
	StockAdditionRejected Type = "stock_addition.rejected"
	ReversalCreated       Type = "order_reversal.created"
	ReversalApproved      Type = "order_reversal.approved"
	ReversalRejected      Type = "order_reversal.rejected"
	BillCreated           Type = "bill.created"
	BillPaid              Type = "bill.paid"
)

// Event is a single workflow notification.
type Event struct {
	Type       Type            `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurred_at"`

	// Roles limits websocket delivery. Empty means every connected user.
	Roles []string `json:"-"`
}

// Publisher delivers events. Implementations must not block on slow consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// New builds an event with a JSON payload.
func New(t Type, payload any, roles ...string) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", t, err)
	}
	return Event{Type: t, Payload: b, OccurredAt: time.Now().UTC(), Roles: roles}, nil
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }
