package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const (
	SalePosted          = "sale.posted"
	BillCreated         = "bill.created"
	BillPaid            = "bill.paid"
	InventoryChanged    = "inventory.changed"
	ServiceSaleRecorded = "service_sale.recorded"
)

type Event struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurredAt"`
	Data       json.RawMessage `json:"data"`
}

// Publisher delivers domain events after the change is committed. Failures
// are reported but never undo the change.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, data any) error
	Close() error
}

func newEvent(eventType string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Data:       raw,
	}, nil
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, any) error { return nil }
func (NopPublisher) Close() error                                      { return nil }
