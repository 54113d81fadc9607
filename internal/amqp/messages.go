package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"bigboss/internal/core"
)

// PaymentEventMessage is the wire form of core.PaymentEvent.
type PaymentEventMessage struct {
	Kind        string    `json:"kind"`
	PaymentID   int64     `json:"payment_id"`
	MemberID    string    `json:"member_id"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewPaymentEventMessage(e core.PaymentEvent) *PaymentEventMessage {
	return &PaymentEventMessage{
		Kind:        e.Kind,
		PaymentID:   e.PaymentID,
		MemberID:    e.MemberID,
		AmountCents: e.Amount.Cents,
		OccurredAt:  e.OccurredAt.UTC(),
		Timestamp:   time.Now().UTC(),
	}
}

func (m *PaymentEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Event converts the message back to the domain type.
func (m *PaymentEventMessage) Event() core.PaymentEvent {
	return core.PaymentEvent{
		Kind:       m.Kind,
		PaymentID:  m.PaymentID,
		MemberID:   m.MemberID,
		Amount:     core.NewMoney(m.AmountCents),
		OccurredAt: m.OccurredAt,
	}
}

// PaymentEventMessageFromJSON decodes and sanity-checks a delivery body.
func PaymentEventMessageFromJSON(data []byte) (*PaymentEventMessage, error) {
	var msg PaymentEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Kind {
	case core.PaymentCreated, core.PaymentUpdated, core.PaymentDeleted:
	default:
		return nil, fmt.Errorf("unknown payment event kind %q", msg.Kind)
	}
	if msg.PaymentID <= 0 {
		return nil, fmt.Errorf("payment event without payment id")
	}
	return &msg, nil
}
