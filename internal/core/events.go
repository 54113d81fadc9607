package core

import "time"

// Payment event kinds.
const (
	PaymentCreated = "payment.created"
	PaymentUpdated = "payment.updated"
	PaymentDeleted = "payment.deleted"
)

// PaymentEvent records a change to the payments ledger. It is published after
// the change is committed and stored by the audit worker.
type PaymentEvent struct {
	Kind       string
	PaymentID  int64
	MemberID   string
	Amount     Money
	OccurredAt time.Time
}
