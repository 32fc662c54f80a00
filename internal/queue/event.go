// Package queue defines message payloads exchanged over the message broker
// and the background consumer that drains them.
package queue

// TransactionRecordedQueue is the broker queue carrying recorded-transaction
// events.
const TransactionRecordedQueue = "transaction.recorded"

// TransactionRecordedEvent is published after a transaction is persisted.
// It carries enough for downstream consumers (audit log, analytics) without
// a round-trip to the primary database.
type TransactionRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	UserID        uint64 `json:"user_id"`
	AmountCents   int64  `json:"amount_cents"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	Date          string `json:"date"`
	RecordedAt    string `json:"recorded_at"`
}
