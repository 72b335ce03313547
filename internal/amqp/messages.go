package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TransactionExportMessage signals that a ledger transaction is ready
// for export. It carries only the ID; the worker fetches the full row
// from the database so the queue never holds stale amounts.
type TransactionExportMessage struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionExportMessage creates a new export message.
func NewTransactionExportMessage(id uuid.UUID) *TransactionExportMessage {
	return &TransactionExportMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *TransactionExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionExportMessageFromJSON creates a message from JSON bytes.
func TransactionExportMessageFromJSON(data []byte) (*TransactionExportMessage, error) {
	var msg TransactionExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
