package amqp

import (
	"encoding/json"
	"time"
)

// RefreshRangeMessage asks the mirror worker to re-read a range from the
// spreadsheet. An empty Range means every configured range.
type RefreshRangeMessage struct {
	Range     string    `json:"range,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshRangeMessage creates a refresh request for rng.
func NewRefreshRangeMessage(rng, reason string) *RefreshRangeMessage {
	return &RefreshRangeMessage{
		Range:     rng,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// All reports whether the message targets every range.
func (m *RefreshRangeMessage) All() bool {
	return m.Range == ""
}

// ToJSON converts the message to JSON bytes
func (m *RefreshRangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshRangeMessageFromJSON creates a message from JSON bytes
func RefreshRangeMessageFromJSON(data []byte) (*RefreshRangeMessage, error) {
	var msg RefreshRangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
