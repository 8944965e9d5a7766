package amqp

import (
	"encoding/json"
	"time"
)

// BudgetCheckMessage asks the worker to re-evaluate the budgets of one tracker.
// It carries only identifiers; the worker reads current figures from the database.
type BudgetCheckMessage struct {
	UserID    int64     `json:"user_id"`
	TrackerID int64     `json:"tracker_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetCheckMessage(userID, trackerID int64, reason string) *BudgetCheckMessage {
	return &BudgetCheckMessage{
		UserID:    userID,
		TrackerID: trackerID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m *BudgetCheckMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetCheckMessageFromJSON(data []byte) (*BudgetCheckMessage, error) {
	var msg BudgetCheckMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
