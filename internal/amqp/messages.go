package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// Kinds and actions carried by RecordChangedEvent.
const (
	KindTransaction = "transaction"
	KindAsset       = "asset"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

var ErrMalformedEvent = errors.New("malformed record.changed event")

// RecordChangedEvent announces that the contents of a monthly record changed.
// It carries identifiers only; consumers re-read the record from the store.
type RecordChangedEvent struct {
	MonthlyRecordID string    `json:"monthly_record_id"`
	UserID          string    `json:"user_id"`
	Year            int       `json:"year"`
	Month           int       `json:"month"`
	Kind            string    `json:"kind"`
	Action          string    `json:"action"`
	Timestamp       time.Time `json:"timestamp"`
}

func NewRecordChangedEvent(recordID, userID string, year, month int, kind, action string) RecordChangedEvent {
	return RecordChangedEvent{
		MonthlyRecordID: recordID,
		UserID:          userID,
		Year:            year,
		Month:           month,
		Kind:            kind,
		Action:          action,
		Timestamp:       time.Now().UTC(),
	}
}

func (e RecordChangedEvent) Validate() error {
	if e.MonthlyRecordID == "" || e.UserID == "" {
		return ErrMalformedEvent
	}
	if e.Month < 1 || e.Month > 12 {
		return ErrMalformedEvent
	}
	return nil
}

func (e RecordChangedEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// RecordChangedEventFromJSON decodes and validates an event body.
func RecordChangedEventFromJSON(data []byte) (RecordChangedEvent, error) {
	var e RecordChangedEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return RecordChangedEvent{}, err
	}
	if err := e.Validate(); err != nil {
		return RecordChangedEvent{}, err
	}
	return e, nil
}
