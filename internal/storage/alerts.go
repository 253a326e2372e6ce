package storage

import (
	"context"
	"fmt"
)

// MarkAlertSent records that the low-score alert for recordID went out. It
// returns false when an alert was already recorded for that record.
func (s *Store) MarkAlertSent(ctx context.Context, recordID string, score int) (bool, error) {
	_, err := s.exec(ctx, `INSERT INTO alerts_sent (monthly_record_id, score, sent_at) VALUES (?, ?, ?)`,
		recordID, score, now())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("mark alert sent: %w", mapError(err))
	}
	return true, nil
}

// ClearAlert forgets a recorded alert so the next event can retry it.
func (s *Store) ClearAlert(ctx context.Context, recordID string) error {
	if _, err := s.exec(ctx, `DELETE FROM alerts_sent WHERE monthly_record_id = ?`, recordID); err != nil {
		return fmt.Errorf("clear alert: %w", err)
	}
	return nil
}
