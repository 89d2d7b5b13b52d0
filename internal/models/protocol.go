package models

import "time"

// ProtocolStatus is the lifecycle state of a protocol.
type ProtocolStatus string

const (
	ProtocolStatusActive    ProtocolStatus = "active"
	ProtocolStatusCompleted ProtocolStatus = "completed"
	ProtocolStatusExpired   ProtocolStatus = "expired"
	ProtocolStatusMuted     ProtocolStatus = "muted"
)

// ProtocolMaxDay is the last day of an engagement cycle.
const ProtocolMaxDay = 7

// Protocol represents a user's 7-day engagement cycle, stored in the
// 'protocols' table. At most one protocol per user is active at a time;
// that invariant is enforced by a partial unique index, not by this code.
type Protocol struct {
	ID          string         `db:"id" json:"id"`
	UserID      string         `db:"user_id" json:"user_id"`
	CurrentDay  int            `db:"current_day" json:"current_day"` // 1..7
	Status      ProtocolStatus `db:"status" json:"status"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
	CompletedAt *time.Time     `db:"completed_at" json:"completed_at,omitempty"` // Nullable
}

// CompletionRecord represents one finished (or skipped) protocol day,
// stored append-only in the 'completion_records' table.
type CompletionRecord struct {
	ID          string    `db:"id" json:"id"`
	ProtocolID  string    `db:"protocol_id" json:"protocol_id"`
	UserID      string    `db:"user_id" json:"user_id"`
	DayNumber   int       `db:"day_number" json:"day_number"` // 1..7
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
	WasSkipped  bool      `db:"was_skipped" json:"was_skipped"`
	Response    string    `db:"response" json:"response"` // Free-text user reflection
}
