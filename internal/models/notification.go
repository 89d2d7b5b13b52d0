package models

import "time"

// NotificationChannel is the delivery channel for a notification attempt.
type NotificationChannel string

const (
	ChannelPush  NotificationChannel = "push"
	ChannelSMS   NotificationChannel = "sms"
	ChannelEmail NotificationChannel = "email"
)

// TriggerType identifies a re-engagement condition evaluated by the
// scheduler. The set is closed; a new trigger must also be given a spec
// in the scheduler's trigger table (see internal/scheduler/triggers.go).
type TriggerType string

const (
	TriggerDailyReminder TriggerType = "daily_reminder"
	TriggerMissed2Days   TriggerType = "missed_2_days"
	TriggerDay7Final     TriggerType = "day7_final"
	TriggerDay3Milestone TriggerType = "day3_milestone"
)

// ParseTriggerType validates a wire-level trigger name.
func ParseTriggerType(s string) (TriggerType, bool) {
	switch t := TriggerType(s); t {
	case TriggerDailyReminder, TriggerMissed2Days, TriggerDay7Final, TriggerDay3Milestone:
		return t, true
	default:
		return "", false
	}
}

// NotificationLogEntry is one delivery attempt on one channel, stored
// append-only in the 'notification_log' table. Beyond auditing, delivered
// rows are the dedup ledger the eligibility resolver checks before
// re-sending a trigger.
type NotificationLogEntry struct {
	ID           int64               `db:"id" json:"id"`
	UserID       string              `db:"user_id" json:"user_id"`
	ProtocolID   *string             `db:"protocol_id" json:"protocol_id,omitempty"` // Nullable for non-protocol triggers
	Channel      NotificationChannel `db:"channel" json:"channel"`
	TriggerType  TriggerType         `db:"trigger_type" json:"trigger_type"`
	SentAt       time.Time           `db:"sent_at" json:"sent_at"`
	Delivered    bool                `db:"delivered" json:"delivered"`
	ErrorMessage *string             `db:"error_message" json:"error_message,omitempty"` // Nullable
	RewardTier   *string             `db:"reward_tier" json:"reward_tier,omitempty"`     // Set when a reward roll produced the message
}

// SMSContact is a user's SMS-capable contact on file.
type SMSContact struct {
	ID     string `db:"id" json:"id"`
	UserID string `db:"user_id" json:"user_id"`
	Phone  string `db:"phone" json:"phone"`
	Active bool   `db:"active" json:"active"`
}

// PushSubscription is a user's registered push endpoint.
type PushSubscription struct {
	ID       string `db:"id" json:"id"`
	UserID   string `db:"user_id" json:"user_id"`
	Endpoint string `db:"endpoint" json:"endpoint"`
	Active   bool   `db:"active" json:"active"`
}
