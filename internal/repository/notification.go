package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

type NotificationRepository interface {
	// Record appends one delivery attempt. Delivered rows hit the partial
	// unique index on (protocol_id, trigger_type, channel, sent_day); a
	// conflicting insert is dropped by ON CONFLICT DO NOTHING and Record
	// returns false, which is how a concurrent duplicate send loses the
	// race. Failed attempts always insert.
	Record(entry *models.NotificationLogEntry) (bool, error)
	// DeliveredSince reports whether the trigger was successfully delivered
	// for the protocol at or after the given instant, on any channel.
	DeliveredSince(protocolID string, trigger models.TriggerType, since time.Time) (bool, error)
	// EverDelivered is the one-time guard used by day3_milestone.
	EverDelivered(protocolID string, trigger models.TriggerType) (bool, error)
	// LastBreakthroughAt returns the most recent delivered entry for the
	// user carrying the pattern_breakthrough tier, or nil if there has
	// never been one.
	LastBreakthroughAt(userID string) (*time.Time, error)
}

type notificationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewNotificationRepository(db *sqlx.DB, logger *zap.Logger) NotificationRepository {
	return &notificationRepository{db: db, logger: logger}
}

func (r *notificationRepository) Record(entry *models.NotificationLogEntry) (bool, error) {
	query := `INSERT INTO notification_log
	            (user_id, protocol_id, channel, trigger_type, sent_at, sent_day, delivered, error_message, reward_tier)
	          VALUES ($1, $2, $3, $4, $5, $5::date, $6, $7, $8)
	          ON CONFLICT DO NOTHING
	          RETURNING id`
	err := r.db.QueryRowx(query,
		entry.UserID, entry.ProtocolID, entry.Channel, entry.TriggerType,
		entry.SentAt, entry.Delivered, entry.ErrorMessage, entry.RewardTier,
	).Scan(&entry.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Unique guard absorbed the insert: already delivered today.
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *notificationRepository) DeliveredSince(protocolID string, trigger models.TriggerType, since time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM notification_log
	            WHERE protocol_id = $1 AND trigger_type = $2 AND delivered AND sent_at >= $3)`
	if err := r.db.Get(&exists, query, protocolID, trigger, since); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *notificationRepository) EverDelivered(protocolID string, trigger models.TriggerType) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM notification_log
	            WHERE protocol_id = $1 AND trigger_type = $2 AND delivered)`
	if err := r.db.Get(&exists, query, protocolID, trigger); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *notificationRepository) LastBreakthroughAt(userID string) (*time.Time, error) {
	var sentAt time.Time
	query := `SELECT sent_at FROM notification_log
	          WHERE user_id = $1 AND delivered AND reward_tier = $2
	          ORDER BY sent_at DESC LIMIT 1`
	err := r.db.Get(&sentAt, query, userID, models.TierBreakthrough)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No breakthrough ever recorded
		}
		return nil, err
	}
	return &sentAt, nil
}
