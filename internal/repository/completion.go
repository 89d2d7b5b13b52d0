package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

type CompletionRepository interface {
	// ExistsForDay reports whether a non-skipped completion exists for the
	// given protocol day. Duplicates are tolerated upstream; any one row
	// satisfies "day N is done".
	ExistsForDay(protocolID string, dayNumber int) (bool, error)
	// ExistsSince reports whether any non-skipped completion landed at or
	// after the given instant.
	ExistsSince(protocolID string, since time.Time) (bool, error)
	// DayCompletedAt returns when the given day was completed, or nil if
	// it never was.
	DayCompletedAt(protocolID string, dayNumber int) (*time.Time, error)
	// ListForProtocol returns all completions newest-first, skipped rows
	// included. Streak computation filters them.
	ListForProtocol(protocolID string) ([]*models.CompletionRecord, error)
	Create(rec *models.CompletionRecord) error
}

type completionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewCompletionRepository(db *sqlx.DB, logger *zap.Logger) CompletionRepository {
	return &completionRepository{db: db, logger: logger}
}

func (r *completionRepository) ExistsForDay(protocolID string, dayNumber int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM completion_records
	            WHERE protocol_id = $1 AND day_number = $2 AND was_skipped = FALSE)`
	if err := r.db.Get(&exists, query, protocolID, dayNumber); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *completionRepository) ExistsSince(protocolID string, since time.Time) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (
	            SELECT 1 FROM completion_records
	            WHERE protocol_id = $1 AND completed_at >= $2 AND was_skipped = FALSE)`
	if err := r.db.Get(&exists, query, protocolID, since); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *completionRepository) DayCompletedAt(protocolID string, dayNumber int) (*time.Time, error) {
	var completedAt time.Time
	query := `SELECT completed_at FROM completion_records
	          WHERE protocol_id = $1 AND day_number = $2 AND was_skipped = FALSE
	          ORDER BY completed_at DESC LIMIT 1`
	err := r.db.Get(&completedAt, query, protocolID, dayNumber)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Day never completed
		}
		return nil, err
	}
	return &completedAt, nil
}

func (r *completionRepository) ListForProtocol(protocolID string) ([]*models.CompletionRecord, error) {
	var records []*models.CompletionRecord
	query := `SELECT id, protocol_id, user_id, day_number, completed_at, was_skipped, response
	          FROM completion_records WHERE protocol_id = $1 ORDER BY day_number DESC, completed_at DESC`
	if err := r.db.Select(&records, query, protocolID); err != nil {
		return nil, err
	}
	return records, nil
}

func (r *completionRepository) Create(rec *models.CompletionRecord) error {
	rec.ID = ensureID(rec.ID)
	query := `INSERT INTO completion_records (id, protocol_id, user_id, day_number, completed_at, was_skipped, response)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.Exec(query, rec.ID, rec.ProtocolID, rec.UserID, rec.DayNumber, rec.CompletedAt, rec.WasSkipped, rec.Response)
	return err
}
