package repository

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

const protocolColumns = `id, user_id, current_day, status, created_at, updated_at, completed_at`

type ProtocolRepository interface {
	GetByID(id string) (*models.Protocol, error)
	// ListActive returns all active protocols, optionally narrowed to one
	// user. Used as the bulk phase of eligibility resolution.
	ListActive(userID string) ([]*models.Protocol, error)
	// ListActiveInDayRange narrows the bulk phase to a current_day window.
	ListActiveInDayRange(minDay, maxDay int, userID string) ([]*models.Protocol, error)
	// ListActiveNotAdvancedSince returns active protocols whose updated_at
	// is strictly before the cutoff. The day-advancement batch uses the
	// start of the current calendar day as the cutoff, which is what makes
	// a second same-day run a no-op.
	ListActiveNotAdvancedSince(cutoff time.Time) ([]*models.Protocol, error)
	// AdvanceDay increments current_day for an active protocol and returns
	// the new day. Returns sql.ErrNoRows if the protocol is missing or not
	// active.
	AdvanceDay(id string, now time.Time) (int, error)
	MarkExpired(id string, now time.Time) error
	MarkCompleted(id string, now time.Time) error
	Create(p *models.Protocol) error
}

type protocolRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewProtocolRepository(db *sqlx.DB, logger *zap.Logger) ProtocolRepository {
	return &protocolRepository{db: db, logger: logger}
}

func (r *protocolRepository) GetByID(id string) (*models.Protocol, error) {
	var p models.Protocol
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE id = $1`
	err := r.db.Get(&p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Protocol not found
		}
		return nil, err
	}
	return &p, nil
}

func (r *protocolRepository) ListActive(userID string) ([]*models.Protocol, error) {
	var protocols []*models.Protocol
	if userID != "" {
		query := `SELECT ` + protocolColumns + ` FROM protocols WHERE status = 'active' AND user_id = $1 ORDER BY created_at`
		if err := r.db.Select(&protocols, query, userID); err != nil {
			return nil, err
		}
		return protocols, nil
	}
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE status = 'active' ORDER BY created_at`
	if err := r.db.Select(&protocols, query); err != nil {
		return nil, err
	}
	return protocols, nil
}

func (r *protocolRepository) ListActiveInDayRange(minDay, maxDay int, userID string) ([]*models.Protocol, error) {
	var protocols []*models.Protocol
	if userID != "" {
		query := `SELECT ` + protocolColumns + ` FROM protocols
		          WHERE status = 'active' AND current_day BETWEEN $1 AND $2 AND user_id = $3 ORDER BY created_at`
		if err := r.db.Select(&protocols, query, minDay, maxDay, userID); err != nil {
			return nil, err
		}
		return protocols, nil
	}
	query := `SELECT ` + protocolColumns + ` FROM protocols
	          WHERE status = 'active' AND current_day BETWEEN $1 AND $2 ORDER BY created_at`
	if err := r.db.Select(&protocols, query, minDay, maxDay); err != nil {
		return nil, err
	}
	return protocols, nil
}

func (r *protocolRepository) ListActiveNotAdvancedSince(cutoff time.Time) ([]*models.Protocol, error) {
	var protocols []*models.Protocol
	query := `SELECT ` + protocolColumns + ` FROM protocols WHERE status = 'active' AND updated_at < $1 ORDER BY created_at`
	if err := r.db.Select(&protocols, query, cutoff); err != nil {
		return nil, err
	}
	return protocols, nil
}

func (r *protocolRepository) AdvanceDay(id string, now time.Time) (int, error) {
	var newDay int
	query := `UPDATE protocols SET current_day = current_day + 1, updated_at = $1
	          WHERE id = $2 AND status = 'active' AND current_day < 7
	          RETURNING current_day`
	err := r.db.QueryRowx(query, now, id).Scan(&newDay)
	if err != nil {
		return 0, err
	}
	return newDay, nil
}

func (r *protocolRepository) MarkExpired(id string, now time.Time) error {
	query := `UPDATE protocols SET status = 'expired', completed_at = $1, updated_at = $1 WHERE id = $2 AND status = 'active'`
	_, err := r.db.Exec(query, now, id)
	return err
}

func (r *protocolRepository) MarkCompleted(id string, now time.Time) error {
	query := `UPDATE protocols SET status = 'completed', completed_at = $1, updated_at = $1 WHERE id = $2 AND status IN ('active', 'muted')`
	_, err := r.db.Exec(query, now, id)
	return err
}

func (r *protocolRepository) Create(p *models.Protocol) error {
	p.ID = ensureID(p.ID)
	query := `INSERT INTO protocols (id, user_id, current_day, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.Exec(query, p.ID, p.UserID, p.CurrentDay, p.Status, p.CreatedAt, p.UpdatedAt)
	return err
}
