package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// ContactRepository answers "what channels can reach this user right now".
type ContactRepository interface {
	ActiveSMSContact(userID string) (*models.SMSContact, error)
	ActivePushSubscription(userID string) (*models.PushSubscription, error)
}

type contactRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewContactRepository(db *sqlx.DB, logger *zap.Logger) ContactRepository {
	return &contactRepository{db: db, logger: logger}
}

func (r *contactRepository) ActiveSMSContact(userID string) (*models.SMSContact, error) {
	var contact models.SMSContact
	query := `SELECT id, user_id, phone, active FROM sms_contacts WHERE user_id = $1 AND active LIMIT 1`
	err := r.db.Get(&contact, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No SMS capability on file
		}
		return nil, err
	}
	return &contact, nil
}

func (r *contactRepository) ActivePushSubscription(userID string) (*models.PushSubscription, error) {
	var sub models.PushSubscription
	query := `SELECT id, user_id, endpoint, active FROM push_subscriptions WHERE user_id = $1 AND active LIMIT 1`
	err := r.db.Get(&sub, query, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No push subscription
		}
		return nil, err
	}
	return &sub, nil
}
