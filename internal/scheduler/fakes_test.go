package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

type fakeProtocolRepo struct {
	protocols []*models.Protocol
}

func (f *fakeProtocolRepo) GetByID(id string) (*models.Protocol, error) {
	for _, p := range f.protocols {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeProtocolRepo) ListActive(userID string) ([]*models.Protocol, error) {
	var out []*models.Protocol
	for _, p := range f.protocols {
		if p.Status != models.ProtocolStatusActive {
			continue
		}
		if userID != "" && p.UserID != userID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProtocolRepo) ListActiveInDayRange(minDay, maxDay int, userID string) ([]*models.Protocol, error) {
	all, _ := f.ListActive(userID)
	var out []*models.Protocol
	for _, p := range all {
		if p.CurrentDay >= minDay && p.CurrentDay <= maxDay {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProtocolRepo) ListActiveNotAdvancedSince(cutoff time.Time) ([]*models.Protocol, error) {
	var out []*models.Protocol
	for _, p := range f.protocols {
		if p.Status == models.ProtocolStatusActive && p.UpdatedAt.Before(cutoff) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProtocolRepo) AdvanceDay(id string, now time.Time) (int, error) {
	return 0, errors.New("not used in scheduler tests")
}

func (f *fakeProtocolRepo) MarkExpired(id string, now time.Time) error   { return nil }
func (f *fakeProtocolRepo) MarkCompleted(id string, now time.Time) error { return nil }
func (f *fakeProtocolRepo) Create(p *models.Protocol) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	f.protocols = append(f.protocols, p)
	return nil
}

type fakeCompletionRepo struct {
	records []*models.CompletionRecord
}

func (f *fakeCompletionRepo) ExistsForDay(protocolID string, dayNumber int) (bool, error) {
	for _, r := range f.records {
		if r.ProtocolID == protocolID && r.DayNumber == dayNumber && !r.WasSkipped {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompletionRepo) ExistsSince(protocolID string, since time.Time) (bool, error) {
	for _, r := range f.records {
		if r.ProtocolID == protocolID && !r.WasSkipped && !r.CompletedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCompletionRepo) DayCompletedAt(protocolID string, dayNumber int) (*time.Time, error) {
	for _, r := range f.records {
		if r.ProtocolID == protocolID && r.DayNumber == dayNumber && !r.WasSkipped {
			t := r.CompletedAt
			return &t, nil
		}
	}
	return nil, nil
}

func (f *fakeCompletionRepo) ListForProtocol(protocolID string) ([]*models.CompletionRecord, error) {
	var out []*models.CompletionRecord
	for _, r := range f.records {
		if r.ProtocolID == protocolID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCompletionRepo) Create(rec *models.CompletionRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	f.records = append(f.records, rec)
	return nil
}

// fakeNotificationRepo mimics the partial unique index: a second delivered
// row for the same (protocol, trigger, channel, day) is absorbed.
type fakeNotificationRepo struct {
	entries []*models.NotificationLogEntry
}

func (f *fakeNotificationRepo) Record(entry *models.NotificationLogEntry) (bool, error) {
	if entry.Delivered && entry.ProtocolID != nil {
		day := entry.SentAt.UTC().Truncate(24 * time.Hour)
		for _, e := range f.entries {
			if e.Delivered && e.ProtocolID != nil && *e.ProtocolID == *entry.ProtocolID &&
				e.TriggerType == entry.TriggerType && e.Channel == entry.Channel &&
				e.SentAt.UTC().Truncate(24*time.Hour).Equal(day) {
				return false, nil
			}
		}
	}
	entry.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, entry)
	return true, nil
}

func (f *fakeNotificationRepo) DeliveredSince(protocolID string, trigger models.TriggerType, since time.Time) (bool, error) {
	for _, e := range f.entries {
		if e.ProtocolID != nil && *e.ProtocolID == protocolID && e.TriggerType == trigger &&
			e.Delivered && !e.SentAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) EverDelivered(protocolID string, trigger models.TriggerType) (bool, error) {
	for _, e := range f.entries {
		if e.ProtocolID != nil && *e.ProtocolID == protocolID && e.TriggerType == trigger && e.Delivered {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeNotificationRepo) LastBreakthroughAt(userID string) (*time.Time, error) {
	var latest *time.Time
	for _, e := range f.entries {
		if e.UserID == userID && e.Delivered && e.RewardTier != nil && *e.RewardTier == string(models.TierBreakthrough) {
			t := e.SentAt
			if latest == nil || t.After(*latest) {
				latest = &t
			}
		}
	}
	return latest, nil
}

type fakeContactRepo struct {
	smsContacts map[string]*models.SMSContact
	pushSubs    map[string]*models.PushSubscription
}

func newFakeContactRepo() *fakeContactRepo {
	return &fakeContactRepo{
		smsContacts: make(map[string]*models.SMSContact),
		pushSubs:    make(map[string]*models.PushSubscription),
	}
}

func (f *fakeContactRepo) ActiveSMSContact(userID string) (*models.SMSContact, error) {
	return f.smsContacts[userID], nil
}

func (f *fakeContactRepo) ActivePushSubscription(userID string) (*models.PushSubscription, error) {
	return f.pushSubs[userID], nil
}

type sentPush struct {
	Endpoint, Title, Body, URL string
}

type fakePushSender struct {
	sent []sentPush
	fail bool
}

func (f *fakePushSender) Send(ctx context.Context, endpoint, title, body, url string) error {
	if f.fail {
		return errors.New("push transport unavailable")
	}
	f.sent = append(f.sent, sentPush{endpoint, title, body, url})
	return nil
}

type sentSMS struct {
	ContactID, Message string
}

type fakeSMSSender struct {
	sent []sentSMS
	fail bool
}

func (f *fakeSMSSender) Send(ctx context.Context, contactID, message string) error {
	if f.fail {
		return errors.New("sms gateway unavailable")
	}
	f.sent = append(f.sent, sentSMS{contactID, message})
	return nil
}
