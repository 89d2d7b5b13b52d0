package scheduler

import (
	"time"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// smsRule is a trigger's secondary-channel policy. Push is always the
// primary channel; the rule decides when SMS follows it.
type smsRule int

const (
	// smsFirstDayWelcome sends SMS alongside push only on protocol day 1.
	smsFirstDayWelcome smsRule = iota
	// smsWhenContactOnFile always sends SMS if the user has a contact.
	smsWhenContactOnFile
	// smsOnPushFailure sends SMS only when the push attempt failed.
	smsOnPushFailure
)

// triggerSpec binds one trigger type to its bulk narrowing query, its
// per-protocol refinement predicate (completion joins + dedup), and its
// dispatch policy. The trigger set is closed: specFor's switch is the
// single place a new trigger gets wired.
type triggerSpec struct {
	bulk   func(r *Resolver, userID string) ([]*models.Protocol, error)
	refine func(r *Resolver, p *models.Protocol, now time.Time) (bool, error)
	sms    smsRule
	// rewarded marks the interactive-reply trigger whose copy goes through
	// the reward engine.
	rewarded bool
}

func specFor(trigger models.TriggerType) (triggerSpec, bool) {
	switch trigger {
	case models.TriggerDailyReminder:
		return triggerSpec{
			bulk: func(r *Resolver, userID string) ([]*models.Protocol, error) {
				return r.protocols.ListActive(userID)
			},
			// Fires for every active protocol; the once-per-day cap comes
			// from the invocation cadence and the log's unique index.
			refine: func(r *Resolver, p *models.Protocol, now time.Time) (bool, error) {
				return p.CurrentDay <= models.ProtocolMaxDay, nil
			},
			sms:      smsFirstDayWelcome,
			rewarded: true,
		}, true

	case models.TriggerMissed2Days:
		return triggerSpec{
			bulk: func(r *Resolver, userID string) ([]*models.Protocol, error) {
				return r.protocols.ListActiveInDayRange(3, models.ProtocolMaxDay, userID)
			},
			refine: func(r *Resolver, p *models.Protocol, now time.Time) (bool, error) {
				completed, err := r.completions.ExistsSince(p.ID, now.Add(-2*24*time.Hour))
				if err != nil || completed {
					return false, err
				}
				sent, err := r.notifications.DeliveredSince(p.ID, models.TriggerMissed2Days, now.Add(-24*time.Hour))
				if err != nil {
					return false, err
				}
				return !sent, nil
			},
			sms: smsWhenContactOnFile,
		}, true

	case models.TriggerDay7Final:
		return triggerSpec{
			bulk: func(r *Resolver, userID string) ([]*models.Protocol, error) {
				return r.protocols.ListActiveInDayRange(models.ProtocolMaxDay, models.ProtocolMaxDay, userID)
			},
			refine: func(r *Resolver, p *models.Protocol, now time.Time) (bool, error) {
				day6Done, err := r.completions.ExistsForDay(p.ID, 6)
				if err != nil || !day6Done {
					return false, err
				}
				day7Done, err := r.completions.ExistsForDay(p.ID, 7)
				if err != nil || day7Done {
					return false, err
				}
				sent, err := r.notifications.DeliveredSince(p.ID, models.TriggerDay7Final, now.Add(-24*time.Hour))
				if err != nil {
					return false, err
				}
				return !sent, nil
			},
			sms: smsOnPushFailure,
		}, true

	case models.TriggerDay3Milestone:
		return triggerSpec{
			bulk: func(r *Resolver, userID string) ([]*models.Protocol, error) {
				return r.protocols.ListActiveInDayRange(4, models.ProtocolMaxDay, userID)
			},
			refine: func(r *Resolver, p *models.Protocol, now time.Time) (bool, error) {
				// Window anchors to the day-3 completion, not to now.
				completedAt, err := r.completions.DayCompletedAt(p.ID, 3)
				if err != nil || completedAt == nil {
					return false, err
				}
				if now.Sub(*completedAt) > 24*time.Hour {
					return false, nil
				}
				// One-time celebration: never repeat for this protocol.
				sent, err := r.notifications.EverDelivered(p.ID, models.TriggerDay3Milestone)
				if err != nil {
					return false, err
				}
				return !sent, nil
			},
			sms: smsWhenContactOnFile,
		}, true
	}
	return triggerSpec{}, false
}
