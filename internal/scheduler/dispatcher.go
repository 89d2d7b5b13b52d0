package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/metrics"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/repository"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/reward"
)

// PushSender is the outbound push transport boundary.
type PushSender interface {
	Send(ctx context.Context, endpoint, title, body, url string) error
}

// SMSSender is the outbound SMS transport boundary.
type SMSSender interface {
	Send(ctx context.Context, contactID, message string) error
}

// transportTimeout bounds each external channel call. A slow transport
// degrades to "not delivered", never to a blocked batch.
const transportTimeout = 10 * time.Second

// DispatchResult is the per-candidate outcome reported back to the caller.
type DispatchResult struct {
	UserID     string            `json:"user_id"`
	ProtocolID string            `json:"protocol_id"`
	DayNumber  int               `json:"day_number"`
	PushSent   bool              `json:"push_sent"`
	SMSSent    bool              `json:"sms_sent"`
	RewardTier models.RewardTier `json:"reward_tier,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Dispatcher sends one notification per eligible candidate: push first,
// SMS under the trigger's policy, one immutable log row per attempted
// channel.
type Dispatcher struct {
	contacts      repository.ContactRepository
	notifications repository.NotificationRepository
	push          PushSender
	sms           SMSSender
	rewards       *reward.Engine
	snapshots     *SnapshotBuilder
	inflight      *InflightGuard
	logger        *zap.Logger
}

func NewDispatcher(
	contacts repository.ContactRepository,
	notifications repository.NotificationRepository,
	push PushSender,
	sms SMSSender,
	rewards *reward.Engine,
	snapshots *SnapshotBuilder,
	inflight *InflightGuard,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		contacts:      contacts,
		notifications: notifications,
		push:          push,
		sms:           sms,
		rewards:       rewards,
		snapshots:     snapshots,
		inflight:      inflight,
		logger:        logger,
	}
}

// Dispatch handles one candidate. Every failure mode inside it degrades
// to a log row and a result field; it never propagates a transport or
// capability problem up to the batch.
func (d *Dispatcher) Dispatch(ctx context.Context, trigger models.TriggerType, cand Candidate, now time.Time) DispatchResult {
	result := DispatchResult{
		UserID:     cand.UserID,
		ProtocolID: cand.ProtocolID,
		DayNumber:  cand.DayNumber,
	}

	spec, ok := specFor(trigger)
	if !ok {
		result.Error = "unknown trigger type"
		return result
	}

	if !d.inflight.Acquire(ctx, cand.ProtocolID, trigger, cand.DayNumber) {
		result.Error = "dispatch already in flight for this candidate"
		return result
	}
	defer d.inflight.Release(ctx, cand.ProtocolID, trigger, cand.DayNumber)

	msg := copyFor(trigger, cand.DayNumber)
	var tier *string
	if spec.rewarded {
		snap, err := d.snapshots.Build(cand.UserID, cand.ProtocolID, now)
		if err != nil {
			// Fall back to plain copy; the reminder still goes out.
			d.logger.Warn("Failed to build engagement snapshot, sending standard copy",
				zap.String("protocol_id", cand.ProtocolID), zap.Error(err))
		} else {
			roll := d.rewards.Roll(snap)
			metrics.RewardRollsTotal.WithLabelValues(string(roll.Tier)).Inc()
			msg = decorate(msg, roll)
			result.RewardTier = roll.Tier
			t := string(roll.Tier)
			tier = &t
		}
	}

	pushDelivered := d.attemptPush(ctx, trigger, cand, msg, tier, now, &result)

	wantSMS := false
	switch spec.sms {
	case smsFirstDayWelcome:
		wantSMS = cand.DayNumber == 1
	case smsWhenContactOnFile:
		wantSMS = true
	case smsOnPushFailure:
		wantSMS = !pushDelivered
	}
	if wantSMS {
		d.attemptSMS(ctx, trigger, cand, msg, now, &result)
	}

	return result
}

// attemptPush tries the primary channel and logs exactly one entry.
// Returns whether the transport actually delivered.
func (d *Dispatcher) attemptPush(ctx context.Context, trigger models.TriggerType, cand Candidate, msg messageCopy, tier *string, now time.Time, result *DispatchResult) bool {
	entry := &models.NotificationLogEntry{
		UserID:      cand.UserID,
		ProtocolID:  &cand.ProtocolID,
		Channel:     models.ChannelPush,
		TriggerType: trigger,
		SentAt:      now,
		RewardTier:  tier,
	}

	sub, err := d.contacts.ActivePushSubscription(cand.UserID)
	switch {
	case err != nil:
		reason := "push subscription lookup failed: " + err.Error()
		entry.ErrorMessage = &reason
	case sub == nil:
		// Absence of capability is itself a fact worth logging.
		reason := "no active push subscription"
		entry.ErrorMessage = &reason
	default:
		sendCtx, cancel := context.WithTimeout(ctx, transportTimeout)
		err := d.push.Send(sendCtx, sub.Endpoint, msg.Title, msg.Body, msg.URL)
		cancel()
		if err != nil {
			reason := err.Error()
			entry.ErrorMessage = &reason
		} else {
			entry.Delivered = true
		}
	}

	inserted, recErr := d.notifications.Record(entry)
	if recErr != nil {
		// A lost log write must surface: the log is the dedup ledger.
		d.logger.Error("Failed to record push attempt",
			zap.String("protocol_id", cand.ProtocolID), zap.Error(recErr))
		result.Error = "failed to record push attempt: " + recErr.Error()
		return false
	}
	if entry.Delivered && !inserted {
		// Another invocation logged a delivered push for this day first.
		d.logger.Warn("Duplicate push delivery suppressed by dedup guard",
			zap.String("protocol_id", cand.ProtocolID), zap.String("trigger", string(trigger)))
		return true
	}

	if entry.Delivered {
		result.PushSent = true
		metrics.NotificationsSentTotal.WithLabelValues(string(trigger), string(models.ChannelPush)).Inc()
	} else {
		metrics.NotificationsFailedTotal.WithLabelValues(string(trigger), string(models.ChannelPush)).Inc()
		if entry.ErrorMessage != nil {
			result.Error = *entry.ErrorMessage
		}
	}
	return entry.Delivered
}

// attemptSMS tries the secondary channel and logs exactly one entry.
func (d *Dispatcher) attemptSMS(ctx context.Context, trigger models.TriggerType, cand Candidate, msg messageCopy, now time.Time, result *DispatchResult) {
	entry := &models.NotificationLogEntry{
		UserID:      cand.UserID,
		ProtocolID:  &cand.ProtocolID,
		Channel:     models.ChannelSMS,
		TriggerType: trigger,
		SentAt:      now,
	}

	contact, err := d.contacts.ActiveSMSContact(cand.UserID)
	switch {
	case err != nil:
		reason := "sms contact lookup failed: " + err.Error()
		entry.ErrorMessage = &reason
	case contact == nil:
		reason := "no sms contact on file"
		entry.ErrorMessage = &reason
	default:
		sendCtx, cancel := context.WithTimeout(ctx, transportTimeout)
		err := d.sms.Send(sendCtx, contact.ID, msg.Title+": "+msg.Body)
		cancel()
		if err != nil {
			reason := err.Error()
			entry.ErrorMessage = &reason
		} else {
			entry.Delivered = true
		}
	}

	inserted, recErr := d.notifications.Record(entry)
	if recErr != nil {
		d.logger.Error("Failed to record sms attempt",
			zap.String("protocol_id", cand.ProtocolID), zap.Error(recErr))
		if result.Error == "" {
			result.Error = "failed to record sms attempt: " + recErr.Error()
		}
		return
	}
	if entry.Delivered && !inserted {
		d.logger.Warn("Duplicate sms delivery suppressed by dedup guard",
			zap.String("protocol_id", cand.ProtocolID), zap.String("trigger", string(trigger)))
		return
	}

	if entry.Delivered {
		result.SMSSent = true
		metrics.NotificationsSentTotal.WithLabelValues(string(trigger), string(models.ChannelSMS)).Inc()
	} else {
		metrics.NotificationsFailedTotal.WithLabelValues(string(trigger), string(models.ChannelSMS)).Inc()
	}
}
