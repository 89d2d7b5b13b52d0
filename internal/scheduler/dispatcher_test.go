package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/pattern"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/reward"
)

type fixedSource struct{ v float64 }

func (f fixedSource) Float64() float64 { return f.v }

type dispatcherFixture struct {
	contacts      *fakeContactRepo
	notifications *fakeNotificationRepo
	completions   *fakeCompletionRepo
	push          *fakePushSender
	sms           *fakeSMSSender
	dispatcher    *Dispatcher
}

func newDispatcherFixture(draw float64) *dispatcherFixture {
	f := &dispatcherFixture{
		contacts:      newFakeContactRepo(),
		notifications: &fakeNotificationRepo{},
		completions:   &fakeCompletionRepo{},
		push:          &fakePushSender{},
		sms:           &fakeSMSSender{},
	}
	logger := zap.NewNop()
	engine := reward.NewEngine(reward.DefaultWeights, fixedSource{draw}, logger)
	snapshots := NewSnapshotBuilder(f.completions, f.notifications, pattern.NewKeywordClassifier())
	guard := NewInflightGuard(nil, logger) // no redis: DB guard only
	f.dispatcher = NewDispatcher(f.contacts, f.notifications, f.push, f.sms, engine, snapshots, guard, logger)
	return f
}

func (f *dispatcherFixture) givePush(userID string) {
	f.contacts.pushSubs[userID] = &models.PushSubscription{ID: "sub-" + userID, UserID: userID, Endpoint: "ep-" + userID, Active: true}
}

func (f *dispatcherFixture) giveSMS(userID string) {
	f.contacts.smsContacts[userID] = &models.SMSContact{ID: "ct-" + userID, UserID: userID, Phone: "+1555", Active: true}
}

func TestDispatchDailyReminderDay1SendsWelcomeSMS(t *testing.T) {
	f := newDispatcherFixture(0.0)
	f.givePush("u1")
	f.giveSMS("u1")

	now := time.Now().UTC()
	res := f.dispatcher.Dispatch(context.Background(), models.TriggerDailyReminder,
		Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 1}, now)

	assert.True(t, res.PushSent)
	assert.True(t, res.SMSSent)
	assert.Equal(t, models.TierStandard, res.RewardTier)
	require.Len(t, f.notifications.entries, 2, "one log row per attempted channel")
	assert.Equal(t, models.ChannelPush, f.notifications.entries[0].Channel)
	assert.Equal(t, models.ChannelSMS, f.notifications.entries[1].Channel)
}

func TestDispatchDailyReminderLaterDaySkipsSMS(t *testing.T) {
	f := newDispatcherFixture(0.0)
	f.givePush("u1")
	f.giveSMS("u1")

	res := f.dispatcher.Dispatch(context.Background(), models.TriggerDailyReminder,
		Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 3}, time.Now().UTC())

	assert.True(t, res.PushSent)
	assert.False(t, res.SMSSent)
	require.Len(t, f.notifications.entries, 1, "SMS is welcome-only for daily reminders")
}

func TestDispatchNoPushSubscriptionIsLoggedNotSkipped(t *testing.T) {
	f := newDispatcherFixture(0.0)
	f.giveSMS("u1")

	res := f.dispatcher.Dispatch(context.Background(), models.TriggerMissed2Days,
		Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 4}, time.Now().UTC())

	assert.False(t, res.PushSent)
	assert.True(t, res.SMSSent, "missing push capability must not stop the SMS channel")

	require.Len(t, f.notifications.entries, 2)
	pushEntry := f.notifications.entries[0]
	assert.False(t, pushEntry.Delivered)
	require.NotNil(t, pushEntry.ErrorMessage)
	assert.Contains(t, *pushEntry.ErrorMessage, "no active push subscription")
}

func TestDispatchDay7FinalSMSOnlyOnPushFailure(t *testing.T) {
	t.Run("push delivered, no sms", func(t *testing.T) {
		f := newDispatcherFixture(0.0)
		f.givePush("u1")
		f.giveSMS("u1")

		res := f.dispatcher.Dispatch(context.Background(), models.TriggerDay7Final,
			Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 7}, time.Now().UTC())

		assert.True(t, res.PushSent)
		assert.False(t, res.SMSSent)
		assert.Len(t, f.notifications.entries, 1)
	})

	t.Run("push failed, sms fallback", func(t *testing.T) {
		f := newDispatcherFixture(0.0)
		f.givePush("u1")
		f.giveSMS("u1")
		f.push.fail = true

		res := f.dispatcher.Dispatch(context.Background(), models.TriggerDay7Final,
			Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 7}, time.Now().UTC())

		assert.False(t, res.PushSent)
		assert.True(t, res.SMSSent)
		require.Len(t, f.notifications.entries, 2)
		assert.False(t, f.notifications.entries[0].Delivered)
		assert.True(t, f.notifications.entries[1].Delivered)
	})
}

func TestDispatchTransportFailureDegradesToLogRow(t *testing.T) {
	f := newDispatcherFixture(0.0)
	f.givePush("u1")
	f.giveSMS("u1")
	f.push.fail = true
	f.sms.fail = true

	res := f.dispatcher.Dispatch(context.Background(), models.TriggerMissed2Days,
		Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 5}, time.Now().UTC())

	assert.False(t, res.PushSent)
	assert.False(t, res.SMSSent)
	require.Len(t, f.notifications.entries, 2)
	for _, e := range f.notifications.entries {
		assert.False(t, e.Delivered)
		require.NotNil(t, e.ErrorMessage)
	}
}

func TestDispatchDedupHoldsAcrossRepeatedCycles(t *testing.T) {
	f := newDispatcherFixture(0.0)
	f.givePush("u1")

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	cand := Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 4}

	first := f.dispatcher.Dispatch(context.Background(), models.TriggerMissed2Days, cand, now)
	assert.True(t, first.PushSent)

	// Same invocation repeated: the delivered-today guard absorbs the
	// duplicate log row, so the second cycle adds nothing.
	second := f.dispatcher.Dispatch(context.Background(), models.TriggerMissed2Days, cand, now.Add(time.Minute))
	assert.False(t, second.PushSent)

	delivered := 0
	for _, e := range f.notifications.entries {
		if e.Delivered {
			delivered++
		}
	}
	assert.Equal(t, 1, delivered, "at most one delivered row per (protocol, trigger, day)")
}

func TestDispatchRewardedBreakthroughDecoratesCopy(t *testing.T) {
	f := newDispatcherFixture(0.99)
	f.givePush("u1")

	now := time.Now().UTC()
	// Six-day streak with a pattern hit in the newest reflection, and no
	// breakthrough on record: re-weighting preconditions all hold.
	for day := 1; day <= 6; day++ {
		require.NoError(t, f.completions.Create(&models.CompletionRecord{
			ID: "c", ProtocolID: "p1", UserID: "u1", DayNumber: day,
			CompletedAt: now.Add(-time.Duration(7-day) * 24 * time.Hour),
			Response:    "I keep trying to sabotage my own progress",
		}))
	}

	res := f.dispatcher.Dispatch(context.Background(), models.TriggerDailyReminder,
		Candidate{UserID: "u1", ProtocolID: "p1", DayNumber: 6}, now)

	assert.True(t, res.PushSent)
	assert.Equal(t, models.TierBreakthrough, res.RewardTier)

	require.Len(t, f.push.sent, 1)
	assert.Contains(t, f.push.sent[0].Title, "Pattern breakthrough")
	assert.Contains(t, f.push.sent[0].Body, "success_sabotage")

	entry := f.notifications.entries[0]
	require.NotNil(t, entry.RewardTier)
	assert.Equal(t, string(models.TierBreakthrough), *entry.RewardTier)
}

func TestSnapshotBuilderStreakAndSentinel(t *testing.T) {
	completions := &fakeCompletionRepo{}
	notifications := &fakeNotificationRepo{}
	b := NewSnapshotBuilder(completions, notifications, pattern.NewKeywordClassifier())
	now := time.Now().UTC()

	// Days 1-2 done, day 3 skipped, days 4-5 done: streak ends at 5 and
	// breaks on the skipped day.
	for _, day := range []int{1, 2, 4, 5} {
		require.NoError(t, completions.Create(&models.CompletionRecord{
			ProtocolID: "p1", UserID: "u1", DayNumber: day, CompletedAt: now.Add(-time.Hour),
		}))
	}
	require.NoError(t, completions.Create(&models.CompletionRecord{
		ProtocolID: "p1", UserID: "u1", DayNumber: 3, CompletedAt: now.Add(-time.Hour), WasSkipped: true,
	}))

	snap, err := b.Build("u1", "p1", now)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.CurrentStreak)
	assert.Equal(t, 30, snap.DaysSinceLastBreakthrough, "no breakthrough on record uses the sentinel")

	// A recorded breakthrough replaces the sentinel with real elapsed days.
	tier := string(models.TierBreakthrough)
	protocolID := "p1"
	notifications.entries = append(notifications.entries, &models.NotificationLogEntry{
		UserID: "u1", ProtocolID: &protocolID, Channel: models.ChannelPush,
		TriggerType: models.TriggerDailyReminder, SentAt: now.Add(-10 * 24 * time.Hour),
		Delivered: true, RewardTier: &tier,
	})
	snap, err = b.Build("u1", "p1", now)
	require.NoError(t, err)
	assert.Equal(t, 10, snap.DaysSinceLastBreakthrough)
}
