package scheduler

import (
	"fmt"
	"time"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/pattern"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/repository"
)

// neverBreakthroughDays is the stand-in dry spell when a user has no
// recorded breakthrough at all, so a first one stays reachable.
const neverBreakthroughDays = 30

// SnapshotBuilder recomputes a user's engagement view per invocation from
// completion records and the notification log. Nothing here is cached
// between invocations.
type SnapshotBuilder struct {
	completions   repository.CompletionRepository
	notifications repository.NotificationRepository
	classifier    pattern.Classifier
}

func NewSnapshotBuilder(
	completions repository.CompletionRepository,
	notifications repository.NotificationRepository,
	classifier pattern.Classifier,
) *SnapshotBuilder {
	return &SnapshotBuilder{
		completions:   completions,
		notifications: notifications,
		classifier:    classifier,
	}
}

// Build assembles the snapshot for one candidate. The streak counts
// consecutive non-skipped days ending at the newest completed day, and
// the classifier runs over that completion's free-text response.
func (b *SnapshotBuilder) Build(userID, protocolID string, now time.Time) (models.EngagementSnapshot, error) {
	records, err := b.completions.ListForProtocol(protocolID)
	if err != nil {
		return models.EngagementSnapshot{}, fmt.Errorf("failed to load completions for %s: %w", protocolID, err)
	}

	snap := models.EngagementSnapshot{}

	completedDays := make(map[int]bool)
	latestResponse := ""
	latestDay := 0
	for _, rec := range records {
		if rec.WasSkipped {
			continue
		}
		completedDays[rec.DayNumber] = true
		if rec.DayNumber > latestDay {
			latestDay = rec.DayNumber
			latestResponse = rec.Response
		}
	}
	for day := latestDay; day >= 1 && completedDays[day]; day-- {
		snap.CurrentStreak++
	}

	if latestResponse != "" {
		snap.Hits = b.classifier.Classify(latestResponse)
	}

	lastBreakthrough, err := b.notifications.LastBreakthroughAt(userID)
	if err != nil {
		return models.EngagementSnapshot{}, fmt.Errorf("failed to load breakthrough history for %s: %w", userID, err)
	}
	if lastBreakthrough == nil {
		snap.DaysSinceLastBreakthrough = neverBreakthroughDays
	} else {
		snap.DaysSinceLastBreakthrough = int(now.Sub(*lastBreakthrough).Hours() / 24)
	}

	return snap, nil
}
