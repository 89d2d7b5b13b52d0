package scheduler

import (
	"fmt"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// messageCopy is the rendered content for one notification.
type messageCopy struct {
	Title string
	Body  string
	URL   string
}

var dailyReminderBodies = map[int]string{
	1: "Welcome to your 7-day protocol. Day 1 is waiting for you.",
	2: "Day 2 is ready. Small reps, real rewiring.",
	3: "Day 3 is up. You're building momentum.",
	4: "Day 4 is ready — past the halfway hump.",
	5: "Day 5 is waiting. Keep the chain going.",
	6: "Day 6 is ready. One more day after this.",
	7: "Final day. Finish what you started.",
}

// copyFor returns the static message copy for a trigger and protocol day.
func copyFor(trigger models.TriggerType, day int) messageCopy {
	switch trigger {
	case models.TriggerDailyReminder:
		body, ok := dailyReminderBodies[day]
		if !ok {
			body = fmt.Sprintf("Day %d of your protocol is ready.", day)
		}
		return messageCopy{
			Title: fmt.Sprintf("Day %d check-in", day),
			Body:  body,
			URL:   "/protocol/today",
		}
	case models.TriggerMissed2Days:
		return messageCopy{
			Title: "Your protocol misses you",
			Body:  "It's been a couple of days. Two minutes today keeps the work alive — pick up where you left off.",
			URL:   "/protocol/today",
		}
	case models.TriggerDay7Final:
		return messageCopy{
			Title: "One day left",
			Body:  "You completed day 6. Day 7 closes the loop — finish your protocol today.",
			URL:   "/protocol/today",
		}
	case models.TriggerDay3Milestone:
		return messageCopy{
			Title: "Three days in",
			Body:  "You've completed 3 days. Most people never get this far — keep going.",
			URL:   "/protocol/progress",
		}
	}
	return messageCopy{Title: "MIO", Body: "Your protocol is waiting.", URL: "/protocol/today"}
}

// decorate layers the reward roll's tier onto interactive-reply copy.
// Standard rolls leave the copy untouched.
func decorate(c messageCopy, roll models.RewardRoll) messageCopy {
	switch roll.Tier {
	case models.TierBonusInsight:
		c.Title = "Bonus insight · " + c.Title
		c.Body = c.Body + " A bonus insight is waiting in today's reflection."
	case models.TierBreakthrough:
		c.Title = "Pattern breakthrough · " + c.Title
		if len(roll.Hits) > 0 {
			c.Body = c.Body + fmt.Sprintf(" We noticed a %s pattern worth a closer look today.", roll.Hits[0].Name)
		} else {
			c.Body = c.Body + " Today's reflection unlocks a breakthrough insight."
		}
	}
	return c
}
