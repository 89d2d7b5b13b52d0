package models

// RewardTier is the gamified significance level assigned to an
// interactive-reply notification.
type RewardTier string

const (
	TierStandard     RewardTier = "standard"
	TierBonusInsight RewardTier = "bonus_insight"
	TierBreakthrough RewardTier = "pattern_breakthrough"
)

// PatternHit is one keyword-rule match against user-supplied text.
type PatternHit struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Confidence float64 `json:"confidence"`
}

// RewardRoll is the outcome of one variable-ratio draw. It is not
// persisted on its own; the tier travels with the message it produced.
type RewardRoll struct {
	Tier        RewardTier   `json:"tier"`
	Probability float64      `json:"probability"` // Weight of the winning tier in the table used
	Hits        []PatternHit `json:"hits,omitempty"`
}

// EngagementSnapshot is the read-only view the reward engine draws from.
// It is recomputed per resolver call from completion records and the
// notification log, never stored.
type EngagementSnapshot struct {
	CurrentStreak             int
	DaysSinceLastBreakthrough int
	Hits                      []PatternHit
}
