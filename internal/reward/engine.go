package reward

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// Source yields values in [0, 1). It exists so tests can force specific
// draws; production uses a seeded math/rand.
type Source interface {
	Float64() float64
}

// Weights is a tier probability table. Entries should sum to 1; Roll
// normalizes over the actual sum so a hand-edited config can't break the
// draw.
type Weights struct {
	Standard     float64
	BonusInsight float64
	Breakthrough float64
}

// DefaultWeights is the base variable-ratio distribution.
var DefaultWeights = Weights{Standard: 0.80, BonusInsight: 0.15, Breakthrough: 0.05}

const (
	// breakthroughSentinelDays stands in for "never had a breakthrough",
	// so a first-ever breakthrough is not structurally impossible.
	breakthroughSentinelDays = 30

	// Re-weighting preconditions and bounds.
	reweightMinDrySpellDays = 7
	reweightMinStreak       = 5
	breakthroughBoostStep   = 0.01
	breakthroughCap         = 0.25
)

// Engine rolls a reward tier from a weighted distribution, optionally
// re-weighted from the user's engagement snapshot.
type Engine struct {
	base   Weights
	source Source
	logger *zap.Logger
}

func NewEngine(base Weights, source Source, logger *zap.Logger) *Engine {
	if source == nil {
		source = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{base: base, source: source, logger: logger}
}

// EffectiveWeights returns the table a roll for this snapshot would use.
// The boost grows with the breakthrough dry spell and is capped; the base
// table applies whenever any precondition fails.
func (e *Engine) EffectiveWeights(snap models.EngagementSnapshot) Weights {
	days := snap.DaysSinceLastBreakthrough
	if days < 0 {
		days = breakthroughSentinelDays
	}
	if days < reweightMinDrySpellDays || snap.CurrentStreak < reweightMinStreak || len(snap.Hits) == 0 {
		return e.base
	}

	boosted := e.base.Breakthrough + breakthroughBoostStep*float64(days-reweightMinDrySpellDays+1)
	if boosted > breakthroughCap {
		boosted = breakthroughCap
	}
	// The boost comes out of the standard share; bonus stays put.
	return Weights{
		Standard:     e.base.Standard - (boosted - e.base.Breakthrough),
		BonusInsight: e.base.BonusInsight,
		Breakthrough: boosted,
	}
}

// Roll draws a tier with a single weighted-random pick over the active
// table and returns the drawn tier with the probability it carried.
func (e *Engine) Roll(snap models.EngagementSnapshot) models.RewardRoll {
	w := e.EffectiveWeights(snap)

	total := w.Standard + w.BonusInsight + w.Breakthrough
	draw := e.source.Float64() * total

	roll := models.RewardRoll{Hits: snap.Hits}
	switch {
	case draw < w.Standard:
		roll.Tier = models.TierStandard
		roll.Probability = w.Standard / total
	case draw < w.Standard+w.BonusInsight:
		roll.Tier = models.TierBonusInsight
		roll.Probability = w.BonusInsight / total
	default:
		roll.Tier = models.TierBreakthrough
		roll.Probability = w.Breakthrough / total
	}

	e.logger.Debug("reward roll",
		zap.String("tier", string(roll.Tier)),
		zap.Float64("probability", roll.Probability),
		zap.Int("streak", snap.CurrentStreak),
		zap.Int("days_since_breakthrough", snap.DaysSinceLastBreakthrough),
		zap.Int("pattern_hits", len(snap.Hits)))

	return roll
}
