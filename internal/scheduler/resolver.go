package scheduler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/repository"
)

// Candidate is one (user, protocol, day) tuple that must be notified now.
type Candidate struct {
	UserID     string `json:"user_id"`
	ProtocolID string `json:"protocol_id"`
	DayNumber  int    `json:"day_number"`
}

// ErrUnknownTrigger rejects trigger names outside the closed set. It is
// the only error class that fails a whole invocation.
var ErrUnknownTrigger = fmt.Errorf("unknown trigger type")

// Resolver turns a trigger type and an invocation time into the exact set
// of candidates due for notification. Resolution runs in two phases: a
// cheap bulk query narrows to structurally-eligible protocols, then each
// survivor pays for its own completion and dedup lookups. The bulk filter
// is what keeps the per-protocol phase affordable across the population.
type Resolver struct {
	protocols     repository.ProtocolRepository
	completions   repository.CompletionRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewResolver(
	protocols repository.ProtocolRepository,
	completions repository.CompletionRepository,
	notifications repository.NotificationRepository,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		protocols:     protocols,
		completions:   completions,
		notifications: notifications,
		logger:        logger,
	}
}

// Resolve evaluates one trigger at the given instant. userID, when
// non-empty, restricts scope to a single user for targeted re-runs. A
// protocol whose refinement lookups fail is logged and dropped; the rest
// of the population still resolves.
func (r *Resolver) Resolve(trigger models.TriggerType, now time.Time, userID string) ([]Candidate, error) {
	spec, ok := specFor(trigger)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}

	bulk, err := spec.bulk(r, userID)
	if err != nil {
		return nil, fmt.Errorf("bulk query for %s failed: %w", trigger, err)
	}

	candidates := make([]Candidate, 0, len(bulk))
	for _, p := range bulk {
		eligible, err := spec.refine(r, p, now)
		if err != nil {
			r.logger.Warn("Refinement check failed, dropping protocol from batch",
				zap.String("protocol_id", p.ID),
				zap.String("trigger", string(trigger)),
				zap.Error(err))
			continue
		}
		if !eligible {
			continue
		}
		candidates = append(candidates, Candidate{
			UserID:     p.UserID,
			ProtocolID: p.ID,
			DayNumber:  p.CurrentDay,
		})
	}

	r.logger.Info("Resolved eligibility",
		zap.String("trigger", string(trigger)),
		zap.Int("structurally_eligible", len(bulk)),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}
