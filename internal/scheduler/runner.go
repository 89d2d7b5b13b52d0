package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
)

// RunSummary is the response shape of one engagement invocation.
type RunSummary struct {
	Success       bool             `json:"success"`
	UsersNotified int              `json:"users_notified"`
	PushSent      int              `json:"push_sent"`
	SMSSent       int              `json:"sms_sent"`
	Results       []DispatchResult `json:"results"`
	Errors        []string         `json:"errors,omitempty"`
}

// Runner executes one stateless batch invocation: resolve candidates for
// a trigger, dispatch each, summarize. All state lives in the store, so
// a failed invocation is safe to retry wholesale.
type Runner struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewRunner(resolver *Resolver, dispatcher *Dispatcher, logger *zap.Logger) *Runner {
	return &Runner{resolver: resolver, dispatcher: dispatcher, logger: logger}
}

// Run resolves and dispatches one trigger. userID, when non-empty, scopes
// the run to a single user. Only an unknown trigger or a failed bulk
// query errors out; per-candidate failures land in the summary.
func (r *Runner) Run(ctx context.Context, trigger models.TriggerType, userID string) (RunSummary, error) {
	now := time.Now().UTC()

	candidates, err := r.resolver.Resolve(trigger, now, userID)
	if err != nil {
		return RunSummary{}, err
	}

	summary := RunSummary{Success: true, Results: make([]DispatchResult, 0, len(candidates))}
	for _, cand := range candidates {
		res := r.dispatcher.Dispatch(ctx, trigger, cand, now)
		summary.Results = append(summary.Results, res)

		if res.PushSent {
			summary.PushSent++
		}
		if res.SMSSent {
			summary.SMSSent++
		}
		if res.PushSent || res.SMSSent {
			summary.UsersNotified++
		}
		if res.Error != "" {
			summary.Errors = append(summary.Errors, res.Error)
		}
	}

	r.logger.Info("Engagement run finished",
		zap.String("trigger", string(trigger)),
		zap.Int("candidates", len(candidates)),
		zap.Int("users_notified", summary.UsersNotified),
		zap.Int("push_sent", summary.PushSent),
		zap.Int("sms_sent", summary.SMSSent),
		zap.Int("errors", len(summary.Errors)))
	return summary, nil
}
