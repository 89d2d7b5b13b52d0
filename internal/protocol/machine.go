package protocol

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/metrics"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/models"
	"github.com/KesOnPurpose/mind-insurance-standalone-sub014/internal/repository"
)

// ErrInvalidState marks a protocol that is not in the status the requested
// operation needs. Batch callers skip and continue on it; it never aborts
// a batch.
var ErrInvalidState = errors.New("protocol is not in a valid state for this operation")

// DayResult is the outcome of advancing a single protocol.
type DayResult struct {
	ProtocolID string `json:"protocol_id"`
	NewDay     int    `json:"new_day,omitempty"`
	Expired    bool   `json:"expired"`
}

// BatchResult aggregates one AdvanceAllActive run.
type BatchResult struct {
	Advanced int `json:"protocols_advanced"`
	Expired  int `json:"protocols_expired"`
	Skipped  int `json:"protocols_skipped"`
}

// Machine owns the day-counter lifecycle of protocols. All state lives in
// the store; the machine is safe to rebuild per invocation.
type Machine struct {
	protocols repository.ProtocolRepository
	logger    *zap.Logger
}

func NewMachine(protocols repository.ProtocolRepository, logger *zap.Logger) *Machine {
	return &Machine{protocols: protocols, logger: logger}
}

// AdvanceDay moves one active protocol forward a day, or expires it when
// it is already at the final day. Non-active (or missing) protocols get
// ErrInvalidState.
func (m *Machine) AdvanceDay(protocolID string, now time.Time) (DayResult, error) {
	p, err := m.protocols.GetByID(protocolID)
	if err != nil {
		return DayResult{}, fmt.Errorf("failed to load protocol %s: %w", protocolID, err)
	}
	if p == nil || p.Status != models.ProtocolStatusActive {
		return DayResult{}, fmt.Errorf("protocol %s: %w", protocolID, ErrInvalidState)
	}

	if p.CurrentDay >= models.ProtocolMaxDay {
		if err := m.protocols.MarkExpired(protocolID, now); err != nil {
			return DayResult{}, fmt.Errorf("failed to expire protocol %s: %w", protocolID, err)
		}
		m.logger.Info("Protocol expired at final day", zap.String("protocol_id", protocolID))
		return DayResult{ProtocolID: protocolID, Expired: true}, nil
	}

	newDay, err := m.protocols.AdvanceDay(protocolID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost a race with a status change since the read above.
			return DayResult{}, fmt.Errorf("protocol %s: %w", protocolID, ErrInvalidState)
		}
		return DayResult{}, fmt.Errorf("failed to advance protocol %s: %w", protocolID, err)
	}

	return DayResult{ProtocolID: protocolID, NewDay: newDay}, nil
}

// AdvanceAllActive advances every active protocol that has not already
// been touched today. Advancement is keyed to the calendar day, so a
// second run within the same day finds nothing to do. A malformed
// protocol is logged and counted as skipped; it never stops the batch.
func (m *Machine) AdvanceAllActive(now time.Time) (BatchResult, error) {
	startOfDay := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	candidates, err := m.protocols.ListActiveNotAdvancedSince(startOfDay)
	if err != nil {
		return BatchResult{}, fmt.Errorf("failed to list protocols for advancement: %w", err)
	}

	var result BatchResult
	for _, p := range candidates {
		dayResult, err := m.AdvanceDay(p.ID, now)
		if err != nil {
			m.logger.Warn("Skipping protocol during day advancement",
				zap.String("protocol_id", p.ID), zap.Error(err))
			result.Skipped++
			continue
		}
		if dayResult.Expired {
			result.Expired++
			metrics.ProtocolsExpiredTotal.Inc()
		} else {
			result.Advanced++
			metrics.ProtocolsAdvancedTotal.Inc()
		}
	}

	m.logger.Info("Day advancement batch finished",
		zap.Int("advanced", result.Advanced),
		zap.Int("expired", result.Expired),
		zap.Int("skipped", result.Skipped))
	return result, nil
}
