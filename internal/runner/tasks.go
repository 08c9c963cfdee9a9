package runner

import (
	"context"
	"log"
	"time"

	"github.com/deskhive/deskhive/internal/presence"
	"github.com/deskhive/deskhive/internal/repository"
)

// SnoozeSweep reopens snoozed tickets whose wake-up time has passed. Runs
// every minute; a customer reply can also reopen a snoozed ticket at any time,
// so the sweep only has to catch the quiet ones.
type SnoozeSweep struct {
	tickets repository.TicketRepository
	logger  *log.Logger
}

// NewSnoozeSweep creates the snooze sweep task.
func NewSnoozeSweep(tickets repository.TicketRepository, logger *log.Logger) *SnoozeSweep {
	if logger == nil {
		logger = log.Default()
	}
	return &SnoozeSweep{tickets: tickets, logger: logger}
}

func (t *SnoozeSweep) Name() string           { return "snooze-sweep" }
func (t *SnoozeSweep) Schedule() string       { return "0 * * * * *" }
func (t *SnoozeSweep) Timeout() time.Duration { return 30 * time.Second }

func (t *SnoozeSweep) Run(ctx context.Context) error {
	reopened, err := t.tickets.ReopenExpiredSnoozes(ctx, time.Now())
	if err != nil {
		return err
	}
	if reopened > 0 {
		t.logger.Printf("snooze sweep: reopened %d tickets", reopened)
	}
	return nil
}

// PresencePrune drops stale presence entries. Redis expires its own keys, so
// this mostly matters for the in-memory tracker.
type PresencePrune struct {
	tracker presence.Tracker
}

// NewPresencePrune creates the presence prune task.
func NewPresencePrune(tracker presence.Tracker) *PresencePrune {
	return &PresencePrune{tracker: tracker}
}

func (t *PresencePrune) Name() string           { return "presence-prune" }
func (t *PresencePrune) Schedule() string       { return "30 * * * * *" }
func (t *PresencePrune) Timeout() time.Duration { return 10 * time.Second }

func (t *PresencePrune) Run(ctx context.Context) error {
	return t.tracker.Prune(ctx)
}
