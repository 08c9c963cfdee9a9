package service

import (
	"context"
	"fmt"
	"log"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
	"github.com/deskhive/deskhive/internal/rules"
)

// Classifier applies keyword automation to tickets. The matching itself lives
// in the rules package as pure functions; this type only fetches rules and
// persists decisions.
type Classifier struct {
	rules   repository.RuleRepository
	tags    repository.TagRepository
	tickets repository.TicketRepository
	logger  *log.Logger
}

// NewClassifier wires a classifier over the given repositories.
func NewClassifier(ruleRepo repository.RuleRepository, tagRepo repository.TagRepository, ticketRepo repository.TicketRepository, logger *log.Logger) *Classifier {
	if logger == nil {
		logger = log.Default()
	}
	return &Classifier{rules: ruleRepo, tags: tagRepo, tickets: ticketRepo, logger: logger}
}

// ApplyTags attaches the tag of every active rule matching the given subject
// and body, and returns the tag ids that matched. Attachment is idempotent,
// so re-running never duplicates a tag.
func (c *Classifier) ApplyTags(ctx context.Context, ticketID int64, subject, body string) ([]int64, error) {
	ruleSet, err := c.rules.ActiveTagRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("classifier: load tag rules: %w", err)
	}
	tagIDs := rules.EvaluateTags(ruleSet, subject, body)
	for _, tagID := range tagIDs {
		if err := c.tags.Attach(ctx, ticketID, tagID); err != nil {
			return nil, fmt.Errorf("classifier: attach tag %d to ticket %d: %w", tagID, ticketID, err)
		}
	}
	return tagIDs, nil
}

// ApplyPriority sets the ticket's priority from the highest-severity matching
// rule. It does nothing unless the ticket is still at the default priority:
// an explicitly chosen priority is never overridden by automation.
func (c *Classifier) ApplyPriority(ctx context.Context, ticketID int64, subject, body string, current models.TicketPriority) error {
	if current != models.DefaultPriority {
		return nil
	}
	ruleSet, err := c.rules.ActivePriorityRules(ctx)
	if err != nil {
		return fmt.Errorf("classifier: load priority rules: %w", err)
	}
	priority, matched := rules.EvaluatePriority(ruleSet, subject, body)
	if !matched {
		return nil
	}
	if err := c.tickets.SetPriority(ctx, ticketID, priority); err != nil {
		return fmt.Errorf("classifier: set priority on ticket %d: %w", ticketID, err)
	}
	c.logger.Printf("classifier: ticket %d priority set to %s", ticketID, priority)
	return nil
}
