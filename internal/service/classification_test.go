package service

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository/memory"
)

type classifierFixture struct {
	tickets *memory.TicketRepository
	tags    *memory.TagRepository
	rules   *memory.RuleRepository
	svc     *Classifier
}

func newClassifierFixture(t *testing.T) (*classifierFixture, *models.Ticket) {
	t.Helper()
	f := &classifierFixture{
		tickets: memory.NewTicketRepository(),
		tags:    memory.NewTagRepository(),
		rules:   memory.NewRuleRepository(),
	}
	f.svc = NewClassifier(f.rules, f.tags, f.tickets, log.New(io.Discard, "", 0))

	ticket := &models.Ticket{
		Subject:    "test",
		Status:     models.TicketStatusOpen,
		Priority:   models.PriorityMedium,
		Channel:    models.ChannelEmail,
		CustomerID: 1,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))
	return f, ticket
}

func TestApplyTagsIsIdempotent(t *testing.T) {
	f, ticket := newClassifierFixture(t)
	ctx := context.Background()

	tag := &models.Tag{Name: "shipping"}
	require.NoError(t, f.tags.Create(ctx, tag))
	require.NoError(t, f.rules.CreateTagRule(ctx, &models.AutoTagRule{
		Name:         "shipping",
		Keywords:     []string{"package"},
		MatchSubject: true,
		TagID:        tag.ID,
		Active:       true,
	}))

	for range 3 {
		ids, err := f.svc.ApplyTags(ctx, ticket.ID, "my package is lost", "")
		require.NoError(t, err)
		assert.Equal(t, []int64{tag.ID}, ids)
	}

	attached, err := f.tags.ListForTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, attached, 1)
}

func TestApplyPriorityOnlyFromDefault(t *testing.T) {
	f, ticket := newClassifierFixture(t)
	ctx := context.Background()

	require.NoError(t, f.rules.CreatePriorityRule(ctx, &models.AutoPriorityRule{
		Name:      "escalate",
		Keywords:  []string{"lawsuit"},
		MatchMode: models.MatchAny,
		Priority:  models.PriorityUrgent,
		Active:    true,
	}))

	// Agent already raised the priority by hand; automation must not touch it.
	require.NoError(t, f.tickets.SetPriority(ctx, ticket.ID, models.PriorityLow))
	require.NoError(t, f.svc.ApplyPriority(ctx, ticket.ID, "lawsuit incoming", "", models.PriorityLow))
	got, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityLow, got.Priority)

	// From the default it applies.
	require.NoError(t, f.tickets.SetPriority(ctx, ticket.ID, models.PriorityMedium))
	require.NoError(t, f.svc.ApplyPriority(ctx, ticket.ID, "lawsuit incoming", "", models.PriorityMedium))
	got, err = f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, got.Priority)
}

func TestApplyPriorityNoMatchLeavesDefault(t *testing.T) {
	f, ticket := newClassifierFixture(t)
	ctx := context.Background()

	require.NoError(t, f.rules.CreatePriorityRule(ctx, &models.AutoPriorityRule{
		Name:      "escalate",
		Keywords:  []string{"lawsuit"},
		MatchMode: models.MatchAny,
		Priority:  models.PriorityUrgent,
		Active:    true,
	}))

	require.NoError(t, f.svc.ApplyPriority(ctx, ticket.ID, "calm question", "", models.PriorityMedium))
	got, err := f.tickets.GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, got.Priority)
}
