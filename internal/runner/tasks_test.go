package runner

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/presence"
	"github.com/deskhive/deskhive/internal/repository/memory"
)

func TestSnoozeSweepReopensExpired(t *testing.T) {
	ctx := context.Background()
	tickets := memory.NewTicketRepository()

	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Hour)
	agent := int64(7)

	expired := &models.Ticket{
		Subject: "expired snooze", Status: models.TicketStatusPending,
		Priority: models.PriorityMedium, Channel: models.ChannelEmail, CustomerID: 1,
	}
	require.NoError(t, tickets.Create(ctx, expired))
	expired.SnoozedUntil = &past
	expired.SnoozedBy = &agent
	require.NoError(t, tickets.Update(ctx, expired))

	active := &models.Ticket{
		Subject: "active snooze", Status: models.TicketStatusPending,
		Priority: models.PriorityMedium, Channel: models.ChannelEmail, CustomerID: 1,
	}
	require.NoError(t, tickets.Create(ctx, active))
	active.SnoozedUntil = &future
	active.SnoozedBy = &agent
	require.NoError(t, tickets.Update(ctx, active))

	sweep := NewSnoozeSweep(tickets, log.New(io.Discard, "", 0))
	require.NoError(t, sweep.Run(ctx))

	got, err := tickets.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusOpen, got.Status)
	assert.Nil(t, got.SnoozedUntil)

	got, err = tickets.GetByID(ctx, active.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusPending, got.Status)
	assert.NotNil(t, got.SnoozedUntil)
}

func TestPresencePrune(t *testing.T) {
	ctx := context.Background()
	tracker := presence.NewMemoryTracker(10 * time.Millisecond)
	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 1}))
	time.Sleep(25 * time.Millisecond)

	task := NewPresencePrune(tracker)
	require.NoError(t, task.Run(ctx))

	viewers, err := tracker.Viewers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, viewers)
}
