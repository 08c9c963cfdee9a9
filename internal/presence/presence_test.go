package presence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskhive/deskhive/internal/models"
)

func TestMemoryTrackerHeartbeatAndViewers(t *testing.T) {
	tracker := NewMemoryTracker(time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 10, AgentName: "Ann"}))
	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 11, AgentName: "Ben", Typing: true}))
	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 2, AgentID: 10, AgentName: "Ann"}))

	viewers, err := tracker.Viewers(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, viewers, 2)

	viewers, err = tracker.Viewers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.Equal(t, int64(10), viewers[0].AgentID)

	viewers, err = tracker.Viewers(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, viewers)
}

func TestMemoryTrackerHeartbeatUpdatesInPlace(t *testing.T) {
	tracker := NewMemoryTracker(time.Minute)
	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 10}))
	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 10, Typing: true}))

	viewers, err := tracker.Viewers(ctx, 1)
	require.NoError(t, err)
	require.Len(t, viewers, 1)
	assert.True(t, viewers[0].Typing)
}

func TestMemoryTrackerStaleEntriesExpire(t *testing.T) {
	tracker := NewMemoryTracker(10 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, tracker.Heartbeat(ctx, models.Viewer{TicketID: 1, AgentID: 10}))
	time.Sleep(25 * time.Millisecond)

	viewers, err := tracker.Viewers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, viewers)

	require.NoError(t, tracker.Prune(ctx))
	viewers, err = tracker.Viewers(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, viewers)
}
