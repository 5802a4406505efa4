package services

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) eventService() *eventServiceImpl {
	s := NewEventService(e.events, e.registrations, e.users, e.notifications, nil, e.cache, "http://localhost:8080", zerolog.Nop()).(*eventServiceImpl)
	s.now = e.clock
	return s
}

func TestUpcoming_DropsEventsStartedSinceCaching(t *testing.T) {
	env := newTestEnv()
	svc := env.eventService()
	ctx := context.Background()

	soon := env.event(2*time.Minute, 10, 0)
	later := env.event(time.Hour, 10, 0)
	env.event(-time.Hour, 10, 0)

	upcoming, err := svc.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, soon.ID, upcoming[0].ID)

	// still inside the cache lifetime, but the first event has begun
	env.now = env.now.Add(3 * time.Minute)
	upcoming, err = svc.Upcoming(ctx)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, later.ID, upcoming[0].ID)

	home, err := svc.Home(ctx)
	require.NoError(t, err)
	require.Len(t, home.UpcomingEvents, 1)
	assert.Equal(t, later.ID, home.UpcomingEvents[0].ID)
}
