package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/database"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(&config.Config{DatabaseDriver: "sqlite", DatabasePath: database.MemoryPath}, nil)
	require.NoError(t, err)
	return New(db, nil)
}

func seedEvent(t *testing.T, s *Store, status models.EventStatus, capacity int) *models.Event {
	t.Helper()
	start := time.Now().UTC().Add(48 * time.Hour)
	e := &models.Event{
		Title:     "Go meetup",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Location:  "Tainan",
		Capacity:  capacity,
		Status:    status,
	}
	require.NoError(t, s.CreateEvent(context.Background(), e))
	return e
}

func TestWithTransaction_RollsBack(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	event := seedEvent(t, s, models.EventPublished, 10)

	boom := errors.New("boom")
	err := s.WithTransaction(ctx, func(tx *Store) error {
		if err := tx.CreateRegistration(ctx, &models.Registration{UserID: 1, EventID: event.ID, Status: models.RegistrationConfirmed}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := s.CountConfirmed(ctx, event.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateRegistration_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	event := seedEvent(t, s, models.EventPublished, 10)

	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{UserID: 1, EventID: event.ID, Status: models.RegistrationConfirmed}))
	err := s.CreateRegistration(ctx, &models.Registration{UserID: 1, EventID: event.ID, Status: models.RegistrationConfirmed})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFindEvent_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.FindEvent(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStatusFlipsAreConditional(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	event := seedEvent(t, s, models.EventPublished, 10)
	reg := &models.Registration{UserID: 1, EventID: event.ID, Status: models.RegistrationConfirmed}
	require.NoError(t, s.CreateRegistration(ctx, reg))
	assert.NotEmpty(t, reg.QRToken)

	ok, err := s.ConfirmRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, ok, "already confirmed")

	ok, err = s.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CancelRegistration(ctx, reg.ID)
	require.NoError(t, err)
	assert.False(t, ok, "already cancelled")

	ok, err = s.UpdateEventStatus(ctx, event.ID, models.EventDraft, models.EventCancelled)
	require.NoError(t, err)
	assert.False(t, ok, "event is not a draft")
}

func TestMarkAttended_Once(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	event := seedEvent(t, s, models.EventPublished, 10)
	reg := &models.Registration{UserID: 1, EventID: event.ID, Status: models.RegistrationConfirmed}
	require.NoError(t, s.CreateRegistration(ctx, reg))

	first := time.Now().UTC()
	ok, err := s.MarkAttended(ctx, reg.ID, first)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkAttended(ctx, reg.ID, first.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.FindRegistrationByToken(ctx, reg.QRToken)
	require.NoError(t, err)
	require.NotNil(t, got.AttendedAt)
	assert.WithinDuration(t, first, *got.AttendedAt, time.Second)
}

func TestConfirmedCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := seedEvent(t, s, models.EventPublished, 10)
	b := seedEvent(t, s, models.EventPublished, 10)
	c := seedEvent(t, s, models.EventPublished, 10)

	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{UserID: 1, EventID: a.ID, Status: models.RegistrationConfirmed}))
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{UserID: 2, EventID: a.ID, Status: models.RegistrationConfirmed}))
	require.NoError(t, s.CreateRegistration(ctx, &models.Registration{UserID: 1, EventID: b.ID, Status: models.RegistrationCancelled}))

	counts, err := s.ConfirmedCounts(ctx, []string{a.ID, b.ID, c.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[a.ID])
	assert.Zero(t, counts[b.ID])
	assert.Zero(t, counts[c.ID])
}

func TestListPublicEvents(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	upcoming := seedEvent(t, s, models.EventPublished, 10)
	seedEvent(t, s, models.EventDraft, 10)
	ended := seedEvent(t, s, models.EventEnded, 10)
	stale := &models.Event{
		Title:     "Last month",
		StartTime: now.Add(-30 * 24 * time.Hour),
		EndTime:   now.Add(-30*24*time.Hour + time.Hour),
		Capacity:  5,
		Status:    models.EventPublished,
	}
	require.NoError(t, s.CreateEvent(ctx, stale))

	up, err := s.ListUpcomingEvents(ctx, now)
	require.NoError(t, err)
	require.Len(t, up, 1)
	assert.Equal(t, upcoming.ID, up[0].ID)

	past, err := s.ListPastEvents(ctx, now)
	require.NoError(t, err)
	ids := []string{}
	for _, e := range past {
		ids = append(ids, e.ID)
	}
	assert.ElementsMatch(t, []string{ended.ID, stale.ID}, ids)
}
