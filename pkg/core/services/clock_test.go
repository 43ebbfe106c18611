package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
	"github.com/offthechainak/hourbank/pkg/memstore"
)

func newTestDB(t *testing.T) (*db.DB, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	return db.NewDB(store), store
}

func addVolunteer(t *testing.T, database *db.DB, id string, hours float64) {
	t.Helper()
	err := database.CreateVolunteer(context.Background(), &model.Volunteer{
		ID:    id,
		Name:  "Test Volunteer " + id,
		Email: id + "@example.com",
		Hours: hours,
	})
	require.NoError(t, err)
}

func setClock(t *testing.T, at time.Time) {
	t.Helper()
	timeNow = func() time.Time { return at }
	t.Cleanup(func() { timeNow = time.Now })
}

func TestClockIn_CreatesEventAndSetsPointer(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	setClock(t, start)

	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)
	require.NotEmpty(t, eventID)

	event, err := database.GetClockEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, "vol-1", event.VolunteerID)
	assert.Equal(t, model.StatusActive, event.Status)
	assert.Equal(t, start, event.StartTime)
	assert.Nil(t, event.EndTime)
	assert.Nil(t, event.HoursAccumulated)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, eventID, volunteer.CurrentClockEventID)
}

func TestClockIn_VolunteerNotFound(t *testing.T) {
	database, _ := newTestDB(t)

	_, err := ClockIn(context.Background(), database, zap.NewNop(), "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestClockIn_ConflictLeavesOriginalSession(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	first, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	_, err = ClockIn(ctx, database, zap.NewNop(), "vol-1")
	assert.ErrorIs(t, err, db.ErrConflict)

	// Original active event untouched, pointer still on it
	event, err := database.GetClockEvent(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, event.Status)
	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, first, volunteer.CurrentClockEventID)
}

func TestClockIn_ConcurrentClockInsAdmitOne(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	// Two racing clock-ins: the pointer check runs inside the commit
	// transaction, so exactly one may open a session.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = ClockIn(ctx, database, zap.NewNop(), "vol-1")
		}(i)
	}
	wg.Wait()

	var opened, conflicted int
	for _, err := range errs {
		switch {
		case err == nil:
			opened++
		case errors.Is(err, db.ErrConflict):
			conflicted++
		default:
			t.Fatalf("unexpected clock-in error: %v", err)
		}
	}
	assert.Equal(t, 1, opened)
	assert.Equal(t, 1, conflicted)

	events, err := database.ListClockEvents(ctx, "vol-1")
	require.NoError(t, err)
	var active int
	for _, event := range events {
		if event.Status == model.StatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.NotEmpty(t, volunteer.CurrentClockEventID)
}

func TestClockIn_RepairsStalePointer(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	// Pointer references an event that no longer exists
	require.NoError(t, database.UpdateVolunteerFields(ctx, "vol-1", map[string]any{
		"currentClockEventId": "gone",
	}))

	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, eventID, volunteer.CurrentClockEventID)
}

func TestClockOut_CreditsElapsedHours(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 20)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	setClock(t, start)
	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	// 5,400,000 ms = 1.5 h
	setClock(t, start.Add(5400000*time.Millisecond))
	closed, err := ClockOut(ctx, database, zap.NewNop(), "vol-1", eventID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCompleted, closed.Status)
	require.NotNil(t, closed.HoursAccumulated)
	assert.Equal(t, 1.5, *closed.HoursAccumulated)
	require.NotNil(t, closed.EndTime)
	assert.Equal(t, start.Add(90*time.Minute), *closed.EndTime)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 21.5, volunteer.Hours)
	assert.Empty(t, volunteer.CurrentClockEventID)

	// Persisted event matches the returned one
	event, err := database.GetClockEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, event.Status)
	require.NotNil(t, event.HoursAccumulated)
	assert.Equal(t, 1.5, *event.HoursAccumulated)
}

func TestClockOut_ZeroDurationIsValid(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 7)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	setClock(t, start)
	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	closed, err := ClockOut(ctx, database, zap.NewNop(), "vol-1", eventID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *closed.HoursAccumulated)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, 7.0, volunteer.Hours)
}

func TestClockOut_EventNotFound(t *testing.T) {
	database, _ := newTestDB(t)
	addVolunteer(t, database, "vol-1", 0)

	_, err := ClockOut(context.Background(), database, zap.NewNop(), "vol-1", "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestClockOut_CompletedEventIsFinal(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)
	_, err = ClockOut(ctx, database, zap.NewNop(), "vol-1", eventID)
	require.NoError(t, err)

	_, err = ClockOut(ctx, database, zap.NewNop(), "vol-1", eventID)
	assert.ErrorIs(t, err, db.ErrConflict)
}

func TestClockOut_FailedCommitLeavesNoPartialState(t *testing.T) {
	database, store := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 20)

	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	rejected := errors.New("write rejected")
	store.FailNextCommit(rejected)
	_, err = ClockOut(ctx, database, zap.NewNop(), "vol-1", eventID)
	require.ErrorIs(t, err, rejected)

	// Event still active, pointer intact, balance untouched
	event, err := database.GetClockEvent(ctx, eventID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusActive, event.Status)
	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, eventID, volunteer.CurrentClockEventID)
	assert.Equal(t, 20.0, volunteer.Hours)
}

func TestActiveSession_NoSession(t *testing.T) {
	database, _ := newTestDB(t)
	addVolunteer(t, database, "vol-1", 0)

	event, err := ActiveSession(context.Background(), database, "vol-1")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestActiveSession_ReturnsActiveEvent(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	eventID, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	event, err := ActiveSession(ctx, database, "vol-1")
	require.NoError(t, err)
	require.NotNil(t, event)
	assert.Equal(t, eventID, event.ID)
	assert.Equal(t, model.StatusActive, event.Status)
}

func TestActiveSession_StalePointerIsNil(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	require.NoError(t, database.UpdateVolunteerFields(ctx, "vol-1", map[string]any{
		"currentClockEventId": "gone",
	}))

	event, err := ActiveSession(ctx, database, "vol-1")
	require.NoError(t, err)
	assert.Nil(t, event)
}

func TestSingleActiveSessionInvariant(t *testing.T) {
	database, _ := newTestDB(t)
	ctx := context.Background()
	addVolunteer(t, database, "vol-1", 0)

	// in -> out -> in again; never more than one active event
	first, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)
	_, err = ClockOut(ctx, database, zap.NewNop(), "vol-1", first)
	require.NoError(t, err)
	second, err := ClockIn(ctx, database, zap.NewNop(), "vol-1")
	require.NoError(t, err)

	events, err := database.ListClockEvents(ctx, "vol-1")
	require.NoError(t, err)
	require.Len(t, events, 2)

	active := 0
	for _, e := range events {
		if e.Status == model.StatusActive {
			active++
			assert.Equal(t, second, e.ID)
		}
	}
	assert.Equal(t, 1, active)

	volunteer, err := database.GetVolunteer(ctx, "vol-1")
	require.NoError(t, err)
	assert.Equal(t, second, volunteer.CurrentClockEventID)
}
