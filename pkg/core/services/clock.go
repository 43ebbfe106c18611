package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/offthechainak/hourbank/internal/metrics"
	"github.com/offthechainak/hourbank/pkg/core/model"
	"github.com/offthechainak/hourbank/pkg/db"
)

// millisPerHour converts elapsed wall-clock milliseconds into fractional
// hours. Session credits keep full fractional precision, no rounding.
const millisPerHour = 3_600_000.0

// ClockIn opens a timed session for the volunteer. It runs as one
// read-modify-write transaction: the session pointer is re-read and checked
// inside the commit, and the event create plus the pointer update land
// together or not at all, so the event can never exist without the pointer
// or the other way round.
//
// A volunteer can hold at most one active session; clocking in on top of one
// fails with db.ErrConflict and leaves the original session untouched, even
// when both clock-ins race.
func ClockIn(ctx context.Context, database *db.DB, logger *zap.Logger, volunteerID string) (string, error) {
	event := &model.ClockEvent{
		ID:          uuid.New().String(),
		VolunteerID: volunteerID,
		StartTime:   timeNow().UTC(),
		Status:      model.StatusActive,
	}

	err := database.Store().RunTransaction(ctx, func(tx db.Tx) error {
		volunteerDoc, err := tx.Get(db.CollectionVolunteers, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to get volunteer %s: %w", volunteerID, err)
		}
		volunteer := db.DecodeVolunteer(volunteerDoc)

		if volunteer.CurrentClockEventID != "" {
			currentDoc, err := tx.Get(db.CollectionClockEvents, volunteer.CurrentClockEventID)
			switch {
			case err == nil && db.DecodeClockEvent(currentDoc).Status == model.StatusActive:
				return fmt.Errorf("volunteer %s already has active session %s: %w",
					volunteerID, volunteer.CurrentClockEventID, db.ErrConflict)
			case err != nil && !errors.Is(err, db.ErrNotFound):
				return err
			default:
				// Stale pointer (event gone or already completed); the
				// commit below repoints it at the new session.
				logger.Warn("Repairing stale session pointer",
					zap.String("volunteer_id", volunteerID),
					zap.String("stale_event_id", volunteer.CurrentClockEventID))
			}
		}

		tx.Write(db.Write{
			Collection: db.CollectionClockEvents,
			ID:         event.ID,
			Op:         db.OpCreate,
			Fields:     db.ClockEventFields(event),
		})
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         volunteerID,
			Op:         db.OpUpdate,
			Fields:     map[string]any{"currentClockEventId": event.ID},
		})
		return nil
	})
	if err != nil {
		return "", err
	}

	metrics.SessionsOpened.Inc()
	logger.Info("Volunteer clocked in",
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", event.ID),
		zap.Time("start_time", event.StartTime))

	return event.ID, nil
}

// ClockOut closes the session and credits the elapsed hours. It runs as one
// read-modify-write transaction: the balance is re-read inside the commit
// rather than taken from the caller, so two concurrent balance mutations
// cannot overwrite each other. Completion of the event, the pointer clear and
// the balance credit land together or not at all.
//
// Fails with db.ErrNotFound when the event does not exist and db.ErrConflict
// when it was already completed; completion is one-way.
func ClockOut(ctx context.Context, database *db.DB, logger *zap.Logger, volunteerID, eventID string) (*model.ClockEvent, error) {
	var closed *model.ClockEvent

	err := database.Store().RunTransaction(ctx, func(tx db.Tx) error {
		eventDoc, err := tx.Get(db.CollectionClockEvents, eventID)
		if err != nil {
			return fmt.Errorf("failed to get clock event %s: %w", eventID, err)
		}
		event := db.DecodeClockEvent(eventDoc)
		if event.Status != model.StatusActive {
			return fmt.Errorf("clock event %s is already completed: %w", eventID, db.ErrConflict)
		}

		volunteerDoc, err := tx.Get(db.CollectionVolunteers, volunteerID)
		if err != nil {
			return fmt.Errorf("failed to get volunteer %s: %w", volunteerID, err)
		}
		volunteer := db.DecodeVolunteer(volunteerDoc)

		// Raw elapsed wall-clock time at millisecond precision. A zero
		// or near-zero duration is a valid session.
		endTime := timeNow().UTC()
		hours := float64(endTime.Sub(event.StartTime).Milliseconds()) / millisPerHour

		event.Status = model.StatusCompleted
		event.EndTime = &endTime
		event.HoursAccumulated = &hours

		tx.Write(db.Write{
			Collection: db.CollectionClockEvents,
			ID:         eventID,
			Op:         db.OpUpdate,
			Fields: map[string]any{
				"status":           string(model.StatusCompleted),
				"endTime":          endTime,
				"hoursAccumulated": hours,
			},
		})
		tx.Write(db.Write{
			Collection: db.CollectionVolunteers,
			ID:         volunteerID,
			Op:         db.OpUpdate,
			Fields: map[string]any{
				"currentClockEventId": "",
				"hours":               volunteer.Hours + hours,
			},
		})

		closed = event
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SessionsClosed.Inc()
	metrics.HoursCredited.Add(*closed.HoursAccumulated)
	logger.Info("Volunteer clocked out",
		zap.String("volunteer_id", volunteerID),
		zap.String("event_id", eventID),
		zap.Float64("hours_accumulated", *closed.HoursAccumulated))

	return closed, nil
}

// ActiveSession resolves the volunteer's session pointer to its clock event.
// It returns nil without error when there is no open session, including when
// the pointer is stale: the event must actually exist and still be active.
// Used to rebuild the in-progress timer after the caller lost its state.
func ActiveSession(ctx context.Context, database *db.DB, volunteerID string) (*model.ClockEvent, error) {
	volunteer, err := database.GetVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, err
	}
	if volunteer.CurrentClockEventID == "" {
		return nil, nil
	}

	event, err := database.GetClockEvent(ctx, volunteer.CurrentClockEventID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if event.Status != model.StatusActive {
		return nil, nil
	}
	return event, nil
}
