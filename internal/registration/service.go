// Package registration guards event capacity and owns every change to a
// registration: sign-up, cancellation and check-in.
package registration

import (
	"context"
	"errors"
	"time"

	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/failure"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"github.com/gdg-garage/community-events/internal/store"
	"go.uber.org/zap"
)

type Service struct {
	store *store.Store
	reval revalidate.Revalidator
	log   *zap.Logger
	now   func() time.Time
}

func NewService(st *store.Store, reval revalidate.Revalidator, log *zap.Logger) *Service {
	if reval == nil {
		reval = revalidate.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store: st,
		reval: reval,
		log:   log.Named("registration"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func registrationPaths(eventID string) []string {
	return []string{
		revalidate.EventDetail(eventID),
		revalidate.EventList,
		revalidate.MyEvents,
		revalidate.AdminRegistrations(eventID),
	}
}

// Register confirms the caller's seat on an event. The event row is locked
// for the whole check-then-write sequence, so the confirmed count never
// exceeds the capacity however many requests race for the last seat.
func (s *Service) Register(ctx context.Context, who identity.Identity, eventID string) error {
	if err := who.Require(); err != nil {
		return err
	}

	var action models.HistoryAction
	err := s.store.WithTransaction(ctx, func(tx *store.Store) error {
		event, err := tx.LockEvent(ctx, eventID)
		if errors.Is(err, store.ErrNotFound) {
			return failure.ErrEventNotFound
		}
		if err != nil {
			return err
		}
		if !events.Registrable(event.Status) {
			return failure.ErrEventNotAvailable
		}

		existing, err := tx.FindRegistration(ctx, who.UserID, eventID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		if existing != nil && existing.Status == models.RegistrationConfirmed {
			return failure.ErrAlreadyRegistered
		}

		confirmed, err := tx.CountConfirmed(ctx, eventID)
		if err != nil {
			return err
		}
		if confirmed >= int64(event.Capacity) {
			return failure.ErrEventFull
		}

		reg := existing
		if reg != nil {
			ok, err := tx.ConfirmRegistration(ctx, reg.ID)
			if err != nil {
				return err
			}
			if !ok {
				return failure.ErrAlreadyRegistered
			}
			reg.Status = models.RegistrationConfirmed
			action = models.ActionReregistered
		} else {
			reg = &models.Registration{UserID: who.UserID, EventID: eventID, Status: models.RegistrationConfirmed}
			if err := tx.CreateRegistration(ctx, reg); err != nil {
				if errors.Is(err, store.ErrDuplicate) {
					return failure.ErrAlreadyRegistered
				}
				return err
			}
			action = models.ActionRegistered
		}
		return tx.AppendHistory(ctx, reg, action, who.UserID)
	})
	if err != nil {
		return err
	}

	s.log.Info("registration confirmed",
		zap.String("event_id", eventID),
		zap.Uint("user_id", who.UserID),
		zap.String("action", string(action)))
	s.reval.Revalidate(ctx, registrationPaths(eventID)...)
	return nil
}

// Cancel releases the caller's seat. Cancelling is refused once the event
// has started.
func (s *Service) Cancel(ctx context.Context, who identity.Identity, eventID string) error {
	if err := who.Require(); err != nil {
		return err
	}

	err := s.store.WithTransaction(ctx, func(tx *store.Store) error {
		reg, err := tx.FindRegistration(ctx, who.UserID, eventID)
		if errors.Is(err, store.ErrNotFound) {
			return failure.ErrNotRegistered
		}
		if err != nil {
			return err
		}
		if reg.Status != models.RegistrationConfirmed {
			return failure.ErrNotRegistered
		}
		if !reg.Event.StartTime.After(s.now()) {
			return failure.ErrEventStarted
		}

		ok, err := tx.CancelRegistration(ctx, reg.ID)
		if err != nil {
			return err
		}
		if !ok {
			return failure.ErrNotRegistered
		}
		reg.Status = models.RegistrationCancelled
		return tx.AppendHistory(ctx, reg, models.ActionCancelled, who.UserID)
	})
	if err != nil {
		return err
	}

	s.log.Info("registration cancelled", zap.String("event_id", eventID), zap.Uint("user_id", who.UserID))
	s.reval.Revalidate(ctx, registrationPaths(eventID)...)
	return nil
}

// UnknownAttendee is shown when the attendee has no display name.
const UnknownAttendee = "Unknown attendee"

// Attendee is what the check-in screen shows after a successful scan.
type Attendee struct {
	Name  string `json:"name"`
	Image string `json:"image,omitempty"`
}

// CheckIn marks the registration behind token as attended. The token must
// belong to eventID and can be used once.
func (s *Service) CheckIn(ctx context.Context, operator identity.Identity, token, eventID string) (*Attendee, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}

	var reg *models.Registration
	err := s.store.WithTransaction(ctx, func(tx *store.Store) error {
		var err error
		reg, err = tx.FindRegistrationByToken(ctx, token)
		if errors.Is(err, store.ErrNotFound) {
			return failure.ErrInvalidToken
		}
		if err != nil {
			return err
		}
		if reg.EventID != eventID {
			return failure.ErrWrongEvent
		}
		if reg.Status == models.RegistrationCancelled {
			return failure.ErrRegistrationCancelled
		}
		if reg.Attended {
			return failure.ErrAlreadyCheckedIn
		}

		at := s.now()
		ok, err := tx.MarkAttended(ctx, reg.ID, at)
		if err != nil {
			return err
		}
		if !ok {
			return failure.ErrAlreadyCheckedIn
		}
		reg.Attended, reg.AttendedAt = true, &at
		return tx.AppendHistory(ctx, reg, models.ActionCheckedIn, operator.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("attendee checked in",
		zap.String("event_id", eventID),
		zap.String("registration_id", reg.ID),
		zap.Uint("operator", operator.UserID))
	s.reval.Revalidate(ctx, revalidate.AdminCheckIn(eventID), revalidate.AdminRegistrations(eventID), revalidate.MyEvents)

	attendee := &Attendee{Name: reg.User.Name, Image: reg.User.Image}
	if attendee.Name == "" {
		attendee.Name = UnknownAttendee
	}
	return attendee, nil
}
