// Package events manages the event lifecycle: the admin console operations,
// the status state machine and the public listings.
package events

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

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
		log:   log.Named("events"),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Tab selects a slice of a listing.
type Tab string

const (
	TabUpcoming Tab = "upcoming"
	TabPast     Tab = "past"
)

// ParseTab falls back to upcoming for anything but "past".
func ParseTab(s string) Tab {
	if Tab(s) == TabPast {
		return TabPast
	}
	return TabUpcoming
}

// Summary is an event with its confirmed registration count.
type Summary struct {
	models.Event
	Confirmed int64 `json:"confirmed"`
}

func (s Summary) Full() bool {
	return s.Confirmed >= int64(s.Capacity)
}

// eventPaths are the views that show an existing event's status, schedule
// or capacity. My-events lists embed the event, so they go stale too.
func eventPaths(eventID string) []string {
	return []string{
		revalidate.AdminEvents,
		revalidate.EventList,
		revalidate.EventDetail(eventID),
		revalidate.MyEvents,
	}
}

// ─── Status ──────────────────────────────────────────────────────────────────

// SetStatus moves an event to target. Unauthorised callers, unknown events
// and illegal transitions are ignored and reported as false; only storage
// failures are returned.
func (s *Service) SetStatus(ctx context.Context, operator identity.Identity, eventID string, target models.EventStatus) (bool, error) {
	log := s.log.With(zap.String("event_id", eventID), zap.String("target", string(target)))

	if !operator.IsAdmin() {
		log.Debug("status change ignored", zap.String("reason", "not an admin"))
		return false, nil
	}
	if !ValidStatus(target) {
		log.Warn("status change ignored", zap.String("reason", "unknown status"))
		return false, nil
	}
	event, err := s.store.FindEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug("status change ignored", zap.String("reason", "event not found"))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !CanTransition(event.Status, target) {
		log.Debug("status change ignored", zap.String("reason", "illegal transition"), zap.String("from", string(event.Status)))
		return false, nil
	}

	changed, err := s.store.UpdateEventStatus(ctx, eventID, event.Status, target)
	if err != nil {
		return false, err
	}
	if !changed {
		log.Debug("status change ignored", zap.String("reason", "status changed concurrently"))
		return false, nil
	}

	log.Info("event status changed", zap.String("from", string(event.Status)), zap.Uint("operator", operator.UserID))
	s.reval.Revalidate(ctx, eventPaths(eventID)...)
	return true, nil
}

// ─── Admin console ───────────────────────────────────────────────────────────

// Create stores a new event organised by the operator, published right away
// or kept as a draft.
func (s *Service) Create(ctx context.Context, operator identity.Identity, in Input, publish bool) (*models.Event, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := in.Validate(s.now(), true); err != nil {
		return nil, err
	}

	event := &models.Event{Status: models.EventDraft, OrganizerID: operator.UserID}
	if publish {
		event.Status = models.EventPublished
	}
	in.apply(event)
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	s.log.Info("event created", zap.String("event_id", event.ID), zap.String("status", string(event.Status)))
	if publish {
		s.reval.Revalidate(ctx, revalidate.AdminEvents, revalidate.EventList)
	} else {
		s.reval.Revalidate(ctx, revalidate.AdminEvents)
	}
	return event, nil
}

// Update edits an event. Ended and cancelled events only accept text
// changes, and capacity may not drop below the confirmed count.
func (s *Service) Update(ctx context.Context, operator identity.Identity, eventID string, in Input) (*models.Event, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}
	if err := in.Validate(s.now(), false); err != nil {
		return nil, err
	}

	var event *models.Event
	err := s.store.WithTransaction(ctx, func(tx *store.Store) error {
		var err error
		event, err = tx.LockEvent(ctx, eventID)
		if errors.Is(err, store.ErrNotFound) {
			return failure.ErrEventNotFound
		}
		if err != nil {
			return err
		}

		if Terminal(event.Status) {
			if field := in.scheduleChanged(event); field != "" {
				return failure.Invalid(field, "Ended or cancelled events only accept title, description, location and speaker changes")
			}
		}
		if in.Capacity < event.Capacity {
			confirmed, err := tx.CountConfirmed(ctx, eventID)
			if err != nil {
				return err
			}
			if int64(in.Capacity) < confirmed {
				return failure.Invalid("capacity", fmt.Sprintf("Capacity cannot be lower than the %d confirmed registrations", confirmed))
			}
		}

		in.apply(event)
		return tx.SaveEvent(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("event updated", zap.String("event_id", eventID), zap.Uint("operator", operator.UserID))
	s.reval.Revalidate(ctx, eventPaths(eventID)...)
	return event, nil
}

// ListAdmin returns events in every status, newest first.
func (s *Service) ListAdmin(ctx context.Context, operator identity.Identity) ([]Summary, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}
	events, err := s.store.ListAllEvents(ctx)
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, events)
}

// RosterEntry is one registration row as shown to admins.
type RosterEntry struct {
	ID         string                    `json:"id"`
	UserID     uint                      `json:"user_id"`
	Name       string                    `json:"name"`
	Email      string                    `json:"email"`
	Status     models.RegistrationStatus `json:"status"`
	Attended   bool                      `json:"attended"`
	AttendedAt *time.Time                `json:"attended_at,omitempty"`
	CreatedAt  time.Time                 `json:"created_at"`
}

type Roster struct {
	Event         Summary       `json:"event"`
	FillPercent   int           `json:"fill_percent"`
	Registrations []RosterEntry `json:"registrations"`
}

// Registrations lists every registration of an event, cancelled ones
// included, newest first.
func (s *Service) Registrations(ctx context.Context, operator identity.Identity, eventID string) (*Roster, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	regs, err := s.store.ListEventRegistrations(ctx, eventID)
	if err != nil {
		return nil, err
	}

	roster := &Roster{Event: Summary{Event: *event}, Registrations: make([]RosterEntry, 0, len(regs))}
	for _, r := range regs {
		if r.Status == models.RegistrationConfirmed {
			roster.Event.Confirmed++
		}
		roster.Registrations = append(roster.Registrations, RosterEntry{
			ID:         r.ID,
			UserID:     r.UserID,
			Name:       r.User.Name,
			Email:      r.User.Email,
			Status:     r.Status,
			Attended:   r.Attended,
			AttendedAt: r.AttendedAt,
			CreatedAt:  r.CreatedAt,
		})
	}
	roster.FillPercent = fillPercent(roster.Event.Confirmed, event.Capacity)
	return roster, nil
}

func fillPercent(confirmed int64, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(float64(confirmed) * 100 / float64(capacity)))
}

// History returns the registration audit trail of an event, newest first.
func (s *Service) History(ctx context.Context, operator identity.Identity, eventID string) ([]models.RegistrationHistory, error) {
	if err := operator.RequireAdmin(); err != nil {
		return nil, err
	}
	if _, err := s.findEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, eventID)
}

// ─── Public ──────────────────────────────────────────────────────────────────

// ListPublic returns published events that have not ended (upcoming) or
// events that are over (past).
func (s *Service) ListPublic(ctx context.Context, tab Tab) ([]Summary, error) {
	var (
		events []models.Event
		err    error
	)
	if tab == TabPast {
		events, err = s.store.ListPastEvents(ctx, s.now())
	} else {
		events, err = s.store.ListUpcomingEvents(ctx, s.now())
	}
	if err != nil {
		return nil, err
	}
	return s.summarize(ctx, events)
}

// Get returns a published or ended event. Drafts and cancelled events are
// reported as not found.
func (s *Service) Get(ctx context.Context, eventID string) (*Summary, error) {
	event, err := s.findEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !Visible(event.Status) {
		return nil, failure.ErrEventNotFound
	}
	n, err := s.store.CountConfirmed(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return &Summary{Event: *event, Confirmed: n}, nil
}

// MyRegistration returns the caller's registration for an event, or nil
// when there is none or the caller is anonymous.
func (s *Service) MyRegistration(ctx context.Context, who identity.Identity, eventID string) (*models.Registration, error) {
	if !who.Authenticated {
		return nil, nil
	}
	reg, err := s.store.FindRegistration(ctx, who.UserID, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return reg, err
}

// MyEvent is an event the caller holds a confirmed registration for.
type MyEvent struct {
	Summary
	RegistrationID string     `json:"registration_id"`
	CheckInToken   string     `json:"check_in_token"`
	Attended       bool       `json:"attended"`
	AttendedAt     *time.Time `json:"attended_at,omitempty"`
}

// MyEvents returns the caller's confirmed registrations. Upcoming holds
// published events that have not started, soonest first; past holds ended
// events and published ones that have started, latest first.
func (s *Service) MyEvents(ctx context.Context, who identity.Identity, tab Tab) ([]MyEvent, error) {
	if err := who.Require(); err != nil {
		return nil, err
	}
	regs, err := s.store.ListUserRegistrations(ctx, who.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	picked := make([]models.Registration, 0, len(regs))
	for _, r := range regs {
		started := !r.Event.StartTime.After(now)
		switch {
		case tab == TabUpcoming && r.Event.Status == models.EventPublished && !started:
		case tab == TabPast && (r.Event.Status == models.EventEnded || r.Event.Status == models.EventPublished && started):
		default:
			continue
		}
		picked = append(picked, r)
	}
	sort.Slice(picked, func(i, j int) bool {
		if tab == TabPast {
			return picked[i].Event.StartTime.After(picked[j].Event.StartTime)
		}
		return picked[i].Event.StartTime.Before(picked[j].Event.StartTime)
	})

	ids := make([]string, len(picked))
	for i, r := range picked {
		ids[i] = r.EventID
	}
	counts, err := s.store.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]MyEvent, 0, len(picked))
	for _, r := range picked {
		out = append(out, MyEvent{
			Summary:        Summary{Event: r.Event, Confirmed: counts[r.EventID]},
			RegistrationID: r.ID,
			CheckInToken:   r.QRToken,
			Attended:       r.Attended,
			AttendedAt:     r.AttendedAt,
		})
	}
	return out, nil
}

func (s *Service) findEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.store.FindEvent(ctx, eventID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, failure.ErrEventNotFound
	}
	return event, err
}

func (s *Service) summarize(ctx context.Context, events []models.Event) ([]Summary, error) {
	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	counts, err := s.store.ConfirmedCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(events))
	for _, e := range events {
		out = append(out, Summary{Event: e, Confirmed: counts[e.ID]})
	}
	return out, nil
}
