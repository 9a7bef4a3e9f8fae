// Package store is the persistence layer for events and registrations.
// A Store is constructed explicitly and handed to the services; inside
// WithTransaction the callback receives a Store bound to the transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/gdg-garage/community-events/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint rejects a write.
var ErrDuplicate = errors.New("duplicate")

type Store struct {
	db     *gorm.DB
	txOpts *sql.TxOptions
}

// New wraps db. txOpts may be nil to use the driver defaults.
func New(db *gorm.DB, txOpts *sql.TxOptions) *Store {
	return &Store{db: db, txOpts: txOpts}
}

// DB exposes the underlying handle for callers outside the registration core.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// WithTransaction runs fn as one unit of work. Any error returned by fn,
// typed failure or not, rolls the transaction back and is returned as is.
func (s *Store) WithTransaction(ctx context.Context, fn func(tx *Store) error) error {
	var opts []*sql.TxOptions
	if s.txOpts != nil {
		opts = append(opts, s.txOpts)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, txOpts: s.txOpts})
	}, opts...)
}

func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// ─── Events ──────────────────────────────────────────────────────────────────

func (s *Store) FindEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err, "find event")
	}
	return &e, nil
}

// LockEvent loads the event and takes a row lock on it until the surrounding
// transaction ends. SQLite has no row locks; its writers are already
// serialised by the immediate transaction mode.
func (s *Store) LockEvent(ctx context.Context, id string) (*models.Event, error) {
	var e models.Event
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "lock event")
	}
	return &e, nil
}

func (s *Store) CreateEvent(ctx context.Context, e *models.Event) error {
	return translate(s.db.WithContext(ctx).Create(e).Error, "create event")
}

func (s *Store) SaveEvent(ctx context.Context, e *models.Event) error {
	return translate(s.db.WithContext(ctx).Save(e).Error, "save event")
}

// UpdateEventStatus moves the event from one status to another. It reports
// false when the event was no longer in status from.
func (s *Store) UpdateEventStatus(ctx context.Context, id string, from, to models.EventStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Event{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error, "update event status")
	}
	return res.RowsAffected == 1, nil
}

// ListUpcomingEvents returns published events that have not ended, soonest first.
func (s *Store) ListUpcomingEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("status = ? AND end_time > ?", models.EventPublished, now).
		Order("start_time asc").
		Find(&events).Error
	return events, translate(err, "list upcoming events")
}

// ListPastEvents returns ended events and published events whose end time
// has passed, most recent first.
func (s *Store) ListPastEvents(ctx context.Context, now time.Time) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND end_time <= ?)", models.EventEnded, models.EventPublished, now).
		Order("start_time desc").
		Find(&events).Error
	return events, translate(err, "list past events")
}

// ListAllEvents returns events in every status, newest first.
func (s *Store) ListAllEvents(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := s.db.WithContext(ctx).Order("created_at desc").Find(&events).Error
	return events, translate(err, "list events")
}

// ─── Registrations ───────────────────────────────────────────────────────────

func (s *Store) FindRegistration(ctx context.Context, userID uint, eventID string) (*models.Registration, error) {
	var r models.Registration
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&r).Error
	if err != nil {
		return nil, translate(err, "find registration")
	}
	return &r, nil
}

func (s *Store) FindRegistrationByToken(ctx context.Context, token string) (*models.Registration, error) {
	var r models.Registration
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("qr_token = ?", token).
		First(&r).Error
	if err != nil {
		return nil, translate(err, "find registration by token")
	}
	return &r, nil
}

func (s *Store) CountConfirmed(ctx context.Context, eventID string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("event_id = ? AND status = ?", eventID, models.RegistrationConfirmed).
		Count(&n).Error
	return n, translate(err, "count confirmed")
}

// ConfirmedCounts returns the confirmed registration count per event id.
// Events without registrations are absent from the map.
func (s *Store) ConfirmedCounts(ctx context.Context, eventIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(eventIDs))
	if len(eventIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		EventID string
		Count   int64
	}
	err := s.db.WithContext(ctx).Model(&models.Registration{}).
		Select("event_id, count(*) as count").
		Where("event_id IN ? AND status = ?", eventIDs, models.RegistrationConfirmed).
		Group("event_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translate(err, "confirmed counts")
	}
	for _, r := range rows {
		counts[r.EventID] = r.Count
	}
	return counts, nil
}

func (s *Store) CreateRegistration(ctx context.Context, r *models.Registration) error {
	return translate(s.db.WithContext(ctx).Create(r).Error, "create registration")
}

// ConfirmRegistration flips a cancelled registration back to confirmed.
func (s *Store) ConfirmRegistration(ctx context.Context, id string) (bool, error) {
	return s.setRegistrationStatus(ctx, id, models.RegistrationCancelled, models.RegistrationConfirmed)
}

// CancelRegistration flips a confirmed registration to cancelled.
func (s *Store) CancelRegistration(ctx context.Context, id string) (bool, error) {
	return s.setRegistrationStatus(ctx, id, models.RegistrationConfirmed, models.RegistrationCancelled)
}

func (s *Store) setRegistrationStatus(ctx context.Context, id string, from, to models.RegistrationStatus) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, translate(res.Error, "update registration status")
	}
	return res.RowsAffected == 1, nil
}

// MarkAttended sets the attendance fields once. It reports false when the
// registration was already marked.
func (s *Store) MarkAttended(ctx context.Context, id string, at time.Time) (bool, error) {
	res := s.db.WithContext(ctx).Model(&models.Registration{}).
		Where("id = ? AND attended = ?", id, false).
		Updates(map[string]any{"attended": true, "attended_at": at})
	if res.Error != nil {
		return false, translate(res.Error, "mark attended")
	}
	return res.RowsAffected == 1, nil
}

// ListEventRegistrations returns every registration row of an event with its
// user, newest first.
func (s *Store) ListEventRegistrations(ctx context.Context, eventID string) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at desc").
		Find(&regs).Error
	return regs, translate(err, "list event registrations")
}

// ListUserRegistrations returns the user's confirmed registrations with their events.
func (s *Store) ListUserRegistrations(ctx context.Context, userID uint) ([]models.Registration, error) {
	var regs []models.Registration
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND status = ?", userID, models.RegistrationConfirmed).
		Find(&regs).Error
	return regs, translate(err, "list user registrations")
}

// ─── History ─────────────────────────────────────────────────────────────────

func (s *Store) AppendHistory(ctx context.Context, r *models.Registration, action models.HistoryAction, actorID uint) error {
	h := models.RegistrationHistory{
		RegistrationID: r.ID,
		UserID:         r.UserID,
		EventID:        r.EventID,
		Action:         action,
		Status:         r.Status,
		Attended:       r.Attended,
		ActorID:        actorID,
	}
	return translate(s.db.WithContext(ctx).Create(&h).Error, "append history")
}

func (s *Store) ListHistory(ctx context.Context, eventID string) ([]models.RegistrationHistory, error) {
	var history []models.RegistrationHistory
	err := s.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at desc, id desc").
		Find(&history).Error
	return history, translate(err, "list history")
}
