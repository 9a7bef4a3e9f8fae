package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gdg-garage/community-events/internal/config"
	"github.com/gdg-garage/community-events/internal/database"
	"github.com/gdg-garage/community-events/internal/events"
	"github.com/gdg-garage/community-events/internal/failure"
	"github.com/gdg-garage/community-events/internal/identity"
	"github.com/gdg-garage/community-events/internal/models"
	"github.com/gdg-garage/community-events/internal/registration"
	"github.com/gdg-garage/community-events/internal/revalidate"
	"github.com/gdg-garage/community-events/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type env struct {
	db           *gorm.DB
	store        *store.Store
	registration *RegistrationHandler
	events       *EventHandler
	admin        *AdminHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, err := database.Open(&config.Config{DatabaseDriver: "sqlite", DatabasePath: database.MemoryPath}, nil)
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	st := store.New(db, nil)
	evSvc := events.NewService(st, revalidate.Nop{}, log)
	return &env{
		db:           db,
		store:        st,
		registration: NewRegistrationHandler(registration.NewService(st, revalidate.Nop{}, log), log),
		events:       NewEventHandler(evSvc, nil, log),
		admin:        NewAdminHandler(evSvc, log),
	}
}

func (e *env) user(t *testing.T, name string, role models.Role) identity.Identity {
	t.Helper()
	u := &models.User{Name: name, Email: name + "@example.com", Role: role}
	require.NoError(t, e.db.Create(u).Error)
	return identity.User(u.ID, role)
}

func (e *env) event(t *testing.T, status models.EventStatus, capacity int) *models.Event {
	t.Helper()
	start := time.Now().UTC().Add(72 * time.Hour)
	ev := &models.Event{
		Title:       "Handlers meetup",
		Description: "Talks about HTTP handlers",
		StartTime:   start,
		EndTime:     start.Add(time.Hour),
		Location:    "Hall B",
		Capacity:    capacity,
		Status:      status,
	}
	require.NoError(t, e.store.CreateEvent(context.Background(), ev))
	return ev
}

func asUser(who identity.Identity) context.Context {
	return identity.WithIdentity(context.Background(), who)
}

func requireErrorBody(t *testing.T, err error, status int, code failure.Code) {
	t.Helper()
	var body *ErrorBody
	require.True(t, errors.As(err, &body), "expected *ErrorBody, got %T", err)
	assert.Equal(t, status, body.Status)
	assert.Equal(t, string(code), body.Code)
	assert.NotEmpty(t, body.Message)
}

func TestHandleRegister(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	bob := e.user(t, "bob", models.RoleUser)
	ev := e.event(t, models.EventPublished, 1)

	resp, err := e.registration.HandleRegister(asUser(alice), &EventIDInput{ID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, "Registration confirmed", resp.Body.Message)

	_, err = e.registration.HandleRegister(asUser(alice), &EventIDInput{ID: ev.ID})
	requireErrorBody(t, err, http.StatusConflict, failure.CodeAlreadyRegistered)

	_, err = e.registration.HandleRegister(asUser(bob), &EventIDInput{ID: ev.ID})
	requireErrorBody(t, err, http.StatusConflict, failure.CodeEventFull)

	_, err = e.registration.HandleRegister(context.Background(), &EventIDInput{ID: ev.ID})
	requireErrorBody(t, err, http.StatusUnauthorized, failure.CodeUnauthorized)

	_, err = e.registration.HandleRegister(asUser(bob), &EventIDInput{ID: "missing"})
	requireErrorBody(t, err, http.StatusNotFound, failure.CodeEventNotFound)

	draft := e.event(t, models.EventDraft, 5)
	_, err = e.registration.HandleRegister(asUser(bob), &EventIDInput{ID: draft.ID})
	requireErrorBody(t, err, http.StatusConflict, failure.CodeEventNotAvailable)
}

func TestHandleCancel(t *testing.T) {
	e := newEnv(t)
	alice := e.user(t, "alice", models.RoleUser)
	ev := e.event(t, models.EventPublished, 3)

	_, err := e.registration.HandleCancel(asUser(alice), &EventIDInput{ID: ev.ID})
	requireErrorBody(t, err, http.StatusNotFound, failure.CodeNotRegistered)

	_, err = e.registration.HandleRegister(asUser(alice), &EventIDInput{ID: ev.ID})
	require.NoError(t, err)
	resp, err := e.registration.HandleCancel(asUser(alice), &EventIDInput{ID: ev.ID})
	require.NoError(t, err)
	assert.Equal(t, "Registration cancelled", resp.Body.Message)
}

func TestHandleCheckIn(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	alice := e.user(t, "alice", models.RoleUser)
	ev := e.event(t, models.EventPublished, 3)
	other := e.event(t, models.EventPublished, 3)

	_, err := e.registration.HandleRegister(asUser(alice), &EventIDInput{ID: ev.ID})
	require.NoError(t, err)
	reg, err := e.store.FindRegistration(context.Background(), alice.UserID, ev.ID)
	require.NoError(t, err)

	req := &CheckInRequest{ID: other.ID}
	req.Body.Token = reg.QRToken
	_, err = e.registration.HandleCheckIn(asUser(admin), req)
	requireErrorBody(t, err, http.StatusUnprocessableEntity, failure.CodeWrongEvent)

	_, err = e.registration.HandleCheckIn(asUser(alice), req)
	requireErrorBody(t, err, http.StatusForbidden, failure.CodeForbidden)

	req.ID = ev.ID
	resp, err := e.registration.HandleCheckIn(asUser(admin), req)
	require.NoError(t, err)
	assert.Equal(t, "alice", resp.Body.Name)

	_, err = e.registration.HandleCheckIn(asUser(admin), req)
	requireErrorBody(t, err, http.StatusConflict, failure.CodeAlreadyCheckedIn)
}

func TestHandleSetStatus_AlwaysNoContent(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	member := e.user(t, "member", models.RoleUser)
	ev := e.event(t, models.EventEnded, 3)

	req := &SetStatusRequest{ID: ev.ID}
	req.Body.Status = models.EventPublished
	for _, who := range []identity.Identity{admin, member, identity.Anonymous()} {
		out, err := e.admin.HandleSetStatus(asUser(who), req)
		assert.NoError(t, err)
		assert.Nil(t, out)
	}

	got, err := e.store.FindEvent(context.Background(), ev.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EventEnded, got.Status)
}

func TestHandleCreate_Validation(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)

	req := &CreateEventRequest{}
	req.Body.Title = "Go"
	req.Body.Description = "Long enough description"
	req.Body.StartTime = time.Now().Add(time.Hour)
	req.Body.EndTime = time.Now().Add(2 * time.Hour)
	req.Body.Location = "Hall"
	req.Body.Capacity = 10

	_, err := e.admin.HandleCreate(asUser(admin), req)
	requireErrorBody(t, err, http.StatusBadRequest, failure.CodeValidationFailed)
	var body *ErrorBody
	require.True(t, errors.As(err, &body))
	assert.Equal(t, "title", body.Field)

	req.Body.Title = "Go in production"
	req.Body.Publish = true
	out, err := e.admin.HandleCreate(asUser(admin), req)
	require.NoError(t, err)
	assert.Equal(t, models.EventPublished, out.Body.Status)
}

func TestRenderError_HidesStorageFailures(t *testing.T) {
	err := renderError(zaptest.NewLogger(t), errors.New("disk on fire"))
	var body *ErrorBody
	require.True(t, errors.As(err, &body))
	assert.Equal(t, http.StatusInternalServerError, body.Status)
	assert.NotContains(t, body.Message, "disk")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusConflict, StatusFor(failure.KindCapacityExceeded))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(failure.KindTokenMismatch))
	assert.Equal(t, http.StatusBadRequest, StatusFor(failure.KindInvalidInput))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("SOMETHING_ELSE"))
}
