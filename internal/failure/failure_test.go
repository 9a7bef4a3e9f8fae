package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMatchesByCode(t *testing.T) {
	err := New(CodeEventFull, "custom message")
	assert.True(t, errors.Is(err, ErrEventFull))
	assert.False(t, errors.Is(err, ErrAlreadyRegistered))

	wrapped := fmt.Errorf("register: %w", err)
	assert.True(t, errors.Is(wrapped, ErrEventFull))
}

func TestAs(t *testing.T) {
	f, ok := As(fmt.Errorf("outer: %w", ErrWrongEvent))
	assert.True(t, ok)
	assert.Equal(t, CodeWrongEvent, f.Code)

	_, ok = As(errors.New("disk on fire"))
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	cases := map[*Error]Kind{
		ErrUnauthorized:          KindUnauthorized,
		ErrForbidden:             KindForbidden,
		ErrEventNotFound:         KindNotFound,
		ErrNotRegistered:         KindNotFound,
		ErrEventNotAvailable:     KindInvalidState,
		ErrEventStarted:          KindInvalidState,
		ErrRegistrationCancelled: KindInvalidState,
		ErrEventFull:             KindCapacityExceeded,
		ErrInvalidToken:          KindTokenMismatch,
		ErrWrongEvent:            KindTokenMismatch,
		ErrAlreadyRegistered:     KindAlreadyDone,
		ErrAlreadyCheckedIn:      KindAlreadyDone,
	}
	for err, want := range cases {
		assert.Equal(t, want, err.Kind(), string(err.Code))
	}
	assert.Equal(t, KindInvalidInput, Invalid("title", "too short").Kind())
}

func TestInvalid(t *testing.T) {
	err := Invalid("capacity", "Capacity must be greater than 0")
	assert.Equal(t, "capacity", err.Field)
	assert.Equal(t, "VALIDATION_FAILED: Capacity must be greater than 0", err.Error())
}
