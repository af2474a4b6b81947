package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", fmt.Errorf("application not found: %w", ErrNotFound), http.StatusNotFound},
		{"unauthenticated", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("reviewers cannot send messages: %w", ErrForbidden), http.StatusForbidden},
		{"conflict", fmt.Errorf("already applied: %w", ErrConflict), http.StatusConflict},
		{"deadline", fmt.Errorf("the application deadline has passed: %w", ErrDeadlinePassed), http.StatusBadRequest},
		{"validation", fmt.Errorf("note cannot be empty: %w", ErrInvalidInput), http.StatusBadRequest},
		{"app error", New(http.StatusRequestEntityTooLarge, "file too large", nil), http.StatusRequestEntityTooLarge},
		{"store failure", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatus(tc.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, `"Why us?" is required`, Message(fmt.Errorf(`"Why us?" is required: %w`, ErrInvalidInput)))
	assert.Equal(t, "pq: duplicate key", Message(errors.New("pq: duplicate key")))
	assert.Equal(t, "file too large", Message(New(http.StatusRequestEntityTooLarge, "file too large", ErrInvalidInput)))
	assert.Equal(t, "", Message(nil))
}
