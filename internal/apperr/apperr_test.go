package apperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappers(t *testing.T) {
	err := Validation("severity %d out of range", 9)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "severity 9 out of range")

	err = NotFound("notification", 42)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "notification 42: not found", err.Error())

	err = InvalidStatus("Completed")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	cause := errors.New("connection refused")
	err = Unavailable("resolve role", cause)
	assert.ErrorIs(t, err, ErrDependencyUnavailable)
	assert.ErrorIs(t, err, cause)

	dup := errors.New("duplicate key value")
	err = Conflict("create assessment", dup)
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, err, dup)
	assert.NotErrorIs(t, err, ErrDependencyUnavailable)
}
