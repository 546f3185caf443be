package application

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	assert.Equal(t, "", err.Error())

	empty := &ValidationError{}
	assert.Equal(t, "validation failed", empty.Error())

	withFields := &ValidationError{FieldErrors: map[string]string{"start": "bad", "end": "bad"}}
	assert.Equal(t, "validation failed: end, start", withFields.Error())
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	assert.False(t, (&ValidationError{}).HasErrors())
	assert.True(t, (&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors())
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("first", "value")
	base.add("first", "ignored")
	assert.Equal(t, "value", base.FieldErrors["first"])

	other := &ValidationError{FieldErrors: map[string]string{"second": "another"}}
	base.merge(other)
	assert.Equal(t, "another", base.FieldErrors["second"])

	base.merge(nil)
	assert.Len(t, base.FieldErrors, 2)
}

func TestErrorWrapping(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: refused")

	err := upstream("load calendar", cause)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, ErrNotFound, upstream("load calendar", ErrNotFound))

	err = submissionFailed(cause)
	assert.ErrorIs(t, err, ErrSubmissionFailed)
	assert.ErrorIs(t, err, cause)
}

func TestErrorKind(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrUnauthorized, "unauthorized"},
		{ErrNotFound, "not_found"},
		{ErrSessionExpired, "session_expired"},
		{ErrConflict, "conflict"},
		{ErrClosedDay, "closed_day"},
		{submissionFailed(errors.New("x")), "submission_failed"},
		{upstream("op", errors.New("x")), "upstream"},
		{ErrEmptyCart, "empty_cart"},
		{ErrCheckoutDisabled, "checkout_disabled"},
		{newValidationError("start", "required"), "validation"},
		{context.Canceled, "canceled"},
		{errors.New("boom"), "unexpected"},
	} {
		assert.Equal(t, tc.want, ErrorKind(tc.err), "%v", tc.err)
	}
}
