package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("Task %q not exists", "x"), http.StatusNotFound},
		{Conflict("dup"), http.StatusConflict},
		{Validation([]string{"a", "b"}), http.StatusBadRequest},
		{InvalidSearchCriteria("bad"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", ErrConcurrentUpdate), http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, c := range cases {
		assert.Equal(t, c.want, StatusCode(c.err), c.err.Error())
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("store: %w", Conflict("Category with name: Books already exists"))

	assert.True(t, errors.Is(err, ErrConflict))
	assert.False(t, errors.Is(err, ErrConcurrentUpdate))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(ErrConcurrentUpdate, ErrConflict))
}

func TestValidationKeepsEveryMessage(t *testing.T) {
	msgs := []string{"Task has empty field 'name'", "Deadline cannot be in the past"}
	err := Validation(msgs)
	msgs[0] = "mutated"

	assert.Equal(t, []string{"Task has empty field 'name'", "Deadline cannot be in the past"}, err.Details)
	assert.False(t, IsRetryable(err))
	assert.True(t, IsRetryable(ErrConcurrentUpdate))
}
