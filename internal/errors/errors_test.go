package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	err := ValidationError("weight out of range")
	assert.Equal(t, "validation: weight out of range", err.Error())

	cause := fmt.Errorf("connection refused")
	err = CollectionError("fetch failed", cause)
	assert.Equal(t, "collection: fetch failed: connection refused", err.Error())
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := InternalError("something broke", cause)
	require.ErrorIs(t, err, cause)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want int
	}{
		{"validation", ValidationError("bad"), http.StatusBadRequest},
		{"not found", NotFoundError("missing"), http.StatusNotFound},
		{"collection", CollectionError("fetch", nil), http.StatusBadGateway},
		{"scheduling", SchedulingError("cron", nil), http.StatusUnprocessableEntity},
		{"internal", InternalError("boom", nil), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWithField(t *testing.T) {
	err := NotFoundError("source not found").
		WithField("source_id", "abc").
		WithField("plugin", "numeric_index")

	assert.Equal(t, "abc", err.Context["source_id"])
	assert.Equal(t, "numeric_index", err.Context["plugin"])
}

func TestIsType(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", SchedulingError("bad cron", nil))
	assert.True(t, IsType(err, TypeScheduling))
	assert.False(t, IsType(err, TypeValidation))
	assert.False(t, IsType(fmt.Errorf("plain"), TypeScheduling))
}

func TestAsStructuredError(t *testing.T) {
	structured := ValidationError("bad input")
	assert.Same(t, structured, AsStructuredError(structured))

	plain := fmt.Errorf("plain failure")
	wrapped := AsStructuredError(plain)
	assert.Equal(t, TypeInternal, wrapped.Type)
	require.ErrorIs(t, wrapped, plain)

	assert.Nil(t, AsStructuredError(nil))
}
