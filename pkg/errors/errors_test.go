package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_StatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, ErrEmptyPrompt.HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, ErrLLMCallFailed.HTTPStatus)
	assert.Equal(t, http.StatusTooManyRequests, ErrTooManyRequests.HTTPStatus)
	assert.Equal(t, http.StatusServiceUnavailable, ErrServiceUnavailable.HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, ErrInternalError.HTTPStatus)
	assert.Equal(t, http.StatusInternalServerError, ErrLLMProviderError.HTTPStatus)
}

func TestAppError_Describe(t *testing.T) {
	assert.Equal(t, "Prompt cannot be empty", ErrEmptyPrompt.Describe())

	upstream := stderrors.New("401 unauthorized: invalid api key")
	wrapped := ErrLLMCallFailed.WithError(upstream)
	assert.Equal(t, "401 unauthorized: invalid api key", wrapped.Describe())
	assert.Contains(t, wrapped.Error(), "[4005] LLM call failed")
	assert.ErrorIs(t, wrapped, upstream)
}

func TestAppError_WithErrorDoesNotMutateSentinel(t *testing.T) {
	_ = ErrLLMCallFailed.WithError(stderrors.New("boom")).WithDetail("detail")
	assert.Nil(t, ErrLLMCallFailed.Err)
	assert.Empty(t, ErrLLMCallFailed.Detail)
}

func TestAsAppError(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", ErrEmptyPrompt)
	require.True(t, IsAppError(wrapped))
	assert.Same(t, ErrEmptyPrompt, AsAppError(wrapped))

	plain := stderrors.New("plain")
	appErr := AsAppError(plain)
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
	assert.Equal(t, "plain", appErr.Describe())
}
