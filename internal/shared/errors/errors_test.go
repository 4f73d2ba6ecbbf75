package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorType
	}{
		{http.StatusUnauthorized, ErrorTypeUnauthorized},
		{http.StatusForbidden, ErrorTypeForbidden},
		{http.StatusNotFound, ErrorTypeNotFound},
		{http.StatusBadRequest, ErrorTypeValidation},
		{http.StatusInternalServerError, ErrorTypeRequest},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.code), func(t *testing.T) {
			err := FromStatus(tt.code, "boom")
			assert.Equal(t, tt.want, err.Type)
			assert.Equal(t, "boom", err.Message)
		})
	}
}

func TestNewRequestError_DefaultsCode(t *testing.T) {
	err := NewRequestError(0, "network down")
	assert.Equal(t, http.StatusBadGateway, err.Code)
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("fetch tickets: %w", NewRequestError(500, "request failed", "Ticket not accessible"))
	assert.Equal(t, "Ticket not accessible", UserMessage(wrapped))
	assert.Equal(t, "request failed", UserMessage(NewRequestError(500, "request failed")))
	assert.Equal(t, "Something went wrong, please try again", UserMessage(fmt.Errorf("plain")))
	assert.Empty(t, UserMessage(nil))
}

func TestTypePredicates(t *testing.T) {
	err := fmt.Errorf("get ticket: %w", NewNotFoundError("ticket not found"))
	assert.True(t, IsAppError(err))
	assert.True(t, IsNotFoundError(err))
	assert.False(t, IsForbiddenError(err))
	assert.True(t, IsForbiddenError(NewForbiddenError("no access")))
	assert.True(t, IsValidationError(NewValidationError("bad")))
}
