package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewError_MatchesKind(t *testing.T) {
	t.Parallel()

	err := NewError(ErrorValidation, "Todo item already exists")

	assert.True(t, errors.Is(err, ErrorValidation))
	assert.False(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "Todo item already exists", err.Error())
}

func TestNewError_SurvivesWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("create todo: %w", NewError(ErrorNotFound, "Todo not found"))

	assert.True(t, errors.Is(err, ErrorNotFound))
	assert.Equal(t, "Todo not found", Message(err, "fallback"))
}

func TestMessage_Fallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "fallback", Message(ErrorUnauthorized, "fallback"))
	assert.Equal(t, "fallback", Message(NewError(ErrorUnauthorized, ""), "fallback"))
}
