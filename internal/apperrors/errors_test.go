package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReasonCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"wrapped unbalanced", fmt.Errorf("%w: debit 100 credit 90", ErrUnbalancedEntry), "UNBALANCED_ENTRY"},
		{"period closed", ErrPeriodClosed, "PERIOD_CLOSED"},
		{"not found helper", NewNotFoundError("entry", "42"), "NOT_FOUND"},
		{"app error around sentinel", NewAppError(500, "insert failed", ErrDuplicate), "DUPLICATE"},
		{"unknown", errors.New("boom"), "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReasonCode(tt.err))
		})
	}
}

func TestAutoPostError_Unwrap(t *testing.T) {
	err := NewAutoPostError("balance", fmt.Errorf("%w: off by 10", ErrUnbalancedEntry))

	assert.Equal(t, "balance", err.Stage)
	assert.Equal(t, "UNBALANCED_ENTRY", err.Reason)
	assert.ErrorIs(t, err, ErrUnbalancedEntry)

	var target *AutoPostError
	assert.True(t, errors.As(fmt.Errorf("outer: %w", err), &target))
}
