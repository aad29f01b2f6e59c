package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"crossarb/internal/apperror"
)

func TestStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusProcessing, StatusPending, false},
		{StatusCompleted, StatusProcessing, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestStatus_Terminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusProcessing.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestOpportunity_TransitionRejectsInvalidMove(t *testing.T) {
	opp := Opportunity{Status: StatusPending}

	err := opp.Transition(StatusCompleted)
	assert.True(t, apperror.IsCode(err, apperror.CodeStatusTransition))
	assert.Equal(t, StatusPending, opp.Status)

	assert.NoError(t, opp.Transition(StatusProcessing))
	assert.NoError(t, opp.Transition(StatusFailed))
	assert.Equal(t, StatusFailed, opp.Status)
}
