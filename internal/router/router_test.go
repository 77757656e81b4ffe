package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprintloop/internal/config"
	"sprintloop/internal/status"
)

func TestPhaseFor(t *testing.T) {
	tests := []struct {
		name      string
		status    status.Status
		wantPhase string
		wantErr   error
	}{
		{
			name:      "backlog routes to create",
			status:    status.StatusBacklog,
			wantPhase: config.PhaseCreate,
		},
		{
			name:      "ready-for-dev routes to develop",
			status:    status.StatusReadyForDev,
			wantPhase: config.PhaseDevelop,
		},
		{
			name:      "in-progress routes to develop",
			status:    status.StatusInProgress,
			wantPhase: config.PhaseDevelop,
		},
		{
			name:      "review routes to review",
			status:    status.StatusReview,
			wantPhase: config.PhaseReview,
		},
		{
			name:    "done is complete",
			status:  status.StatusDone,
			wantErr: ErrStoryComplete,
		},
		{
			name:    "blocked needs intervention",
			status:  status.StatusBlocked,
			wantErr: ErrStoryBlocked,
		},
		{
			name:    "unknown status",
			status:  status.Status("shipped"),
			wantErr: ErrUnknownStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phase, err := PhaseFor(tt.status)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantPhase, phase)
		})
	}
}

func TestSelectionOrder(t *testing.T) {
	// Unstarted work is preferred over work bounced back by review.
	require.Len(t, SelectionOrder, 4)
	assert.Equal(t, status.StatusBacklog, SelectionOrder[0])
	assert.Equal(t, status.StatusInProgress, SelectionOrder[3])

	// Every status in the selection order must be actionable.
	for _, s := range SelectionOrder {
		phase, err := PhaseFor(s)
		require.NoError(t, err)
		assert.NotEmpty(t, phase)
	}
}
