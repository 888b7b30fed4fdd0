package orderstatus_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sanaol/canteen/internal/orderstatus"
)

func TestIndex_KnownStatuses(t *testing.T) {
	cases := map[string]int{
		"pending":     0,
		"accepted":    1,
		"in_progress": 2,
		"ready":       3,
		"completed":   4,
		"In Progress": 2,
		"IN_PROGRESS": 2,
		"in-progress": 2,
		"  Ready ":    3,
		"COMPLETED":   4,
	}
	for raw, want := range cases {
		assert.Equal(t, want, orderstatus.Index(raw), "Index(%q)", raw)
	}
}

func TestIndex_CancelledAndUnknownDefaultToZero(t *testing.T) {
	for _, raw := range []string{"cancelled", "Cancelled", "", "   ", "shipped", "in progress!"} {
		assert.Equal(t, 0, orderstatus.Index(raw), "Index(%q)", raw)
	}
}

func TestProgressOf_CancelledIsFlaggedSeparately(t *testing.T) {
	cancelled := orderstatus.ProgressOf("cancelled")
	pending := orderstatus.ProgressOf("pending")

	assert.Equal(t, pending.Index, cancelled.Index)
	assert.True(t, cancelled.Cancelled)
	assert.False(t, pending.Cancelled)
	assert.Equal(t, "Cancelled", cancelled.Label)
	assert.Equal(t, "Pending", pending.Label)
}

func TestLookup_Strict(t *testing.T) {
	s, ok := orderstatus.Lookup("in progress")
	assert.True(t, ok)
	assert.Equal(t, orderstatus.InProgress, s)

	_, ok = orderstatus.Lookup("delivered")
	assert.False(t, ok)
}

func TestSteps_ReturnsCopy(t *testing.T) {
	steps := orderstatus.Steps()
	assert.Len(t, steps, 5)
	steps[0] = orderstatus.Cancelled
	assert.Equal(t, orderstatus.Pending, orderstatus.Steps()[0])
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to orderstatus.Status
		ok       bool
	}{
		{orderstatus.Pending, orderstatus.Accepted, true},
		{orderstatus.Accepted, orderstatus.Ready, true},
		{orderstatus.Ready, orderstatus.Completed, true},
		{orderstatus.InProgress, orderstatus.InProgress, true},
		{orderstatus.Pending, orderstatus.Cancelled, true},
		{orderstatus.Ready, orderstatus.Cancelled, true},
		{orderstatus.Ready, orderstatus.Accepted, false},
		{orderstatus.Completed, orderstatus.Cancelled, false},
		{orderstatus.Cancelled, orderstatus.Pending, false},
		{orderstatus.Cancelled, orderstatus.Cancelled, false},
	}
	for _, tt := range tests {
		err := orderstatus.CanTransition(tt.from, tt.to)
		if tt.ok {
			assert.NoError(t, err, "%s -> %s", tt.from, tt.to)
			continue
		}
		assert.True(t, errors.Is(err, orderstatus.ErrInvalidTransition), "%s -> %s: %v", tt.from, tt.to, err)
	}
}
