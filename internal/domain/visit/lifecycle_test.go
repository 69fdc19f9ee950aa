package visit

import (
	"testing"
	"time"

	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundToQuarterHours(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want float64
	}{
		{0, 0},
		{5*time.Hour + 15*time.Minute, 5.25},
		{7 * time.Minute, 0},
		{8 * time.Minute, 0.25},
		{52*time.Minute + 30*time.Second, 1},
		{-time.Hour, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundToQuarterHours(tt.in), 1e-9, "duration %s", tt.in)
	}
}

func TestCloseDuration_Computed(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	out := in.Add(5*time.Hour + 15*time.Minute)

	hours, estimated := CloseDuration(in, out, nil)
	assert.InDelta(t, 5.25, hours, 1e-9)
	assert.False(t, estimated)
}

func TestCloseDuration_Supplied(t *testing.T) {
	in := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	supplied := 2.0

	hours, estimated := CloseDuration(in, in.Add(20*time.Hour), &supplied)
	assert.InDelta(t, 2.0, hours, 1e-9)
	assert.True(t, estimated)
}

func TestDisplay_OpenVisitPastCeilingIsEstimated(t *testing.T) {
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	v := model.Visit{ID: 1, CheckInTime: in}

	view := Display(v, in.Add(9*time.Hour), DefaultEstimateCeiling)
	require.NotNil(t, view.DurationHours)
	assert.InDelta(t, 9.0, *view.DurationHours, 1e-9)
	assert.True(t, view.DurationIsEstimated)
	assert.True(t, view.Open)
	assert.Nil(t, v.DurationHours, "display must not mutate the stored visit")
}

func TestDisplay_OpenVisitWithinCeiling(t *testing.T) {
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	view := Display(model.Visit{CheckInTime: in}, in.Add(90*time.Minute), 0)
	require.NotNil(t, view.DurationHours)
	assert.InDelta(t, 1.5, *view.DurationHours, 1e-9)
	assert.False(t, view.DurationIsEstimated)
}

func TestDisplay_ClosedVisitKeepsStoredDuration(t *testing.T) {
	in := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	out := in.Add(2 * time.Hour)
	stored := 1.75
	v := model.Visit{CheckInTime: in, CheckOutTime: &out, DurationHours: &stored}

	view := Display(v, in.Add(48*time.Hour), DefaultEstimateCeiling)
	assert.InDelta(t, 1.75, *view.DurationHours, 1e-9)
	assert.False(t, view.DurationIsEstimated)
	assert.False(t, view.Open)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateNoOpenVisit, StateOf(nil))
	assert.Equal(t, StateOpen, StateOf(&model.Visit{CheckInTime: time.Now()}))
	out := time.Now()
	assert.Equal(t, StateNoOpenVisit, StateOf(&model.Visit{CheckOutTime: &out}))
}
