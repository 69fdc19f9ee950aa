// Package visit holds the pure check-in/check-out rules for visit records.
package visit

import (
	"math"
	"time"

	"github.com/dewv/nlc-visits/internal/domain/model"
)

// DefaultEstimateCeiling is the open-visit length after which a displayed
// duration is flagged as an estimate.
const DefaultEstimateCeiling = 8 * time.Hour

// State is the per-student position in the visit state machine.
type State int

const (
	StateNoOpenVisit State = iota
	StateOpen
)

func (s State) String() string {
	if s == StateOpen {
		return "open"
	}
	return "no_open_visit"
}

// StateOf derives the state from the student's most recent visit (nil when none).
func StateOf(latest *model.Visit) State {
	if latest.IsOpen() {
		return StateOpen
	}
	return StateNoOpenVisit
}

// RoundToQuarterHours converts d to hours rounded to the nearest 0.25.
func RoundToQuarterHours(d time.Duration) float64 {
	if d < 0 {
		d = 0
	}
	return math.Round(d.Hours()*4) / 4
}

// CloseDuration computes the stored duration for a check-out. A duration
// supplied by the caller wins and is marked as an estimate.
func CloseDuration(checkIn, checkOut time.Time, supplied *float64) (hours float64, estimated bool) {
	if supplied != nil {
		return *supplied, true
	}
	return RoundToQuarterHours(checkOut.Sub(checkIn)), false
}

// View is a visit prepared for display.
type View struct {
	model.Visit
	Open bool `json:"open"`
}

// Display derives the read-time duration of a visit. An open visit shows the
// running time up to now. Anything longer than ceiling is flagged as an estimate.
// Display never changes what is stored.
func Display(v model.Visit, now time.Time, ceiling time.Duration) View {
	if ceiling <= 0 {
		ceiling = DefaultEstimateCeiling
	}
	end := now
	if v.CheckOutTime != nil {
		end = *v.CheckOutTime
	}
	elapsed := end.Sub(v.CheckInTime)

	out := View{Visit: v, Open: v.CheckOutTime == nil}
	if v.CheckOutTime == nil || v.DurationHours == nil {
		hours := RoundToQuarterHours(elapsed)
		out.DurationHours = &hours
	}
	if elapsed > ceiling {
		out.DurationIsEstimated = true
	}
	return out
}
