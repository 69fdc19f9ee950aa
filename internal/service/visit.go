package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dewv/nlc-visits/internal/domain/model"
	"github.com/dewv/nlc-visits/internal/domain/visit"
	"github.com/dewv/nlc-visits/internal/observability/metrics"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
	"github.com/dewv/nlc-visits/internal/ports"
)

// VisitServiceOptions groups dependencies for VisitService.
type VisitServiceOptions struct {
	Visits  ports.VisitRepository
	Config  VisitServiceConfig
	Metrics statsd.Sink // Optional
}

// VisitServiceConfig holds visit settings.
type VisitServiceConfig struct {
	// EstimateCeiling flags displayed durations longer than this as estimates.
	EstimateCeiling time.Duration
	Now             func() time.Time
	Logger          *slog.Logger
}

// VisitService runs the check-in/check-out state machine.
type VisitService struct {
	visits  ports.VisitRepository
	ceiling time.Duration
	now     func() time.Time
	metrics statsd.Sink
	logger  *slog.Logger
}

// NewVisitService constructs a VisitService.
func NewVisitService(opts VisitServiceOptions) *VisitService {
	if opts.Visits == nil {
		panic("VisitRepository is required")
	}
	s := &VisitService{
		visits:  opts.Visits,
		ceiling: opts.Config.EstimateCeiling,
		now:     opts.Config.Now,
		metrics: opts.Metrics,
		logger:  opts.Config.Logger,
	}
	if s.ceiling <= 0 {
		s.ceiling = visit.DefaultEstimateCeiling
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CheckInInput is the student's check-in form plus the browser's location.
type CheckInInput struct {
	Location string
	Purpose  string
	Notes    model.VisitNotes
}

// CheckIn opens a visit for studentID. The latest visit is re-checked here
// even though the policy layer already refused checked-in students.
func (s *VisitService) CheckIn(ctx context.Context, studentID int64, in CheckInInput) (*model.Visit, error) {
	v, err := s.checkIn(ctx, studentID, in)
	s.emit(metrics.TransitionCheckIn, err)
	return v, err
}

func (s *VisitService) checkIn(ctx context.Context, studentID int64, in CheckInInput) (*model.Visit, error) {
	latest, err := s.visits.Latest(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	if latest.IsOpen() {
		return nil, ErrAlreadyCheckedIn
	}

	v, err := s.visits.Create(ctx, model.CreateVisitRequest{
		StudentID:   studentID,
		CheckInTime: s.now().UTC(),
		Location:    in.Location,
		Purpose:     in.Purpose,
		Notes:       in.Notes,
	})
	if errors.Is(err, ports.ErrOpenVisitExists) {
		return nil, ErrAlreadyCheckedIn
	}
	if err != nil {
		return nil, fmt.Errorf("check in: %w", err)
	}
	s.logger.InfoContext(ctx, "student checked in", "student_id", studentID, "visit_id", v.ID)
	return v, nil
}

// CheckOutInput is the check-out (or edit) form. An empty PurposeAchieved
// means the student is only editing notes on the open visit.
type CheckOutInput struct {
	PurposeAchieved string
	// DurationHours, when set, overrides the computed duration and marks it estimated.
	DurationHours *float64
	Notes         model.VisitNotes
}

// CheckOutResult reports what happened to the visit.
type CheckOutResult struct {
	Visit  *model.Visit
	Closed bool
}

// CheckOut closes, or edits, the student's open visit visitID.
func (s *VisitService) CheckOut(
	ctx context.Context,
	studentID, visitID int64,
	in CheckOutInput,
) (CheckOutResult, error) {
	res, err := s.checkOut(ctx, studentID, visitID, in)
	transition := metrics.TransitionEdit
	if in.PurposeAchieved != "" {
		transition = metrics.TransitionCheckOut
	}
	s.emit(transition, err)
	return res, err
}

func (s *VisitService) checkOut(
	ctx context.Context,
	studentID, visitID int64,
	in CheckOutInput,
) (CheckOutResult, error) {
	latest, err := s.visits.Latest(ctx, studentID)
	if err != nil {
		return CheckOutResult{}, fmt.Errorf("check out: %w", err)
	}
	if !latest.IsOpen() || latest.ID != visitID {
		return CheckOutResult{}, ErrNotCheckedIn
	}

	if in.PurposeAchieved == "" {
		v, err := s.visits.UpdateNotes(ctx, model.UpdateVisitNotesRequest{ID: visitID, Notes: in.Notes})
		if errors.Is(err, ports.ErrVisitNotFound) {
			return CheckOutResult{}, ErrNotCheckedIn
		}
		if err != nil {
			return CheckOutResult{}, fmt.Errorf("update visit: %w", err)
		}
		return CheckOutResult{Visit: v}, nil
	}

	achieved, ok := model.ParsePurposeAchieved(in.PurposeAchieved)
	if !ok {
		return CheckOutResult{}, ErrInvalidPurposeAchieved
	}
	if in.DurationHours != nil && !model.ValidSuppliedDuration(*in.DurationHours) {
		return CheckOutResult{}, ErrInvalidDuration
	}
	out := s.now().UTC()
	hours, estimated := visit.CloseDuration(latest.CheckInTime, out, in.DurationHours)

	v, err := s.visits.Close(ctx, model.CloseVisitRequest{
		ID:                  visitID,
		CheckOutTime:        out,
		PurposeAchieved:     achieved,
		DurationHours:       hours,
		DurationIsEstimated: estimated,
		Notes:               in.Notes,
	})
	if errors.Is(err, ports.ErrVisitNotFound) {
		return CheckOutResult{}, ErrNotCheckedIn
	}
	if err != nil {
		return CheckOutResult{}, fmt.Errorf("check out: %w", err)
	}
	s.logger.InfoContext(ctx, "student checked out",
		"student_id", studentID, "visit_id", v.ID, "hours", hours, "estimated", estimated)
	return CheckOutResult{Visit: v, Closed: true}, nil
}

// Latest returns the student's most recent visit prepared for display, or
// nil when the student has never checked in.
func (s *VisitService) Latest(ctx context.Context, studentID int64) (*visit.View, error) {
	v, err := s.visits.Latest(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("latest visit: %w", err)
	}
	if v == nil {
		return nil, nil
	}
	view := visit.Display(*v, s.now(), s.ceiling)
	return &view, nil
}

// List returns visits for the staff view with display durations applied.
func (s *VisitService) List(ctx context.Context, opts model.VisitsListOptions) ([]visit.View, error) {
	visits, err := s.visits.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	now := s.now()
	out := make([]visit.View, 0, len(visits))
	for _, v := range visits {
		out = append(out, visit.Display(*v, now, s.ceiling))
	}
	return out, nil
}

func (s *VisitService) emit(transition string, err error) {
	result := metrics.ResultSuccess
	switch {
	case errors.Is(err, ErrAlreadyCheckedIn), errors.Is(err, ErrNotCheckedIn), errors.Is(err, ErrInvalidPurposeAchieved):
		result = metrics.ResultRejected
	case err != nil:
		result = metrics.ResultError
	}
	metrics.EmitVisitTransition(s.metrics, metrics.VisitMetric{Transition: transition, Result: result, Err: err})
}
