package metrics

import (
	"time"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	obserrors "github.com/dewv/nlc-visits/internal/observability/errors"
	"github.com/dewv/nlc-visits/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess  = "success"
	ResultError    = "error"
	ResultRejected = "rejected"
)

// Visit transitions.
const (
	TransitionCheckIn  = "check_in"
	TransitionCheckOut = "check_out"
	TransitionEdit     = "edit"
)

// LoginMetric describes one authentication attempt.
type LoginMetric struct {
	// Method is "ldap", "simulated" or "security_question".
	Method   string
	Outcome  domainauth.OutcomeKind
	Duration time.Duration
}

// EmitLogin counts an authentication attempt by outcome.
func EmitLogin(sink statsd.Sink, in LoginMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"method":  in.Method,
		"outcome": in.Outcome.String(),
	}
	sink.Count("auth.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("auth.duration", in.Duration, CloneTags(tags))
	}
}

// VisitMetric describes a visit state transition.
type VisitMetric struct {
	Transition string
	Result     string
	Err        error
}

// EmitVisitTransition counts a visit transition, tagging failures by error class.
func EmitVisitTransition(sink statsd.Sink, in VisitMetric) {
	if sink == nil {
		return
	}
	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result != ResultSuccess {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}
	sink.Count("visit.transition", 1, tags)
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
