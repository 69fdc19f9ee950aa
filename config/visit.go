package config

import (
	"time"

	"github.com/dewv/nlc-visits/internal/domain/visit"
)

// VisitConfig contains visit display configuration.
type VisitConfig struct {
	// EstimateCeiling marks computed durations longer than this as estimates.
	EstimateCeiling time.Duration `env:"VISIT_ESTIMATE_CEILING" envDefault:"8h"`
}

// Sanitize applies guardrails to visit configuration values.
func (v *VisitConfig) Sanitize() {
	if v.EstimateCeiling <= 0 {
		v.EstimateCeiling = visit.DefaultEstimateCeiling
	}
}
