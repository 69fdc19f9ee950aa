package ports

import "errors"

// Sentinels returned by port implementations. Adapters wrap or return these
// so services can branch with errors.Is without importing storage packages.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrVisitNotFound   = errors.New("visit not found")
	ErrAnswerNotFound  = errors.New("security answer not found")
	ErrOpenVisitExists = errors.New("student already has an open visit")
)
