package data

import "github.com/dewv/nlc-visits/internal/ports"

// Repository sentinels. They alias the port errors so callers can match with
// errors.Is from either package.
var (
	ErrProfileNotFound = ports.ErrProfileNotFound
	ErrVisitNotFound   = ports.ErrVisitNotFound
	ErrAnswerNotFound  = ports.ErrAnswerNotFound
	ErrOpenVisitExists = ports.ErrOpenVisitExists
)
