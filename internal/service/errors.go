package service

import (
	"errors"

	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

// Service sentinels. They are AppErrors so handlers can map them with
// apperrors.HTTPStatus; compare with errors.Is.
var (
	ErrAlreadyCheckedIn = &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: "You are already checked in.",
	}
	ErrNotCheckedIn = &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: "You are not checked in to that visit.",
	}
	ErrInvalidPurposeAchieved = &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: "Purpose achieved must be Yes, No or Not sure.",
		Field:   "purposeAchieved",
	}
	ErrInvalidDuration = &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: "Duration must be a number of hours between 0 and 24.",
		Field:   "durationHours",
	}
	ErrNoProfile = &apperrors.AppError{
		Code:    apperrors.ErrCodeNotFound,
		Message: "No profile exists for that user.",
	}
	ErrNoSecurityAnswer = &apperrors.AppError{
		Code:    apperrors.ErrCodeNotFound,
		Message: "No security question has been set up for that user.",
	}
	ErrSessionExpired = errors.New("session expired")
	ErrNoChallenge    = &apperrors.AppError{
		Code:    apperrors.ErrCodeValidation,
		Message: "There is no security question pending for this session.",
	}
)

// Storage sentinels re-exported so handlers need not import ports.
var (
	ErrProfileNotFound = ports.ErrProfileNotFound
	ErrVisitNotFound   = ports.ErrVisitNotFound
)
