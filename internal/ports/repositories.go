package ports

import (
	"context"

	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
)

// ProfileRepository stores student and staff profiles. Every method takes the
// role explicitly and dispatches to that role's table.
type ProfileRepository interface {
	// FindOrCreate returns the profile for req.Identifier, creating it with
	// req.Salt when absent. It must be a single atomic statement.
	FindOrCreate(ctx context.Context, req model.FindOrCreateProfileRequest) (*model.Profile, error)
	GetByID(ctx context.Context, role domainauth.Role, id int64) (*model.Profile, error)
	GetByIdentifier(ctx context.Context, role domainauth.Role, identifier string) (*model.Profile, error)
	// Update applies req and clears the forced-update flag.
	Update(ctx context.Context, role domainauth.Role, id int64, req model.UpdateProfileRequest) (*model.Profile, error)
	List(ctx context.Context, role domainauth.Role, limit, offset int) ([]*model.Profile, error)
}

// VisitRepository stores visit records.
type VisitRepository interface {
	// Create inserts a visit unless the student already has an open one
	// (ErrOpenVisitExists).
	Create(ctx context.Context, req model.CreateVisitRequest) (*model.Visit, error)
	GetByID(ctx context.Context, id int64) (*model.Visit, error)
	// Latest returns the student's most recent visit by check-in time, or nil when none exist.
	Latest(ctx context.Context, studentID int64) (*model.Visit, error)
	Close(ctx context.Context, req model.CloseVisitRequest) (*model.Visit, error)
	UpdateNotes(ctx context.Context, req model.UpdateVisitNotesRequest) (*model.Visit, error)
	List(ctx context.Context, opts model.VisitsListOptions) ([]*model.Visit, error)
}

// SecurityRepository stores security questions and hashed answers.
type SecurityRepository interface {
	ListQuestions(ctx context.Context) ([]model.SecurityQuestion, error)
	// GetAnswer returns the stored answer for a profile, or ErrAnswerNotFound.
	GetAnswer(ctx context.Context, role domainauth.Role, identifier string) (*model.SecurityAnswerRecord, error)
	SaveAnswer(ctx context.Context, role domainauth.Role, userID, questionID int64, answerHash string) error
}
