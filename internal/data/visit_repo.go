package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dewv/nlc-visits/internal/data/database"
	"github.com/dewv/nlc-visits/internal/data/pgxutil"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

var _ ports.VisitRepository = (*VisitRepo)(nil)

// VisitRepo provides database operations for visits.
type VisitRepo struct {
	DB *sql.DB
}

// NewVisitRepo creates a new VisitRepo.
func NewVisitRepo(db *sql.DB) *VisitRepo { return &VisitRepo{DB: db} }

const visitColumns = `id, student_id, check_in_time, check_out_time, location, purpose, purpose_achieved,
	used_tutor, tutor_courses, tutor_instructors, comment, duration_hours, duration_is_estimated`

//nolint:gochecknoglobals // column list for the list query builder
var visitColumnList = []string{
	"id", "student_id", "check_in_time", "check_out_time", "location", "purpose", "purpose_achieved",
	"used_tutor", "tutor_courses", "tutor_instructors", "comment", "duration_hours", "duration_is_estimated",
}

const (
	visitLatestQuery = `
		SELECT ` + visitColumns + `
		FROM visits
		WHERE student_id = $1
		ORDER BY check_in_time DESC, id DESC
		LIMIT 1`

	visitGetByIDQuery = `SELECT ` + visitColumns + ` FROM visits WHERE id = $1`

	visitInsertQuery = `
		INSERT INTO visits (student_id, check_in_time, location, purpose,
			used_tutor, tutor_courses, tutor_instructors, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + visitColumns

	visitCloseQuery = `
		UPDATE visits SET
			check_out_time = $2, purpose_achieved = $3, duration_hours = $4, duration_is_estimated = $5,
			used_tutor = $6, tutor_courses = $7, tutor_instructors = $8, comment = $9
		WHERE id = $1 AND check_out_time IS NULL
		RETURNING ` + visitColumns

	visitUpdateNotesQuery = `
		UPDATE visits SET used_tutor = $2, tutor_courses = $3, tutor_instructors = $4, comment = $5
		WHERE id = $1 AND check_out_time IS NULL
		RETURNING ` + visitColumns
)

// Create inserts a visit. The student's row is locked for the duration of
// the check so two concurrent check-ins cannot both open a visit.
func (r *VisitRepo) Create(ctx context.Context, req model.CreateVisitRequest) (*model.Visit, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}

	var out model.Visit
	err := pgxutil.WithPgxTx(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, req.StudentID).Scan(&locked); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrProfileNotFound
			}
			return err
		}

		latest, err := pgxutil.CollectOne[model.Visit](ctx, tx, visitLatestQuery, req.StudentID)
		switch {
		case err == nil && latest.IsOpen():
			return ErrOpenVisitExists
		case err != nil && !errors.Is(err, pgx.ErrNoRows):
			return err
		}

		out, err = pgxutil.CollectOne[model.Visit](ctx, tx, visitInsertQuery,
			req.StudentID, req.CheckInTime, req.Location, req.Purpose,
			req.Notes.UsedTutor, req.Notes.TutorCourses, req.Notes.TutorInstructors, req.Notes.Comment)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrOpenVisitExists) || errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create visit: %w", apperrors.MapDBError(err))
	}
	return &out, nil
}

// GetByID loads one visit.
func (r *VisitRepo) GetByID(ctx context.Context, id int64) (*model.Visit, error) {
	v, err := r.one(ctx, visitGetByIDQuery, id)
	if err != nil {
		return nil, fmt.Errorf("get visit %d: %w", id, err)
	}
	return v, nil
}

// Latest returns the student's most recent visit or nil when there is none.
func (r *VisitRepo) Latest(ctx context.Context, studentID int64) (*model.Visit, error) {
	v, err := r.one(ctx, visitLatestQuery, studentID)
	if errors.Is(err, ErrVisitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest visit for student %d: %w", studentID, err)
	}
	return v, nil
}

// Close records a check-out. Visits that are already closed are reported as not found.
func (r *VisitRepo) Close(ctx context.Context, req model.CloseVisitRequest) (*model.Visit, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	n := req.Notes
	v, err := r.one(ctx, visitCloseQuery,
		req.ID, req.CheckOutTime, req.PurposeAchieved, req.DurationHours, req.DurationIsEstimated,
		n.UsedTutor, n.TutorCourses, n.TutorInstructors, n.Comment)
	if err != nil {
		return nil, fmt.Errorf("close visit %d: %w", req.ID, err)
	}
	return v, nil
}

// UpdateNotes rewrites the freeform fields of an open visit. A closed or
// unknown visit yields ErrVisitNotFound.
func (r *VisitRepo) UpdateNotes(ctx context.Context, req model.UpdateVisitNotesRequest) (*model.Visit, error) {
	n := req.Notes
	v, err := r.one(ctx, visitUpdateNotesQuery, req.ID, n.UsedTutor, n.TutorCourses, n.TutorInstructors, n.Comment)
	if err != nil {
		return nil, fmt.Errorf("update visit %d: %w", req.ID, err)
	}
	return v, nil
}

// List returns visits newest first.
func (r *VisitRepo) List(ctx context.Context, opts model.VisitsListOptions) ([]*model.Visit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	q := database.NewListQuery("visits", visitColumnList...)
	if opts.StudentID != nil {
		q.WhereEq("student_id", *opts.StudentID)
	}
	if opts.OpenOnly {
		q.WhereNull("check_out_time")
	}
	query, args := q.OrderBy("check_in_time", database.Desc).
		OrderBy("id", database.Desc).
		Page(limit, max(opts.Offset, 0)).
		Build()

	var rows []model.Visit
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		rows, err = pgxutil.CollectAll[model.Visit](ctx, conn, query, args...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", apperrors.MapDBError(err))
	}
	out := make([]*model.Visit, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out, nil
}

func (r *VisitRepo) one(ctx context.Context, query string, args ...any) (*model.Visit, error) {
	var v model.Visit
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		v, err = pgxutil.CollectOne[model.Visit](ctx, conn, query, args...)
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &v, nil
}
