package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dewv/nlc-visits/internal/data/database"
	"github.com/dewv/nlc-visits/internal/data/pgxutil"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

var _ ports.ProfileRepository = (*ProfileRepo)(nil)

type studentRow struct {
	ID                 int64     `db:"id"`
	Identifier         string    `db:"identifier"`
	FirstName          string    `db:"first_name"`
	LastName           string    `db:"last_name"`
	ForceProfileUpdate bool      `db:"force_profile_update"`
	SecretSalt         string    `db:"secret_salt"`
	ClassRank          *string   `db:"class_rank"`
	Majors             *string   `db:"majors"`
	ResidentialStatus  *string   `db:"residential_status"`
	FallSport          *string   `db:"fall_sport"`
	SpringSport        *string   `db:"spring_sport"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r studentRow) profile() *model.Profile {
	return &model.Profile{
		ID: r.ID, Role: domainauth.RoleStudent, Identifier: r.Identifier,
		FirstName: r.FirstName, LastName: r.LastName,
		ForceProfileUpdate: r.ForceProfileUpdate, SecretSalt: r.SecretSalt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Student: &model.StudentDetails{
			ClassRank: r.ClassRank, Majors: r.Majors, ResidentialStatus: r.ResidentialStatus,
			FallSport: r.FallSport, SpringSport: r.SpringSport,
		},
	}
}

type staffRow struct {
	ID                 int64     `db:"id"`
	Identifier         string    `db:"identifier"`
	FirstName          string    `db:"first_name"`
	LastName           string    `db:"last_name"`
	ForceProfileUpdate bool      `db:"force_profile_update"`
	SecretSalt         string    `db:"secret_salt"`
	IsSLPInstructor    bool      `db:"is_slp_instructor"`
	CreatedAt          time.Time `db:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"`
}

func (r staffRow) profile() *model.Profile {
	return &model.Profile{
		ID: r.ID, Role: domainauth.RoleStaff, Identifier: r.Identifier,
		FirstName: r.FirstName, LastName: r.LastName,
		ForceProfileUpdate: r.ForceProfileUpdate, SecretSalt: r.SecretSalt,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		Staff: &model.StaffDetails{IsSLPInstructor: r.IsSLPInstructor},
	}
}

// profileTable is everything role-specific about profile storage.
type profileTable struct {
	name    string
	columns []string
	collect func(pgx.Rows) ([]*model.Profile, error)
	details func(req model.UpdateProfileRequest, set *setClause)
}

func (t profileTable) returning() string { return strings.Join(t.columns, ", ") }

func collectProfiles[T interface{ profile() *model.Profile }](rows pgx.Rows) ([]*model.Profile, error) {
	recs, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, err
	}
	out := make([]*model.Profile, len(recs))
	for i := range recs {
		out[i] = recs[i].profile()
	}
	return out, nil
}

//nolint:gochecknoglobals // shared column prefix
var commonProfileColumns = []string{
	"id", "identifier", "first_name", "last_name", "force_profile_update", "secret_salt",
}

//nolint:gochecknoglobals // static role dispatch table
var profileTables = map[domainauth.Role]profileTable{
	domainauth.RoleStudent: {
		name: "students",
		columns: append(append([]string{}, commonProfileColumns...),
			"class_rank", "majors", "residential_status", "fall_sport", "spring_sport", "created_at", "updated_at"),
		collect: collectProfiles[studentRow],
		details: func(req model.UpdateProfileRequest, set *setClause) {
			if d := req.Student; d != nil {
				set.add("class_rank", d.ClassRank)
				set.add("majors", d.Majors)
				set.add("residential_status", d.ResidentialStatus)
				set.add("fall_sport", d.FallSport)
				set.add("spring_sport", d.SpringSport)
			}
		},
	},
	domainauth.RoleStaff: {
		name:    "staff",
		columns: append(append([]string{}, commonProfileColumns...), "is_slp_instructor", "created_at", "updated_at"),
		collect: collectProfiles[staffRow],
		details: func(req model.UpdateProfileRequest, set *setClause) {
			if d := req.Staff; d != nil {
				set.add("is_slp_instructor", d.IsSLPInstructor)
			}
		},
	},
}

func tableFor(role domainauth.Role) (profileTable, error) {
	t, ok := profileTables[role]
	if !ok {
		return profileTable{}, apperrors.Validation(fmt.Sprintf("unknown role %q", role))
	}
	return t, nil
}

// setClause accumulates "col = $n" assignments.
type setClause struct {
	parts []string
	args  []any
}

func (s *setClause) add(column string, value any) {
	s.args = append(s.args, value)
	s.parts = append(s.parts, fmt.Sprintf("%s = $%d", column, len(s.args)))
}

func (s *setClause) raw(expr string) { s.parts = append(s.parts, expr) }

// ProfileRepo stores student and staff profiles in their own tables.
type ProfileRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewProfileRepo creates a ProfileRepo using the system clock.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: RealTimeProvider{}}
}

// NewProfileRepoWithTimeProvider creates a ProfileRepo with a custom clock.
func NewProfileRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ProfileRepo {
	return &ProfileRepo{DB: db, timeProvider: tp}
}

// FindOrCreate upserts by case-insensitive identifier in one statement. An
// existing row is returned untouched, so the salt and names given here only
// apply to brand new profiles.
func (r *ProfileRepo) FindOrCreate(ctx context.Context, req model.FindOrCreateProfileRequest) (*model.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	t, err := tableFor(req.Role)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %[1]s (identifier, first_name, last_name, secret_salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT ((lower(identifier))) DO UPDATE SET identifier = %[1]s.identifier
		RETURNING %[2]s`, t.name, t.returning())

	now := r.timeProvider.Now()
	p, err := r.queryOne(ctx, t, query,
		strings.TrimSpace(req.Identifier), req.FirstName, req.LastName, req.Salt, now)
	if err != nil {
		return nil, fmt.Errorf("find or create %s profile: %w", req.Role, err)
	}
	return p, nil
}

// GetByID loads a profile by primary key.
func (r *ProfileRepo) GetByID(ctx context.Context, role domainauth.Role, id int64) (*model.Profile, error) {
	t, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, t.returning(), t.name)
	return r.queryOne(ctx, t, query, id)
}

// GetByIdentifier loads a profile by case-insensitive identifier.
func (r *ProfileRepo) GetByIdentifier(ctx context.Context, role domainauth.Role, identifier string) (*model.Profile, error) {
	t, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE lower(identifier) = lower($1)`, t.returning(), t.name)
	return r.queryOne(ctx, t, query, strings.TrimSpace(identifier))
}

// Update edits a profile and always clears the forced-update flag.
func (r *ProfileRepo) Update(
	ctx context.Context,
	role domainauth.Role,
	id int64,
	req model.UpdateProfileRequest,
) (*model.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeValidation, err.Error())
	}
	t, err := tableFor(role)
	if err != nil {
		return nil, err
	}

	var set setClause
	if req.FirstName != nil {
		set.add("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		set.add("last_name", *req.LastName)
	}
	t.details(req, &set)
	set.raw("force_profile_update = FALSE")
	set.add("updated_at", r.timeProvider.Now())

	args := append(set.args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d RETURNING %s`,
		t.name, strings.Join(set.parts, ", "), len(args), t.returning())

	p, err := r.queryOne(ctx, t, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s profile %d: %w", role, id, err)
	}
	return p, nil
}

// List returns profiles ordered by last then first name.
func (r *ProfileRepo) List(ctx context.Context, role domainauth.Role, limit, offset int) ([]*model.Profile, error) {
	t, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	query, args := database.NewListQuery(t.name, t.columns...).
		OrderBy("last_name", database.Asc).
		OrderBy("first_name", database.Asc).
		OrderBy("id", database.Asc).
		Page(limit, max(offset, 0)).
		Build()

	var out []*model.Profile
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, qErr := conn.Query(ctx, query, args...)
		if qErr != nil {
			return qErr
		}
		out, qErr = t.collect(rows)
		return qErr
	})
	if err != nil {
		return nil, fmt.Errorf("list %s profiles: %w", role, apperrors.MapDBError(err))
	}
	return out, nil
}

func (r *ProfileRepo) queryOne(ctx context.Context, t profileTable, query string, args ...any) (*model.Profile, error) {
	var out []*model.Profile
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		out, err = t.collect(rows)
		return err
	})
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if len(out) == 0 {
		return nil, ErrProfileNotFound
	}
	return out[0], nil
}
