package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dewv/nlc-visits/internal/data/pgxutil"
	domainauth "github.com/dewv/nlc-visits/internal/domain/auth"
	"github.com/dewv/nlc-visits/internal/domain/model"
	apperrors "github.com/dewv/nlc-visits/internal/errors"
	"github.com/dewv/nlc-visits/internal/ports"
)

var _ ports.SecurityRepository = (*SecurityRepo)(nil)

// SecurityRepo stores security questions and the hashed answers users pick.
type SecurityRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewSecurityRepo creates a SecurityRepo using the system clock.
func NewSecurityRepo(db *sql.DB) *SecurityRepo {
	return &SecurityRepo{DB: db, timeProvider: RealTimeProvider{}}
}

type answerRow struct {
	UserID     int64  `db:"user_id"`
	Identifier string `db:"identifier"`
	FirstName  string `db:"first_name"`
	LastName   string `db:"last_name"`
	Salt       string `db:"salt"`
	QuestionID int64  `db:"question_id"`
	Question   string `db:"question"`
	AnswerHash string `db:"answer_hash"`
}

// ListQuestions returns every question in id order.
func (r *SecurityRepo) ListQuestions(ctx context.Context) ([]model.SecurityQuestion, error) {
	var out []model.SecurityQuestion
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var err error
		out, err = pgxutil.CollectAll[model.SecurityQuestion](ctx, conn,
			`SELECT id, name FROM security_questions ORDER BY id`)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list security questions: %w", apperrors.MapDBError(err))
	}
	return out, nil
}

// GetAnswer joins the role's profile with its stored answer and question.
func (r *SecurityRepo) GetAnswer(
	ctx context.Context,
	role domainauth.Role,
	identifier string,
) (*model.SecurityAnswerRecord, error) {
	t, err := tableFor(role)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
		SELECT p.id AS user_id, p.identifier, p.first_name, p.last_name, p.secret_salt AS salt,
		       a.question_id, q.name AS question, a.answer_hash
		FROM %s p
		JOIN security_answers a ON a.role = $1 AND a.user_id = p.id
		JOIN security_questions q ON q.id = a.question_id
		WHERE lower(p.identifier) = lower($2)`, t.name)

	var row answerRow
	err = pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		var qErr error
		row, qErr = pgxutil.CollectOne[answerRow](ctx, conn, query, string(role), identifier)
		return qErr
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAnswerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get security answer: %w", apperrors.MapDBError(err))
	}
	return &model.SecurityAnswerRecord{
		Role:       role,
		UserID:     row.UserID,
		Identifier: row.Identifier,
		FirstName:  row.FirstName,
		LastName:   row.LastName,
		QuestionID: row.QuestionID,
		Question:   row.Question,
		Salt:       row.Salt,
		AnswerHash: row.AnswerHash,
	}, nil
}

// SaveAnswer stores or replaces the user's answer hash.
func (r *SecurityRepo) SaveAnswer(
	ctx context.Context,
	role domainauth.Role,
	userID, questionID int64,
	answerHash string,
) error {
	if !role.Valid() {
		return apperrors.Validation(fmt.Sprintf("unknown role %q", role))
	}
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO security_answers (role, user_id, question_id, answer_hash, updated_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (role, user_id) DO UPDATE
			SET question_id = EXCLUDED.question_id,
			    answer_hash = EXCLUDED.answer_hash,
			    updated_at  = EXCLUDED.updated_at`,
			string(role), userID, questionID, answerHash, r.timeProvider.Now())
		return err
	})
	if err != nil {
		return fmt.Errorf("save security answer: %w", apperrors.MapDBError(err))
	}
	return nil
}
