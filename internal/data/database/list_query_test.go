package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListQuery_Build(t *testing.T) {
	q, args := NewListQuery("visits", "id", "student_id").
		WhereEq("student_id", int64(7)).
		WhereNull("check_out_time").
		OrderBy("check_in_time", "desc").
		OrderBy("id", "sideways").
		Page(10, 20).
		Build()

	assert.Equal(t,
		`SELECT "id", "student_id" FROM "visits" WHERE "student_id" = $1 AND "check_out_time" IS NULL ORDER BY "check_in_time" DESC, "id" ASC LIMIT $2 OFFSET $3`,
		q)
	assert.Equal(t, []any{int64(7), 10, 20}, args)
}

func TestListQuery_MinimalAndQuoting(t *testing.T) {
	q, args := NewListQuery("staff").Build()
	assert.Equal(t, `SELECT * FROM "staff"`, q)
	assert.Empty(t, args)

	q, _ = NewListQuery(`bad"table`, "public.col").Build()
	assert.Equal(t, `SELECT "public"."col" FROM "bad""table"`, q)
}

func TestListQuery_ZeroLimitKept(t *testing.T) {
	q, args := NewListQuery("visits").Page(0, -1).Build()
	assert.Equal(t, `SELECT * FROM "visits" LIMIT $1`, q)
	assert.Equal(t, []any{0}, args)
}
