// Package database builds parameterized list queries with sanitized identifiers.
package database

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Sort directions.
const (
	Asc  = "ASC"
	Desc = "DESC"
)

// ListQuery describes a SELECT over one table. Table, Columns and OrderBy
// are identifiers and are always quoted; values only ever travel as args.
type ListQuery struct {
	Table   string
	Columns []string
	where   []string
	args    []any
	orderBy []string
	limit   int
	offset  int
}

// NewListQuery starts a query over table selecting columns.
func NewListQuery(table string, columns ...string) *ListQuery {
	return &ListQuery{Table: table, Columns: columns, limit: -1, offset: -1}
}

// WhereEq adds "column = value".
func (q *ListQuery) WhereEq(column string, value any) *ListQuery {
	q.args = append(q.args, value)
	q.where = append(q.where, fmt.Sprintf("%s = $%d", ident(column), len(q.args)))
	return q
}

// WhereNull adds "column IS NULL".
func (q *ListQuery) WhereNull(column string) *ListQuery {
	q.where = append(q.where, ident(column)+" IS NULL")
	return q
}

// OrderBy appends a sort key. Unknown directions fall back to ASC.
func (q *ListQuery) OrderBy(column, dir string) *ListQuery {
	d := strings.ToUpper(strings.TrimSpace(dir))
	if d != Desc {
		d = Asc
	}
	q.orderBy = append(q.orderBy, ident(column)+" "+d)
	return q
}

// Page sets LIMIT and OFFSET. Negative values are omitted.
func (q *ListQuery) Page(limit, offset int) *ListQuery {
	q.limit, q.offset = limit, offset
	return q
}

// Build renders the SQL and its arguments.
func (q *ListQuery) Build() (string, []any) {
	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = ident(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(cols)
	b.WriteString(" FROM ")
	b.WriteString(ident(q.Table))

	if len(q.where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(q.where, " AND "))
	}
	if len(q.orderBy) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(q.orderBy, ", "))
	}

	args := append([]any(nil), q.args...)
	if q.limit >= 0 {
		args = append(args, q.limit)
		fmt.Fprintf(&b, " LIMIT $%d", len(args))
	}
	if q.offset >= 0 {
		args = append(args, q.offset)
		fmt.Fprintf(&b, " OFFSET $%d", len(args))
	}
	return b.String(), args
}

func ident(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}
