package query

import (
	"fmt"
	"strings"
)

// SQL accumulates positional WHERE conditions, ordering and paging for PostgreSQL.
type SQL struct {
	conds []string
	args  []any
}

func (s *SQL) next(v any) string {
	s.args = append(s.args, v)
	return fmt.Sprintf("$%d", len(s.args))
}

// Eq adds "col = $n".
func (s *SQL) Eq(col string, v any) *SQL {
	s.conds = append(s.conds, col+" = "+s.next(v))
	return s
}

// EqIf adds "col = $n" only when cond holds.
func (s *SQL) EqIf(cond bool, col string, v any) *SQL {
	if cond {
		s.Eq(col, v)
	}
	return s
}

// Cond adds an expression with one "?" placeholder, e.g. "scheduled_at >= ?".
func (s *SQL) Cond(expr string, v any) *SQL {
	s.conds = append(s.conds, strings.Replace(expr, "?", s.next(v), 1))
	return s
}

// Raw adds an expression without arguments.
func (s *SQL) Raw(expr string) *SQL {
	s.conds = append(s.conds, expr)
	return s
}

// Search adds "(a ILIKE $n OR b ILIKE $n ...)" when term is non-empty.
func (s *SQL) Search(term string, cols ...string) *SQL {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return s
	}
	ph := s.next("%" + escapeLike(term) + "%")
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE " + ph
	}
	s.conds = append(s.conds, "("+strings.Join(parts, " OR ")+")")
	return s
}

// Where returns the WHERE clause (with leading space) or "".
func (s *SQL) Where() string {
	if len(s.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(s.conds, " AND ")
}

// Args returns the arguments collected so far.
func (s *SQL) Args() []any {
	out := make([]any, len(s.args))
	copy(out, s.args)
	return out
}

// OrderBy returns an ORDER BY clause using only whitelisted columns.
// allowed maps request sort keys to column names; def is the fallback key.
func (s *SQL) OrderBy(p ListParams, allowed map[string]string, def string) string {
	col, ok := allowed[p.Sort]
	if !ok {
		col = allowed[def]
	}
	if col == "" {
		return ""
	}
	dir := "ASC"
	if p.Desc() {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

// Page returns a LIMIT/OFFSET clause and appends its arguments. limit <= 0 omits LIMIT.
func (s *SQL) Page(p ListParams) string {
	var b strings.Builder
	if p.Limit > 0 {
		b.WriteString(" LIMIT " + s.next(p.Limit))
	}
	if p.Offset > 0 {
		b.WriteString(" OFFSET " + s.next(p.Offset))
	}
	return b.String()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
