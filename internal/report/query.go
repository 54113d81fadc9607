package report

import (
	"strings"

	"bigboss/internal/core"
)

// Dialect supplies the date expressions that differ between SQL engines.
// Column references are always p.paid_at (payments p) and m.membership_type
// (members m).
type Dialect interface {
	Name() string
	// MonthExpr renders the zero-padded YYYY-MM bucket of a timestamp column.
	MonthExpr(col string) string
	// YearExpr renders the integer year of a timestamp column.
	YearExpr(col string) string
	// MonthNumberExpr renders the integer month (1-12) of a timestamp column.
	MonthNumberExpr(col string) string
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }
func (sqliteDialect) MonthExpr(col string) string {
	return "strftime('%Y-%m', " + col + ")"
}
func (sqliteDialect) YearExpr(col string) string {
	return "CAST(strftime('%Y', " + col + ") AS INTEGER)"
}
func (sqliteDialect) MonthNumberExpr(col string) string {
	return "CAST(strftime('%m', " + col + ") AS INTEGER)"
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }
func (mysqlDialect) MonthExpr(col string) string {
	return "DATE_FORMAT(" + col + ", '%Y-%m')"
}
func (mysqlDialect) YearExpr(col string) string        { return "YEAR(" + col + ")" }
func (mysqlDialect) MonthNumberExpr(col string) string { return "MONTH(" + col + ")" }

var (
	SQLite Dialect = sqliteDialect{}
	MySQL  Dialect = mysqlDialect{}
)

// BuildMonthlyQuery returns the parameterized aggregate for f. Every filter
// value travels as a bind argument; only fixed SQL fragments are concatenated.
// Sums are over integer cents so totals are exact.
func BuildMonthlyQuery(d Dialect, f Filter) (string, []any) {
	month := d.MonthExpr("p.paid_at")

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(month)
	b.WriteString(" AS month, m.membership_type, SUM(p.amount_cents) AS total_cents")
	b.WriteString(" FROM payments p JOIN members m ON p.member_id = m.member_id")

	conditions := []string{d.YearExpr("p.paid_at") + " = ?"}
	args := []any{f.Year}

	if f.HasMonthRange() {
		conditions = append(conditions, d.MonthNumberExpr("p.paid_at")+" BETWEEN ? AND ?")
		args = append(args, f.FromMonth, f.ToMonth)
	}

	if f.Membership != "" {
		conditions = append(conditions, "m.membership_type = ?")
		args = append(args, string(f.Membership))
	} else {
		allowed := core.AllowedMemberships()
		marks := make([]string, len(allowed))
		for i, m := range allowed {
			marks[i] = "?"
			args = append(args, string(m))
		}
		conditions = append(conditions, "m.membership_type IN ("+strings.Join(marks, ", ")+")")
	}

	b.WriteString(" WHERE ")
	b.WriteString(strings.Join(conditions, " AND "))
	b.WriteString(" GROUP BY month, m.membership_type")
	b.WriteString(" ORDER BY month ASC, m.membership_type ASC")

	return b.String(), args
}
