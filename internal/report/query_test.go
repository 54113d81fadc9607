package report

import (
	"reflect"
	"strings"
	"testing"

	"bigboss/internal/core"
)

func TestBuildMonthlyQueryDefaultsToAllowList(t *testing.T) {
	q, args := BuildMonthlyQuery(MySQL, Filter{Year: 2024})

	want := "SELECT DATE_FORMAT(p.paid_at, '%Y-%m') AS month, m.membership_type, SUM(p.amount_cents) AS total_cents" +
		" FROM payments p JOIN members m ON p.member_id = m.member_id" +
		" WHERE YEAR(p.paid_at) = ? AND m.membership_type IN (?, ?, ?)" +
		" GROUP BY month, m.membership_type ORDER BY month ASC, m.membership_type ASC"
	if q != want {
		t.Fatalf("query mismatch\n got: %s\nwant: %s", q, want)
	}
	wantArgs := []any{2024, "Standard Membership", "Premium Membership", "Family Membership"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildMonthlyQueryWithRangeAndMembership(t *testing.T) {
	q, args := BuildMonthlyQuery(SQLite, Filter{Year: 2024, FromMonth: 1, ToMonth: 3, Membership: core.FamilyMembership})

	for _, frag := range []string{
		"strftime('%Y-%m', p.paid_at) AS month",
		"CAST(strftime('%Y', p.paid_at) AS INTEGER) = ?",
		"CAST(strftime('%m', p.paid_at) AS INTEGER) BETWEEN ? AND ?",
		"m.membership_type = ?",
	} {
		if !strings.Contains(q, frag) {
			t.Fatalf("query missing %q:\n%s", frag, q)
		}
	}
	if strings.Contains(q, " IN (") {
		t.Fatalf("explicit membership must replace the allow-list predicate")
	}
	wantArgs := []any{2024, 1, 3, "Family Membership"}
	if !reflect.DeepEqual(args, wantArgs) {
		t.Fatalf("args = %v", args)
	}
}

func TestBuildMonthlyQueryNeverInlinesValues(t *testing.T) {
	q, _ := BuildMonthlyQuery(MySQL, Filter{Year: 1999, FromMonth: 4, ToMonth: 9, Membership: core.StandardMembership})
	for _, v := range []string{"1999", "Standard Membership"} {
		if strings.Contains(q, v) {
			t.Fatalf("value %q must be bound, not inlined", v)
		}
	}
}
