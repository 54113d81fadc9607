package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bigboss/internal/core"
)

func raw(month, membership, total string) RawRow {
	return RawRow{Month: month, Membership: membership, Total: json.RawMessage(total)}
}

func values(s Series) []int64 {
	out := make([]int64, len(s.Values))
	for i, v := range s.Values {
		out[i] = v.Cents
	}
	return out
}

func TestRegroupQuarterExample(t *testing.T) {
	rows := []RawRow{
		raw("2024-01", "Standard Membership", "100.00"),
		raw("2024-02", "Premium Membership", "50.00"),
	}
	g := Regroup(rows, Span{Year: 2024, From: 1, To: 3}, "")

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, g.Months, "March present before the zero filter")
	require.Len(t, g.Series, 2)
	assert.Equal(t, core.StandardMembership, g.Series[0].Membership)
	assert.Equal(t, []int64{10000, 0, 0}, values(g.Series[0]))
	assert.Equal(t, core.PremiumMembership, g.Series[1].Membership)
	assert.Equal(t, []int64{0, 5000, 0}, values(g.Series[1]))

	charted := g.WithoutEmptyMonths()
	assert.Equal(t, []string{"2024-01", "2024-02"}, charted.Months, "March dropped after the zero filter")
	assert.Equal(t, []int64{10000, 0}, values(charted.Series[0]))
	assert.Equal(t, []int64{0, 5000}, values(charted.Series[1]))
}

func TestRegroupNormalizesAndDropsInvalid(t *testing.T) {
	rows := []RawRow{
		raw("2024-04", "standard", "10"),
		raw("2024-04", " Standard Membership ", `"5.50"`),
		raw("2024-04", "FAMILY", "1.25"),
		raw("2024-04", "Gold", "99"),       // unmapped
		raw("", "standard", "1"),           // missing month
		raw("2024-04", "", "1"),            // missing category
		raw("2024-04", "premium", `"abc"`), // non numeric
		raw("2024-04", "premium", "null"),  // missing total
		raw("2024-07", "premium", "20"),    // outside span
		raw("2023-04", "premium", "20"),    // other year
		raw("2024-4", "premium", "20"),     // not zero padded
	}
	g := Regroup(rows, Span{Year: 2024, From: 4, To: 5}, "")

	require.Len(t, g.Series, 2)
	assert.Equal(t, core.StandardMembership, g.Series[0].Membership)
	assert.Equal(t, []int64{1550, 0}, values(g.Series[0]))
	assert.Equal(t, core.FamilyMembership, g.Series[1].Membership)
	assert.Equal(t, []int64{125, 0}, values(g.Series[1]))
}

func TestRegroupSingleMembership(t *testing.T) {
	rows := []RawRow{
		raw("2024-01", "Standard Membership", "100"),
		raw("2024-02", "Premium Membership", "50"),
	}
	g := Regroup(rows, Span{Year: 2024, From: 1, To: 2}, core.FamilyMembership)
	require.Len(t, g.Series, 1)
	assert.Equal(t, core.FamilyMembership, g.Series[0].Membership)
	assert.Equal(t, []int64{0, 0}, values(g.Series[0]))
	assert.Empty(t, g.WithoutEmptyMonths().Months)
}

func TestRegroupEmpty(t *testing.T) {
	g := Regroup(nil, Span{Year: 2024, From: 1, To: 12}, "")
	assert.Len(t, g.Months, 12)
	assert.Empty(t, g.Series)
	assert.Empty(t, g.WithoutEmptyMonths().Months)
}

func TestRawRowsFromRoundTrip(t *testing.T) {
	rows := []Row{{Month: "2024-03", Membership: core.PremiumMembership, Total: core.NewMoney(1234)}}
	g := Regroup(RawRowsFrom(rows), Span{Year: 2024, From: 3, To: 3}, "")
	require.Len(t, g.Series, 1)
	assert.Equal(t, []int64{1234}, values(g.Series[0]))
}
