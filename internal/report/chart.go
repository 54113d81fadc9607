package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"bigboss/internal/core"
)

// Row is one line of the report endpoint's response.
type Row struct {
	Month      string          `json:"month"`
	Membership core.Membership `json:"membership_type"`
	Total      core.Money      `json:"total"`
}

// RowsFromCore converts stored aggregates to wire rows.
func RowsFromCore(in []core.MonthlyIncomeRow) []Row {
	out := make([]Row, 0, len(in))
	for _, r := range in {
		out = append(out, Row{Month: r.Month, Membership: r.Membership, Total: r.Total})
	}
	return out
}

// RawRow is a report row as received, before any validation. Total is kept
// raw because senders use numbers or strings.
type RawRow struct {
	Month      string          `json:"month"`
	Membership string          `json:"membership_type"`
	Total      json.RawMessage `json:"total"`
}

// RawRowsFrom converts typed rows back to raw form, for regrouping rows that
// never left the process.
func RawRowsFrom(rows []Row) []RawRow {
	out := make([]RawRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, RawRow{
			Month:      r.Month,
			Membership: string(r.Membership),
			Total:      json.RawMessage(r.Total.String()),
		})
	}
	return out
}

// Span is the inclusive month range the chart covers.
type Span struct {
	Year int
	From int
	To   int
}

// Months lists YYYY-MM labels from From to To.
func (s Span) Months() []string {
	var out []string
	for m := s.From; m <= s.To; m++ {
		out = append(out, fmt.Sprintf("%04d-%02d", s.Year, m))
	}
	return out
}

func (s Span) contains(month string) bool {
	y, m, ok := splitMonth(month)
	return ok && y == s.Year && m >= s.From && m <= s.To
}

// Series is one membership category's values, aligned with Grid.Months.
type Series struct {
	Membership core.Membership
	Values     []core.Money
}

// Grid is the chart-ready table: one column per month, one series per
// category.
type Grid struct {
	Months []string
	Series []Series
}

func splitMonth(s string) (year, month int, ok bool) {
	y, m, found := strings.Cut(s, "-")
	if !found || len(y) != 4 || len(m) != 2 {
		return 0, 0, false
	}
	year, err1 := strconv.Atoi(y)
	month, err2 := strconv.Atoi(m)
	if err1 != nil || err2 != nil || month < 1 || month > 12 {
		return 0, 0, false
	}
	return year, month, true
}

func parseTotal(raw json.RawMessage) (core.Money, bool) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return core.Money{}, false
	}
	s = strings.Trim(s, `"`)
	cents, err := core.ParseAmount(s)
	if err != nil {
		return core.Money{}, false
	}
	return core.NewMoney(cents), true
}

// Regroup turns report rows into a Grid over span.
//
// Rows with a missing month or category, or a non-numeric total, are
// dropped. Rows outside span are dropped. Category names go through the
// synonym table and rows that do not map are dropped. Months in span with no
// data are zero-filled. When only is set, the grid has exactly that series;
// otherwise one series per category that has data, in canonical order.
func Regroup(rows []RawRow, span Span, only core.Membership) Grid {
	months := span.Months()
	index := make(map[string]int, len(months))
	for i, m := range months {
		index[m] = i
	}

	totals := make(map[core.Membership][]core.Money)
	for _, r := range rows {
		if strings.TrimSpace(r.Month) == "" || strings.TrimSpace(r.Membership) == "" {
			continue
		}
		amount, ok := parseTotal(r.Total)
		if !ok {
			continue
		}
		if !span.contains(r.Month) {
			continue
		}
		m, err := core.ParseMembership(r.Membership)
		if err != nil {
			continue
		}
		vals, ok := totals[m]
		if !ok {
			vals = make([]core.Money, len(months))
			totals[m] = vals
		}
		i := index[r.Month]
		vals[i] = vals[i].Add(amount)
	}

	var wanted []core.Membership
	if only != "" {
		if m, err := core.ParseMembership(string(only)); err == nil {
			wanted = []core.Membership{m}
		}
	} else {
		for _, m := range core.AllowedMemberships() {
			if _, ok := totals[m]; ok {
				wanted = append(wanted, m)
			}
		}
	}

	g := Grid{Months: months}
	for _, m := range wanted {
		vals, ok := totals[m]
		if !ok {
			vals = make([]core.Money, len(months))
		}
		g.Series = append(g.Series, Series{Membership: m, Values: vals})
	}
	return g
}

// MonthTotal sums every series at column i.
func (g Grid) MonthTotal(i int) core.Money {
	var total core.Money
	for _, s := range g.Series {
		total = total.Add(s.Values[i])
	}
	return total
}

// WithoutEmptyMonths drops every month whose total across all series is zero.
func (g Grid) WithoutEmptyMonths() Grid {
	var keep []int
	for i := range g.Months {
		if g.MonthTotal(i).Cents > 0 {
			keep = append(keep, i)
		}
	}
	out := Grid{Months: make([]string, 0, len(keep))}
	for _, i := range keep {
		out.Months = append(out.Months, g.Months[i])
	}
	for _, s := range g.Series {
		vals := make([]core.Money, 0, len(keep))
		for _, i := range keep {
			vals = append(vals, s.Values[i])
		}
		out.Series = append(out.Series, Series{Membership: s.Membership, Values: vals})
	}
	return out
}
