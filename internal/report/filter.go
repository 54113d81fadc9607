// Package report builds the monthly income report: request filters, the
// aggregate query, and the regrouping into chart series and CSV rows.
package report

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bigboss/internal/core"
)

// Client-facing messages. They are returned verbatim in 400 responses.
var (
	ErrYearRequired      = errors.New("Year is required")
	ErrInvalidYear       = errors.New("Invalid year")
	ErrInvalidMonthRange = errors.New("Invalid month range")
	ErrInvalidMembership = errors.New("Invalid membershipType filter")
)

// Filter selects the payments the report aggregates. Zero FromMonth/ToMonth
// means no month restriction; an empty Membership means every allowed category.
type Filter struct {
	Year       int
	FromMonth  int
	ToMonth    int
	Membership core.Membership
}

// HasMonthRange reports whether both bounds are set.
func (f Filter) HasMonthRange() bool {
	return f.FromMonth != 0 && f.ToMonth != 0
}

// Span returns the inclusive month range the filter covers, defaulting to the
// whole year.
func (f Filter) Span() Span {
	if f.HasMonthRange() {
		return Span{Year: f.Year, From: f.FromMonth, To: f.ToMonth}
	}
	return Span{Year: f.Year, From: 1, To: 12}
}

// Validate enforces the same rules as ParseFilter on a Filter built in code.
func (f Filter) Validate() error {
	if f.Year == 0 {
		return ErrYearRequired
	}
	if f.Year < 1 || f.Year > 9999 {
		return ErrInvalidYear
	}
	if f.FromMonth != 0 && (f.FromMonth < 1 || f.FromMonth > 12) {
		return ErrInvalidMonthRange
	}
	if f.ToMonth != 0 && (f.ToMonth < 1 || f.ToMonth > 12) {
		return ErrInvalidMonthRange
	}
	if f.HasMonthRange() && f.FromMonth > f.ToMonth {
		return ErrInvalidMonthRange
	}
	if f.Membership != "" && !f.Membership.Valid() {
		return ErrInvalidMembership
	}
	return nil
}

// Values encodes the filter as the query string ParseFilter reads.
func (f Filter) Values() url.Values {
	v := url.Values{}
	v.Set("year", strconv.Itoa(f.Year))
	if f.HasMonthRange() {
		v.Set("fromMonth", fmt.Sprintf("%02d", f.FromMonth))
		v.Set("toMonth", fmt.Sprintf("%02d", f.ToMonth))
	}
	if f.Membership != "" {
		v.Set("membershipType", string(f.Membership))
	}
	return v
}

// CacheKey identifies the filter in result caches.
func (f Filter) CacheKey() string {
	return fmt.Sprintf("%d:%d-%d:%s", f.Year, f.FromMonth, f.ToMonth, f.Membership)
}

func validMonth(m int) bool {
	return m >= 1 && m <= 12
}

// ParseFilter reads year, fromMonth, toMonth and membershipType. A single
// month bound is ignored; when both are given each must be in 1..12. membershipType must be a canonical name exactly;
// synonyms are only resolved on the client side of the report.
func ParseFilter(q url.Values) (Filter, error) {
	var f Filter

	year := strings.TrimSpace(q.Get("year"))
	if year == "" {
		return f, ErrYearRequired
	}
	y, err := strconv.Atoi(year)
	if err != nil || y < 1 {
		return Filter{}, ErrInvalidYear
	}
	f.Year = y

	from := strings.TrimSpace(q.Get("fromMonth"))
	to := strings.TrimSpace(q.Get("toMonth"))
	if from != "" && to != "" {
		fm, err1 := strconv.Atoi(from)
		tm, err2 := strconv.Atoi(to)
		if err1 != nil || err2 != nil || !validMonth(fm) || !validMonth(tm) {
			return Filter{}, ErrInvalidMonthRange
		}
		f.FromMonth, f.ToMonth = fm, tm
	}

	if mt := q.Get("membershipType"); mt != "" {
		f.Membership = core.Membership(mt)
	}

	if err := f.Validate(); err != nil {
		return Filter{}, err
	}
	return f, nil
}
