package report

import (
	"net/url"
	"testing"

	"bigboss/internal/core"
)

func TestParseFilter(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  Filter
		err   error
	}{
		{"year only", "year=2024", Filter{Year: 2024}, nil},
		{"full range", "year=2024&fromMonth=01&toMonth=03", Filter{Year: 2024, FromMonth: 1, ToMonth: 3}, nil},
		{"single bound ignored", "year=2024&fromMonth=05", Filter{Year: 2024}, nil},
		{"membership", "year=2024&membershipType=Premium+Membership", Filter{Year: 2024, Membership: core.PremiumMembership}, nil},
		{"empty membership means all", "year=2024&membershipType=", Filter{Year: 2024}, nil},
		{"missing year", "fromMonth=1&toMonth=2", Filter{}, ErrYearRequired},
		{"blank year", "year=+", Filter{}, ErrYearRequired},
		{"non numeric year", "year=twenty", Filter{}, ErrInvalidYear},
		{"month out of range", "year=2024&fromMonth=0&toMonth=13", Filter{}, ErrInvalidMonthRange},
		{"zero from month", "year=2024&fromMonth=0&toMonth=5", Filter{}, ErrInvalidMonthRange},
		{"zero to month", "year=2024&fromMonth=00&toMonth=0", Filter{}, ErrInvalidMonthRange},
		{"to month past december", "year=2024&fromMonth=1&toMonth=13", Filter{}, ErrInvalidMonthRange},
		{"zero year", "year=0", Filter{}, ErrInvalidYear},
		{"negative year", "year=-3", Filter{}, ErrInvalidYear},
		{"inverted range", "year=2024&fromMonth=6&toMonth=2", Filter{}, ErrInvalidMonthRange},
		{"non numeric month", "year=2024&fromMonth=jan&toMonth=3", Filter{}, ErrInvalidMonthRange},
		{"bogus membership", "year=2024&membershipType=Bogus", Filter{}, ErrInvalidMembership},
		{"synonym rejected at boundary", "year=2024&membershipType=premium", Filter{}, ErrInvalidMembership},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			if err != nil {
				t.Fatalf("bad query: %v", err)
			}
			got, err := ParseFilter(q)
			if err != tc.err {
				t.Fatalf("expected error %v, got %v", tc.err, err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestFilterValuesRoundTrip(t *testing.T) {
	f := Filter{Year: 2025, FromMonth: 2, ToMonth: 11, Membership: core.FamilyMembership}
	v := f.Values()
	if v.Get("fromMonth") != "02" || v.Get("toMonth") != "11" {
		t.Fatalf("months must be zero padded: %v", v)
	}
	back, err := ParseFilter(v)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if back != f {
		t.Fatalf("expected %+v, got %+v", f, back)
	}
}

func TestFilterSpan(t *testing.T) {
	if s := (Filter{Year: 2024}).Span(); s != (Span{Year: 2024, From: 1, To: 12}) {
		t.Fatalf("default span = %+v", s)
	}
	if s := (Filter{Year: 2024, FromMonth: 3, ToMonth: 4}).Span(); s != (Span{Year: 2024, From: 3, To: 4}) {
		t.Fatalf("range span = %+v", s)
	}
}
