package report

import (
	"bytes"
	"testing"

	"bigboss/internal/core"
)

func TestWriteCSV(t *testing.T) {
	g := Grid{
		Months: []string{"2024-01", "2024-02"},
		Series: []Series{
			{Membership: core.StandardMembership, Values: []core.Money{core.NewMoney(10000), core.NewMoney(0)}},
			{Membership: core.PremiumMembership, Values: []core.Money{core.NewMoney(5), core.NewMoney(5000)}},
		},
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, g); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "Month,Standard Membership,Premium Membership\r\n" +
		"Jan 2024,100.00,0.05\r\n" +
		"Feb 2024,0.00,50.00\r\n"
	if buf.String() != want {
		t.Fatalf("csv mismatch\n got: %q\nwant: %q", buf.String(), want)
	}
}

func TestWriteCSVNoSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, Grid{}); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "Month\r\n" {
		t.Fatalf("got %q", buf.String())
	}
}

func TestMonthLabel(t *testing.T) {
	cases := map[string]string{
		"2024-01": "Jan 2024",
		"2023-12": "Dec 2023",
		"garbage": "garbage",
	}
	for in, want := range cases {
		if got := MonthLabel(in); got != want {
			t.Fatalf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestCSVFilename(t *testing.T) {
	if got := CSVFilename(Span{Year: 2024, From: 1, To: 3}); got != "income_report_2024_01-03.csv" {
		t.Fatalf("got %q", got)
	}
}
