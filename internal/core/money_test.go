package core

import (
	"encoding/json"
	"math"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{".5", 50, true},
		{"-1", 0, false},
		{"0", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
		{".", 0, false},
		{"1.٣", 0, false},
		{"٣", 0, false},
		{"0.٣٣", 0, false},
		{"１", 0, false},
		{"1000000000", 100000000000, true},
		{"1000000000.01", 0, false},
		{"99999999999999999", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseAmountAllowsZero(t *testing.T) {
	for _, in := range []string{"0", "0.00", "0,0"} {
		got, err := ParseAmount(in)
		if err != nil || got != 0 {
			t.Fatalf("%q expected 0, got %d (err=%v)", in, got, err)
		}
	}
}

func TestMoneyArithmeticSaturates(t *testing.T) {
	max := NewMoney(math.MaxInt64)
	if got := max.Times(2).Cents; got != math.MaxInt64 {
		t.Fatalf("Times overflow: expected saturation, got %d", got)
	}
	if got := NewMoney(-5).Times(math.MaxInt64).Cents; got != math.MinInt64 {
		t.Fatalf("negative Times overflow: expected saturation, got %d", got)
	}
	if got := max.Add(NewMoney(1)).Cents; got != math.MaxInt64 {
		t.Fatalf("Add overflow: expected saturation, got %d", got)
	}
	if got := NewMoney(MaxAmountCents).Times(3).Cents; got != 3*MaxAmountCents {
		t.Fatalf("expected %d, got %d", 3*MaxAmountCents, got)
	}
	// 10% off the largest int64 amount must not wrap negative.
	if got := max.Discount(10).Cents; got <= 0 || got >= math.MaxInt64 {
		t.Fatalf("Discount overflowed: %d", got)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 100: "1.00", 123456: "1234.56", -250: "-2.50"}
	for cents, want := range cases {
		if got := NewMoney(cents).String(); got != want {
			t.Fatalf("%d: expected %q, got %q", cents, want, got)
		}
	}
}

func TestMoneyDiscount(t *testing.T) {
	cases := []struct {
		cents, pct, want int64
	}{
		{10000, 10, 9000},
		{999, 15, 849}, // 849.15 rounds down
		{333, 50, 167}, // 166.5 rounds up
		{500, 0, 500},
		{500, 100, 0},
		{500, 150, 0},
		{500, -5, 500},
	}
	for _, tc := range cases {
		if got := NewMoney(tc.cents).Discount(int(tc.pct)).Cents; got != tc.want {
			t.Fatalf("%d -%d%%: expected %d, got %d", tc.cents, tc.pct, tc.want, got)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	var holder struct {
		Total Money `json:"total"`
	}
	for _, in := range []string{`{"total":49.99}`, `{"total":"49.99"}`, `{"total":"49,99"}`} {
		if err := json.Unmarshal([]byte(in), &holder); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if holder.Total.Cents != 4999 {
			t.Fatalf("%s: cents = %d", in, holder.Total.Cents)
		}
	}
	b, err := json.Marshal(holder)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"total":49.99}` {
		t.Fatalf("marshal = %s", b)
	}
	if err := json.Unmarshal([]byte(`{"total":"abc"}`), &holder); err == nil {
		t.Fatalf("expected error for non-numeric total")
	}
}
