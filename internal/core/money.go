// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and decimal representations.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxAmountCents bounds every parsed amount (one billion in currency units).
// Products of bounded amounts and cart quantities stay far from int64 limits.
const MaxAmountCents int64 = 100_000_000_000

// ParseDecimalToCents converts a decimal string to cents with proper rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and performs
// half-up rounding on the third decimal place. The result is always positive cents.
// Returns an error for invalid formats, negative values, or zero amounts.
//
// Examples:
//
//	ParseDecimalToCents("12.34") -> 1234, nil
//	ParseDecimalToCents("12,34") -> 1234, nil
//	ParseDecimalToCents("12.345") -> 1235, nil (rounds up)
//	ParseDecimalToCents("12.344") -> 1234, nil (rounds down)
func ParseDecimalToCents(s string) (int64, error) {
	cents, err := ParseAmount(s)
	if err != nil {
		return 0, err
	}
	if cents <= 0 {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// ParseAmount is ParseDecimalToCents without the positivity requirement:
// "0" and "0.00" are accepted. Used for prices and report totals.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !asciiDigits(intPart) || !asciiDigits(fracPart) {
		return 0, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > MaxAmountCents/100 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if cents > MaxAmountCents {
		return 0, ErrInvalidAmount
	}
	return cents, nil
}

// asciiDigits reports whether s holds only 0-9. Other Unicode digits are
// rejected because the fraction is read byte by byte.
func asciiDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NewMoney wraps a cent amount.
func NewMoney(cents int64) Money {
	return Money{Cents: cents}
}

// String renders the amount with two decimals and a dot separator ("12.34").
func (m Money) String() string {
	cents := m.Cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Float returns the amount as a float64 for display and JSON output.
// Use cents for calculations to avoid floating-point drift.
func (m Money) Float() float64 {
	return float64(m.Cents) / 100.0
}

// Times multiplies the amount by a quantity, saturating at the int64 range
// instead of wrapping.
func (m Money) Times(qty int) Money {
	q := int64(qty)
	if m.Cents == 0 || q == 0 {
		return Money{}
	}
	p := m.Cents * q
	if p/q != m.Cents || (m.Cents == -1 && q == math.MinInt64) || (q == -1 && m.Cents == math.MinInt64) {
		if (m.Cents > 0) == (q > 0) {
			return Money{Cents: math.MaxInt64}
		}
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: p}
}

// Add returns the sum of two amounts, saturating at the int64 range.
func (m Money) Add(o Money) Money {
	sum := m.Cents + o.Cents
	switch {
	case o.Cents > 0 && sum < m.Cents:
		return Money{Cents: math.MaxInt64}
	case o.Cents < 0 && sum > m.Cents:
		return Money{Cents: math.MinInt64}
	}
	return Money{Cents: sum}
}

// Discount removes pct percent from the amount, rounding half-up to the cent.
// pct is clamped to 0..100.
func (m Money) Discount(pct int) Money {
	if pct <= 0 {
		return m
	}
	if pct >= 100 {
		return Money{}
	}
	// Split off whole units so the product cannot overflow.
	keep := int64(100 - pct)
	whole, rest := m.Cents/100, m.Cents%100
	return Money{Cents: whole*keep + (rest*keep+50)/100}
}

// MarshalJSON renders the amount as a JSON number with exactly two
// decimals (100.00), never a binary float approximation.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a quoted decimal string.
func (m *Money) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		m.Cents = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	cents, err := ParseAmount(s)
	if err != nil {
		return fmt.Errorf("parse amount %q: %w", s, err)
	}
	m.Cents = cents
	return nil
}
