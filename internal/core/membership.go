package core

import (
	"errors"
	"strings"
)

// Membership is the closed set of membership categories payments are
// reported under.
type Membership string

const (
	StandardMembership Membership = "Standard Membership"
	PremiumMembership  Membership = "Premium Membership"
	FamilyMembership   Membership = "Family Membership"
)

var ErrUnknownMembership = errors.New("unknown membership type")

// allowedMemberships is ordered; reports and charts list categories in this order.
var allowedMemberships = []Membership{StandardMembership, PremiumMembership, FamilyMembership}

// membershipSynonyms maps lower-cased spellings seen in stored data to the
// canonical category. Anything not listed here is rejected.
var membershipSynonyms = map[string]Membership{
	"standard":            StandardMembership,
	"standard membership": StandardMembership,
	"premium":             PremiumMembership,
	"premium membership":  PremiumMembership,
	"family":              FamilyMembership,
	"family membership":   FamilyMembership,
}

// AllowedMemberships returns the canonical categories in display order.
func AllowedMemberships() []Membership {
	out := make([]Membership, len(allowedMemberships))
	copy(out, allowedMemberships)
	return out
}

// Valid reports whether m is one of the canonical names, spelled exactly.
func (m Membership) Valid() bool {
	for _, a := range allowedMemberships {
		if m == a {
			return true
		}
	}
	return false
}

// Rank is the position of m in display order, or -1 when m is not canonical.
func (m Membership) Rank() int {
	for i, a := range allowedMemberships {
		if m == a {
			return i
		}
	}
	return -1
}

func (m Membership) String() string { return string(m) }

// ParseMembership normalizes a free-form category name through the synonym
// table. Case and surrounding whitespace are ignored.
func ParseMembership(s string) (Membership, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if m, ok := membershipSynonyms[key]; ok {
		return m, nil
	}
	return "", ErrUnknownMembership
}

// MonthlyIncomeRow is one (month, category) total from the income report.
type MonthlyIncomeRow struct {
	Month      string // YYYY-MM
	Membership Membership
	Total      Money
}
