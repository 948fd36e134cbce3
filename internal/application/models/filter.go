package models

import (
	"slices"

	id "homeloan/pkg/domain"
)

// ListFilter narrows an application listing. Zero-valued fields match everything.
type ListFilter struct {
	BuyerID  id.UserID
	BankID   id.BankID
	Statuses []Status
	Limit    int
	Offset   int
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Normalize clamps paging to sane bounds.
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// Matches reports whether a satisfies the filter, ignoring paging.
func (f ListFilter) Matches(a *LoanApplication) bool {
	if !f.BuyerID.IsNil() && a.BuyerID != f.BuyerID {
		return false
	}
	if !f.BankID.IsNil() && a.BankID != f.BankID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, a.Status) {
		return false
	}
	return true
}
