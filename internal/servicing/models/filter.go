package models

import (
	"slices"
	"time"

	id "homeloan/pkg/domain"
)

// ListFilter narrows a mortgage listing. Zero-valued fields match everything.
type ListFilter struct {
	BuyerID  id.UserID
	BankID   id.BankID
	Statuses []Status
	AutoPay  *bool
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

// Matches reports whether m satisfies the filter, ignoring paging.
func (f ListFilter) Matches(m *Mortgage) bool {
	if !f.BuyerID.IsNil() && m.BuyerID != f.BuyerID {
		return false
	}
	if !f.BankID.IsNil() && m.BankID != f.BankID {
		return false
	}
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, m.Status) {
		return false
	}
	if f.AutoPay != nil && m.AutoPay != *f.AutoPay {
		return false
	}
	return true
}

// DueQuery selects active mortgages holding a pending or late period due before Before.
type DueQuery struct {
	// Before is exclusive.
	Before      time.Time
	AutoPayOnly bool
	// PendingOnly ignores periods that are already late.
	PendingOnly bool
}

// Selects reports whether a period with status st matches the query.
func (q DueQuery) Selects(st PaymentStatus) bool {
	if q.PendingOnly {
		return st == PaymentPending
	}
	return st.IsPayable()
}
