package store

import (
	"context"
	"sort"
	"sync"

	"homeloan/internal/servicing/models"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/sentinel"
)

// InMemory keeps mortgages in a map with a unique application index and a
// unique index of paid transaction ids. Every read returns a copy.
type InMemory struct {
	mu            sync.RWMutex
	mortgages     map[id.MortgageID]*models.Mortgage
	byApplication map[id.ApplicationID]id.MortgageID
	byTransaction map[string]paymentRef
}

type paymentRef struct {
	mortgageID    id.MortgageID
	paymentNumber int
}

func NewInMemory() *InMemory {
	return &InMemory{
		mortgages:     make(map[id.MortgageID]*models.Mortgage),
		byApplication: make(map[id.ApplicationID]id.MortgageID),
		byTransaction: make(map[string]paymentRef),
	}
}

// CreateIfAbsentForApplication stores m unless a mortgage already references its application.
func (s *InMemory) CreateIfAbsentForApplication(_ context.Context, m *models.Mortgage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byApplication[m.ApplicationID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	if _, ok := s.mortgages[m.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	stored := m.Clone()
	stored.Version = 1
	s.mortgages[m.ID] = stored
	s.byApplication[m.ApplicationID] = m.ID
	m.Version = 1
	return nil
}

func (s *InMemory) FindByID(_ context.Context, mortgageID id.MortgageID) (*models.Mortgage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.mortgages[mortgageID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return m.Clone(), nil
}

func (s *InMemory) FindByApplication(_ context.Context, appID id.ApplicationID) (*models.Mortgage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mortgageID, ok := s.byApplication[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.mortgages[mortgageID].Clone(), nil
}

// List returns matching mortgages, newest first.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.Mortgage, error) {
	filter.Normalize()
	s.mu.RLock()
	matched := make([]*models.Mortgage, 0)
	for _, m := range s.mortgages {
		if filter.Matches(m) {
			matched = append(matched, m.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if filter.Offset >= len(matched) {
		return []*models.Mortgage{}, nil
	}
	end := min(filter.Offset+filter.Limit, len(matched))
	return matched[filter.Offset:end], nil
}

// ListDueIDs returns active mortgages holding a period q selects due before q.Before.
func (s *InMemory) ListDueIDs(_ context.Context, q models.DueQuery) ([]id.MortgageID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]id.MortgageID, 0)
	for mortgageID, m := range s.mortgages {
		if m.Status != models.StatusActive || (q.AutoPayOnly && !m.AutoPay) {
			continue
		}
		for _, rec := range m.Payments {
			if q.Selects(rec.Status) && rec.DueDate.Before(q.Before) {
				out = append(out, mortgageID)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// Execute runs validate then mutate on the stored mortgage under the write lock.
// Nothing is persisted when validate fails or a newly paid record reuses a
// transaction id already held by any record.
func (s *InMemory) Execute(_ context.Context, mortgageID id.MortgageID, validate func(*models.Mortgage) error, mutate func(*models.Mortgage)) (*models.Mortgage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.mortgages[mortgageID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)

	paid := s.newlyPaid(stored, working)
	for _, ref := range paid {
		rec, _ := working.Payment(ref.paymentNumber)
		if _, taken := s.byTransaction[rec.TransactionID]; taken {
			return nil, sentinel.ErrAlreadyUsed
		}
	}
	for _, ref := range paid {
		rec, _ := working.Payment(ref.paymentNumber)
		s.byTransaction[rec.TransactionID] = ref
	}

	working.Version = stored.Version + 1
	s.mortgages[mortgageID] = working
	return working.Clone(), nil
}

func (s *InMemory) newlyPaid(before, after *models.Mortgage) []paymentRef {
	var out []paymentRef
	for i, rec := range after.Payments {
		if rec.Status != models.PaymentPaid || rec.TransactionID == "" {
			continue
		}
		if i < len(before.Payments) && before.Payments[i].Status == models.PaymentPaid {
			continue
		}
		out = append(out, paymentRef{mortgageID: after.ID, paymentNumber: rec.PaymentNumber})
	}
	return out
}
