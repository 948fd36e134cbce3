package store

import (
	"context"
	"sort"
	"sync"

	"homeloan/internal/application/models"
	id "homeloan/pkg/domain"
	"homeloan/pkg/platform/sentinel"
)

// InMemory keeps applications in a map. Every read returns a copy.
type InMemory struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*models.LoanApplication
}

func NewInMemory() *InMemory {
	return &InMemory{apps: make(map[id.ApplicationID]*models.LoanApplication)}
}

func (s *InMemory) Create(_ context.Context, app *models.LoanApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[app.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.apps[app.ID] = app.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, appID id.ApplicationID) (*models.LoanApplication, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

// List returns matching applications, newest first.
func (s *InMemory) List(_ context.Context, filter models.ListFilter) ([]*models.LoanApplication, error) {
	filter.Normalize()
	s.mu.RLock()
	matched := make([]*models.LoanApplication, 0)
	for _, app := range s.apps {
		if filter.Matches(app) {
			matched = append(matched, app.Clone())
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
		return []*models.LoanApplication{}, nil
	}
	end := min(filter.Offset+filter.Limit, len(matched))
	return matched[filter.Offset:end], nil
}

// Execute runs validate then mutate on the stored application under the write lock.
// Nothing is persisted when validate fails.
func (s *InMemory) Execute(_ context.Context, appID id.ApplicationID, validate func(*models.LoanApplication) error, mutate func(*models.LoanApplication)) (*models.LoanApplication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := stored.Clone()
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.apps[appID] = working
	return working.Clone(), nil
}
