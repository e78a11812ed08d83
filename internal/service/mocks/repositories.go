package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/shortlink/internal/models"
	"github.com/SergeiKhy/shortlink/internal/repository"
)

// MockMappingRepository implements repository.MappingRepository for testing
type MockMappingRepository struct {
	mu       sync.RWMutex
	mappings map[string]*models.Mapping
	state    repository.ConnState

	// FindErr, InsertErr and PingErr are returned instead of the normal result when set
	FindErr   error
	InsertErr error
	PingErr   error
	// InsertHook runs before every Insert; a non-nil result is returned as the Insert error
	InsertHook func(mapping *models.Mapping) error

	FindCalls   int
	InsertCalls int
}

func NewMockMappingRepository() *MockMappingRepository {
	return &MockMappingRepository{
		mappings: make(map[string]*models.Mapping),
		state:    repository.StateConnected,
	}
}

// NewDisconnectedMappingRepository behaves like a store that never connected
func NewDisconnectedMappingRepository() *MockMappingRepository {
	m := NewMockMappingRepository()
	m.state = repository.StateDisconnected
	return m
}

func (m *MockMappingRepository) State() repository.ConnState {
	return m.state
}

func (m *MockMappingRepository) FindByID(ctx context.Context, id string) (*models.Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FindCalls++

	if m.state != repository.StateConnected {
		return nil, repository.ErrStoreUnavailable
	}
	if m.FindErr != nil {
		return nil, m.FindErr
	}

	mapping, exists := m.mappings[id]
	if !exists {
		return nil, repository.ErrMappingNotFound
	}
	copied := *mapping
	return &copied, nil
}

func (m *MockMappingRepository) Insert(ctx context.Context, mapping *models.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls++

	if m.state != repository.StateConnected {
		return repository.ErrStoreUnavailable
	}
	if m.InsertHook != nil {
		if err := m.InsertHook(mapping); err != nil {
			return err
		}
	}
	if m.InsertErr != nil {
		return m.InsertErr
	}
	if _, exists := m.mappings[mapping.ID]; exists {
		return repository.ErrIDExists
	}

	mapping.CreatedAt = time.Now()
	copied := *mapping
	m.mappings[mapping.ID] = &copied
	return nil
}

func (m *MockMappingRepository) Ping(ctx context.Context) error {
	if m.state != repository.StateConnected {
		return repository.ErrStoreUnavailable
	}
	return m.PingErr
}

// Seed stores a mapping directly, bypassing Insert bookkeeping
func (m *MockMappingRepository) Seed(id, longURL string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mappings[id] = &models.Mapping{ID: id, LongURL: longURL, CreatedAt: time.Now()}
}

func (m *MockMappingRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.mappings)
}

// MockCacheRepository implements repository.CacheRepository for testing
type MockCacheRepository struct {
	mu    sync.RWMutex
	cache map[string]*models.Mapping

	GetErr error
	SetErr error
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		cache: make(map[string]*models.Mapping),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, id string) (*models.Mapping, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	mapping, exists := m.cache[id]
	if !exists {
		return nil, repository.ErrCacheMiss
	}
	copied := *mapping
	return &copied, nil
}

func (m *MockCacheRepository) Set(ctx context.Context, mapping *models.Mapping) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SetErr != nil {
		return m.SetErr
	}
	copied := *mapping
	m.cache[mapping.ID] = &copied
	return nil
}

func (m *MockCacheRepository) Has(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, exists := m.cache[id]
	return exists
}
