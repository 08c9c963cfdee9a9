package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

// CannedResponseRepository is the in-memory repository.CannedResponseRepository.
type CannedResponseRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.CannedResponse
}

// NewCannedResponseRepository creates an empty in-memory canned response repository.
func NewCannedResponseRepository() *CannedResponseRepository {
	return &CannedResponseRepository{items: make(map[int64]models.CannedResponse)}
}

func (r *CannedResponseRepository) Create(_ context.Context, response *models.CannedResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Shortcut == response.Shortcut {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	response.ID = r.nextID
	now := time.Now()
	response.CreatedAt = now
	response.UpdatedAt = now
	r.items[response.ID] = *response
	return nil
}

func (r *CannedResponseRepository) GetByID(_ context.Context, id int64) (*models.CannedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if response, ok := r.items[id]; ok {
		c := response
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *CannedResponseRepository) List(_ context.Context) ([]models.CannedResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	responses := make([]models.CannedResponse, 0, len(r.items))
	for _, response := range r.items {
		responses = append(responses, response)
	}
	sort.Slice(responses, func(i, j int) bool { return responses[i].Title < responses[j].Title })
	return responses, nil
}

func (r *CannedResponseRepository) Update(_ context.Context, response *models.CannedResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[response.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Title = response.Title
	stored.Shortcut = response.Shortcut
	stored.Body = response.Body
	stored.UpdatedAt = time.Now()
	r.items[response.ID] = stored
	*response = stored
	return nil
}

func (r *CannedResponseRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CannedResponseRepository) IncrementUsage(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.items[id]; ok {
		stored.UsageCount++
		r.items[id] = stored
	}
	return nil
}

// PromoCodeRepository is the in-memory repository.PromoCodeRepository.
type PromoCodeRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.PromoCode
}

// NewPromoCodeRepository creates an empty in-memory promo code repository.
func NewPromoCodeRepository() *PromoCodeRepository {
	return &PromoCodeRepository{items: make(map[int64]models.PromoCode)}
}

func (r *PromoCodeRepository) Create(_ context.Context, code *models.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Code == code.Code {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	code.ID = r.nextID
	code.CreatedAt = time.Now()
	r.items[code.ID] = *code
	return nil
}

func (r *PromoCodeRepository) GetByID(_ context.Context, id int64) (*models.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if code, ok := r.items[id]; ok {
		c := code
		return &c, nil
	}
	return nil, repository.ErrNotFound
}

func (r *PromoCodeRepository) List(_ context.Context) ([]models.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]models.PromoCode, 0, len(r.items))
	for _, code := range r.items {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].Code < codes[j].Code })
	return codes, nil
}

func (r *PromoCodeRepository) Update(_ context.Context, code *models.PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[code.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[code.ID] = *code
	return nil
}

func (r *PromoCodeRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// ResourceRepository is the in-memory repository.ResourceRepository.
type ResourceRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Resource
}

// NewResourceRepository creates an empty in-memory resource repository.
func NewResourceRepository() *ResourceRepository {
	return &ResourceRepository{items: make(map[int64]models.Resource)}
}

func (r *ResourceRepository) Create(_ context.Context, resource *models.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	resource.ID = r.nextID
	resource.CreatedAt = time.Now()
	r.items[resource.ID] = *resource
	return nil
}

func (r *ResourceRepository) GetByID(_ context.Context, id int64) (*models.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if resource, ok := r.items[id]; ok {
		res := resource
		return &res, nil
	}
	return nil, repository.ErrNotFound
}

func (r *ResourceRepository) List(_ context.Context) ([]models.Resource, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	resources := make([]models.Resource, 0, len(r.items))
	for _, resource := range r.items {
		resources = append(resources, resource)
	}
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Category != resources[j].Category {
			return resources[i].Category < resources[j].Category
		}
		return resources[i].Title < resources[j].Title
	})
	return resources, nil
}

func (r *ResourceRepository) Update(_ context.Context, resource *models.Resource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[resource.ID]; !ok {
		return repository.ErrNotFound
	}
	r.items[resource.ID] = *resource
	return nil
}

func (r *ResourceRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.items, id)
	return nil
}
