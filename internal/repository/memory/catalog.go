package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/deskhive/deskhive/internal/models"
	"github.com/deskhive/deskhive/internal/repository"
)

// TagRepository is the in-memory repository.TagRepository.
type TagRepository struct {
	mu       sync.RWMutex
	nextID   int64
	tags     map[int64]models.Tag
	attached map[int64]map[int64]struct{} // ticket id -> tag ids
}

// NewTagRepository creates an empty in-memory tag repository.
func NewTagRepository() *TagRepository {
	return &TagRepository{
		tags:     make(map[int64]models.Tag),
		attached: make(map[int64]map[int64]struct{}),
	}
}

func (r *TagRepository) Create(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tags {
		if existing.Name == tag.Name {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	tag.ID = r.nextID
	tag.CreatedAt = time.Now()
	r.tags[tag.ID] = *tag
	return nil
}

func (r *TagRepository) GetByID(_ context.Context, id int64) (*models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if tag, ok := r.tags[id]; ok {
		t := tag
		return &t, nil
	}
	return nil, repository.ErrNotFound
}

func (r *TagRepository) List(_ context.Context) ([]models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tags := make([]models.Tag, 0, len(r.tags))
	for _, tag := range r.tags {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

func (r *TagRepository) Update(_ context.Context, tag *models.Tag) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[tag.ID]; !ok {
		return repository.ErrNotFound
	}
	r.tags[tag.ID] = *tag
	return nil
}

func (r *TagRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tags, id)
	for _, tagSet := range r.attached {
		delete(tagSet, id)
	}
	return nil
}

func (r *TagRepository) Attach(_ context.Context, ticketID, tagID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.attached[ticketID] == nil {
		r.attached[ticketID] = make(map[int64]struct{})
	}
	r.attached[ticketID][tagID] = struct{}{}
	return nil
}

func (r *TagRepository) Detach(_ context.Context, ticketID, tagID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attached[ticketID], tagID)
	return nil
}

func (r *TagRepository) ListForTicket(_ context.Context, ticketID int64) ([]models.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var tags []models.Tag
	for tagID := range r.attached[ticketID] {
		if tag, ok := r.tags[tagID]; ok {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Name < tags[j].Name })
	return tags, nil
}

// RuleRepository is the in-memory repository.RuleRepository.
type RuleRepository struct {
	mu            sync.RWMutex
	nextID        int64
	tagRules      map[int64]models.AutoTagRule
	priorityRules map[int64]models.AutoPriorityRule
}

// NewRuleRepository creates an empty in-memory rule repository.
func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		tagRules:      make(map[int64]models.AutoTagRule),
		priorityRules: make(map[int64]models.AutoPriorityRule),
	}
}

func (r *RuleRepository) ActiveTagRules(_ context.Context) ([]models.AutoTagRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ruleSet []models.AutoTagRule
	for _, rule := range r.tagRules {
		if rule.Active {
			ruleSet = append(ruleSet, rule)
		}
	}
	sort.Slice(ruleSet, func(i, j int) bool { return ruleSet[i].ID < ruleSet[j].ID })
	return ruleSet, nil
}

func (r *RuleRepository) ActivePriorityRules(_ context.Context) ([]models.AutoPriorityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ruleSet []models.AutoPriorityRule
	for _, rule := range r.priorityRules {
		if rule.Active {
			ruleSet = append(ruleSet, rule)
		}
	}
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority.Rank() != ruleSet[j].Priority.Rank() {
			return ruleSet[i].Priority.Rank() > ruleSet[j].Priority.Rank()
		}
		return ruleSet[i].ID < ruleSet[j].ID
	})
	return ruleSet, nil
}

func (r *RuleRepository) CreateTagRule(_ context.Context, rule *models.AutoTagRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rule.ID = r.nextID
	rule.CreatedAt = time.Now()
	r.tagRules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) ListTagRules(_ context.Context) ([]models.AutoTagRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ruleSet := make([]models.AutoTagRule, 0, len(r.tagRules))
	for _, rule := range r.tagRules {
		ruleSet = append(ruleSet, rule)
	}
	sort.Slice(ruleSet, func(i, j int) bool { return ruleSet[i].ID < ruleSet[j].ID })
	return ruleSet, nil
}

func (r *RuleRepository) UpdateTagRule(_ context.Context, rule *models.AutoTagRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tagRules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	r.tagRules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) DeleteTagRule(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tagRules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tagRules, id)
	return nil
}

func (r *RuleRepository) CreatePriorityRule(_ context.Context, rule *models.AutoPriorityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	rule.ID = r.nextID
	rule.CreatedAt = time.Now()
	r.priorityRules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) ListPriorityRules(_ context.Context) ([]models.AutoPriorityRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ruleSet := make([]models.AutoPriorityRule, 0, len(r.priorityRules))
	for _, rule := range r.priorityRules {
		ruleSet = append(ruleSet, rule)
	}
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority.Rank() != ruleSet[j].Priority.Rank() {
			return ruleSet[i].Priority.Rank() > ruleSet[j].Priority.Rank()
		}
		return ruleSet[i].ID < ruleSet[j].ID
	})
	return ruleSet, nil
}

func (r *RuleRepository) UpdatePriorityRule(_ context.Context, rule *models.AutoPriorityRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.priorityRules[rule.ID]; !ok {
		return repository.ErrNotFound
	}
	r.priorityRules[rule.ID] = *rule
	return nil
}

func (r *RuleRepository) DeletePriorityRule(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.priorityRules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.priorityRules, id)
	return nil
}

// BrandRepository is the in-memory repository.BrandRepository.
type BrandRepository struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Brand
}

// NewBrandRepository creates an empty in-memory brand repository.
func NewBrandRepository() *BrandRepository {
	return &BrandRepository{items: make(map[int64]models.Brand)}
}

func (r *BrandRepository) Create(_ context.Context, brand *models.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.InboundAddress == brand.InboundAddress {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	brand.ID = r.nextID
	brand.CreatedAt = time.Now()
	r.items[brand.ID] = *brand
	return nil
}

func (r *BrandRepository) List(_ context.Context) ([]models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	brands := make([]models.Brand, 0, len(r.items))
	for _, brand := range r.items {
		brands = append(brands, brand)
	}
	sort.Slice(brands, func(i, j int) bool { return brands[i].Name < brands[j].Name })
	return brands, nil
}

func (r *BrandRepository) GetByInboundAddress(_ context.Context, address string) (*models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, brand := range r.items {
		if brand.Active && brand.InboundAddress == address {
			b := brand
			return &b, nil
		}
	}
	return nil, repository.ErrNotFound
}
