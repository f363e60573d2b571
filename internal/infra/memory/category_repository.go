package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"cogniquiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches the category catalog from its source (e.g., the question service).
type CategoryLoader interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// CategoryRepository caches the catalog with TTL to avoid repeated upstream calls.
type CategoryRepository struct {
	loader CategoryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.Category
	expiresAt time.Time
}

func NewCategoryRepository(loader CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *CategoryRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	if cats, ok := r.fresh(r.clock()); ok {
		return cats, nil
	}

	result, err, _ := r.sf.Do("categories", func() (interface{}, error) {
		now := r.clock()
		if cats, ok := r.fresh(now); ok {
			return cats, nil
		}

		cats, err := r.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}
		domain.SortCategories(cats)

		r.mu.Lock()
		r.cached = cats
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneCategories(result.([]domain.Category)), nil
}

func (r *CategoryRepository) fresh(now time.Time) ([]domain.Category, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil || !r.expiresAt.After(now) {
		return nil, false
	}
	return cloneCategories(r.cached), true
}

// StaticCategoryLoader serves a fixed catalog (useful for tests/offline mode).
type StaticCategoryLoader struct {
	categories []domain.Category
}

func NewStaticCategoryLoader(categories []domain.Category) *StaticCategoryLoader {
	return &StaticCategoryLoader{categories: categories}
}

func (l *StaticCategoryLoader) LoadCategories(context.Context) ([]domain.Category, error) {
	return cloneCategories(l.categories), nil
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func cloneCategories(in []domain.Category) []domain.Category {
	return append([]domain.Category(nil), in...)
}
