package redis

import (
	"context"
	"math/rand"
	"time"

	"cogniquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// CategoryLoader fetches the category catalog from its source (e.g., the question service).
type CategoryLoader interface {
	LoadCategories(ctx context.Context) ([]domain.Category, error)
}

// CategoryRepository caches the catalog in Redis and falls back to a loader on cache miss.
// Categories are stored as: HSET cogniquiz:categories {id} {name}
type CategoryRepository struct {
	client *redis.Client
	loader CategoryLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewCategoryRepository(client *redis.Client, loader CategoryLoader, ttl time.Duration) *CategoryRepository {
	return &CategoryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const categoriesKey = "cogniquiz:categories"

func (r *CategoryRepository) Categories(ctx context.Context) ([]domain.Category, error) {
	if cached, err := r.client.HGetAll(ctx, categoriesKey).Result(); err == nil && len(cached) > 0 {
		return buildCatalog(cached), nil
	}

	result, err, _ := r.sf.Do(categoriesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if cached, err := r.client.HGetAll(ctx, categoriesKey).Result(); err == nil && len(cached) > 0 {
			return buildCatalog(cached), nil
		}

		cats, err := r.loader.LoadCategories(ctx)
		if err != nil {
			return nil, err
		}

		pipe := r.client.Pipeline()
		for _, c := range cats {
			pipe.HSet(ctx, categoriesKey, c.ID, c.Name)
		}
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, categoriesKey, ttl)
		}
		_, _ = pipe.Exec(ctx)

		out := append([]domain.Category(nil), cats...)
		domain.SortCategories(out)
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Category), nil
}

func buildCatalog(cached map[string]string) []domain.Category {
	cats := make([]domain.Category, 0, len(cached))
	for id, name := range cached {
		cats = append(cats, domain.Category{ID: id, Name: name})
	}
	domain.SortCategories(cats)
	return cats
}

func (r *CategoryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
