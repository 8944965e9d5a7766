package services

import (
	"context"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/ports"
)

const (
	categoryCacheSize = 1000
	// DefaultCategoryCacheTTL bounds how stale a category list can be.
	DefaultCategoryCacheTTL = 5 * time.Minute
)

// CategoryService lists system and user-owned expense categories. Lists are
// cached per user and dropped whenever that user adds a category.
type CategoryService struct {
	store ports.CategoryStore
	cache *cache.LRUCache[[]core.Category]
}

func NewCategoryService(store ports.CategoryStore, ttl time.Duration) *CategoryService {
	if ttl <= 0 {
		ttl = DefaultCategoryCacheTTL
	}
	return &CategoryService{
		store: store,
		cache: cache.NewLRUCache[[]core.Category](categoryCacheSize, ttl),
	}
}

func cacheKey(userID int64) string {
	return strconv.FormatInt(userID, 10)
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	if cached, ok := s.cache.Get(cacheKey(userID)); ok {
		return cached, nil
	}

	categories, err := s.store.ListCategories(ctx, userID)
	if err != nil {
		return nil, storageErr("list categories", err)
	}
	s.cache.Set(cacheKey(userID), categories)
	return categories, nil
}

func (s *CategoryService) Create(ctx context.Context, scope core.Scope, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	in.Name = strings.TrimSpace(in.Name)

	id, err := s.store.CreateCategory(ctx, scope.UserID, in)
	if err != nil {
		return core.Category{}, storageErr("create category", err)
	}
	s.cache.Delete(cacheKey(scope.UserID))

	c, err := s.store.GetCategory(ctx, scope.UserID, id)
	if err != nil {
		return core.Category{}, lookupErr("Category", "get category", err)
	}
	return c, nil
}

// Cache exposes the category cache for sweeping and metrics.
func (s *CategoryService) Cache() *cache.LRUCache[[]core.Category] {
	return s.cache
}
