// Package menu provides the restaurant catalog and menu search. Catalog is
// a read-through cache over the database menu store so agent tool calls do
// not hit Postgres on every turn. Searcher answers natural-language queries
// through the vector backend with a lexical fallback, and Indexer pushes
// the catalog into the vector index.
package menu

import (
	"context"
	"sync"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
)

// DefaultCacheTTL bounds how stale a cached menu read may be.
const DefaultCacheTTL = 5 * time.Minute

// Store is the subset of the database menu store the catalog reads through.
type Store interface {
	GetItem(ctx context.Context, itemID int64) (*db.MenuItem, error)
	GetItemWithModifiers(ctx context.Context, itemID int64) (*db.ItemDetails, error)
	Categories(ctx context.Context) ([]string, error)
	ItemsByCategory(ctx context.Context, categoryAr string) ([]db.MenuItem, error)
	SearchItems(ctx context.Context, term string, limit int) ([]db.MenuItem, error)
	ValidateModifiers(ctx context.Context, itemID int64, modifierIDs []int64) (bool, []string, error)
}

type itemEntry struct {
	item      *db.MenuItem
	expiresAt time.Time
}

type detailsEntry struct {
	details   *db.ItemDetails
	expiresAt time.Time
}

type listEntry struct {
	items     []db.MenuItem
	expiresAt time.Time
}

type categoriesEntry struct {
	categories []string
	expiresAt  time.Time
}

// Catalog caches menu reads with a TTL. Cached values are shared between
// callers and must be treated as read-only. Misses and expired entries
// fall through to the store; not-found results are never cached.
type Catalog struct {
	store Store
	ttl   time.Duration

	mu         sync.RWMutex
	items      map[int64]itemEntry
	details    map[int64]detailsEntry
	byCategory map[string]listEntry
	categories categoriesEntry
}

// NewCatalog creates a catalog over the given store. A non-positive ttl
// falls back to DefaultCacheTTL.
func NewCatalog(store Store, ttl time.Duration) *Catalog {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Catalog{
		store:      store,
		ttl:        ttl,
		items:      make(map[int64]itemEntry),
		details:    make(map[int64]detailsEntry),
		byCategory: make(map[string]listEntry),
	}
}

// GetItem returns one available menu item, or db.ErrNotFound.
func (c *Catalog) GetItem(ctx context.Context, itemID int64) (*db.MenuItem, error) {
	c.mu.RLock()
	entry, ok := c.items[itemID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.item, nil
	}

	item, err := c.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.items[itemID] = itemEntry{item: item, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return item, nil
}

// GetItemWithModifiers returns an item together with its modifier groups,
// or db.ErrNotFound.
func (c *Catalog) GetItemWithModifiers(ctx context.Context, itemID int64) (*db.ItemDetails, error) {
	c.mu.RLock()
	entry, ok := c.details[itemID]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.details, nil
	}

	details, err := c.store.GetItemWithModifiers(ctx, itemID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.details[itemID] = detailsEntry{details: details, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return details, nil
}

// ListCategories returns the Arabic category names that have at least one
// available item.
func (c *Catalog) ListCategories(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	entry := c.categories
	c.mu.RUnlock()
	if entry.categories != nil && time.Now().Before(entry.expiresAt) {
		return entry.categories, nil
	}

	categories, err := c.store.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}

	c.mu.Lock()
	c.categories = categoriesEntry{categories: categories, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return categories, nil
}

// ItemsByCategory returns the available items in an Arabic category.
func (c *Catalog) ItemsByCategory(ctx context.Context, categoryAr string) ([]db.MenuItem, error) {
	c.mu.RLock()
	entry, ok := c.byCategory[categoryAr]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return entry.items, nil
	}

	items, err := c.store.ItemsByCategory(ctx, categoryAr)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byCategory[categoryAr] = listEntry{items: items, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return items, nil
}

// SearchItems is an uncached substring search passed through to the store.
func (c *Catalog) SearchItems(ctx context.Context, term string, limit int) ([]db.MenuItem, error) {
	return c.store.SearchItems(ctx, term, limit)
}

// ValidateModifiers checks a modifier selection against an item's groups.
// Validation always reads the database: availability must be current when
// a line is added to the cart.
func (c *Catalog) ValidateModifiers(ctx context.Context, itemID int64, modifierIDs []int64) (bool, []string, error) {
	return c.store.ValidateModifiers(ctx, itemID, modifierIDs)
}
