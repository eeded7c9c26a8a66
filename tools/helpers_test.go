package tools

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/menu"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// ============================================================================
// SHARED TEST FIXTURES
// ============================================================================

// fakeCoverage resolves districts from a fixed map and returns canned
// suggestions for anything that misses.
type fakeCoverage struct {
	areas       map[string]db.Area
	suggestions []db.Area
	err         error
}

var _ CoverageChecker = (*fakeCoverage)(nil)

func (f *fakeCoverage) CheckCoverage(ctx context.Context, areaName string) (bool, *db.Area, []db.Area, error) {
	if f.err != nil {
		return false, nil, nil, f.err
	}
	if area, ok := f.areas[areaName]; ok {
		return true, &area, nil, nil
	}
	return false, nil, f.suggestions, nil
}

func (f *fakeCoverage) ActiveAreas(ctx context.Context) ([]db.Area, error) {
	if f.err != nil {
		return nil, f.err
	}
	areas := make([]db.Area, 0, len(f.areas))
	for _, area := range f.areas {
		areas = append(areas, area)
	}
	sort.Slice(areas, func(i, j int) bool { return areas[i].NameAr < areas[j].NameAr })
	return areas, nil
}

// fakeMenuStore backs a real menu.Catalog in tests.
type fakeMenuStore struct {
	items       map[int64]db.MenuItem
	details     map[int64]db.ItemDetails
	searchHits  []db.MenuItem
	validateOK  bool
	validateMsg []string
	err         error
}

var _ menu.Store = (*fakeMenuStore)(nil)

func (f *fakeMenuStore) GetItem(ctx context.Context, itemID int64) (*db.MenuItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	item, ok := f.items[itemID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &item, nil
}

func (f *fakeMenuStore) GetItemWithModifiers(ctx context.Context, itemID int64) (*db.ItemDetails, error) {
	if f.err != nil {
		return nil, f.err
	}
	details, ok := f.details[itemID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &details, nil
}

func (f *fakeMenuStore) Categories(ctx context.Context) ([]string, error) {
	return []string{"برجر", "مشروبات"}, f.err
}

func (f *fakeMenuStore) ItemsByCategory(ctx context.Context, categoryAr string) ([]db.MenuItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []db.MenuItem
	for _, item := range f.items {
		if item.CategoryAr == categoryAr {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeMenuStore) SearchItems(ctx context.Context, term string, limit int) ([]db.MenuItem, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.searchHits, nil
}

func (f *fakeMenuStore) ValidateModifiers(ctx context.Context, itemID int64, modifierIDs []int64) (bool, []string, error) {
	if f.err != nil {
		return false, nil, f.err
	}
	return f.validateOK, f.validateMsg, nil
}

// fakePromos serves promos by upper-cased code.
type fakePromos struct {
	promos map[string]*db.Promo
	err    error
}

var _ PromoReader = (*fakePromos)(nil)

func (f *fakePromos) GetByCode(ctx context.Context, code string) (*db.Promo, error) {
	if f.err != nil {
		return nil, f.err
	}
	promo, ok := f.promos[code]
	if !ok {
		return nil, db.ErrNotFound
	}
	return promo, nil
}

// fakeOrders captures the params CreateOrder was called with.
type fakeOrders struct {
	created []db.CreateOrderParams
	nextID  int64
	err     error
}

var _ OrderWriter = (*fakeOrders)(nil)

func (f *fakeOrders) CreateOrder(ctx context.Context, p db.CreateOrderParams) (*db.OrderReceipt, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, p)
	if f.nextID == 0 {
		f.nextID = 101
	}
	return &db.OrderReceipt{
		OrderID:     f.nextID,
		OrderNumber: db.FormatOrderNumber(f.nextID),
		CreatedAt:   time.Now(),
	}, nil
}

func testRestaurantConfig() *config.RestaurantConfig {
	cfg := &config.RestaurantConfig{}
	cfg.SetDefaults()
	return cfg
}

func testMenuStore() *fakeMenuStore {
	return &fakeMenuStore{
		items: map[int64]db.MenuItem{
			1: {ID: 1, NameAr: "برجر دجاج", NameEn: "Chicken Burger", CategoryAr: "برجر", Price: 25, IsAvailable: true},
			2: {ID: 2, NameAr: "بيبسي", NameEn: "Pepsi", CategoryAr: "مشروبات", Price: 7, IsAvailable: true},
			3: {ID: 3, NameAr: "برجر لحم", NameEn: "Beef Burger", CategoryAr: "برجر", Price: 32, IsAvailable: false},
		},
		details: map[int64]db.ItemDetails{
			1: {
				MenuItem: db.MenuItem{ID: 1, NameAr: "برجر دجاج", CategoryAr: "برجر", Price: 25, IsAvailable: true},
				ModifierGroups: []db.ModifierGroup{
					{
						ID: 10, NameAr: "إضافات", SelectionType: "multiple", MaxSelections: 2,
						Modifiers: []db.Modifier{
							{ID: 100, GroupID: 10, NameAr: "جبنة إضافية", PriceDelta: 3, IsAvailable: true},
							{ID: 101, GroupID: 10, NameAr: "صوص حار", PriceDelta: 1.5, IsAvailable: true},
						},
					},
				},
			},
		},
		validateOK: true,
	}
}

func testCatalog(store *fakeMenuStore) *menu.Catalog {
	return menu.NewCatalog(store, time.Minute)
}

func testSearcher(store *fakeMenuStore) *menu.Searcher {
	cfg := &config.VectorConfig{}
	cfg.SetDefaults()
	return menu.NewSearcher(testCatalog(store), nil, cfg)
}

// decodePayload unpacks a ToolResult's JSON content for assertions.
func decodePayload(t *testing.T, result ToolResult) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(result.Content), &payload))
	return payload
}

func newSession() *session.Session {
	return session.New("sess-test-1")
}

var errBoom = errors.New("boom")
