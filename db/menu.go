package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// MenuItem is a row from menu_items. JSON tags mirror the column names so
// tool results can carry items to the model without a translation layer.
type MenuItem struct {
	ID            int64   `json:"id"`
	NameAr        string  `json:"name_ar"`
	NameEn        string  `json:"name_en,omitempty"`
	DescriptionAr string  `json:"description_ar,omitempty"`
	DescriptionEn string  `json:"description_en,omitempty"`
	CategoryAr    string  `json:"category_ar"`
	CategoryEn    string  `json:"category_en,omitempty"`
	Price         float64 `json:"price"`
	ImageURL      string  `json:"image_url,omitempty"`
	IsCombo       bool    `json:"is_combo"`
	IsAvailable   bool    `json:"is_available"`
	PrepMinutes   int     `json:"preparation_time_mins"`
}

// ModifierGroup is a row from modifier_groups, optionally carrying the
// group's available modifiers.
type ModifierGroup struct {
	ID            int64      `json:"id"`
	NameAr        string     `json:"name_ar"`
	NameEn        string     `json:"name_en,omitempty"`
	SelectionType string     `json:"selection_type"`
	MinSelections int        `json:"min_selections"`
	MaxSelections int        `json:"max_selections"`
	IsRequired    bool       `json:"is_required"`
	Modifiers     []Modifier `json:"modifiers,omitempty"`
}

// Modifier is a row from modifiers. GroupNameAr is populated by queries
// that join modifier_groups.
type Modifier struct {
	ID          int64   `json:"id"`
	GroupID     int64   `json:"group_id"`
	NameAr      string  `json:"name_ar"`
	NameEn      string  `json:"name_en,omitempty"`
	PriceDelta  float64 `json:"price_adjustment"`
	IsAvailable bool    `json:"is_available"`
	GroupNameAr string  `json:"group_name_ar,omitempty"`
}

// ItemDetails is a menu item together with its modifier groups, the shape
// the ordering agent presents when a customer asks about an item.
type ItemDetails struct {
	MenuItem
	ModifierGroups []ModifierGroup `json:"modifier_groups"`
}

// MenuStore reads the menu catalog. All queries filter on is_available;
// unavailable items are invisible to the conversation.
type MenuStore struct {
	db *sql.DB
}

const menuItemColumns = `id, name_ar, name_en, description_ar, description_en,
       category_ar, category_en, price, image_url, is_combo,
       is_available, preparation_time_mins`

func scanMenuItem(row interface{ Scan(...any) error }) (*MenuItem, error) {
	var (
		item                                    MenuItem
		nameEn, descAr, descEn, catEn, imageURL sql.NullString
	)
	err := row.Scan(&item.ID, &item.NameAr, &nameEn, &descAr, &descEn,
		&item.CategoryAr, &catEn, &item.Price, &imageURL, &item.IsCombo,
		&item.IsAvailable, &item.PrepMinutes)
	if err != nil {
		return nil, err
	}
	item.NameEn = nameEn.String
	item.DescriptionAr = descAr.String
	item.DescriptionEn = descEn.String
	item.CategoryEn = catEn.String
	item.ImageURL = imageURL.String
	return &item, nil
}

func (s *MenuStore) queryItems(ctx context.Context, query string, args ...any) ([]MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query menu items: %w", err)
	}
	defer rows.Close()

	var items []MenuItem
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan menu item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// GetItem returns one available menu item, or ErrNotFound.
func (s *MenuStore) GetItem(ctx context.Context, itemID int64) (*MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
	          FROM menu_items
	          WHERE id = $1 AND is_available = true`

	item, err := scanMenuItem(s.db.QueryRowContext(ctx, query, itemID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("menu item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get menu item: %w", err)
	}
	return item, nil
}

// GetItemWithModifiers returns an available item plus its modifier groups
// and each group's available modifiers.
func (s *MenuStore) GetItemWithModifiers(ctx context.Context, itemID int64) (*ItemDetails, error) {
	item, err := s.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	groups, err := s.ModifierGroupsForItem(ctx, itemID)
	if err != nil {
		return nil, err
	}

	for i := range groups {
		rows, err := s.db.QueryContext(ctx,
			`SELECT id, name_ar, name_en, price_adjustment, is_available
			 FROM modifiers
			 WHERE group_id = $1 AND is_available = true`, groups[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query modifiers: %w", err)
		}
		for rows.Next() {
			var (
				m      Modifier
				nameEn sql.NullString
			)
			if err := rows.Scan(&m.ID, &m.NameAr, &nameEn, &m.PriceDelta, &m.IsAvailable); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan modifier: %w", err)
			}
			m.NameEn = nameEn.String
			m.GroupID = groups[i].ID
			groups[i].Modifiers = append(groups[i].Modifiers, m)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	return &ItemDetails{MenuItem: *item, ModifierGroups: groups}, nil
}

// ItemsByIDs returns the available items among ids, in no particular order.
func (s *MenuStore) ItemsByIDs(ctx context.Context, ids []int64) ([]MenuItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + menuItemColumns + `
	          FROM menu_items
	          WHERE id = ANY($1) AND is_available = true`
	return s.queryItems(ctx, query, pq.Array(ids))
}

// ItemsByCategory returns all available items in an Arabic category,
// ordered by name.
func (s *MenuStore) ItemsByCategory(ctx context.Context, categoryAr string) ([]MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
	          FROM menu_items
	          WHERE category_ar = $1 AND is_available = true
	          ORDER BY name_ar`
	return s.queryItems(ctx, query, categoryAr)
}

// Categories returns the distinct Arabic category names that have at least
// one available item.
func (s *MenuStore) Categories(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT category_ar
		 FROM menu_items
		 WHERE is_available = true
		 ORDER BY category_ar`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// AvailableItems returns every item currently offered, ordered by id. The
// vector indexer uses this to rebuild the search index.
func (s *MenuStore) AvailableItems(ctx context.Context) ([]MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
	          FROM menu_items
	          WHERE is_available = true
	          ORDER BY id`
	return s.queryItems(ctx, query)
}

// SearchItems does a substring search over Arabic and English names and
// the Arabic description. It backs the lexical fallback when vector search
// is unavailable or returns nothing.
func (s *MenuStore) SearchItems(ctx context.Context, term string, limit int) ([]MenuItem, error) {
	query := `SELECT ` + menuItemColumns + `
	          FROM menu_items
	          WHERE is_available = true
	            AND (name_ar ILIKE $1 OR name_en ILIKE $1 OR description_ar ILIKE $1)
	          LIMIT $2`
	return s.queryItems(ctx, query, "%"+term+"%", limit)
}

// ModifiersByIDs returns modifiers by id joined with their group names,
// including unavailable ones so validation can name them in errors.
func (s *MenuStore) ModifiersByIDs(ctx context.Context, ids []int64) ([]Modifier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.group_id, m.name_ar, m.name_en, m.price_adjustment,
		        m.is_available, mg.name_ar AS group_name_ar
		 FROM modifiers m
		 INNER JOIN modifier_groups mg ON m.group_id = mg.id
		 WHERE m.id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query modifiers: %w", err)
	}
	defer rows.Close()

	var mods []Modifier
	for rows.Next() {
		var (
			m      Modifier
			nameEn sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.GroupID, &m.NameAr, &nameEn,
			&m.PriceDelta, &m.IsAvailable, &m.GroupNameAr); err != nil {
			return nil, fmt.Errorf("failed to scan modifier: %w", err)
		}
		m.NameEn = nameEn.String
		mods = append(mods, m)
	}
	return mods, rows.Err()
}

// ModifierGroupsForItem returns the modifier groups linked to an item,
// without their modifiers.
func (s *MenuStore) ModifierGroupsForItem(ctx context.Context, itemID int64) ([]ModifierGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mg.id, mg.name_ar, mg.name_en, mg.selection_type,
		        mg.min_selections, mg.max_selections, mg.is_required
		 FROM modifier_groups mg
		 INNER JOIN item_modifier_groups img ON mg.id = img.modifier_group_id
		 WHERE img.menu_item_id = $1`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query modifier groups: %w", err)
	}
	defer rows.Close()

	var groups []ModifierGroup
	for rows.Next() {
		var (
			g      ModifierGroup
			nameEn sql.NullString
		)
		if err := rows.Scan(&g.ID, &g.NameAr, &nameEn, &g.SelectionType,
			&g.MinSelections, &g.MaxSelections, &g.IsRequired); err != nil {
			return nil, fmt.Errorf("failed to scan modifier group: %w", err)
		}
		g.NameEn = nameEn.String
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ValidateModifiers checks that the selected modifiers may be applied to
// the item: each must belong to one of the item's groups and be available,
// and per-group selection counts must respect min/max. The returned
// messages are customer-facing Arabic.
func (s *MenuStore) ValidateModifiers(ctx context.Context, itemID int64, modifierIDs []int64) (bool, []string, error) {
	if len(modifierIDs) == 0 {
		return true, nil, nil
	}

	groups, err := s.ModifierGroupsForItem(ctx, itemID)
	if err != nil {
		return false, nil, err
	}
	mods, err := s.ModifiersByIDs(ctx, modifierIDs)
	if err != nil {
		return false, nil, err
	}

	errs := CheckModifierSelections(groups, mods)
	return len(errs) == 0, errs, nil
}

// CheckModifierSelections applies the modifier selection rules to already
// loaded rows. Split out from ValidateModifiers so the cached catalog can
// reuse it and tests need no database.
func CheckModifierSelections(groups []ModifierGroup, mods []Modifier) []string {
	var errs []string

	validGroups := make(map[int64]bool, len(groups))
	for _, g := range groups {
		validGroups[g.ID] = true
	}

	for _, m := range mods {
		if !validGroups[m.GroupID] {
			errs = append(errs, fmt.Sprintf("المعدل '%s' غير متاح لهذا الصنف", m.NameAr))
		}
		if !m.IsAvailable {
			errs = append(errs, fmt.Sprintf("المعدل '%s' غير متوفر حالياً", m.NameAr))
		}
	}

	selected := make(map[int64]int)
	for _, m := range mods {
		selected[m.GroupID]++
	}

	for _, g := range groups {
		count := selected[g.ID]
		if g.IsRequired && count < g.MinSelections {
			errs = append(errs, fmt.Sprintf("يجب اختيار على الأقل %d من '%s'", g.MinSelections, g.NameAr))
		}
		if count > g.MaxSelections {
			errs = append(errs, fmt.Sprintf("لا يمكن اختيار أكثر من %d من '%s'", g.MaxSelections, g.NameAr))
		}
	}

	return errs
}
