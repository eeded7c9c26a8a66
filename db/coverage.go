package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Area is a row from covered_areas: a Riyadh district the restaurant
// delivers to, with the spelling variants customers actually type.
// DeliveryFee and EstimatedMinutes override the restaurant-wide defaults
// when set.
type Area struct {
	ID               int64    `json:"id"`
	NameAr           string   `json:"name_ar"`
	NameEn           string   `json:"name_en,omitempty"`
	City             string   `json:"city"`
	AliasesAr        []string `json:"aliases_ar,omitempty"`
	DeliveryFee      *float64 `json:"delivery_fee,omitempty"`
	EstimatedMinutes *int     `json:"estimated_minutes,omitempty"`
	IsActive         bool     `json:"is_active"`
}

// CoverageStore answers "do we deliver there?".
type CoverageStore struct {
	db *sql.DB
}

const areaColumns = `id, name_ar, name_en, city, aliases_ar, delivery_fee, estimated_minutes, is_active`

func scanArea(row interface{ Scan(...any) error }) (*Area, error) {
	var (
		area    Area
		nameEn  sql.NullString
		fee     sql.NullFloat64
		minutes sql.NullInt64
	)
	err := row.Scan(&area.ID, &area.NameAr, &nameEn, &area.City,
		pq.Array(&area.AliasesAr), &fee, &minutes, &area.IsActive)
	if err != nil {
		return nil, err
	}
	area.NameEn = nameEn.String
	if fee.Valid {
		area.DeliveryFee = &fee.Float64
	}
	if minutes.Valid {
		m := int(minutes.Int64)
		area.EstimatedMinutes = &m
	}
	return &area, nil
}

func (s *CoverageStore) queryAreas(ctx context.Context, query string, args ...any) ([]Area, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query areas: %w", err)
	}
	defer rows.Close()

	var areas []Area
	for rows.Next() {
		area, err := scanArea(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, *area)
	}
	return areas, rows.Err()
}

// AreaByID returns one active area, or ErrNotFound.
func (s *CoverageStore) AreaByID(ctx context.Context, areaID int64) (*Area, error) {
	query := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE id = $1 AND is_active = true`

	area, err := scanArea(s.db.QueryRowContext(ctx, query, areaID))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("area %d: %w", areaID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}
	return area, nil
}

// ActiveAreas returns every active delivery area ordered by Arabic name.
func (s *CoverageStore) ActiveAreas(ctx context.Context) ([]Area, error) {
	query := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE is_active = true
	          ORDER BY name_ar`
	return s.queryAreas(ctx, query)
}

// FindAreaByName resolves a district name: first an exact match on the
// Arabic or English name, then membership in the aliases list. Returns
// ErrNotFound when neither matches.
func (s *CoverageStore) FindAreaByName(ctx context.Context, name string) (*Area, error) {
	exact := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE is_active = true
	            AND (name_ar = $1 OR name_en = $1)`

	area, err := scanArea(s.db.QueryRowContext(ctx, exact, name))
	if err == nil {
		return area, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to find area: %w", err)
	}

	alias := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE is_active = true
	            AND $1 = ANY(aliases_ar)`

	area, err = scanArea(s.db.QueryRowContext(ctx, alias, name))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("area %q: %w", name, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find area by alias: %w", err)
	}
	return area, nil
}

// SearchAreas does a substring match over names and aliases, returning at
// most limit candidates for "did you mean" suggestions.
func (s *CoverageStore) SearchAreas(ctx context.Context, term string, limit int) ([]Area, error) {
	query := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE is_active = true
	            AND (
	              name_ar ILIKE $1
	              OR name_en ILIKE $1
	              OR EXISTS (
	                SELECT 1 FROM unnest(aliases_ar) alias
	                WHERE alias ILIKE $1
	              )
	            )
	          ORDER BY name_ar
	          LIMIT $2`
	return s.queryAreas(ctx, query, "%"+term+"%", limit)
}

// CheckCoverage reports whether the named district is covered. When it is,
// the matched area is returned. When it is not, up to three similarly
// named areas come back as suggestions.
func (s *CoverageStore) CheckCoverage(ctx context.Context, areaName string) (bool, *Area, []Area, error) {
	areaName = strings.TrimSpace(areaName)

	area, err := s.FindAreaByName(ctx, areaName)
	if err == nil {
		return true, area, nil, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return false, nil, nil, err
	}

	suggestions, err := s.SearchAreas(ctx, areaName, 3)
	if err != nil {
		return false, nil, nil, err
	}
	return false, nil, suggestions, nil
}

// AreasByCity returns active areas in one city ordered by Arabic name.
func (s *CoverageStore) AreasByCity(ctx context.Context, city string) ([]Area, error) {
	query := `SELECT ` + areaColumns + `
	          FROM covered_areas
	          WHERE is_active = true AND city = $1
	          ORDER BY name_ar`
	return s.queryAreas(ctx, query, city)
}
