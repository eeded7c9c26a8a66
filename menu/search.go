package menu

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/vector"
)

// DefaultTopK is how many candidates a menu search returns at most.
const DefaultTopK = 10

// Result is one ranked search hit. Score is zero on the lexical path.
type Result struct {
	Item  db.MenuItem `json:"item"`
	Score float64     `json:"score,omitempty"`
}

// Searcher answers natural-language menu queries. The vector backend is
// consulted first; when it is disabled, fails, or matches nothing, the
// substring search over the database takes over.
type Searcher struct {
	catalog  *Catalog
	provider vector.Provider
	minScore float64
	topK     int
}

// NewSearcher creates a searcher. provider may be nil, in which case every
// query goes straight to the lexical path.
func NewSearcher(catalog *Catalog, provider vector.Provider, cfg *config.VectorConfig) *Searcher {
	s := &Searcher{
		catalog:  catalog,
		provider: provider,
		topK:     DefaultTopK,
	}
	if cfg != nil {
		s.minScore = cfg.MinScore
	}
	return s
}

// Search returns up to limit items matching the query, best first. category
// narrows the lexical path by substring; the vector path leaves category to
// the embedding.
func (s *Searcher) Search(ctx context.Context, query, category string, limit int) ([]Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.topK
	}

	if s.provider != nil {
		results, err := s.vectorSearch(ctx, query, limit)
		if err != nil {
			slog.Warn("vector menu search failed, falling back to lexical",
				"query", query,
				"error", err)
		} else if len(results) > 0 {
			return results, nil
		}
	}

	return s.lexicalSearch(ctx, query, category, limit)
}

func (s *Searcher) vectorSearch(ctx context.Context, query string, limit int) ([]Result, error) {
	embedding, err := s.provider.Embed(ctx, query, vector.InputQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// The metadata filter carries availability only. Category filters need
	// exact values, so category matching is left to the embedding.
	matches, err := s.provider.Search(ctx, embedding, limit, map[string]any{"is_available": true})
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	for _, match := range matches {
		score := float64(match.Score)
		if score < s.minScore {
			continue
		}
		itemID, err := strconv.ParseInt(match.ID, 10, 64)
		if err != nil {
			continue
		}
		item, err := s.catalog.GetItem(ctx, itemID)
		if errors.Is(err, db.ErrNotFound) {
			// The index can lag behind the catalog after a menu change.
			continue
		}
		if err != nil {
			return nil, err
		}
		results = append(results, Result{Item: *item, Score: roundScore(score)})
	}
	return results, nil
}

func (s *Searcher) lexicalSearch(ctx context.Context, query, category string, limit int) ([]Result, error) {
	items, err := s.catalog.SearchItems(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("lexical menu search failed: %w", err)
	}

	results := make([]Result, 0, len(items))
	for _, item := range items {
		if category != "" && !strings.Contains(item.CategoryAr, category) {
			continue
		}
		results = append(results, Result{Item: item})
	}
	return results, nil
}

// roundScore keeps three decimals, enough for the model to rank by.
func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
