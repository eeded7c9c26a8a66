package menu

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/vector"
)

const (
	// indexChunkSize is how many items one worker embeds and upserts.
	indexChunkSize = 50
	// indexWorkers bounds concurrent embedding requests.
	indexWorkers = 4
)

// ItemSource lists the items the indexer pushes into the vector index.
type ItemSource interface {
	AvailableItems(ctx context.Context) ([]db.MenuItem, error)
}

// IndexReport summarizes one reindex run.
type IndexReport struct {
	TotalItems int `json:"total_items"`
	Indexed    int `json:"indexed_count"`
}

// Indexer rebuilds the vector index from the menu catalog.
type Indexer struct {
	source   ItemSource
	provider vector.Provider
}

// NewIndexer creates an indexer over the given item source and vector
// provider.
func NewIndexer(source ItemSource, provider vector.Provider) *Indexer {
	return &Indexer{source: source, provider: provider}
}

// ReindexAll embeds every available menu item and upserts it into the
// vector index. Items are processed in chunks by a bounded worker group;
// the first failing chunk aborts the run.
func (x *Indexer) ReindexAll(ctx context.Context) (*IndexReport, error) {
	items, err := x.source.AvailableItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load menu items: %w", err)
	}
	if len(items) == 0 {
		return &IndexReport{}, nil
	}

	docs := make([]vector.Document, len(items))
	for i, item := range items {
		docs[i] = BuildDocument(item)
	}

	var indexed atomic.Int64
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(indexWorkers)

	for start := 0; start < len(docs); start += indexChunkSize {
		end := start + indexChunkSize
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[start:end]
		group.Go(func() error {
			n, err := x.provider.Upsert(ctx, chunk)
			if err != nil {
				return err
			}
			indexed.Add(int64(n))
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("failed to index menu items: %w", err)
	}

	report := &IndexReport{TotalItems: len(items), Indexed: int(indexed.Load())}
	slog.Info("menu reindex complete",
		"total_items", report.TotalItems,
		"indexed", report.Indexed)
	return report, nil
}

// BuildDocument converts a menu item into the document the vector index
// stores. The id is the decimal item id; search resolves it back through
// the catalog.
func BuildDocument(item db.MenuItem) vector.Document {
	return vector.Document{
		ID:   strconv.FormatInt(item.ID, 10),
		Text: PrepareItemText(item),
		Metadata: map[string]any{
			"name_ar":        item.NameAr,
			"description_ar": item.DescriptionAr,
			"category_ar":    item.CategoryAr,
			"price":          item.Price,
			"is_combo":       item.IsCombo,
			"is_available":   item.IsAvailable,
		},
	}
}

// PrepareItemText builds the passage embedded for one menu item: the
// Arabic name and description, a labeled category, and a combo marker.
func PrepareItemText(item db.MenuItem) string {
	parts := make([]string, 0, 4)
	if item.NameAr != "" {
		parts = append(parts, item.NameAr)
	}
	if item.DescriptionAr != "" {
		parts = append(parts, item.DescriptionAr)
	}
	if item.CategoryAr != "" {
		parts = append(parts, "فئة: "+item.CategoryAr)
	}
	if item.IsCombo {
		parts = append(parts, "كومبو")
	}
	return strings.Join(parts, " ")
}
