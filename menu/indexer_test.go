package menu

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
)

type fakeItemSource struct {
	items []db.MenuItem
	err   error
}

func (f *fakeItemSource) AvailableItems(ctx context.Context) ([]db.MenuItem, error) {
	return f.items, f.err
}

func TestPrepareItemText(t *testing.T) {
	t.Run("full item", func(t *testing.T) {
		item := db.MenuItem{
			NameAr:        "وجبة برجر دجاج",
			DescriptionAr: "برجر دجاج مقرمش مع بطاطس ومشروب",
			CategoryAr:    "الوجبات",
			IsCombo:       true,
		}
		text := PrepareItemText(item)
		assert.Equal(t, "وجبة برجر دجاج برجر دجاج مقرمش مع بطاطس ومشروب فئة: الوجبات كومبو", text)
	})

	t.Run("name only", func(t *testing.T) {
		item := db.MenuItem{NameAr: "بيبسي"}
		assert.Equal(t, "بيبسي", PrepareItemText(item))
	})

	t.Run("no combo marker for single items", func(t *testing.T) {
		item := db.MenuItem{NameAr: "بيبسي", CategoryAr: "المشروبات"}
		assert.Equal(t, "بيبسي فئة: المشروبات", PrepareItemText(item))
	})
}

func TestBuildDocument(t *testing.T) {
	item := db.MenuItem{
		ID:            42,
		NameAr:        "برجر لحم",
		DescriptionAr: "لحم طازج",
		CategoryAr:    "برجر",
		Price:         32.5,
		IsCombo:       false,
		IsAvailable:   true,
	}

	doc := BuildDocument(item)

	assert.Equal(t, "42", doc.ID)
	assert.Equal(t, "برجر لحم لحم طازج فئة: برجر", doc.Text)
	assert.Equal(t, map[string]any{
		"name_ar":        "برجر لحم",
		"description_ar": "لحم طازج",
		"category_ar":    "برجر",
		"price":          32.5,
		"is_combo":       false,
		"is_available":   true,
	}, doc.Metadata)
}

func TestIndexer_ReindexAll(t *testing.T) {
	items := make([]db.MenuItem, 120)
	for i := range items {
		items[i] = db.MenuItem{ID: int64(i + 1), NameAr: "صنف", IsAvailable: true}
	}
	source := &fakeItemSource{items: items}
	provider := &fakeProvider{}

	report, err := NewIndexer(source, provider).ReindexAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, report.TotalItems)
	assert.Equal(t, 120, report.Indexed)

	// 120 items split into chunks of 50.
	require.Len(t, provider.upserted, 3)
	total := 0
	for _, chunk := range provider.upserted {
		total += len(chunk)
	}
	assert.Equal(t, 120, total)
}

func TestIndexer_ReindexAllEmptyCatalog(t *testing.T) {
	source := &fakeItemSource{}
	provider := &fakeProvider{}

	report, err := NewIndexer(source, provider).ReindexAll(context.Background())
	require.NoError(t, err)

	assert.Zero(t, report.TotalItems)
	assert.Zero(t, report.Indexed)
	assert.Empty(t, provider.upserted)
}

func TestIndexer_ReindexAllPropagatesUpsertError(t *testing.T) {
	source := &fakeItemSource{items: []db.MenuItem{{ID: 1, NameAr: "صنف"}}}
	provider := &fakeProvider{upsertErr: errors.New("quota exceeded")}

	_, err := NewIndexer(source, provider).ReindexAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to index menu items")
}

func TestIndexer_ReindexAllPropagatesSourceError(t *testing.T) {
	source := &fakeItemSource{err: errors.New("connection refused")}

	_, err := NewIndexer(source, &fakeProvider{}).ReindexAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load menu items")
}
