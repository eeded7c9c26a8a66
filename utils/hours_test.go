package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// UNIT TESTS - Restaurant hours gate (cross-midnight window)
// ============================================================================

func riyadhHours(t *testing.T) Hours {
	t.Helper()
	return NewHours(9, 3, "Asia/Riyadh")
}

func at(t *testing.T, h Hours, hour, minute int) time.Time {
	t.Helper()
	return time.Date(2025, 6, 15, hour, minute, 0, 0, h.Location)
}

func TestHours_OpenAt_CrossMidnight(t *testing.T) {
	h := riyadhHours(t)

	tests := []struct {
		name   string
		hour   int
		minute int
		open   bool
	}{
		{"Opening moment", 9, 0, true},
		{"Midday", 14, 0, true},
		{"Just before midnight", 23, 59, true},
		{"Midnight", 0, 0, true},
		{"Late night", 2, 59, true},
		{"Closing moment", 3, 0, false},
		{"Early morning", 5, 0, false},
		{"Just before opening", 8, 59, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.open, h.OpenAt(at(t, h, tt.hour, tt.minute)))
		})
	}
}

func TestHours_SameDayWindow(t *testing.T) {
	h := NewHours(9, 23, "Asia/Riyadh")

	assert.True(t, h.OpenAt(at(t, h, 9, 0)))
	assert.True(t, h.OpenAt(at(t, h, 22, 59)))
	assert.False(t, h.OpenAt(at(t, h, 23, 0)))
	assert.False(t, h.OpenAt(at(t, h, 2, 0)))
}

func TestHours_NextOpening(t *testing.T) {
	h := riyadhHours(t)

	t.Run("Before opening same day", func(t *testing.T) {
		next := h.NextOpening(at(t, h, 5, 0))
		assert.Equal(t, 9, next.Hour())
		assert.Equal(t, 15, next.Day())
	})

	t.Run("After opening rolls to next day", func(t *testing.T) {
		next := h.NextOpening(at(t, h, 14, 0))
		assert.Equal(t, 9, next.Hour())
		assert.Equal(t, 16, next.Day())
	})
}

func TestHours_NextClosing(t *testing.T) {
	h := riyadhHours(t)

	t.Run("Evening closes tomorrow", func(t *testing.T) {
		closing := h.NextClosing(at(t, h, 22, 0))
		assert.Equal(t, 3, closing.Hour())
		assert.Equal(t, 16, closing.Day())
	})

	t.Run("Past midnight closes today", func(t *testing.T) {
		closing := h.NextClosing(at(t, h, 1, 0))
		assert.Equal(t, 3, closing.Hour())
		assert.Equal(t, 15, closing.Day())
	})
}

func TestHours_Messages(t *testing.T) {
	h := riyadhHours(t)

	t.Run("Closed message names opening hour", func(t *testing.T) {
		msg := h.ClosedMessageAr(at(t, h, 5, 0))
		assert.Contains(t, msg, "9 صباحاً")
		assert.Contains(t, msg, "مغلق")
	})

	t.Run("Open status names closing time", func(t *testing.T) {
		msg := h.StatusMessageAr(at(t, h, 14, 0))
		assert.Contains(t, msg, "مفتوح")
		assert.Contains(t, msg, "3 صباحاً")
	})

	t.Run("Closed status names opening time", func(t *testing.T) {
		msg := h.StatusMessageAr(at(t, h, 5, 0))
		assert.Contains(t, msg, "مغلق")
		assert.Contains(t, msg, "9 صباحاً")
	})
}

func TestFormatHourArabic(t *testing.T) {
	assert.Equal(t, "9 صباحاً", FormatHourArabic(9))
	assert.Equal(t, "3 صباحاً", FormatHourArabic(3))
	assert.Equal(t, "12 مساءً", FormatHourArabic(12))
	assert.Equal(t, "11 مساءً", FormatHourArabic(23))
	assert.Equal(t, "12 صباحاً", FormatHourArabic(0))
}

func TestNewHours_BadTimezoneFallsBack(t *testing.T) {
	h := NewHours(9, 3, "Not/AZone")
	assert.Equal(t, time.UTC, h.Location)
}
