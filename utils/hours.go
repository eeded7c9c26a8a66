package utils

import (
	"fmt"
	"time"
)

// ============================================================================
// RESTAURANT HOURS
// ============================================================================

// Hours describes a restaurant's daily operating window in a fixed timezone.
// Closing may be numerically smaller than opening, which means the window
// wraps past midnight (open 9 AM, close 3 AM the next day).
type Hours struct {
	Opening  int
	Closing  int
	Location *time.Location
}

// NewHours builds an Hours gate for the given opening/closing hours and IANA
// timezone name. An unknown timezone falls back to UTC rather than failing,
// so a misconfigured deployment degrades instead of crashing.
func NewHours(opening, closing int, timezone string) Hours {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	return Hours{Opening: opening, Closing: closing, Location: loc}
}

// Now returns the current time in the restaurant's timezone.
func (h Hours) Now() time.Time {
	return time.Now().In(h.Location)
}

// OpenAt reports whether the restaurant is open at the given instant.
func (h Hours) OpenAt(t time.Time) bool {
	hour := t.In(h.Location).Hour()
	if h.Closing < h.Opening {
		// Window wraps past midnight: open from opening..23 and 0..closing-1.
		return hour >= h.Opening || hour < h.Closing
	}
	return hour >= h.Opening && hour < h.Closing
}

// IsOpen reports whether the restaurant is open right now.
func (h Hours) IsOpen() bool {
	return h.OpenAt(h.Now())
}

// NextOpening returns the next time the restaurant opens at or after t.
func (h Hours) NextOpening(t time.Time) time.Time {
	t = t.In(h.Location)
	opening := time.Date(t.Year(), t.Month(), t.Day(), h.Opening, 0, 0, 0, h.Location)
	if t.Hour() < h.Opening {
		return opening
	}
	return opening.AddDate(0, 0, 1)
}

// NextClosing returns the closing time of the current or upcoming window.
func (h Hours) NextClosing(t time.Time) time.Time {
	t = t.In(h.Location)
	closing := time.Date(t.Year(), t.Month(), t.Day(), h.Closing, 0, 0, 0, h.Location)
	if h.Closing < h.Opening && t.Hour() >= h.Opening {
		// Past-midnight window: tonight's closing lands tomorrow.
		return closing.AddDate(0, 0, 1)
	}
	return closing
}

// StatusMessageAr returns a customer-facing Arabic line describing whether
// the restaurant is open and until/from when.
func (h Hours) StatusMessageAr(t time.Time) string {
	if h.OpenAt(t) {
		return fmt.Sprintf("المطعم مفتوح حتى %s", FormatTimeAr(h.NextClosing(t)))
	}
	return fmt.Sprintf("المطعم مغلق حالياً. يفتح الساعة %s", FormatTimeAr(h.NextOpening(t)))
}

// ClosedMessageAr is the canned reply sent when a customer tries to order
// outside operating hours.
func (h Hours) ClosedMessageAr(t time.Time) string {
	return fmt.Sprintf(
		"عذراً، المطعم مغلق حالياً 🕒\nساعات العمل: من %s حتى %s\nنتشرف بخدمتك وقت الدوام! 🌹",
		FormatHourArabic(h.Opening), FormatHourArabic(h.Closing),
	)
}

// FormatTimeAr renders a time in the 12-hour Arabic style customers expect,
// for example "9 صباحاً" or "3:30 مساءً".
func FormatTimeAr(t time.Time) string {
	hour, minute := t.Hour(), t.Minute()
	display, period := hour12(hour)
	if minute == 0 {
		return fmt.Sprintf("%d %s", display, period)
	}
	return fmt.Sprintf("%d:%02d %s", display, minute, period)
}

// FormatHourArabic renders a whole hour (0-23) in the 12-hour Arabic style.
func FormatHourArabic(hour int) string {
	display, period := hour12(hour)
	return fmt.Sprintf("%d %s", display, period)
}

func hour12(hour int) (int, string) {
	switch {
	case hour == 0:
		return 12, "صباحاً"
	case hour < 12:
		return hour, "صباحاً"
	case hour == 12:
		return 12, "مساءً"
	default:
		return hour - 12, "مساءً"
	}
}
