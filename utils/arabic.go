package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// ============================================================================
// NUMERAL NORMALIZATION
// ============================================================================

// arabicIndicDigits maps Arabic-Indic numerals (U+0660-U+0669) and the
// extended Arabic-Indic numerals used in Persian/Urdu text (U+06F0-U+06F9)
// to Western digits. Both families show up in Saudi customer messages.
var arabicIndicDigits = map[rune]rune{
	'٠': '0', '١': '1', '٢': '2', '٣': '3', '٤': '4',
	'٥': '5', '٦': '6', '٧': '7', '٨': '8', '٩': '9',
	'۰': '0', '۱': '1', '۲': '2', '۳': '3', '۴': '4',
	'۵': '5', '۶': '6', '۷': '7', '۸': '8', '۹': '9',
}

// NormalizeNumerals converts Arabic-Indic and extended Arabic-Indic numerals
// to Western digits. Text without Arabic numerals passes through unchanged,
// so the function is safe to apply repeatedly.
func NormalizeNumerals(text string) string {
	return strings.Map(func(r rune) rune {
		if western, ok := arabicIndicDigits[r]; ok {
			return western
		}
		return r
	}, text)
}

// ExtractQuantity pulls the first number out of free text, accepting Arabic
// or Western numerals. Returns false when the text carries no digits.
func ExtractQuantity(text string) (int, bool) {
	normalized := NormalizeNumerals(text)
	match := digitRunPattern.FindString(normalized)
	if match == "" {
		return 0, false
	}
	n := 0
	for _, r := range match {
		n = n*10 + int(r-'0')
		if n > 9999 {
			return 0, false
		}
	}
	return n, true
}

var digitRunPattern = regexp.MustCompile(`\d+`)

// ============================================================================
// ARABIC TEXT CLEANING
// ============================================================================

var (
	diacriticsPattern = regexp.MustCompile(`[\x{064B}-\x{065F}\x{0670}]`)
	alefPattern       = regexp.MustCompile(`[أإآا]`)
)

// CleanArabicText normalizes Arabic text for matching: strips diacritics
// (tashkeel) and tatweel, unifies alef variants to plain alef, converts teh
// marbuta to heh, and collapses whitespace.
func CleanArabicText(text string) string {
	if text == "" {
		return ""
	}
	text = diacriticsPattern.ReplaceAllString(text, "")
	text = alefPattern.ReplaceAllString(text, "ا")
	text = strings.ReplaceAll(text, "ة", "ه")
	text = strings.ReplaceAll(text, "ـ", "")
	return strings.Join(strings.Fields(text), " ")
}

// areaPrefixes are generic location words customers prepend to neighborhood
// names ("حي النرجس" for the النرجس district). They are dropped before
// coverage matching so both forms resolve to the same area.
var areaPrefixes = []string{"حي ", "منطقة ", "شارع ", "طريق "}

// NormalizeAreaName prepares an area or neighborhood name for coverage
// lookups: cleans the Arabic text and removes leading location words.
func NormalizeAreaName(name string) string {
	name = CleanArabicText(name)
	for _, prefix := range areaPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = strings.TrimPrefix(name, prefix)
			break
		}
	}
	return strings.TrimSpace(name)
}

// ============================================================================
// ARABIC FORMATTING
// ============================================================================

// FormatPriceAr renders an amount in riyals the way receipts print it.
func FormatPriceAr(amount float64) string {
	return fmt.Sprintf("%.2f ريال", amount)
}

// affirmativeWords covers the common Saudi-dialect ways of saying yes.
var affirmativeWords = []string{
	"نعم", "ايه", "اي", "صح", "تمام", "اوكي", "اوك", "ok", "yes",
	"يب", "اكيد", "طبعا", "بالتأكيد", "موافق",
}

// negativeWords covers the common Saudi-dialect ways of saying no or
// backing out.
var negativeWords = []string{
	"لا", "لأ", "مو", "ما ابي", "ما اريد", "no", "كنسل", "الغي", "الغاء",
}

// IsAffirmativeAr reports whether the text reads as a yes.
func IsAffirmativeAr(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range affirmativeWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// IsNegativeAr reports whether the text reads as a no or a cancellation.
func IsNegativeAr(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, word := range negativeWords {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// cancelWords are explicit order-abort commands. Plain refusals like "لا"
// stay out of this list: a "no" answer inside a flow is not a cancellation.
var cancelWords = []string{
	"كنسل", "كانسل", "الغي", "الغاء", "الغى", "بطل الطلب", "وقف الطلب", "cancel",
}

// IsCancellationAr reports whether the text is an explicit request to abort
// the whole order, as opposed to a negative answer to a question.
func IsCancellationAr(text string) bool {
	cleaned := strings.ToLower(CleanArabicText(text))
	for _, word := range cancelWords {
		if strings.Contains(cleaned, word) {
			return true
		}
	}
	return false
}
