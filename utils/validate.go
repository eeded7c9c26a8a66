package utils

import (
	"regexp"
	"strings"
)

// ============================================================================
// CUSTOMER INPUT VALIDATION
// ============================================================================

var (
	phoneSeparators  = regexp.MustCompile(`[\s\-\(\)\.]`)
	saudiMobile      = regexp.MustCompile(`^05\d{8}$`)
	nameLetters      = regexp.MustCompile(`^[\x{0600}-\x{06FF}\x{0750}-\x{077F}a-zA-Z\s]+$`)
	intlPhonePattern = regexp.MustCompile(`(\+?966[0-9]{9})`)
	localPhonePattern = regexp.MustCompile(`(0[0-9]{9})`)
)

// NormalizePhone validates a Saudi mobile number and normalizes it to the
// local 05XXXXXXXX form. Arabic numerals, separators, and the +966/966
// international prefixes are all accepted. The returned error message is
// Arabic and ready to show to the customer.
func NormalizePhone(phone string) (string, bool, string) {
	phone = NormalizeNumerals(phone)
	phone = phoneSeparators.ReplaceAllString(phone, "")

	if strings.HasPrefix(phone, "+966") {
		phone = "0" + phone[4:]
	} else if strings.HasPrefix(phone, "966") {
		phone = "0" + phone[3:]
	}

	if !saudiMobile.MatchString(phone) {
		return "", false, "رقم الجوال غير صحيح. يجب أن يبدأ بـ 05 ويتكون من 10 أرقام"
	}
	return phone, true, ""
}

// ExtractPhone scans free text for a Saudi phone number in any accepted
// format and returns it normalized to 05XXXXXXXX. Returns false when the
// text carries no recognizable number.
func ExtractPhone(text string) (string, bool) {
	normalized := NormalizeNumerals(text)
	normalized = phoneSeparators.ReplaceAllString(normalized, "")

	for _, pattern := range []*regexp.Regexp{intlPhonePattern, localPhonePattern} {
		match := pattern.FindString(normalized)
		if match == "" {
			continue
		}
		if strings.HasPrefix(match, "+966") {
			match = "0" + match[4:]
		} else if strings.HasPrefix(match, "966") {
			match = "0" + match[3:]
		}
		if saudiMobile.MatchString(match) {
			return match, true
		}
	}
	return "", false
}

// ValidateCustomerName checks and cleans a customer name: at least two
// characters, Arabic or Latin letters and spaces only, with runs of
// whitespace collapsed.
func ValidateCustomerName(name string) (string, bool, string) {
	cleaned := strings.Join(strings.Fields(name), " ")
	if len([]rune(cleaned)) < 2 {
		return "", false, "يرجى إدخال اسم صحيح (حرفين على الأقل)"
	}
	if !nameLetters.MatchString(cleaned) {
		return "", false, "الاسم يجب أن يحتوي على حروف فقط"
	}
	return cleaned, true, ""
}

// ValidateQuantity bounds a cart line quantity to [1, 99].
func ValidateQuantity(quantity int) (bool, string) {
	if quantity < 1 {
		return false, "الكمية يجب أن تكون 1 على الأقل"
	}
	if quantity > 99 {
		return false, "الحد الأقصى للكمية هو 99"
	}
	return true, ""
}

// AddressParts holds the cleaned components of a delivery address.
type AddressParts struct {
	Area     string
	Street   string
	Building string
}

// ValidateAddress checks the three address components a delivery order
// needs. Missing fields are returned as Arabic labels ready to embed in a
// follow-up question.
func ValidateAddress(area, street, building string) (AddressParts, []string) {
	var parts AddressParts
	var missing []string

	if len([]rune(strings.TrimSpace(area))) < 2 {
		missing = append(missing, "الحي/المنطقة")
	} else {
		parts.Area = strings.TrimSpace(area)
	}

	if len([]rune(strings.TrimSpace(street))) < 2 {
		missing = append(missing, "الشارع")
	} else {
		parts.Street = strings.TrimSpace(street)
	}

	if strings.TrimSpace(building) == "" {
		missing = append(missing, "رقم المبنى/الفيلا")
	} else {
		parts.Building = NormalizeNumerals(strings.TrimSpace(building))
	}

	return parts, missing
}
