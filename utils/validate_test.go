package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ============================================================================
// UNIT TESTS - Phone, name, quantity, and address validation
// ============================================================================

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantPhone string
		wantValid bool
	}{
		{"Local format", "0555000000", "0555000000", true},
		{"Arabic numerals", "٠٥٥٥٠٠٠٠٠٠", "0555000000", true},
		{"International plus", "+966555000000", "0555000000", true},
		{"International bare", "966555000000", "0555000000", true},
		{"With separators", "055 500-0000", "0555000000", true},
		{"Too short", "055500", "", false},
		{"Wrong prefix", "0655000000", "", false},
		{"Landline", "0112345678", "", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			phone, valid, errMsg := NormalizePhone(tt.input)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantPhone, phone)
			if !tt.wantValid {
				assert.NotEmpty(t, errMsg)
			}
		})
	}
}

func TestExtractPhone(t *testing.T) {
	t.Run("Embedded in text", func(t *testing.T) {
		phone, ok := ExtractPhone("رقمي هو ٠٥٥١٢٣٤٥٦٧ تواصلوا معي")
		assert.True(t, ok)
		assert.Equal(t, "0551234567", phone)
	})

	t.Run("International embedded", func(t *testing.T) {
		phone, ok := ExtractPhone("call +966551234567 please")
		assert.True(t, ok)
		assert.Equal(t, "0551234567", phone)
	})

	t.Run("No phone", func(t *testing.T) {
		_, ok := ExtractPhone("ابي اطلب برجر")
		assert.False(t, ok)
	})
}

func TestValidateCustomerName(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantName  string
		wantValid bool
	}{
		{"Arabic name", "محمد العتيبي", "محمد العتيبي", true},
		{"English name", "John Smith", "John Smith", true},
		{"Extra spaces collapsed", "  محمد   العتيبي  ", "محمد العتيبي", true},
		{"Single char", "م", "", false},
		{"Digits rejected", "محمد 123", "", false},
		{"Symbols rejected", "@user!", "", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleaned, valid, errMsg := ValidateCustomerName(tt.input)
			assert.Equal(t, tt.wantValid, valid)
			assert.Equal(t, tt.wantName, cleaned)
			if !tt.wantValid {
				assert.NotEmpty(t, errMsg)
			}
		})
	}
}

func TestValidateQuantity(t *testing.T) {
	for _, q := range []int{1, 2, 50, 99} {
		valid, _ := ValidateQuantity(q)
		assert.True(t, valid, "quantity %d should be accepted", q)
	}
	for _, q := range []int{0, -1, 100, 500} {
		valid, errMsg := ValidateQuantity(q)
		assert.False(t, valid, "quantity %d should be rejected", q)
		assert.NotEmpty(t, errMsg)
	}
}

func TestValidateAddress(t *testing.T) {
	t.Run("Complete address", func(t *testing.T) {
		parts, missing := ValidateAddress("النرجس", "شارع التخصصي", "١٢")
		assert.Empty(t, missing)
		assert.Equal(t, "النرجس", parts.Area)
		assert.Equal(t, "شارع التخصصي", parts.Street)
		assert.Equal(t, "12", parts.Building, "building number should be normalized")
	})

	t.Run("Missing fields reported in Arabic", func(t *testing.T) {
		_, missing := ValidateAddress("", "شارع التخصصي", "")
		assert.Len(t, missing, 2)
		assert.Contains(t, missing, "الحي/المنطقة")
		assert.Contains(t, missing, "رقم المبنى/الفيلا")
	})
}
