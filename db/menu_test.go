package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckModifierSelections(t *testing.T) {
	sizeGroup := ModifierGroup{
		ID: 1, NameAr: "الحجم", SelectionType: "single",
		MinSelections: 1, MaxSelections: 1, IsRequired: true,
	}
	extrasGroup := ModifierGroup{
		ID: 2, NameAr: "الإضافات", SelectionType: "multiple",
		MinSelections: 0, MaxSelections: 2, IsRequired: false,
	}
	groups := []ModifierGroup{sizeGroup, extrasGroup}

	large := Modifier{ID: 10, GroupID: 1, NameAr: "كبير", IsAvailable: true}
	cheese := Modifier{ID: 20, GroupID: 2, NameAr: "جبنة إضافية", IsAvailable: true}
	sauce := Modifier{ID: 21, GroupID: 2, NameAr: "صوص ثوم", IsAvailable: true}
	mushroom := Modifier{ID: 22, GroupID: 2, NameAr: "فطر", IsAvailable: true}
	foreign := Modifier{ID: 99, GroupID: 7, NameAr: "حار جداً", IsAvailable: true}
	outOfStock := Modifier{ID: 23, GroupID: 2, NameAr: "أفوكادو", IsAvailable: false}

	t.Run("valid selection passes", func(t *testing.T) {
		errs := CheckModifierSelections(groups, []Modifier{large, cheese})
		assert.Empty(t, errs)
	})

	t.Run("no selections fail the required group", func(t *testing.T) {
		errs := CheckModifierSelections(groups, nil)
		assert.Equal(t, []string{"يجب اختيار على الأقل 1 من 'الحجم'"}, errs)
	})

	t.Run("modifier from a foreign group", func(t *testing.T) {
		errs := CheckModifierSelections(groups, []Modifier{large, foreign})
		assert.Contains(t, errs, "المعدل 'حار جداً' غير متاح لهذا الصنف")
	})

	t.Run("unavailable modifier", func(t *testing.T) {
		errs := CheckModifierSelections(groups, []Modifier{large, outOfStock})
		assert.Contains(t, errs, "المعدل 'أفوكادو' غير متوفر حالياً")
	})

	t.Run("too many from one group", func(t *testing.T) {
		errs := CheckModifierSelections(groups, []Modifier{large, cheese, sauce, mushroom})
		assert.Contains(t, errs, "لا يمكن اختيار أكثر من 2 من 'الإضافات'")
	})

	t.Run("optional group can be skipped", func(t *testing.T) {
		errs := CheckModifierSelections(groups, []Modifier{large})
		assert.Empty(t, errs)
	})

	t.Run("multiple violations all reported", func(t *testing.T) {
		// Foreign group, unavailable modifier, missing required size,
		// and four extras against a max of two.
		errs := CheckModifierSelections(groups, []Modifier{foreign, outOfStock, cheese, sauce, mushroom})
		assert.Len(t, errs, 4)
	})
}

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "ORD-000001", FormatOrderNumber(1))
	assert.Equal(t, "ORD-000742", FormatOrderNumber(742))
	assert.Equal(t, "ORD-1234567", FormatOrderNumber(1234567))
}
