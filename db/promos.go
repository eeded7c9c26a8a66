package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Discount types on promo_codes.discount_type.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Promo is a row from promo_codes. Pointer fields are nullable columns:
// nil means the constraint does not apply.
type Promo struct {
	ID             int64      `json:"id"`
	Code           string     `json:"code"`
	DiscountType   string     `json:"discount_type"`
	DiscountValue  float64    `json:"discount_value"`
	MinOrderAmount float64    `json:"min_order_amount"`
	MaxDiscount    *float64   `json:"max_discount,omitempty"`
	UsageLimit     *int       `json:"usage_limit,omitempty"`
	UsageCount     int        `json:"usage_count"`
	ValidFrom      *time.Time `json:"valid_from,omitempty"`
	ValidUntil     *time.Time `json:"valid_until,omitempty"`
	IsActive       bool       `json:"is_active"`
}

// PromoStore reads and updates promo codes.
type PromoStore struct {
	db *sql.DB
}

const promoColumns = `id, code, discount_type, discount_value, min_order_amount,
       max_discount, usage_limit, usage_count, valid_from,
       valid_until, is_active`

func scanPromo(row interface{ Scan(...any) error }) (*Promo, error) {
	var (
		p           Promo
		maxDiscount sql.NullFloat64
		usageLimit  sql.NullInt64
		validFrom   sql.NullTime
		validUntil  sql.NullTime
	)
	err := row.Scan(&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue,
		&p.MinOrderAmount, &maxDiscount, &usageLimit, &p.UsageCount,
		&validFrom, &validUntil, &p.IsActive)
	if err != nil {
		return nil, err
	}
	if maxDiscount.Valid {
		p.MaxDiscount = &maxDiscount.Float64
	}
	if usageLimit.Valid {
		limit := int(usageLimit.Int64)
		p.UsageLimit = &limit
	}
	if validFrom.Valid {
		p.ValidFrom = &validFrom.Time
	}
	if validUntil.Valid {
		p.ValidUntil = &validUntil.Time
	}
	return &p, nil
}

// GetByCode looks a promo up case-insensitively, or returns ErrNotFound.
func (s *PromoStore) GetByCode(ctx context.Context, code string) (*Promo, error) {
	query := `SELECT ` + promoColumns + `
	          FROM promo_codes
	          WHERE UPPER(code) = UPPER($1)`

	promo, err := scanPromo(s.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("promo %q: %w", code, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promo: %w", err)
	}
	return promo, nil
}

// ActivePromos returns the promos currently redeemable, biggest discount
// first.
func (s *PromoStore) ActivePromos(ctx context.Context, now time.Time) ([]Promo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+promoColumns+`
		 FROM promo_codes
		 WHERE is_active = true
		   AND (valid_from IS NULL OR valid_from <= $1)
		   AND (valid_until IS NULL OR valid_until >= $1)
		   AND (usage_limit IS NULL OR usage_count < usage_limit)
		 ORDER BY discount_value DESC`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query promos: %w", err)
	}
	defer rows.Close()

	var promos []Promo
	for rows.Next() {
		promo, err := scanPromo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan promo: %w", err)
		}
		promos = append(promos, *promo)
	}
	return promos, rows.Err()
}

// IncrementUsage bumps usage_count within the order transaction so a
// confirmed order and its promo redemption commit or roll back together.
func (s *PromoStore) IncrementUsage(ctx context.Context, tx *sql.Tx, promoID int64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE promo_codes
		 SET usage_count = usage_count + 1
		 WHERE id = $1 AND is_active = true`, promoID)
	if err != nil {
		return fmt.Errorf("failed to increment promo usage: %w", err)
	}
	return nil
}

// EvaluatePromo applies the redemption rules to an already loaded promo.
// It returns the discount amount and a customer-facing Arabic message;
// ok is false when the code cannot be applied. A nil promo means the code
// does not exist. Checks run in a fixed order so the customer always hears
// the most specific objection.
func EvaluatePromo(p *Promo, subtotal float64, now time.Time) (discount float64, ok bool, messageAr string) {
	if p == nil {
		return 0, false, "كود الخصم غير صحيح"
	}
	if !p.IsActive {
		return 0, false, "كود الخصم غير فعال"
	}
	if p.UsageLimit != nil && *p.UsageLimit > 0 && p.UsageCount >= *p.UsageLimit {
		return 0, false, "تم استنفاد عدد استخدامات هذا الكود"
	}
	if p.ValidFrom != nil && now.Before(*p.ValidFrom) {
		return 0, false, "كود الخصم لم يبدأ بعد"
	}
	if p.ValidUntil != nil && now.After(*p.ValidUntil) {
		return 0, false, "انتهت صلاحية كود الخصم"
	}
	if subtotal < p.MinOrderAmount {
		return 0, false, fmt.Sprintf("الحد الأدنى للطلب %s ريال", FormatAmount(p.MinOrderAmount))
	}

	if p.DiscountType == DiscountPercentage {
		discount = subtotal * p.DiscountValue / 100
		if p.MaxDiscount != nil && *p.MaxDiscount > 0 && discount > *p.MaxDiscount {
			discount = *p.MaxDiscount
		}
	} else {
		discount = p.DiscountValue
	}

	// A discount can never exceed what the customer is paying for.
	if discount > subtotal {
		discount = subtotal
	}

	return discount, true, fmt.Sprintf("تم تطبيق خصم %s ريال", FormatAmount(discount))
}

// FormatAmount renders a riyal amount without trailing zeros: 15 not
// 15.00, but 7.5 stays 7.5.
func FormatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
