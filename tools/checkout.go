package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// ============================================================================
// CHECKOUT TOOLS
// ============================================================================

// PromoReader loads promo codes for evaluation at checkout. db.PromoStore
// satisfies it.
type PromoReader interface {
	GetByCode(ctx context.Context, code string) (*db.Promo, error)
}

// OrderWriter persists confirmed orders. db.OrderStore satisfies it.
type OrderWriter interface {
	CreateOrder(ctx context.Context, p db.CreateOrderParams) (*db.OrderReceipt, error)
}

// ----------------------------------------------------------------------------
// calculate_total
// ----------------------------------------------------------------------------

// CalculateTotalTool prices the cart and evaluates a promo code. The
// delivery fee is taken as passed: pickup flows pass zero.
type CalculateTotalTool struct {
	promos PromoReader
}

// NewCalculateTotalTool creates the totals tool.
func NewCalculateTotalTool(promos PromoReader) *CalculateTotalTool {
	return &CalculateTotalTool{promos: promos}
}

// GetInfo returns tool metadata.
func (t *CalculateTotalTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "calculate_total",
		Description: "حساب إجمالي الطلب مع رسوم التوصيل وكود الخصم إن وجد.",
		Parameters: []ToolParameter{
			{
				Name:        "delivery_fee",
				Type:        "number",
				Description: "رسوم التوصيل بالريال، صفر للاستلام من الفرع",
				Required:    true,
			},
			{
				Name:        "promo_code",
				Type:        "string",
				Description: "كود الخصم إذا أعطاك العميل واحد",
				Required:    false,
			},
		},
		Agents: []string{AgentCheckout},
	}
}

type calculateTotalArgs struct {
	DeliveryFee float64 `json:"delivery_fee"`
	PromoCode   string  `json:"promo_code"`
}

// Execute totals the cart. A promo code given here replaces whatever promo
// the session carried; with no code the session's applied promo is
// re-evaluated against the current subtotal, so cart edits after applying a
// code keep the discount honest.
func (t *CalculateTotalTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "calculate_total"

	var in calculateTotalArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}
	if len(sess.Cart) == 0 {
		return rejectResult(name, "السلة فارغة"), nil
	}

	subtotal := sess.Subtotal()
	fee := in.DeliveryFee
	if fee < 0 {
		fee = 0
	}

	code := strings.ToUpper(strings.TrimSpace(in.PromoCode))
	if code == "" {
		code = sess.PromoCode
	}

	var (
		discount float64
		applied  bool
		promoMsg string
	)
	if code != "" {
		promo, err := t.promos.GetByCode(ctx, code)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return failResult(name, err)
		}
		discount, applied, promoMsg = db.EvaluatePromo(promo, subtotal, time.Now())
		if applied {
			sess.PromoCode = promo.Code
			sess.Discount = discount
		} else {
			sess.PromoCode = ""
			sess.Discount = 0
		}
	}

	total := subtotal + fee - discount

	lines := []string{fmt.Sprintf("المجموع الفرعي: %s ريال", db.FormatAmount(subtotal))}
	if fee > 0 {
		lines = append(lines, fmt.Sprintf("رسوم التوصيل: %s ريال", db.FormatAmount(fee)))
	}
	if discount > 0 {
		lines = append(lines, fmt.Sprintf("الخصم: -%s ريال", db.FormatAmount(discount)))
	}
	lines = append(lines, fmt.Sprintf("الإجمالي: %s ريال", db.FormatAmount(total)))
	if promoMsg != "" {
		lines = append(lines, "\n"+promoMsg)
	}

	payload := map[string]interface{}{
		"success":       true,
		"subtotal":      subtotal,
		"delivery_fee":  fee,
		"discount":      discount,
		"total":         total,
		"breakdown_ar":  strings.Join(lines, "\n"),
		"promo_applied": applied,
	}
	if code != "" {
		payload["promo_code"] = code
		payload["promo_message_ar"] = promoMsg
	}
	return okResult(name, payload), nil
}

// ----------------------------------------------------------------------------
// confirm_order
// ----------------------------------------------------------------------------

// ConfirmOrderTool validates the customer details and writes the order.
// The write is a single transaction; on failure the cart and session are
// left untouched so the customer can retry.
type ConfirmOrderTool struct {
	promos PromoReader
	orders OrderWriter
}

// NewConfirmOrderTool creates the order confirmation tool.
func NewConfirmOrderTool(promos PromoReader, orders OrderWriter) *ConfirmOrderTool {
	return &ConfirmOrderTool{promos: promos, orders: orders}
}

// GetInfo returns tool metadata.
func (t *ConfirmOrderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "confirm_order",
		Description: "تأكيد الطلب النهائي وإنشاؤه. لازم تجمع الاسم ورقم الجوال قبل.",
		Parameters: []ToolParameter{
			{
				Name:        "customer_name",
				Type:        "string",
				Description: "اسم العميل",
				Required:    true,
			},
			{
				Name:        "customer_phone",
				Type:        "string",
				Description: "رقم جوال العميل",
				Required:    true,
			},
			{
				Name:        "district",
				Type:        "string",
				Description: "حي التوصيل",
				Required:    false,
			},
			{
				Name:        "delivery_fee",
				Type:        "number",
				Description: "رسوم التوصيل بالريال",
				Required:    false,
			},
			{
				Name:        "discount",
				Type:        "number",
				Description: "قيمة الخصم من calculate_total",
				Required:    false,
			},
			{
				Name:        "order_type",
				Type:        "string",
				Description: "delivery أو pickup",
				Required:    false,
			},
			{
				Name:        "notes",
				Type:        "string",
				Description: "ملاحظات على الطلب كامل",
				Required:    false,
			},
		},
		Agents: []string{AgentCheckout},
	}
}

type confirmOrderArgs struct {
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	District      string  `json:"district"`
	DeliveryFee   float64 `json:"delivery_fee"`
	Discount      float64 `json:"discount"`
	OrderType     string  `json:"order_type"`
	Notes         string  `json:"notes"`
}

// Execute validates, prices, and persists the order, then clears the cart.
func (t *ConfirmOrderTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "confirm_order"

	var in confirmOrderArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}

	if len(sess.Cart) == 0 {
		return rejectResult(name, "السلة فارغة"), nil
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return rejectResult(name, "يرجى إدخال الاسم"), nil
	}
	customerName, ok, msg := utils.ValidateCustomerName(in.CustomerName)
	if !ok {
		return rejectResult(name, msg), nil
	}
	if strings.TrimSpace(in.CustomerPhone) == "" {
		return rejectResult(name, "يرجى إدخال رقم الجوال"), nil
	}
	phone, ok, msg := utils.NormalizePhone(in.CustomerPhone)
	if !ok {
		return rejectResult(name, msg), nil
	}

	orderType := session.OrderTypeDelivery
	typeArg := strings.ToLower(strings.TrimSpace(in.OrderType))
	if pickupWords[typeArg] || (typeArg == "" && sess.OrderType == session.OrderTypePickup) {
		orderType = session.OrderTypePickup
	}

	fee := in.DeliveryFee
	if orderType == session.OrderTypePickup || fee < 0 {
		fee = 0
	}

	subtotal := sess.Subtotal()
	discount := in.Discount
	if discount <= 0 && sess.Discount > 0 {
		discount = sess.Discount
	}
	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}

	district := strings.TrimSpace(in.District)
	if district == "" && orderType == session.OrderTypeDelivery {
		district = sess.Location.AreaName
	}

	// The promo row is linked on the order only when a discount actually
	// applies, so usage accounting moves with real redemptions.
	var promoCodeID *int64
	if discount > 0 && sess.PromoCode != "" {
		promo, err := t.promos.GetByCode(ctx, sess.PromoCode)
		if err != nil && !errors.Is(err, db.ErrNotFound) {
			return failResult(name, err)
		}
		if promo != nil {
			promoCodeID = &promo.ID
		}
	}

	items := make([]session.CartItem, len(sess.Cart))
	copy(items, sess.Cart)
	total := subtotal + fee - discount

	var areaID *int64
	if orderType == session.OrderTypeDelivery {
		areaID = sess.Location.AreaID
	}

	receipt, err := t.orders.CreateOrder(ctx, db.CreateOrderParams{
		SessionID:       sess.ID,
		CustomerName:    customerName,
		CustomerPhone:   phone,
		DeliveryAddress: district,
		DeliveryAreaID:  areaID,
		OrderType:       orderType,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Discount:        discount,
		PromoCodeID:     promoCodeID,
		Total:           total,
		Items:           items,
		Notes:           strings.TrimSpace(in.Notes),
	})
	if err != nil {
		// Cart and session survive so the customer can try again.
		return ToolResult{
			Success: false,
			Content: jsonContent(map[string]interface{}{
				"success":    false,
				"message_ar": "صار خطأ أثناء تأكيد الطلب. جرب مرة ثانية بعد شوي.",
			}),
			Error:    err.Error(),
			ToolName: name,
		}, err
	}

	sess.CustomerName = customerName
	sess.CustomerPhone = phone
	sess.LastOrderID = receipt.OrderNumber
	sess.ClearCart()

	confirmation := buildConfirmationAr(receipt.OrderNumber, items, subtotal, fee, discount, total, orderType, district, customerName, phone)

	return okResult(name, map[string]interface{}{
		"success":         true,
		"order_id":        receipt.OrderNumber,
		"total":           total,
		"confirmation_ar": confirmation,
	}), nil
}

// buildConfirmationAr renders the final receipt message the customer sees.
func buildConfirmationAr(orderNumber string, items []session.CartItem, subtotal, fee, discount, total float64, orderType, district, customerName, phone string) string {
	var b strings.Builder

	b.WriteString("✅ تم تأكيد طلبك!\n\n")
	fmt.Fprintf(&b, "🔢 رقم الطلب: %s\n\n", orderNumber)

	b.WriteString("📋 الطلب:\n")
	for _, item := range items {
		b.WriteString("  " + cartLineAr(item) + "\n")
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "💰 المجموع: %s ريال\n", db.FormatAmount(subtotal))
	if fee > 0 {
		fmt.Fprintf(&b, "🚗 رسوم التوصيل: %s ريال\n", db.FormatAmount(fee))
	}
	if discount > 0 {
		fmt.Fprintf(&b, "🎁 الخصم: -%s ريال\n", db.FormatAmount(discount))
	}
	fmt.Fprintf(&b, "💵 الإجمالي: %s ريال\n\n", db.FormatAmount(total))

	if orderType == session.OrderTypePickup {
		b.WriteString("📍 استلام من الفرع\n")
	} else {
		fmt.Fprintf(&b, "📍 التوصيل إلى: %s\n", district)
	}
	fmt.Fprintf(&b, "👤 الاسم: %s\n", customerName)
	fmt.Fprintf(&b, "📱 الجوال: %s\n\n", phone)

	b.WriteString("💳 الدفع عند الاستلام\n\n")
	b.WriteString("شكراً لك! 🙏")

	return b.String()
}
