package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// ============================================================================
// LOCATION TOOLS
// ============================================================================

// CoverageChecker resolves district names against the delivery areas and
// lists them.
type CoverageChecker interface {
	CheckCoverage(ctx context.Context, areaName string) (bool, *db.Area, []db.Area, error)
	ActiveAreas(ctx context.Context) ([]db.Area, error)
}

// deliveryWindowAr renders the estimate the customer hears, as a range
// around the configured minutes.
func deliveryWindowAr(minutes int) string {
	return fmt.Sprintf("%d-%d دقيقة", minutes-5, minutes+10)
}

// areaDeliveryFee prefers the district's own fee over the restaurant-wide
// default.
func areaDeliveryFee(area *db.Area, restaurant *config.RestaurantConfig) float64 {
	if area != nil && area.DeliveryFee != nil {
		return *area.DeliveryFee
	}
	return restaurant.DeliveryFee
}

// areaWindowAr prefers the district's own estimate over the restaurant-wide
// default.
func areaWindowAr(area *db.Area, restaurant *config.RestaurantConfig) string {
	minutes := restaurant.EstimatedDeliveryMinutes
	if area != nil && area.EstimatedMinutes != nil {
		minutes = *area.EstimatedMinutes
	}
	return deliveryWindowAr(minutes)
}

// ----------------------------------------------------------------------------
// check_delivery_district
// ----------------------------------------------------------------------------

// CheckDeliveryDistrictTool answers whether the restaurant delivers to a
// district and with what fee. It never mutates the session; the decision is
// recorded by set_order_type.
type CheckDeliveryDistrictTool struct {
	coverage   CoverageChecker
	restaurant *config.RestaurantConfig
}

// NewCheckDeliveryDistrictTool creates the coverage lookup tool.
func NewCheckDeliveryDistrictTool(coverage CoverageChecker, restaurant *config.RestaurantConfig) *CheckDeliveryDistrictTool {
	return &CheckDeliveryDistrictTool{coverage: coverage, restaurant: restaurant}
}

// GetInfo returns tool metadata.
func (t *CheckDeliveryDistrictTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "check_delivery_district",
		Description: "التحقق هل المطعم يوصل لحي معين، مع رسوم التوصيل والوقت المتوقع. استخدمها قبل تأكيد التوصيل.",
		Parameters: []ToolParameter{
			{
				Name:        "district",
				Type:        "string",
				Description: "اسم الحي بالعربي، مثل: حي النرجس",
				Required:    true,
			},
		},
		Agents: []string{AgentLocation},
	}
}

type checkDistrictArgs struct {
	District string `json:"district"`
}

// Execute looks the district up through the coverage cascade.
func (t *CheckDeliveryDistrictTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "check_delivery_district"

	var in checkDistrictArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}
	district := strings.TrimSpace(in.District)
	if district == "" {
		return rejectResult(name, "وش اسم الحي؟"), nil
	}

	covered, area, suggestions, err := t.coverage.CheckCoverage(ctx, district)
	if err != nil {
		return failResult(name, err)
	}

	if covered {
		fee := areaDeliveryFee(area, t.restaurant)
		window := areaWindowAr(area, t.restaurant)
		return okResult(name, map[string]interface{}{
			"covered":        true,
			"district":       area.NameAr,
			"area_id":        area.ID,
			"delivery_fee":   fee,
			"estimated_time": window,
			"message_ar": fmt.Sprintf("تمام! نوصل لـ%s. رسوم التوصيل %s ريال، والوقت المتوقع %s.",
				area.NameAr, db.FormatAmount(fee), window),
		}), nil
	}

	if len(suggestions) > 0 {
		names := make([]string, len(suggestions))
		for i, s := range suggestions {
			names[i] = s.NameAr
		}
		return okResult(name, map[string]interface{}{
			"covered":        false,
			"delivery_fee":   0.0,
			"estimated_time": "",
			"suggestions":    names,
			"message_ar":     fmt.Sprintf("ما لقيت '%s'. هل تقصد: %s؟", district, strings.Join(names, "، ")),
		}), nil
	}

	return okResult(name, map[string]interface{}{
		"covered":        false,
		"delivery_fee":   0.0,
		"estimated_time": "",
		"message_ar":     fmt.Sprintf("للأسف ما نغطي منطقة '%s' حالياً. تبي تستلم من الفرع أو تختار منطقة ثانية؟", district),
	}), nil
}

// ----------------------------------------------------------------------------
// set_order_type
// ----------------------------------------------------------------------------

// pickup spellings the model may pass through from the customer.
var pickupWords = map[string]bool{
	"pickup":    true,
	"takeaway":  true,
	"take away": true,
	"استلام":    true,
}

// SetOrderTypeTool records the customer's delivery-or-pickup decision on
// the session. Delivery requires a district that passes coverage; pickup
// always succeeds with a zero fee.
type SetOrderTypeTool struct {
	coverage   CoverageChecker
	restaurant *config.RestaurantConfig
}

// NewSetOrderTypeTool creates the order type tool.
func NewSetOrderTypeTool(coverage CoverageChecker, restaurant *config.RestaurantConfig) *SetOrderTypeTool {
	return &SetOrderTypeTool{coverage: coverage, restaurant: restaurant}
}

// GetInfo returns tool metadata.
func (t *SetOrderTypeTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "set_order_type",
		Description: "تثبيت نوع الطلب: توصيل لحي مغطى أو استلام من الفرع. لازم تنادى قبل تحويل العميل لاختيار الأكل.",
		Parameters: []ToolParameter{
			{
				Name:        "order_type",
				Type:        "string",
				Description: "نوع الطلب",
				Required:    true,
				Enum:        []string{"delivery", "pickup"},
			},
			{
				Name:        "district",
				Type:        "string",
				Description: "اسم الحي إذا كان الطلب توصيل",
				Required:    false,
			},
			{
				Name:        "delivery_fee",
				Type:        "number",
				Description: "رسوم التوصيل من نتيجة check_delivery_district",
				Required:    false,
			},
		},
		Agents: []string{AgentLocation},
	}
}

type setOrderTypeArgs struct {
	OrderType   string  `json:"order_type"`
	District    string  `json:"district"`
	DeliveryFee float64 `json:"delivery_fee"`
}

// Execute normalizes the order type and writes it to the session.
func (t *SetOrderTypeTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "set_order_type"

	var in setOrderTypeArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}

	orderType := session.OrderTypeDelivery
	if pickupWords[strings.ToLower(strings.TrimSpace(in.OrderType))] {
		orderType = session.OrderTypePickup
	}

	if orderType == session.OrderTypePickup {
		sess.OrderType = session.OrderTypePickup
		sess.DeliveryFee = 0

		label := "استلام من الفرع - " + t.restaurant.BranchAreaAr
		return okResult(name, map[string]interface{}{
			"success":      true,
			"order_type":   session.OrderTypePickup,
			"district":     label,
			"delivery_fee": 0.0,
			"message_ar": fmt.Sprintf("تمام، الطلب للاستلام من الفرع في %s. لا توجد رسوم توصيل.",
				t.restaurant.BranchAreaAr),
		}), nil
	}

	district := strings.TrimSpace(in.District)
	if district == "" {
		return rejectResult(name, "حدد الحي أول عشان نأكد التوصيل."), nil
	}

	covered, area, _, err := t.coverage.CheckCoverage(ctx, district)
	if err != nil {
		return failResult(name, err)
	}
	if !covered {
		return rejectResult(name, fmt.Sprintf("للأسف ما نغطي منطقة '%s' حالياً. تبي تستلم من الفرع أو تختار منطقة ثانية؟", district)), nil
	}

	fee := in.DeliveryFee
	if fee <= 0 {
		fee = areaDeliveryFee(area, t.restaurant)
	}

	areaID := area.ID
	sess.OrderType = session.OrderTypeDelivery
	sess.DeliveryFee = fee
	sess.Location.AreaID = &areaID
	sess.Location.AreaName = area.NameAr

	return okResult(name, map[string]interface{}{
		"success":      true,
		"order_type":   session.OrderTypeDelivery,
		"district":     area.NameAr,
		"area_id":      area.ID,
		"delivery_fee": fee,
		"message_ar": fmt.Sprintf("تمام، الطلب للتوصيل إلى %s. رسوم التوصيل %s ريال.",
			area.NameAr, db.FormatAmount(fee)),
	}), nil
}

// ----------------------------------------------------------------------------
// get_covered_areas
// ----------------------------------------------------------------------------

// GetCoveredAreasTool lists every district the restaurant delivers to, so
// the model can answer "which neighborhoods do you cover?" without the
// customer guessing names.
type GetCoveredAreasTool struct {
	coverage   CoverageChecker
	restaurant *config.RestaurantConfig
}

// NewGetCoveredAreasTool creates the coverage listing tool.
func NewGetCoveredAreasTool(coverage CoverageChecker, restaurant *config.RestaurantConfig) *GetCoveredAreasTool {
	return &GetCoveredAreasTool{coverage: coverage, restaurant: restaurant}
}

// GetInfo returns tool metadata.
func (t *GetCoveredAreasTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "get_covered_areas",
		Description: "قائمة الأحياء اللي نوصل لها مع رسوم التوصيل والوقت المتوقع لكل حي.",
		Parameters:  []ToolParameter{},
		Agents:      []string{AgentLocation},
	}
}

// Execute lists the active areas with their effective fee and estimate.
func (t *GetCoveredAreasTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "get_covered_areas"

	areas, err := t.coverage.ActiveAreas(ctx)
	if err != nil {
		return failResult(name, err)
	}

	names := make([]string, len(areas))
	listed := make([]map[string]interface{}, len(areas))
	for i := range areas {
		area := &areas[i]
		names[i] = area.NameAr
		listed[i] = map[string]interface{}{
			"district":       area.NameAr,
			"delivery_fee":   areaDeliveryFee(area, t.restaurant),
			"estimated_time": areaWindowAr(area, t.restaurant),
		}
	}

	return okResult(name, map[string]interface{}{
		"count":      len(areas),
		"areas":      listed,
		"message_ar": fmt.Sprintf("نوصل حالياً لـ%d حي: %s.", len(areas), strings.Join(names, "، ")),
	}), nil
}
