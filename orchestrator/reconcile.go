package orchestrator

import (
	"encoding/json"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// reconcileFacts is what the scan extracted beyond plain session fields.
type reconcileFacts struct {
	orderConfirmed bool
	orderID        string
	confirmationAr string
}

// reconcile copies the well-known tool payload effects onto the session.
// Tools already mutate the session as they run; re-applying from the
// recorded JSON makes the stored payloads, not model prose, the source of
// truth, and it is the only place an order confirmation is trusted.
func reconcile(sess *session.Session, toolMsgs []llms.Message) reconcileFacts {
	var facts reconcileFacts

	for _, msg := range toolMsgs {
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(msg.Content), &payload); err != nil {
			continue
		}

		switch msg.ToolName {
		case "set_order_type":
			applyOrderType(sess, payload)
		case "check_delivery_district":
			applyCoverage(sess, payload)
		case "calculate_total":
			applyPromo(sess, payload)
		case "confirm_order":
			if truthy(payload["success"]) {
				facts.orderConfirmed = true
				facts.orderID, _ = payload["order_id"].(string)
				facts.confirmationAr, _ = payload["confirmation_ar"].(string)
				if facts.orderID != "" {
					sess.LastOrderID = facts.orderID
				}
			}
		}
	}

	return facts
}

func applyOrderType(sess *session.Session, p map[string]interface{}) {
	if !truthy(p["success"]) {
		return
	}

	orderType, _ := p["order_type"].(string)
	switch orderType {
	case session.OrderTypePickup:
		sess.OrderType = session.OrderTypePickup
		sess.DeliveryFee = 0
	case session.OrderTypeDelivery:
		sess.OrderType = session.OrderTypeDelivery
		if fee, ok := toFloat(p["delivery_fee"]); ok {
			sess.DeliveryFee = fee
		}
		if district, ok := p["district"].(string); ok && district != "" {
			sess.Location.AreaName = district
		}
		if id, ok := toInt64(p["area_id"]); ok {
			sess.Location.AreaID = &id
		}
	}
}

// applyCoverage records a covered area on the session. Coverage alone does
// not choose delivery; that decision stays with set_order_type.
func applyCoverage(sess *session.Session, p map[string]interface{}) {
	if !truthy(p["covered"]) {
		return
	}
	if district, ok := p["district"].(string); ok && district != "" {
		sess.Location.AreaName = district
	}
	if id, ok := toInt64(p["area_id"]); ok {
		sess.Location.AreaID = &id
	}
}

func applyPromo(sess *session.Session, p map[string]interface{}) {
	if !truthy(p["success"]) {
		return
	}
	code, _ := p["promo_code"].(string)
	if code == "" {
		return
	}

	if truthy(p["promo_applied"]) {
		sess.PromoCode = code
		if discount, ok := toFloat(p["discount"]); ok {
			sess.Discount = discount
		}
		return
	}
	sess.PromoCode = ""
	sess.Discount = 0
}

func truthy(v interface{}) bool {
	b, ok := v.(bool)
	return ok && b
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func toInt64(v interface{}) (int64, bool) {
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return int64(f), true
}
