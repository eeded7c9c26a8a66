package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

func toolMsg(name, content string) llms.Message {
	return llms.ToolMessage("call-1", name, content)
}

func TestReconcile_SetOrderType(t *testing.T) {
	t.Run("pickup zeroes the delivery fee", func(t *testing.T) {
		sess := session.New("s")
		sess.OrderType = session.OrderTypeDelivery
		sess.DeliveryFee = 15

		facts := reconcile(sess, []llms.Message{toolMsg("set_order_type",
			`{"success": true, "order_type": "pickup", "message_ar": "تم"}`)})

		assert.False(t, facts.orderConfirmed)
		assert.Equal(t, session.OrderTypePickup, sess.OrderType)
		assert.Zero(t, sess.DeliveryFee)
	})

	t.Run("delivery records fee and area", func(t *testing.T) {
		sess := session.New("s")

		reconcile(sess, []llms.Message{toolMsg("set_order_type",
			`{"success": true, "order_type": "delivery", "district": "العليا", "area_id": 7, "delivery_fee": 20}`)})

		assert.Equal(t, session.OrderTypeDelivery, sess.OrderType)
		assert.Equal(t, 20.0, sess.DeliveryFee)
		assert.Equal(t, "العليا", sess.Location.AreaName)
		require.NotNil(t, sess.Location.AreaID)
		assert.Equal(t, int64(7), *sess.Location.AreaID)
	})

	t.Run("failed call changes nothing", func(t *testing.T) {
		sess := session.New("s")

		reconcile(sess, []llms.Message{toolMsg("set_order_type",
			`{"success": false, "message_ar": "الحي غير مغطى"}`)})

		assert.Empty(t, sess.OrderType)
		assert.Nil(t, sess.Location.AreaID)
	})
}

func TestReconcile_Coverage(t *testing.T) {
	t.Run("covered district records the area only", func(t *testing.T) {
		sess := session.New("s")

		reconcile(sess, []llms.Message{toolMsg("check_delivery_district",
			`{"covered": true, "district": "النرجس", "area_id": 3, "delivery_fee": 15}`)})

		assert.Equal(t, "النرجس", sess.Location.AreaName)
		require.NotNil(t, sess.Location.AreaID)
		assert.Equal(t, int64(3), *sess.Location.AreaID)
		// Coverage alone does not choose delivery.
		assert.Empty(t, sess.OrderType)
	})

	t.Run("uncovered district changes nothing", func(t *testing.T) {
		sess := session.New("s")

		reconcile(sess, []llms.Message{toolMsg("check_delivery_district",
			`{"covered": false, "district": "حي بعيد", "suggestions": ["النرجس"]}`)})

		assert.Empty(t, sess.Location.AreaName)
		assert.Nil(t, sess.Location.AreaID)
	})
}

func TestReconcile_Promo(t *testing.T) {
	t.Run("applied promo is recorded", func(t *testing.T) {
		sess := session.New("s")

		reconcile(sess, []llms.Message{toolMsg("calculate_total",
			`{"success": true, "promo_applied": true, "promo_code": "SAVE10", "discount": 5, "total": 45}`)})

		assert.Equal(t, "SAVE10", sess.PromoCode)
		assert.Equal(t, 5.0, sess.Discount)
	})

	t.Run("rejected promo clears a stale one", func(t *testing.T) {
		sess := session.New("s")
		sess.PromoCode = "OLD"
		sess.Discount = 3

		reconcile(sess, []llms.Message{toolMsg("calculate_total",
			`{"success": true, "promo_applied": false, "promo_code": "EXPIRED", "total": 50}`)})

		assert.Empty(t, sess.PromoCode)
		assert.Zero(t, sess.Discount)
	})

	t.Run("total without a promo attempt leaves the promo alone", func(t *testing.T) {
		sess := session.New("s")
		sess.PromoCode = "SAVE10"
		sess.Discount = 5

		reconcile(sess, []llms.Message{toolMsg("calculate_total",
			`{"success": true, "subtotal": 50, "discount": 5, "total": 45}`)})

		assert.Equal(t, "SAVE10", sess.PromoCode)
		assert.Equal(t, 5.0, sess.Discount)
	})
}

func TestReconcile_ConfirmOrder(t *testing.T) {
	t.Run("success yields the confirmation facts", func(t *testing.T) {
		sess := session.New("s")

		facts := reconcile(sess, []llms.Message{toolMsg("confirm_order",
			`{"success": true, "order_id": "ORD-000123", "total": 70.5, "confirmation_ar": "✅ تم التأكيد"}`)})

		assert.True(t, facts.orderConfirmed)
		assert.Equal(t, "ORD-000123", facts.orderID)
		assert.Equal(t, "✅ تم التأكيد", facts.confirmationAr)
		assert.Equal(t, "ORD-000123", sess.LastOrderID)
	})

	t.Run("failure is not a confirmation", func(t *testing.T) {
		sess := session.New("s")

		facts := reconcile(sess, []llms.Message{toolMsg("confirm_order",
			`{"success": false, "message_ar": "نحتاج رقم الجوال"}`)})

		assert.False(t, facts.orderConfirmed)
		assert.Empty(t, sess.LastOrderID)
	})
}

func TestReconcile_IgnoresNoise(t *testing.T) {
	sess := session.New("s")

	facts := reconcile(sess, []llms.Message{
		toolMsg("search_menu", `{"items": []}`),
		toolMsg("set_order_type", `not json at all`),
		toolMsg("confirm_order", ``),
	})

	assert.False(t, facts.orderConfirmed)
	assert.Empty(t, sess.OrderType)
	assert.Empty(t, sess.LastOrderID)
}

// Numeric payload fields arrive as float64 from encoding/json; integer-typed
// producers must decode the same way.
func TestReconcile_NumericShapes(t *testing.T) {
	sess := session.New("s")

	reconcile(sess, []llms.Message{toolMsg("set_order_type",
		`{"success": true, "order_type": "delivery", "district": "الياسمين", "area_id": 12.0, "delivery_fee": 17.5}`)})

	require.NotNil(t, sess.Location.AreaID)
	assert.Equal(t, int64(12), *sess.Location.AreaID)
	assert.Equal(t, 17.5, sess.DeliveryFee)
}

func TestReconcile_LastWriteWins(t *testing.T) {
	sess := session.New("s")

	reconcile(sess, []llms.Message{
		toolMsg("set_order_type", `{"success": true, "order_type": "delivery", "district": "العليا", "area_id": 7, "delivery_fee": 20}`),
		toolMsg("set_order_type", `{"success": true, "order_type": "pickup"}`),
	})

	assert.Equal(t, session.OrderTypePickup, sess.OrderType)
	assert.Zero(t, sess.DeliveryFee)
}
