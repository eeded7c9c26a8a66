package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/tools"
)

func seeded(store *fakeStore, id string, state fsm.State) *session.Session {
	sess := session.New(id)
	sess.State = state
	return store.seed(sess)
}

func burger(qty int) session.CartItem {
	return session.NewCartItem(1, "برجر دجاج", qty, 25, nil, "")
}

func TestHandleMessage_FirstTurnRoutesThroughIntent(t *testing.T) {
	store := newFakeStore()
	intent := &fakeProvider{script: []fakeStep{{text: intentJSON("ordering")}}}
	chat := &fakeProvider{script: []fakeStep{{text: "هلا والله! تبي تطلب من عندنا؟"}}}
	o := testOrchestrator(store, fakeProviders{
		config.LLMIntent: intent,
		config.LLMChat:   chat,
	})

	turn, err := o.HandleMessage(context.Background(), "sess-1", "هلا")
	require.NoError(t, err)

	assert.Equal(t, "sess-1", turn.SessionID)
	assert.Equal(t, "هلا والله! تبي تطلب من عندنا؟", turn.Reply)
	assert.Equal(t, fsm.StateGreeting, turn.State)

	// The classifier saw exactly the system prompt and the raw message.
	require.Len(t, intent.threads, 1)
	require.Len(t, intent.threads[0], 2)
	assert.Equal(t, llms.RoleSystem, intent.threads[0][0].Role)
	assert.Equal(t, "هلا", intent.threads[0][1].Content)

	sess := store.sessions["sess-1"]
	require.NotNil(t, sess)
	assert.Equal(t, fsm.StateGreeting, sess.State)
	assert.Equal(t, 1, sess.UserTurns)
	require.Len(t, sess.History, 2)
	assert.Equal(t, llms.RoleUser, sess.History[0].Role)
	assert.Equal(t, llms.RoleAssistant, sess.History[1].Role)
	assert.Equal(t, 1, store.saves)
}

func TestHandleMessage_GeneratesSessionID(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, fakeProviders{
		config.LLMIntent: &fakeProvider{script: []fakeStep{{text: intentJSON("ordering")}}},
		config.LLMChat:   &fakeProvider{script: []fakeStep{{text: "هلا!"}}},
	})

	turn, err := o.HandleMessage(context.Background(), "   ", "ابي اطلب")
	require.NoError(t, err)
	assert.NotEmpty(t, turn.SessionID)
	assert.Contains(t, store.sessions, turn.SessionID)
}

func TestHandleMessage_EmptyMessage(t *testing.T) {
	store := newFakeStore()
	o := testOrchestrator(store, fakeProviders{})

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := o.HandleMessage(context.Background(), "s", text)
		assert.ErrorIs(t, err, ErrEmptyMessage)
	}
	assert.Empty(t, store.sessions)
}

func TestHandleMessage_StoreErrors(t *testing.T) {
	t.Run("load failure surfaces", func(t *testing.T) {
		store := newFakeStore()
		store.loadErr = assert.AnError
		o := testOrchestrator(store, fakeProviders{})

		_, err := o.HandleMessage(context.Background(), "s", "هلا")
		require.Error(t, err)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("save failure still returns the reply", func(t *testing.T) {
		store := newFakeStore()
		store.saveErr = assert.AnError
		seeded(store, "s", fsm.StateGreeting)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تبي تطلب؟"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "هلا")
		require.NoError(t, err)
		assert.Equal(t, "تبي تطلب؟", turn.Reply)
	})
}

func TestHandleMessage_ClosedRestaurant(t *testing.T) {
	closedConfig := func() *config.Config {
		cfg := testConfig()
		cfg.Restaurant.OpeningHour = 0
		cfg.Restaurant.ClosingHour = 0
		return cfg
	}

	t.Run("greeting turn gets the canned message without an LLM call", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateGreeting)
		chat := &fakeProvider{}
		o := New(store, fakeProviders{config.LLMChat: chat}, tools.NewToolRegistry(), closedConfig())

		turn, err := o.HandleMessage(context.Background(), "s", "ابي اطلب برجر")
		require.NoError(t, err)
		assert.Contains(t, turn.Reply, "المطعم مغلق")
		assert.Equal(t, fsm.StateFinalized, turn.State)
		assert.Empty(t, chat.threads)

		sess := store.sessions["s"]
		require.Len(t, sess.History, 2)
		assert.Equal(t, turn.Reply, sess.History[1].Content)
	})

	t.Run("first turn still classifies before hitting the gate", func(t *testing.T) {
		store := newFakeStore()
		intent := &fakeProvider{script: []fakeStep{{text: intentJSON("ordering")}}}
		o := New(store, fakeProviders{config.LLMIntent: intent}, tools.NewToolRegistry(), closedConfig())

		turn, err := o.HandleMessage(context.Background(), "s", "ابي اطلب")
		require.NoError(t, err)
		assert.Contains(t, turn.Reply, "المطعم مغلق")
		assert.Equal(t, fsm.StateFinalized, turn.State)
		assert.Len(t, intent.threads, 1)
	})
}

func TestHandleMessage_Cancellation(t *testing.T) {
	t.Run("cancel keyword aborts mid-order", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateOrdering)
		sess.AddItem(burger(2))
		sess.OrderType = session.OrderTypeDelivery
		sess.DeliveryFee = 15
		sess.PromoCode = "SAVE10"
		sess.Discount = 5
		storeHint(sess, "العميل من النرجس")

		o := testOrchestrator(store, fakeProviders{})
		turn, err := o.HandleMessage(context.Background(), "s", "كنسل الطلب")
		require.NoError(t, err)

		assert.Equal(t, cancelledAr, turn.Reply)
		assert.Equal(t, fsm.StateInit, turn.State)
		assert.Zero(t, sess.ItemCount())
		assert.Empty(t, sess.PromoCode)
		assert.Empty(t, sess.OrderType)
		assert.NotContains(t, sess.Metadata, hintKey)
		require.Len(t, sess.History, 2)
		assert.Equal(t, cancelledAr, sess.History[1].Content)
	})

	t.Run("plain refusal is not a cancellation", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateOrdering)
		sess.AddItem(burger(1))
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تمام، تبي شي ثاني؟"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "لا بس كذا")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateOrdering, turn.State)
		assert.Equal(t, 1, sess.ItemCount())
	})

	t.Run("cancel wording on a fresh session routes through intent", func(t *testing.T) {
		store := newFakeStore()
		o := testOrchestrator(store, fakeProviders{
			config.LLMIntent: &fakeProvider{script: []fakeStep{{text: intentJSON("other")}}},
			config.LLMChat:   &fakeProvider{script: []fakeStep{{text: "ممكن توضح لي وش تحتاج؟"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "ابي الغي")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFallback, turn.State)
	})
}

func TestHandleMessage_GreetingHandoffs(t *testing.T) {
	t.Run("confirming an order moves to location and stores the hint", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateGreeting)
		chat := &fakeProvider{script: []fakeStep{
			{text: "يا هلا! توصيل ولا استلام؟ [HANDOFF:location]"},
			{text: "تمام، وش اسم الحي؟"},
		}}
		o := testOrchestrator(store, fakeProviders{config.LLMChat: chat})

		turn, err := o.HandleMessage(context.Background(), "s", "ايه ابي اطلب")
		require.NoError(t, err)
		assert.Equal(t, "يا هلا! توصيل ولا استلام؟", turn.Reply)
		assert.Equal(t, fsm.StateLocation, turn.State)
		assert.Equal(t, "العميل جاهز للطلب، نحتاج نحدد توصيل أو استلام", sess.Metadata[hintKey])
		assert.NotEmpty(t, sess.Summary)

		// The next turn consumes the hint and feeds it to the location agent.
		_, err = o.HandleMessage(context.Background(), "s", "توصيل")
		require.NoError(t, err)
		require.Len(t, chat.threads, 2)
		hinted := false
		for _, msg := range chat.threads[1] {
			if msg.Role == llms.RoleSystem && strings.Contains(msg.Content, "معلومات: العميل جاهز للطلب") {
				hinted = true
			}
		}
		assert.True(t, hinted, "hint should be injected into the next turn")
		assert.NotContains(t, sess.Metadata, hintKey)
	})

	t.Run("declining moves to fallback", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateGreeting)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "ولا يهمك، في الخدمة [HANDOFF:end]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "لا ابي اسأل بس")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFallback, turn.State)
	})
}

func TestHandleMessage_OrderingHandoffs(t *testing.T) {
	t.Run("checkout with an empty cart is dropped", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateOrdering)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "يالله نحاسب [HANDOFF:checkout]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "خلصنا")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateOrdering, turn.State)
		assert.Equal(t, "يالله نحاسب", turn.Reply)
	})

	t.Run("checkout with items advances", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateOrdering)
		sess.AddItem(burger(2))
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تمام! [HANDOFF:checkout]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "بس كذا")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateCheckout, turn.State)
		hint, _ := sess.Metadata[hintKey].(string)
		assert.Contains(t, hint, "خلص اختياره")
	})

	t.Run("changing location sets the order breadcrumb", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateOrdering)
		sess.AddItem(burger(1))
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "اكيد [HANDOFF:location]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "ابي اغير العنوان")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateLocation, turn.State)
		assert.True(t, sess.CameFromOrder)
		assert.False(t, sess.CameFromCheckout)
		assert.Equal(t, "العميل يبي يغير الموقع (راجع من الطلب)", sess.Metadata[hintKey])
	})
}

func TestHandleMessage_LocationGates(t *testing.T) {
	t.Run("forward without an order type is dropped", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateLocation)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تمام [HANDOFF:order]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "يالله")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateLocation, turn.State)
	})

	t.Run("delivery without a validated area is dropped", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateLocation)
		sess.OrderType = session.OrderTypeDelivery
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تمام [HANDOFF:order]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "يالله")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateLocation, turn.State)
	})

	t.Run("pickup forward reaches ordering", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateLocation)
		sess.OrderType = session.OrderTypePickup
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تمام، استلام من الفرع [HANDOFF:order]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "استلام")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateOrdering, turn.State)
		assert.Equal(t, "العميل جاهز يختار أكله، نوع الطلب: استلام", sess.Metadata[hintKey])
	})

	t.Run("checkout marker without the breadcrumb lands in ordering", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateLocation)
		sess.OrderType = session.OrderTypePickup
		sess.AddItem(burger(1))
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "تم [HANDOFF:checkout]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "استلام")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateOrdering, turn.State)
	})
}

// A checkout customer who goes back to fix the address must land back in
// checkout after the address is updated, cart intact.
func TestHandleMessage_ReturnToCheckout(t *testing.T) {
	store := newFakeStore()
	sess := seeded(store, "s", fsm.StateCheckout)
	sess.AddItem(burger(2))
	sess.OrderType = session.OrderTypeDelivery
	sess.DeliveryFee = 15
	area := int64(3)
	sess.Location.AreaID = &area
	sess.Location.AreaName = "النرجس"

	chat := &fakeProvider{script: []fakeStep{
		{text: "اكيد، وش الحي الجديد؟ [HANDOFF:location]"},
		{text: "تم تحديث العنوان [HANDOFF:order]"},
	}}
	o := testOrchestrator(store, fakeProviders{config.LLMChat: chat})

	turn, err := o.HandleMessage(context.Background(), "s", "ابي اغير العنوان")
	require.NoError(t, err)
	assert.Equal(t, fsm.StateLocation, turn.State)
	assert.True(t, sess.CameFromCheckout)
	assert.Equal(t, "العميل يبي يغير الموقع (راجع من المحاسبة)", sess.Metadata[hintKey])

	// The forward marker says order, the breadcrumb redirects it to checkout.
	turn, err = o.HandleMessage(context.Background(), "s", "نفس الحي بس شارع ثاني")
	require.NoError(t, err)
	assert.Equal(t, fsm.StateCheckout, turn.State)
	assert.False(t, sess.CameFromCheckout)
	assert.False(t, sess.CameFromOrder)
	assert.Equal(t, 2, sess.ItemCount())
	hint, _ := sess.Metadata[hintKey].(string)
	assert.Contains(t, hint, "رجع لإنهاء الطلب")
}

func TestHandleMessage_SetOrderTypeReconciled(t *testing.T) {
	store := newFakeStore()
	seeded(store, "s", fsm.StateLocation)

	setType := &stubTool{
		name:   "set_order_type",
		agents: []string{tools.AgentLocation},
		results: []tools.ToolResult{jsonResult("set_order_type",
			`{"success": true, "order_type": "delivery", "district": "النرجس", "area_id": 3, "delivery_fee": 15, "message_ar": "تم"}`)},
	}
	chat := &fakeProvider{script: []fakeStep{
		{calls: []llms.ToolCall{{Name: "set_order_type", Arguments: map[string]interface{}{"order_type": "delivery", "district": "النرجس"}}}},
		{text: "سجلت عنوانك في النرجس، التوصيل 15 ريال [HANDOFF:order]"},
	}}
	o := testOrchestrator(store, fakeProviders{config.LLMChat: chat}, setType)

	turn, err := o.HandleMessage(context.Background(), "s", "توصيل للنرجس")
	require.NoError(t, err)

	sess := store.sessions["s"]
	assert.Equal(t, fsm.StateOrdering, turn.State)
	assert.Equal(t, session.OrderTypeDelivery, sess.OrderType)
	assert.Equal(t, 15.0, sess.DeliveryFee)
	assert.Equal(t, "النرجس", sess.Location.AreaName)
	require.NotNil(t, sess.Location.AreaID)
	assert.Equal(t, int64(3), *sess.Location.AreaID)

	hint, _ := sess.Metadata[hintKey].(string)
	assert.Contains(t, hint, "النرجس")

	// The tool round trip is part of the recorded history.
	var sawTool bool
	for _, msg := range sess.History {
		if msg.Role == llms.RoleTool && msg.ToolName == "set_order_type" {
			sawTool = true
		}
	}
	assert.True(t, sawTool)
}

func TestHandleMessage_ConfirmOrderFinalizes(t *testing.T) {
	confirmed := `{"success": true, "order_id": "ORD-000123", "total": 70.5, "confirmation_ar": "✅ تم تأكيد طلبك رقم ORD-000123"}`

	newCheckout := func(store *fakeStore) *session.Session {
		sess := seeded(store, "s", fsm.StateCheckout)
		sess.AddItem(burger(2))
		sess.OrderType = session.OrderTypePickup
		sess.CustomerName = "سارة"
		sess.CustomerPhone = "0501234567"
		return sess
	}

	t.Run("confirmation payload drives finalization", func(t *testing.T) {
		store := newFakeStore()
		sess := newCheckout(store)
		confirm := &stubTool{
			name:    "confirm_order",
			agents:  []string{tools.AgentCheckout},
			results: []tools.ToolResult{jsonResult("confirm_order", confirmed)},
		}
		chat := &fakeProvider{script: []fakeStep{
			{calls: []llms.ToolCall{{Name: "confirm_order", Arguments: map[string]interface{}{}}}},
			{text: "تم تأكيد طلبك! رقمك ORD-000123 [HANDOFF:end]"},
		}}
		o := testOrchestrator(store, fakeProviders{config.LLMChat: chat}, confirm)

		turn, err := o.HandleMessage(context.Background(), "s", "اكد الطلب")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFinalized, turn.State)
		assert.Contains(t, turn.Reply, "ORD-000123")
		assert.Equal(t, "ORD-000123", sess.LastOrderID)
	})

	t.Run("marker-only reply falls back to the receipt", func(t *testing.T) {
		store := newFakeStore()
		sess := newCheckout(store)
		confirm := &stubTool{
			name:    "confirm_order",
			agents:  []string{tools.AgentCheckout},
			results: []tools.ToolResult{jsonResult("confirm_order", confirmed)},
		}
		chat := &fakeProvider{script: []fakeStep{
			{calls: []llms.ToolCall{{Name: "confirm_order", Arguments: map[string]interface{}{}}}},
			{text: "[HANDOFF:end]"},
		}}
		o := testOrchestrator(store, fakeProviders{config.LLMChat: chat}, confirm)

		turn, err := o.HandleMessage(context.Background(), "s", "اكد")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFinalized, turn.State)
		assert.Equal(t, "✅ تم تأكيد طلبك رقم ORD-000123", turn.Reply)
		assert.Equal(t, "ORD-000123", sess.LastOrderID)
	})
}

func TestHandleMessage_PromoReconciled(t *testing.T) {
	t.Run("applied promo lands on the session", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateCheckout)
		sess.AddItem(burger(2))
		total := &stubTool{
			name:   "calculate_total",
			agents: []string{tools.AgentCheckout},
			results: []tools.ToolResult{jsonResult("calculate_total",
				`{"success": true, "subtotal": 50, "discount": 5, "total": 45, "promo_applied": true, "promo_code": "SAVE10", "breakdown_ar": "المجموع 45"}`)},
		}
		chat := &fakeProvider{script: []fakeStep{
			{calls: []llms.ToolCall{{Name: "calculate_total", Arguments: map[string]interface{}{"promo_code": "SAVE10"}}}},
			{text: "خصمنا لك 5 ريال، المجموع 45"},
		}}
		o := testOrchestrator(store, fakeProviders{config.LLMChat: chat}, total)

		turn, err := o.HandleMessage(context.Background(), "s", "عندي كود SAVE10")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateCheckout, turn.State)
		assert.Equal(t, "SAVE10", sess.PromoCode)
		assert.Equal(t, 5.0, sess.Discount)
	})

	t.Run("rejected promo clears a stale one", func(t *testing.T) {
		store := newFakeStore()
		sess := seeded(store, "s", fsm.StateCheckout)
		sess.AddItem(burger(2))
		sess.PromoCode = "OLD"
		sess.Discount = 3
		total := &stubTool{
			name:   "calculate_total",
			agents: []string{tools.AgentCheckout},
			results: []tools.ToolResult{jsonResult("calculate_total",
				`{"success": true, "subtotal": 50, "discount": 0, "total": 50, "promo_applied": false, "promo_code": "EXPIRED", "promo_message_ar": "الكود منتهي"}`)},
		}
		chat := &fakeProvider{script: []fakeStep{
			{calls: []llms.ToolCall{{Name: "calculate_total", Arguments: map[string]interface{}{"promo_code": "EXPIRED"}}}},
			{text: "للأسف الكود منتهي"},
		}}
		o := testOrchestrator(store, fakeProviders{config.LLMChat: chat}, total)

		_, err := o.HandleMessage(context.Background(), "s", "جرب كود EXPIRED")
		require.NoError(t, err)
		assert.Empty(t, sess.PromoCode)
		assert.Zero(t, sess.Discount)
	})
}

func TestHandleMessage_AgentFailureApologizes(t *testing.T) {
	store := newFakeStore()
	sess := seeded(store, "s", fsm.StateGreeting)
	storeHint(sess, "العميل حاب يبدأ طلب")

	// An empty script fails the call and its retry.
	chat := &fakeProvider{}
	o := testOrchestrator(store, fakeProviders{config.LLMChat: chat})

	turn, err := o.HandleMessage(context.Background(), "s", "هلا")
	require.NoError(t, err)

	assert.Equal(t, apologyAr, turn.Reply)
	assert.Equal(t, fsm.StateGreeting, turn.State)
	assert.Len(t, chat.threads, 2)

	// The hint survives for the retry turn.
	assert.Equal(t, "العميل حاب يبدأ طلب", sess.Metadata[hintKey])
	require.Len(t, sess.History, 2)
	assert.Equal(t, apologyAr, sess.History[1].Content)
	assert.Equal(t, 1, store.saves)
}

func TestHandleMessage_FallbackEscape(t *testing.T) {
	t.Run("ordering message escapes fallback", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateFallback)
		o := testOrchestrator(store, fakeProviders{
			config.LLMIntent: &fakeProvider{script: []fakeStep{{text: intentJSON("ordering")}}},
			config.LLMChat:   &fakeProvider{script: []fakeStep{{text: "يا هلا! وش تحب تطلب؟"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "طيب ابي اطلب برجر")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateGreeting, turn.State)
	})

	t.Run("non-ordering message stays in fallback", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateFallback)
		o := testOrchestrator(store, fakeProviders{
			config.LLMIntent: &fakeProvider{script: []fakeStep{{text: intentJSON("inquiry")}}},
			config.LLMChat:   &fakeProvider{script: []fakeStep{{text: "ساعات العمل من 9 الصبح"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "متى تفتحون؟")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFallback, turn.State)
	})
}

func TestHandleMessage_ComplaintFlow(t *testing.T) {
	t.Run("escalation finalizes", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateComplaint)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "نعتذر منك، وصلت شكوتك للمسؤول [HANDOFF:end]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "الطلب وصل بارد")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateFinalized, turn.State)
	})

	t.Run("resolution returns to greeting", func(t *testing.T) {
		store := newFakeStore()
		seeded(store, "s", fsm.StateComplaint)
		o := testOrchestrator(store, fakeProviders{
			config.LLMChat: &fakeProvider{script: []fakeStep{{text: "حياك الله! تبي تطلب من جديد؟ [HANDOFF:greeting]"}}},
		})

		turn, err := o.HandleMessage(context.Background(), "s", "تمام انحلت، ابي اطلب")
		require.NoError(t, err)
		assert.Equal(t, fsm.StateGreeting, turn.State)
	})
}

func TestHandleMessage_FinalizedSessionRestarts(t *testing.T) {
	store := newFakeStore()
	sess := seeded(store, "s", fsm.StateFinalized)
	sess.LastOrderID = "ORD-000042"
	o := testOrchestrator(store, fakeProviders{
		config.LLMIntent: &fakeProvider{script: []fakeStep{{text: intentJSON("ordering")}}},
		config.LLMChat:   &fakeProvider{script: []fakeStep{{text: "يا هلا من جديد!"}}},
	})

	turn, err := o.HandleMessage(context.Background(), "s", "ابي اطلب مرة ثانية")
	require.NoError(t, err)
	assert.Equal(t, fsm.StateGreeting, turn.State)
	assert.Equal(t, "ORD-000042", sess.LastOrderID)
}

func TestHandleMessage_SerializesSameSession(t *testing.T) {
	store := newFakeStore()
	seeded(store, "s", fsm.StateGreeting)

	block := make(chan struct{})
	chat := &fakeProvider{
		script: []fakeStep{{text: "أهلاً"}, {text: "أهلاً"}},
		block:  block,
	}
	o := testOrchestrator(store, fakeProviders{config.LLMChat: chat})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := o.HandleMessage(context.Background(), "s", "هلا")
			assert.NoError(t, err)
		}()
	}

	// Let the first turn reach the provider, then release both.
	time.Sleep(20 * time.Millisecond)
	close(block)
	wg.Wait()

	chat.mu.Lock()
	defer chat.mu.Unlock()
	assert.Equal(t, 1, chat.maxSeen, "turns for one session must not overlap")
	assert.Len(t, chat.threads, 2)
}

func TestHintStorage(t *testing.T) {
	sess := session.New("s")

	assert.Empty(t, takeHint(sess))

	storeHint(sess, "العميل جاهز")
	assert.Equal(t, "العميل جاهز", takeHint(sess))
	assert.Empty(t, takeHint(sess), "hints are one-shot")

	storeHint(sess, "أ")
	storeHint(sess, "")
	assert.Empty(t, takeHint(sess), "storing empty clears the pending hint")
}
