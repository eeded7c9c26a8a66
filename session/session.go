// Package session defines the conversation session: the FSM position, the
// customer's cart and identity, and the message history the agents see.
// The orchestrator owns a session exclusively for the duration of a turn;
// persistence lives in the db package.
package session

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
)

// Order types. The empty string means the customer has not chosen yet; the
// location agent must set one before the conversation moves forward.
const (
	OrderTypeDelivery = "delivery"
	OrderTypePickup   = "pickup"
)

// ============================================================================
// CART
// ============================================================================

// CartModifier is one selected modifier on a cart line.
type CartModifier struct {
	ModifierID int64   `json:"modifier_id"`
	NameAr     string  `json:"modifier_name_ar"`
	PriceDelta float64 `json:"price_adjustment"`
}

// CartItem is one line in the cart. LineTotal is computed when the line is
// built and never recomputed from menu data, so later price changes do not
// silently reprice an open cart.
type CartItem struct {
	MenuItemID int64          `json:"menu_item_id"`
	NameAr     string         `json:"item_name_ar"`
	Quantity   int            `json:"quantity"`
	UnitPrice  float64        `json:"unit_price"`
	LineTotal  float64        `json:"total_price"`
	Modifiers  []CartModifier `json:"modifiers,omitempty"`
	Notes      string         `json:"special_instructions,omitempty"`
}

// NewCartItem builds a cart line, pricing modifiers into the line total.
func NewCartItem(menuItemID int64, nameAr string, quantity int, unitPrice float64, modifiers []CartModifier, notes string) CartItem {
	item := CartItem{
		MenuItemID: menuItemID,
		NameAr:     nameAr,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		Modifiers:  modifiers,
		Notes:      notes,
	}
	item.LineTotal = item.unitWithModifiers() * float64(quantity)
	return item
}

func (i CartItem) unitWithModifiers() float64 {
	price := i.UnitPrice
	for _, m := range i.Modifiers {
		price += m.PriceDelta
	}
	return price
}

func (i CartItem) sameSelection(other CartItem) bool {
	if i.MenuItemID != other.MenuItemID || i.Notes != other.Notes || len(i.Modifiers) != len(other.Modifiers) {
		return false
	}
	for idx := range i.Modifiers {
		if i.Modifiers[idx] != other.Modifiers[idx] {
			return false
		}
	}
	return true
}

// ============================================================================
// LOCATION
// ============================================================================

// Location is the delivery address under construction. AreaID is set only
// after the area passed a coverage check.
type Location struct {
	AreaID   *int64 `json:"area_id,omitempty"`
	AreaName string `json:"area_name_ar,omitempty"`
	Street   string `json:"street,omitempty"`
	Building string `json:"building,omitempty"`
	Notes    string `json:"delivery_notes,omitempty"`
}

// Complete reports whether the address can be delivered to.
func (l Location) Complete() bool {
	return l.AreaID != nil && l.AreaName != "" && l.Street != "" && l.Building != ""
}

// AddressAr renders the address for confirmation messages.
func (l Location) AddressAr() string {
	var parts []string
	if l.AreaName != "" {
		parts = append(parts, l.AreaName)
	}
	if l.Street != "" {
		parts = append(parts, "شارع "+l.Street)
	}
	if l.Building != "" {
		parts = append(parts, "مبنى "+l.Building)
	}
	return strings.Join(parts, "، ")
}

// ============================================================================
// SESSION
// ============================================================================

// Session is the complete conversation state for one customer thread.
type Session struct {
	ID    string    `json:"session_id"`
	State fsm.State `json:"state"`

	CustomerName  string `json:"customer_name,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	Location    Location `json:"location"`
	OrderType   string   `json:"order_type,omitempty"`
	DeliveryFee float64  `json:"delivery_fee,omitempty"`

	Cart      []CartItem `json:"cart"`
	PromoCode string     `json:"applied_promo_code,omitempty"`
	Discount  float64    `json:"discount,omitempty"`

	History   []llms.Message `json:"conversation_history"`
	Summary   string         `json:"conversation_summary_ar,omitempty"`
	UserTurns int            `json:"user_turns"`

	// Breadcrumbs disambiguate a return to LOCATION: they record which
	// state sent the customer back, so the forward handoff can resume
	// there instead of restarting the flow.
	CameFromCheckout bool `json:"came_from_checkout,omitempty"`
	CameFromOrder    bool `json:"came_from_order,omitempty"`

	LastOrderID string                 `json:"last_order_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New creates an empty session in the initial state. An empty id gets a
// generated UUID.
func New(id string) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		State:     fsm.StateInit,
		Cart:      []CartItem{},
		History:   []llms.Message{},
		Metadata:  map[string]interface{}{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch marks the session active now.
func (s *Session) Touch() {
	s.UpdatedAt = time.Now().UTC()
}

// ExpiresAt returns the instant the session lapses given the expiry window.
func (s *Session) ExpiresAt(expiry time.Duration) time.Time {
	return s.UpdatedAt.Add(expiry)
}

// Expired reports whether the session lapsed before now.
func (s *Session) Expired(now time.Time, expiry time.Duration) bool {
	return now.After(s.ExpiresAt(expiry))
}

// ============================================================================
// CART OPERATIONS
// ============================================================================

// AddItem adds a line to the cart, merging into an existing line when the
// item, modifiers, and notes all match.
func (s *Session) AddItem(item CartItem) {
	for idx := range s.Cart {
		if s.Cart[idx].sameSelection(item) {
			s.Cart[idx].Quantity += item.Quantity
			s.Cart[idx].LineTotal = s.Cart[idx].unitWithModifiers() * float64(s.Cart[idx].Quantity)
			return
		}
	}
	s.Cart = append(s.Cart, item)
}

// FindItem returns the first cart line for menuItemID.
func (s *Session) FindItem(menuItemID int64) *CartItem {
	for idx := range s.Cart {
		if s.Cart[idx].MenuItemID == menuItemID {
			return &s.Cart[idx]
		}
	}
	return nil
}

// SetItemQuantity updates a line's quantity, repricing the line total.
// Quantity zero or below removes the line. Returns false when the item is
// not in the cart.
func (s *Session) SetItemQuantity(menuItemID int64, quantity int) bool {
	for idx := range s.Cart {
		if s.Cart[idx].MenuItemID != menuItemID {
			continue
		}
		if quantity <= 0 {
			s.Cart = append(s.Cart[:idx], s.Cart[idx+1:]...)
			return true
		}
		s.Cart[idx].Quantity = quantity
		s.Cart[idx].LineTotal = s.Cart[idx].unitWithModifiers() * float64(quantity)
		return true
	}
	return false
}

// SetItemNotes updates a line's special instructions.
func (s *Session) SetItemNotes(menuItemID int64, notes string) bool {
	for idx := range s.Cart {
		if s.Cart[idx].MenuItemID == menuItemID {
			s.Cart[idx].Notes = notes
			return true
		}
	}
	return false
}

// RemoveItem deletes all lines for menuItemID.
func (s *Session) RemoveItem(menuItemID int64) bool {
	kept := s.Cart[:0]
	removed := false
	for _, item := range s.Cart {
		if item.MenuItemID == menuItemID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	s.Cart = kept
	return removed
}

// Subtotal sums the cart line totals.
func (s *Session) Subtotal() float64 {
	var total float64
	for _, item := range s.Cart {
		total += item.LineTotal
	}
	return total
}

// ItemCount returns the total quantity across lines.
func (s *Session) ItemCount() int {
	count := 0
	for _, item := range s.Cart {
		count += item.Quantity
	}
	return count
}

// ClearCart empties the cart and drops any applied promo, since a promo is
// only meaningful against the cart it was applied to.
func (s *Session) ClearCart() {
	s.Cart = []CartItem{}
	s.PromoCode = ""
	s.Discount = 0
}

// ============================================================================
// HISTORY
// ============================================================================

// Append adds a message to the history. User messages advance the turn
// counter used by the summarization cadence.
func (s *Session) Append(msg llms.Message) {
	s.History = append(s.History, msg)
	if msg.Role == llms.RoleUser {
		s.UserTurns++
	}
}

// AppendUser appends a user message.
func (s *Session) AppendUser(content string) {
	s.Append(llms.UserMessage(content))
}

// AppendAssistant appends an assistant message.
func (s *Session) AppendAssistant(content string) {
	s.Append(llms.AssistantMessage(content))
}

// RecentHistory returns the last n messages, widened backward so the window
// never opens on a tool result without the assistant call that produced it.
func (s *Session) RecentHistory(n int) []llms.Message {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := len(s.History) - n
	if start < 0 {
		start = 0
	}
	for start > 0 && s.History[start].Role == llms.RoleTool {
		start--
	}
	return s.History[start:]
}

// ============================================================================
// STATE HELPERS
// ============================================================================

// ConsumeCameFromCheckout returns the checkout breadcrumb and clears both
// breadcrumbs. Breadcrumbs are one-shot by contract.
func (s *Session) ConsumeCameFromCheckout() bool {
	came := s.CameFromCheckout
	s.CameFromCheckout = false
	s.CameFromOrder = false
	return came
}

// ResetToInit returns the conversation to the initial state after a
// cancellation: empty cart, no promo, no breadcrumbs, no pending order
// type. Customer identity and history survive so a restart stays natural.
func (s *Session) ResetToInit() {
	s.State = fsm.StateInit
	s.ClearCart()
	s.OrderType = ""
	s.DeliveryFee = 0
	s.CameFromCheckout = false
	s.CameFromOrder = false
}
