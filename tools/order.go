package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/db"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/menu"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// ============================================================================
// ORDER TOOLS
// ============================================================================

// menuItemPayload is the flat item shape search and details results carry
// to the model.
type menuItemPayload struct {
	ID            int64   `json:"id"`
	NameAr        string  `json:"name_ar"`
	NameEn        string  `json:"name_en,omitempty"`
	Price         float64 `json:"price"`
	Category      string  `json:"category"`
	DescriptionAr string  `json:"description_ar,omitempty"`
	Score         float64 `json:"score,omitempty"`
}

func itemPayload(item db.MenuItem, score float64) menuItemPayload {
	return menuItemPayload{
		ID:            item.ID,
		NameAr:        item.NameAr,
		NameEn:        item.NameEn,
		Price:         item.Price,
		Category:      item.CategoryAr,
		DescriptionAr: item.DescriptionAr,
		Score:         score,
	}
}

// cartLineAr renders one cart line for Arabic summaries. Modifiers follow
// the item name; notes close the line, matching the confirmation style.
func cartLineAr(item session.CartItem) string {
	line := fmt.Sprintf("• %d× %s", item.Quantity, item.NameAr)
	if len(item.Modifiers) > 0 {
		names := make([]string, len(item.Modifiers))
		for i, m := range item.Modifiers {
			names[i] = m.NameAr
		}
		line += " (" + strings.Join(names, "، ") + ")"
	}
	line += fmt.Sprintf(" = %s ريال", db.FormatAmount(item.LineTotal))
	if item.Notes != "" {
		line += " (" + item.Notes + ")"
	}
	return line
}

// ----------------------------------------------------------------------------
// search_menu
// ----------------------------------------------------------------------------

// SearchMenuTool finds menu items for a natural-language query.
type SearchMenuTool struct {
	searcher *menu.Searcher
}

// NewSearchMenuTool creates the menu search tool.
func NewSearchMenuTool(searcher *menu.Searcher) *SearchMenuTool {
	return &SearchMenuTool{searcher: searcher}
}

// GetInfo returns tool metadata.
func (t *SearchMenuTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "search_menu",
		Description: "البحث في المنيو عن أصناف تناسب طلب العميل، مثل: برجر، شي حار، دجاج مقلي.",
		Parameters: []ToolParameter{
			{
				Name:        "query",
				Type:        "string",
				Description: "وش يدور عليه العميل، بالعربي",
				Required:    true,
			},
			{
				Name:        "category",
				Type:        "string",
				Description: "تضييق البحث على فئة معينة، مثل: المشروبات",
				Required:    false,
			},
		},
		Agents: []string{AgentOrder},
	}
}

type searchMenuArgs struct {
	Query    string `json:"query"`
	Category string `json:"category"`
}

// Execute runs the search and returns up to ten matches.
func (t *SearchMenuTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "search_menu"

	var in searchMenuArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}

	results, err := t.searcher.Search(ctx, in.Query, in.Category, menu.DefaultTopK)
	if err != nil {
		return failResult(name, err)
	}

	items := make([]menuItemPayload, 0, len(results))
	for _, r := range results {
		items = append(items, itemPayload(r.Item, r.Score))
	}

	payload := map[string]interface{}{
		"results": items,
		"count":   len(items),
	}
	if len(items) == 0 {
		payload["message_ar"] = fmt.Sprintf("ما لقيت شي يطابق '%s' بالمنيو.", strings.TrimSpace(in.Query))
	}
	return okResult(name, payload), nil
}

// ----------------------------------------------------------------------------
// get_item_details
// ----------------------------------------------------------------------------

// GetItemDetailsTool returns one item with its modifier groups.
type GetItemDetailsTool struct {
	catalog *menu.Catalog
}

// NewGetItemDetailsTool creates the item details tool.
func NewGetItemDetailsTool(catalog *menu.Catalog) *GetItemDetailsTool {
	return &GetItemDetailsTool{catalog: catalog}
}

// GetInfo returns tool metadata.
func (t *GetItemDetailsTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "get_item_details",
		Description: "تفاصيل صنف واحد بالكامل: السعر والوصف والإضافات المتاحة.",
		Parameters: []ToolParameter{
			{
				Name:        "item_id",
				Type:        "integer",
				Description: "رقم الصنف من نتائج البحث",
				Required:    true,
			},
		},
		Agents: []string{AgentOrder},
	}
}

type itemDetailsArgs struct {
	ItemID int64 `json:"item_id"`
}

// Execute loads the item and its modifier groups from the catalog.
func (t *GetItemDetailsTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "get_item_details"

	var in itemDetailsArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}

	details, err := t.catalog.GetItemWithModifiers(ctx, in.ItemID)
	if errors.Is(err, db.ErrNotFound) {
		return rejectResult(name, fmt.Sprintf("الصنف غير موجود: %d", in.ItemID)), nil
	}
	if err != nil {
		return failResult(name, err)
	}

	return okResult(name, map[string]interface{}{
		"id":              details.ID,
		"name_ar":         details.NameAr,
		"name_en":         details.NameEn,
		"price":           details.Price,
		"category":        details.CategoryAr,
		"description_ar":  details.DescriptionAr,
		"available":       details.IsAvailable,
		"modifier_groups": details.ModifierGroups,
	}), nil
}

// ----------------------------------------------------------------------------
// add_to_order
// ----------------------------------------------------------------------------

// AddToOrderTool adds an item to the cart, enforcing availability, quantity
// bounds, and the modifier selection rules.
type AddToOrderTool struct {
	catalog *menu.Catalog
}

// NewAddToOrderTool creates the add-to-cart tool.
func NewAddToOrderTool(catalog *menu.Catalog) *AddToOrderTool {
	return &AddToOrderTool{catalog: catalog}
}

// GetInfo returns tool metadata.
func (t *AddToOrderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "add_to_order",
		Description: "إضافة صنف لسلة العميل. تأكد من رقم الصنف قبل الإضافة.",
		Parameters: []ToolParameter{
			{
				Name:        "item_id",
				Type:        "integer",
				Description: "رقم الصنف",
				Required:    true,
			},
			{
				Name:        "quantity",
				Type:        "integer",
				Description: "الكمية",
				Required:    false,
				Default:     1,
			},
			{
				Name:        "notes",
				Type:        "string",
				Description: "ملاحظات خاصة، مثل: بدون بصل",
				Required:    false,
			},
			{
				Name:        "modifier_ids",
				Type:        "array",
				Description: "أرقام الإضافات المختارة من modifier_groups",
				Required:    false,
			},
		},
		Agents: []string{AgentOrder},
	}
}

type addToOrderArgs struct {
	ItemID      int64   `json:"item_id"`
	Quantity    int     `json:"quantity"`
	Notes       string  `json:"notes"`
	ModifierIDs []int64 `json:"modifier_ids"`
}

// Execute validates the selection and merges it into the cart.
func (t *AddToOrderTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "add_to_order"

	in := addToOrderArgs{Quantity: 1}
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}
	if ok, msg := utils.ValidateQuantity(in.Quantity); !ok {
		return rejectResult(name, msg), nil
	}

	item, err := t.catalog.GetItem(ctx, in.ItemID)
	if errors.Is(err, db.ErrNotFound) {
		return rejectResult(name, fmt.Sprintf("الصنف غير موجود: %d", in.ItemID)), nil
	}
	if err != nil {
		return failResult(name, err)
	}
	if !item.IsAvailable {
		return rejectResult(name, fmt.Sprintf("للأسف %s غير متوفر حالياً", item.NameAr)), nil
	}

	var modifiers []session.CartModifier
	if len(in.ModifierIDs) > 0 {
		ok, problems, err := t.catalog.ValidateModifiers(ctx, in.ItemID, in.ModifierIDs)
		if err != nil {
			return failResult(name, err)
		}
		if !ok {
			return rejectResult(name, strings.Join(problems, "\n")), nil
		}
		modifiers, err = t.selectedModifiers(ctx, in.ItemID, in.ModifierIDs)
		if err != nil {
			return failResult(name, err)
		}
	}

	line := session.NewCartItem(item.ID, item.NameAr, in.Quantity, item.Price, modifiers, strings.TrimSpace(in.Notes))
	sess.AddItem(line)
	subtotal := sess.Subtotal()

	message := fmt.Sprintf("تمام! أضفت %d× %s", in.Quantity, item.NameAr)
	if line.Notes != "" {
		message += " (" + line.Notes + ")"
	}
	message += fmt.Sprintf(". المجموع: %s ريال", db.FormatAmount(subtotal))

	return okResult(name, map[string]interface{}{
		"success":       true,
		"order_item":    line,
		"current_total": subtotal,
		"item_count":    sess.ItemCount(),
		"message_ar":    message,
	}), nil
}

// selectedModifiers resolves validated modifier ids into cart modifiers
// using the cached item details. Validation already proved every id belongs
// to one of the item's groups and is available.
func (t *AddToOrderTool) selectedModifiers(ctx context.Context, itemID int64, modifierIDs []int64) ([]session.CartModifier, error) {
	details, err := t.catalog.GetItemWithModifiers(ctx, itemID)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]db.Modifier)
	for _, group := range details.ModifierGroups {
		for _, m := range group.Modifiers {
			byID[m.ID] = m
		}
	}

	modifiers := make([]session.CartModifier, 0, len(modifierIDs))
	for _, id := range modifierIDs {
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("modifier %d missing from item %d details", id, itemID)
		}
		modifiers = append(modifiers, session.CartModifier{
			ModifierID: m.ID,
			NameAr:     m.NameAr,
			PriceDelta: m.PriceDelta,
		})
	}
	return modifiers, nil
}

// ----------------------------------------------------------------------------
// get_current_order
// ----------------------------------------------------------------------------

// GetCurrentOrderTool summarizes the cart.
type GetCurrentOrderTool struct{}

// NewGetCurrentOrderTool creates the cart summary tool.
func NewGetCurrentOrderTool() *GetCurrentOrderTool {
	return &GetCurrentOrderTool{}
}

// GetInfo returns tool metadata.
func (t *GetCurrentOrderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "get_current_order",
		Description: "عرض سلة العميل الحالية مع المجموع.",
		Agents:      []string{AgentOrder, AgentCheckout},
	}
}

// Execute renders the cart as data plus an Arabic summary.
func (t *GetCurrentOrderTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "get_current_order"

	if len(sess.Cart) == 0 {
		return okResult(name, map[string]interface{}{
			"items":      []session.CartItem{},
			"subtotal":   0.0,
			"item_count": 0,
			"summary_ar": "السلة فارغة",
		}), nil
	}

	lines := make([]string, 0, len(sess.Cart))
	for _, item := range sess.Cart {
		lines = append(lines, cartLineAr(item))
	}
	subtotal := sess.Subtotal()
	summary := strings.Join(lines, "\n") + fmt.Sprintf("\n\nالمجموع: %s ريال", db.FormatAmount(subtotal))

	return okResult(name, map[string]interface{}{
		"items":      sess.Cart,
		"subtotal":   subtotal,
		"item_count": sess.ItemCount(),
		"summary_ar": summary,
	}), nil
}

// ----------------------------------------------------------------------------
// update_order_item
// ----------------------------------------------------------------------------

// UpdateOrderItemTool changes quantity or notes on a cart line. Quantity
// zero removes the line.
type UpdateOrderItemTool struct{}

// NewUpdateOrderItemTool creates the cart update tool.
func NewUpdateOrderItemTool() *UpdateOrderItemTool {
	return &UpdateOrderItemTool{}
}

// GetInfo returns tool metadata.
func (t *UpdateOrderItemTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "update_order_item",
		Description: "تعديل صنف موجود بالسلة: الكمية أو الملاحظات. كمية صفر تحذف الصنف.",
		Parameters: []ToolParameter{
			{
				Name:        "item_id",
				Type:        "integer",
				Description: "رقم الصنف",
				Required:    true,
			},
			{
				Name:        "quantity",
				Type:        "integer",
				Description: "الكمية الجديدة، صفر للحذف",
				Required:    false,
			},
			{
				Name:        "notes",
				Type:        "string",
				Description: "الملاحظات الجديدة",
				Required:    false,
			},
		},
		Agents: []string{AgentOrder},
	}
}

type updateOrderItemArgs struct {
	ItemID   int64   `json:"item_id"`
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

// Execute applies the requested changes to the cart line.
func (t *UpdateOrderItemTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "update_order_item"

	var in updateOrderItemArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}
	if in.Quantity == nil && in.Notes == nil {
		return rejectResult(name, "وش تبي تعدل: الكمية ولا الملاحظات؟"), nil
	}

	line := sess.FindItem(in.ItemID)
	if line == nil {
		return rejectResult(name, "الصنف مو موجود في السلة"), nil
	}
	itemName := line.NameAr

	if in.Quantity != nil {
		quantity := *in.Quantity
		if quantity <= 0 {
			sess.SetItemQuantity(in.ItemID, 0)
			return okResult(name, map[string]interface{}{
				"success":      true,
				"action":       "removed",
				"new_subtotal": sess.Subtotal(),
				"message_ar":   fmt.Sprintf("شلت %s من السلة", itemName),
			}), nil
		}
		if quantity > 99 {
			return rejectResult(name, "الحد الأقصى للكمية هو 99"), nil
		}
		sess.SetItemQuantity(in.ItemID, quantity)
	}

	if in.Notes != nil {
		sess.SetItemNotes(in.ItemID, strings.TrimSpace(*in.Notes))
	}

	message := "تمام، حدثت الملاحظات"
	if in.Quantity != nil {
		message = fmt.Sprintf("تمام، صارت %d× %s", *in.Quantity, itemName)
		if in.Notes != nil {
			message += " وحدثت الملاحظات"
		}
	}

	return okResult(name, map[string]interface{}{
		"success":      true,
		"action":       "updated",
		"new_subtotal": sess.Subtotal(),
		"message_ar":   message,
	}), nil
}

// ----------------------------------------------------------------------------
// remove_from_order
// ----------------------------------------------------------------------------

// RemoveFromOrderTool deletes a cart line.
type RemoveFromOrderTool struct{}

// NewRemoveFromOrderTool creates the cart removal tool.
func NewRemoveFromOrderTool() *RemoveFromOrderTool {
	return &RemoveFromOrderTool{}
}

// GetInfo returns tool metadata.
func (t *RemoveFromOrderTool) GetInfo() ToolInfo {
	return ToolInfo{
		Name:        "remove_from_order",
		Description: "حذف صنف من السلة نهائياً.",
		Parameters: []ToolParameter{
			{
				Name:        "item_id",
				Type:        "integer",
				Description: "رقم الصنف",
				Required:    true,
			},
		},
		Agents: []string{AgentOrder},
	}
}

type removeFromOrderArgs struct {
	ItemID int64 `json:"item_id"`
}

// Execute drops every cart line for the item.
func (t *RemoveFromOrderTool) Execute(ctx context.Context, sess *session.Session, args map[string]interface{}) (ToolResult, error) {
	const name = "remove_from_order"

	var in removeFromOrderArgs
	if err := decodeArgs(args, &in); err != nil {
		return failResult(name, err)
	}

	if !sess.RemoveItem(in.ItemID) {
		return rejectResult(name, "الصنف مو موجود في السلة"), nil
	}

	return okResult(name, map[string]interface{}{
		"success":      true,
		"new_subtotal": sess.Subtotal(),
		"message_ar":   "تم حذف الصنف من السلة",
	}), nil
}
