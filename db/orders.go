package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
)

// Order is a row from orders, optionally with its line items loaded.
type Order struct {
	ID              int64       `json:"id"`
	SessionID       string      `json:"session_id"`
	CustomerName    string      `json:"customer_name"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address,omitempty"`
	DeliveryAreaID  *int64      `json:"delivery_area_id,omitempty"`
	AreaNameAr      string      `json:"area_name_ar,omitempty"`
	OrderType       string      `json:"order_type"`
	Subtotal        float64     `json:"subtotal"`
	DeliveryFee     float64     `json:"delivery_fee"`
	Discount        float64     `json:"discount_amount"`
	PromoCodeID     *int64      `json:"promo_code_id,omitempty"`
	Total           float64     `json:"total"`
	Status          string      `json:"status"`
	Notes           string      `json:"notes,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem is a row from order_items.
type OrderItem struct {
	ID         int64               `json:"id"`
	MenuItemID int64               `json:"menu_item_id"`
	NameAr     string              `json:"item_name_ar"`
	Quantity   int                 `json:"quantity"`
	UnitPrice  float64             `json:"unit_price"`
	LineTotal  float64             `json:"total_price"`
	Notes      string              `json:"special_instructions,omitempty"`
	Modifiers  []OrderItemModifier `json:"modifiers,omitempty"`
}

// OrderItemModifier is a row from order_item_modifiers.
type OrderItemModifier struct {
	ModifierID int64   `json:"modifier_id"`
	NameAr     string  `json:"modifier_name_ar"`
	PriceDelta float64 `json:"price_adjustment"`
}

// CreateOrderParams carries everything CreateOrder persists. Amounts are
// taken as given; the checkout tool has already priced the cart.
type CreateOrderParams struct {
	SessionID       string
	CustomerName    string
	CustomerPhone   string
	DeliveryAddress string
	DeliveryAreaID  *int64
	OrderType       string
	Subtotal        float64
	DeliveryFee     float64
	Discount        float64
	PromoCodeID     *int64
	Total           float64
	Items           []session.CartItem
	Notes           string
}

// OrderReceipt is what the customer gets back after a confirmed order.
type OrderReceipt struct {
	OrderID     int64     `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CreatedAt   time.Time `json:"created_at"`
}

// OrderStore writes and reads orders.
type OrderStore struct {
	db *sql.DB
}

// CreateOrder persists the order header, its items, their modifiers, and
// the promo redemption in a single transaction. Either the whole order
// exists afterwards or none of it does.
func (s *OrderStore) CreateOrder(ctx context.Context, p CreateOrderParams) (*OrderReceipt, error) {
	now := time.Now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var (
		orderID   int64
		createdAt time.Time
	)
	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (
		     session_id, customer_name, customer_phone, delivery_address,
		     delivery_area_id, order_type, subtotal, delivery_fee,
		     discount_amount, promo_code_id, total, status, notes,
		     created_at, updated_at
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 'confirmed', $12, $13, $13)
		 RETURNING id, created_at`,
		p.SessionID, p.CustomerName, p.CustomerPhone, nullString(p.DeliveryAddress),
		nullInt64(p.DeliveryAreaID), p.OrderType, p.Subtotal, p.DeliveryFee,
		p.Discount, nullInt64(p.PromoCodeID), p.Total, nullString(p.Notes), now,
	).Scan(&orderID, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range p.Items {
		var orderItemID int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (
			     order_id, menu_item_id, item_name_ar, quantity,
			     unit_price, total_price, special_instructions
			 )
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 RETURNING id`,
			orderID, item.MenuItemID, item.NameAr, item.Quantity,
			item.UnitPrice, item.LineTotal, nullString(item.Notes),
		).Scan(&orderItemID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}

		for _, mod := range item.Modifiers {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO order_item_modifiers (
				     order_item_id, modifier_id, modifier_name_ar, price_adjustment
				 )
				 VALUES ($1, $2, $3, $4)`,
				orderItemID, mod.ModifierID, mod.NameAr, mod.PriceDelta)
			if err != nil {
				return nil, fmt.Errorf("failed to insert order item modifier: %w", err)
			}
		}
	}

	// Redeem the promo inside the same transaction: the usage count must
	// not move unless the order commits.
	if p.PromoCodeID != nil {
		_, err = tx.ExecContext(ctx,
			`UPDATE promo_codes
			 SET usage_count = usage_count + 1
			 WHERE id = $1 AND is_active = true`, *p.PromoCodeID)
		if err != nil {
			return nil, fmt.Errorf("failed to increment promo usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	return &OrderReceipt{
		OrderID:     orderID,
		OrderNumber: FormatOrderNumber(orderID),
		CreatedAt:   createdAt,
	}, nil
}

// FormatOrderNumber renders the customer-facing order number.
func FormatOrderNumber(orderID int64) string {
	return fmt.Sprintf("ORD-%06d", orderID)
}

// GetOrder loads an order with its items and modifiers, or ErrNotFound.
func (s *OrderStore) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	var (
		o          Order
		address    sql.NullString
		areaID     sql.NullInt64
		areaNameAr sql.NullString
		promoID    sql.NullInt64
		notes      sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT o.id, o.session_id, o.customer_name, o.customer_phone,
		        o.delivery_address, o.delivery_area_id, ca.name_ar,
		        o.order_type, o.subtotal, o.delivery_fee, o.discount_amount,
		        o.promo_code_id, o.total, o.status, o.notes,
		        o.created_at, o.updated_at
		 FROM orders o
		 LEFT JOIN covered_areas ca ON o.delivery_area_id = ca.id
		 WHERE o.id = $1`, orderID,
	).Scan(&o.ID, &o.SessionID, &o.CustomerName, &o.CustomerPhone,
		&address, &areaID, &areaNameAr,
		&o.OrderType, &o.Subtotal, &o.DeliveryFee, &o.Discount,
		&promoID, &o.Total, &o.Status, &notes,
		&o.CreatedAt, &o.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	o.DeliveryAddress = address.String
	o.AreaNameAr = areaNameAr.String
	o.Notes = notes.String
	if areaID.Valid {
		o.DeliveryAreaID = &areaID.Int64
	}
	if promoID.Valid {
		o.PromoCodeID = &promoID.Int64
	}

	items, err := s.orderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func (s *OrderStore) orderItems(ctx context.Context, orderID int64) ([]OrderItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, menu_item_id, item_name_ar, quantity,
		        unit_price, total_price, special_instructions
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		var (
			item  OrderItem
			notes sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.MenuItemID, &item.NameAr,
			&item.Quantity, &item.UnitPrice, &item.LineTotal, &notes); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		item.Notes = notes.String
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range items {
		modRows, err := s.db.QueryContext(ctx,
			`SELECT modifier_id, modifier_name_ar, price_adjustment
			 FROM order_item_modifiers
			 WHERE order_item_id = $1
			 ORDER BY id`, items[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to query order item modifiers: %w", err)
		}
		for modRows.Next() {
			var m OrderItemModifier
			if err := modRows.Scan(&m.ModifierID, &m.NameAr, &m.PriceDelta); err != nil {
				modRows.Close()
				return nil, fmt.Errorf("failed to scan order item modifier: %w", err)
			}
			items[i].Modifiers = append(items[i].Modifiers, m)
		}
		if err := modRows.Err(); err != nil {
			modRows.Close()
			return nil, err
		}
		modRows.Close()
	}

	return items, nil
}

// OrdersBySession returns a session's orders, newest first, headers only.
func (s *OrderStore) OrdersBySession(ctx context.Context, sessionID string) ([]Order, error) {
	return s.queryOrderHeaders(ctx,
		`SELECT id, customer_name, customer_phone, order_type,
		        total, status, created_at
		 FROM orders
		 WHERE session_id = $1
		 ORDER BY created_at DESC`, sessionID)
}

// OrdersByPhone returns a customer's ten most recent orders.
func (s *OrderStore) OrdersByPhone(ctx context.Context, phone string) ([]Order, error) {
	return s.queryOrderHeaders(ctx,
		`SELECT id, customer_name, customer_phone, order_type,
		        total, status, created_at
		 FROM orders
		 WHERE customer_phone = $1
		 ORDER BY created_at DESC
		 LIMIT 10`, phone)
}

func (s *OrderStore) queryOrderHeaders(ctx context.Context, query string, args ...any) ([]Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone,
			&o.OrderType, &o.Total, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// UpdateStatus moves an order to a new status. Returns false when the
// order does not exist.
func (s *OrderStore) UpdateStatus(ctx context.Context, orderID int64, status string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $2, updated_at = $3
		 WHERE id = $1`, orderID, status, time.Now())
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}
