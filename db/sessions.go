package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

// SessionStore persists sessions. The FSM position and customer identity
// live in plain columns; cart, history, location, and metadata are JSONB
// documents matching the session package's JSON shapes.
type SessionStore struct {
	db     *sql.DB
	expiry time.Duration
}

const sessionColumns = `id, state, customer_name, customer_phone, location,
       order_type, delivery_fee, cart, applied_promo_code, discount,
       conversation_history, conversation_summary_ar, user_turns,
       came_from_checkout, came_from_order, last_order_id, metadata,
       created_at, updated_at, expires_at`

// Get loads a session regardless of expiry, or returns ErrNotFound. The
// expiry decision belongs to GetOrCreate; Get serves diagnostics.
func (s *SessionStore) Get(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, _, err := s.get(ctx, sessionID)
	return sess, err
}

// GetOrCreate returns the live session for an id. A missing session is
// created fresh; an expired one is deleted and replaced by a fresh one, so
// a customer returning after the expiry window starts a new conversation.
func (s *SessionStore) GetOrCreate(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, expiresAt, err := s.get(ctx, sessionID)
	if err == nil {
		if time.Now().Before(expiresAt) {
			return sess, nil
		}
		if err := s.Delete(ctx, sessionID); err != nil {
			return nil, err
		}
		return s.create(ctx, sessionID)
	}
	if errors.Is(err, ErrNotFound) {
		return s.create(ctx, sessionID)
	}
	return nil, err
}

func (s *SessionStore) create(ctx context.Context, sessionID string) (*session.Session, error) {
	sess := session.New(sessionID)
	if err := s.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Save upserts the session and slides its expiry window forward: every
// write keeps the conversation alive for another full expiry period.
func (s *SessionStore) Save(ctx context.Context, sess *session.Session) error {
	now := time.Now().UTC()
	sess.UpdatedAt = now

	locationJSON, err := marshalJSONB(sess.Location, "{}")
	if err != nil {
		return fmt.Errorf("failed to marshal location: %w", err)
	}
	cartJSON, err := marshalJSONB(sess.Cart, "[]")
	if err != nil {
		return fmt.Errorf("failed to marshal cart: %w", err)
	}
	historyJSON, err := marshalJSONB(sess.History, "[]")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	metadataJSON, err := marshalJSONB(sess.Metadata, "{}")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (
		     id, state, customer_name, customer_phone, location,
		     order_type, delivery_fee, cart, applied_promo_code, discount,
		     conversation_history, conversation_summary_ar, user_turns,
		     came_from_checkout, came_from_order, last_order_id, metadata,
		     created_at, updated_at, expires_at
		 )
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		         $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		 ON CONFLICT (id) DO UPDATE SET
		     state = EXCLUDED.state,
		     customer_name = EXCLUDED.customer_name,
		     customer_phone = EXCLUDED.customer_phone,
		     location = EXCLUDED.location,
		     order_type = EXCLUDED.order_type,
		     delivery_fee = EXCLUDED.delivery_fee,
		     cart = EXCLUDED.cart,
		     applied_promo_code = EXCLUDED.applied_promo_code,
		     discount = EXCLUDED.discount,
		     conversation_history = EXCLUDED.conversation_history,
		     conversation_summary_ar = EXCLUDED.conversation_summary_ar,
		     user_turns = EXCLUDED.user_turns,
		     came_from_checkout = EXCLUDED.came_from_checkout,
		     came_from_order = EXCLUDED.came_from_order,
		     last_order_id = EXCLUDED.last_order_id,
		     metadata = EXCLUDED.metadata,
		     updated_at = EXCLUDED.updated_at,
		     expires_at = EXCLUDED.expires_at`,
		sess.ID, string(sess.State), nullString(sess.CustomerName),
		nullString(sess.CustomerPhone), locationJSON,
		nullString(sess.OrderType), sess.DeliveryFee, cartJSON,
		nullString(sess.PromoCode), sess.Discount,
		historyJSON, nullString(sess.Summary), sess.UserTurns,
		sess.CameFromCheckout, sess.CameFromOrder,
		nullString(sess.LastOrderID), metadataJSON,
		sess.CreatedAt, now, now.Add(s.expiry))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every lapsed session and reports how many went.
func (s *SessionStore) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < $1`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SessionStore) get(ctx context.Context, sessionID string) (*session.Session, time.Time, error) {
	var (
		sess                        session.Session
		state                       string
		name, phone, orderType      sql.NullString
		promo, summary, lastOrderID sql.NullString
		locationJSON, cartJSON      []byte
		historyJSON, metadataJSON   []byte
		expiresAt                   time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+`
		 FROM sessions
		 WHERE id = $1`, sessionID,
	).Scan(&sess.ID, &state, &name, &phone, &locationJSON,
		&orderType, &sess.DeliveryFee, &cartJSON, &promo, &sess.Discount,
		&historyJSON, &summary, &sess.UserTurns,
		&sess.CameFromCheckout, &sess.CameFromOrder, &lastOrderID, &metadataJSON,
		&sess.CreatedAt, &sess.UpdatedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, fmt.Errorf("session %q: %w", sessionID, ErrNotFound)
	}
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to get session: %w", err)
	}

	sess.State = fsm.State(state)
	sess.CustomerName = name.String
	sess.CustomerPhone = phone.String
	sess.OrderType = orderType.String
	sess.PromoCode = promo.String
	sess.Summary = summary.String
	sess.LastOrderID = lastOrderID.String

	if err := unmarshalJSONB(locationJSON, &sess.Location); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal location: %w", err)
	}
	if err := unmarshalJSONB(cartJSON, &sess.Cart); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal cart: %w", err)
	}
	if err := unmarshalJSONB(historyJSON, &sess.History); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	if err := unmarshalJSONB(metadataJSON, &sess.Metadata); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	if sess.Cart == nil {
		sess.Cart = []session.CartItem{}
	}
	if sess.History == nil {
		sess.History = []llms.Message{}
	}
	if sess.Metadata == nil {
		sess.Metadata = map[string]interface{}{}
	}

	return &sess, expiresAt, nil
}

// marshalJSONB marshals v for a JSONB column, substituting empty for a nil
// value so NOT NULL columns stay valid.
func marshalJSONB(v any, empty string) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return []byte(empty), nil
	}
	return b, nil
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
