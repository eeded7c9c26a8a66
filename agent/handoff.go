package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// ============================================================================
// HANDOFF PROTOCOL
// ============================================================================

// Handoff targets an agent may request. "greeting" and "end" are routed by
// the orchestrator to intent/terminal triggers; the rest map to the states
// of the same name.
const (
	HandoffLocation = "location"
	HandoffOrder    = "order"
	HandoffCheckout = "checkout"
	HandoffGreeting = "greeting"
	HandoffEnd      = "end"
)

// handoffPattern matches the marker agents append to their reply. The
// target is captured case-insensitively; models occasionally shout.
var handoffPattern = regexp.MustCompile(`(?i)\[HANDOFF:\s*([a-zA-Z]+)\s*\]`)

// KnownHandoff reports whether target belongs to the protocol vocabulary.
func KnownHandoff(target string) bool {
	switch target {
	case HandoffLocation, HandoffOrder, HandoffCheckout, HandoffGreeting, HandoffEnd:
		return true
	}
	return false
}

// ExtractHandoff pulls the first recognized handoff marker out of assistant
// text. It returns the target and the user-visible text with every marker
// stripped. Markers with unknown targets are stripped but produce no
// handoff, so a hallucinated target degrades to "stay in state".
func ExtractHandoff(text string) (target, cleaned string) {
	cleaned = handoffPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := handoffPattern.FindStringSubmatch(m)
		t := strings.ToLower(sub[1])
		if target == "" && KnownHandoff(t) {
			target = t
		}
		return ""
	})
	return target, strings.TrimSpace(cleaned)
}

// ============================================================================
// HANDOFF HINTS
// ============================================================================

// HandoffHint builds the short Arabic line that seeds the next agent's
// context after a transition. It reads the session after reconciliation,
// so order type and fees reflect what the tools actually recorded.
func HandoffHint(from fsm.State, target string, sess *session.Session) string {
	switch target {
	case HandoffLocation:
		switch from {
		case fsm.StateCheckout:
			return "العميل يبي يغير الموقع (راجع من المحاسبة)"
		case fsm.StateOrdering:
			return "العميل يبي يغير الموقع (راجع من الطلب)"
		default:
			return "العميل جاهز للطلب، نحتاج نحدد توصيل أو استلام"
		}
	case HandoffOrder:
		if from == fsm.StateCheckout {
			return "العميل يبي يعدل الأصناف (راجع من المحاسبة)"
		}
		switch sess.OrderType {
		case session.OrderTypePickup:
			return "العميل جاهز يختار أكله، نوع الطلب: استلام"
		case session.OrderTypeDelivery:
			if sess.Location.AreaName != "" {
				return fmt.Sprintf("العميل من %s، رسوم التوصيل %s",
					sess.Location.AreaName, utils.FormatPriceAr(sess.DeliveryFee))
			}
			return "العميل جاهز يختار أكله، نوع الطلب: توصيل"
		default:
			return "العميل جاهز يختار أكله"
		}
	case HandoffCheckout:
		if from == fsm.StateLocation {
			return "العميل حدّث الموقع ورجع لإنهاء الطلب، نوع الطلب: " + orderTypeAr(sess)
		}
		return fmt.Sprintf("العميل خلص اختياره وجاهز يدفع، بالسلة %d صنف بمجموع %s",
			sess.ItemCount(), utils.FormatPriceAr(sess.Subtotal()))
	case HandoffGreeting:
		if from == fsm.StateComplaint {
			return "انحلت شكوى العميل وحاب يبدأ طلب جديد"
		}
		return "العميل حاب يبدأ طلب"
	default:
		return ""
	}
}
