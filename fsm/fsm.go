// Package fsm defines the conversation state machine that drives the
// ordering flow. States map one-to-one to the specialized agents that
// handle them; the orchestrator is the only component that fires triggers.
package fsm

import "fmt"

// ============================================================================
// STATES, INTENTS, AND TRIGGERS
// ============================================================================

// State is a conversation phase in the ordering flow.
type State string

const (
	StateInit      State = "INIT"
	StateIntent    State = "INTENT"
	StateGreeting  State = "GREETING"
	StateLocation  State = "LOCATION"
	StateOrdering  State = "ORDERING"
	StateCheckout  State = "CHECKOUT"
	StateFinalized State = "FINALIZED"
	StateComplaint State = "COMPLAINT"
	StateFallback  State = "FALLBACK"
)

// Intent is a coarse classification of what the customer wants.
type Intent string

const (
	IntentOrdering  Intent = "ordering"
	IntentComplaint Intent = "complaint"
	IntentInquiry   Intent = "inquiry"
	IntentOther     Intent = "other"
)

// Trigger is an event that may advance the state machine.
type Trigger string

const (
	TriggerStart Trigger = "start"
	TriggerRetry Trigger = "retry"
	TriggerExit  Trigger = "exit"

	TriggerIntentOrdering  Trigger = "intent_ordering"
	TriggerIntentComplaint Trigger = "intent_complaint"
	TriggerIntentInquiry   Trigger = "intent_inquiry"
	TriggerIntentOther     Trigger = "intent_other"

	TriggerConfirmOrder     Trigger = "confirm_order"
	TriggerNotOrdering      Trigger = "not_ordering"
	TriggerAddressValid     Trigger = "address_valid"
	TriggerPickupChosen     Trigger = "pickup_chosen"
	TriggerRestaurantClosed Trigger = "restaurant_closed"
	TriggerCheckout         Trigger = "checkout"
	TriggerContinueOrdering Trigger = "continue_ordering"
	TriggerOrderConfirmed   Trigger = "order_confirmed"
	TriggerModifyOrder      Trigger = "modify_order"
	TriggerChangeLocation   Trigger = "change_location"
	TriggerCancel           Trigger = "cancel"

	TriggerResolved Trigger = "resolved"
	TriggerEscalate Trigger = "escalate"
)

// ============================================================================
// TRANSITION TABLE
// ============================================================================

// transitions is the complete transition table, including the backward
// returns to LOCATION from ORDERING and CHECKOUT. Cancellation is not
// listed per state: any non-finalized state accepts TriggerCancel and
// returns to StateInit (see Next).
var transitions = map[State]map[Trigger]State{
	StateInit: {
		TriggerStart: StateIntent,
	},
	StateIntent: {
		TriggerIntentOrdering:  StateGreeting,
		TriggerIntentComplaint: StateComplaint,
		TriggerIntentInquiry:   StateFallback,
		TriggerIntentOther:     StateFallback,
	},
	StateGreeting: {
		TriggerConfirmOrder:     StateLocation,
		TriggerNotOrdering:      StateFallback,
		TriggerRestaurantClosed: StateFinalized,
	},
	StateLocation: {
		TriggerAddressValid:     StateOrdering,
		TriggerPickupChosen:     StateOrdering,
		TriggerRestaurantClosed: StateFinalized,
	},
	StateOrdering: {
		TriggerCheckout:         StateCheckout,
		TriggerContinueOrdering: StateOrdering,
		TriggerChangeLocation:   StateLocation,
	},
	StateCheckout: {
		TriggerOrderConfirmed: StateFinalized,
		TriggerModifyOrder:    StateOrdering,
		TriggerChangeLocation: StateLocation,
	},
	StateFinalized: {
		// A finalized conversation can start a fresh order.
		TriggerStart: StateIntent,
	},
	StateComplaint: {
		TriggerResolved: StateGreeting,
		TriggerEscalate: StateFinalized,
	},
	StateFallback: {
		TriggerRetry:          StateIntent,
		TriggerExit:           StateFinalized,
		TriggerIntentOrdering: StateGreeting,
	},
}

// Next returns the state reached by firing trigger from state, or false if
// the transition is not allowed.
func Next(state State, trigger Trigger) (State, bool) {
	if trigger == TriggerCancel && state != StateFinalized {
		return StateInit, true
	}
	next, ok := transitions[state][trigger]
	return next, ok
}

// CanFire reports whether trigger is valid from state.
func CanFire(state State, trigger Trigger) bool {
	_, ok := Next(state, trigger)
	return ok
}

// Triggers returns the triggers accepted from state, cancellation included.
func Triggers(state State) []Trigger {
	row := transitions[state]
	out := make([]Trigger, 0, len(row)+1)
	for trigger := range row {
		out = append(out, trigger)
	}
	if state != StateFinalized {
		out = append(out, TriggerCancel)
	}
	return out
}

// InvalidTransitionError reports a trigger fired from a state that does not
// accept it.
type InvalidTransitionError struct {
	State   State
	Trigger Trigger
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: trigger %q not allowed from state %q", e.Trigger, e.State)
}

// Fire applies trigger to state, returning the next state or an
// InvalidTransitionError.
func Fire(state State, trigger Trigger) (State, error) {
	next, ok := Next(state, trigger)
	if !ok {
		return state, &InvalidTransitionError{State: state, Trigger: trigger}
	}
	return next, nil
}

// ============================================================================
// MAPPINGS
// ============================================================================

// IntentTrigger converts an intent classification into its trigger.
// Unrecognized intents degrade to TriggerIntentOther.
func IntentTrigger(intent Intent) Trigger {
	switch intent {
	case IntentOrdering:
		return TriggerIntentOrdering
	case IntentComplaint:
		return TriggerIntentComplaint
	case IntentInquiry:
		return TriggerIntentInquiry
	default:
		return TriggerIntentOther
	}
}

// AgentFor names the agent role responsible for handling a state.
func AgentFor(state State) string {
	switch state {
	case StateGreeting:
		return "greeter"
	case StateLocation:
		return "location"
	case StateOrdering:
		return "order"
	case StateCheckout:
		return "checkout"
	case StateComplaint:
		return "complaint"
	case StateFallback:
		return "fallback"
	case StateFinalized:
		return "summarizer"
	default:
		return "intent"
	}
}

// DescribeAr returns the Arabic description of a state, used in prompts and
// session summaries.
func DescribeAr(state State) string {
	switch state {
	case StateInit:
		return "بداية المحادثة"
	case StateIntent:
		return "تحديد النية"
	case StateGreeting:
		return "الترحيب"
	case StateLocation:
		return "تحديد العنوان"
	case StateOrdering:
		return "اختيار الطلب"
	case StateCheckout:
		return "إتمام الطلب"
	case StateFinalized:
		return "اكتمال الطلب"
	case StateComplaint:
		return "معالجة الشكوى"
	case StateFallback:
		return "استفسار عام"
	default:
		return string(state)
	}
}

// Valid reports whether s is a known state. Sessions loaded from storage
// pass through this before the orchestrator trusts them.
func Valid(s State) bool {
	switch s {
	case StateInit, StateIntent, StateGreeting, StateLocation, StateOrdering,
		StateCheckout, StateFinalized, StateComplaint, StateFallback:
		return true
	}
	return false
}
