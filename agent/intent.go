package agent

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
)

// ============================================================================
// INTENT CLASSIFIER
// ============================================================================

// intentSystemPrompt is the JSON-mode classification contract. Greetings
// count as ordering on purpose: the greeting agent owns the welcome, and a
// misrouted hello costs nothing.
const intentSystemPrompt = `أنت مصنف نوايا ذكي. مهمتك تحديد قصد العميل من رسالته.

## الأنواع المتاحة:
- ordering: العميل يريد طلب أكل أو يرحب (مثال: "أبي أطلب", "السلام عليكم", "مرحبا", "عندكم برجر؟")
- complaint: العميل عنده شكوى واضحة (مثال: "طلبي متأخر", "الأكل بارد", "أبي أشتكي")
- inquiry: استفسار عام بدون نية طلب (مثال: "وين موقعكم؟", "كم ساعات العمل؟")
- other: أي شي ثاني غير واضح

## قواعد مهمة:
- التحيات والسلام تُصنف كـ ordering
- إذا العميل يسأل عن القائمة أو الأصناف = ordering
- الشكاوى يجب أن تكون واضحة وصريحة

## صيغة الرد (JSON):
{"intent": "ordering|complaint|inquiry|other", "confidence": 0.0-1.0, "rationale_ar": "سبب قصير"}`

// IntentResult is a classified user intention.
type IntentResult struct {
	Intent      fsm.Intent
	Confidence  float64
	RationaleAr string
}

// Trigger maps the classification to its FSM trigger.
func (r IntentResult) Trigger() fsm.Trigger {
	return fsm.IntentTrigger(r.Intent)
}

// IntentClassifier routes the first user turn of a session. It uses the
// low-temperature "intent" LLM instance and never surfaces errors: any
// failure, including unparseable output, degrades to ordering so the
// customer lands with the greeter instead of an apology.
type IntentClassifier struct {
	providers ProviderGetter
}

// NewIntentClassifier builds a classifier over the provider registry.
func NewIntentClassifier(providers ProviderGetter) *IntentClassifier {
	return &IntentClassifier{providers: providers}
}

// Classify labels one user message.
func (c *IntentClassifier) Classify(ctx context.Context, userText string) IntentResult {
	result := IntentResult{Intent: fsm.IntentOrdering}

	provider, err := c.providers.GetProvider(config.LLMIntent)
	if err != nil {
		slog.Error("intent llm unavailable, defaulting to ordering", "error", err)
		return result
	}

	messages := []llms.Message{
		llms.SystemMessage(intentSystemPrompt),
		llms.UserMessage(userText),
	}
	started := time.Now()
	text, _, _, err := provider.Generate(ctx, messages, nil)
	recordLLMMetrics(ctx, config.LLMIntent, started, err)
	if err != nil {
		slog.Warn("intent classification failed, defaulting to ordering", "error", err)
		return result
	}

	var payload struct {
		Intent      string  `json:"intent"`
		Confidence  float64 `json:"confidence"`
		RationaleAr string  `json:"rationale_ar"`
	}
	if err := json.Unmarshal([]byte(extractJSON(text)), &payload); err != nil {
		slog.Warn("intent response was not valid JSON, defaulting to ordering",
			"error", err, "response", text)
		return result
	}

	switch intent := fsm.Intent(strings.ToLower(strings.TrimSpace(payload.Intent))); intent {
	case fsm.IntentOrdering, fsm.IntentComplaint, fsm.IntentInquiry, fsm.IntentOther:
		result.Intent = intent
	default:
		slog.Warn("unknown intent label, defaulting to ordering", "intent", payload.Intent)
	}
	result.Confidence = clamp01(payload.Confidence)
	result.RationaleAr = payload.RationaleAr
	return result
}

// extractJSON peels markdown fences or prose off a JSON-mode response by
// slicing from the first brace to the last.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
