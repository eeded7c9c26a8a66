package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/utils"
)

// ============================================================================
// SUMMARIZER
// ============================================================================

// summarizerSystemPrompt asks for a compact Arabic digest; the rendered
// conversation is spliced in where %s stands.
const summarizerSystemPrompt = `أنت كاتب ملخصات في مطعم سعودي.

## مهمتك:
اكتب ملخص مختصر ومفيد للمحادثة بالعربي يشمل:
- نية العميل (طلب/شكوى/استفسار)
- نوع الطلب (توصيل/استلام)
- العنوان (إن وجد)
- الأصناف المطلوبة
- أي تفضيلات أو ملاحظات

## المحادثة:
%s

## قواعد:
- اكتب بشكل مختصر ومنظم
- لا تضف معلومات غير موجودة
- ركز على المعلومات المهمة فقط
- استخدم نقاط للوضوح

## صيغة الرد:
اكتب الملخص مباشرة بدون JSON`

// significantEdges are the transitions that always force a summary: the
// next agent starts with a different job and needs the history compacted.
var significantEdges = map[[2]fsm.State]bool{
	{fsm.StateGreeting, fsm.StateLocation}: true,
	{fsm.StateLocation, fsm.StateOrdering}: true,
	{fsm.StateOrdering, fsm.StateCheckout}: true,
}

// Summarizer compacts conversation history into an Arabic summary stored on
// the session. It never fails a turn: when the LLM is unreachable it falls
// back to a summary assembled from session facts.
type Summarizer struct {
	providers ProviderGetter
	interval  int
	threshold int
}

// NewSummarizer builds a summarizer tuned by the session configuration.
func NewSummarizer(providers ProviderGetter, cfg *config.SessionConfig) *Summarizer {
	interval := cfg.SummarizeInterval
	if interval <= 0 {
		interval = 5
	}
	threshold := cfg.SummarizeThreshold
	if threshold <= 0 {
		threshold = 2000
	}
	return &Summarizer{providers: providers, interval: interval, threshold: threshold}
}

// ShouldSummarize reports whether this turn warrants a summarization pass:
// a significant transition, every Nth user turn, or a history estimate
// past the token threshold.
func (s *Summarizer) ShouldSummarize(prev, next fsm.State, sess *session.Session) bool {
	if significantEdges[[2]fsm.State{prev, next}] {
		return true
	}
	if sess.UserTurns > 0 && sess.UserTurns%s.interval == 0 {
		return true
	}
	return historyEstimate(sess) > s.threshold
}

// Summarize produces the new summary text. The caller stores it on the
// session; a degraded (non-LLM) summary is still worth storing.
func (s *Summarizer) Summarize(ctx context.Context, sess *session.Session) string {
	provider, err := s.providers.GetProvider(config.LLMSummarizer)
	if err != nil {
		slog.Error("summarizer llm unavailable, using session facts",
			"session_id", sess.ID, "error", err)
		return basicSummaryAr(sess)
	}

	prompt := fmt.Sprintf(summarizerSystemPrompt, conversationAr(sess))
	started := time.Now()
	text, _, _, err := provider.Generate(ctx, []llms.Message{llms.SystemMessage(prompt)}, nil)
	recordLLMMetrics(ctx, config.LLMSummarizer, started, err)
	if err != nil || strings.TrimSpace(text) == "" {
		slog.Warn("summarization failed, using session facts",
			"session_id", sess.ID, "error", err)
		return basicSummaryAr(sess)
	}
	return strings.TrimSpace(text)
}

// conversationAr renders the thread for the summarizer prompt. Tool
// messages and call-only assistant stubs are skipped; the summary is about
// what was said, not the JSON that moved underneath.
func conversationAr(sess *session.Session) string {
	lines := make([]string, 0, len(sess.History))
	for _, m := range sess.History {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case llms.RoleUser:
			lines = append(lines, "العميل: "+m.Content)
		case llms.RoleAssistant:
			lines = append(lines, "المساعد: "+m.Content)
		}
	}
	if len(lines) == 0 {
		return "لا توجد محادثة بعد"
	}
	return strings.Join(lines, "\n")
}

// basicSummaryAr assembles a summary from session facts alone.
func basicSummaryAr(sess *session.Session) string {
	var parts []string
	if len(sess.Cart) > 0 {
		names := make([]string, 0, len(sess.Cart))
		for _, item := range sess.Cart {
			names = append(names, item.NameAr)
		}
		parts = append(parts, "طلب: "+strings.Join(names, "، "))
	}
	if sess.Location.AreaName != "" {
		parts = append(parts, "موقع: "+sess.Location.AddressAr())
	}
	if sess.CustomerName != "" {
		parts = append(parts, "اسم: "+sess.CustomerName)
	}
	if len(parts) == 0 {
		return "محادثة جديدة"
	}
	return strings.Join(parts, " | ")
}

// historyEstimate approximates the token weight of the stored thread.
func historyEstimate(sess *session.Session) int {
	msgs := make([]utils.Message, 0, len(sess.History))
	for _, m := range sess.History {
		msgs = append(msgs, utils.Message{Role: m.Role, Content: m.Content})
	}
	return utils.EstimateMessages(msgs)
}
