package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/fsm"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/llms"
	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/session"
)

func summarizerProviders(p llms.Provider) fakeProviders {
	return fakeProviders{config.LLMSummarizer: p}
}

func testSummarizer(providers ProviderGetter) *Summarizer {
	cfg := &config.SessionConfig{}
	cfg.SetDefaults()
	return NewSummarizer(providers, cfg)
}

func TestShouldSummarize(t *testing.T) {
	s := testSummarizer(fakeProviders{})

	t.Run("significant transitions", func(t *testing.T) {
		sess := session.New("s1")
		sess.UserTurns = 2
		assert.True(t, s.ShouldSummarize(fsm.StateGreeting, fsm.StateLocation, sess))
		assert.True(t, s.ShouldSummarize(fsm.StateLocation, fsm.StateOrdering, sess))
		assert.True(t, s.ShouldSummarize(fsm.StateOrdering, fsm.StateCheckout, sess))
	})

	t.Run("backward transitions are not significant", func(t *testing.T) {
		sess := session.New("s1")
		sess.UserTurns = 2
		assert.False(t, s.ShouldSummarize(fsm.StateCheckout, fsm.StateLocation, sess))
		assert.False(t, s.ShouldSummarize(fsm.StateOrdering, fsm.StateOrdering, sess))
	})

	t.Run("every fifth user turn", func(t *testing.T) {
		sess := session.New("s1")
		sess.UserTurns = 5
		assert.True(t, s.ShouldSummarize(fsm.StateOrdering, fsm.StateOrdering, sess))

		sess.UserTurns = 10
		assert.True(t, s.ShouldSummarize(fsm.StateOrdering, fsm.StateOrdering, sess))

		sess.UserTurns = 4
		assert.False(t, s.ShouldSummarize(fsm.StateOrdering, fsm.StateOrdering, sess))
	})

	t.Run("fresh session does not summarize", func(t *testing.T) {
		sess := session.New("s1")
		assert.False(t, s.ShouldSummarize(fsm.StateIntent, fsm.StateGreeting, sess))
	})

	t.Run("token estimate forces a pass", func(t *testing.T) {
		small := NewSummarizer(fakeProviders{}, &config.SessionConfig{
			SummarizeInterval:  5,
			SummarizeThreshold: 10,
		})
		sess := session.New("s1")
		sess.UserTurns = 1
		sess.AppendUser("أبي برجر دجاج مع بطاطس وبيبسي بدون ثلج")
		assert.True(t, small.ShouldSummarize(fsm.StateOrdering, fsm.StateOrdering, sess))
	})
}

func TestSummarize(t *testing.T) {
	t.Run("returns the model summary trimmed", func(t *testing.T) {
		provider := &fakeProvider{script: []fakeStep{
			{text: "\n- العميل يبي برجر دجاج\n- توصيل للنرجس\n"},
		}}
		s := testSummarizer(summarizerProviders(provider))

		sess := session.New("s1")
		sess.AppendUser("أبي برجر دجاج")
		sess.AppendAssistant("تمام، توصيل ولا استلام؟")

		got := s.Summarize(context.Background(), sess)
		assert.Equal(t, "- العميل يبي برجر دجاج\n- توصيل للنرجس", got)

		// The prompt embeds the rendered conversation.
		require.Len(t, provider.threads, 1)
		prompt := provider.threads[0][0].Content
		assert.Contains(t, prompt, "العميل: أبي برجر دجاج")
		assert.Contains(t, prompt, "المساعد: تمام، توصيل ولا استلام؟")
	})

	t.Run("falls back to session facts on provider failure", func(t *testing.T) {
		provider := &fakeProvider{script: []fakeStep{
			{err: errors.New("upstream 500")},
		}}
		s := testSummarizer(summarizerProviders(provider))

		sess := session.New("s1")
		sess.AddItem(session.NewCartItem(1, "برجر دجاج", 1, 25, nil, ""))
		sess.AddItem(session.NewCartItem(2, "بيبسي", 1, 7, nil, ""))
		sess.Location.AreaName = "النرجس"
		sess.CustomerName = "محمد"

		got := s.Summarize(context.Background(), sess)
		assert.Equal(t, "طلب: برجر دجاج، بيبسي | موقع: النرجس | اسم: محمد", got)
	})

	t.Run("falls back when the model returns nothing", func(t *testing.T) {
		provider := &fakeProvider{script: []fakeStep{{text: "   "}}}
		s := testSummarizer(summarizerProviders(provider))

		got := s.Summarize(context.Background(), session.New("s1"))
		assert.Equal(t, "محادثة جديدة", got)
	})

	t.Run("missing provider still yields a summary", func(t *testing.T) {
		s := testSummarizer(fakeProviders{})
		got := s.Summarize(context.Background(), session.New("s1"))
		assert.Equal(t, "محادثة جديدة", got)
	})
}

func TestConversationRendering(t *testing.T) {
	sess := session.New("s1")
	sess.AppendUser("أبي برجر")
	sess.Append(llms.Message{
		Role:      llms.RoleAssistant,
		ToolCalls: []llms.ToolCall{{ID: "c1", Name: "search_menu"}},
	})
	sess.Append(llms.ToolMessage("c1", "search_menu", `{"results":[]}`))
	sess.AppendAssistant("ما لقيت برجر، تبي شي ثاني؟")

	rendered := conversationAr(sess)
	lines := strings.Split(rendered, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "العميل: أبي برجر", lines[0])
	assert.Equal(t, "المساعد: ما لقيت برجر، تبي شي ثاني؟", lines[1])
}
