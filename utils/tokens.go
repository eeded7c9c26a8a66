// Package utils provides text normalization, validation, and token
// accounting helpers shared across the ordering pipeline.
package utils

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// ============================================================================
// TOKEN COUNTING
// ============================================================================

// TokenCounter counts tokens for prompt budgeting. It wraps a tiktoken
// encoding when one is available and falls back to an Arabic-aware
// character heuristic otherwise.
type TokenCounter struct {
	encoding *tiktoken.Tiktoken
	model    string
	mu       sync.RWMutex
}

// Message is the minimal shape the counter needs; it mirrors the chat
// message roles without importing the llms package.
type Message struct {
	Role    string
	Content string
}

var (
	// Cache encodings to avoid repeated initialization
	encodingCache = make(map[string]*tiktoken.Tiktoken)
	cacheMu       sync.RWMutex
)

// NewTokenCounter creates a counter for the given model name. Unknown
// models fall back to cl100k_base.
func NewTokenCounter(model string) (*TokenCounter, error) {
	cacheMu.RLock()
	cached, exists := encodingCache[model]
	cacheMu.RUnlock()

	if exists {
		return &TokenCounter{encoding: cached, model: model}, nil
	}

	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return nil, fmt.Errorf("failed to get encoding: %w", err)
		}
	}

	cacheMu.Lock()
	encodingCache[model] = encoding
	cacheMu.Unlock()

	return &TokenCounter{encoding: encoding, model: model}, nil
}

// Count returns the token count for text.
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.encoding == nil {
		return EstimateTokens(text)
	}

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	return len(tc.encoding.Encode(text, nil, nil))
}

// CountMessages counts tokens in a message list including per-message
// role overhead.
func (tc *TokenCounter) CountMessages(messages []Message) int {
	if tc == nil || tc.encoding == nil {
		return EstimateMessages(messages)
	}

	tc.mu.RLock()
	defer tc.mu.RUnlock()

	tokensPerMessage := 3

	total := 0
	for _, msg := range messages {
		total += tokensPerMessage
		total += len(tc.encoding.Encode(msg.Role, nil, nil))
		total += len(tc.encoding.Encode(msg.Content, nil, nil))
	}

	// Every reply is primed with the assistant header.
	total += 3

	return total
}

// GetModel returns the model name this counter was configured for.
func (tc *TokenCounter) GetModel() string {
	return tc.model
}

// ============================================================================
// HEURISTIC ESTIMATION
// ============================================================================

// EstimateTokens estimates the token count of a string without an
// encoder. Arabic script tokenizes denser than Latin text: roughly two
// characters per token versus four.
func EstimateTokens(text string) int {
	arabic, other := 0, 0
	for _, r := range text {
		if isArabicRune(r) {
			arabic++
		} else {
			other++
		}
	}
	return arabic/2 + other/4
}

// EstimateMessages estimates a message list, adding 4 tokens of framing
// overhead per message.
func EstimateMessages(messages []Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateTokens(msg.Content) + 4
	}
	return total
}

func isArabicRune(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F)
}
