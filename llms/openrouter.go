package llms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/HassanShahzad7/Restaurant-Ordering-System-Sawt/config"
)

// ============================================================================
// OPENROUTER PROVIDER IMPLEMENTATION
// ============================================================================

// OpenRouterProvider implements Provider against the OpenAI-compatible chat
// completions API. It serves OpenRouter and direct OpenAI deployments; only
// the base URL and headers differ.
type OpenRouterProvider struct {
	config *config.LLMConfig
	client *http.Client
}

// openAITool wraps a function definition in the OpenAI tool envelope.
type openAITool struct {
	Type     string             `json:"type"`
	Function openAIToolFunction `json:"function"`
}

type openAIToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// openAIToolCall is a tool invocation as returned by the API.
type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON-encoded
}

// openAIMessage is the wire form of a chat message.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAIResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type openAIRequest struct {
	Model          string                `json:"model"`
	Messages       []openAIMessage       `json:"messages"`
	Temperature    float64               `json:"temperature,omitempty"`
	MaxTokens      int                   `json:"max_tokens,omitempty"`
	Tools          []openAITool          `json:"tools,omitempty"`
	ResponseFormat *openAIResponseFormat `json:"response_format,omitempty"`
}

type openAIChoice struct {
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type openAIResponse struct {
	ID      string         `json:"id"`
	Choices []openAIChoice `json:"choices"`
	Usage   openAIUsage    `json:"usage"`
	Error   *openAIError   `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code,omitempty"`
}

// NewOpenRouterProviderFromConfig creates an OpenRouter provider from config.
func NewOpenRouterProviderFromConfig(cfg *config.LLMConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for OpenRouter")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}

	return &OpenRouterProvider{
		config: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}, nil
}

// GetModelName returns the model name
func (p *OpenRouterProvider) GetModelName() string {
	return p.config.Model
}

// Close closes the provider
func (p *OpenRouterProvider) Close() error {
	return nil
}

// Generate sends the thread to the chat completions endpoint and returns
// the assistant text plus any tool calls the model requested.
func (p *OpenRouterProvider) Generate(ctx context.Context, messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error) {
	request := p.buildRequest(messages, tools)

	response, err := p.makeRequest(ctx, request)
	if err != nil {
		return "", nil, 0, err
	}

	if response.Error != nil {
		return "", nil, 0, fmt.Errorf("OpenRouter API error: %s", response.Error.Message)
	}
	if len(response.Choices) == 0 {
		return "", nil, 0, fmt.Errorf("OpenRouter returned no choices")
	}

	choice := response.Choices[0]

	var toolCalls []ToolCall
	for _, tc := range choice.Message.ToolCalls {
		args := make(map[string]interface{})
		if tc.Function.Arguments != "" {
			// Malformed arguments surface to the tool as raw text rather
			// than failing the whole turn.
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]interface{}{"_raw": tc.Function.Arguments}
			}
		}
		toolCalls = append(toolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
			RawArgs:   tc.Function.Arguments,
		})
	}

	return choice.Message.Content, toolCalls, response.Usage.TotalTokens, nil
}

// buildRequest converts the provider-agnostic thread to the wire format.
func (p *OpenRouterProvider) buildRequest(messages []Message, tools []ToolDefinition) openAIRequest {
	wireMessages := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		wire := openAIMessage{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
		}
		for _, tc := range msg.ToolCalls {
			rawArgs := tc.RawArgs
			if rawArgs == "" {
				encoded, _ := json.Marshal(tc.Arguments)
				rawArgs = string(encoded)
			}
			wire.ToolCalls = append(wire.ToolCalls, openAIToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: openAIFunctionCall{
					Name:      tc.Name,
					Arguments: rawArgs,
				},
			})
		}
		wireMessages = append(wireMessages, wire)
	}

	request := openAIRequest{
		Model:       p.config.Model,
		Messages:    wireMessages,
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	if p.config.JSONMode {
		request.ResponseFormat = &openAIResponseFormat{Type: "json_object"}
	}

	for _, tool := range tools {
		request.Tools = append(request.Tools, openAITool{
			Type: "function",
			Function: openAIToolFunction{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	return request
}

// makeRequest posts the request with retry on transient failures.
func (p *OpenRouterProvider) makeRequest(ctx context.Context, request openAIRequest) (*openAIResponse, error) {
	maxRetries := p.config.MaxRetries

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1+attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		response, retryable, err := p.attemptRequest(ctx, request)
		if err == nil {
			return response, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

// attemptRequest makes a single HTTP request attempt.
func (p *OpenRouterProvider) attemptRequest(ctx context.Context, request openAIRequest) (*openAIResponse, bool, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	req.Header.Set("HTTP-Referer", "https://sawt-restaurant.local")
	req.Header.Set("X-Title", "Sawt Restaurant Agent")

	resp, err := p.client.Do(req)
	if err != nil {
		// Network errors and timeouts are worth one more attempt; a
		// cancelled context is not.
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, isRetryableStatus(resp.StatusCode), fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response openAIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, false, fmt.Errorf("failed to decode response: %w", err)
	}

	return &response, false, nil
}

// isRetryableStatus reports whether an HTTP status is worth retrying.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout, // 408
		http.StatusTooManyRequests,     // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}
