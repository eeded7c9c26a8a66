package vector

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

const (
	inferenceBaseURL    = "https://api.pinecone.io"
	inferenceAPIVersion = "2024-10"
	embedMaxRetries     = 3
)

// InferenceEmbedder calls Pinecone's hosted embedding endpoint. Using the
// same account that serves the index keeps model and dimension in lockstep
// with what was indexed.
type InferenceEmbedder struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

type embedRequest struct {
	Model      string          `json:"model"`
	Parameters embedParameters `json:"parameters"`
	Inputs     []embedInput    `json:"inputs"`
}

type embedParameters struct {
	InputType string `json:"input_type"`
	Truncate  string `json:"truncate"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type embedErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewInferenceEmbedder builds an embedder from the vector config.
func NewInferenceEmbedder(cfg *config.VectorConfig) *InferenceEmbedder {
	return &InferenceEmbedder{
		client:  &http.Client{Timeout: cfg.Timeout},
		apiKey:  cfg.APIKey,
		baseURL: inferenceBaseURL,
		model:   cfg.EmbedModel,
	}
}

// Embed converts text into a vector. inputType must be InputQuery or
// InputPassage; long inputs are truncated at the end by the service.
func (e *InferenceEmbedder) Embed(ctx context.Context, text, inputType string) ([]float32, error) {
	reqBody, err := json.Marshal(embedRequest{
		Model: e.model,
		Parameters: embedParameters{
			InputType: inputType,
			Truncate:  "END",
		},
		Inputs: []embedInput{{Text: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < embedMaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		values, retryable, err := e.attempt(ctx, reqBody)
		if err == nil {
			return values, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (e *InferenceEmbedder) attempt(ctx context.Context, reqBody []byte) ([]float32, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embed", bytes.NewReader(reqBody))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Api-Key", e.apiKey)
	httpReq.Header.Set("X-Pinecone-API-Version", inferenceAPIVersion)

	resp, err := e.client.Do(httpReq)
	if err != nil {
		// Network errors are retryable unless the context is done.
		return nil, ctx.Err() == nil, fmt.Errorf("failed to call embed endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read embed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		var apiErr embedErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, retryable, fmt.Errorf("embed API error (status %d): %s", resp.StatusCode, apiErr.Error.Message)
		}
		return nil, retryable, fmt.Errorf("embed API returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(parsed.Data) == 0 || len(parsed.Data[0].Values) == 0 {
		return nil, false, fmt.Errorf("embed API returned no vector")
	}
	return parsed.Data[0].Values, false, nil
}
