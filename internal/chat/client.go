// Package chat proxies follow-up questions about document content to an
// OpenAI-compatible chat completions endpoint.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dharsanguruparan/LinguaDrop/internal/fault"
)

const defaultBaseURL = "https://api.openai.com/v1"

const systemPrompt = "You are a helpful assistant that answers questions about documents. " +
	"Use the provided document content to answer the user's question."

// Client calls the chat completions API.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// New constructs a Client. baseURL may be empty to use the OpenAI API.
func New(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("chat api key is required")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("chat model is required")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
}

type completionResponse struct {
	Choices []struct {
		Message message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Ask answers a question grounded in documentContent.
func (c *Client) Ask(ctx context.Context, documentContent, question string) (string, error) {
	payload := completionRequest{
		Model: c.model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: fmt.Sprintf("Document content: %s\n\nQuestion: %s", documentContent, question)},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fault.Wrap(fault.ProviderUnavailable, "chat completion", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fault.Newf(fault.ProviderUnavailable, "chat completion returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	var out completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fault.Wrap(fault.ProviderUnavailable, "decode chat response", err)
	}
	if out.Error != nil {
		return "", fault.Newf(fault.ProviderUnavailable, "chat completion error: %s", out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", fault.New(fault.ProviderUnavailable, "chat completion returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
