// Package advice generates replies through an OpenAI-compatible
// chat-completions endpoint.
package advice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/finbuddy/chat-relay/internal/domain"
)

const defaultBaseURL = "https://openrouter.ai/api/v1"

const personaPrompt = "Without exceeding 4096 characters, assume you are a Nigerian " +
	"financial consultant whose name is FinBuddy and respond to the following " +
	"in a concise manner."

// Generator produces an advisory reply for a user's message.
type Generator interface {
	Generate(ctx context.Context, text string, history []domain.HistoryEntry) (string, error)
}

// Client is the OpenRouter chat-completions client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient creates an advice client. An empty baseURL selects OpenRouter.
func NewClient(baseURL, apiKey, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// ChatMessage represents a chat message.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionRequest represents the chat completion request.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
}

// Choice represents a completion choice.
type Choice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message,omitempty"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ChatCompletionResponse represents the chat completion response.
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// APIError represents the error details.
type APIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

var boldRe = regexp.MustCompile(`\*\*(.*?)\*\*`)

// Generate asks the model for a reply to text, feeding recent history as
// prior conversation turns. Markdown bold markers and wrapping quotes are
// stripped so the reply reads as plain chat text.
func (c *Client) Generate(ctx context.Context, text string, history []domain.HistoryEntry) (string, error) {
	messages := []ChatMessage{{Role: "system", Content: personaPrompt}}
	for _, entry := range history {
		role := "user"
		if entry.Message.Type == domain.DirectionOutgoing {
			role = "assistant"
		}
		messages = append(messages, ChatMessage{Role: role, Content: entry.Message.Text})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: text})

	body, err := json.Marshal(&ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp ErrorResponse
		if jerr := json.Unmarshal(respBody, &errResp); jerr == nil && errResp.Error != nil {
			return "", fmt.Errorf("advice api error: %s (%s)", errResp.Error.Message, errResp.Error.Type)
		}
		return "", fmt.Errorf("advice api returned status %d", resp.StatusCode)
	}

	var completion ChatCompletionResponse
	if err := json.Unmarshal(respBody, &completion); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message == nil {
		return "", fmt.Errorf("advice api returned no choices")
	}

	return cleanReply(completion.Choices[0].Message.Content), nil
}

func cleanReply(text string) string {
	text = boldRe.ReplaceAllString(text, "$1")
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	return text
}

var _ Generator = (*Client)(nil)
