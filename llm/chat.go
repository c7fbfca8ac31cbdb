package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"news-video-kit/config"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
)

// ChatClient talks to any OpenAI-style chat completions endpoint
type ChatClient struct {
	endpoint    string
	model       string
	temperature float64
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewChatClient creates a chat completions client for cfg.
// The API key is attached by an oauth2 transport as a bearer token.
func NewChatClient(cfg config.GenerationConfig) *ChatClient {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	return &ChatClient{
		endpoint:    strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:       cfg.Model,
		temperature: cfg.Temperature,
		httpClient: &http.Client{
			Timeout:   cfg.CallTimeout,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
		limiter: newLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generate sends prompt as a single user message and returns the first choice's content
func (c *ChatClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: c.temperature,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	// gerr.Code may come from the error body, the HTTP status is authoritative
	if err := googleapi.CheckResponse(resp); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok {
			return "", statusError(resp.StatusCode, gerr.Body)
		}
		return "", err
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response: %w", err)
	}

	var data interface{}
	if err := json.Unmarshal(respBytes, &data); err != nil {
		return "", fmt.Errorf("parse chat response: %w", err)
	}
	return firstChoiceContent(data), nil
}

// firstChoiceContent walks choices[0].message.content, returning "" when any
// step of the path is missing or has the wrong type
func firstChoiceContent(data interface{}) string {
	obj, ok := data.(map[string]interface{})
	if !ok {
		return ""
	}
	choices, ok := obj["choices"].([]interface{})
	if !ok || len(choices) == 0 {
		return ""
	}
	choice, ok := choices[0].(map[string]interface{})
	if !ok {
		return ""
	}
	msg, ok := choice["message"].(map[string]interface{})
	if !ok {
		return ""
	}
	content, _ := msg["content"].(string)
	return content
}
