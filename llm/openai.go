package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"news-video-kit/config"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// OpenAIClient uses the official SDK against an OpenAI-compatible base URL
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	limiter     *rate.Limiter
}

func NewOpenAIClient(cfg config.GenerationConfig) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.CallTimeout),
		option.WithMiddleware(keepErrorBody),
	}
	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	return &OpenAIClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		limiter:     newLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}
}

func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for rate limiter: %w", err)
	}

	var errBody string
	ctx = context.WithValue(ctx, errorBodyKey{}, &errBody)

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", statusError(apiErr.StatusCode, upstreamBody(errBody, apiErr))
		}
		return "", fmt.Errorf("openai request: %w", err)
	}

	if len(completion.Choices) == 0 {
		return "", nil
	}
	return completion.Choices[0].Message.Content, nil
}

type errorBodyKey struct{}

// keepErrorBody copies a failed response body into the *string stored under
// errorBodyKey, leaving the body readable for the SDK
func keepErrorBody(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	resp, err := next(req)
	if err != nil || resp.StatusCode < 300 {
		return resp, err
	}
	dst, ok := req.Context().Value(errorBodyKey{}).(*string)
	if !ok {
		return resp, nil
	}
	data, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(data))
	*dst = string(data)
	return resp, nil
}

func upstreamBody(raw string, apiErr *openai.Error) string {
	if raw != "" {
		return raw
	}
	if body := apiErr.RawJSON(); body != "" {
		return body
	}
	return apiErr.Message
}
