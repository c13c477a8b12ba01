package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"dashboard-backend/internal/models"
)

// maxErrorBody caps how much of an upstream error body is kept for logs.
const maxErrorBody = 512

type OpenRouterConfig struct {
	// BaseURL is the API root; requests go to BaseURL + "/chat/completions".
	BaseURL string
	APIKey  string
	Model   string
	Referer string
	Title   string
}

// OpenRouterProvider talks to an OpenAI-compatible chat completions API.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
}

// NewOpenRouterProvider returns a provider sending through client, or
// http.DefaultTransport when nil. Deadlines come from the request context.
func NewOpenRouterProvider(cfg OpenRouterConfig, client *http.Client) *OpenRouterProvider {
	var hc http.Client
	if client != nil {
		hc = *client
	}
	hc.Transport = &attributionTransport{base: hc.Transport, referer: cfg.Referer, title: cfg.Title}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = cfg.BaseURL
	oc.HTTPClient = &hc

	return &OpenRouterProvider{client: openai.NewClientWithConfig(oc), model: cfg.Model}
}

func (p *OpenRouterProvider) Name() string { return "openrouter" }

func (p *OpenRouterProvider) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: make([]openai.ChatCompletionMessage, 0, len(messages)),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyOpenRouterError(ctx, err)
	}
	return firstChoiceContent(resp)
}

// attributionTransport adds the HTTP-Referer and X-Title headers OpenRouter
// uses to attribute traffic.
type attributionTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.Header.Set("HTTP-Referer", t.referer)
	r.Header.Set("X-Title", t.title)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

func classifyOpenRouterError(ctx context.Context, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		return statusError(apiErr.HTTPStatusCode, fmt.Errorf("completion API responded %s: %s", apiErr.HTTPStatus, truncate([]byte(apiErr.Message))))
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		return statusError(reqErr.HTTPStatusCode, fmt.Errorf("completion API responded %s: %s", reqErr.HTTPStatus, truncate(reqErr.Body)))
	}

	// A body cut off by a deadline is a transport failure, not a bad payload.
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return networkError(err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return networkError(err)
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return malformedError(fmt.Errorf("failed to decode completion response: %w", err))
	}
	return networkError(err)
}

func firstChoiceContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", malformedError(errors.New("completion response has no choices"))
	}
	msg := resp.Choices[0].Message
	if msg.Role == "" && msg.Content == "" && len(msg.MultiContent) == 0 {
		return "", malformedError(errors.New("first choice has no message"))
	}
	return msg.Content, nil
}

func truncate(b []byte) []byte {
	b = bytes.TrimSpace(b)
	if len(b) > maxErrorBody {
		return b[:maxErrorBody]
	}
	return b
}
