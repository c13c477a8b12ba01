package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/option"

	"dashboard-backend/internal/models"
)

// GeminiProvider relays the conversation through the Gemini SDK. The system
// message becomes the model's system instruction.
type GeminiProvider struct {
	client    *genai.Client
	modelName string
}

// NewGeminiProvider builds a client authenticated with apiKey. Extra opts are
// passed through to the SDK, e.g. option.WithHTTPClient for a proxy.
func NewGeminiProvider(ctx context.Context, apiKey, modelName string, opts ...option.ClientOption) (*GeminiProvider, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiProvider{client: client, modelName: modelName}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	system, parts := splitConversation(messages)
	if len(parts) == 0 {
		return "", fmt.Errorf("conversation has no user message")
	}

	// GenerativeModel carries per-request config, so each call gets its own.
	model := p.client.GenerativeModel(p.modelName)
	model.SystemInstruction = system

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", classifyGeminiError(err)
	}
	return extractGeminiReply(resp)
}

func splitConversation(messages []models.ChatMessage) (*genai.Content, []genai.Part) {
	var system []genai.Part
	var parts []genai.Part
	for _, m := range messages {
		switch m.Role {
		case models.RoleSystem:
			system = append(system, genai.Text(m.Content))
		default:
			parts = append(parts, genai.Text(m.Content))
		}
	}
	if len(system) == 0 {
		return nil, parts
	}
	return &genai.Content{Parts: system}, parts
}

func classifyGeminiError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return malformedError(err)
	}
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.HTTPCode()
		if code > 0 {
			return statusError(code, err)
		}
	}
	return networkError(err)
}

func extractGeminiReply(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", malformedError(errors.New("Gemini returned no candidates"))
	}
	cand := resp.Candidates[0]
	if cand.Content == nil {
		return "", malformedError(errors.New("Gemini candidate has no content"))
	}

	var text strings.Builder
	found := false
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
			found = true
		}
	}
	if !found {
		return "", malformedError(errors.New("Gemini candidate has no text parts"))
	}
	return text.String(), nil
}
