package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"mcq-solver/api/internal/solver"
)

type Engine struct {
	APIKey string
	// ClientOptions are appended after the API key, e.g. a custom HTTP client.
	ClientOptions []option.ClientOption
}

func New(apiKey string) *Engine {
	return &Engine{APIKey: strings.TrimSpace(apiKey)}
}

func (e *Engine) Name() string { return "gemini" }

// Acquire opens a client for this request and checks that the model exists
// and is reachable with the configured key. The client is released by
// Close on the returned handle.
func (e *Engine) Acquire(ctx context.Context, model string) (solver.Model, error) {
	if e.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("gemini: model name is empty")
	}

	opts := append([]option.ClientOption{option.WithAPIKey(e.APIKey)}, e.ClientOptions...)
	cl, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}

	m := cl.GenerativeModel(model)
	if _, err := m.Info(ctx); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("gemini: model %q: %w", model, err)
	}

	return &handle{name: model, client: cl, model: m}, nil
}

type handle struct {
	name   string
	client *genai.Client
	model  *genai.GenerativeModel
}

func (h *handle) Name() string { return h.name }

func (h *handle) Generate(ctx context.Context, prompt string, img *solver.Image) (string, error) {
	parts := make([]genai.Part, 0, 2)
	if img != nil {
		parts = append(parts, &genai.Blob{MIMEType: img.MIMEType, Data: img.Data})
	}
	parts = append(parts, genai.Text(prompt))

	resp, err := h.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}
	return responseText(resp)
}

func (h *handle) Close() error {
	return h.client.Close()
}

// responseText joins the text parts of the first candidate that carries
// content.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini: empty response")
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		found := false
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
				found = true
			}
		}
		if found {
			return b.String(), nil
		}
	}
	return "", errors.New("gemini: response has no text")
}
