// Package research answers free-text research queries for tenants.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var ErrNotConfigured = errors.New("research service is not configured")

// Researcher turns a query into text and reports the tokens it used.
type Researcher interface {
	Research(ctx context.Context, query string) (string, int, error)
}

// Gemini holds the Gemini client and model name.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini initializes the Gemini client.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if model == "" {
		model = "gemini-1.5-flash"
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) Research(ctx context.Context, query string) (string, int, error) {
	model := g.client.GenerativeModel(g.model)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(`
			You are the ProjectForge research assistant.
			Answer with a concise, well structured markdown summary.
			Cite sources inline when you rely on them.
		`)},
	}

	res, err := model.GenerateContent(ctx, genai.Text(query))
	if err != nil {
		return "", 0, fmt.Errorf("error sending message: %w", err)
	}

	tokens := 0
	if res.UsageMetadata != nil {
		tokens = int(res.UsageMetadata.TotalTokenCount)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return "No response.", tokens, nil
	}

	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "No response.", tokens, nil
	}
	return b.String(), tokens, nil
}

// Disabled is used when no API key is configured.
type Disabled struct{}

func (Disabled) Research(context.Context, string) (string, int, error) {
	return "", 0, ErrNotConfigured
}
