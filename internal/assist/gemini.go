package assist

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Gemini implements Generator against the Gemini API. Each call is an
// independent stateless round trip: no retry, no backoff, no caching.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates the Gemini client. No request is made until the first
// generation call, so a bad key surfaces as per-call failures (and therefore
// fallbacks), not a startup error.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) GenerateText(ctx context.Context, prompt string, temperature float32) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	})
	if err != nil {
		return "", fmt.Errorf("generate text: %w", err)
	}
	return resp.Text(), nil
}

func (g *Gemini) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("generate json: %w", err)
	}
	return resp.Text(), nil
}
