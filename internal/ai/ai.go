// Package ai drafts product descriptions with Gemini for the admin form.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/01moynul/keyu-storefront/internal/models"
)

const DefaultModel = "gemini-1.5-flash"

var (
	ErrDisabled      = errors.New("description drafting is not configured")
	ErrEmptyResponse = errors.New("model returned no text")
)

// textModel is satisfied by *genai.GenerativeModel.
type textModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// DescriptionWriter turns a product name and category into a short
// storefront description.
type DescriptionWriter struct {
	client *genai.Client
	model  textModel
}

// NewDescriptionWriter opens a Gemini client. An empty apiKey is reported
// as ErrDisabled so callers can run without drafting.
func NewDescriptionWriter(ctx context.Context, apiKey, modelName string) (*DescriptionWriter, error) {
	if apiKey == "" {
		return nil, ErrDisabled
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.7)
	model.SetMaxOutputTokens(256)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	return &DescriptionWriter{client: client, model: model}, nil
}

func (w *DescriptionWriter) Close() error {
	if w == nil || w.client == nil {
		return nil
	}
	return w.client.Close()
}

const systemPrompt = `You write product descriptions for KEYU, a curated fashion affiliate storefront.
Write two or three sentences of plain text. No markdown, no prices, no claims about stock or shipping.`

func buildPrompt(name string, category *models.Category) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product name: %s\n", strings.TrimSpace(name))
	if category != nil {
		fmt.Fprintf(&b, "Category: %s\n", *category)
	}
	b.WriteString("Describe the product for a shopper browsing the catalog.")
	return b.String()
}

// Draft returns a description suggestion. The operator edits it before it
// is saved; nothing here writes to the store.
func (w *DescriptionWriter) Draft(ctx context.Context, name string, category *models.Category) (string, error) {
	if w == nil || w.model == nil {
		return "", ErrDisabled
	}

	res, err := w.model.GenerateContent(ctx, genai.Text(buildPrompt(name, category)))
	if err != nil {
		return "", fmt.Errorf("ai.Draft: %w", err)
	}
	if res.UsageMetadata != nil {
		slog.DebugContext(ctx, "description drafted", "op", "ai.DescriptionWriter.Draft",
			"tokens", res.UsageMetadata.TotalTokenCount)
	}

	text := responseText(res)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func responseText(res *genai.GenerateContentResponse) string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return strings.TrimSpace(b.String())
}
