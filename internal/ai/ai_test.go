package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/01moynul/keyu-storefront/internal/models"
)

type fakeModel struct {
	prompt string
	res    *genai.GenerateContentResponse
	err    error
}

func (f *fakeModel) GenerateContent(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if t, ok := parts[0].(genai.Text); ok {
			f.prompt = string(t)
		}
	}
	return f.res, f.err
}

func textResponse(parts ...string) *genai.GenerateContentResponse {
	content := &genai.Content{}
	for _, p := range parts {
		content.Parts = append(content.Parts, genai.Text(p))
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: content}},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: 42},
	}
}

func TestBuildPrompt(t *testing.T) {
	c := models.CategoryFootwear
	p := buildPrompt("  Chelsea Boots ", &c)
	assert.Contains(t, p, "Product name: Chelsea Boots\n")
	assert.Contains(t, p, "Category: Footwear")

	assert.NotContains(t, buildPrompt("Gift Card", nil), "Category:")
}

func TestDraftJoinsTextParts(t *testing.T) {
	fm := &fakeModel{res: textResponse("A warm wool coat. ", "Cut for layering.\n")}
	w := &DescriptionWriter{model: fm}

	c := models.CategoryOuterwear
	got, err := w.Draft(context.Background(), "Wool Coat", &c)
	require.NoError(t, err)
	assert.Equal(t, "A warm wool coat. Cut for layering.", got)
	assert.Contains(t, fm.prompt, "Wool Coat")
}

func TestDraftErrors(t *testing.T) {
	var disabled *DescriptionWriter
	_, err := disabled.Draft(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrDisabled)

	w := &DescriptionWriter{model: &fakeModel{res: &genai.GenerateContentResponse{}}}
	_, err = w.Draft(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)

	cause := errors.New("quota exceeded")
	w = &DescriptionWriter{model: &fakeModel{err: cause}}
	_, err = w.Draft(context.Background(), "x", nil)
	assert.ErrorIs(t, err, cause)
}

func TestNewDescriptionWriterWithoutKey(t *testing.T) {
	_, err := NewDescriptionWriter(context.Background(), "", "")
	assert.ErrorIs(t, err, ErrDisabled)
}
