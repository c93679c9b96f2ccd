package analyzer

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiGenerator is the part of *genai.Models the analyzer uses.
type GeminiGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiAnalyzer struct {
	models GeminiGenerator
	model  string
}

func NewGeminiAnalyzer(ctx context.Context, apiKey, model string) (*GeminiAnalyzer, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiAnalyzer(client.Models, model), nil
}

func newGeminiAnalyzer(models GeminiGenerator, model string) *GeminiAnalyzer {
	model = strings.TrimSpace(model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiAnalyzer{models: models, model: model}
}

func (g *GeminiAnalyzer) Analyze(ctx context.Context, img Image) (string, error) {
	return runWithRetry(ctx, "gemini", img, g.generate)
}

func (g *GeminiAnalyzer) generate(ctx context.Context, img Image) (string, error) {
	temp := float32(0)
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MediaType),
			genai.NewPartFromText(userPrompt),
		}, genai.RoleUser),
	}
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		Temperature:       &temp,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
