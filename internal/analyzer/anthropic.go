package analyzer

import (
	"context"
	"encoding/base64"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicModel = anthropic.ModelClaudeSonnet4_20250514

type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type AnthropicClientCreator func(apiKey string) AnthropicMessager

func defaultAnthropicCreator(apiKey string) AnthropicMessager {
	c := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &c.Messages
}

var newAnthropicClient AnthropicClientCreator = defaultAnthropicCreator

type AnthropicAnalyzer struct {
	messages AnthropicMessager
	model    anthropic.Model
}

func NewAnthropicAnalyzer(apiKey, model string) *AnthropicAnalyzer {
	m := anthropic.Model(strings.TrimSpace(model))
	if m == "" {
		m = defaultAnthropicModel
	}
	return &AnthropicAnalyzer{messages: newAnthropicClient(apiKey), model: m}
}

func (a *AnthropicAnalyzer) Analyze(ctx context.Context, img Image) (string, error) {
	return runWithRetry(ctx, "anthropic", img, a.generate)
}

func (a *AnthropicAnalyzer) generate(ctx context.Context, img Image) (string, error) {
	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: 2048,
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{anthropic.NewUserMessage(
			anthropic.NewImageBlockBase64(img.MediaType, base64.StdEncoding.EncodeToString(img.Data)),
			anthropic.NewTextBlock(userPrompt),
		)},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return sb.String(), nil
}
