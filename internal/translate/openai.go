package translate

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITranslator translates text through the OpenAI chat completions API.
type OpenAITranslator struct {
	client openai.Client
	model  string
}

// NewOpenAITranslator creates an OpenAI-backed translator.
func NewOpenAITranslator(apiKey, model string) *OpenAITranslator {
	return &OpenAITranslator{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Name implements Translator.
func (t *OpenAITranslator) Name() string { return "openai" }

// Translate implements Translator.
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := t.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(text, targetLang)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
