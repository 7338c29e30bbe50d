package llm

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
)

// OpenAI serves replies from the chat completions API.
type OpenAI struct {
	client  openai.Client
	model   string
	enabled bool
}

func NewOpenAI(client openai.Client, model string, enabled bool) *OpenAI {
	if model == "" {
		model = openai.ChatModelGPT5Nano
	}
	return &OpenAI{client: client, model: model, enabled: enabled}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Available() bool { return o.enabled }

func (o *OpenAI) Generate(ctx context.Context, prompt string, facts Facts) (Response, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(buildSystemPrompt(facts)),
			openai.UserMessage(prompt),
		},
		Model: o.model,
	})
	if err != nil {
		return Response{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in response")
	}

	return Response{
		Content:    resp.Choices[0].Message.Content,
		Model:      o.model,
		Tokens:     int(resp.Usage.TotalTokens),
		Confidence: 1.0,
	}, nil
}
