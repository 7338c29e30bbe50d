package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
)

// Result is the structured reading of one utterance.
type Result struct {
	Intent string         `json:"intent"`
	Params map[string]any `json:"params"`
	Query  string         `json:"query"`
}

const systemPrompt = `You are the intent classifier for a desktop avatar assistant.
Your ONLY job is to convert the user's utterance into minimal structured JSON.

GENERAL RULES:
1. Do NOT converse.
2. Do NOT answer the question.
3. Do NOT add explanations.
4. Output ONLY JSON. No markdown.

OUTPUT FORMAT:
{
  "intent": "<string>",
  "params": { ... },
  "query": "<original user text>"
}

INTENTS (canonical, snake_case):
- "weather"    (params: "city")
- "news"       (params: "category": one of general/business/technology/science/health/sports)
- "quote"
- "time"       (params: "timezone": IANA name like "Europe/Oslo")
- "estimate"   (params: "project")
- "team"       (params: "skills")
- "analytics"
- "help"
- "general"    (anything conversational)
- "unknown"    (if not classifiable)

PARAM RULES:
- Only include params you are sure about; never invent missing values.
- Normalize city and timezone names to canonical English forms.

Be strict and minimal. Do not generate text other than the JSON.`

// Analyzer classifies utterances with the chat completions API and falls
// back to plain keyword matching when the API is not configured.
type Analyzer struct {
	client   openai.Client
	model    string
	enabled  bool
	commands map[string][]string
}

func NewAnalyzer(client openai.Client, model string, enabled bool, commands map[string][]string) *Analyzer {
	if model == "" {
		model = openai.ChatModelGPT5Nano
	}
	return &Analyzer{client: client, model: model, enabled: enabled, commands: commands}
}

func (a *Analyzer) Analyze(ctx context.Context, transcript string) Result {
	if a.enabled {
		res, err := a.analyzeLLM(ctx, transcript)
		if err == nil {
			return res
		}
		log.Warn("LLM intent analysis failed, using keyword classifier", "err", err)
	}
	return Result{
		Intent: Classify(transcript, a.commands),
		Params: map[string]any{},
		Query:  transcript,
	}
}

func (a *Analyzer) analyzeLLM(ctx context.Context, transcript string) (Result, error) {
	resp, err := a.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(transcript),
		},
		Model: a.model,
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("no choices in response")
	}

	content := resp.Choices[0].Message.Content
	if content == "" {
		return Result{}, fmt.Errorf("empty message content")
	}

	var out Result
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return Result{}, fmt.Errorf("unmarshal intent result: %w (raw: %s)", err, content)
	}
	if out.Params == nil {
		out.Params = map[string]any{}
	}
	if out.Query == "" {
		out.Query = transcript
	}
	return out, nil
}

// Classify maps an utterance onto the configured command keyword sets.
// Anything unmatched is "general".
func Classify(text string, commands map[string][]string) string {
	lower := strings.ToLower(text)
	for intent, keywords := range commands {
		for _, kw := range keywords {
			if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
				return intent
			}
		}
	}
	return "general"
}

// ContainsWakeWord reports whether the utterance addresses the assistant.
func ContainsWakeWord(text string, wakeWords []string) bool {
	lower := strings.ToLower(text)
	for _, w := range wakeWords {
		if w != "" && strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
