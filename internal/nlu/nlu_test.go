package nlu

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar/internal/apis"
	"avatar/internal/config"
	"avatar/internal/llm"
)

var testCommands = map[string][]string{
	"estimate":  {"estimate", "how long"},
	"team":      {"who should", "recommend"},
	"analytics": {"show analytics", "report"},
	"weather":   {"weather", "forecast"},
	"help":      {"help"},
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"how long will the migration take": "estimate",
		"who should take the frontend":     "team",
		"show analytics please":            "analytics",
		"what's the weather like":          "weather",
		"HELP me":                          "help",
		"tell me a story":                  "general",
	}
	for text, want := range cases {
		assert.Equal(t, want, Classify(text, testCommands), "text: %s", text)
	}
}

func TestContainsWakeWord(t *testing.T) {
	wake := []string{"hey assistant", "ai avatar"}
	assert.True(t, ContainsWakeWord("Hey Assistant, what's up", wake))
	assert.False(t, ContainsWakeWord("hello there", wake))
}

func TestAnalyzeLLM(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {
					"role": "assistant",
					"content": "{\"intent\": \"weather\", \"params\": {\"city\": \"Oslo\"}, \"query\": \"weather in oslo\"}"
				}
			}],
			"usage": {"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20}
		}`))
	}))
	defer srv.Close()

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	a := NewAnalyzer(client, "gpt-5-nano", true, testCommands)

	res := a.Analyze(context.Background(), "weather in oslo")
	assert.Equal(t, "weather", res.Intent)
	assert.Equal(t, "Oslo", res.Params["city"])
	assert.Equal(t, "weather in oslo", res.Query)
}

func TestAnalyzeFallsBackToKeywords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := openai.NewClient(
		option.WithAPIKey("test"),
		option.WithBaseURL(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
		option.WithMaxRetries(0),
	)
	a := NewAnalyzer(client, "", true, testCommands)

	res := a.Analyze(context.Background(), "what's the weather today")
	assert.Equal(t, "weather", res.Intent)
	assert.Equal(t, "what's the weather today", res.Query)
}

func TestNeedsConfirmation(t *testing.T) {
	assert.False(t, NeedsConfirmation("weather"))
	assert.False(t, NeedsConfirmation("help"))
	assert.True(t, NeedsConfirmation("estimate"))
	assert.True(t, NeedsConfirmation("general"))
}

func TestPreview(t *testing.T) {
	p := Preview(Result{Intent: "weather", Params: map[string]any{"city": "Oslo"}})
	assert.Equal(t, "Get weather for Oslo", p)

	p = Preview(Result{Intent: "estimate", Query: "estimate the app", Params: map[string]any{}})
	assert.Equal(t, "Estimate: estimate the app", p)
}

func TestExecuteWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"name": "Oslo",
			"main": {"temp": 12.0, "feels_like": 9.0, "humidity": 70},
			"weather": [{"description": "light rain", "icon": "10d"}]
		}`))
	}))
	defer srv.Close()

	apiMgr := apis.NewManagerWithEndpoints(config.ExternalAPIs{
		OpenWeatherAPIKey: "key",
		DefaultCity:       "London",
		CacheSeconds:      60,
	}, srv.Client(), apis.Endpoints{Weather: srv.URL})

	d := NewDispatcher(apiMgr, llm.NewManager(llm.NewFallback()))

	reply, err := d.Execute(context.Background(), "weather", map[string]any{"city": "Oslo"}, "weather in oslo")
	require.NoError(t, err)
	assert.Contains(t, reply, "12 degrees")
	assert.Contains(t, reply, "Oslo")
}

func TestExecuteFreeFormUsesLLMChain(t *testing.T) {
	d := NewDispatcher(apis.NewManager(config.ExternalAPIs{}, nil), llm.NewManager(llm.NewFallback()))

	reply, err := d.Execute(context.Background(), "general", nil, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, reply)
}
