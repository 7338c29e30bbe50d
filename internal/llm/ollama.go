package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Ollama serves replies from a locally hosted model server.
type Ollama struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllama(baseURL, model string, client *http.Client) *Ollama {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama2"
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Ollama{baseURL: baseURL, model: model, client: client}
}

func (o *Ollama) Name() string { return "ollama" }

// Available probes the tags endpoint; a local server that is down is a
// normal condition, not an error.
func (o *Ollama) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (o *Ollama) Generate(ctx context.Context, prompt string, facts Facts) (Response, error) {
	payload, err := json.Marshal(map[string]any{
		"model":  o.model,
		"prompt": buildSystemPrompt(facts) + "\n\nUser: " + prompt + "\n\nAssistant:",
		"stream": false,
	})
	if err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/generate", bytes.NewReader(payload))
	if err != nil {
		return Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("ollama generate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("ollama generate: unexpected status %s", resp.Status)
	}

	var out struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("ollama decode: %w", err)
	}

	return Response{
		Content:    out.Response,
		Model:      o.model,
		Confidence: 1.0,
	}, nil
}
