package llm

import (
	"context"
	"fmt"
	log "log/slog"
	"time"
)

// Response is the provider-independent reply shape.
type Response struct {
	Content    string
	Model      string
	Tokens     int
	Confidence float64
	CreatedAt  time.Time
}

// Facts is workspace context folded into the system prompt.
type Facts struct {
	Projects       int
	TeamMembers    int
	RecentActivity string
}

// Provider generates assistant replies. Implementations must degrade to
// "unavailable" instead of failing hard at construction.
type Provider interface {
	Name() string
	Available() bool
	Generate(ctx context.Context, prompt string, facts Facts) (Response, error)
}

// Manager walks its provider chain: the first available provider that
// answers wins, errors fall through to the next one. The chain ends with
// the rule-based fallback, so Generate only errors when even that is
// missing.
type Manager struct {
	providers []Provider
}

func NewManager(providers ...Provider) *Manager {
	return &Manager{providers: providers}
}

func (m *Manager) Generate(ctx context.Context, prompt string, facts Facts) (Response, error) {
	for _, p := range m.providers {
		if !p.Available() {
			log.Debug("LLM provider unavailable, skipping", "provider", p.Name())
			continue
		}
		resp, err := p.Generate(ctx, prompt, facts)
		if err != nil {
			log.Warn("LLM provider failed, falling through", "provider", p.Name(), "err", err)
			continue
		}
		resp.CreatedAt = time.Now()
		return resp, nil
	}
	return Response{}, fmt.Errorf("no llm provider available")
}

// Active names the provider that would currently serve a request.
func (m *Manager) Active() string {
	for _, p := range m.providers {
		if p.Available() {
			return p.Name()
		}
	}
	return "none"
}

const systemPrompt = `You are an AI avatar assistant, a desktop agent that helps with project management, team coordination and productivity.

Your capabilities include project estimation, team recommendations, analytics insights, task scheduling and automation suggestions.

Be helpful, concise and professional.`

func buildSystemPrompt(facts Facts) string {
	prompt := systemPrompt
	if facts.Projects > 0 {
		prompt += fmt.Sprintf("\n\nCurrent projects: %d active projects", facts.Projects)
	}
	if facts.TeamMembers > 0 {
		prompt += fmt.Sprintf("\nTeam: %d available team members", facts.TeamMembers)
	}
	if facts.RecentActivity != "" {
		prompt += "\nRecent activity: " + facts.RecentActivity
	}
	return prompt
}
