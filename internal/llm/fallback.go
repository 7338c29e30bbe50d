package llm

import (
	"context"
	"strconv"
	"strings"
)

// Fallback answers from canned templates when no real model is reachable.
// It is always available and sits last in the provider chain.
type Fallback struct{}

func NewFallback() *Fallback { return &Fallback{} }

func (f *Fallback) Name() string { return "fallback" }

func (f *Fallback) Available() bool { return true }

func (f *Fallback) Generate(_ context.Context, prompt string, facts Facts) (Response, error) {
	lower := strings.ToLower(prompt)

	var content string
	var confidence float64 = 0.8

	switch {
	case containsAny(lower, "estimate", "how long", "time", "hours"):
		content = "I'd be happy to help estimate your project. Please provide a project description, " +
			"key requirements and the technologies you'd like to use, and I can give you time and resource estimates."
	case containsAny(lower, "team", "who should", "recommend", "assign"):
		if facts.TeamMembers > 0 {
			content = "You have " + strconv.Itoa(facts.TeamMembers) + " team members available. " +
				"Tell me the required skills and I'll match the best fit for your project."
		} else {
			content = "I can help you build the right team. Tell me the project requirements, " +
				"required skills and team size preferences."
		}
	case containsAny(lower, "analytics", "report", "status", "progress"):
		content = "Here's what I track: active projects, team productivity, on-time delivery and completion rates. " +
			"Ask for a specific metric and I'll pull up the details."
		confidence = 0.9
	case containsAny(lower, "hello", "hi", "hey", "help"):
		content = "Hi! I'm your avatar assistant. I can help with project estimation, team recommendations " +
			"and analytics insights. What would you like to work on?"
	default:
		content = "I'm running without a language model right now, so my answers are limited. " +
			"I can still help with estimates, team recommendations and analytics."
		confidence = 0.5
	}

	return Response{Content: content, Model: "fallback", Confidence: confidence}, nil
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
