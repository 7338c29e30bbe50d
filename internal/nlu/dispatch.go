package nlu

import (
	"context"
	"fmt"
	"strings"

	"avatar/internal/apis"
	"avatar/internal/llm"
)

// Dispatcher turns a classified intent into an executed action and a
// spoken reply.
type Dispatcher struct {
	apis *apis.Manager
	llm  *llm.Manager
}

func NewDispatcher(apiMgr *apis.Manager, llmMgr *llm.Manager) *Dispatcher {
	return &Dispatcher{apis: apiMgr, llm: llmMgr}
}

// NeedsConfirmation reports whether an intent should pass the confirmation
// gate. Read-only lookups go straight through; anything that acts on
// workspace state is gated.
func NeedsConfirmation(intent string) bool {
	switch intent {
	case "weather", "news", "quote", "time", "help":
		return false
	default:
		return true
	}
}

// Preview is the one-line description shown on the confirmation surface.
func Preview(res Result) string {
	switch res.Intent {
	case "weather":
		if city := stringParam(res.Params, "city"); city != "" {
			return "Get weather for " + city
		}
		return "Get the current weather"
	case "news":
		return "Read the latest headlines"
	case "quote":
		return "Get today's quote"
	case "time":
		return "Look up world time"
	case "estimate":
		return "Estimate: " + firstNonEmpty(stringParam(res.Params, "project"), res.Query)
	case "team":
		return "Recommend team members"
	case "analytics":
		return "Show analytics overview"
	default:
		return "Execute: " + res.Intent
	}
}

// Execute runs the intent and returns the reply to speak. Errors bubble up
// so the confirmation system can report them without crashing anything.
func (d *Dispatcher) Execute(ctx context.Context, intent string, params map[string]any, query string) (string, error) {
	switch intent {
	case "weather":
		w, err := d.apis.Weather(stringParam(params, "city"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("It's %d degrees with %s in %s, feels like %d.",
			w.Temperature, strings.ToLower(w.Description), w.City, w.FeelsLike), nil

	case "news":
		headlines, err := d.apis.Headlines(stringParam(params, "category"), 3)
		if err != nil {
			return "", err
		}
		if len(headlines) == 0 {
			return "No headlines right now.", nil
		}
		titles := make([]string, len(headlines))
		for i, h := range headlines {
			titles[i] = h.Title
		}
		return "Top headlines: " + strings.Join(titles, ". "), nil

	case "quote":
		q, err := d.apis.DailyQuote()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s, by %s", q.Text, q.Author), nil

	case "time":
		wt, err := d.apis.WorldTime(stringParam(params, "timezone"))
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("In %s it is %s.", wt.Timezone, wt.DateTime), nil

	case "help":
		return "I can check the weather, read headlines, fetch a daily quote, tell world time, " +
			"estimate projects, recommend team members and show analytics. " +
			"Say 'submit' to confirm a command or 'cancel' to abort it.", nil

	default:
		// estimate, team, analytics and free-form chat go to the model chain
		resp, err := d.llm.Generate(ctx, query, llm.Facts{})
		if err != nil {
			return "", err
		}
		return resp.Content, nil
	}
}

func stringParam(params map[string]any, key string) string {
	if params == nil {
		return ""
	}
	if v, ok := params[key].(string); ok {
		return v
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
