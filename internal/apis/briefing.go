package apis

import (
	"fmt"
	"math/rand"
	"time"
)

// Tip is a canned productivity hint rotated into afternoon briefings.
type Tip struct {
	Title    string
	Text     string
	Category string
}

var tips = []Tip{
	{
		Title:    "Pomodoro Technique",
		Text:     "Work for 25 minutes, then take a 5-minute break. This helps maintain focus and prevents burnout.",
		Category: "time_management",
	},
	{
		Title:    "Two-Minute Rule",
		Text:     "If a task takes less than 2 minutes to complete, do it immediately rather than adding it to your todo list.",
		Category: "efficiency",
	},
	{
		Title:    "Eisenhower Matrix",
		Text:     "Categorize tasks by urgency and importance: Do, Schedule, Delegate, or Delete.",
		Category: "prioritization",
	},
	{
		Title:    "Time Blocking",
		Text:     "Assign specific time blocks to different activities to keep tasks from expanding beyond their allocated time.",
		Category: "scheduling",
	},
	{
		Title:    "Digital Minimalism",
		Text:     "Reduce digital distractions by turning off non-essential notifications during focused work time.",
		Category: "focus",
	},
	{
		Title:    "Energy Management",
		Text:     "Schedule your most important tasks during your peak energy hours of the day.",
		Category: "energy",
	},
}

func (m *Manager) ProductivityTip() Tip {
	return tips[rand.Intn(len(tips))]
}

// Notification is a contextual briefing pushed to the avatar.
type Notification struct {
	Type    string
	Title   string
	Message string
	Actions []string
	Urgency float64
}

// Briefing builds a notification appropriate for the hour: a weather+quote
// briefing in the morning, a productivity check-in in the afternoon, nil
// otherwise. Feeds that fail or are unconfigured just drop out of the text.
func (m *Manager) Briefing(now time.Time) *Notification {
	hour := now.Hour()

	switch {
	case hour >= 8 && hour <= 10:
		msg := ""
		if w, err := m.Weather(""); err == nil {
			msg += fmt.Sprintf("Today's weather: %d°C, %s.", w.Temperature, w.Description)
		} else {
			logAPIFailure("weather", err)
		}
		if q, err := m.DailyQuote(); err == nil {
			if msg != "" {
				msg += "\n\n"
			}
			msg += fmt.Sprintf("Daily inspiration: \"%s\" - %s", q.Text, q.Author)
		} else {
			logAPIFailure("quote", err)
		}
		if msg == "" {
			return nil
		}
		return &Notification{
			Type:    "morning_briefing",
			Title:   "Good Morning!",
			Message: msg,
			Actions: []string{"start_focus_mode", "show_tasks", "get_suggestions"},
			Urgency: 0.4,
		}

	case hour >= 14 && hour <= 16:
		tip := m.ProductivityTip()
		return &Notification{
			Type:    "productivity_tip",
			Title:   "Afternoon Check-in",
			Message: fmt.Sprintf("Productivity tip: %s\n%s", tip.Title, tip.Text),
			Actions: []string{"start_focus_mode", "show_tasks", "dismiss"},
			Urgency: 0.3,
		}
	}

	return nil
}
