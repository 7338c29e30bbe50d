package apis

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"avatar/internal/cache"
	"avatar/internal/config"
)

const (
	openWeatherURL = "http://api.openweathermap.org/data/2.5/weather"
	newsURL        = "https://newsapi.org/v2/top-headlines"
	quoteURL       = "https://api.quotable.io/random"
	worldTimeURL   = "http://worldtimeapi.org/api/timezone"
)

type Weather struct {
	City        string `json:"city"`
	Temperature int    `json:"temperature"`
	Description string `json:"description"`
	Humidity    int    `json:"humidity"`
	Icon        string `json:"icon"`
	FeelsLike   int    `json:"feels_like"`
}

type Headline struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Published   string `json:"published"`
}

type Quote struct {
	Text   string `json:"text"`
	Author string `json:"author"`
	Length int    `json:"length"`
}

type WorldTime struct {
	Timezone    string `json:"timezone"`
	DateTime    string `json:"datetime"`
	UTCDateTime string `json:"utc_datetime"`
	DayOfWeek   int    `json:"day_of_week"`
	DayOfYear   int    `json:"day_of_year"`
	WeekNumber  int    `json:"week_number"`
}

// Manager wraps the external REST services behind the response cache so
// rate-limited feeds are not hammered on every utterance.
type Manager struct {
	cfg    config.ExternalAPIs
	client *http.Client
	cache  *cache.Cache

	// overridden in tests
	weatherURL   string
	newsURL      string
	quoteURL     string
	worldTimeURL string
}

// Endpoints overrides the service base URLs, mainly for tests against
// local stand-ins. Zero values keep the real services.
type Endpoints struct {
	Weather   string
	News      string
	Quote     string
	WorldTime string
}

func NewManager(cfg config.ExternalAPIs, client *http.Client) *Manager {
	return NewManagerWithEndpoints(cfg, client, Endpoints{})
}

func NewManagerWithEndpoints(cfg config.ExternalAPIs, client *http.Client, ep Endpoints) *Manager {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	ttl := time.Duration(cfg.CacheSeconds) * time.Second
	m := &Manager{
		cfg:          cfg,
		client:       client,
		cache:        cache.New(ttl),
		weatherURL:   openWeatherURL,
		newsURL:      newsURL,
		quoteURL:     quoteURL,
		worldTimeURL: worldTimeURL,
	}
	if ep.Weather != "" {
		m.weatherURL = ep.Weather
	}
	if ep.News != "" {
		m.newsURL = ep.News
	}
	if ep.Quote != "" {
		m.quoteURL = ep.Quote
	}
	if ep.WorldTime != "" {
		m.worldTimeURL = ep.WorldTime
	}
	return m
}

// Weather returns current conditions for city (config default when empty).
func (m *Manager) Weather(city string) (*Weather, error) {
	if m.cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("openweather api key not configured")
	}
	if city == "" {
		city = m.cfg.DefaultCity
	}

	key := "weather_" + strings.ToLower(city)
	if v, ok := m.cache.Get(key); ok {
		return v.(*Weather), nil
	}

	q := url.Values{}
	q.Set("q", city)
	q.Set("appid", m.cfg.OpenWeatherAPIKey)
	q.Set("units", "metric")

	var raw struct {
		Name string `json:"name"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
			Icon        string `json:"icon"`
		} `json:"weather"`
	}
	if err := m.getJSON(m.weatherURL+"?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("weather: %w", err)
	}
	if len(raw.Weather) == 0 {
		return nil, fmt.Errorf("weather: empty conditions for %q", city)
	}

	w := &Weather{
		City:        raw.Name,
		Temperature: int(raw.Main.Temp + 0.5),
		Description: titleCase(raw.Weather[0].Description),
		Humidity:    raw.Main.Humidity,
		Icon:        raw.Weather[0].Icon,
		FeelsLike:   int(raw.Main.FeelsLike + 0.5),
	}
	m.cache.Set(key, w)
	return w, nil
}

// Headlines returns up to count top headlines for a category.
func (m *Manager) Headlines(category string, count int) ([]Headline, error) {
	if m.cfg.NewsAPIKey == "" {
		return nil, fmt.Errorf("news api key not configured")
	}
	if category == "" {
		category = "general"
	}
	if count <= 0 {
		count = 5
	}

	key := fmt.Sprintf("news_%s_%d", category, count)
	if v, ok := m.cache.Get(key); ok {
		return v.([]Headline), nil
	}

	q := url.Values{}
	q.Set("apiKey", m.cfg.NewsAPIKey)
	q.Set("category", category)
	q.Set("country", m.cfg.NewsCountry)
	q.Set("pageSize", strconv.Itoa(count))

	var raw struct {
		Articles []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			URL         string `json:"url"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := m.getJSON(m.newsURL+"?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("news: %w", err)
	}

	headlines := make([]Headline, 0, len(raw.Articles))
	for _, a := range raw.Articles {
		headlines = append(headlines, Headline{
			Title:       a.Title,
			Description: a.Description,
			URL:         a.URL,
			Source:      a.Source.Name,
			Published:   a.PublishedAt,
		})
	}

	m.cache.Set(key, headlines)
	return headlines, nil
}

// DailyQuote fetches an inspirational quote; cached for a day.
func (m *Manager) DailyQuote() (*Quote, error) {
	const key = "daily_quote"
	if v, ok := m.cache.Get(key); ok {
		return v.(*Quote), nil
	}

	q := url.Values{}
	q.Set("maxLength", "150")
	q.Set("tags", "inspirational|motivational|success")

	var raw struct {
		Content string `json:"content"`
		Author  string `json:"author"`
		Length  int    `json:"length"`
	}
	if err := m.getJSON(m.quoteURL+"?"+q.Encode(), &raw); err != nil {
		return nil, fmt.Errorf("quote: %w", err)
	}

	quote := &Quote{Text: raw.Content, Author: raw.Author, Length: raw.Length}
	m.cache.SetTTL(key, quote, 24*time.Hour)
	return quote, nil
}

// WorldTime returns the current time in a timezone, e.g. "Europe/Oslo".
func (m *Manager) WorldTime(timezone string) (*WorldTime, error) {
	if timezone == "" {
		timezone = "UTC"
	}

	key := "time_" + timezone
	if v, ok := m.cache.Get(key); ok {
		return v.(*WorldTime), nil
	}

	var wt WorldTime
	if err := m.getJSON(m.worldTimeURL+"/"+timezone, &wt); err != nil {
		return nil, fmt.Errorf("world time: %w", err)
	}

	m.cache.Set(key, &wt)
	return &wt, nil
}

// Status reports which integrations are usable with the current config.
func (m *Manager) Status() map[string]bool {
	return map[string]bool{
		"weather":   m.cfg.OpenWeatherAPIKey != "",
		"news":      m.cfg.NewsAPIKey != "",
		"quotes":    true,
		"worldtime": true,
	}
}

func (m *Manager) getJSON(rawURL string, out any) error {
	resp, err := m.client.Get(rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func logAPIFailure(what string, err error) {
	log.Warn("External API unavailable", "api", what, "err", err)
}
