package apis

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avatar/internal/config"
)

func testConfig() config.ExternalAPIs {
	return config.ExternalAPIs{
		OpenWeatherAPIKey: "owm-key",
		NewsAPIKey:        "news-key",
		DefaultCity:       "London",
		NewsCountry:       "us",
		CacheSeconds:      300,
	}
}

func TestWeather(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "Oslo", r.URL.Query().Get("q"))
		assert.Equal(t, "owm-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		w.Write([]byte(`{
			"name": "Oslo",
			"main": {"temp": 11.6, "feels_like": 9.4, "humidity": 70},
			"weather": [{"description": "light rain", "icon": "10d"}]
		}`))
	}))
	defer srv.Close()

	m := NewManager(testConfig(), srv.Client())
	m.weatherURL = srv.URL

	w, err := m.Weather("Oslo")
	require.NoError(t, err)
	assert.Equal(t, "Oslo", w.City)
	assert.Equal(t, 12, w.Temperature)
	assert.Equal(t, "Light Rain", w.Description)
	assert.Equal(t, 9, w.FeelsLike)

	// second lookup is served from cache
	_, err = m.Weather("Oslo")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestWeatherWithoutKey(t *testing.T) {
	cfg := testConfig()
	cfg.OpenWeatherAPIKey = ""
	m := NewManager(cfg, nil)

	_, err := m.Weather("")
	assert.Error(t, err)
}

func TestHeadlines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "technology", r.URL.Query().Get("category"))
		assert.Equal(t, "3", r.URL.Query().Get("pageSize"))
		w.Write([]byte(`{"articles": [
			{"title": "A", "description": "first", "url": "http://a", "publishedAt": "2026-08-27T08:00:00Z", "source": {"name": "Wire"}},
			{"title": "B", "description": "second", "url": "http://b", "publishedAt": "2026-08-27T09:00:00Z", "source": {"name": "Post"}}
		]}`))
	}))
	defer srv.Close()

	m := NewManager(testConfig(), srv.Client())
	m.newsURL = srv.URL

	hs, err := m.Headlines("technology", 3)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, "A", hs[0].Title)
	assert.Equal(t, "Wire", hs[0].Source)
}

func TestDailyQuoteCachedForADay(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"content": "Stay hungry.", "author": "Someone", "length": 12}`))
	}))
	defer srv.Close()

	m := NewManager(testConfig(), srv.Client())
	m.quoteURL = srv.URL

	q, err := m.DailyQuote()
	require.NoError(t, err)
	assert.Equal(t, "Stay hungry.", q.Text)

	_, err = m.DailyQuote()
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.True(t, m.cache.Valid("daily_quote"))
}

func TestWorldTime(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Europe/Oslo", r.URL.Path)
		w.Write([]byte(`{"timezone": "Europe/Oslo", "datetime": "2026-08-27T10:00:00+02:00",
			"utc_datetime": "2026-08-27T08:00:00Z", "day_of_week": 4, "day_of_year": 239, "week_number": 35}`))
	}))
	defer srv.Close()

	m := NewManager(testConfig(), srv.Client())
	m.worldTimeURL = srv.URL

	wt, err := m.WorldTime("Europe/Oslo")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Oslo", wt.Timezone)
	assert.Equal(t, 4, wt.DayOfWeek)
}

func TestErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	defer srv.Close()

	m := NewManager(testConfig(), srv.Client())
	m.quoteURL = srv.URL

	_, err := m.DailyQuote()
	assert.Error(t, err)
	assert.False(t, m.cache.Valid("daily_quote"), "failures are never cached")
}

func TestStatus(t *testing.T) {
	cfg := testConfig()
	cfg.NewsAPIKey = ""
	m := NewManager(cfg, nil)

	st := m.Status()
	assert.True(t, st["weather"])
	assert.False(t, st["news"])
	assert.True(t, st["quotes"])
}

func TestBriefingHours(t *testing.T) {
	quotes := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": "Begin.", "author": "A", "length": 6}`))
	}))
	defer quotes.Close()

	cfg := testConfig()
	cfg.OpenWeatherAPIKey = "" // weather drops out, quote still carries the briefing
	m := NewManager(cfg, quotes.Client())
	m.quoteURL = quotes.URL

	morning := time.Date(2026, 8, 27, 9, 0, 0, 0, time.UTC)
	n := m.Briefing(morning)
	require.NotNil(t, n)
	assert.Equal(t, "morning_briefing", n.Type)
	assert.Contains(t, n.Message, "Begin.")

	afternoon := time.Date(2026, 8, 27, 15, 0, 0, 0, time.UTC)
	n = m.Briefing(afternoon)
	require.NotNil(t, n)
	assert.Equal(t, "productivity_tip", n.Type)

	night := time.Date(2026, 8, 27, 22, 0, 0, 0, time.UTC)
	assert.Nil(t, m.Briefing(night))
}
