package config

import (
	"encoding/json"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
)

// Config is read once at startup. Missing file or broken JSON never stops
// the daemon: it falls back to the defaults below.
type Config struct {
	Daemon       Daemon       `json:"daemon"`
	Confirmation Confirmation `json:"confirmation"`
	Speech       Speech       `json:"speech"`
	Voice        Voice        `json:"voice"`
	ExternalAPIs ExternalAPIs `json:"external_apis"`
	LLM          LLM          `json:"llm"`
}

type Daemon struct {
	SocketPath  string `json:"socket_path"`
	SurfaceAddr string `json:"surface_addr"`
	ProxyAddr   string `json:"proxy_addr"`
	ChimePath   string `json:"chime_path"`
}

type Confirmation struct {
	ConfirmationRequired     bool     `json:"confirmation_required"`
	TimeoutSeconds           int      `json:"timeout_seconds"`
	SubmitKeywords           []string `json:"submit_keywords"`
	CancelKeywords           []string `json:"cancel_keywords"`
	ShowVisualConfirmation   bool     `json:"show_visual_confirmation"`
	VoiceConfirmationEnabled bool     `json:"voice_confirmation_enabled"`
	ConfirmationPrompt       string   `json:"confirmation_prompt"`
	TimeoutPrompt            string   `json:"timeout_prompt"`
	MaxReprompts             int      `json:"max_reprompts"`
}

type Speech struct {
	ModelPath           string              `json:"model_path"`
	Language            string              `json:"language"`
	TimeoutSeconds      int                 `json:"timeout_seconds"`
	ConfidenceThreshold float64             `json:"confidence_threshold"`
	WakeWords           []string            `json:"wake_words"`
	Commands            map[string][]string `json:"commands"`
}

type Voice struct {
	Enabled bool   `json:"enabled"`
	Voice   string `json:"voice"`
}

type ExternalAPIs struct {
	OpenWeatherAPIKey string `json:"openweather_api_key"`
	NewsAPIKey        string `json:"news_api_key"`
	DefaultCity       string `json:"default_city"`
	NewsCountry       string `json:"news_country"`
	CacheSeconds      int    `json:"cache_seconds"`
}

type LLM struct {
	Provider    string `json:"provider"`
	OpenAIModel string `json:"openai_model"`
	OllamaModel string `json:"ollama_model"`
	OllamaURL   string `json:"ollama_url"`
}

func Default() Config {
	return Config{
		Daemon: Daemon{
			SocketPath:  "/tmp/avatar.sock",
			SurfaceAddr: "127.0.0.1:8093",
		},
		Confirmation: Confirmation{
			ConfirmationRequired:     true,
			TimeoutSeconds:           10,
			SubmitKeywords:           []string{"submit", "execute", "confirm", "yes", "do it"},
			CancelKeywords:           []string{"cancel", "stop", "no", "abort", "nevermind"},
			ShowVisualConfirmation:   true,
			VoiceConfirmationEnabled: true,
			ConfirmationPrompt:       "Say 'submit' to execute or 'cancel' to abort",
			TimeoutPrompt:            "Command timeout. Say 'submit' or 'cancel'?",
		},
		Speech: Speech{
			ModelPath:           "third_party/whisper.cpp/models/ggml-base.en.bin",
			Language:            "en",
			TimeoutSeconds:      5,
			ConfidenceThreshold: 0.7,
			WakeWords:           []string{"hey assistant", "ai avatar", "hello bot"},
			Commands: map[string][]string{
				"estimate":  {"estimate", "calculate", "how long", "time needed"},
				"team":      {"who should", "recommend", "find team", "assign"},
				"analytics": {"show analytics", "report", "status", "insights"},
				"weather":   {"weather", "temperature", "forecast"},
				"news":      {"news", "headlines"},
				"quote":     {"quote", "inspiration"},
				"help":      {"help", "what can you do", "commands"},
			},
		},
		Voice: Voice{
			Enabled: true,
			Voice:   "en",
		},
		ExternalAPIs: ExternalAPIs{
			DefaultCity:  "London",
			NewsCountry:  "us",
			CacheSeconds: 300,
		},
		LLM: LLM{
			Provider:    "auto",
			OpenAIModel: "gpt-5-nano",
			OllamaModel: "llama2",
			OllamaURL:   "http://localhost:11434",
		},
	}
}

// Load reads path over the defaults. A missing file is written back so the
// user has something to edit. API keys fall back to the environment.
func Load(path string) Config {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			log.Error("Broken config, using defaults", "path", path, "err", err)
			cfg = Default()
		}
	case os.IsNotExist(err):
		if werr := cfg.write(path); werr != nil {
			log.Warn("Failed to write default config", "path", path, "err", werr)
		}
	default:
		log.Warn("Failed to read config, using defaults", "path", path, "err", err)
	}

	if cfg.ExternalAPIs.OpenWeatherAPIKey == "" {
		cfg.ExternalAPIs.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	}
	if cfg.ExternalAPIs.NewsAPIKey == "" {
		cfg.ExternalAPIs.NewsAPIKey = os.Getenv("NEWS_API_KEY")
	}

	return cfg
}

func (c Config) write(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
