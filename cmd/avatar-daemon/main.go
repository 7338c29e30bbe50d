package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"avatar/internal/apis"
	"avatar/internal/config"
	"avatar/internal/confirm"
	"avatar/internal/ipc"
	"avatar/internal/llm"
	"avatar/internal/netutil"
	"avatar/internal/nlu"
	"avatar/internal/notify"
	"avatar/internal/speech"
	"avatar/internal/surface"
	"avatar/internal/tts"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

type assistant struct {
	cfg        config.Config
	speech     *speech.System
	voice      *tts.Speaker
	apis       *apis.Manager
	llm        *llm.Manager
	analyzer   *nlu.Analyzer
	dispatcher *nlu.Dispatcher
	gate       *confirm.System
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	configPath := cli.StringP("config", "c", "data/config.json", "Config file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	godotenv.Load(*envFile)
	cfg := config.Load(*configPath)

	httpClient, err := netutil.NewHTTPClient(cfg.Daemon.ProxyAddr)
	if err != nil {
		log.Error("Failed to dial socks proxy", "proxy", cfg.Daemon.ProxyAddr, "err", err)
		os.Exit(1)
	}

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		log.Warn("OPENAI_API_KEY not set, running on local providers only")
	}
	openaiClient := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpClient),
	)

	speechSys := speech.New(cfg.Speech)
	defer speechSys.Close()

	voice := tts.NewSpeaker(cfg.Voice)
	defer voice.Close()

	apiMgr := apis.NewManager(cfg.ExternalAPIs, httpClient)
	llmMgr := buildProviderChain(cfg.LLM, openaiClient, apiKey != "")
	log.Info("LLM chain ready", "active", llmMgr.Active())

	surf := surface.NewServer()
	if err := surf.Start(cfg.Daemon.SurfaceAddr); err != nil {
		log.Error("Failed to start surface", "err", err)
		os.Exit(1)
	}

	a := &assistant{
		cfg:        cfg,
		speech:     speechSys,
		voice:      voice,
		apis:       apiMgr,
		llm:        llmMgr,
		analyzer:   nlu.NewAnalyzer(openaiClient, cfg.LLM.OpenAIModel, apiKey != "", cfg.Speech.Commands),
		dispatcher: nlu.NewDispatcher(apiMgr, llmMgr),
	}
	a.gate = confirm.New(confirmOptions(cfg.Confirmation), speechSys, voice, surf)

	go a.routeDecisions(surf)

	if err := ipc.StartServer(cfg.Daemon.SocketPath, a.handleControl); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	log.Info("Boot up - successful", "socket", cfg.Daemon.SocketPath, "surface", cfg.Daemon.SurfaceAddr)

	select {}
}

func confirmOptions(c config.Confirmation) confirm.Options {
	return confirm.Options{
		ConfirmationRequired: c.ConfirmationRequired,
		Timeout:              time.Duration(c.TimeoutSeconds) * time.Second,
		SubmitKeywords:       c.SubmitKeywords,
		CancelKeywords:       c.CancelKeywords,
		VoiceConfirmation:    c.VoiceConfirmationEnabled,
		VisualConfirmation:   c.ShowVisualConfirmation,
		ConfirmationPrompt:   c.ConfirmationPrompt,
		TimeoutPrompt:        c.TimeoutPrompt,
		MaxReprompts:         c.MaxReprompts,
	}
}

func buildProviderChain(c config.LLM, client openai.Client, openaiReady bool) *llm.Manager {
	cloud := llm.NewOpenAI(client, c.OpenAIModel, openaiReady)
	// ollama is local, never proxied
	local := llm.NewOllama(c.OllamaURL, c.OllamaModel, nil)
	fallback := llm.NewFallback()

	switch c.Provider {
	case "openai":
		return llm.NewManager(cloud, fallback)
	case "ollama":
		return llm.NewManager(local, fallback)
	case "fallback":
		return llm.NewManager(fallback)
	default: // auto
		return llm.NewManager(cloud, local, fallback)
	}
}

// routeDecisions feeds widget button clicks into the confirmation gate.
func (a *assistant) routeDecisions(surf *surface.Server) {
	for d := range surf.Decisions() {
		switch d.Type {
		case "confirmed":
			a.gate.Confirm(d.CommandID)
		case "cancelled":
			a.gate.Cancel(d.CommandID)
		default:
			log.Warn("Unknown surface decision", "type", d.Type)
		}
	}
}

func (a *assistant) handleControl(msg ipc.ControlMessage) (string, error) {
	switch msg.Cmd {
	case "trigger":
		go a.handleTrigger()
		return "listening", nil

	case "say":
		if len(msg.Args) == 0 {
			return "", fmt.Errorf("say needs text")
		}
		id := a.processUtterance(strings.Join(msg.Args, " "), 1.0)
		return id, nil

	case "confirm":
		if len(msg.Args) != 1 {
			return "", fmt.Errorf("confirm needs a command id")
		}
		if !a.gate.Confirm(msg.Args[0]) {
			return "", fmt.Errorf("no pending command %s", msg.Args[0])
		}
		return "confirmed", nil

	case "cancel":
		if len(msg.Args) == 0 {
			a.gate.CancelAll()
			return "cancelled all", nil
		}
		if !a.gate.Cancel(msg.Args[0]) {
			return "", fmt.Errorf("no pending command %s", msg.Args[0])
		}
		return "cancelled", nil

	case "status":
		return a.statusText(), nil

	case "briefing":
		n := a.apis.Briefing(time.Now())
		if n == nil {
			return "nothing to report right now", nil
		}
		notify.Desktop(n.Title, n.Message)
		a.voice.Speak(n.Message)
		return n.Title + "\n" + n.Message, nil

	case "transcribe":
		if len(msg.Args) != 1 {
			return "", fmt.Errorf("transcribe needs a file path")
		}
		ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
		defer cancel()
		utt, err := a.speech.RecognizeFile(ctx, msg.Args[0])
		if err != nil {
			return "", err
		}
		if utt == nil {
			return "no speech recognized", nil
		}
		return utt.Text, nil

	default:
		return "", fmt.Errorf("unknown command %q", msg.Cmd)
	}
}

// handleTrigger runs one listen-understand-confirm-execute cycle.
func (a *assistant) handleTrigger() {
	notify.Chime(a.cfg.Daemon.ChimePath)
	notify.Desktop("Listening...", "")

	log.Info("Starting listening")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	utt, err := a.speech.RecognizeOnce(ctx, 0)
	if err != nil {
		log.Error("Failed to recognize", "err", err)
		return
	}
	if utt == nil {
		log.Info("Heard nothing")
		return
	}

	log.Info("Recognized", "text", utt.Text, "intent", utt.Intent)

	if utt.WakeWord && utt.Intent == "general" {
		a.voice.Speak("Yes, I'm listening. How can I help?")
		return
	}

	a.processUtterance(utt.Text, utt.Confidence)
}

// processUtterance classifies text and pushes it through the
// confirmation gate. Returns the command id.
func (a *assistant) processUtterance(text string, confidence float64) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	res := a.analyzer.Analyze(ctx, text)

	log.Info("Classified", "intent", res.Intent, "params", res.Params)

	if res.Intent == "unknown" {
		a.voice.Speak("Sorry, I didn't catch that.")
		return ""
	}

	req := confirm.Request{
		Text:       text,
		Intent:     res.Intent,
		Params:     res.Params,
		Confidence: confidence,
		Preview:    nlu.Preview(res),
		Bypass:     !nlu.NeedsConfirmation(res.Intent),
	}

	return a.gate.Submit(req, func(intent string, params map[string]any) error {
		execCtx, execCancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer execCancel()

		reply, err := a.dispatcher.Execute(execCtx, intent, params, res.Query)
		if err != nil {
			return err
		}

		log.Info("Reply ready", "intent", intent, "reply", reply)
		notify.Desktop("Avatar", reply)
		a.voice.Speak(reply)
		return nil
	})
}

func (a *assistant) statusText() string {
	var b strings.Builder

	fmt.Fprintf(&b, "llm: %s\n", a.llm.Active())
	fmt.Fprintf(&b, "speech: %v\n", a.speech.Enabled())
	for api, ok := range a.apis.Status() {
		fmt.Fprintf(&b, "api %s: %v\n", api, ok)
	}

	pending := a.gate.Pending()
	fmt.Fprintf(&b, "pending: %d", len(pending))
	for _, cmd := range pending {
		fmt.Fprintf(&b, "\n  %s %s (%s)", cmd.ID, cmd.Intent, cmd.Preview)
	}
	return b.String()
}
