// gazed serves gaze estimation over websockets.
//
// A browser (or gaze-replay) streams FaceMesh landmarks to /ws/landmarks and
// receives one gaze result per frame. Calibration is started with
// POST /api/calibration or a calibrate message.
package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-gaze/internal/config"
	"github.com/teslashibe/go-gaze/internal/log"
	"github.com/teslashibe/go-gaze/pkg/debug"
	"github.com/teslashibe/go-gaze/pkg/gaze"
	"github.com/teslashibe/go-gaze/pkg/overlay"
	"github.com/teslashibe/go-gaze/pkg/tts"
	"github.com/teslashibe/go-gaze/pkg/web"
)

func main() {
	envErr := config.LoadDotEnv()
	srv := config.LoadServer()

	port := flag.String("port", srv.Port, "HTTP port (overrides GAZE_PORT)")
	logLevel := flag.String("log-level", srv.LogLevel, "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", srv.LogFile, "Also write logs to this rotated file")
	preset := flag.String("preset", "default", "Gaze preset: default, sensitive, stable")
	mirrored := flag.Bool("mirrored", false, "Landmarks come from a mirrored (selfie) view")
	static := flag.String("static", "", "Serve a web UI from this directory")
	noSpeech := flag.Bool("no-speech", false, "Send text prompts only, even with OPENAI_API_KEY set")
	overlayWidth := flag.Int("overlay-width", srv.OverlayWidth, "Overlay canvas width in pixels (0 disables)")
	debugFlag := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every frame (very verbose)")
	flag.Parse()

	debug.Enabled, debug.Frames = *debugFlag, *debugFrames
	if *debugFlag {
		*logLevel = "debug"
	}
	log.InitWithOptions(log.Options{Level: *logLevel, File: *logFile, MaxBackups: 3})
	logger := log.L()
	if envErr != nil {
		logger.Warn("ignoring .env", "error", envErr)
	}

	base := presetConfig(*preset)
	if *mirrored {
		base = base.WithMirroredInput(true)
	}
	cfg, err := config.LoadGaze(base)
	if err != nil {
		logger.Warn("ignoring invalid gaze settings", "error", err)
	}
	cfg.Logger = logger

	pipeline := gaze.New(cfg, gaze.WallClock())
	logger.Info("gaze pipeline ready",
		"preset", *preset,
		"window", cfg.WindowSize,
		"y_gain", cfg.YGain,
		"x_gain", cfg.XGain,
		"dwell", cfg.Dwell,
		"mirrored", cfg.MirroredInput,
	)

	webCfg := web.DefaultConfig()
	webCfg.Port = *port
	webCfg.StaticDir = *static
	webCfg.Logger = logger

	if *overlayWidth > 0 {
		r, err := overlay.NewRenderer(*overlayWidth, *overlayWidth*3/4)
		if err != nil {
			logger.Error("overlay disabled", "error", err)
		} else {
			webCfg.Overlay = r
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if !*noSpeech && srv.OpenAIKey != "" {
		speech, err := newSpeech(ctx, srv.OpenAIKey)
		if err != nil {
			logger.Warn("spoken cues disabled", "error", err)
		} else {
			defer speech.Close()
			webCfg.Speech = speech
		}
	}

	server := web.NewServer(webCfg, pipeline)
	if err := server.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func presetConfig(name string) gaze.Config {
	switch name {
	case "sensitive":
		return gaze.SensitiveConfig()
	case "stable":
		return gaze.StableConfig()
	default:
		return gaze.DefaultConfig()
	}
}

// newSpeech builds the cue provider and synthesizes every cue up front so
// prompts are spoken without delay.
func newSpeech(ctx context.Context, apiKey string) (*tts.Cache, error) {
	provider, err := tts.NewOpenAI(
		tts.WithAPIKey(apiKey),
		tts.WithSpeed(gaze.SpeechRate),
		tts.WithLogger(log.L()),
	)
	if err != nil {
		return nil, err
	}
	cache := tts.NewCache(provider, log.L())

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cache.Warm(warmCtx, gaze.CueTexts()...); err != nil {
		var apiErr *tts.APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			cache.Close()
			return nil, err
		}
		log.Warn("cue warm-up failed, synthesizing on demand", "error", err)
	}
	return cache, nil
}
