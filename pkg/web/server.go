// Package web serves the gaze pipeline over HTTP and websockets.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-gaze/pkg/gaze"
	"github.com/teslashibe/go-gaze/pkg/hub"
	"github.com/teslashibe/go-gaze/pkg/overlay"
	"github.com/teslashibe/go-gaze/pkg/protocol"
	"github.com/teslashibe/go-gaze/pkg/tts"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrDebounced is returned when calibration is started again too quickly.
var ErrDebounced = errors.New("calibration start debounced")

const (
	maxEvents    = 200
	speechBudget = 15 * time.Second
)

// Config configures the server.
type Config struct {
	Port string

	// StaticDir, if set, is served at /.
	StaticDir string

	// StartInterval is the minimum spacing between calibration starts.
	StartInterval time.Duration

	// Speech synthesizes spoken cues. Nil sends text prompts only.
	Speech tts.Provider

	// Overlay renders diagnostic frames. Nil disables /ws/overlay output.
	Overlay *overlay.Renderer

	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Port:          "8090",
		StartInterval: time.Second,
		Logger:        slog.Default(),
	}
}

// Event is a calibration event kept for the dashboard
type Event struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // prompt, thresholds, failed
	Message string `json:"message"`
}

// Status is a snapshot of the server for /api/status
type Status struct {
	Step            string  `json:"step"`
	Frames          uint64  `json:"frames"`
	LandmarkClients int64   `json:"landmark_clients"`
	GazeClients     int     `json:"gaze_clients"`
	OverlayClients  int     `json:"overlay_clients"`
	CueClients      int     `json:"cue_clients"`
	Dropped         uint64  `json:"dropped_broadcasts"` // Lost to full hub queues
	Speech          bool    `json:"speech"`
	Uptime          float64 `json:"uptime_s"`
}

// Server is the gaze web server
type Server struct {
	app      *fiber.App
	config   Config
	pipeline *gaze.Pipeline
	logger   *slog.Logger
	validate *validator.Validate
	started  time.Time

	startLimiter *rate.Limiter

	frames          atomic.Uint64
	landmarkClients atomic.Int64

	events   []Event
	eventsMu sync.RWMutex

	// Hubs for websocket broadcast
	gazeHub    *hub.Hub
	overlayHub *hub.Hub
	cueHub     *hub.Hub

	// overlayQueue holds at most one pending frame; newer frames replace
	// older ones.
	overlayQueue chan overlay.Frame

	speechCtx    context.Context
	cancelSpeech context.CancelFunc
}

// NewServer creates the server and wires the pipeline's calibration
// callbacks to the broadcast hubs.
func NewServer(cfg Config, pipeline *gaze.Pipeline) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.StartInterval <= 0 {
		cfg.StartInterval = time.Second
	}

	speechCtx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:       cfg,
		pipeline:     pipeline,
		logger:       cfg.Logger.With("component", "web"),
		validate:     validator.New(),
		started:      time.Now(),
		startLimiter: rate.NewLimiter(rate.Every(cfg.StartInterval), 1),
		events:       make([]Event, 0, maxEvents),
		gazeHub:      hub.New("gaze", cfg.Logger),
		overlayHub:   hub.New("overlay", cfg.Logger),
		cueHub:       hub.New("cues", cfg.Logger),
		overlayQueue: make(chan overlay.Frame, 1),
		speechCtx:    speechCtx,
		cancelSpeech: cancel,
	}
	s.gazeHub.OnReceive = s.handleCommand

	cal := pipeline.Calibrator()
	cal.OnPrompt = s.onPrompt
	cal.OnComplete = s.onComplete
	cal.OnFailure = s.onFailure

	app := fiber.New(fiber.Config{
		AppName:               "go-gaze",
		DisableStartupMessage: true,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/gaze", s.handleGaze)
	api.Get("/thresholds", s.handleThresholds)
	api.Get("/calibration", s.handleCalibrationStatus)
	api.Post("/calibration", s.handleStartCalibration)
	api.Delete("/calibration", s.handleAbortCalibration)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Get("/events", s.handleGetEvents)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/landmarks", websocket.New(s.handleLandmarksWS))
	app.Get("/ws/gaze", websocket.New(s.handleHubWS(s.gazeHub)))
	app.Get("/ws/overlay", websocket.New(s.handleHubWS(s.overlayHub)))
	app.Get("/ws/cues", websocket.New(s.handleHubWS(s.cueHub)))

	s.app = app
	return s
}

// App returns the fiber app, e.g. for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run starts the hubs and serves on the configured port until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", ":"+s.config.Port)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("gaze server listening", "addr", ln.Addr().String())

	go s.gazeHub.Run(ctx)
	go s.overlayHub.Run(ctx)
	go s.cueHub.Run(ctx)
	go s.renderOverlays(ctx)

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	return s.app.Listener(ln)
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	s.cancelSpeech()
	return s.app.Shutdown()
}

// StartCalibration starts a session unless one is running or the last start
// was too recent.
func (s *Server) StartCalibration() (string, error) {
	if s.pipeline.Calibrator().Active() {
		return "", gaze.ErrCalibrationInProgress
	}
	if !s.startLimiter.Allow() {
		return "", ErrDebounced
	}
	return s.pipeline.StartCalibration()
}

// AddEvent records an event and keeps the most recent ones.
func (s *Server) AddEvent(eventType, message string) {
	entry := Event{
		Time:    time.Now().Format("15:04:05"),
		Type:    eventType,
		Message: message,
	}

	s.eventsMu.Lock()
	s.events = append(s.events, entry)
	if len(s.events) > maxEvents {
		s.events = s.events[1:]
	}
	s.eventsMu.Unlock()
}

// processFrame runs one pipeline pass and fans the result out.
func (s *Server) processFrame(data *protocol.LandmarksData) gaze.FrameResult {
	result := s.pipeline.ProcessFrame(data.Faces)
	n := s.frames.Add(1)

	if s.gazeHub.ClientCount() > 0 {
		if msg, err := protocol.NewGazeMessage(data.FrameID, result); err == nil {
			s.broadcast(s.gazeHub, msg)
		}
	}

	if s.config.Overlay != nil && s.overlayHub.ClientCount() > 0 && len(data.Faces) > 0 {
		s.queueOverlay(overlay.Frame{
			Face:       data.Faces[0],
			Result:     result,
			Background: data.Image,
			Width:      data.Width,
			Height:     data.Height,
		})
	}

	if n%300 == 0 {
		s.logger.Debug("frames processed", "frames", n, "status", result.Status)
	}
	return result
}

func (s *Server) queueOverlay(f overlay.Frame) {
	for {
		select {
		case s.overlayQueue <- f:
			return
		default:
		}
		// Drop the stale frame and retry.
		select {
		case <-s.overlayQueue:
		default:
		}
	}
}

// renderOverlays is the single overlay worker.
func (s *Server) renderOverlays(ctx context.Context) {
	if s.config.Overlay == nil {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-s.overlayQueue:
			jpeg, err := s.config.Overlay.Render(f)
			if err != nil {
				s.logger.Warn("overlay render failed", "error", err)
				continue
			}
			s.overlayHub.BroadcastBinary(jpeg)
		}
	}
}

func (s *Server) broadcast(h *hub.Hub, msg *protocol.Message) {
	if err := h.BroadcastJSON(msg); err != nil {
		s.logger.Error("encode message", "type", msg.Type, "error", err)
	}
}

// =============================================================================
// Calibration callbacks
// =============================================================================

func (s *Server) onPrompt(p gaze.Prompt) {
	s.AddEvent("prompt", p.Text)
	if msg, err := protocol.NewPromptMessage(p); err == nil {
		s.broadcast(s.gazeHub, msg)
	}
	s.speak(p.Speech)
}

func (s *Server) onComplete(r gaze.CalibrationResult) {
	t := r.Thresholds
	s.AddEvent("thresholds", "upper_y="+ftoa(t.UpperY)+" lower_y="+ftoa(t.LowerY)+
		" left_x="+ftoa(t.LeftX)+" right_x="+ftoa(t.RightX))
	if msg, err := protocol.NewThresholdsMessage(r); err == nil {
		s.broadcast(s.gazeHub, msg)
	}
}

func (s *Server) onFailure(err error) {
	s.AddEvent("failed", err.Error())
	if msg, mErr := protocol.NewCalibrationFailedMessage(err); mErr == nil {
		s.broadcast(s.gazeHub, msg)
	}
}

// speak synthesizes a cue in the background and sends it to cue listeners.
func (s *Server) speak(text string) {
	if s.config.Speech == nil || text == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(s.speechCtx, speechBudget)
		defer cancel()

		clip, err := s.config.Speech.Synthesize(ctx, text)
		if err != nil {
			s.logger.Warn("cue synthesis failed", "text", text, "error", err)
			return
		}
		s.cueHub.BroadcastBinary(clip.Audio)
	}()
}
