package web

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-gaze/pkg/debug"
	"github.com/teslashibe/go-gaze/pkg/gaze"
	"github.com/teslashibe/go-gaze/pkg/hub"
	"github.com/teslashibe/go-gaze/pkg/protocol"
)

// maxLandmarkMessage bounds one landmarks message.
const maxLandmarkMessage = 1 << 20

// handleStatus returns a server snapshot
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(Status{
		Step:            s.pipeline.Calibrator().Step().String(),
		Frames:          s.frames.Load(),
		LandmarkClients: s.landmarkClients.Load(),
		GazeClients:     s.gazeHub.ClientCount(),
		OverlayClients:  s.overlayHub.ClientCount(),
		CueClients:      s.cueHub.ClientCount(),
		Dropped:         s.gazeHub.Dropped() + s.overlayHub.Dropped() + s.cueHub.Dropped(),
		Speech:          s.config.Speech != nil,
		Uptime:          time.Since(s.started).Seconds(),
	})
}

// handleGaze returns the last frame result
func (s *Server) handleGaze(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Last())
}

// handleThresholds returns the active threshold set
func (s *Server) handleThresholds(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Thresholds())
}

// handleCalibrationStatus returns the calibrator state
func (s *Server) handleCalibrationStatus(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.Calibrator().Status())
}

// handleStartCalibration starts a calibration session
func (s *Server) handleStartCalibration(c *fiber.Ctx) error {
	id, err := s.StartCalibration()
	switch {
	case errors.Is(err, gaze.ErrCalibrationInProgress):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrDebounced):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case err != nil:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"session_id": id,
		"step":       s.pipeline.Calibrator().Step(),
	})
}

// handleAbortCalibration cancels the running session
func (s *Server) handleAbortCalibration(c *fiber.Ctx) error {
	if err := s.pipeline.AbortCalibration(); err != nil {
		if errors.Is(err, gaze.ErrNotCalibrating) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleGetTuning returns the live tuning parameters
func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.pipeline.GetTuningParams())
}

// handleSetTuning validates and applies tuning parameters
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params gaze.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body: " + err.Error()})
	}

	if err := s.validate.Struct(params); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag() + " " + fe.Param()
			}
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid tuning", "fields": fields})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	s.pipeline.SetTuningParams(params)
	return c.JSON(s.pipeline.GetTuningParams())
}

// handleGetEvents returns recent calibration events
func (s *Server) handleGetEvents(c *fiber.Ctx) error {
	s.eventsMu.RLock()
	defer s.eventsMu.RUnlock()
	return c.JSON(s.events)
}

// handleLandmarksWS is the frame source connection. Every landmarks message
// gets exactly one gaze reply once its pass is done, so a client that waits
// for the reply never has more than one frame in flight.
func (s *Server) handleLandmarksWS(c *websocket.Conn) {
	s.landmarkClients.Add(1)
	defer s.landmarkClients.Add(-1)

	// A new source starts from empty smoothing windows.
	s.pipeline.Reset()

	log := s.logger.With("remote", c.RemoteAddr().String())
	log.Info("landmark source connected")
	defer log.Info("landmark source disconnected")

	c.SetReadLimit(maxLandmarkMessage)

	for {
		mt, raw, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		reply := s.handleLandmarkMessage(raw)
		if reply == nil {
			continue
		}
		data, err := reply.Bytes()
		if err != nil {
			log.Error("encode reply", "error", err)
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// handleLandmarkMessage dispatches one client message and returns the reply,
// if any.
func (s *Server) handleLandmarkMessage(raw []byte) *protocol.Message {
	msg, err := protocol.ParseMessage(raw)
	if err != nil {
		return errorMessage(err.Error())
	}

	switch msg.Type {
	case protocol.TypeLandmarks:
		data, err := msg.GetLandmarksData()
		if err != nil {
			return errorMessage("invalid landmarks: " + err.Error())
		}
		result := s.processFrame(data)
		debug.FrameLog("frame",
			"id", data.FrameID,
			"status", result.Status,
			"gaze", result.State.String(),
			"x", result.Smoothed.X,
			"y", result.Smoothed.Y,
		)
		reply, _ := protocol.NewGazeMessage(data.FrameID, result)
		return reply

	case protocol.TypeCalibrate:
		if err := s.runCommand(msg); err != nil {
			return errorMessage(err.Error())
		}
		return nil

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return errorMessage(err.Error())
		}
		pong, _ := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
		return pong

	default:
		return errorMessage("unsupported message type: " + string(msg.Type))
	}
}

// handleCommand takes calibrate messages from gaze hub listeners.
func (s *Server) handleCommand(raw []byte) {
	msg, err := protocol.ParseMessage(raw)
	if err != nil || msg.Type != protocol.TypeCalibrate {
		return
	}
	if err := s.runCommand(msg); err != nil {
		debug.Log("calibrate command rejected", "error", err)
	}
}

func (s *Server) runCommand(msg *protocol.Message) error {
	cmd, err := msg.GetCalibrateCommand()
	if err != nil {
		return err
	}
	switch cmd.Action {
	case protocol.ActionStart:
		_, err = s.StartCalibration()
	case protocol.ActionAbort:
		err = s.pipeline.AbortCalibration()
	default:
		err = errors.New("unknown calibrate action: " + cmd.Action)
	}
	return err
}

// handleHubWS returns a handler that attaches the connection to h
func (s *Server) handleHubWS(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}

func errorMessage(text string) *protocol.Message {
	msg, _ := protocol.NewErrorMessage(text)
	return msg
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}
