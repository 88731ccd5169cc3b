package live

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/interviewlab/analysis-engine/internal/config"
	"github.com/interviewlab/analysis-engine/internal/observability"
	"github.com/interviewlab/analysis-engine/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the interview frontend origin once it is deployed
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ControlMessage is a text frame on the ingest socket. Binary frames
// carry raw 16-bit mono PCM; everything else arrives as JSON control.
type ControlMessage struct {
	Type      string `json:"type"` // "start", "stop", "frame"
	SessionID string `json:"session_id,omitempty"`
	FrameJPEG []byte `json:"frame_jpeg,omitempty"` // base64 on the wire
}

// serverMessage is what the handler writes back to the client.
type serverMessage struct {
	Type      string            `json:"type"` // "started", "done", "error"
	SessionID string            `json:"session_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Recording *session.Metadata `json:"recording,omitempty"`
}

// wsConn serializes writes: interim results arrive from analysis
// goroutines while the read loop writes acks on the same socket.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

// Handler returns the WebSocket ingest endpoint. One connection carries
// one session: a "start" control frame opens it, binary frames stream
// PCM, "frame" control frames carry JPEG video, and "stop" (or the
// disconnect) finalizes the recording.
func Handler(cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			l := observability.GetLogger()
			l.Error().Err(err).Msg("WebSocket upgrade failed")
			return
		}
		defer conn.Close()

		ws := &wsConn{conn: conn}
		logger := observability.GetLogger().With().Str("component", "live").Logger()

		var manager *Manager
		defer func() {
			// Disconnect without a stop still finalizes, exactly once.
			if manager != nil {
				if _, err := manager.Abort(); err != nil {
					logger.Warn().Err(err).Msg("Finalize on disconnect failed")
				}
			}
		}()

		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.Warn().Err(err).Msg("WebSocket read error")
				}
				return
			}

			switch msgType {
			case websocket.BinaryMessage:
				if manager == nil {
					writeError(ws, "", "audio before start")
					continue
				}
				if err := manager.IngestAudio(data); err != nil {
					logger.Warn().Err(err).Msg("Audio chunk rejected")
				}

			case websocket.TextMessage:
				var msg ControlMessage
				if err := json.Unmarshal(data, &msg); err != nil {
					logger.Error().Err(err).Msg("Malformed control message")
					writeError(ws, "", "malformed control message")
					continue
				}
				done := handleControl(cfg, ws, logger, &manager, msg)
				if done {
					return
				}

			default:
				// Ping/pong handled by gorilla; ignore anything else
			}
		}
	}
}

// handleControl applies one control message, reporting whether the
// session ended.
func handleControl(cfg config.Config, ws *wsConn, logger zerolog.Logger, manager **Manager, msg ControlMessage) bool {
	switch msg.Type {
	case "start":
		if *manager != nil {
			writeError(ws, (*manager).SessionID(), "session already started")
			return false
		}
		sessionID := msg.SessionID
		if sessionID == "" {
			sessionID = observability.NewSessionID()
		}
		m, err := NewManager(cfg, sessionID, func(res InterimResult) {
			if err := ws.writeJSON(res); err != nil {
				logger.Debug().Err(err).Msg("Interim result dropped")
			}
		})
		if err != nil {
			logger.Error().Err(err).Msg("Failed to open session")
			writeError(ws, sessionID, err.Error())
			return true
		}
		*manager = m
		logger.Info().Str("session_id", sessionID).Msg("Live session started")
		_ = ws.writeJSON(serverMessage{Type: "started", SessionID: sessionID})

	case "frame":
		if *manager == nil {
			writeError(ws, "", "frame before start")
			return false
		}
		if err := (*manager).IngestFrame(msg.FrameJPEG); err != nil {
			logger.Warn().Err(err).Msg("Video frame rejected")
		}

	case "stop":
		if *manager == nil {
			writeError(ws, "", "stop before start")
			return false
		}
		meta, err := (*manager).Stop()
		if err != nil {
			writeError(ws, (*manager).SessionID(), err.Error())
			return true
		}
		_ = ws.writeJSON(serverMessage{
			Type:      "done",
			SessionID: (*manager).SessionID(),
			Recording: meta,
		})
		// Recorder already finalized; the deferred Abort is a no-op
		return true

	default:
		writeError(ws, "", "unknown control type: "+msg.Type)
	}
	return false
}

func writeError(ws *wsConn, sessionID, message string) {
	_ = ws.writeJSON(serverMessage{Type: "error", SessionID: sessionID, Error: message})
}
