package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/observability"
)

const (
	requestTimeout = 10 * time.Second
	writeTimeout   = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// browsers on any origin may listen
		return true
	},
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// Stream events sent as text messages around the binary PCM frames
const (
	EventStart = "start"
	EventDone  = "done"
	EventError = "error"
)

// StreamEvent is a JSON control message on the stream
type StreamEvent struct {
	Event      string `json:"event"`
	SampleRate int    `json:"sample_rate,omitempty"`
	Samples    int    `json:"samples,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Error      string `json:"error,omitempty"`
}

// streamSession plays one rendered text to one websocket client
type streamSession struct {
	conn    *websocket.Conn
	server  *Server
	logger  zerolog.Logger
	frameMs int
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context()).With().Str("component", "stream").Logger()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already answered the client
		logger.Warn().Err(err).Msg("Failed to upgrade connection to WebSocket")
		return
	}
	defer conn.Close()

	observability.RecordStreamStart()
	defer observability.RecordStreamEnd()

	session := &streamSession{
		conn:    conn,
		server:  s,
		logger:  logger,
		frameMs: s.cfg.StreamFrameMs,
	}

	// r.Context() is not cancelled when a hijacked client goes away;
	// the read loop in run reports that instead
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		select {
		case <-s.streams.Done():
			cancel()
		case <-ctx.Done():
		}
	}()

	session.run(ctx, cancel)
}

func (ss *streamSession) run(ctx context.Context, cancel context.CancelFunc) {
	ss.conn.SetReadDeadline(time.Now().Add(requestTimeout))

	var req RenderRequest
	if err := ss.conn.ReadJSON(&req); err != nil {
		ss.logger.Debug().Err(err).Msg("No render request received")
		ss.sendError("expected a JSON render request")
		return
	}
	ss.conn.SetReadDeadline(time.Time{})

	job, err := ss.server.prepare(&req, ss.server.cfg.PlaybackSampleRate)
	if err != nil {
		_, resp := errorStatus(err)
		ss.sendError(resp.Error)
		return
	}

	buf, err := ss.server.render(ss.logger.WithContext(ctx), job)
	if err != nil {
		ss.logger.Warn().Err(err).Msg("Render aborted")
		return
	}

	// the client sends nothing more; a failed read means it has gone
	go func() {
		for {
			if _, _, err := ss.conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					ss.logger.Debug().Err(err).Msg("WebSocket read error")
				}
				cancel()
				return
			}
		}
	}()

	if err := ss.send(StreamEvent{
		Event:      EventStart,
		SampleRate: buf.SampleRate,
		Samples:    buf.Len(),
		DurationMs: buf.Duration().Milliseconds(),
	}); err != nil {
		return
	}

	if err := ss.streamFrames(ctx, buf); err != nil {
		ss.logger.Info().Err(err).Msg("Stream stopped early")
		return
	}

	if err := ss.send(StreamEvent{Event: EventDone}); err != nil {
		return
	}
	ss.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))

	ss.logger.Info().
		Int("samples", buf.Len()).
		Dur("duration", buf.Duration()).
		Msg("Stream complete")
}

// streamFrames sends buf as PCM16 LE frames, one frame per tick
func (ss *streamSession) streamFrames(ctx context.Context, buf *audio.Buffer) error {
	frameSamples := buf.SampleRate * ss.frameMs / 1000
	if frameSamples < 1 {
		frameSamples = 1
	}

	ticker := time.NewTicker(time.Duration(ss.frameMs) * time.Millisecond)
	defer ticker.Stop()

	for start := 0; start < buf.Len(); start += frameSamples {
		end := start + frameSamples
		if end > buf.Len() {
			end = buf.Len()
		}

		frame := audio.EncodePCM16LE(buf.Samples[start:end])
		ss.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := ss.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			return err
		}
		observability.RecordStreamedBytes(len(frame))

		if end == buf.Len() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func (ss *streamSession) send(ev StreamEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ss.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := ss.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		ss.logger.Debug().Err(err).Str("event", ev.Event).Msg("Failed to send event")
		return err
	}
	return nil
}

func (ss *streamSession) sendError(msg string) {
	if ss.send(StreamEvent{Event: EventError, Error: msg}) != nil {
		return
	}
	ss.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, ""),
		time.Now().Add(writeTimeout))
}
