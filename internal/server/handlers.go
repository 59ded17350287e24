package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ar/cwgen/internal/audio"
	"github.com/ar/cwgen/internal/config"
	"github.com/ar/cwgen/internal/morse"
	"github.com/ar/cwgen/internal/observability"
	"github.com/ar/cwgen/internal/sink"
)

const (
	maxBodyBytes  = 1 << 20
	maxSampleRate = 192000
)

// errTextTooLong and errRenderTooLong map to 413
var (
	errTextTooLong   = errors.New("text too long")
	errRenderTooLong = errors.New("rendered audio too long")
)

// EncodeRequest is the body of POST /v1/encode
type EncodeRequest struct {
	Text string `json:"text"`
}

// EncodeResponse carries the dot/dash transcript
type EncodeResponse struct {
	Text string `json:"text"`
	Code string `json:"code"`
}

// RenderRequest is the body of POST /v1/render and the first message of a
// stream. Unset fields fall back to the service configuration.
type RenderRequest struct {
	Text       string   `json:"text"`
	WPM        *int     `json:"wpm,omitempty"`
	Farnsworth *int     `json:"farnsworth,omitempty"`
	Tone       *float64 `json:"tone,omitempty"`
	GapMs      *int     `json:"gap_ms,omitempty"`
	QRM        *int     `json:"qrm,omitempty"`
	Shape      *string  `json:"shape,omitempty"`
	Drift      *int     `json:"drift,omitempty"`
	SampleRate *int     `json:"sample_rate,omitempty"`
}

// ErrorResponse is returned with every 4xx and 5xx answer
type ErrorResponse struct {
	Error    string `json:"error"`
	Position *int   `json:"position,omitempty"`
}

// renderJob is a validated render request
type renderJob struct {
	text   string
	timing morse.Timing
	config audio.RenderConfig
}

// prepare merges req over the service defaults and validates the result.
// Errors wrap config.ErrInvalidConfig, morse.ErrInvalidCharacter,
// errTextTooLong or errRenderTooLong.
func (s *Server) prepare(req *RenderRequest, defaultRate int) (*renderJob, error) {
	if err := s.checkText(req.Text); err != nil {
		return nil, err
	}

	cfg := *s.cfg
	if req.WPM != nil {
		cfg.WPM = *req.WPM
	}
	if req.Farnsworth != nil {
		cfg.Farnsworth = *req.Farnsworth
	}
	if req.Tone != nil {
		cfg.Tone = *req.Tone
	}
	if req.GapMs != nil {
		cfg.GapMs = *req.GapMs
	}
	if req.QRM != nil {
		cfg.QRM = *req.QRM
	}
	if req.Shape != nil {
		cfg.Shape = *req.Shape
	}
	if req.Drift != nil {
		cfg.Drift = *req.Drift
	}

	rate := defaultRate
	if req.SampleRate != nil {
		rate = *req.SampleRate
	}
	if rate <= 0 || rate > maxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d outside 1-%d", config.ErrInvalidConfig, rate, maxSampleRate)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timing, err := cfg.Timing()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	rc, err := cfg.RenderConfig(rate)
	if err != nil {
		return nil, err
	}

	budget := int64(cfg.MaxRenderSeconds) * int64(rate)
	if n := audio.RenderedSamples(req.Text, timing, rc); n > budget {
		return nil, fmt.Errorf("%w: %.1fs of audio, limit %ds",
			errRenderTooLong, float64(n)/float64(rate), cfg.MaxRenderSeconds)
	}

	return &renderJob{text: req.Text, timing: timing, config: rc}, nil
}

func (s *Server) checkText(text string) error {
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxTextLength {
		return fmt.Errorf("%w: %d characters, limit %d", errTextTooLong, n, s.cfg.MaxTextLength)
	}
	return morse.Validate(text)
}

// render runs a job and records render metrics
func (s *Server) render(ctx context.Context, job *renderJob) (*audio.Buffer, error) {
	m := observability.StartRender()
	buf, err := audio.Render(ctx, job.text, job.timing, job.config)
	if err != nil {
		m.Done(0, 0, err)
		return nil, err
	}
	m.Done(buf.Len(), buf.Duration(), nil)

	zerolog.Ctx(ctx).Debug().
		Int("text_length", len(job.text)).
		Int("samples", buf.Len()).
		Dur("duration", buf.Duration()).
		Float64("peak", buf.Peak()).
		Float64("rms", buf.RMS()).
		Str("timing", job.timing.String()).
		Msg("Rendered")
	return buf, nil
}

func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := s.checkText(req.Text); err != nil {
		writeRequestError(w, r, err)
		return
	}

	code, err := morse.Encode(req.Text)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, EncodeResponse{Text: req.Text, Code: code})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	job, err := s.prepare(&req, s.cfg.FileSampleRate)
	if err != nil {
		writeRequestError(w, r, err)
		return
	}

	buf, err := s.render(r.Context(), job)
	if err != nil {
		// only a cancelled request fails here
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("Render aborted")
		return
	}

	mw := sink.NewMemoryWriter()
	if err := sink.EncodeWAV(mw, buf); err != nil {
		observability.RecordSinkWrite("http", false)
		observability.RecordError("encode", "server")
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("WAV encoding failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "wav encoding failed"})
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(mw.Len()))
	w.WriteHeader(http.StatusOK)
	_, err = w.Write(mw.Bytes())
	observability.RecordSinkWrite("http", err == nil)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON body"})
		return false
	}
	return true
}

// errorStatus maps validation failures to HTTP status codes
func errorStatus(err error) (int, ErrorResponse) {
	resp := ErrorResponse{Error: err.Error()}

	var charErr *morse.CharacterError
	switch {
	case errors.Is(err, errTextTooLong), errors.Is(err, errRenderTooLong):
		return http.StatusRequestEntityTooLarge, resp
	case errors.As(err, &charErr):
		pos := charErr.Pos
		resp.Position = &pos
		return http.StatusBadRequest, resp
	case errors.Is(err, config.ErrInvalidConfig):
		return http.StatusBadRequest, resp
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: "internal error"}
	}
}

func writeRequestError(w http.ResponseWriter, r *http.Request, err error) {
	code, resp := errorStatus(err)
	if code >= http.StatusInternalServerError {
		observability.RecordError("internal", "server")
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Request failed")
	} else {
		zerolog.Ctx(r.Context()).Debug().Err(err).Int("status", code).Msg("Request rejected")
	}
	writeJSON(w, code, resp)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
