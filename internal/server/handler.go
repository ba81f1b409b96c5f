package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"

	"github.com/example/go-relp-tts/internal/audio"
	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/metrics"
	"github.com/example/go-relp-tts/internal/observability"
	"github.com/example/go-relp-tts/internal/tts"
	"github.com/example/go-relp-tts/internal/utterance"
)

const requestIDHeader = "X-Request-ID"

// Pipeline runs selection and synthesis for one utterance. *tts.Service
// satisfies it.
type Pipeline interface {
	Select(ctx context.Context, utt *utterance.Utterance) (*tts.Selection, error)
	Synthesize(ctx context.Context, utt *utterance.Utterance) (*tts.Result, error)
}

// CatalogueInfo describes the loaded catalogue. *catalogue.Catalogue
// satisfies it.
type CatalogueInfo interface {
	Summary() catalogue.Summary
	Names() []string
}

// ---------------------------------------------------------------------------
// Functional options
// ---------------------------------------------------------------------------

type options struct {
	maxBodyBytes   int64
	workers        int64
	requestTimeout time.Duration
	logger         *slog.Logger
	metrics        http.Handler
	columns        bool
}

func defaultOptions() options {
	return options{
		maxBodyBytes:   1 << 20,
		workers:        2,
		requestTimeout: 60 * time.Second,
		logger:         slog.Default(),
	}
}

// Option configures the HTTP handler.
type Option func(*options)

// WithMaxBodyBytes caps the size of POST bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(o *options) { o.maxBodyBytes = n }
}

// WithWorkers sets the maximum number of concurrent pipeline runs.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = int64(n) }
}

// WithRequestTimeout sets the per-request pipeline deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) { o.requestTimeout = d }
}

// WithLogger sets the slog.Logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithColumnStats includes per-position trellis statistics in /select
// responses.
func WithColumnStats(on bool) Option {
	return func(o *options) { o.columns = on }
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(o *options) { o.metrics = h }
}

// ---------------------------------------------------------------------------
// handler
// ---------------------------------------------------------------------------

type handler struct {
	pipe Pipeline
	cat  CatalogueInfo
	opts options
	sem  *semaphore.Weighted
	log  *slog.Logger
}

// NewHandler returns an http.Handler serving /health, /units, POST /synth and
// POST /select, plus /metrics when configured.
func NewHandler(pipe Pipeline, cat CatalogueInfo, optFns ...Option) http.Handler {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	h := &handler{
		pipe: pipe,
		cat:  cat,
		opts: opts,
		log:  opts.logger,
	}

	if opts.workers > 0 {
		h.sem = semaphore.NewWeighted(opts.workers)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/units", h.handleUnits)
	mux.HandleFunc("/synth", h.handleSynth)
	mux.HandleFunc("/select", h.handleSelect)

	if opts.metrics != nil {
		mux.Handle("/metrics", opts.metrics)
	}

	return withRequestID(mux)
}

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}

	return "dev"
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildVersion(),
	})
}

type selectResponse struct {
	RequestID string `json:"request_id"`
	*tts.Report
}

type unitsResponse struct {
	Summary catalogue.Summary `json:"summary"`
	Names   []string          `json:"names"`
}

func (h *handler) handleUnits(w http.ResponseWriter, _ *http.Request) {
	names := h.cat.Names()
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, unitsResponse{Summary: h.cat.Summary(), Names: names})
}

func (h *handler) handleSynth(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "/synth", func(ctx context.Context, utt *utterance.Utterance) error {
		res, err := h.pipe.Synthesize(ctx, utt)
		if err != nil {
			return err
		}

		start := time.Now()
		wav, err := audio.EncodeWAV(res.Waveform)
		metrics.RecordStage(metrics.StageEncode, time.Since(start).Seconds())

		if err != nil {
			return fmt.Errorf("encode wav: %w", err)
		}

		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("X-Audio-Duration", strconv.FormatFloat(res.Waveform.Duration().Seconds(), 'f', 3, 64))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(wav)

		return nil
	})
}

func (h *handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	h.run(w, r, "/select", func(ctx context.Context, utt *utterance.Utterance) error {
		sel, err := h.pipe.Select(ctx, utt)
		if err != nil {
			return err
		}

		writeJSON(w, http.StatusOK, selectResponse{
			RequestID: requestID(r.Context()),
			Report:    tts.NewReport(utt, sel, h.opts.columns),
		})

		return nil
	})
}

// run handles the shared POST flow: body decoding, worker slot, deadline,
// error mapping and logging. fn writes the success response.
func (h *handler) run(w http.ResponseWriter, r *http.Request, route string, fn func(context.Context, *utterance.Utterance) error) {
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	defer func() { metrics.RecordHTTPRequest(route, strconv.Itoa(rec.status)) }()

	w = rec

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if r.Body == nil {
		writeError(w, http.StatusBadRequest, "request body is required")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("body exceeds maximum size of %d bytes", h.opts.maxBodyBytes))
			return
		}

		writeError(w, http.StatusBadRequest, "read body: "+err.Error())

		return
	}

	utt, err := utterance.Decode(bytes.NewReader(body))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// Acquire a worker slot, honouring cancellation while waiting.
	if h.sem != nil {
		if err := h.sem.Acquire(r.Context(), 1); err != nil {
			writeError(w, http.StatusServiceUnavailable, "request cancelled while waiting for worker")
			return
		}
		defer h.sem.Release(1)
	}

	done := metrics.RequestStarted()
	defer done()

	ctx, cancel := context.WithTimeout(r.Context(), h.opts.requestTimeout)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, "http"+route, trace.WithAttributes(
		attribute.String("request_id", requestID(r.Context())),
		attribute.Int("segments", utt.NumSegments()),
	))
	defer span.End()

	start := time.Now()
	err = fn(ctx, utt)
	durationMS := time.Since(start).Milliseconds()

	attrs := []any{
		slog.String("route", route),
		slog.String("request_id", requestID(r.Context())),
		slog.Int("segments", utt.NumSegments()),
		slog.Int64("duration_ms", durationMS),
	}

	if err != nil {
		status := statusFor(err)
		attrs = append(attrs, slog.Int("status", status), slog.String("error", err.Error()))

		if status >= http.StatusInternalServerError {
			h.log.ErrorContext(ctx, "request failed", attrs...)
		} else {
			h.log.WarnContext(ctx, "request rejected", attrs...)
		}

		writeError(w, status, err.Error())

		return
	}

	h.log.InfoContext(ctx, "request complete", attrs...)
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch tts.Status(err) {
	case tts.StatusMalformed, tts.StatusLookup:
		return http.StatusUnprocessableEntity
	case tts.StatusSignal:
		return http.StatusInternalServerError
	case tts.StatusTimeout:
		return http.StatusGatewayTimeout
	case tts.StatusCanceled:
		return http.StatusServiceUnavailable
	}

	if errors.Is(err, utterance.ErrSyntax) {
		return http.StatusBadRequest
	}

	return http.StatusInternalServerError
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

type ctxKey struct{}

// withRequestID tags every request with an ID, reusing a client-supplied
// X-Request-ID when present, and echoes it in the response.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
