// Package tts runs the full synthesis pipeline: utterance to targets, targets
// to a selected unit path, and path to a waveform.
package tts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/example/go-relp-tts/internal/audio"
	"github.com/example/go-relp-tts/internal/catalogue"
	"github.com/example/go-relp-tts/internal/config"
	"github.com/example/go-relp-tts/internal/metrics"
	"github.com/example/go-relp-tts/internal/observability"
	"github.com/example/go-relp-tts/internal/relp"
	"github.com/example/go-relp-tts/internal/unitsel"
	"github.com/example/go-relp-tts/internal/utterance"
)

// Outcome labels reported by Status.
const (
	StatusOK        = "ok"
	StatusMalformed = "malformed"
	StatusLookup    = "lookup"
	StatusSignal    = "signal"
	StatusTimeout   = "timeout"
	StatusCanceled  = "canceled"
	StatusError     = "error"
)

// Selection is the outcome of unit selection for one utterance. Times holds
// one interval per segment (per word for word units).
type Selection struct {
	UnitType string
	Targets  []unitsel.TargetUnit
	Path     *unitsel.Path
	Times    []unitsel.Interval
}

type Result struct {
	*Selection
	Waveform *audio.Waveform
}

type Service struct {
	cat      *catalogue.Catalogue
	unitType string
	silence  string
	selector *unitsel.Selector
	concat   *relp.Concatenator
	timeout  time.Duration
	logger   *slog.Logger
}

// Load reads the catalogue named by cfg.Paths and builds a Service over it.
func Load(cfg config.Config, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}

	start := time.Now()

	cat, err := catalogue.Load(cfg.Paths.CataloguePath, catalogue.Options{
		SampleRate:    cfg.Synth.SampleRate,
		MaxCandidates: cfg.Synth.MaxCandidates,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("catalogue loaded",
		"path", cfg.Paths.CataloguePath,
		"units", cat.Len(),
		"names", len(cat.Names()),
		"sample_rate", cat.SampleRate(),
		"elapsed", time.Since(start),
	)

	return NewService(cat, cfg.Synth, logger)
}

func NewService(cat *catalogue.Catalogue, cfg config.SynthConfig, logger *slog.Logger) (*Service, error) {
	if cat == nil {
		return nil, errors.New("tts: nil catalogue")
	}

	if logger == nil {
		logger = slog.Default()
	}

	unitType, err := config.NormalizeUnitType(cfg.UnitType)
	if err != nil {
		return nil, err
	}

	var cost unitsel.CostModel = unitsel.HalfphoneCost{}
	if unitType == config.UnitWord {
		cost = unitsel.WordCost{}
	}

	return &Service{
		cat:      cat,
		unitType: unitType,
		silence:  cfg.Silence,
		selector: unitsel.NewSelector(cat, cost, unitsel.Options{
			PruneScoreDelta: cfg.PruneScoreDelta,
			PruneNumCands:   cfg.PruneNumCands,
			Workers:         cfg.Workers,
			Logger:          logger,
		}),
		concat: relp.NewConcatenator(relp.Options{
			SampleRate:   cat.SampleRate(),
			WindowFactor: cfg.WindowFactor,
			Dither:       cfg.Dither,
			Logger:       logger,
		}),
		timeout: time.Duration(cfg.Timeout) * time.Second,
		logger:  logger,
	}, nil
}

func (s *Service) Catalogue() *catalogue.Catalogue { return s.cat }

func (s *Service) UnitType() string { return s.unitType }

// Select builds targets for utt and runs the Viterbi search.
func (s *Service) Select(ctx context.Context, utt *utterance.Utterance) (*Selection, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, "tts.select",
		trace.WithAttributes(attribute.String("unit_type", s.unitType)))
	defer span.End()

	sel, err := s.selectUnits(ctx, utt)
	endSpan(span, err)

	return sel, err
}

// Synthesize selects units for utt and concatenates them into a waveform.
func (s *Service) Synthesize(ctx context.Context, utt *utterance.Utterance) (*Result, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	ctx, span := observability.Tracer().Start(ctx, "tts.synthesize",
		trace.WithAttributes(attribute.String("unit_type", s.unitType)))
	defer span.End()

	start := time.Now()
	res, err := s.synthesize(ctx, utt)
	endSpan(span, err)

	status := Status(err)
	seconds := 0.0

	if err == nil {
		seconds = res.Waveform.Duration().Seconds()
		span.SetAttributes(attribute.Float64("audio_seconds", seconds))
	}

	metrics.RecordUtterance(s.unitType, status, seconds)

	s.logger.InfoContext(ctx, "synthesis finished",
		"status", status,
		"unit_type", s.unitType,
		"audio_seconds", seconds,
		"elapsed", time.Since(start),
	)

	return res, err
}

func (s *Service) synthesize(ctx context.Context, utt *utterance.Utterance) (*Result, error) {
	sel, err := s.selectUnits(ctx, utt)
	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "relp.concatenate",
		trace.WithAttributes(attribute.Int("units", len(sel.Path.Units))))
	defer span.End()

	start := time.Now()
	wav, err := s.concat.Concatenate(ctx, sel.Path.Units)
	metrics.RecordStage(metrics.StageConcatenate, time.Since(start).Seconds())
	endSpan(span, err)

	if err != nil {
		return nil, err
	}

	return &Result{Selection: sel, Waveform: wav}, nil
}

func (s *Service) selectUnits(ctx context.Context, utt *utterance.Utterance) (*Selection, error) {
	if utt == nil {
		return nil, &utterance.MalformedError{Segment: -1, Reason: "nil utterance"}
	}

	start := time.Now()
	targets, n, err := s.targets(utt)
	metrics.RecordStage(metrics.StageTargets, time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}

	ctx, span := observability.Tracer().Start(ctx, "unitsel.viterbi",
		trace.WithAttributes(attribute.Int("targets", len(targets))))
	defer span.End()

	start = time.Now()
	path, err := s.selector.Select(ctx, targets)
	metrics.RecordStage(metrics.StageSelect, time.Since(start).Seconds())
	endSpan(span, err)

	if err != nil {
		return nil, err
	}

	for _, c := range path.Columns {
		metrics.RecordSurvivors(c.Survivors)
	}

	span.SetAttributes(attribute.Float64("score", path.Score))

	times, err := unitsel.SegmentTimes(targets, path, n)
	if err != nil {
		return nil, err
	}

	return &Selection{UnitType: s.unitType, Targets: targets, Path: path, Times: times}, nil
}

// targets returns the target units and the number of source items they
// index into.
func (s *Service) targets(utt *utterance.Utterance) ([]unitsel.TargetUnit, int, error) {
	if s.unitType == config.UnitWord {
		t, err := unitsel.BuildWordTargets(utt)
		return t, utt.NumWords(), err
	}

	t, err := unitsel.BuildHalfphoneTargets(utt, unitsel.TargetOptions{Silence: s.silence})

	return t, utt.NumSegments(), err
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}

	return context.WithTimeout(ctx, s.timeout)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// Status classifies a pipeline error into one of the Status* labels.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, utterance.ErrMalformed):
		return StatusMalformed
	case errors.Is(err, catalogue.ErrUnitNotFound):
		return StatusLookup
	case errors.Is(err, relp.ErrSignal):
		return StatusSignal
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, context.Canceled):
		return StatusCanceled
	default:
		return StatusError
	}
}

// Describe renders a one-line summary of a selection for logs and the CLI.
func (sel *Selection) Describe() string {
	return fmt.Sprintf("%d targets, %s units, score %.4f", len(sel.Targets), sel.UnitType, sel.Path.Score)
}
