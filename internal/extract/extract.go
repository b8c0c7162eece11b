// Package extract picks the extractor for a file, wraps its output in a
// core.Extraction and hands it to the configured sink.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/extractor/internal/acmi"
	"github.com/OCAP2/extractor/internal/combatflite"
	"github.com/OCAP2/extractor/internal/geo"
	"github.com/OCAP2/extractor/internal/miz"
	"github.com/OCAP2/extractor/internal/storage"
	"github.com/OCAP2/extractor/pkg/core"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Option configures a Service.
type Option func(*Service)

// WithBackend stores every successful extraction.
func WithBackend(b storage.Backend) Option {
	return func(s *Service) { s.backend = b }
}

// WithMeterProvider records metrics on mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) { s.meter = mp.Meter(instrumentationName) }
}

// WithClock replaces time.Now for the ExtractedAt stamp.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs extractions. It is safe for concurrent use when its
// backend is.
type Service struct {
	registry *geo.Registry
	mission  *miz.Extractor
	track    *acmi.Extractor
	plan     *combatflite.Extractor
	backend  storage.Backend
	logger   zerolog.Logger
	now      func() time.Time

	// OTEL metrics
	meter    metric.Meter
	runs     metric.Int64Counter
	failures metric.Int64Counter
	groups   metric.Int64Counter
	units    metric.Int64Counter
	duration metric.Float64Histogram
}

// New creates a Service over the theater registry.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(registry *geo.Registry, logger zerolog.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		registry: registry,
		mission:  miz.New(registry, logger),
		track:    acmi.New(logger),
		plan:     combatflite.New(logger),
		logger:   logger,
		now:      time.Now,
		meter:    meter(),
	}
	for _, opt := range opts {
		opt(s)
	}

	m := s.meter
	var err error

	s.runs, err = m.Int64Counter("extract.runs",
		metric.WithDescription("Extractions attempted"))
	if err != nil {
		return nil, fmt.Errorf("creating runs counter: %w", err)
	}
	s.failures, err = m.Int64Counter("extract.failures",
		metric.WithDescription("Extractions that returned an error"))
	if err != nil {
		return nil, fmt.Errorf("creating failures counter: %w", err)
	}
	s.groups, err = m.Int64Counter("extract.groups",
		metric.WithDescription("Groups returned after filtering"))
	if err != nil {
		return nil, fmt.Errorf("creating groups counter: %w", err)
	}
	s.units, err = m.Int64Counter("extract.units",
		metric.WithDescription("Units returned after filtering"))
	if err != nil {
		return nil, fmt.Errorf("creating units counter: %w", err)
	}
	s.duration, err = m.Float64Histogram("extract.duration",
		metric.WithDescription("Time spent per extraction"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}

	return s, nil
}

// Registry returns the theater registry the service projects with.
func (s *Service) Registry() *geo.Registry {
	return s.registry
}

// Extract runs the extractor matching the file suffix and stores the
// result when a backend is set. Extractor errors match the core sentinels.
func (s *Service) Extract(ctx context.Context, criteria core.ExtractCriteria) (*core.Extraction, error) {
	start := time.Now()
	format := core.DetectFormat(criteria.Path)
	attrs := metric.WithAttributes(attribute.String("format", string(format)))
	s.runs.Add(ctx, 1, attrs)

	e, err := s.run(ctx, format, criteria)
	s.duration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		s.failures.Add(ctx, 1, attrs)
		s.logger.Error().Err(err).Str("path", criteria.Path).Msg("Extraction failed")
		return nil, err
	}

	s.groups.Add(ctx, int64(len(e.Groups)), attrs)
	s.units.Add(ctx, int64(e.UnitCount()), attrs)
	s.logger.Info().
		Str("path", criteria.Path).
		Str("format", string(format)).
		Str("theater", e.Theater).
		Int("groups", len(e.Groups)).
		Int("units", e.UnitCount()).
		Dur("duration", time.Since(start)).
		Msg("Extracted")
	return e, nil
}

func (s *Service) run(ctx context.Context, format core.Format, criteria core.ExtractCriteria) (*core.Extraction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	e := &core.Extraction{
		Source:      criteria.Path,
		Format:      format,
		ExtractedAt: s.now().UTC(),
		Criteria:    criteria,
	}

	switch format {
	case core.FormatMission:
		res, err := s.mission.ExtractMission(criteria)
		if err != nil {
			return nil, err
		}
		e.Theater = res.Theater
		e.Groups = res.Groups
	case core.FormatTelemetry:
		res, err := s.track.ExtractRecording(criteria)
		if err != nil {
			return nil, err
		}
		// recordings carry geodetic positions already
		e.Theater = criteria.Theater
		e.Units = res.Units
	case core.FormatFlightRoute:
		res, err := s.plan.ExtractPlan(criteria)
		if err != nil {
			return nil, err
		}
		e.Theater = res.Theater
		e.Groups = res.Groups
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", core.ErrConfig, criteria.Path)
	}

	if s.backend != nil {
		if err := s.backend.Store(e); err != nil {
			return nil, fmt.Errorf("storing extraction: %w", err)
		}
	}
	return e, nil
}
