package places

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/healthhive/server/internal/metrics"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/healthhive/server/internal/domain/places"

// Service is the entry point used by the HTTP layer. It converts loosely
// typed input, delegates to Repository and SearchEngine, and guarantees that
// every failure is a *Error whose Message is safe to display.
type Service struct {
	repo   *Repository
	search *SearchEngine
	tracer trace.Tracer
}

func NewService(store Store) *Service {
	return &Service{
		repo:   NewRepository(store),
		search: NewSearchEngine(store),
		tracer: otel.Tracer(tracerName),
	}
}

func (s *Service) Create(ctx context.Context, ownerID string, in Input) (place *Place, err error) {
	ctx, done := s.begin(ctx, "create")
	defer func() { err = done(err) }()

	fields, err := in.Fields()
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, ownerID, fields)
}

func (s *Service) Get(ctx context.Context, id string) (place *Place, err error) {
	ctx, done := s.begin(ctx, "get", attribute.String("place.id", id))
	defer func() { err = done(err) }()

	return s.repo.GetByID(ctx, id)
}

func (s *Service) Update(ctx context.Context, id, callerID string, in Input) (place *Place, err error) {
	ctx, done := s.begin(ctx, "update", attribute.String("place.id", id))
	defer func() { err = done(err) }()

	fields, err := in.Fields()
	if err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, callerID, fields)
}

func (s *Service) Delete(ctx context.Context, id, callerID string) (err error) {
	ctx, done := s.begin(ctx, "delete", attribute.String("place.id", id))
	defer func() { err = done(err) }()

	return s.repo.Delete(ctx, id, callerID)
}

// Search reads name, type, city, tags, minRating, sortBy, page and limit.
func (s *Service) Search(ctx context.Context, values url.Values) (result SearchResult, err error) {
	ctx, done := s.begin(ctx, "search")
	defer func() { err = done(err) }()

	params, err := ParseSearchParams(values, DefaultLimit, MaxLimit)
	if err != nil {
		return SearchResult{}, err
	}
	return s.search.Search(ctx, params)
}

// Export is Search with a larger page, returning only the records.
func (s *Service) Export(ctx context.Context, values url.Values) (list []Place, err error) {
	ctx, done := s.begin(ctx, "export")
	defer func() { err = done(err) }()

	params, err := ParseSearchParams(values, ExportLimit, ExportLimit)
	if err != nil {
		return nil, err
	}
	result, err := s.search.Search(ctx, params)
	if err != nil {
		return nil, err
	}
	return result.Places, nil
}

func (s *Service) Tags(ctx context.Context) (tags []string, err error) {
	ctx, done := s.begin(ctx, "tags")
	defer func() { err = done(err) }()

	return s.repo.ListTags(ctx)
}

// Mine lists the places owned by ownerID.
func (s *Service) Mine(ctx context.Context, ownerID string) (list []Place, err error) {
	ctx, done := s.begin(ctx, "mine")
	defer func() { err = done(err) }()

	return s.repo.ListByOwner(ctx, ownerID)
}

// begin opens a span and returns the function that closes it, records the
// outcome and normalizes the returned error.
func (s *Service) begin(ctx context.Context, op string, attrs ...attribute.KeyValue) (context.Context, func(error) error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "places."+op, trace.WithAttributes(attrs...))

	return ctx, func(err error) error {
		defer span.End()
		metrics.PlaceOperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

		if err == nil {
			metrics.PlaceOperations.WithLabelValues(op, "ok").Inc()
			span.SetStatus(codes.Ok, "")
			return nil
		}

		var perr *Error
		if !errors.As(err, &perr) {
			perr = &Error{Kind: KindDatabase, Message: "unexpected failure", Err: err}
		}
		metrics.PlaceOperations.WithLabelValues(op, string(perr.Kind)).Inc()
		span.SetAttributes(attribute.String("error.kind", string(perr.Kind)))

		if perr.Kind == KindDatabase {
			span.RecordError(err)
			span.SetStatus(codes.Error, perr.Message)
			zerolog.Ctx(ctx).Error().
				Err(perr.Err).
				Str("operation", op).
				Bool("duplicate", perr.Duplicate()).
				Msg(perr.Message)
		}
		return perr
	}
}
