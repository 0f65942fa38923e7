// Package advisory answers point queries against the merged aviation hazard
// advisories: SIGMETs, outlook SIGMETs, G-AIRMETs and center weather advisories.
package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/hazard-query/internal/aggregate"
	"github.com/mohammed-shakir/hazard-query/internal/aggregate/geojsonagg"
	"github.com/mohammed-shakir/hazard-query/internal/core/model"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
	"github.com/mohammed-shakir/hazard-query/internal/spatial"
)

var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Source yields the merged, deduplicated advisory features.
type Source interface {
	FetchAll(ctx context.Context) ([]json.RawMessage, aggregate.Diagnostics, error)
}

type Service struct {
	logger *slog.Logger
	src    Source
}

func NewService(logger *slog.Logger, src Source) *Service {
	return &Service{logger: logger, src: src}
}

// ParseCoordinate accepts any finite decimal lat/lon; surrounding spaces are ignored.
func ParseCoordinate(rawLat, rawLon string) (model.Coordinate, error) {
	lat, err := parseFinite(rawLat)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := parseFinite(rawLon)
	if err != nil {
		return model.Coordinate{}, fmt.Errorf("lon: %w", err)
	}
	return model.Coordinate{Lat: lat, Lon: lon}, nil
}

func parseFinite(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidCoordinate
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrInvalidCoordinate
	}
	return f, nil
}

// Query returns the advisories whose geometry intersects the point. Invalid
// input yields 405 without touching the upstream feeds; any fetch or merge
// failure yields 500 with a generic body.
func (s *Service) Query(ctx context.Context, rawLat, rawLon string) model.Response {
	c, err := ParseCoordinate(rawLat, rawLon)
	if err != nil {
		s.logger.DebugContext(ctx, "rejected query", "lat", rawLat, "lon", rawLon, "err", err)
		return model.Response{StatusCode: http.StatusMethodNotAllowed}
	}

	feats, _, err := s.src.FetchAll(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "advisory aggregation failed", "point", c.String(), "err", err)
		return model.InternalError()
	}

	matched := s.filter(ctx, feats, c)
	observability.AddFeatures("matched", len(matched))

	body, err := geojsonagg.Marshal(matched)
	if err != nil {
		s.logger.ErrorContext(ctx, "encode response failed", "err", err)
		return model.InternalError()
	}
	s.logger.DebugContext(ctx, "query answered", "point", c.String(), "candidates", len(feats), "matched", len(matched))
	return model.Response{
		StatusCode: http.StatusOK,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       body,
	}
}

func (s *Service) filter(ctx context.Context, feats []json.RawMessage, c model.Coordinate) []json.RawMessage {
	p := spatial.Point(c.Lat, c.Lon)
	out := make([]json.RawMessage, 0, len(feats))
	for i, f := range feats {
		switch spatial.RelateFeature(f, p) {
		case spatial.Intersects:
			out = append(out, f)
		case spatial.Malformed:
			observability.IncMalformedGeometry()
			s.logger.DebugContext(ctx, "skipping feature with malformed geometry", "index", i)
		}
	}
	return out
}
