// Package router adapts HTTP requests to the point query.
package router

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mohammed-shakir/hazard-query/internal/core/model"
	"github.com/mohammed-shakir/hazard-query/internal/core/observability"
)

// Querier answers a point query from the raw lat/lon strings.
type Querier interface {
	Query(ctx context.Context, rawLat, rawLon string) model.Response
}

// HandleQuery maps the lat and lon query parameters onto q. route is the
// metrics label for the mounted path.
func HandleQuery(logger *slog.Logger, q Querier, route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		params := r.URL.Query()

		resp := q.Query(r.Context(), params.Get("lat"), params.Get("lon"))
		if err := WriteResponse(w, resp); err != nil {
			logger.DebugContext(r.Context(), "write response failed", "err", err)
		}
		observability.ObserveHTTP(r.Method, route, resp.StatusCode, time.Since(start).Seconds())
	}
}

// WriteResponse renders a transport neutral response. An empty body sends no
// content headers at all.
func WriteResponse(w http.ResponseWriter, resp model.Response) error {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if len(resp.Body) > 0 {
		w.Header().Set("Content-Length", strconv.Itoa(len(resp.Body)))
	}
	w.WriteHeader(resp.StatusCode)
	if len(resp.Body) == 0 {
		return nil
	}
	_, err := w.Write(resp.Body)
	return err
}
