// Package model defines core domain types shared across the service.
package model

import (
	"fmt"
	"net/url"
)

// Coordinate is a query point in WGS84 degrees.
type Coordinate struct {
	Lat float64
	Lon float64
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lon)
}

// FeedRequest is one resolved upstream call: path relative to the upstream base
// plus the query parameters for the current time bucket.
type FeedRequest struct {
	Feed   string
	Path   string
	Params url.Values
}

func (r FeedRequest) String() string {
	if len(r.Params) == 0 {
		return r.Path
	}
	return r.Path + "?" + r.Params.Encode()
}

// Response is transport neutral so the HTTP and lambda entrypoints render
// exactly the same result.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte
}

var errorBody = []byte(`{"error":"Error processing"}`)

// InternalError is the generic processing failure. Causes are logged, never
// returned to the caller.
func InternalError() Response {
	return Response{
		StatusCode: 500,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       append([]byte(nil), errorBody...),
	}
}
