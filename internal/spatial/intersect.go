// Package spatial tests advisory geometries against a query point.
package spatial

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Relation is the outcome of a geometry/point test. Malformed means the
// geometry could not be evaluated; callers decide how to treat it.
type Relation int

const (
	Disjoint Relation = iota
	Intersects
	Malformed
)

func (r Relation) String() string {
	switch r {
	case Disjoint:
		return "disjoint"
	case Intersects:
		return "intersects"
	case Malformed:
		return "malformed"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

// nesting depth of the position arrays in "coordinates"
var coordinateDepth = map[string]int{
	"Point":           0,
	"MultiPoint":      1,
	"LineString":      1,
	"MultiLineString": 2,
	"Polygon":         2,
	"MultiPolygon":    3,
}

// Point builds an orb point from latitude/longitude (GeoJSON order is lon,lat).
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// Relate decodes a raw GeoJSON geometry object and tests it against p.
// Collection members are decoded one by one, so a null or broken member only
// makes that member malformed.
func Relate(geomRaw json.RawMessage, p orb.Point) Relation {
	trim := bytes.TrimSpace(geomRaw)
	if len(trim) == 0 || bytes.Equal(trim, []byte("null")) {
		return Malformed
	}
	var raw struct {
		Type        string            `json:"type"`
		Coordinates json.RawMessage   `json:"coordinates"`
		Geometries  []json.RawMessage `json:"geometries"`
	}
	if err := json.Unmarshal(trim, &raw); err != nil {
		return Malformed
	}
	if raw.Type == "GeometryCollection" {
		return relateMulti(len(raw.Geometries), func(i int) Relation { return Relate(raw.Geometries[i], p) })
	}

	depth, ok := coordinateDepth[raw.Type]
	if !ok || !validPositions(raw.Coordinates, depth) {
		return Malformed
	}
	var g geojson.Geometry
	if err := json.Unmarshal(trim, &g); err != nil || g.Coordinates == nil {
		return Malformed
	}
	return RelateGeometry(g.Coordinates, p)
}

// validPositions reports whether coords nests arrays depth levels deep down to
// positions of at least two numbers.
func validPositions(coords json.RawMessage, depth int) bool {
	if len(coords) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(coords, &v); err != nil {
		return false
	}
	return walkPositions(v, depth)
}

func walkPositions(v any, depth int) bool {
	arr, ok := v.([]any)
	if !ok {
		return false
	}
	if depth == 0 {
		if len(arr) < 2 {
			return false
		}
		for _, n := range arr {
			if _, ok := n.(float64); !ok {
				return false
			}
		}
		return true
	}
	for _, e := range arr {
		if !walkPositions(e, depth-1) {
			return false
		}
	}
	return true
}

// RelateFeature tests the "geometry" member of a raw feature object.
func RelateFeature(featRaw json.RawMessage, p orb.Point) Relation {
	var f struct {
		Geometry json.RawMessage `json:"geometry"`
	}
	if err := json.Unmarshal(featRaw, &f); err != nil {
		return Malformed
	}
	return Relate(f.Geometry, p)
}

// RelateGeometry tests g against p. Boundaries count as intersecting.
func RelateGeometry(g orb.Geometry, p orb.Point) Relation {
	switch t := g.(type) {
	case nil:
		return Malformed
	case orb.Point:
		return boolRelation(t.Equal(p))
	case orb.MultiPoint:
		for _, q := range t {
			if q.Equal(p) {
				return Intersects
			}
		}
		return Disjoint
	case orb.LineString:
		return relateLine(t, p)
	case orb.MultiLineString:
		return relateMulti(len(t), func(i int) Relation { return relateLine(t[i], p) })
	case orb.Ring:
		return relatePolygon(orb.Polygon{t}, p)
	case orb.Polygon:
		return relatePolygon(t, p)
	case orb.MultiPolygon:
		return relateMulti(len(t), func(i int) Relation { return relatePolygon(t[i], p) })
	case orb.Collection:
		return relateMulti(len(t), func(i int) Relation { return RelateGeometry(t[i], p) })
	case orb.Bound:
		return boolRelation(t.Contains(p))
	default:
		return Malformed
	}
}

func boolRelation(ok bool) Relation {
	if ok {
		return Intersects
	}
	return Disjoint
}

// any member intersecting wins; malformed only if every member is malformed
func relateMulti(n int, member func(i int) Relation) Relation {
	if n == 0 {
		return Disjoint
	}
	malformed := 0
	for i := range n {
		switch member(i) {
		case Intersects:
			return Intersects
		case Malformed:
			malformed++
		}
	}
	if malformed == n {
		return Malformed
	}
	return Disjoint
}

// squared degrees; about a decimetre
const onLineEpsilon = 1e-12

func relateLine(ls orb.LineString, p orb.Point) Relation {
	if len(ls) < 2 {
		return Malformed
	}
	if !ls.Bound().Contains(p) {
		return Disjoint
	}
	for i := 0; i+1 < len(ls); i++ {
		if planar.DistanceFromSegmentSquared(ls[i], ls[i+1], p) <= onLineEpsilon {
			return Intersects
		}
	}
	return Disjoint
}

// Rings that do not repeat their first position are closed before testing.
func relatePolygon(poly orb.Polygon, p orb.Point) Relation {
	if len(poly) == 0 {
		return Malformed
	}
	closed := make(orb.Polygon, len(poly))
	for i, r := range poly {
		if len(r) > 0 && !r[0].Equal(r[len(r)-1]) {
			r = append(r[:len(r):len(r)], r[0])
		}
		// a closed ring needs at least a triangle plus the closing point
		if len(r) < 4 {
			return Malformed
		}
		closed[i] = r
	}
	return boolRelation(planar.PolygonContains(closed, p))
}
