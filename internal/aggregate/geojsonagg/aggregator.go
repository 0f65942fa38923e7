// Package geojsonagg merges GeoJSON FeatureCollections and deduplicates features by id.
package geojsonagg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mohammed-shakir/hazard-query/internal/aggregate"
)

type Aggregator struct {
	DeduplicateByID bool
}

var _ aggregate.FeatureMerger = (*Aggregator)(nil)

func New(dedup bool) *Aggregator {
	return &Aggregator{DeduplicateByID: dedup}
}

// MergeFeatures concatenates the features of every part in order. With dedup
// enabled the first feature seen for an id wins, so part order is precedence.
func (a *Aggregator) MergeFeatures(parts [][]byte) ([]RawFeature, aggregate.Diagnostics, error) {
	diag := aggregate.Diagnostics{Parts: len(parts)}
	out := make([]RawFeature, 0, 128)
	seen := map[string]struct{}{}

	for i, p := range parts {
		feats, err := parseCollection(p)
		if err != nil {
			return nil, diag, fmt.Errorf("part %d: %w", i, err)
		}

		for j, fr := range feats {
			var fobj map[string]json.RawMessage
			if err := json.Unmarshal(fr, &fobj); err != nil || fobj == nil {
				return nil, diag, fmt.Errorf("part %d feature %d: not a JSON object", i, j)
			}
			diag.TotalIn++

			key := canonicalIDKey(fobj["id"])
			if key == "" {
				diag.WithoutID++
			} else if a.DeduplicateByID {
				if _, dup := seen[key]; dup {
					diag.DedupByID++
					continue
				}
				seen[key] = struct{}{}
			}
			out = append(out, fr)
		}
	}
	diag.TotalOut = len(out)
	return out, diag, nil
}

// Marshal renders features as a FeatureCollection; nil renders as [].
func Marshal(feats []RawFeature) ([]byte, error) {
	if feats == nil {
		feats = []RawFeature{}
	}
	buf, err := json.Marshal(Collection{Type: "FeatureCollection", Features: feats})
	if err != nil {
		return nil, fmt.Errorf("marshal FeatureCollection: %w", err)
	}
	return buf, nil
}

func parseCollection(p []byte) ([]json.RawMessage, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(p, &root); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("document is null")
	}
	if tRaw, ok := root["type"]; ok {
		var typ string
		if err := json.Unmarshal(tRaw, &typ); err != nil {
			return nil, fmt.Errorf(`parse "type": %w`, err)
		}
		if typ != "FeatureCollection" {
			return nil, fmt.Errorf(`type is %q (want "FeatureCollection")`, typ)
		}
	}
	featuresRaw, ok := root["features"]
	if !ok {
		return nil, fmt.Errorf(`missing required member "features"`)
	}
	var feats []json.RawMessage
	if err := json.Unmarshal(featuresRaw, &feats); err != nil {
		return nil, fmt.Errorf(`"features" must be an array: %w`, err)
	}
	return feats, nil
}

// canonicalIDKey keys string and numeric ids apart ("1" and 1 differ) and
// numeric ids by value (1 and 1.0 match). Null, missing and non-scalar ids
// have no key.
func canonicalIDKey(idRaw json.RawMessage) string {
	trim := bytes.TrimSpace(idRaw)
	if len(trim) == 0 {
		return ""
	}

	dec := json.NewDecoder(bytes.NewReader(trim))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return "s:" + t
	case json.Number:
		// 1, 1.0 and 1e0 are the same id
		if f, err := strconv.ParseFloat(t.String(), 64); err == nil {
			return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
		}
		return "n:" + t.String()
	default:
		return ""
	}
}
