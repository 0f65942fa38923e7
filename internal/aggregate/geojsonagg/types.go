package geojsonagg

import "encoding/json"

// RawFeature is a feature object exactly as the upstream sent it.
type RawFeature = json.RawMessage

// Collection is the wire shape of a merged result. Features stay raw so
// upstream members pass through untouched.
type Collection struct {
	Type     string       `json:"type"`
	Features []RawFeature `json:"features"`
}
