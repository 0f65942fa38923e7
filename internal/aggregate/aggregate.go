// Package aggregate defines how upstream feed documents are combined.
package aggregate

import "encoding/json"

// FeatureMerger merges feed documents into one ordered feature list.
type FeatureMerger interface {
	MergeFeatures(parts [][]byte) ([]json.RawMessage, Diagnostics, error)
}

// Diagnostics summarizes one merge.
type Diagnostics struct {
	Parts     int `json:"parts"`
	TotalIn   int `json:"total_in"`
	TotalOut  int `json:"total_out"`
	DedupByID int `json:"dedup_by_id"`
	WithoutID int `json:"without_id"`
}
