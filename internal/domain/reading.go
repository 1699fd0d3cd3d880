package domain

import "time"

// Reading is a single raw sensor measurement. Readings only live for the
// duration of one aggregation window; they are never persisted individually.
type Reading struct {
	At  time.Time `json:"at"`
	Lux float64   `json:"lux"`
}

// Record is the persisted unit: one robust summary per window. Once written
// it is never mutated.
type Record struct {
	At             time.Time `json:"at"`
	Representative int       `json:"lux"`
	Min            int       `json:"min"`
	Max            int       `json:"max"`
	Median         int       `json:"median"`
	Spread         int       `json:"spread"`
	SampleCount    int       `json:"sample_count"`
}
