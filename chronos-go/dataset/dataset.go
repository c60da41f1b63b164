// Package dataset holds the tabular time series data handed to the fit
// capability. The on-disk partition format stays behind the Loader interface;
// the core only needs record counts and target values.
package dataset

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"
)

// Point is one observation of one series.
type Point struct {
	Item      string
	Timestamp time.Time
	Target    float64
}

// Dataset is an ordered collection of observations.
type Dataset struct {
	Points []Point
}

// Len returns the record count.
func (d Dataset) Len() int {
	return len(d.Points)
}

// Empty reports whether the dataset has no records.
func (d Dataset) Empty() bool {
	return len(d.Points) == 0
}

// Targets returns the target values in order.
func (d Dataset) Targets() []float64 {
	out := make([]float64, 0, len(d.Points))
	for _, p := range d.Points {
		out = append(out, p.Target)
	}
	return out
}

// Slice returns the sub-dataset covering points [i, j).
func (d Dataset) Slice(i, j int) Dataset {
	return Dataset{Points: d.Points[i:j]}
}

// Merge concatenates datasets in the given order.
func Merge(parts ...Dataset) Dataset {
	var merged Dataset
	for _, part := range parts {
		merged.Points = append(merged.Points, part.Points...)
	}
	return merged
}

// Stats summarizes one partition's worth of data for checkpoint records.
type Stats struct {
	RecordCount int     `json:"record_count"`
	Items       int     `json:"items"`
	StartTime   string  `json:"start_time,omitempty"`
	EndTime     string  `json:"end_time,omitempty"`
	TargetMean  float64 `json:"target_mean"`
	TargetStdev float64 `json:"target_stdev"`
}

// Describe computes summary statistics for a dataset.
func Describe(d Dataset) Stats {
	s := Stats{RecordCount: d.Len()}
	if d.Empty() {
		return s
	}

	items := make(map[string]bool)
	min, max := d.Points[0].Timestamp, d.Points[0].Timestamp
	for _, p := range d.Points {
		items[p.Item] = true
		if p.Timestamp.Before(min) {
			min = p.Timestamp
		}
		if p.Timestamp.After(max) {
			max = p.Timestamp
		}
	}
	s.Items = len(items)
	s.StartTime = min.Format(time.RFC3339)
	s.EndTime = max.Format(time.RFC3339)

	targets := d.Targets()
	if mean, err := stats.Mean(targets); err == nil && !math.IsNaN(mean) {
		s.TargetMean = mean
	}
	if sd, err := stats.StandardDeviation(targets); err == nil && !math.IsNaN(sd) {
		s.TargetStdev = sd
	}
	return s
}
