package domain

import "time"

// MetricPoint is one timestamped value of a series-valued metric.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// MetricResult is the output of a single named metric: either a scalar or a
// time series keyed by timestamp, never both.
type MetricResult struct {
	MetricID string        `json:"metric_id"`
	Scalar   *float64      `json:"scalar,omitempty"`
	Series   []MetricPoint `json:"series,omitempty"`
}

// ScalarResult builds a scalar-valued MetricResult.
func ScalarResult(id string, v float64) MetricResult {
	return MetricResult{MetricID: id, Scalar: &v}
}

// SeriesResult builds a series-valued MetricResult.
func SeriesResult(id string, pts []MetricPoint) MetricResult {
	return MetricResult{MetricID: id, Series: pts}
}
