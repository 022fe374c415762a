package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound signals a cache miss or missing object.
	ErrNotFound = errors.New("not found")
)

// ValidationError reports an unknown category or a missing/malformed
// category parameter. It is raised before any transformation runs and is
// never retried.
type ValidationError struct {
	Kind     EntityKind
	Category Category
	Param    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("validation: kind=%s category=%s: %s", e.Kind, e.Category, e.Reason)
	}
	return fmt.Sprintf("validation: kind=%s category=%s param=%q: %s", e.Kind, e.Category, e.Param, e.Reason)
}

// EmptyResultError reports that the source adapter returned no records for
// a valid range. It is surfaced to the caller, never turned into a
// zero-filled output.
type EmptyResultError struct {
	Kind   EntityKind
	Symbol string
	Start  time.Time
	End    time.Time
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("empty result: kind=%s symbol=%s range=[%s, %s]",
		e.Kind, e.Symbol, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// UnknownMetricError reports an unrecognized metric id. It is isolated per
// metric: sibling metrics in the same request still compute.
type UnknownMetricError struct {
	MetricID string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.MetricID)
}

// UnsupportedFormatError reports a requested output container shape that is
// not implemented for the entity kind.
type UnsupportedFormatError struct {
	Kind   EntityKind
	Format OutputFormat
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported output format %q for kind %s", e.Format, e.Kind)
}
