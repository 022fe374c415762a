// Package dispatch validates transformation requests at the boundary and
// turns the loosely-typed category parameter map into a strongly-typed
// TransformPlan consumed by the transformers. Validation happens exactly
// once, before any fetch or transformation runs, and has no side effects.
package dispatch

import (
	"fmt"
	"math"
	"time"

	"github.com/quantsignals/mktstruct/internal/domain"
	"github.com/quantsignals/mktstruct/internal/transform"
)

// TimeSampleParams parameterizes time sampling. For order books Freq is the
// sampling step; for trades it is the aggregation window width.
type TimeSampleParams struct {
	Freq time.Duration
}

// PriceAggParams parameterizes order-book price aggregation.
type PriceAggParams struct {
	BinType transform.BinType
	BinSize float64
}

// VolumeAggParams parameterizes trade volume bucketing. BucketPrice is
// reserved for price-bounded bucketing and currently validated only.
type VolumeAggParams struct {
	BucketVolume float64
	BucketPrice  float64
}

// Plan is the validated, tagged transformation plan. Exactly one of the
// parameter fields is set, matching Category; raw plans carry none.
type Plan struct {
	Kind       domain.EntityKind
	Category   domain.Category
	TimeSample *TimeSampleParams
	PriceAgg   *PriceAggParams
	VolumeAgg  *VolumeAggParams
	Metrics    []string
}

// Dispatch checks that the category is supported for the entity kind and
// that every required category parameter is present and well typed. It
// returns a ValidationError naming the offending key on any failure.
func Dispatch(kind domain.EntityKind, category domain.Category, params map[string]any) (Plan, error) {
	if !kind.Valid() {
		return Plan{}, &domain.ValidationError{
			Kind: kind, Category: category,
			Reason: fmt.Sprintf("unknown entity kind %q", kind),
		}
	}
	if !supported(kind, category) {
		return Plan{}, &domain.ValidationError{
			Kind: kind, Category: category,
			Reason: fmt.Sprintf("category %q not supported for kind %s (supported: %v)", category, kind, domain.Categories(kind)),
		}
	}

	plan := Plan{Kind: kind, Category: category}
	switch category {
	case domain.CategoryRaw:
		// Pass-through needs no parameters.

	case domain.CategoryTimeSample:
		key := "freq"
		if kind == domain.KindTrade {
			key = "frequency"
		}
		freq, err := durationParam(kind, category, params, key)
		if err != nil {
			return Plan{}, err
		}
		plan.TimeSample = &TimeSampleParams{Freq: freq}

	case domain.CategoryPriceAgg:
		bt, err := stringParam(kind, category, params, "bintype")
		if err != nil {
			return Plan{}, err
		}
		if bt != string(transform.BinBps) && bt != string(transform.BinCount) {
			return Plan{}, invalid(kind, category, "bintype", fmt.Sprintf("must be %q or %q, got %q", transform.BinBps, transform.BinCount, bt))
		}
		size, err := floatParam(kind, category, params, "binsize")
		if err != nil {
			return Plan{}, err
		}
		if size <= 0 {
			return Plan{}, invalid(kind, category, "binsize", "must be positive")
		}
		if bt == string(transform.BinCount) && size != math.Trunc(size) {
			return Plan{}, invalid(kind, category, "binsize", "must be a whole level count for bintype=count")
		}
		plan.PriceAgg = &PriceAggParams{BinType: transform.BinType(bt), BinSize: size}

	case domain.CategoryVolumeAgg:
		vol, err := floatParam(kind, category, params, "bucket_volume")
		if err != nil {
			return Plan{}, err
		}
		if vol <= 0 {
			return Plan{}, invalid(kind, category, "bucket_volume", "must be positive")
		}
		// bucket_price is reserved; validate the type when present.
		price := 0.0
		if _, ok := params["bucket_price"]; ok {
			price, err = floatParam(kind, category, params, "bucket_price")
			if err != nil {
				return Plan{}, err
			}
		}
		plan.VolumeAgg = &VolumeAggParams{BucketVolume: vol, BucketPrice: price}

	case domain.CategoryMetrics:
		ids, err := stringSliceParam(kind, category, params, "metrics")
		if err != nil {
			return Plan{}, err
		}
		if len(ids) == 0 {
			return Plan{}, invalid(kind, category, "metrics", "must name at least one metric id")
		}
		plan.Metrics = ids
	}

	return plan, nil
}

func supported(kind domain.EntityKind, category domain.Category) bool {
	for _, c := range domain.Categories(kind) {
		if c == category {
			return true
		}
	}
	return false
}

func invalid(kind domain.EntityKind, category domain.Category, param, reason string) *domain.ValidationError {
	return &domain.ValidationError{Kind: kind, Category: category, Param: param, Reason: reason}
}

func stringParam(kind domain.EntityKind, category domain.Category, params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok {
		return "", invalid(kind, category, key, "missing required parameter")
	}
	s, ok := v.(string)
	if !ok {
		return "", invalid(kind, category, key, fmt.Sprintf("expected string, got %T", v))
	}
	return s, nil
}

func floatParam(kind domain.EntityKind, category domain.Category, params map[string]any, key string) (float64, error) {
	v, ok := params[key]
	if !ok {
		return 0, invalid(kind, category, key, "missing required parameter")
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, invalid(kind, category, key, fmt.Sprintf("expected number, got %T", v))
	}
}

// durationParam accepts either a Go duration string ("5m") or a number.
// Numbers are minutes for trades (matching the upstream convention) and
// seconds for order books.
func durationParam(kind domain.EntityKind, category domain.Category, params map[string]any, key string) (time.Duration, error) {
	v, ok := params[key]
	if !ok {
		return 0, invalid(kind, category, key, "missing required parameter")
	}
	if s, ok := v.(string); ok {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, invalid(kind, category, key, fmt.Sprintf("invalid duration %q", s))
		}
		if d <= 0 {
			return 0, invalid(kind, category, key, "must be positive")
		}
		return d, nil
	}
	n, err := floatParam(kind, category, params, key)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, invalid(kind, category, key, "must be positive")
	}
	if kind == domain.KindTrade {
		return time.Duration(n * float64(time.Minute)), nil
	}
	return time.Duration(n * float64(time.Second)), nil
}

func stringSliceParam(kind domain.EntityKind, category domain.Category, params map[string]any, key string) ([]string, error) {
	v, ok := params[key]
	if !ok {
		return nil, invalid(kind, category, key, "missing required parameter")
	}
	switch vv := v.(type) {
	case []string:
		return vv, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(kind, category, key, fmt.Sprintf("expected string elements, got %T", item))
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, invalid(kind, category, key, fmt.Sprintf("expected string list, got %T", v))
	}
}
