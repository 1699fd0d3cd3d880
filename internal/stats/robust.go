package stats

import (
	"errors"
	"math"
	"sort"
)

// MAD-based outlier rejection. A reading is kept when its absolute deviation
// from the burst median is within 3 scaled MADs; 1.4826 scales the MAD to a
// normal standard deviation. When the MAD collapses to zero (more than half
// of the burst identical) an absolute window of 2 lux applies instead.
const (
	madConsistency = 1.4826
	madCutoff      = 3.0
	zeroMADWindow  = 2.0
)

var ErrNoValues = errors.New("stats: no values to aggregate")

// Result summarizes one burst after outlier rejection. All integer fields are
// rounded half away from zero. Filtered preserves the original sample order
// and is never empty.
type Result struct {
	Representative int
	Filtered       []float64
	Min            int
	Max            int
	Median         int
	Spread         int
}

// Aggregate reduces a burst of raw readings to a robust representative value.
// Negative readings are valid; no domain clamping is applied.
func Aggregate(values []float64) (Result, error) {
	if len(values) == 0 {
		return Result{}, ErrNoValues
	}

	if len(values) == 1 {
		v := values[0]
		return Result{
			Representative: roundInt(v),
			Filtered:       []float64{v},
			Min:            roundInt(v),
			Max:            roundInt(v),
			Median:         roundInt(v),
			Spread:         0,
		}, nil
	}

	m := Median(values)
	deviations := make([]float64, len(values))
	for i, v := range values {
		deviations[i] = math.Abs(v - m)
	}
	mad := Median(deviations)

	threshold := zeroMADWindow
	if mad > 0 {
		threshold = madCutoff * madConsistency * mad
	}

	filtered := make([]float64, 0, len(values))
	for _, v := range values {
		if math.Abs(v-m) <= threshold {
			filtered = append(filtered, v)
		}
	}
	// A threshold that excludes everything falls back to the full burst.
	if len(filtered) == 0 {
		filtered = append(filtered, values...)
	}

	med := Median(filtered)
	res := Result{
		Representative: roundInt(med),
		Filtered:       filtered,
		Min:            roundInt(minOf(filtered)),
		Max:            roundInt(maxOf(filtered)),
		Median:         roundInt(med),
	}
	if len(filtered) > 1 {
		res.Spread = roundInt(sampleStdDev(filtered))
	}
	return res, nil
}

// Median returns the middle value of the input, averaging the two central
// values for even lengths. The input slice is not modified.
func Median(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func sampleStdDev(values []float64) float64 {
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

func minOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(values []float64) float64 {
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// roundInt rounds half away from zero.
func roundInt(v float64) int {
	return int(math.Round(v))
}
