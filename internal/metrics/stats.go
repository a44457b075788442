package metrics

import (
	"math"
	"sort"
	"time"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// stddev returns the sample standard deviation (ddof=1), matching the
// source's np.std(..., ddof=1) calls throughout analytics/metrics.py.
func stddev(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	m := mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// percentile returns the linear-interpolated p-th percentile (0-100) of xs.
func percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

const msPerDay = 24 * 60 * 60 * 1000
const msPerYear = 365 * msPerDay

// monthKey buckets a millisecond timestamp into a year-month key for
// monthly resampling (Sharpe/Sortino).
func monthKey(ms int64) (int, time.Month) {
	t := time.UnixMilli(ms).UTC()
	return t.Year(), t.Month()
}

func dayKey(ms int64) int64 {
	return ms / msPerDay
}
