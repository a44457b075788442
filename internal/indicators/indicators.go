// Package indicators implements the lightweight TA helpers the reference
// strategy needs (SMA, RSI, Z-score), adapted from the teacher's
// candle-indexed versions to operate on a plain []float64 of bar closes
// so they're reusable across any of the nine bar builder outputs.
package indicators

import "math"

// SMA returns the n-period simple moving average, aligned to closes.
// Indices before the first full window are NaN.
func SMA(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 || len(closes) == 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	var sum float64
	for i := range closes {
		sum += closes[i]
		if i >= n {
			sum -= closes[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// RSI returns the n-period Relative Strength Index using Wilder's
// smoothing. Indices before the first full window are zero.
func RSI(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 0 || len(closes) == 0 {
		return out
	}
	var gain, loss float64
	for i := 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				avgGain := gain / float64(n)
				avgLoss := loss / float64(n)
				rs := 0.0
				if avgLoss != 0 {
					rs = avgGain / avgLoss
				}
				out[i] = 100.0 - (100.0 / (1.0 + rs))
			}
		} else {
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			rs := 0.0
			if loss != 0 {
				rs = gain / loss
			}
			out[i] = 100.0 - (100.0 / (1.0 + rs))
		}
	}
	return out
}

// ZScore returns the rolling z-score over window n, aligned to closes.
// Indices before the first full window are zero.
func ZScore(closes []float64, n int) []float64 {
	out := make([]float64, len(closes))
	if n <= 1 || len(closes) == 0 {
		return out
	}
	var sum, sumSq float64
	for i := range closes {
		x := closes[i]
		sum += x
		sumSq += x * x
		if i >= n {
			y := closes[i-n]
			sum -= y
			sumSq -= y * y
		}
		if i >= n-1 {
			mean := sum / float64(n)
			variance := (sumSq / float64(n)) - (mean * mean)
			std := math.Sqrt(math.Max(variance, 1e-12))
			out[i] = (x - mean) / std
		} else {
			out[i] = 0
		}
	}
	return out
}
