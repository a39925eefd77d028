package indicators

import "math"

const rsiEpsilon = 1e-10

// RSI returns the relative strength index using simple rolling means of gains and losses.
// The first delta counts as zero movement, so the first window-1 points are
// undefined. Results are clamped to [0, 100].
func RSI(s []float64, window int) []float64 {
	n := len(s)
	out := undefined(n)
	if window <= 0 || n < 2 {
		return out
	}

	gains := undefined(n)
	losses := undefined(n)
	if Defined(s[0]) {
		gains[0], losses[0] = 0, 0
	}
	for i := 1; i < n; i++ {
		if !Defined(s[i]) || !Defined(s[i-1]) {
			continue
		}
		d := s[i] - s[i-1]
		gains[i] = math.Max(d, 0)
		losses[i] = math.Max(-d, 0)
	}

	avgGain := SMA(gains, window)
	avgLoss := SMA(losses, window)
	for i := range out {
		if !Defined(avgGain[i]) || !Defined(avgLoss[i]) {
			continue
		}
		rs := avgGain[i] / (avgLoss[i] + rsiEpsilon)
		if math.IsInf(rs, 0) || math.IsNaN(rs) {
			continue
		}
		out[i] = clamp(100-100/(1+rs), 0, 100)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
