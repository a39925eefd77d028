package indicators

// SMA returns the simple moving average over window points.
// A point is defined only once window consecutive defined observations exist.
func SMA(s []float64, window int) []float64 {
	out := undefined(len(s))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(s); i++ {
		out[i] = mean(s[i-window+1 : i+1])
	}
	return out
}

func mean(w []float64) float64 {
	var sum float64
	for _, v := range w {
		if !Defined(v) {
			return nanValue
		}
		sum += v
	}
	return sum / float64(len(w))
}
