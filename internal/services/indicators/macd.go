package indicators

// EMA returns the exponential moving average with alpha = 2/(span+1),
// seeded with the first defined observation and no bias adjustment.
func EMA(s []float64, span int) []float64 {
	out := undefined(len(s))
	if span <= 0 {
		return out
	}
	alpha := 2 / (float64(span) + 1)
	prev := nanValue
	for i, v := range s {
		switch {
		case !Defined(v):
			out[i] = prev
		case !Defined(prev):
			prev = v
			out[i] = v
		default:
			prev = alpha*v + (1-alpha)*prev
			out[i] = prev
		}
	}
	return out
}

// MACD returns the fast-minus-slow EMA line and its EMA signal line.
func MACD(s []float64, fast, slow, signal int) (line, sig []float64) {
	fastEMA := EMA(s, fast)
	slowEMA := EMA(s, slow)
	line = make([]float64, len(s))
	for i := range s {
		line[i] = fastEMA[i] - slowEMA[i]
	}
	return line, EMA(line, signal)
}
