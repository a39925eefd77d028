package indicators

import "github.com/lian220/quintiq-backend/internal/domain/models"

// Params configures the indicator windows used by Compute.
type Params struct {
	ShortSMA   int
	LongSMA    int
	RSIWindow  int
	MACDFast   int
	MACDSlow   int
	MACDSignal int
}

// DefaultParams are the 20/50 SMA, 14 RSI and 12/26/9 MACD windows.
var DefaultParams = Params{
	ShortSMA:   20,
	LongSMA:    50,
	RSIWindow:  14,
	MACDFast:   12,
	MACDSlow:   26,
	MACDSignal: 9,
}

// Compute evaluates all indicators on closes and returns the latest row.
func Compute(closes []float64, p Params) models.IndicatorSet {
	sma20 := Last(SMA(closes, p.ShortSMA))
	sma50 := Last(SMA(closes, p.LongSMA))
	rsi := Last(RSI(closes, p.RSIWindow))
	line, sig := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	macd, signal := Last(line), Last(sig)

	return models.IndicatorSet{
		SMA20:         Ptr(sma20),
		SMA50:         Ptr(sma50),
		RSI:           Ptr(rsi),
		MACD:          Ptr(macd),
		MACDSignal:    Ptr(signal),
		GoldenCross:   Defined(sma20) && Defined(sma50) && sma20 > sma50,
		MACDBuySignal: Defined(macd) && Defined(signal) && macd > signal,
	}
}
