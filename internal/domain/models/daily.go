package models

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the calendar-date key used for daily records, verdicts and scores.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date (YYYY-MM-DD) in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q, expected YYYY-MM-DD", ErrInvalidDateFormat, s)
	}
	return t, nil
}

// FormatDate renders t as a calendar-date key.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// SourceClass groups the series merged into a daily record.
type SourceClass string

const (
	SourceMacro      SourceClass = "macro"
	SourceMarket     SourceClass = "market"
	SourceInstrument SourceClass = "instrument"
)

// SourceClasses lists the classes in aggregation order.
var SourceClasses = []SourceClass{SourceMacro, SourceMarket, SourceInstrument}

type InstrumentPrice struct {
	ClosePrice float64 `json:"closePrice"`
}

// DailyRecord holds all merged values for one calendar date.
type DailyRecord struct {
	Date             string                     `json:"date"`
	MacroIndicators  map[string]float64         `json:"macroIndicators"`
	MarketIndicators map[string]float64         `json:"marketIndicators"`
	InstrumentPrices map[string]InstrumentPrice `json:"instrumentPrices"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

func NewDailyRecord(date string) *DailyRecord {
	return &DailyRecord{
		Date:             date,
		MacroIndicators:  make(map[string]float64),
		MarketIndicators: make(map[string]float64),
		InstrumentPrices: make(map[string]InstrumentPrice),
	}
}

// Set stores value under name for the given source class.
func (r *DailyRecord) Set(class SourceClass, name string, value float64) {
	switch class {
	case SourceMacro:
		r.MacroIndicators[name] = value
	case SourceMarket:
		r.MarketIndicators[name] = value
	case SourceInstrument:
		r.InstrumentPrices[name] = InstrumentPrice{ClosePrice: value}
	}
}

// Merge applies partial on top of r. Keys are added or overwritten, never removed.
func (r *DailyRecord) Merge(partial *DailyRecord) {
	if partial == nil {
		return
	}
	if r.MacroIndicators == nil {
		r.MacroIndicators = make(map[string]float64)
	}
	if r.MarketIndicators == nil {
		r.MarketIndicators = make(map[string]float64)
	}
	if r.InstrumentPrices == nil {
		r.InstrumentPrices = make(map[string]InstrumentPrice)
	}
	for k, v := range partial.MacroIndicators {
		r.MacroIndicators[k] = v
	}
	for k, v := range partial.MarketIndicators {
		r.MarketIndicators[k] = v
	}
	for k, v := range partial.InstrumentPrices {
		r.InstrumentPrices[k] = v
	}
	if partial.UpdatedAt.After(r.UpdatedAt) {
		r.UpdatedAt = partial.UpdatedAt
	}
}

// IsEmpty reports whether the record carries no values.
func (r *DailyRecord) IsEmpty() bool {
	return len(r.MacroIndicators) == 0 && len(r.MarketIndicators) == 0 && len(r.InstrumentPrices) == 0
}

// SortDailyRecords orders records ascending by date.
func SortDailyRecords(records []*DailyRecord) {
	sort.Slice(records, func(i, j int) bool { return records[i].Date < records[j].Date })
}

// SeriesPoint is one dated observation returned by a provider.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}

// AggregationResult summarizes an aggregation run.
type AggregationResult struct {
	StartDate       string              `json:"startDate"`
	EndDate         string              `json:"endDate"`
	DatesWritten    int                 `json:"datesWritten"`
	PerSourceCounts map[SourceClass]int `json:"perSourceCounts"`
}

// Instrument is an active series or ticker tracked by the pipeline.
// Code is the provider identifier (FRED series id or ticker) and Name its logical name.
type Instrument struct {
	Kind SourceClass `json:"kind"`
	Code string      `json:"code"`
	Name string      `json:"name"`
}
