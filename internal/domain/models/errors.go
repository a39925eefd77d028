package models

import "errors"

var (
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrStorageUnavailable    = errors.New("storage unavailable")
	ErrUnknownRequestKind    = errors.New("unknown request kind")
	ErrInvalidDateFormat     = errors.New("invalid date format")
	ErrInvalidPayload        = errors.New("invalid payload")
	ErrInsufficientHistory   = errors.New("insufficient history")
	ErrAggregationInProgress = errors.New("aggregation already in progress")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidDateFormat, "InvalidDateFormat"},
	{ErrInvalidPayload, "InvalidPayload"},
	{ErrUnknownRequestKind, "UnknownRequestKind"},
	{ErrAggregationInProgress, "AggregationInProgress"},
	{ErrStorageUnavailable, "StorageUnavailable"},
	{ErrProviderUnavailable, "ProviderUnavailable"},
	{ErrInsufficientHistory, "InsufficientHistory"},
}

// ErrorKind names the taxonomy entry of err, or "PipelineFailure" when none matches.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, ek := range errorKinds {
		if errors.Is(err, ek.err) {
			return ek.kind
		}
	}
	return "PipelineFailure"
}

// IsPermanent reports errors that must never be retried: the request itself is bad.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidDateFormat) ||
		errors.Is(err, ErrInvalidPayload) ||
		errors.Is(err, ErrUnknownRequestKind)
}
