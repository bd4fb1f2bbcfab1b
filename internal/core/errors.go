package core

import "errors"

// ErrExtractUnavailable is returned when the external invoice source could not
// be reached. It is the only hard failure of the engine: callers must surface
// it as "no data available", never treat it as an empty result.
var ErrExtractUnavailable = errors.New("invoice extract unavailable")

// ErrMalformedExtract is returned when the source responded but the extract is
// missing required columns or otherwise violates the input contract. This is a
// fatal configuration error, not a data condition.
var ErrMalformedExtract = errors.New("invoice extract malformed")
