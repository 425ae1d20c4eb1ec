package checklist

import "errors"

var (
	// ErrSourceUnavailable means no checklist could be located or read
	ErrSourceUnavailable = errors.New("checklist source unavailable")

	// ErrMalformedChecklist means the checklist document could not be parsed
	ErrMalformedChecklist = errors.New("malformed checklist")
)
