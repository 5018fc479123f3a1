package apperr

import "errors"

// ErrInvalidInput is returned when a query input is neither a valid IP address
// nor a valid AS number. Use errors.Is(err, apperr.ErrInvalidInput) to detect
// validation failures uniformly across the CLI and the HTTP API.
var ErrInvalidInput = errors.New("invalid input")

// ErrRequestFailed is returned when fetching a dataset fails at the transport
// level or the server responds with an unexpected status code.
var ErrRequestFailed = errors.New("request failed")

// ErrMalformedRange is returned when a routing table line cannot be parsed.
// A range table containing such a line is rejected as a whole.
var ErrMalformedRange = errors.New("malformed range")

// ErrRefreshInProgress is returned when a refresh is requested while another
// refresh cycle is still running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// ErrNoSnapshot is returned when a dataset has never been loaded successfully.
var ErrNoSnapshot = errors.New("no dataset loaded")
