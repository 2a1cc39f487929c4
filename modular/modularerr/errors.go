// Package modularerr holds the typed error sentinels shared by the
// modular channel coder packages.
package modularerr

import "errors"

var (
	// ErrMalformedStream is returned for header parse failures, ANS
	// final-state mismatches, and tree decode failures.
	ErrMalformedStream = errors.New("modular: malformed stream")

	// ErrInvalidImage is returned when the image carries an error flag
	// set by an earlier transform stage.
	ErrInvalidImage = errors.New("modular: invalid image")

	// ErrLogicError is returned for encoder-internal invariant
	// violations, such as an unsatisfiable predictor configuration.
	ErrLogicError = errors.New("modular: logic error")

	// ErrIO wraps bit reader/writer failures.
	ErrIO = errors.New("modular: io error")
)
