package probability

import "errors"

var (
	// ErrModelUnavailable indicates the model service could not answer
	ErrModelUnavailable = errors.New("probability model unavailable")

	// ErrInvalidPrediction indicates the model answered with unusable probabilities
	ErrInvalidPrediction = errors.New("invalid prediction response")

	// ErrCircuitOpen indicates requests are suspended after repeated failures
	ErrCircuitOpen = errors.New("circuit breaker open")
)
