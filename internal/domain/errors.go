package domain

import "errors"

var (
	// ErrInvalidInput marks malformed or out-of-range request data. The
	// caller can correct and retry.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a missing market, bet, or cached entry.
	ErrNotFound = errors.New("not found")

	// ErrMarketClosed marks an action against a market that is no longer
	// active, e.g. a bet after resolution.
	ErrMarketClosed = errors.New("market closed")

	// ErrAlreadyResolved marks a duplicate resolution or cancellation
	// attempt.
	ErrAlreadyResolved = errors.New("market already resolved")

	// ErrAccountNotFound marks an account that no configured network knows.
	ErrAccountNotFound = errors.New("account not found")

	// ErrExternalService marks a transient upstream failure (account query,
	// feed fetch, submission). Always retriable; never corrupts local state.
	ErrExternalService = errors.New("external service failure")

	// ErrRateLimited marks a request rejected by the API rate limiter.
	ErrRateLimited = errors.New("rate limited")

	// ErrSigningFailed marks a failure inside the signing service.
	ErrSigningFailed = errors.New("signing failed")
)
