package engine

import "errors"

var (
	// ErrUnknownPrice: price absent or not positive. Yield and lot
	// affordability are undefined for the security.
	ErrUnknownPrice = errors.New("unknown price")

	ErrInvalidInput = errors.New("invalid input")

	// ErrDataSourceUnavailable is returned by market data collaborators when
	// a per-security fetch fails.
	ErrDataSourceUnavailable = errors.New("data source unavailable")
)
