package core

import "errors"

var (
	// ErrInvalidOrder is returned for malformed admission input: a zero
	// id, a non-positive quantity, a non-positive price on a priced
	// order, or an unrecognized side/type.
	ErrInvalidOrder = errors.New("core: invalid order")

	// ErrNoLiquidity is returned when a Market order is submitted against
	// an empty opposite book. Nothing is admitted.
	ErrNoLiquidity = errors.New("core: no liquidity to peg market order against")
)

// A duplicate order id on AddOrder, or an unknown id on Cancel/Modify,
// is a silent no-op rather than an error: nothing about the book
// changed, and there is nothing for a caller to recover from. AddOrder
// signals it with an empty, nil-error result; Cancel and Modify signal
// it with their bool "found" return.
