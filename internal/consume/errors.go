// Package consume implements the consumption allocation solver: given a
// named group of up to three mutually substitutable goods, current prices,
// and what is actually obtainable, it decides how much of each good a
// single economic actor consumes this turn.
// See design doc Section 4.
package consume

import "errors"

// Error taxonomy. Callers branch with errors.Is; everything else wraps one
// of these.
var (
	// ErrInvalidArgument marks a malformed substitutes configuration or a
	// non-positive price. Fatal at scenario load, never mid-game.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound means no positive, floor-respecting allocation exists at
	// all. Callers treat it as "this actor does not eat this turn", not as
	// a crash.
	ErrNotFound = errors.New("not found")

	// ErrOverflow marks fixed-point arithmetic that left the representable
	// range. Validate rejects configurations that could reach it mid-game.
	ErrOverflow = errors.New("fixed-point overflow")
)
