package token

import "github.com/senda-one/custody/errors"

var (
	// ErrInvalidMint is returned when a mint address does not
	// identify any configured stable asset.
	ErrInvalidMint = errors.Register(1100, "invalid mint")

	// ErrInsufficientFunds is returned when a transfer would debit
	// more than the source account holds.
	ErrInsufficientFunds = errors.Register(1101, "insufficient funds")

	// ErrDecimalMismatch is returned when the declared precision of
	// an amount disagrees with the token configuration.
	ErrDecimalMismatch = errors.Register(1102, "decimal mismatch")
)
