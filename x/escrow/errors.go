package escrow

import "github.com/senda-one/custody/errors"

var (
	// ErrInvalidSigner is returned when the signature policy of a
	// deposit is not satisfied by the acting signer.
	ErrInvalidSigner = errors.Register(1010, "invalid signer")

	// ErrInvalidAuthority is returned on administrative identity
	// misuse, for example an authority equal to the sender.
	ErrInvalidAuthority = errors.Register(1011, "invalid authority")

	// ErrInvalidDepositor is returned when the depositor is not a
	// party to the escrow.
	ErrInvalidDepositor = errors.Register(1012, "invalid depositor")

	// ErrInvalidCounterparty is returned when the declared
	// counterparty is not the other party of the escrow.
	ErrInvalidCounterparty = errors.Register(1013, "invalid counterparty")

	// ErrInvalidParties is returned when declared party identities
	// do not map onto the escrow's sender and receiver.
	ErrInvalidParties = errors.Register(1014, "invalid parties")

	// ErrDepositNotFound is returned when no deposit record exists
	// under the given escrow and index.
	ErrDepositNotFound = errors.Register(1015, "deposit not found")

	// ErrDepositProcessed is returned when a release or cancel is
	// attempted on a deposit record that was already resolved.
	ErrDepositProcessed = errors.Register(1016, "deposit already processed")
)
