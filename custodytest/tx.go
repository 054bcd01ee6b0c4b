package custodytest

import (
	crand "crypto/rand"

	custody "github.com/senda-one/custody"
)

// Tx is a mock transaction carrying a single message.
type Tx struct {
	// Msg is the message this transaction carries.
	Msg custody.Msg
	// Err if set is returned instead of the message.
	Err error
}

var _ custody.Tx = (*Tx)(nil)

// GetMsg returns the configured message or error.
func (tx *Tx) GetMsg() (custody.Msg, error) {
	if tx.Err != nil {
		return nil, tx.Err
	}
	return tx.Msg, nil
}

// NewCondition returns a random condition, usable as a unique
// identity in tests.
func NewCondition() custody.Condition {
	data := make([]byte, 20)
	if _, err := crand.Read(data); err != nil {
		panic(err)
	}
	return custody.NewCondition("test", "rnd", data)
}

// NewKey returns a random address, usable as a unique identity in
// tests.
func NewKey() custody.Address {
	return NewCondition().Address()
}
