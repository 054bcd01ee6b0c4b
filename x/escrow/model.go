package escrow

import (
	"encoding/binary"

	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/gconf"
	"github.com/senda-one/custody/orm"
	"github.com/senda-one/custody/x/token"
)

var (
	_ orm.Model = (*Escrow)(nil)
	_ orm.Model = (*DepositRecord)(nil)
)

// NewEscrowBucket returns a bucket for keeping escrows, keyed by the
// address derived from the party pair and indexed by each party.
func NewEscrowBucket() orm.ModelBucket {
	return orm.NewModelBucket("esc", &Escrow{},
		orm.WithIndex("sender", idxSender),
		orm.WithIndex("receiver", idxReceiver),
	)
}

func idxSender(_ []byte, m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return e.Sender, nil
}

func idxReceiver(_ []byte, m orm.Model) ([]byte, error) {
	e, ok := m.(*Escrow)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return e.Receiver, nil
}

// NewDepositBucket returns a bucket for keeping deposit records,
// keyed by the owning escrow address and the deposit index.
func NewDepositBucket() orm.ModelBucket {
	return orm.NewModelBucket("dep", &DepositRecord{},
		orm.WithIndex("escrow", idxDepositEscrow),
	)
}

func idxDepositEscrow(_ []byte, m orm.Model) ([]byte, error) {
	d, ok := m.(*DepositRecord)
	if !ok {
		return nil, errors.Wrapf(errors.ErrType, "%T", m)
	}
	return d.Escrow, nil
}

// EscrowAddress derives the deterministic address of the escrow for a
// party pair. A pair occupies exactly one identity slot.
func EscrowAddress(sender, receiver custody.Address) custody.Address {
	data := make([]byte, 0, len(sender)+len(receiver))
	data = append(data, sender...)
	data = append(data, receiver...)
	return custody.NewCondition("escrow", "pair", data).Address()
}

// EscrowCondition returns the condition the escrow fulfils on its
// own. Its address owns the vaults, so only the engine can move
// vaulted funds.
func EscrowCondition(escrow custody.Address) custody.Condition {
	return custody.NewCondition("escrow", "seq", escrow)
}

// VaultAddress derives the address of this escrow's vault for the
// given asset. Vaults are plain wallet accounts owned by the escrow
// condition, they are never stored on the escrow itself.
func VaultAddress(escrow custody.Address, s token.Stable) custody.Address {
	data := make([]byte, 0, len(escrow)+1)
	data = append(data, escrow...)
	data = append(data, byte(s))
	return custody.NewCondition("escrow", "vault", data).Address()
}

// depositKey builds the primary key of a deposit record from the
// owning escrow and the deposit index.
func depositKey(escrow custody.Address, index uint64) []byte {
	key := make([]byte, len(escrow)+8)
	copy(key, escrow)
	binary.BigEndian.PutUint64(key[len(escrow):], index)
	return key
}

// NewEscrow returns an active escrow with zero totals for the given
// parties.
func NewEscrow(sender, receiver, authority custody.Address, seed uint64) *Escrow {
	return &Escrow{
		Metadata:  &custody.Metadata{Schema: 1},
		Sender:    sender.Clone(),
		Receiver:  receiver.Clone(),
		Authority: authority.Clone(),
		Seed:      seed,
		State:     EscrowActive,
	}
}

func loadConf(db custody.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "escrow", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

func saveConf(db custody.KVStore, conf *Configuration) error {
	return gconf.Save(db, "escrow", conf)
}
