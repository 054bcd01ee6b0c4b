package token

import (
	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/gconf"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ custody.Initializer = (*Initializer)(nil)

// FromGenesis initializes the token configuration and any initial
// wallet balances declared in the genesis.
func (*Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if err := gconf.InitConfig(db, opts, "token", &Configuration{}); err != nil {
		return errors.Wrap(err, "configuration")
	}

	var wallets []struct {
		Address custody.Address `json:"address"`
		Usdc    uint64          `json:"usdc"`
		Usdt    uint64          `json:"usdt"`
	}
	if err := opts.ReadOptions("wallet", &wallets); err != nil {
		return errors.Wrap(err, "wallet")
	}
	bucket := NewWalletBucket()
	for i, w := range wallets {
		if err := w.Address.Validate(); err != nil {
			return errors.Wrapf(err, "wallet #%d address", i)
		}
		if err := bucket.Put(db, w.Address, WalletWith(w.Usdc, w.Usdt)); err != nil {
			return errors.Wrapf(err, "wallet #%d", i)
		}
	}
	return nil
}

// RegisterQuery registers the wallet bucket for queries.
func RegisterQuery(qr custody.QueryRouter) {
	NewWalletBucket().Register("wallets", qr)
}
