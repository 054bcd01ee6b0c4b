package token

import (
	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/gconf"
	"github.com/senda-one/custody/orm"
)

var _ orm.Model = (*Wallet)(nil)

// NewWalletBucket returns a bucket for keeping wallets, keyed by the
// account address.
func NewWalletBucket() orm.ModelBucket {
	return orm.NewModelBucket("wallet", &Wallet{})
}

// WalletWith returns a wallet with the given balances, ready to be
// stored under an account address.
func WalletWith(usdc, usdt uint64) *Wallet {
	return &Wallet{
		Metadata: &custody.Metadata{Schema: 1},
		Usdc:     usdc,
		Usdt:     usdt,
	}
}

func loadConf(db custody.ReadOnlyKVStore) (*Configuration, error) {
	var conf Configuration
	if err := gconf.Load(db, "token", &conf); err != nil {
		return nil, errors.Wrap(err, "load configuration")
	}
	return &conf, nil
}

// ResolveMint maps a mint address to the stable asset it identifies,
// using the configuration stored in the database.
func ResolveMint(db custody.ReadOnlyKVStore, mint custody.Address) (Stable, error) {
	conf, err := loadConf(db)
	if err != nil {
		return 0, err
	}
	return conf.ResolveMint(mint)
}

// LoadInfo returns the stored token description of the given asset.
func LoadInfo(db custody.ReadOnlyKVStore, s Stable) (*TokenInfo, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	return conf.Info(s), nil
}
