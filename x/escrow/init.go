package escrow

import (
	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/gconf"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file.
type Initializer struct{}

var _ custody.Initializer = (*Initializer)(nil)

// FromGenesis initializes the factory configuration from the genesis.
func (*Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	if err := gconf.InitConfig(db, opts, "escrow", &Configuration{}); err != nil {
		return errors.Wrap(err, "configuration")
	}
	return nil
}
