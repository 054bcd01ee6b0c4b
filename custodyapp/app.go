/*
Package custodyapp assembles the complete custody engine: the message
router with all extension handlers, the decorator stack that every
transaction passes through, and the genesis initialization.

Transaction signature verification happens outside of this engine. The
caller supplies an Authenticator that reveals which conditions signed
the transaction being processed.
*/
package custodyapp

import (
	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/app"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/x"
	"github.com/senda-one/custody/x/escrow"
	"github.com/senda-one/custody/x/token"
	"github.com/senda-one/custody/x/utils"
)

// Router returns all routes for the transactions this engine handles.
func Router(auth x.Authenticator, ctrl token.Controller) *app.Router {
	r := app.NewRouter()
	escrow.RegisterRoutes(r, auth, ctrl)
	return r
}

// QueryRouter returns a router for all states this engine exposes.
func QueryRouter() custody.QueryRouter {
	r := custody.NewQueryRouter()
	token.RegisterQuery(r)
	escrow.RegisterQuery(r)
	return r
}

// Stack wires the full middleware stack around the router. Each
// transaction is logged, panics surface as errors, and execution runs
// against a savepoint, so a failed operation leaves no partial writes.
func Stack(auth x.Authenticator, ctrl token.Controller) custody.Handler {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		utils.NewSavepoint().OnCheck().OnDeliver(),
	).WithHandler(Router(auth, ctrl))
}

// InitFromGenesis runs all extension initializers against the given
// store.
func InitFromGenesis(db custody.KVStore, opts custody.Options) error {
	inits := []custody.Initializer{
		&token.Initializer{},
		&escrow.Initializer{},
	}
	for _, ini := range inits {
		if err := ini.FromGenesis(opts, db); err != nil {
			return errors.Wrap(err, "init from genesis")
		}
	}
	return nil
}
