package token

import (
	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/orm"
)

// Controller moves stable asset balances between accounts. All
// operations either fully apply or leave every balance untouched.
type Controller interface {
	// Balance returns the wallet of the given account, or nil if
	// the account holds nothing.
	Balance(db custody.ReadOnlyKVStore, account custody.Address) (*Wallet, error)

	// Move transfers funds between two accounts. The declared
	// decimals must match the configured precision of the asset.
	// The source must not be bound to an owner.
	Move(db custody.KVStore, src custody.Address, dest custody.Address, amount Amount, decimals uint32) error

	// Withdraw transfers funds out of a bound account. The given
	// condition must hash to the owner of the source wallet.
	Withdraw(db custody.KVStore, authority custody.Condition, src custody.Address, dest custody.Address, amount Amount, decimals uint32) error

	// Bind marks the account as owned by the given address,
	// creating a fresh wallet if needed. Binding the same owner
	// again is a noop, a different owner is rejected.
	Bind(db custody.KVStore, account custody.Address, owner custody.Address) error

	// Issue credits an account out of thin air. It is used by the
	// genesis initialization and by tests.
	Issue(db custody.KVStore, dest custody.Address, amount Amount) error
}

type controller struct {
	bucket orm.ModelBucket
}

var _ Controller = (*controller)(nil)

// NewController returns a controller operating on the default wallet
// bucket.
func NewController() Controller {
	return &controller{bucket: NewWalletBucket()}
}

func (c *controller) Balance(db custody.ReadOnlyKVStore, account custody.Address) (*Wallet, error) {
	var w Wallet
	switch err := c.bucket.One(db, account, &w); {
	case err == nil:
		return &w, nil
	case errors.ErrNotFound.Is(err):
		return nil, nil
	default:
		return nil, errors.Wrap(err, "load wallet")
	}
}

func (c *controller) Move(db custody.KVStore, src custody.Address, dest custody.Address, amount Amount, decimals uint32) error {
	return c.move(db, nil, src, dest, amount, decimals)
}

func (c *controller) Withdraw(db custody.KVStore, authority custody.Condition, src custody.Address, dest custody.Address, amount Amount, decimals uint32) error {
	if err := authority.Validate(); err != nil {
		return errors.Wrap(err, "authority")
	}
	return c.move(db, authority, src, dest, amount, decimals)
}

func (c *controller) Bind(db custody.KVStore, account custody.Address, owner custody.Address) error {
	if err := owner.Validate(); err != nil {
		return errors.Wrap(err, "owner")
	}
	var w Wallet
	switch err := c.bucket.One(db, account, &w); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		w = *WalletWith(0, 0)
	default:
		return errors.Wrap(err, "load wallet")
	}
	switch {
	case len(w.Owner) == 0:
		w.Owner = owner.Clone()
	case w.Owner.Equals(owner):
		return nil
	default:
		return errors.Wrapf(errors.ErrImmutable, "account bound to %s", w.Owner)
	}
	if err := c.bucket.Put(db, account, &w); err != nil {
		return errors.Wrap(err, "store wallet")
	}
	return nil
}

func (c *controller) move(db custody.KVStore, authority custody.Condition, src custody.Address, dest custody.Address, amount Amount, decimals uint32) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	// Both wallets are held in memory until the final writes, a self
	// transfer would credit the later write on top of the debit.
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrMsg, "source equals destination")
	}
	conf, err := loadConf(db)
	if err != nil {
		return err
	}
	if want := conf.Info(amount.Stable).Decimals; want != decimals {
		return errors.Wrapf(ErrDecimalMismatch, "want %d, got %d", want, decimals)
	}

	sender, err := c.Balance(db, src)
	if err != nil {
		return err
	}
	switch owner := sender.GetOwner(); {
	case len(owner) == 0:
		if authority != nil {
			return errors.Wrapf(errors.ErrUnauthorized, "account %s is not bound", src)
		}
	case !authority.Address().Equals(owner):
		return errors.Wrapf(errors.ErrUnauthorized, "account bound to %s", owner)
	}
	held := sender.Balance(amount.Stable)
	if held < amount.Value {
		return errors.Wrapf(ErrInsufficientFunds, "%d < %d", held, amount.Value)
	}

	var receiver Wallet
	switch err := c.bucket.One(db, dest, &receiver); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		receiver = *WalletWith(0, 0)
	default:
		return errors.Wrap(err, "load destination")
	}
	credited, err := add64(receiver.Balance(amount.Stable), amount.Value)
	if err != nil {
		return errors.Wrap(err, "credit destination")
	}

	// Both wallets are loaded and validated. Apply the debit and
	// the credit together so a failure above leaves no change.
	sender.setBalance(amount.Stable, held-amount.Value)
	receiver.setBalance(amount.Stable, credited)
	if err := c.bucket.Put(db, src, sender); err != nil {
		return errors.Wrap(err, "store source")
	}
	if err := c.bucket.Put(db, dest, &receiver); err != nil {
		return errors.Wrap(err, "store destination")
	}
	return nil
}

func (c *controller) Issue(db custody.KVStore, dest custody.Address, amount Amount) error {
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "amount")
	}
	var w Wallet
	switch err := c.bucket.One(db, dest, &w); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		w = *WalletWith(0, 0)
	default:
		return errors.Wrap(err, "load wallet")
	}
	total, err := add64(w.Balance(amount.Stable), amount.Value)
	if err != nil {
		return errors.Wrap(err, "credit")
	}
	w.setBalance(amount.Stable, total)
	if err := c.bucket.Put(db, dest, &w); err != nil {
		return errors.Wrap(err, "store wallet")
	}
	return nil
}

// add64 returns a+b or an overflow error.
func add64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", a, b)
	}
	return sum, nil
}
