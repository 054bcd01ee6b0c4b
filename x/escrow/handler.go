package escrow

import (
	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/orm"
	"github.com/senda-one/custody/x"
	"github.com/senda-one/custody/x/token"
)

const (
	createEscrowCost int64 = 300
	depositCost      int64 = 200
	resolveCost      int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this
// package.
func RegisterRoutes(r custody.Registry, auth x.Authenticator, ctrl token.Controller) {
	escrows := NewEscrowBucket()
	deposits := NewDepositBucket()
	r.Handle(pathCreate, &createEscrowHandler{auth: auth, escrows: escrows})
	r.Handle(pathDeposit, &depositHandler{auth: auth, ctrl: ctrl, escrows: escrows, deposits: deposits})
	r.Handle(pathRelease, &releaseHandler{auth: auth, ctrl: ctrl, escrows: escrows, deposits: deposits})
	r.Handle(pathCancel, &cancelHandler{auth: auth, ctrl: ctrl, escrows: escrows, deposits: deposits})
}

// RegisterQuery will register escrows and deposit records as
// "/escrows" and "/deposits".
func RegisterQuery(qr custody.QueryRouter) {
	NewEscrowBucket().Register("escrows", qr)
	NewDepositBucket().Register("deposits", qr)
}

// createEscrowHandler allocates the escrow for a party pair.
type createEscrowHandler struct {
	auth    x.Authenticator
	escrows orm.ModelBucket
}

var _ custody.Handler = (*createEscrowHandler)(nil)

func (h *createEscrowHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: createEscrowCost}, nil
}

func (h *createEscrowHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	key := EscrowAddress(msg.Sender, msg.Receiver)
	escrow := NewEscrow(msg.Sender, msg.Receiver, msg.Authority, msg.Seed)
	if err := h.escrows.Put(db, key, escrow); err != nil {
		return nil, errors.Wrap(err, "store escrow")
	}

	conf, err := loadConf(db)
	if err != nil {
		return nil, err
	}
	conf.EscrowCount++
	if err := saveConf(db, conf); err != nil {
		return nil, errors.Wrap(err, "store configuration")
	}
	return &custody.DeliverResult{Data: key}, nil
}

func (h *createEscrowHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*CreateEscrowMsg, error) {
	var msg CreateEscrowMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Sender) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "sender signature missing")
	}
	key := EscrowAddress(msg.Sender, msg.Receiver)
	if h.escrows.Has(db, key) {
		// An occupied slot is never silently reused, even when
		// the existing escrow is already closed.
		return nil, errors.Wrapf(errors.ErrDuplicate, "escrow %s", key)
	}
	return &msg, nil
}

// depositHandler moves funds from a depositor into the matching vault
// and creates the deposit record tracking them.
type depositHandler struct {
	auth     x.Authenticator
	ctrl     token.Controller
	escrows  orm.ModelBucket
	deposits orm.ModelBucket
}

var _ custody.Handler = (*depositHandler)(nil)

func (h *depositHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: depositCost}, nil
}

func (h *depositHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, escrow, stable, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}

	policy, err := msg.Authorization.Policy(escrow.Sender, escrow.Receiver)
	if err != nil {
		return nil, err
	}
	record := &DepositRecord{
		Metadata:  &custody.Metadata{Schema: 1},
		Escrow:    msg.EscrowID.Clone(),
		Index:     escrow.DepositCount,
		Depositor: msg.Depositor.Clone(),
		Amount:    msg.Amount,
		Stable:    stable,
		Policy:    policy,
		State:     DepositPending,
	}
	key := depositKey(msg.EscrowID, record.Index)
	if err := h.deposits.Put(db, key, record); err != nil {
		return nil, errors.Wrap(err, "store deposit")
	}

	// The vault is bound to the escrow's own condition, so nothing
	// but this engine can debit it afterwards.
	vault := VaultAddress(msg.EscrowID, stable)
	if err := h.ctrl.Bind(db, vault, EscrowCondition(msg.EscrowID).Address()); err != nil {
		return nil, errors.Wrap(err, "bind vault")
	}
	amount := token.Amount{Stable: stable, Value: msg.Amount}
	if err := h.ctrl.Move(db, msg.Depositor, vault, amount, msg.Decimals); err != nil {
		return nil, errors.Wrap(err, "fund vault")
	}

	total, err := add64(escrow.Deposited(stable), msg.Amount)
	if err != nil {
		return nil, errors.Wrap(err, "deposited total")
	}
	escrow.setDeposited(stable, total)
	escrow.DepositCount++
	if err := h.escrows.Put(db, msg.EscrowID, escrow); err != nil {
		return nil, errors.Wrap(err, "store escrow")
	}
	return &custody.DeliverResult{Data: key}, nil
}

// validate runs the deposit preconditions in order and fails on the
// first violation.
func (h *depositHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*DepositMsg, *Escrow, token.Stable, error) {
	var msg DepositMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, 0, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Depositor) {
		return nil, nil, 0, errors.Wrap(errors.ErrUnauthorized, "depositor signature missing")
	}
	var escrow Escrow
	if err := h.escrows.One(db, msg.EscrowID, &escrow); err != nil {
		return nil, nil, 0, errors.Wrap(err, "load escrow")
	}
	if escrow.State != EscrowActive {
		return nil, nil, 0, errors.Wrapf(errors.ErrState, "escrow %s", escrow.State)
	}
	if !escrow.Party(msg.Depositor) {
		return nil, nil, 0, errors.Wrapf(ErrInvalidDepositor, "%s", msg.Depositor)
	}
	if !escrow.Other(msg.Depositor).Equals(msg.Counterparty) {
		return nil, nil, 0, errors.Wrapf(ErrInvalidCounterparty, "%s", msg.Counterparty)
	}
	stable, err := token.ResolveMint(db, msg.Mint)
	if err != nil {
		return nil, nil, 0, err
	}
	return &msg, &escrow, stable, nil
}

// releaseHandler pays a pending deposit to a receiving party once the
// record's signature policy is satisfied.
type releaseHandler struct {
	auth     x.Authenticator
	ctrl     token.Controller
	escrows  orm.ModelBucket
	deposits orm.ModelBucket
}

var _ custody.Handler = (*releaseHandler)(nil)

func (h *releaseHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: resolveCost}, nil
}

func (h *releaseHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, escrow, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := resolveDeposit(db, h.ctrl, h.escrows, h.deposits, msg.EscrowID, escrow, record, msg.ReceivingParty, DepositComplete); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{}, nil
}

func (h *releaseHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*ReleaseMsg, *Escrow, *DepositRecord, error) {
	var msg ReleaseMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.escrows.One(db, msg.EscrowID, &escrow); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load escrow")
	}
	record, err := loadPending(db, h.deposits, msg.EscrowID, msg.DepositIndex)
	if err != nil {
		return nil, nil, nil, err
	}
	if !escrow.Party(msg.ReceivingParty) {
		return nil, nil, nil, errors.Wrapf(ErrInvalidParties, "receiving party %s", msg.ReceivingParty)
	}
	// Declared party roles, when present, must map consistently
	// onto the escrow's parties.
	if len(msg.Depositor) != 0 && !escrow.Party(msg.Depositor) {
		return nil, nil, nil, errors.Wrapf(ErrInvalidParties, "depositor %s", msg.Depositor)
	}
	if len(msg.Counterparty) != 0 {
		if len(msg.Depositor) == 0 || !escrow.Other(msg.Depositor).Equals(msg.Counterparty) {
			return nil, nil, nil, errors.Wrapf(ErrInvalidParties, "counterparty %s", msg.Counterparty)
		}
	}
	if err := h.checkPolicy(ctx, &escrow, record); err != nil {
		return nil, nil, nil, err
	}
	return &msg, &escrow, record, nil
}

// checkPolicy verifies the record's signature policy against the
// transaction signers. For a dual policy only one of the two required
// signatures is verifiable here, collecting the second one is an
// obligation of the transaction submission layer.
func (h *releaseHandler) checkPolicy(ctx custody.Context, escrow *Escrow, record *DepositRecord) error {
	switch record.Policy.Kind {
	case PolicySingle:
		if !h.auth.HasAddress(ctx, record.Policy.Signer) {
			return errors.Wrapf(ErrInvalidSigner, "want %s", record.Policy.Signer)
		}
	default:
		if !x.AnyAddress(ctx, h.auth, escrow.Sender, escrow.Receiver) {
			return errors.Wrap(ErrInvalidSigner, "no party signature")
		}
	}
	return nil
}

// cancelHandler returns a pending deposit to its original depositor.
type cancelHandler struct {
	auth     x.Authenticator
	ctrl     token.Controller
	escrows  orm.ModelBucket
	deposits orm.ModelBucket
}

var _ custody.Handler = (*cancelHandler)(nil)

func (h *cancelHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	if _, _, _, err := h.validate(ctx, db, tx); err != nil {
		return nil, err
	}
	return &custody.CheckResult{GasAllocated: resolveCost}, nil
}

func (h *cancelHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	msg, escrow, record, err := h.validate(ctx, db, tx)
	if err != nil {
		return nil, err
	}
	if err := resolveDeposit(db, h.ctrl, h.escrows, h.deposits, msg.EscrowID, escrow, record, record.Depositor, DepositCancelled); err != nil {
		return nil, err
	}
	return &custody.DeliverResult{}, nil
}

func (h *cancelHandler) validate(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*CancelMsg, *Escrow, *DepositRecord, error) {
	var msg CancelMsg
	if err := custody.LoadMsg(tx, &msg); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load msg")
	}
	var escrow Escrow
	if err := h.escrows.One(db, msg.EscrowID, &escrow); err != nil {
		return nil, nil, nil, errors.Wrap(err, "load escrow")
	}
	if escrow.State != EscrowActive {
		return nil, nil, nil, errors.Wrapf(errors.ErrState, "escrow %s", escrow.State)
	}
	record, err := loadPending(db, h.deposits, msg.EscrowID, msg.DepositIndex)
	if err != nil {
		return nil, nil, nil, err
	}
	// Cancellation is depositor only, the other party of the escrow
	// may not return funds on the depositor's behalf.
	if !h.auth.HasAddress(ctx, record.Depositor) {
		return nil, nil, nil, errors.Wrapf(ErrInvalidSigner, "want depositor %s", record.Depositor)
	}
	return &msg, &escrow, record, nil
}

// loadPending loads the deposit record under the given escrow and
// index and ensures it was not resolved yet.
func loadPending(db custody.ReadOnlyKVStore, deposits orm.ModelBucket, escrowID custody.Address, index uint64) (*DepositRecord, error) {
	var record DepositRecord
	switch err := deposits.One(db, depositKey(escrowID, index), &record); {
	case err == nil:
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrapf(ErrDepositNotFound, "index %d", index)
	default:
		return nil, errors.Wrap(err, "load deposit")
	}
	switch record.State {
	case DepositPending:
	case DepositComplete, DepositCancelled:
		return nil, errors.Wrapf(ErrDepositProcessed, "%s", record.State)
	default:
		return nil, errors.Wrapf(errors.ErrState, "deposit %s", record.State)
	}
	return &record, nil
}

// resolveDeposit pays a pending record out of the vault to the given
// destination and marks it with the terminal state. The debit is
// authorized by the escrow itself as the vault owner. The aggregate
// total uses checked subtraction, an underflow means the books are
// already inconsistent and aborts the operation.
func resolveDeposit(db custody.KVStore, ctrl token.Controller, escrows, deposits orm.ModelBucket, escrowID custody.Address, escrow *Escrow, record *DepositRecord, dest custody.Address, state DepositState) error {
	conf, err := loadTokenDecimals(db, record.Stable)
	if err != nil {
		return err
	}
	vault := VaultAddress(escrowID, record.Stable)
	amount := token.Amount{Stable: record.Stable, Value: record.Amount}
	if err := ctrl.Withdraw(db, EscrowCondition(escrowID), vault, dest, amount, conf); err != nil {
		return errors.Wrap(err, "pay out vault")
	}

	total, err := sub64(escrow.Deposited(record.Stable), record.Amount)
	if err != nil {
		return errors.Wrap(err, "deposited total")
	}
	escrow.setDeposited(record.Stable, total)
	if err := escrows.Put(db, escrowID, escrow); err != nil {
		return errors.Wrap(err, "store escrow")
	}

	record.State = state
	if err := deposits.Put(db, depositKey(escrowID, record.Index), record); err != nil {
		return errors.Wrap(err, "store deposit")
	}
	return nil
}

func loadTokenDecimals(db custody.ReadOnlyKVStore, s token.Stable) (uint32, error) {
	info, err := token.LoadInfo(db, s)
	if err != nil {
		return 0, err
	}
	return info.Decimals, nil
}

// add64 returns a+b or an overflow error.
func add64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d + %d", a, b)
	}
	return sum, nil
}

// sub64 returns a-b or an underflow error.
func sub64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, errors.Wrapf(errors.ErrOverflow, "%d - %d", a, b)
	}
	return a - b, nil
}
