package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/app"
	"github.com/senda-one/custody/custodytest"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/gconf"
	"github.com/senda-one/custody/store"
	"github.com/senda-one/custody/x/token"
	"github.com/senda-one/custody/x/utils"
)

type testEnv struct {
	t    *testing.T
	db   custody.CacheableKVStore
	ctrl token.Controller
	auth *custodytest.CtxAuth
	h    custody.Handler

	admin    custody.Condition
	sender   custody.Condition
	receiver custody.Condition
	stranger custody.Condition

	usdcMint custody.Address
	usdcAlt  custody.Address
	usdtMint custody.Address
}

func newTestEnv(t *testing.T) *testEnv {
	e := &testEnv{
		t:        t,
		db:       store.MemStore(),
		ctrl:     token.NewController(),
		auth:     &custodytest.CtxAuth{Key: "auth"},
		admin:    custodytest.NewCondition(),
		sender:   custodytest.NewCondition(),
		receiver: custodytest.NewCondition(),
		stranger: custodytest.NewCondition(),
		usdcMint: custodytest.NewKey(),
		usdcAlt:  custodytest.NewKey(),
		usdtMint: custodytest.NewKey(),
	}

	meta := &custody.Metadata{Schema: 1}
	err := gconf.Save(e.db, "token", &token.Configuration{
		Metadata: meta,
		Usdc:     &token.TokenInfo{Mint: e.usdcMint, AltMint: e.usdcAlt, Decimals: 6},
		Usdt:     &token.TokenInfo{Mint: e.usdtMint, Decimals: 6},
	})
	require.NoError(t, err)
	err = gconf.Save(e.db, "escrow", &Configuration{
		Metadata: meta,
		Admin:    e.admin.Address(),
	})
	require.NoError(t, err)

	for _, c := range []custody.Condition{e.sender, e.receiver, e.stranger} {
		require.NoError(t, e.ctrl.Issue(e.db, c.Address(), token.Amount{Stable: token.USDC, Value: 10_000_000}))
		require.NoError(t, e.ctrl.Issue(e.db, c.Address(), token.Amount{Stable: token.USDT, Value: 10_000_000}))
	}

	r := app.NewRouter()
	RegisterRoutes(r, e.auth, e.ctrl)
	e.h = app.ChainDecorators(
		utils.NewLogging(),
		utils.NewSavepoint().OnDeliver(),
	).WithHandler(r)
	return e
}

func (e *testEnv) deliver(msg custody.Msg, signers ...custody.Condition) (*custody.DeliverResult, error) {
	ctx := e.auth.SetConditions(context.Background(), signers...)
	return e.h.Deliver(ctx, e.db, &custodytest.Tx{Msg: msg})
}

func (e *testEnv) create() custody.Address {
	e.t.Helper()
	res, err := e.deliver(&CreateEscrowMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Sender:   e.sender.Address(),
		Receiver: e.receiver.Address(),
		Seed:     7,
	}, e.sender)
	require.NoError(e.t, err)
	return custody.Address(res.Data)
}

func (e *testEnv) deposit(id custody.Address, by custody.Condition, counter custody.Address, mint custody.Address, amount uint64, auth AuthorizedBy) error {
	e.t.Helper()
	_, err := e.deliver(&DepositMsg{
		Metadata:      &custody.Metadata{Schema: 1},
		EscrowID:      id,
		Depositor:     by.Address(),
		Counterparty:  counter,
		Mint:          mint,
		Decimals:      6,
		Amount:        amount,
		Authorization: auth,
	}, by)
	return err
}

func (e *testEnv) release(id custody.Address, index uint64, by custody.Condition, dest custody.Address) error {
	e.t.Helper()
	_, err := e.deliver(&ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       id,
		DepositIndex:   index,
		ReceivingParty: dest,
	}, by)
	return err
}

func (e *testEnv) cancel(id custody.Address, index uint64, by custody.Condition) error {
	e.t.Helper()
	_, err := e.deliver(&CancelMsg{
		Metadata:     &custody.Metadata{Schema: 1},
		EscrowID:     id,
		DepositIndex: index,
	}, by)
	return err
}

func (e *testEnv) escrow(id custody.Address) *Escrow {
	e.t.Helper()
	var esc Escrow
	require.NoError(e.t, NewEscrowBucket().One(e.db, id, &esc))
	return &esc
}

func (e *testEnv) record(id custody.Address, index uint64) *DepositRecord {
	e.t.Helper()
	var rec DepositRecord
	require.NoError(e.t, NewDepositBucket().One(e.db, depositKey(id, index), &rec))
	return &rec
}

func (e *testEnv) balance(a custody.Address, s token.Stable) uint64 {
	e.t.Helper()
	w, err := e.ctrl.Balance(e.db, a)
	require.NoError(e.t, err)
	return w.Balance(s)
}

func TestCreateEscrow(t *testing.T) {
	e := newTestEnv(t)

	id := e.create()
	esc := e.escrow(id)
	assert.Equal(t, EscrowActive, esc.State)
	assert.Equal(t, uint64(0), esc.DepositCount)
	assert.Equal(t, e.sender.Address(), esc.Sender)
	assert.Equal(t, e.receiver.Address(), esc.Receiver)

	var conf Configuration
	require.NoError(t, gconf.Load(e.db, "escrow", &conf))
	assert.Equal(t, uint64(1), conf.EscrowCount)

	// Vaults start empty.
	assert.Equal(t, uint64(0), e.balance(VaultAddress(id, token.USDC), token.USDC))
	assert.Equal(t, uint64(0), e.balance(VaultAddress(id, token.USDT), token.USDT))
}

func TestCreateEscrowOccupiedSlot(t *testing.T) {
	e := newTestEnv(t)
	e.create()

	_, err := e.deliver(&CreateEscrowMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Sender:   e.sender.Address(),
		Receiver: e.receiver.Address(),
		Seed:     8,
	}, e.sender)
	require.True(t, errors.ErrDuplicate.Is(err), "%+v", err)
}

func TestCreateEscrowSelfAuthority(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.deliver(&CreateEscrowMsg{
		Metadata:  &custody.Metadata{Schema: 1},
		Sender:    e.sender.Address(),
		Receiver:  e.receiver.Address(),
		Authority: e.sender.Address(),
	}, e.sender)
	require.True(t, ErrInvalidAuthority.Is(err), "%+v", err)
}

func TestCreateEscrowUnsignedSender(t *testing.T) {
	e := newTestEnv(t)

	_, err := e.deliver(&CreateEscrowMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Sender:   e.sender.Address(),
		Receiver: e.receiver.Address(),
	}, e.receiver)
	require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
}

func TestDepositDualPolicy(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 1_000_000, AuthorizedByBoth)
	require.NoError(t, err)

	rec := e.record(id, 0)
	assert.Equal(t, DepositPending, rec.State)
	assert.Equal(t, PolicyDual, rec.Policy.Kind)
	assert.Equal(t, token.USDC, rec.Stable)
	assert.Equal(t, uint64(1_000_000), rec.Amount)
	assert.Equal(t, e.sender.Address(), rec.Depositor)

	esc := e.escrow(id)
	assert.Equal(t, uint64(1_000_000), esc.DepositedUsdc)
	assert.Equal(t, uint64(0), esc.DepositedUsdt)
	assert.Equal(t, uint64(1), esc.DepositCount)

	assert.Equal(t, uint64(1_000_000), e.balance(VaultAddress(id, token.USDC), token.USDC))
	assert.Equal(t, uint64(9_000_000), e.balance(e.sender.Address(), token.USDC))
}

func TestDepositAlternateMint(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.sender, e.receiver.Address(), e.usdcAlt, 500, AuthorizedByBoth)
	require.NoError(t, err)
	assert.Equal(t, token.USDC, e.record(id, 0).Stable)
}

func TestDepositBindsVaultToEscrow(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 1_000_000, AuthorizedByBoth))

	vault := VaultAddress(id, token.USDC)
	w, err := e.ctrl.Balance(e.db, vault)
	require.NoError(t, err)
	assert.Equal(t, EscrowCondition(id).Address(), w.GetOwner())

	// Vaulted funds cannot leave through a plain transfer, only
	// through a resolution carrying the escrow's condition.
	err = e.ctrl.Move(e.db, vault, e.stranger.Address(), token.Amount{Stable: token.USDC, Value: 1}, 6)
	require.True(t, errors.ErrUnauthorized.Is(err), "%+v", err)
	assert.Equal(t, uint64(1_000_000), e.balance(vault, token.USDC))
}

func TestReleaseDualByReceiver(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 1_000_000, AuthorizedByBoth))

	require.NoError(t, e.release(id, 0, e.receiver, e.receiver.Address()))

	assert.Equal(t, DepositComplete, e.record(id, 0).State)
	assert.Equal(t, uint64(0), e.escrow(id).DepositedUsdc)
	assert.Equal(t, uint64(0), e.balance(VaultAddress(id, token.USDC), token.USDC))
	assert.Equal(t, uint64(11_000_000), e.balance(e.receiver.Address(), token.USDC))
}

func TestReleaseSinglePolicy(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdtMint, 500, AuthorizedBySender))

	rec := e.record(id, 0)
	assert.Equal(t, PolicySingle, rec.Policy.Kind)
	assert.Equal(t, e.sender.Address(), rec.Policy.Signer)

	// The receiver alone cannot satisfy a sender-only policy.
	err := e.release(id, 0, e.receiver, e.receiver.Address())
	require.True(t, ErrInvalidSigner.Is(err), "%+v", err)
	assert.Equal(t, DepositPending, e.record(id, 0).State)

	require.NoError(t, e.release(id, 0, e.sender, e.receiver.Address()))
	assert.Equal(t, DepositComplete, e.record(id, 0).State)
	assert.Equal(t, uint64(10_000_500), e.balance(e.receiver.Address(), token.USDT))
}

func TestReleaseReceivingPartyMustBeParty(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 100, AuthorizedByBoth))

	_, err := e.deliver(&ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       id,
		DepositIndex:   0,
		ReceivingParty: e.stranger.Address(),
	}, e.sender)
	require.True(t, ErrInvalidParties.Is(err), "%+v", err)
}

func TestReleaseDeclaredParties(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 100, AuthorizedByBoth))

	// Roles that do not map onto the escrow parties are rejected.
	_, err := e.deliver(&ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       id,
		DepositIndex:   0,
		Depositor:      e.stranger.Address(),
		Counterparty:   e.receiver.Address(),
		ReceivingParty: e.receiver.Address(),
	}, e.sender)
	require.True(t, ErrInvalidParties.Is(err), "%+v", err)

	_, err = e.deliver(&ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       id,
		DepositIndex:   0,
		Depositor:      e.sender.Address(),
		Counterparty:   e.sender.Address(),
		ReceivingParty: e.receiver.Address(),
	}, e.sender)
	require.True(t, ErrInvalidParties.Is(err), "%+v", err)

	_, err = e.deliver(&ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       id,
		DepositIndex:   0,
		Depositor:      e.sender.Address(),
		Counterparty:   e.receiver.Address(),
		ReceivingParty: e.receiver.Address(),
	}, e.sender)
	require.NoError(t, err)
}

func TestReleaseTerminal(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 100, AuthorizedByBoth))
	require.NoError(t, e.release(id, 0, e.sender, e.receiver.Address()))

	err := e.release(id, 0, e.sender, e.receiver.Address())
	require.True(t, ErrDepositProcessed.Is(err), "%+v", err)

	err = e.cancel(id, 0, e.sender)
	require.True(t, ErrDepositProcessed.Is(err), "%+v", err)
}

func TestCancelReturnsFunds(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 200, AuthorizedByBoth))

	require.NoError(t, e.cancel(id, 0, e.sender))

	assert.Equal(t, DepositCancelled, e.record(id, 0).State)
	assert.Equal(t, uint64(0), e.escrow(id).DepositedUsdc)
	assert.Equal(t, uint64(10_000_000), e.balance(e.sender.Address(), token.USDC))
	assert.Equal(t, uint64(0), e.balance(VaultAddress(id, token.USDC), token.USDC))

	err := e.cancel(id, 0, e.sender)
	require.True(t, ErrDepositProcessed.Is(err), "%+v", err)
}

func TestCancelDepositorOnly(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 200, AuthorizedByBoth))

	// Even the other escrow party cannot cancel.
	err := e.cancel(id, 0, e.receiver)
	require.True(t, ErrInvalidSigner.Is(err), "%+v", err)

	err = e.cancel(id, 0, e.stranger)
	require.True(t, ErrInvalidSigner.Is(err), "%+v", err)

	require.NoError(t, e.cancel(id, 0, e.sender))
}

func TestDepositByStranger(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.stranger, e.receiver.Address(), e.usdcMint, 100, AuthorizedByBoth)
	require.True(t, ErrInvalidDepositor.Is(err), "%+v", err)

	// No record was created and no funds moved.
	var rec DepositRecord
	err = NewDepositBucket().One(e.db, depositKey(id, 0), &rec)
	require.True(t, errors.ErrNotFound.Is(err), "%+v", err)
	assert.Equal(t, uint64(0), e.escrow(id).DepositCount)
	assert.Equal(t, uint64(10_000_000), e.balance(e.stranger.Address(), token.USDC))
}

func TestDepositBadCounterparty(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.sender, e.stranger.Address(), e.usdcMint, 100, AuthorizedByBoth)
	require.True(t, ErrInvalidCounterparty.Is(err), "%+v", err)

	err = e.deposit(id, e.sender, e.sender.Address(), e.usdcMint, 100, AuthorizedByBoth)
	require.True(t, ErrInvalidCounterparty.Is(err), "%+v", err)
}

func TestDepositUnknownMint(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.sender, e.receiver.Address(), custodytest.NewKey(), 100, AuthorizedByBoth)
	require.True(t, token.ErrInvalidMint.Is(err), "%+v", err)
	assert.Equal(t, uint64(0), e.escrow(id).DepositCount)
}

func TestDepositInsufficientFunds(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 10_000_001, AuthorizedByBoth)
	require.True(t, token.ErrInsufficientFunds.Is(err), "%+v", err)

	// The transfer failed, so no deposit record survives either.
	var rec DepositRecord
	err = NewDepositBucket().One(e.db, depositKey(id, 0), &rec)
	require.True(t, errors.ErrNotFound.Is(err), "%+v", err)
	assert.Equal(t, uint64(0), e.escrow(id).DepositCount)
	assert.Equal(t, uint64(0), e.escrow(id).DepositedUsdc)
}

func TestDepositDecimalMismatch(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	_, err := e.deliver(&DepositMsg{
		Metadata:      &custody.Metadata{Schema: 1},
		EscrowID:      id,
		Depositor:     e.sender.Address(),
		Counterparty:  e.receiver.Address(),
		Mint:          e.usdcMint,
		Decimals:      9,
		Amount:        100,
		Authorization: AuthorizedByBoth,
	}, e.sender)
	require.True(t, token.ErrDecimalMismatch.Is(err), "%+v", err)
}

func TestReceiverCanDeposit(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	require.NoError(t, e.deposit(id, e.receiver, e.sender.Address(), e.usdtMint, 300, AuthorizedByReceiver))

	rec := e.record(id, 0)
	assert.Equal(t, e.receiver.Address(), rec.Depositor)
	assert.Equal(t, e.receiver.Address(), rec.Policy.Signer)
	assert.Equal(t, uint64(300), e.escrow(id).DepositedUsdt)
}

func TestDepositMissingEscrow(t *testing.T) {
	e := newTestEnv(t)

	err := e.deposit(custodytest.NewKey(), e.sender, e.receiver.Address(), e.usdcMint, 100, AuthorizedByBoth)
	require.True(t, errors.ErrNotFound.Is(err), "%+v", err)
}

func TestReleaseMissingDeposit(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	err := e.release(id, 3, e.sender, e.receiver.Address())
	require.True(t, ErrDepositNotFound.Is(err), "%+v", err)
}

// The deposited totals must equal the sum of pending record amounts
// for every asset across an arbitrary sequence of operations.
func TestDepositedTotalsInvariant(t *testing.T) {
	e := newTestEnv(t)
	id := e.create()

	check := func() {
		t.Helper()
		esc := e.escrow(id)
		var usdc, usdt uint64
		for i := uint64(0); i < esc.DepositCount; i++ {
			rec := e.record(id, i)
			if rec.State != DepositPending {
				continue
			}
			switch rec.Stable {
			case token.USDC:
				usdc += rec.Amount
			default:
				usdt += rec.Amount
			}
		}
		require.Equal(t, usdc, esc.DepositedUsdc)
		require.Equal(t, usdt, esc.DepositedUsdt)
		require.Equal(t, esc.DepositedUsdc, e.balance(VaultAddress(id, token.USDC), token.USDC))
		require.Equal(t, esc.DepositedUsdt, e.balance(VaultAddress(id, token.USDT), token.USDT))
	}

	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 1_000, AuthorizedByBoth))
	check()
	require.NoError(t, e.deposit(id, e.receiver, e.sender.Address(), e.usdtMint, 2_000, AuthorizedBySender))
	check()
	require.NoError(t, e.deposit(id, e.sender, e.receiver.Address(), e.usdcMint, 3_000, AuthorizedByReceiver))
	check()
	require.NoError(t, e.release(id, 0, e.sender, e.receiver.Address()))
	check()
	require.NoError(t, e.cancel(id, 1, e.receiver))
	check()
	// Failed operations leave the books untouched.
	require.Error(t, e.release(id, 0, e.sender, e.receiver.Address()))
	check()
	require.NoError(t, e.release(id, 2, e.receiver, e.sender.Address()))
	check()

	esc := e.escrow(id)
	assert.Equal(t, uint64(0), esc.DepositedUsdc)
	assert.Equal(t, uint64(0), esc.DepositedUsdt)
	assert.Equal(t, uint64(3), esc.DepositCount)
}
