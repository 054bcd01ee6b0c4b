package custodyapp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/custodytest"
	"github.com/senda-one/custody/store"
	"github.com/senda-one/custody/x/escrow"
	"github.com/senda-one/custody/x/token"
)

func TestGenesisToReleaseFlow(t *testing.T) {
	db := store.MemStore()

	admin := custodytest.NewCondition()
	sender := custodytest.NewCondition()
	receiver := custodytest.NewCondition()
	usdcMint := custodytest.NewKey()
	usdtMint := custodytest.NewKey()

	genesis := fmt.Sprintf(`{
		"conf": {
			"token": {
				"metadata": {"schema": 1},
				"usdc": {"mint": %q, "decimals": 6},
				"usdt": {"mint": %q, "decimals": 6}
			},
			"escrow": {
				"metadata": {"schema": 1},
				"admin": %q
			}
		},
		"wallet": [
			{"address": %q, "usdc": 5000000, "usdt": 1000}
		]
	}`, usdcMint, usdtMint, admin.Address(), sender.Address())

	var opts custody.Options
	require.NoError(t, json.Unmarshal([]byte(genesis), &opts))
	require.NoError(t, InitFromGenesis(db, opts))

	ctrl := token.NewController()
	w, err := ctrl.Balance(db, sender.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(5_000_000), w.Balance(token.USDC))

	auth := &custodytest.CtxAuth{Key: "auth"}
	stack := Stack(auth, ctrl)

	deliver := func(msg custody.Msg, signer custody.Condition) (*custody.DeliverResult, error) {
		ctx := auth.SetConditions(context.Background(), signer)
		return stack.Deliver(ctx, db, &custodytest.Tx{Msg: msg})
	}

	res, err := deliver(&escrow.CreateEscrowMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Sender:   sender.Address(),
		Receiver: receiver.Address(),
	}, sender)
	require.NoError(t, err)
	escrowID := custody.Address(res.Data)

	_, err = deliver(&escrow.DepositMsg{
		Metadata:      &custody.Metadata{Schema: 1},
		EscrowID:      escrowID,
		Depositor:     sender.Address(),
		Counterparty:  receiver.Address(),
		Mint:          usdcMint,
		Decimals:      6,
		Amount:        2_000_000,
		Authorization: escrow.AuthorizedByBoth,
	}, sender)
	require.NoError(t, err)

	_, err = deliver(&escrow.ReleaseMsg{
		Metadata:       &custody.Metadata{Schema: 1},
		EscrowID:       escrowID,
		DepositIndex:   0,
		ReceivingParty: receiver.Address(),
	}, receiver)
	require.NoError(t, err)

	w, err = ctrl.Balance(db, receiver.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(2_000_000), w.Balance(token.USDC))
	w, err = ctrl.Balance(db, sender.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000_000), w.Balance(token.USDC))
}

func TestQueryRouterExposesState(t *testing.T) {
	qr := QueryRouter()
	for _, path := range []string{"/wallets", "/escrows", "/deposits", "/escrows/sender", "/escrows/receiver", "/deposits/escrow"} {
		if qr.Handler(path) == nil {
			t.Errorf("no handler for %q", path)
		}
	}
}

func TestDeliverRollsBackOnFailure(t *testing.T) {
	db := store.MemStore()
	auth := &custodytest.CtxAuth{Key: "auth"}
	stack := Stack(auth, token.NewController())

	sender := custodytest.NewCondition()
	ctx := auth.SetConditions(context.Background(), sender)

	// Without a genesis, delivering a create stores the escrow and
	// then fails on the missing factory configuration. The savepoint
	// must discard the partial write.
	_, err := stack.Deliver(ctx, db, &custodytest.Tx{Msg: &escrow.CreateEscrowMsg{
		Metadata: &custody.Metadata{Schema: 1},
		Sender:   sender.Address(),
		Receiver: custodytest.NewKey(),
	}})
	require.Error(t, err)

	it := db.Iterator(nil, nil)
	defer it.Close()
	if it.Valid() {
		t.Fatalf("unexpected state: %q", it.Key())
	}
}
