package utils

import (
	"context"
	"testing"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/custodytest"
	"github.com/senda-one/custody/custodytest/assert"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/store"
)

// writingHandler writes one key and optionally fails afterwards.
type writingHandler struct {
	key   []byte
	value []byte
	err   error
}

var _ custody.Handler = (*writingHandler)(nil)

func (h *writingHandler) Check(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.CheckResult, error) {
	db.Set(h.key, h.value)
	return &custody.CheckResult{}, h.err
}

func (h *writingHandler) Deliver(ctx custody.Context, db custody.KVStore, tx custody.Tx) (*custody.DeliverResult, error) {
	db.Set(h.key, h.value)
	return &custody.DeliverResult{}, h.err
}

func TestSavepointCommitsOnSuccess(t *testing.T) {
	db := store.MemStore()
	h := &writingHandler{key: []byte("k"), value: []byte("v")}
	sp := NewSavepoint().OnDeliver()

	_, err := sp.Deliver(context.Background(), db, &custodytest.Tx{}, h)
	assert.Nil(t, err)
	assert.Equal(t, []byte("v"), db.Get([]byte("k")))
}

func TestSavepointRollsBackOnError(t *testing.T) {
	db := store.MemStore()
	h := &writingHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrState.New("broken")}
	sp := NewSavepoint().OnDeliver().OnCheck()

	_, err := sp.Deliver(context.Background(), db, &custodytest.Tx{}, h)
	assert.IsErr(t, errors.ErrState, err)
	assert.Nil(t, db.Get([]byte("k")))

	_, err = sp.Check(context.Background(), db, &custodytest.Tx{}, h)
	assert.IsErr(t, errors.ErrState, err)
	assert.Nil(t, db.Get([]byte("k")))
}

func TestSavepointInactive(t *testing.T) {
	db := store.MemStore()
	h := &writingHandler{key: []byte("k"), value: []byte("v"), err: errors.ErrState.New("broken")}
	sp := NewSavepoint() // neither OnCheck nor OnDeliver

	// Without an active savepoint the write survives the error.
	_, err := sp.Deliver(context.Background(), db, &custodytest.Tx{}, h)
	assert.IsErr(t, errors.ErrState, err)
	assert.Equal(t, []byte("v"), db.Get([]byte("k")))
}
