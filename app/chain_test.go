package app

import (
	"context"
	"testing"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/custodytest"
	"github.com/senda-one/custody/custodytest/assert"
)

// taggingDecorator appends its tag to the result log on the way out.
type taggingDecorator struct {
	tag string
}

var _ custody.Decorator = (*taggingDecorator)(nil)

func (d *taggingDecorator) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	res, err := next.Check(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	res.Log += d.tag
	return res, nil
}

func (d *taggingDecorator) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	res, err := next.Deliver(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	res.Log += d.tag
	return res, nil
}

func TestChainDecoratorsOrder(t *testing.T) {
	h := &countingHandler{}
	stack := ChainDecorators(
		&taggingDecorator{tag: "a"},
		&taggingDecorator{tag: "b"},
	).WithHandler(h)

	tx := &custodytest.Tx{Msg: &pathMsg{path: "any/path"}}
	res, err := stack.Deliver(context.Background(), nil, tx)
	assert.Nil(t, err)
	assert.Equal(t, 1, h.delivers)
	// The innermost decorator writes first.
	assert.Equal(t, "ba", res.Log)

	cres, err := stack.Check(context.Background(), nil, tx)
	assert.Nil(t, err)
	assert.Equal(t, "ba", cres.Log)
}

func TestChainExtension(t *testing.T) {
	h := &countingHandler{}
	stack := ChainDecorators(&taggingDecorator{tag: "a"}).
		Chain(&taggingDecorator{tag: "b"}).
		WithHandler(h)

	tx := &custodytest.Tx{Msg: &pathMsg{path: "any/path"}}
	res, err := stack.Deliver(context.Background(), nil, tx)
	assert.Nil(t, err)
	assert.Equal(t, "ba", res.Log)
}
