package utils

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/tendermint/tendermint/libs/log"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/custodytest"
	"github.com/senda-one/custody/custodytest/assert"
	"github.com/senda-one/custody/errors"
)

type staticHandler struct {
	err error
}

func (h staticHandler) Check(custody.Context, custody.KVStore, custody.Tx) (*custody.CheckResult, error) {
	return &custody.CheckResult{Log: "ok"}, h.err
}

func (h staticHandler) Deliver(custody.Context, custody.KVStore, custody.Tx) (*custody.DeliverResult, error) {
	return &custody.DeliverResult{Log: "ok"}, h.err
}

func TestLoggingPassesResultsThrough(t *testing.T) {
	l := NewLogging()
	tx := &custodytest.Tx{}

	res, err := l.Deliver(context.Background(), nil, tx, staticHandler{})
	assert.Nil(t, err)
	assert.Equal(t, "ok", res.Log)

	cres, err := l.Check(context.Background(), nil, tx, staticHandler{})
	assert.Nil(t, err)
	assert.Equal(t, "ok", cres.Log)
}

func TestLoggingPassesErrorsThrough(t *testing.T) {
	l := NewLogging()
	cause := errors.ErrState.New("broken")

	_, err := l.Deliver(context.Background(), nil, &custodytest.Tx{}, staticHandler{err: cause})
	assert.IsErr(t, errors.ErrState, err)
}

type pathedMsg struct{}

func (*pathedMsg) Reset()          {}
func (*pathedMsg) ProtoMessage()   {}
func (*pathedMsg) String() string  { return "pathed" }
func (*pathedMsg) Validate() error { return nil }
func (*pathedMsg) Path() string    { return "utils/pathed" }

func TestLoggingTagsMessagePath(t *testing.T) {
	var buf bytes.Buffer
	ctx := custody.WithLogger(context.Background(), log.NewTMLogger(&buf))

	l := NewLogging()
	_, err := l.Deliver(ctx, nil, &custodytest.Tx{Msg: &pathedMsg{}}, staticHandler{})
	assert.Nil(t, err)
	if !strings.Contains(buf.String(), "path=utils/pathed") {
		t.Fatalf("message path missing in log entry: %q", buf.String())
	}
}
