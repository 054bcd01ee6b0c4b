package utils

import (
	"time"

	"github.com/tendermint/tendermint/libs/log"

	custody "github.com/senda-one/custody"
)

// Logging is a decorator writing one log entry per transaction,
// tagged with the resolved message path and the processing time.
type Logging struct{}

var _ custody.Decorator = Logging{}

// NewLogging creates a Logging decorator
func NewLogging() Logging {
	return Logging{}
}

// Check logs error -> error, success -> debug
func (r Logging) Check(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Checker) (*custody.CheckResult, error) {
	start := time.Now()
	res, err := next.Check(ctx, store, tx)
	logger := txLogger(ctx, tx, start)
	if err != nil {
		logger.With("err", err).Error("check failed")
		return res, err
	}
	logger.With("gas", res.GasAllocated).Debug(res.Log)
	return res, err
}

// Deliver logs error -> error, success -> info
func (r Logging) Deliver(ctx custody.Context, store custody.KVStore, tx custody.Tx, next custody.Deliverer) (*custody.DeliverResult, error) {
	start := time.Now()
	res, err := next.Deliver(ctx, store, tx)
	logger := txLogger(ctx, tx, start)
	if err != nil {
		logger.With("err", err).Error("delivery failed")
		return res, err
	}
	logger.Info(res.Log)
	return res, err
}

// txLogger annotates the context logger with the message path, so a
// log entry can be attributed to a handler without decoding the
// transaction again.
func txLogger(ctx custody.Context, tx custody.Tx, start time.Time) log.Logger {
	logger := custody.GetLogger(ctx).With("duration", time.Since(start)/time.Microsecond)
	if msg, err := tx.GetMsg(); err == nil && msg != nil {
		return logger.With("path", msg.Path())
	}
	return logger
}
