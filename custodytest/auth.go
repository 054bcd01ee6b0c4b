package custodytest

import (
	"context"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/x"
)

// Auth is a mock authenticator implementation. Declare which
// conditions are considered signers of the transaction.
type Auth struct {
	// Signer is condition of the main signer.
	Signer custody.Condition
	// Signers is a set of conditions of all signers. If Signer is
	// set it is merged into the result.
	Signers []custody.Condition
}

var _ x.Authenticator = (*Auth)(nil)

// GetConditions returns all signing conditions of this mock.
func (a *Auth) GetConditions(custody.Context) []custody.Condition {
	var conds []custody.Condition
	if a.Signer != nil {
		conds = append(conds, a.Signer)
	}
	return append(conds, a.Signers...)
}

// HasAddress returns true if any signing condition matches the
// address.
func (a *Auth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}

// CtxAuth is an authenticator that reads signing conditions from the
// context. Use SetConditions to store them.
type CtxAuth struct {
	Key string
}

var _ x.Authenticator = (*CtxAuth)(nil)

type ctxAuthKey string

// SetConditions returns a context with the given conditions attached.
func (a *CtxAuth) SetConditions(ctx custody.Context, conds ...custody.Condition) custody.Context {
	return context.WithValue(ctx, ctxAuthKey(a.Key), conds)
}

// GetConditions returns the conditions stored in the context.
func (a *CtxAuth) GetConditions(ctx custody.Context) []custody.Condition {
	conds, _ := ctx.Value(ctxAuthKey(a.Key)).([]custody.Condition)
	return conds
}

// HasAddress returns true if any stored condition matches the
// address.
func (a *CtxAuth) HasAddress(ctx custody.Context, addr custody.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}
