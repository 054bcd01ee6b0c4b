package escrow

import (
	"fmt"

	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/x/token"
)

// EscrowState is the lifecycle state of an escrow.
type EscrowState int32

const (
	EscrowActive EscrowState = 0
	EscrowClosed EscrowState = 1
)

func (s EscrowState) String() string {
	switch s {
	case EscrowActive:
		return "active"
	case EscrowClosed:
		return "closed"
	default:
		return fmt.Sprintf("EscrowState(%d)", int32(s))
	}
}

// DepositState is the lifecycle state of a single deposit record.
//
// A record starts pending and resolves exactly once, to complete via
// a release or to cancelled via a cancel. Disputed is reserved and
// has no transition defined.
type DepositState int32

const (
	DepositPending   DepositState = 0
	DepositComplete  DepositState = 1
	DepositDisputed  DepositState = 2
	DepositCancelled DepositState = 3
)

func (s DepositState) String() string {
	switch s {
	case DepositPending:
		return "pending"
	case DepositComplete:
		return "complete"
	case DepositDisputed:
		return "disputed"
	case DepositCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("DepositState(%d)", int32(s))
	}
}

// PolicyKind selects how a deposit release must be authorized.
type PolicyKind int32

const (
	// PolicyDual requires both the sender and the receiver. Only
	// one signature is verifiable inside the engine, the second one
	// must be collected by the transaction submission layer.
	PolicyDual PolicyKind = 0
	// PolicySingle requires exactly the named signer.
	PolicySingle PolicyKind = 1
)

// SignaturePolicy is derived once at deposit time and immutable
// afterwards.
type SignaturePolicy struct {
	Kind PolicyKind `protobuf:"varint,1,opt,name=kind,proto3,casttype=PolicyKind" json:"kind,omitempty"`
	// Signer is set only for a single-signer policy.
	Signer custody.Address `protobuf:"bytes,2,opt,name=signer,proto3,casttype=github.com/senda-one/custody.Address" json:"signer,omitempty"`
}

func (*SignaturePolicy) Reset()        {}
func (*SignaturePolicy) ProtoMessage() {}
func (p *SignaturePolicy) String() string {
	if p == nil {
		return "<nil policy>"
	}
	if p.Kind == PolicySingle {
		return fmt.Sprintf("single:%s", p.Signer)
	}
	return "dual"
}

// Validate ensures the policy is well formed.
func (p *SignaturePolicy) Validate() error {
	if p == nil {
		return errors.Wrap(errors.ErrEmpty, "policy")
	}
	switch p.Kind {
	case PolicyDual:
		if len(p.Signer) != 0 {
			return errors.Wrap(errors.ErrMsg, "dual policy names a signer")
		}
	case PolicySingle:
		if err := p.Signer.Validate(); err != nil {
			return errors.Wrap(err, "signer")
		}
	default:
		return errors.Wrapf(errors.ErrType, "unknown policy kind %d", int32(p.Kind))
	}
	return nil
}

// AuthorizedBy selects which party must authorize the release of a
// deposit. It is supplied by the depositor and mapped to a signature
// policy against the escrow's current parties.
type AuthorizedBy int32

const (
	AuthorizedBySender   AuthorizedBy = 0
	AuthorizedByReceiver AuthorizedBy = 1
	AuthorizedByBoth     AuthorizedBy = 2
)

// Validate returns an error unless the selector is a known value.
func (a AuthorizedBy) Validate() error {
	switch a {
	case AuthorizedBySender, AuthorizedByReceiver, AuthorizedByBoth:
		return nil
	default:
		return errors.Wrapf(errors.ErrType, "unknown authorization selector %d", int32(a))
	}
}

// Policy maps the selector to a signature policy for the given escrow
// parties.
func (a AuthorizedBy) Policy(sender, receiver custody.Address) (*SignaturePolicy, error) {
	switch a {
	case AuthorizedBySender:
		return &SignaturePolicy{Kind: PolicySingle, Signer: sender.Clone()}, nil
	case AuthorizedByReceiver:
		return &SignaturePolicy{Kind: PolicySingle, Signer: receiver.Clone()}, nil
	case AuthorizedByBoth:
		return &SignaturePolicy{Kind: PolicyDual}, nil
	default:
		return nil, errors.Wrapf(errors.ErrType, "unknown authorization selector %d", int32(a))
	}
}

// Escrow is the custody relationship between a sender and a receiver.
// It owns one vault per supported asset and aggregates deposit
// bookkeeping.
type Escrow struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Sender   custody.Address   `protobuf:"bytes,2,opt,name=sender,proto3,casttype=github.com/senda-one/custody.Address" json:"sender,omitempty"`
	Receiver custody.Address   `protobuf:"bytes,3,opt,name=receiver,proto3,casttype=github.com/senda-one/custody.Address" json:"receiver,omitempty"`
	// Authority is an optional third principal empowered to co-sign
	// administrative operations. It must differ from the sender.
	Authority custody.Address `protobuf:"bytes,4,opt,name=authority,proto3,casttype=github.com/senda-one/custody.Address" json:"authority,omitempty"`
	// Seed is the caller chosen value supplied at creation.
	Seed uint64 `protobuf:"varint,5,opt,name=seed,proto3" json:"seed,omitempty"`
	// DepositedUsdc and DepositedUsdt each equal the sum of the
	// amounts of this escrow's pending deposit records for that
	// asset.
	DepositedUsdc uint64      `protobuf:"varint,6,opt,name=deposited_usdc,json=depositedUsdc,proto3" json:"deposited_usdc,omitempty"`
	DepositedUsdt uint64      `protobuf:"varint,7,opt,name=deposited_usdt,json=depositedUsdt,proto3" json:"deposited_usdt,omitempty"`
	DepositCount  uint64      `protobuf:"varint,8,opt,name=deposit_count,json=depositCount,proto3" json:"deposit_count,omitempty"`
	State         EscrowState `protobuf:"varint,9,opt,name=state,proto3,casttype=EscrowState" json:"state,omitempty"`
}

func (*Escrow) Reset()        {}
func (*Escrow) ProtoMessage() {}
func (e *Escrow) String() string {
	return fmt.Sprintf("escrow %s->%s %s", e.Sender, e.Receiver, e.State)
}

// Deposited returns the aggregate pending total for the given asset.
func (e *Escrow) Deposited(s token.Stable) uint64 {
	switch s {
	case token.USDC:
		return e.DepositedUsdc
	default:
		return e.DepositedUsdt
	}
}

func (e *Escrow) setDeposited(s token.Stable, value uint64) {
	switch s {
	case token.USDC:
		e.DepositedUsdc = value
	default:
		e.DepositedUsdt = value
	}
}

// Party returns true if the given address is the escrow's sender or
// receiver.
func (e *Escrow) Party(a custody.Address) bool {
	return e.Sender.Equals(a) || e.Receiver.Equals(a)
}

// Other returns the opposite party relative to the given one.
func (e *Escrow) Other(a custody.Address) custody.Address {
	if e.Sender.Equals(a) {
		return e.Receiver
	}
	return e.Sender
}

// Validate ensures the escrow is well formed.
func (e *Escrow) Validate() error {
	if err := e.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := e.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := e.Receiver.Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if e.Sender.Equals(e.Receiver) {
		return errors.Wrap(ErrInvalidParties, "sender equals receiver")
	}
	if len(e.Authority) != 0 {
		if err := e.Authority.Validate(); err != nil {
			return errors.Wrap(err, "authority")
		}
		if e.Authority.Equals(e.Sender) {
			return errors.Wrap(ErrInvalidAuthority, "authority equals sender")
		}
	}
	switch e.State {
	case EscrowActive, EscrowClosed:
	default:
		return errors.Wrapf(errors.ErrState, "unknown state %d", int32(e.State))
	}
	return nil
}

// DepositRecord tracks a single deposit. It is the unit of
// authorization and accounting and resolves exactly once.
type DepositRecord struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	// Escrow is the address of the owning escrow.
	Escrow custody.Address `protobuf:"bytes,2,opt,name=escrow,proto3,casttype=github.com/senda-one/custody.Address" json:"escrow,omitempty"`
	// Index is the position in deposit order, unique per escrow.
	Index     uint64          `protobuf:"varint,3,opt,name=index,proto3" json:"index,omitempty"`
	Depositor custody.Address `protobuf:"bytes,4,opt,name=depositor,proto3,casttype=github.com/senda-one/custody.Address" json:"depositor,omitempty"`
	Amount    uint64          `protobuf:"varint,5,opt,name=amount,proto3" json:"amount,omitempty"`
	Stable    token.Stable    `protobuf:"varint,6,opt,name=stable,proto3,casttype=github.com/senda-one/custody/x/token.Stable" json:"stable,omitempty"`
	Policy    *SignaturePolicy `protobuf:"bytes,7,opt,name=policy,proto3" json:"policy,omitempty"`
	State     DepositState    `protobuf:"varint,8,opt,name=state,proto3,casttype=DepositState" json:"state,omitempty"`
}

func (*DepositRecord) Reset()        {}
func (*DepositRecord) ProtoMessage() {}
func (d *DepositRecord) String() string {
	return fmt.Sprintf("deposit #%d %d %s %s", d.Index, d.Amount, d.Stable, d.State)
}

// Validate ensures the deposit record is well formed.
func (d *DepositRecord) Validate() error {
	if err := d.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := d.Escrow.Validate(); err != nil {
		return errors.Wrap(err, "escrow")
	}
	if err := d.Depositor.Validate(); err != nil {
		return errors.Wrap(err, "depositor")
	}
	if d.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	if err := d.Stable.Validate(); err != nil {
		return errors.Wrap(err, "stable")
	}
	if err := d.Policy.Validate(); err != nil {
		return errors.Wrap(err, "policy")
	}
	switch d.State {
	case DepositPending, DepositComplete, DepositDisputed, DepositCancelled:
	default:
		return errors.Wrapf(errors.ErrState, "unknown state %d", int32(d.State))
	}
	return nil
}

// Configuration holds the factory settings: the administrative
// identity and the count of escrows created so far.
type Configuration struct {
	Metadata    *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Admin       custody.Address   `protobuf:"bytes,2,opt,name=admin,proto3,casttype=github.com/senda-one/custody.Address" json:"admin,omitempty"`
	EscrowCount uint64            `protobuf:"varint,3,opt,name=escrow_count,json=escrowCount,proto3" json:"escrow_count,omitempty"`
}

func (*Configuration) Reset()        {}
func (*Configuration) ProtoMessage() {}
func (c *Configuration) String() string {
	return fmt.Sprintf("escrow configuration admin=%s count=%d", c.Admin, c.EscrowCount)
}

// Validate ensures the configuration is complete.
func (c *Configuration) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := c.Admin.Validate(); err != nil {
		return errors.Wrap(err, "admin")
	}
	return nil
}
