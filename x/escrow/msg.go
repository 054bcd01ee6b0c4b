package escrow

import (
	"fmt"

	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
)

const (
	pathCreate  = "escrow/create"
	pathDeposit = "escrow/deposit"
	pathRelease = "escrow/release"
	pathCancel  = "escrow/cancel"
)

var (
	_ custody.Msg = (*CreateEscrowMsg)(nil)
	_ custody.Msg = (*DepositMsg)(nil)
	_ custody.Msg = (*ReleaseMsg)(nil)
	_ custody.Msg = (*CancelMsg)(nil)
)

// CreateEscrowMsg creates the escrow for a party pair, together with
// its zero balance vaults.
type CreateEscrowMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Sender   custody.Address   `protobuf:"bytes,2,opt,name=sender,proto3,casttype=github.com/senda-one/custody.Address" json:"sender,omitempty"`
	Receiver custody.Address   `protobuf:"bytes,3,opt,name=receiver,proto3,casttype=github.com/senda-one/custody.Address" json:"receiver,omitempty"`
	// Authority is optional and must differ from the sender.
	Authority custody.Address `protobuf:"bytes,4,opt,name=authority,proto3,casttype=github.com/senda-one/custody.Address" json:"authority,omitempty"`
	Seed      uint64          `protobuf:"varint,5,opt,name=seed,proto3" json:"seed,omitempty"`
}

func (*CreateEscrowMsg) Reset()        {}
func (*CreateEscrowMsg) ProtoMessage() {}
func (m *CreateEscrowMsg) String() string {
	return fmt.Sprintf("create escrow %s->%s", m.Sender, m.Receiver)
}

// Path returns the routing path for this message.
func (*CreateEscrowMsg) Path() string { return pathCreate }

// Validate ensures the message is well formed.
func (m *CreateEscrowMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.Sender.Validate(); err != nil {
		return errors.Wrap(err, "sender")
	}
	if err := m.Receiver.Validate(); err != nil {
		return errors.Wrap(err, "receiver")
	}
	if m.Sender.Equals(m.Receiver) {
		return errors.Wrap(ErrInvalidParties, "sender equals receiver")
	}
	if len(m.Authority) != 0 {
		if err := m.Authority.Validate(); err != nil {
			return errors.Wrap(err, "authority")
		}
		if m.Authority.Equals(m.Sender) {
			return errors.Wrap(ErrInvalidAuthority, "authority equals sender")
		}
	}
	return nil
}

// DepositMsg pays funds from a depositor into the escrow's vault for
// the given asset and creates the deposit record tracking them.
type DepositMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowID custody.Address   `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3,casttype=github.com/senda-one/custody.Address" json:"escrow_id,omitempty"`
	// Depositor must be a party of the escrow and must have signed
	// the transaction.
	Depositor custody.Address `protobuf:"bytes,3,opt,name=depositor,proto3,casttype=github.com/senda-one/custody.Address" json:"depositor,omitempty"`
	// Counterparty must be the other party of the escrow.
	Counterparty custody.Address `protobuf:"bytes,4,opt,name=counterparty,proto3,casttype=github.com/senda-one/custody.Address" json:"counterparty,omitempty"`
	// Mint identifies the asset by its canonical or alternate
	// identity.
	Mint custody.Address `protobuf:"bytes,5,opt,name=mint,proto3,casttype=github.com/senda-one/custody.Address" json:"mint,omitempty"`
	// Decimals is the precision the depositor assumes for Amount.
	Decimals uint32 `protobuf:"varint,6,opt,name=decimals,proto3" json:"decimals,omitempty"`
	Amount   uint64 `protobuf:"varint,7,opt,name=amount,proto3" json:"amount,omitempty"`
	// Authorization selects who must authorize the release.
	Authorization AuthorizedBy `protobuf:"varint,8,opt,name=authorization,proto3,casttype=AuthorizedBy" json:"authorization,omitempty"`
}

func (*DepositMsg) Reset()        {}
func (*DepositMsg) ProtoMessage() {}
func (m *DepositMsg) String() string {
	return fmt.Sprintf("deposit %d into %s", m.Amount, m.EscrowID)
}

// Path returns the routing path for this message.
func (*DepositMsg) Path() string { return pathDeposit }

// Validate ensures the message is well formed.
func (m *DepositMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.EscrowID.Validate(); err != nil {
		return errors.Wrap(err, "escrow id")
	}
	if err := m.Depositor.Validate(); err != nil {
		return errors.Wrap(err, "depositor")
	}
	if err := m.Counterparty.Validate(); err != nil {
		return errors.Wrap(err, "counterparty")
	}
	if err := m.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if m.Amount == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	if err := m.Authorization.Validate(); err != nil {
		return errors.Wrap(err, "authorization")
	}
	return nil
}

// ReleaseMsg pays a pending deposit out of the vault to one of the
// escrow parties, provided the record's signature policy is satisfied
// by the transaction signer.
type ReleaseMsg struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowID custody.Address   `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3,casttype=github.com/senda-one/custody.Address" json:"escrow_id,omitempty"`
	// DepositIndex identifies the record within the escrow.
	DepositIndex uint64 `protobuf:"varint,3,opt,name=deposit_index,json=depositIndex,proto3" json:"deposit_index,omitempty"`
	// Depositor and Counterparty, when set, declare the original
	// party roles and must map onto the escrow's parties.
	Depositor    custody.Address `protobuf:"bytes,4,opt,name=depositor,proto3,casttype=github.com/senda-one/custody.Address" json:"depositor,omitempty"`
	Counterparty custody.Address `protobuf:"bytes,5,opt,name=counterparty,proto3,casttype=github.com/senda-one/custody.Address" json:"counterparty,omitempty"`
	// ReceivingParty is the escrow party paid by the release.
	ReceivingParty custody.Address `protobuf:"bytes,6,opt,name=receiving_party,json=receivingParty,proto3,casttype=github.com/senda-one/custody.Address" json:"receiving_party,omitempty"`
}

func (*ReleaseMsg) Reset()        {}
func (*ReleaseMsg) ProtoMessage() {}
func (m *ReleaseMsg) String() string {
	return fmt.Sprintf("release deposit #%d of %s", m.DepositIndex, m.EscrowID)
}

// Path returns the routing path for this message.
func (*ReleaseMsg) Path() string { return pathRelease }

// Validate ensures the message is well formed.
func (m *ReleaseMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.EscrowID.Validate(); err != nil {
		return errors.Wrap(err, "escrow id")
	}
	if len(m.Depositor) != 0 {
		if err := m.Depositor.Validate(); err != nil {
			return errors.Wrap(err, "depositor")
		}
	}
	if len(m.Counterparty) != 0 {
		if err := m.Counterparty.Validate(); err != nil {
			return errors.Wrap(err, "counterparty")
		}
	}
	if err := m.ReceivingParty.Validate(); err != nil {
		return errors.Wrap(err, "receiving party")
	}
	return nil
}

// CancelMsg returns a pending deposit from the vault to its original
// depositor. Only the depositor may cancel.
type CancelMsg struct {
	Metadata     *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	EscrowID     custody.Address   `protobuf:"bytes,2,opt,name=escrow_id,json=escrowId,proto3,casttype=github.com/senda-one/custody.Address" json:"escrow_id,omitempty"`
	DepositIndex uint64            `protobuf:"varint,3,opt,name=deposit_index,json=depositIndex,proto3" json:"deposit_index,omitempty"`
}

func (*CancelMsg) Reset()        {}
func (*CancelMsg) ProtoMessage() {}
func (m *CancelMsg) String() string {
	return fmt.Sprintf("cancel deposit #%d of %s", m.DepositIndex, m.EscrowID)
}

// Path returns the routing path for this message.
func (*CancelMsg) Path() string { return pathCancel }

// Validate ensures the message is well formed.
func (m *CancelMsg) Validate() error {
	if err := m.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := m.EscrowID.Validate(); err != nil {
		return errors.Wrap(err, "escrow id")
	}
	return nil
}
