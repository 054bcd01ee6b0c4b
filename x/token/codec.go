package token

import (
	"fmt"

	"github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
)

// Stable enumerates the supported stable assets.
type Stable int32

const (
	USDC Stable = 0
	USDT Stable = 1
)

var stableName = map[Stable]string{
	USDC: "USDC",
	USDT: "USDT",
}

func (s Stable) String() string {
	if n, ok := stableName[s]; ok {
		return n
	}
	return fmt.Sprintf("Stable(%d)", int32(s))
}

// Validate returns an error unless s is a known asset.
func (s Stable) Validate() error {
	if _, ok := stableName[s]; !ok {
		return errors.Wrapf(errors.ErrType, "unknown stable asset %d", int32(s))
	}
	return nil
}

// Amount is a quantity of a single stable asset, expressed in the
// smallest unit of that asset.
type Amount struct {
	Stable Stable
	Value  uint64
}

// Validate ensures the amount references a known asset and is positive.
func (a Amount) Validate() error {
	if err := a.Stable.Validate(); err != nil {
		return err
	}
	if a.Value == 0 {
		return errors.Wrap(errors.ErrAmount, "zero amount")
	}
	return nil
}

func (a Amount) String() string {
	return fmt.Sprintf("%d %s", a.Value, a.Stable)
}

// Wallet holds the stable asset balances of a single account. The
// account address is the bucket key and is not repeated in the value.
//
// A wallet bound to an owner can only be debited by a caller holding
// the condition that hashes to the owner address. Unbound wallets are
// debited on behalf of the account itself.
type Wallet struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Usdc     uint64            `protobuf:"varint,2,opt,name=usdc,proto3" json:"usdc,omitempty"`
	Usdt     uint64            `protobuf:"varint,3,opt,name=usdt,proto3" json:"usdt,omitempty"`
	Owner    custody.Address   `protobuf:"bytes,4,opt,name=owner,proto3,casttype=github.com/senda-one/custody.Address" json:"owner,omitempty"`
}

func (*Wallet) Reset()        {}
func (*Wallet) ProtoMessage() {}
func (w *Wallet) String() string {
	return fmt.Sprintf("wallet usdc=%d usdt=%d", w.GetUsdc(), w.GetUsdt())
}

func (w *Wallet) GetUsdc() uint64 {
	if w == nil {
		return 0
	}
	return w.Usdc
}

func (w *Wallet) GetUsdt() uint64 {
	if w == nil {
		return 0
	}
	return w.Usdt
}

func (w *Wallet) GetOwner() custody.Address {
	if w == nil {
		return nil
	}
	return w.Owner
}

// Balance returns the held quantity of the given asset. A nil wallet
// has a zero balance for every asset.
func (w *Wallet) Balance(s Stable) uint64 {
	switch s {
	case USDC:
		return w.GetUsdc()
	default:
		return w.GetUsdt()
	}
}

func (w *Wallet) setBalance(s Stable, value uint64) {
	switch s {
	case USDC:
		w.Usdc = value
	default:
		w.Usdt = value
	}
}

// Validate ensures the wallet is well formed.
func (w *Wallet) Validate() error {
	if err := w.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if len(w.Owner) != 0 {
		if err := w.Owner.Validate(); err != nil {
			return errors.Wrap(err, "owner")
		}
	}
	return nil
}

// TokenInfo describes a single stable asset: the canonical mint
// identity, an optional alternate identity accepted as the same
// asset, and the decimal precision of the smallest unit.
type TokenInfo struct {
	Mint     custody.Address `protobuf:"bytes,1,opt,name=mint,proto3,casttype=github.com/senda-one/custody.Address" json:"mint,omitempty"`
	AltMint  custody.Address `protobuf:"bytes,2,opt,name=alt_mint,json=altMint,proto3,casttype=github.com/senda-one/custody.Address" json:"alt_mint,omitempty"`
	Decimals uint32          `protobuf:"varint,3,opt,name=decimals,proto3" json:"decimals,omitempty"`
}

func (*TokenInfo) Reset()        {}
func (*TokenInfo) ProtoMessage() {}
func (t *TokenInfo) String() string {
	return fmt.Sprintf("token mint=%s decimals=%d", t.Mint, t.Decimals)
}

// Matches returns true if the given mint address identifies this
// asset, either by its canonical or its alternate identity.
func (t *TokenInfo) Matches(mint custody.Address) bool {
	if t == nil {
		return false
	}
	return t.Mint.Equals(mint) || (len(t.AltMint) != 0 && t.AltMint.Equals(mint))
}

// Validate ensures the token information is complete.
func (t *TokenInfo) Validate() error {
	if t == nil {
		return errors.Wrap(errors.ErrEmpty, "token info")
	}
	if err := t.Mint.Validate(); err != nil {
		return errors.Wrap(err, "mint")
	}
	if len(t.AltMint) != 0 {
		if err := t.AltMint.Validate(); err != nil {
			return errors.Wrap(err, "alt mint")
		}
	}
	return nil
}

// Configuration declares the accepted stable assets. It must be
// provided in the genesis and is immutable afterwards.
type Configuration struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Usdc     *TokenInfo        `protobuf:"bytes,2,opt,name=usdc,proto3" json:"usdc,omitempty"`
	Usdt     *TokenInfo        `protobuf:"bytes,3,opt,name=usdt,proto3" json:"usdt,omitempty"`
}

func (*Configuration) Reset()        {}
func (*Configuration) ProtoMessage() {}
func (c *Configuration) String() string {
	return fmt.Sprintf("token configuration usdc=%s usdt=%s", c.Usdc, c.Usdt)
}

// Info returns the token description of the given asset.
func (c *Configuration) Info(s Stable) *TokenInfo {
	switch s {
	case USDC:
		return c.Usdc
	default:
		return c.Usdt
	}
}

// ResolveMint maps a mint address to the stable asset it identifies.
func (c *Configuration) ResolveMint(mint custody.Address) (Stable, error) {
	switch {
	case c.Usdc.Matches(mint):
		return USDC, nil
	case c.Usdt.Matches(mint):
		return USDT, nil
	default:
		return 0, errors.Wrapf(ErrInvalidMint, "mint %s", mint)
	}
}

// Validate ensures both assets are fully described.
func (c *Configuration) Validate() error {
	if err := c.Metadata.Validate(); err != nil {
		return errors.Wrap(err, "metadata")
	}
	if err := c.Usdc.Validate(); err != nil {
		return errors.Wrap(err, "usdc")
	}
	if err := c.Usdt.Validate(); err != nil {
		return errors.Wrap(err, "usdt")
	}
	return nil
}
