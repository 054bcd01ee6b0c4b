package custody

import (
	"github.com/gogo/protobuf/proto"

	"github.com/senda-one/custody/errors"
)

// Metadata is carried by every persistent entity. It holds the schema
// version the entity was written with, so that future releases can
// migrate old payloads.
type Metadata struct {
	Schema uint32 `protobuf:"varint,1,opt,name=schema,proto3" json:"schema,omitempty"`
}

var _ proto.Message = (*Metadata)(nil)

func (m *Metadata) Reset()         { *m = Metadata{} }
func (m *Metadata) String() string { return proto.CompactTextString(m) }
func (*Metadata) ProtoMessage()    {}

func (m *Metadata) GetSchema() uint32 {
	if m == nil {
		return 0
	}
	return m.Schema
}

// Validate returns an error if the metadata is empty or has an invalid
// schema version.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "no metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version missing")
	}
	return nil
}

// Copy returns an independent copy of the metadata.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	return &Metadata{Schema: m.Schema}
}
