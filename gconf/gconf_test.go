package gconf

import (
	"encoding/json"
	"fmt"
	"testing"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
	"github.com/senda-one/custody/store"
)

// settings is a minimal configuration implementation for the tests.
type settings struct {
	Metadata *custody.Metadata `protobuf:"bytes,1,opt,name=metadata,proto3" json:"metadata,omitempty"`
	Name     string            `protobuf:"bytes,2,opt,name=name,proto3" json:"name,omitempty"`
}

var _ Configuration = (*settings)(nil)

func (*settings) Reset()           {}
func (*settings) ProtoMessage()    {}
func (s *settings) String() string { return fmt.Sprintf("settings %q", s.Name) }

func (s *settings) Validate() error {
	if err := s.Metadata.Validate(); err != nil {
		return err
	}
	if s.Name == "" {
		return errors.Wrap(errors.ErrEmpty, "name")
	}
	return nil
}

func TestSaveLoad(t *testing.T) {
	db := store.MemStore()

	src := &settings{Metadata: &custody.Metadata{Schema: 1}, Name: "alpha"}
	if err := Save(db, "testpkg", src); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	var dst settings
	if err := Load(db, "testpkg", &dst); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if dst.Name != "alpha" {
		t.Fatalf("unexpected name: %q", dst.Name)
	}
}

func TestSaveValidates(t *testing.T) {
	db := store.MemStore()

	err := Save(db, "testpkg", &settings{Metadata: &custody.Metadata{Schema: 1}})
	if !errors.ErrEmpty.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}

	var dst settings
	if err := Load(db, "testpkg", &dst); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestLoadMissing(t *testing.T) {
	db := store.MemStore()

	var dst settings
	if err := Load(db, "ghost", &dst); !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}

func TestInitConfig(t *testing.T) {
	db := store.MemStore()
	opts := custody.Options{
		"conf": json.RawMessage(`{"testpkg": {"metadata": {"schema": 1}, "name": "beta"}}`),
	}

	var conf settings
	if err := InitConfig(db, opts, "testpkg", &conf); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}

	var loaded settings
	if err := Load(db, "testpkg", &loaded); err != nil {
		t.Fatalf("unexpected error: %+v", err)
	}
	if loaded.Name != "beta" {
		t.Fatalf("unexpected name: %q", loaded.Name)
	}
}

func TestInitConfigMissingGenesis(t *testing.T) {
	db := store.MemStore()

	var conf settings
	err := InitConfig(db, custody.Options{}, "testpkg", &conf)
	if !errors.ErrNotFound.Is(err) {
		t.Fatalf("unexpected error: %+v", err)
	}
}
