package gconf

import (
	"github.com/gogo/protobuf/proto"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
)

// Configuration is implemented by any configuration singleton. It is a
// protobuf message that can verify its own content.
type Configuration interface {
	proto.Message
	Validate() error
}

// Save validates the object before writing it to a special
// "configuration" singleton for that package name.
func Save(db custody.KVStore, pkg string, src Configuration) error {
	key := []byte("_c:" + pkg)
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "validation: key %q", key)
	}
	raw, err := proto.Marshal(src)
	if err != nil {
		return errors.Wrapf(err, "marshal: key %q", key)
	}
	db.Set(key, raw)
	return nil
}

// Load copies the configuration stored for a given package into dst.
func Load(db custody.ReadOnlyKVStore, pkg string, dst Configuration) error {
	key := []byte("_c:" + pkg)
	raw := db.Get(key)
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "key %q", key)
	}
	if err := proto.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "unmarshal: key %q", key)
	}
	return nil
}

// InitConfig will take opts["conf"][pkg], parse it into the given
// Configuration object, validate it, and store under the proper key in
// the database.
// Returns an error if anything goes wrong.
func InitConfig(db custody.KVStore, opts custody.Options, pkg string, conf Configuration) error {
	var confOptions custody.Options
	if err := opts.ReadOptions("conf", &confOptions); err != nil {
		return errors.Wrap(err, "read conf")
	}
	if confOptions[pkg] == nil {
		return errors.Wrapf(errors.ErrNotFound, "no configuration in genesis for %q package", pkg)
	}
	if err := confOptions.ReadOptions(pkg, conf); err != nil {
		return errors.Wrapf(err, "read configuration for %s", pkg)
	}
	if err := Save(db, pkg, conf); err != nil {
		return errors.Wrapf(err, "save configuration for %s", pkg)
	}
	return nil
}
