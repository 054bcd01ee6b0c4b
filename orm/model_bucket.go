package orm

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/gogo/protobuf/proto"

	custody "github.com/senda-one/custody"
	"github.com/senda-one/custody/errors"
)

var isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString

// Model is implemented by any entity that can be stored using a
// ModelBucket. It is a protobuf message with a sanity check.
type Model interface {
	proto.Message

	// Validate returns an error if the model is not in a valid state
	// to save to the db (eg. field missing, out of range, ...)
	Validate() error
}

// Indexer calculates the secondary index key for a given model. Return
// a nil index and no error to declare that the model is not indexed.
type Indexer func(key []byte, m Model) ([]byte, error)

// ModelBucket is implemented by buckets that operate on Models rather
// than raw bytes.
type ModelBucket interface {
	// One queries the database for a single model instance. Lookup is
	// done by the primary index key. Result is loaded into given
	// destination model.
	// This method returns ErrNotFound if the entity does not exist in
	// the database.
	One(db custody.ReadOnlyKVStore, key []byte, dest Model) error

	// Has returns true if an entity with given primary key exists.
	Has(db custody.ReadOnlyKVStore, key []byte) bool

	// Put saves given model in the database under given key.
	Put(db custody.KVStore, key []byte, m Model) error

	// Delete removes an entity with given primary key from the
	// database. It returns ErrNotFound if an entity with given key
	// does not exist.
	Delete(db custody.KVStore, key []byte) error

	// IndexKeys returns the primary keys of all entities indexed
	// under given secondary index value.
	IndexKeys(db custody.ReadOnlyKVStore, indexName string, indexValue []byte) ([][]byte, error)

	// Register registers this bucket and all its indexes under given
	// name in the query router.
	Register(name string, qr custody.QueryRouter)
}

// NewModelBucket returns a ModelBucket instance implemented directly
// over a prefixed subspace of a KVStore. The model is used as a
// prototype to determine the type of all stored entities.
func NewModelBucket(name string, model Model, opts ...ModelBucketOption) ModelBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	b := &modelBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
		model:  reflect.TypeOf(model).Elem(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// ModelBucketOption is implemented by any function that can configure
// ModelBucket during creation.
type ModelBucketOption func(mb *modelBucket)

// WithIndex configures a bucket to maintain a secondary index.
func WithIndex(name string, indexer Indexer) ModelBucketOption {
	return func(mb *modelBucket) {
		for _, idx := range mb.indexes {
			if idx.name == name {
				panic(fmt.Sprintf("duplicate index: %s", name))
			}
		}
		mb.indexes = append(mb.indexes, index{
			name:    name,
			prefix:  []byte("_i." + mb.name + "_" + name + ":"),
			indexer: indexer,
		})
	}
}

type index struct {
	name    string
	prefix  []byte
	indexer Indexer
}

// dbKey is the full key of an index entry: both the index value and
// the primary key, so that many entities can share an index value.
func (i index) dbKey(indexValue, primary []byte) []byte {
	out := make([]byte, 0, len(i.prefix)+len(indexValue)+1+len(primary))
	out = append(out, i.prefix...)
	out = append(out, indexValue...)
	out = append(out, ':')
	return append(out, primary...)
}

type modelBucket struct {
	name    string
	prefix  []byte
	model   reflect.Type
	indexes []index
}

var _ ModelBucket = (*modelBucket)(nil)

// DBKey is the full key we store in the db, including prefix
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (mb *modelBucket) DBKey(key []byte) []byte {
	l := len(mb.prefix)
	out := make([]byte, l+len(key))
	copy(out, mb.prefix)
	copy(out[l:], key)
	return out
}

func (mb *modelBucket) One(db custody.ReadOnlyKVStore, key []byte, dest Model) error {
	if reflect.TypeOf(dest).Elem() != mb.model {
		return errors.Wrapf(errors.ErrType, "%T cannot be stored in %q bucket", dest, mb.name)
	}
	raw := db.Get(mb.DBKey(key))
	if raw == nil {
		return errors.Wrapf(errors.ErrNotFound, "%T not in the store", dest)
	}
	if err := proto.Unmarshal(raw, dest); err != nil {
		return errors.Wrapf(errors.ErrDatabase, "cannot unmarshal %T: %s", dest, err)
	}
	return nil
}

func (mb *modelBucket) Has(db custody.ReadOnlyKVStore, key []byte) bool {
	return db.Has(mb.DBKey(key))
}

func (mb *modelBucket) Put(db custody.KVStore, key []byte, m Model) error {
	if len(key) == 0 {
		return errors.Wrap(errors.ErrEmpty, "missing key")
	}
	if reflect.TypeOf(m).Elem() != mb.model {
		return errors.Wrapf(errors.ErrType, "%T cannot be stored in %q bucket", m, mb.name)
	}
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "invalid model")
	}
	raw, err := proto.Marshal(m)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "cannot marshal %T: %s", m, err)
	}
	if err := mb.updateIndexes(db, key, m); err != nil {
		return err
	}
	db.Set(mb.DBKey(key), raw)
	return nil
}

func (mb *modelBucket) Delete(db custody.KVStore, key []byte) error {
	if !mb.Has(db, key) {
		return errors.Wrap(errors.ErrNotFound, "no entity under this key")
	}
	if err := mb.updateIndexes(db, key, nil); err != nil {
		return err
	}
	db.Delete(mb.DBKey(key))
	return nil
}

func (mb *modelBucket) IndexKeys(db custody.ReadOnlyKVStore, indexName string, indexValue []byte) ([][]byte, error) {
	idx, err := mb.index(indexName)
	if err != nil {
		return nil, err
	}
	var keys [][]byte
	prefix := append(append([]byte{}, idx.prefix...), indexValue...)
	prefix = append(prefix, ':')
	it := db.Iterator(prefix, prefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		keys = append(keys, append([]byte{}, it.Value()...))
	}
	return keys, nil
}

func (mb *modelBucket) index(name string) (index, error) {
	for _, idx := range mb.indexes {
		if idx.name == name {
			return idx, nil
		}
	}
	return index{}, errors.Wrapf(errors.ErrDatabase, "no %q index on %q bucket", name, mb.name)
}

// updateIndexes keeps all secondary indexes in sync with the primary
// data. A nil next model means the entity is being deleted.
func (mb *modelBucket) updateIndexes(db custody.KVStore, key []byte, next Model) error {
	if len(mb.indexes) == 0 {
		return nil
	}

	var prev Model
	if raw := db.Get(mb.DBKey(key)); raw != nil {
		prev = reflect.New(mb.model).Interface().(Model)
		if err := proto.Unmarshal(raw, prev); err != nil {
			return errors.Wrapf(errors.ErrDatabase, "cannot unmarshal previous %q entity: %s", mb.name, err)
		}
	}

	for _, idx := range mb.indexes {
		if prev != nil {
			val, err := idx.indexer(key, prev)
			if err != nil {
				return errors.Wrapf(err, "%q index of previous entity", idx.name)
			}
			if val != nil {
				db.Delete(idx.dbKey(val, key))
			}
		}
		if next != nil {
			val, err := idx.indexer(key, next)
			if err != nil {
				return errors.Wrapf(err, "%q index", idx.name)
			}
			if val != nil {
				db.Set(idx.dbKey(val, key), key)
			}
		}
	}
	return nil
}

// Register implements the QueryHandler registration for this bucket
// and all of its secondary indexes.
func (mb *modelBucket) Register(name string, qr custody.QueryRouter) {
	if name == "" {
		name = mb.name
	}
	root := "/" + name
	qr.Register(root, bucketQuery{mb})
	for _, idx := range mb.indexes {
		qr.Register(root+"/"+idx.name, indexQuery{mb, idx})
	}
}

type bucketQuery struct {
	mb *modelBucket
}

func (q bucketQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	switch mod {
	case custody.KeyQueryMod:
		key := q.mb.DBKey(data)
		value := db.Get(key)
		// return nothing on miss
		if value == nil {
			return nil, nil
		}
		return []custody.Model{{Key: key, Value: value}}, nil
	case custody.PrefixQueryMod:
		prefix := q.mb.DBKey(data)
		return queryPrefix(db, prefix), nil
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod: %q", mod)
	}
}

type indexQuery struct {
	mb  *modelBucket
	idx index
}

func (q indexQuery) Query(db custody.ReadOnlyKVStore, mod string, data []byte) ([]custody.Model, error) {
	if mod != custody.KeyQueryMod {
		return nil, errors.Wrapf(errors.ErrInput, "unknown query mod: %q", mod)
	}
	keys, err := q.mb.IndexKeys(db, q.idx.name, data)
	if err != nil {
		return nil, err
	}
	var res []custody.Model
	for _, key := range keys {
		dbkey := q.mb.DBKey(key)
		if value := db.Get(dbkey); value != nil {
			res = append(res, custody.Model{Key: dbkey, Value: value})
		}
	}
	return res, nil
}

// queryPrefix returns all key/value pairs from the db with given key
// prefix.
func queryPrefix(db custody.ReadOnlyKVStore, prefix []byte) []custody.Model {
	var res []custody.Model
	it := db.Iterator(prefix, prefixEnd(prefix))
	defer it.Close()
	for ; it.Valid(); it.Next() {
		res = append(res, custody.Model{
			Key:   append([]byte{}, it.Key()...),
			Value: append([]byte{}, it.Value()...),
		})
	}
	return res
}

// prefixEnd returns the lowest key that is above all keys with given
// prefix. A nil result means iterate until the end of the keyspace.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
