package store

import (
	"bytes"

	"github.com/google/btree"
)

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// memIter walks over a snapshot of btree entries, to be combined with
// the parent results.
type memIter struct {
	items   []keyer
	idx     int
	reverse bool
}

// ascendBtree captures all cache entries within [start, end) in
// ascending order.
func ascendBtree(bt *btree.BTree, start, end []byte) *memIter {
	it := &memIter{}
	insert := func(item btree.Item) bool {
		it.items = append(it.items, item.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Ascend(insert)
	case start == nil:
		bt.AscendLessThan(bkey{end}, insert)
	case end == nil:
		bt.AscendGreaterOrEqual(bkey{start}, insert)
	default:
		bt.AscendRange(bkey{start}, bkey{end}, insert)
	}
	return it
}

// descendBtree captures all cache entries within [start, end) in
// descending order.
func descendBtree(bt *btree.BTree, start, end []byte) *memIter {
	it := &memIter{reverse: true}
	insert := func(item btree.Item) bool {
		it.items = append(it.items, item.(keyer))
		return true
	}
	switch {
	case start == nil && end == nil:
		bt.Descend(insert)
	case start == nil:
		bt.DescendLessOrEqual(bkeyLess{end}, insert)
	case end == nil:
		bt.DescendGreaterThan(bkeyLess{start}, insert)
	default:
		bt.DescendRange(bkeyLess{end}, bkeyLess{start}, insert)
	}
	return it
}

func (m *memIter) wrap(parent Iterator) *itemIter {
	iter := &itemIter{
		cache:   m,
		parent:  parent,
		reverse: m.reverse,
	}
	iter.skipAllDeleted()
	return iter
}

func (m *memIter) valid() bool {
	return m.idx < len(m.items)
}

func (m *memIter) next() {
	m.idx++
}

// get requires this is valid, gets what we are pointing at
func (m *memIter) get() keyer {
	return m.items[m.idx]
}

// itemIter merges the cache snapshot with the parent iterator,
// resolving shadowed and deleted entries on the fly.
type itemIter struct {
	cache   *memIter
	parent  Iterator
	reverse bool
}

var _ Iterator = (*itemIter)(nil)

// Valid implements Iterator and returns true iff it can be read
func (i *itemIter) Valid() bool {
	return i.cache.valid() || i.parentValid()
}

// Next moves the iterator to the next sequential key in the database, as
// defined by order of iteration.
//
// If Valid returns false, this method will panic.
func (i *itemIter) Next() {
	// advance either us, parent, or both
	switch i.firstKey() {
	case us:
		i.cache.next()
	case both:
		i.cache.next()
		fallthrough
	case parent:
		i.parent.Next()
	default:
		panic("Advanced past the end!")
	}

	// keep advancing over all deleted entries
	i.skipAllDeleted()
}

// Key returns the key of the cursor.
func (i *itemIter) Key() (key []byte) {
	switch i.firstKey() {
	case us, both:
		return i.cache.get().Key()
	case parent:
		return i.parent.Key()
	default: // none
		panic("Advanced past the end!")
	}
}

// Value returns the value of the cursor.
func (i *itemIter) Value() (value []byte) {
	switch i.firstKey() {
	case us, both:
		return i.cache.get().(setItem).value
	case parent:
		return i.parent.Value()
	default: // none
		panic("Advanced past the end!")
	}
}

// Close releases the Iterator.
func (i *itemIter) Close() {
	if i.parent != nil {
		i.parent.Close()
	}
	i.cache.idx = len(i.cache.items)
}

// skipAllDeleted loops and skips any number of deleted items
func (i *itemIter) skipAllDeleted() {
	for i.skipDeleted() {
	}
}

// skipDeleted jumps over all elements we can safely fast forward
// return true if skipped, so we can skip again
func (i *itemIter) skipDeleted() bool {
	src := i.firstKey()
	if src == us || src == both {
		// if our next is deleted, advance...
		if _, ok := i.cache.get().(deletedItem); ok {
			i.cache.next()
			// if parent had the same key, advance parent as well
			if src == both {
				i.parent.Next()
			}
			return true
		}
	}
	return false
}

// firstKey selects the iterator holding the next key in iteration
// order: the lowest when ascending, the highest when descending.
func (i *itemIter) firstKey() source {
	// if only one or none is valid, it is clear which to use
	if !i.parentValid() {
		if !i.cache.valid() {
			return none
		}
		return us
	} else if !i.cache.valid() {
		return parent
	}

	cmp := bytes.Compare(i.parent.Key(), i.cache.get().Key())
	if i.reverse {
		cmp = -cmp
	}
	switch {
	case cmp < 0:
		return parent
	case cmp > 0:
		return us
	default:
		return both
	}
}

// makes sure the parent is non-nil before checking if it is valid
func (i *itemIter) parentValid() bool {
	return (i.parent != nil) && i.parent.Valid()
}
