// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// Pool is one class pool: a node of the type hierarchy tree plus, for a
// base pool, the object storage the whole subtree shares. The base pool
// owns a single array and every sub-pool aliases a contiguous slice of
// it; Go slices express that aliasing directly, so a sub-pool's data
// field is simply base.data[bpo:bpo+len] re-sliced after every compress
// rather than a raw pointer trick (see DESIGN.md).
type Pool struct {
	name string
	tid  TypeID

	super *Pool // nil for a base pool
	base  *Pool // self for a base pool

	// next threads every pool in the hierarchy into one depth-first
	// pre-order list, the type hierarchy walk order used by both
	// parse-time merge and write-time compress.
	next *Pool

	bpo        int32 // base pool offset: this pool's first object's index into base.data
	cachedSize int32 // number of persistent objects owned by this pool itself (not its subtypes), excluding new objects

	fields     []Field      // fields with an on-disk representation (Data/Distributed/Lazy), owned by this pool
	autoFields []*AutoField // derived fields recomputed on every Get, never written

	// data is the live view into the shared persistent array. Only a base
	// pool allocates it; every other pool in the subtree holds the
	// sub-slice data[bpo : bpo+cachedSize] into the same backing array.
	data []*Object

	// newObjects holds objects created at runtime (negative IDs) that do
	// not yet have a slot in data. Only meaningful pool-locally: a
	// sub-pool's newObjects are its own, not inherited from its super.
	newObjects []*Object

	// book is non-nil only on a base pool: sub-pools allocate through
	// base.book so every object in the subtree comes from one page
	// allocator.
	book *Book

	deletedCount int32
}

// NewBasePool constructs a base pool (no super type) named name with
// type ID tid.
func NewBasePool(name string, tid TypeID) *Pool {
	p := &Pool{name: name, tid: tid, book: NewBook()}
	p.base = p
	return p
}

// NewSubPool constructs a pool whose super type is super, inheriting its
// base pool.
func NewSubPool(name string, tid TypeID, super *Pool) *Pool {
	return &Pool{name: name, tid: tid, super: super, base: super.base}
}

func (p *Pool) TypeID() TypeID { return p.tid }
func (p *Pool) Name() string   { return p.name }
func (p *Pool) Super() *Pool   { return p.super }
func (p *Pool) Base() *Pool    { return p.base }
func (p *Pool) BPO() int32     { return p.bpo }

// CachedSize returns the number of persistent (on-disk as of the last
// flush) objects owned by this pool alone, not counting subtypes.
func (p *Pool) CachedSize() int32 { return p.cachedSize }

// StaticDataInstances returns the total object count visible through this
// pool, i.e. its own persistent objects plus every not-yet-flushed new
// object.
func (p *Pool) StaticDataInstances() int32 {
	return p.cachedSize + int32(len(p.newObjects))
}

// Fields returns the data fields declared directly on this pool (not
// inherited), in file/declaration order.
func (p *Pool) Fields() []Field { return p.fields }

// AddField registers f as owned by this pool.
func (p *Pool) AddField(f Field) { p.fields = append(p.fields, f) }

// AddAutoField registers an auto field, whose value is recomputed on
// every Get.
func (p *Pool) AddAutoField(f *AutoField) { p.autoFields = append(p.autoFields, f) }

// SetNext links p to the next pool in depth-first pre-order.
func (p *Pool) SetNext(n *Pool) { p.next = n }

// Next returns the next pool in depth-first pre-order, or nil at the end
// of the hierarchy.
func (p *Pool) Next() *Pool { return p.next }

// Get returns the live object with persistent id (1-based; it sits at
// data[id-1-bpo]), or, for a negative id -n, the n-th new object.
func (p *Pool) Get(id int32) (*Object, error) {
	switch {
	case id > 0:
		idx := int(id) - 1 - int(p.bpo)
		if idx < 0 || idx >= len(p.data) {
			return nil, ErrOutOfRange
		}
		o := p.data[idx]
		if o == nil || o.Deleted() {
			return nil, ErrUseAfterFree
		}
		return o, nil
	case id < 0:
		idx := -1 - int(id)
		if idx < 0 || idx >= len(p.newObjects) {
			return nil, ErrOutOfRange
		}
		return p.newObjects[idx], nil
	default:
		return nil, ErrUseAfterFree
	}
}

// New allocates a fresh object owned by this pool, appending it to
// newObjects with the next negative ID.
func (p *Pool) New() *Object {
	o := p.base.book.Next()
	o.pool = p
	o.id = -(int32(len(p.newObjects)) + 1)
	p.newObjects = append(p.newObjects, o)
	return o
}

// Free tombstones o. The object's slot is returned to the base pool's
// book once the next flush's compress pass actually drops it.
func (p *Pool) Free(o *Object) {
	o.id = 0
	p.deletedCount++
}

// Subtree returns every pool from p down through its descendants, in
// depth-first pre-order, by walking the next chain until it escapes p's
// span. Callers with the full hierarchy root should instead just follow
// Next() directly; Subtree is for isolating one branch (e.g. during
// per-root write compress).
func (p *Pool) Subtree() []*Pool {
	var out []*Pool
	for cur := p; cur != nil; cur = cur.next {
		if cur != p && !cur.descendsFrom(p) {
			break
		}
		out = append(out, cur)
	}
	return out
}

func (p *Pool) descendsFrom(root *Pool) bool {
	for s := p.super; s != nil; s = s.super {
		if s == root {
			return true
		}
	}
	return false
}

// resliceSubtree re-establishes every sub-pool's data view into base.data
// after the base pool's backing array has been reallocated or resized,
// assigning each pool's bpo in depth-first order as it goes. The parser
// (allocateInstances) and the writer (compress) do their own slicing and
// do not call it.
func resliceSubtree(base *Pool) {
	var bpo int32
	for p := base; p != nil; p = p.next {
		if !(p == base || p.descendsFrom(base)) {
			break
		}
		p.bpo = bpo
		p.data = base.data[bpo : bpo+p.cachedSize]
		bpo += p.cachedSize
	}
}

// TypeHierarchyIterator walks a pool's own subtree in depth-first
// pre-order, the order used for type-hierarchy-wide operations like
// assigning SIFA indices or accumulating cachedSize.
type TypeHierarchyIterator struct {
	cur  *Pool
	root *Pool
}

// NewTypeHierarchyIterator starts a walk rooted at root (inclusive).
func NewTypeHierarchyIterator(root *Pool) *TypeHierarchyIterator {
	return &TypeHierarchyIterator{cur: root, root: root}
}

// Next returns the next pool in the walk, or nil when exhausted.
func (it *TypeHierarchyIterator) Next() *Pool {
	if it.cur == nil {
		return nil
	}
	p := it.cur
	n := p.next
	if n != nil && !(n == it.root || n.descendsFrom(it.root)) {
		n = nil
	}
	it.cur = n
	return p
}

// DynamicDataIterator walks every live (non-deleted) persistent object of
// a pool and its subtypes in pool order, then every new object of each:
// the "dynamic data" view of a pool, as opposed to the statically-typed
// "static data" single-pool view.
type DynamicDataIterator struct {
	pools   []*Pool
	poolIdx int
	objIdx  int
	inNew   bool
}

// NewDynamicDataIterator returns an iterator over root and every pool
// descending from it.
func NewDynamicDataIterator(root *Pool) *DynamicDataIterator {
	return &DynamicDataIterator{pools: root.Subtree()}
}

// Next returns the next live object, or nil when the walk is complete.
func (it *DynamicDataIterator) Next() *Object {
	for it.poolIdx < len(it.pools) {
		p := it.pools[it.poolIdx]
		if !it.inNew {
			for it.objIdx < len(p.data) {
				o := p.data[it.objIdx]
				it.objIdx++
				if o != nil && !o.Deleted() {
					return o
				}
			}
			it.inNew = true
			it.objIdx = 0
		}
		for it.objIdx < len(p.newObjects) {
			o := p.newObjects[it.objIdx]
			it.objIdx++
			if o != nil && !o.Deleted() {
				return o
			}
		}
		it.poolIdx++
		it.objIdx = 0
		it.inNew = false
	}
	return nil
}

// AllObjects drains a DynamicDataIterator into a slice. Intended for
// tests and small pools; production code walking a large file should
// prefer the iterator form to avoid materializing every object at once.
func (p *Pool) AllObjects() []*Object {
	it := NewDynamicDataIterator(p)
	var out []*Object
	for o := it.Next(); o != nil; o = it.Next() {
		out = append(out, o)
	}
	return out
}
