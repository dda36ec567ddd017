// Copyright 2024 The OGSS-Go Authors. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package ogss

// Object is an element of some pool. Its id encodes three states: id > 0
// indexes base.data[id-1] (persistent slot), id < 0 indexes
// owner.newObjects[-1-id] (new object, sub-pool-local), id == 0 marks a
// tombstone (logically deleted, awaiting recycling at the next flush).
//
// Since generated per-schema classes are out of scope for this runtime,
// there is no static per-class type ID to stash on a generated instance
// struct; every Object instead always carries its owning pool directly.
// Go's GC makes the extra pointer cheap, and it removes an entire lookup
// table this reflective runtime would otherwise need (see DESIGN.md Open
// Questions).
type Object struct {
	id   int32
	pool *Pool
}

// ID returns the object's current identifier.
func (o *Object) ID() int32 { return o.id }

// Pool returns the pool this object belongs to.
func (o *Object) Pool() *Pool { return o.pool }

// Deleted reports whether the object has been tombstoned.
func (o *Object) Deleted() bool { return o.id == 0 }

const bookPageSize = 128

// bookPage is one page of pre-allocated Objects, normally sized
// bookPageSize but occasionally larger to fit a single AllocateRun.
// Objects are addressed by pointer into objects, so the slice must never
// be reallocated after its first Object is handed out.
type bookPage struct {
	objects []Object
	used    int
}

func newBookPage(size int) *bookPage {
	return &bookPage{objects: make([]Object, size)}
}

// Book is the page-based slab allocator backing persistent object
// storage for a base pool. Objects are zero-initialized on allocation,
// recycled through a
// freelist when tombstoned, and allocation never needs to revisit
// already-filled pages.
type Book struct {
	pages    []*bookPage
	freelist []*Object
}

// NewBook returns an empty book.
func NewBook() *Book { return &Book{} }

// Next serves either from the freelist (zeroed) or from the current
// page, allocating a new page when the current one is exhausted.
func (b *Book) Next() *Object {
	if n := len(b.freelist); n > 0 {
		o := b.freelist[n-1]
		b.freelist = b.freelist[:n-1]
		*o = Object{}
		return o
	}
	if len(b.pages) == 0 || b.pages[len(b.pages)-1].used == len(b.pages[len(b.pages)-1].objects) {
		b.pages = append(b.pages, newBookPage(bookPageSize))
	}
	p := b.pages[len(b.pages)-1]
	o := &p.objects[p.used]
	p.used++
	return o
}

// AllocateRun serves n fresh objects at once. When the book is otherwise
// empty it places them on a single page sized to fit exactly n, letting
// the parser placement-construct an entire static-instance run without
// revisiting the book page by page. Falls back to n calls to Next when
// the book already has state (so existing pages/freelist entries are
// not orphaned).
func (b *Book) AllocateRun(n int) []*Object {
	out := make([]*Object, n)
	if n == 0 {
		return out
	}
	if len(b.pages) == 0 && len(b.freelist) == 0 {
		p := newBookPage(n)
		p.used = n
		for i := 0; i < n; i++ {
			out[i] = &p.objects[i]
		}
		b.pages = append(b.pages, p)
		return out
	}
	for i := 0; i < n; i++ {
		out[i] = b.Next()
	}
	return out
}

// Free tombstones o and returns its slot to the freelist for reuse by the
// next allocation.
func (b *Book) Free(o *Object) {
	o.id = 0
	b.freelist = append(b.freelist, o)
}
