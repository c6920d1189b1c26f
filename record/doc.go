// Package record provides declarative byte-exact layouts for structured
// data living in shared memory.
//
// A Type is compiled once from an ordered list of named fields and is then
// immutable and shared by every instance of that structure. Field offsets
// are computed in declaration order: the running offset is rounded up to
// each field's alignment, and the type's alignment is the maximum field
// alignment. The type's Size is the final running offset; no trailing
// padding is added automatically (use AlignedSize for array layouts).
//
// Loading a Type over a MemoryRange yields a View. A View is live: every
// scalar getter and setter proxies directly to the backing range, so
// mutating a loaded record mutates the underlying shared bytes immediately
// and visibly to any other agent holding the same bytes, subject to the
// Lock discipline. Nested object fields are loaded lazily and cached on
// first access.
//
// # Memory Layout
//
//	Field kind      Size    Alignment
//	─────────────────────────────────
//	U8              1       1
//	U16             2       2
//	U32, I32        4       4
//	U64, I64        8       8
//	RangeOf         8       4  (ptr + size pair)
//	LockCell        4       4
//	SignalCell      4       4
//	ObjectOf(T)     T.Size  T.Alignment
package record
