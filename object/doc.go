// Package object provides the base type for structured entities living in
// shared memory, and the Synchronized combinator that guards access to them.
//
// Every shared object's layout starts with the conventional header
// {size u32, id u32, lock Lock}; concrete types append their own fields
// after it. An object is created in one of two modes: New allocates and
// initializes fresh bytes in an arena, Attach adopts a range resolved from
// a peer's MemoryLocation and trusts whatever the creating agent wrote.
//
// Synchronized is the statically typed rendition of a lock-wrapping
// decorator: instead of intercepting property access dynamically, a wrapper
// brackets each callback in acquire/release with a scope-guaranteed
// release. Counter shows the equivalent hand-generated per-method wrapper.
package object
