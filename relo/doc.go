// Package relo implements the offset-resolution and round-trip-serialization
// engine shared by every container schema.
//
// The supported asset formats store structures as flat byte regions whose
// fields are relative offsets to variable-length children, resolved against a
// per-container base offset. Package relo provides both directions:
//
// # Read side
//
// ReadRef decodes an offset/count reference according to its
// format.FieldRule (offset-then-count, count-then-offset, or offset-only at
// 16/32/64-bit widths). Resolve and its typed variants then seek to
// base+offset, decode the child, and restore the reader's cursor, so pointer
// chasing never disturbs the sequential parse of the enclosing structure. A
// stored offset of zero means "no data" unless the rule sets ZeroIsValid.
//
// # Write side
//
// Writer implements the two-pass deferred-offset protocol:
//
//  1. Header emission: Defer writes the fixed-size placeholder (and the
//     paired count) for each offset field and records a pending entry
//     holding the placeholder position and the child's emit callback.
//  2. Data emission: Flush walks the pending entries in the order they were
//     deferred (which is the schema's visitation order, not necessarily
//     field declaration order), aligns the write cursor with the rule's pad
//     byte, invokes the child's emit callback, and backpatches the
//     placeholder with child_position - base at the placeholder's width.
//
// Children that themselves contain offset fields create a nested Writer
// inside their emit callback (with a new base when they open their own
// sub-container) and flush it before returning; the recursion reproduces the
// original producers' depth-first layout. The write cursor is strictly
// non-decreasing across the whole write.
//
// StringPool collapses repeated identical string payloads into one physical
// copy: placeholders registered through Add or Defer are all backpatched
// with the single resolved position when the pool is flushed, in insertion
// or lexical order per schema.
package relo
