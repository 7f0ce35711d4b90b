// Package errs defines the sentinel errors shared by all relbin packages.
//
// Call sites wrap these with fmt.Errorf("%w: ...") to attach context such as
// the field name and buffer position, so callers can match with errors.Is
// while still seeing where a decode went wrong.
package errs

import "errors"

var (
	// ErrInvalidMagic indicates the leading tag bytes do not match the
	// expected container schema.
	ErrInvalidMagic = errors.New("invalid magic tag")

	// ErrVersionMismatch indicates the container version field is outside
	// the accepted set for its schema. Field layout is version dependent,
	// so there is no forward-compatible fallback.
	ErrVersionMismatch = errors.New("unsupported container version")

	// ErrOffsetOutOfRange indicates a resolved base+offset falls outside
	// the buffer.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrOffsetOverflow indicates a backpatched offset does not fit the
	// declared placeholder width.
	ErrOffsetOverflow = errors.New("offset exceeds placeholder width")

	// ErrSeekOutOfRange indicates a cursor seek outside the buffer bounds.
	ErrSeekOutOfRange = errors.New("seek position out of range")

	// ErrShortBuffer indicates a read past the end of the buffer.
	ErrShortBuffer = errors.New("short buffer")

	// ErrUnknownDiscriminant indicates a tagged field carries a numeric
	// tag with no known variant.
	ErrUnknownDiscriminant = errors.New("unknown discriminant value")

	// ErrInvalidFieldRule indicates a malformed per-field rule, such as a
	// non-power-of-two alignment or an invalid offset width.
	ErrInvalidFieldRule = errors.New("invalid field rule")

	// ErrInvalidCount indicates an element count that cannot be satisfied
	// by the remaining buffer.
	ErrInvalidCount = errors.New("invalid element count")

	// ErrHashMismatch indicates a stored name hash does not match the hash
	// of the stored name.
	ErrHashMismatch = errors.New("name hash mismatch")

	// ErrSizeMismatch indicates a compressed envelope whose payload did
	// not inflate to exactly the declared decompressed size.
	ErrSizeMismatch = errors.New("envelope size mismatch")

	// ErrInvalidEnvelope indicates a malformed compression envelope header.
	ErrInvalidEnvelope = errors.New("invalid compression envelope")

	// ErrEntryNotFound indicates an archive lookup for a name or ID that
	// is not present in the entry table.
	ErrEntryNotFound = errors.New("archive entry not found")

	// ErrNestingTooDeep indicates a recursive structure deeper than the
	// decoder's safety limit, usually a cyclic offset chain.
	ErrNestingTooDeep = errors.New("structure nesting too deep")

	// ErrAlreadyFlushed indicates a deferred-offset writer used after its
	// pending records were consumed.
	ErrAlreadyFlushed = errors.New("deferred writer already flushed")
)
