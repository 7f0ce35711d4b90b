// Package format defines the type enums and per-field rules consumed by the
// relbin codec engine.
//
// A FieldRule is the declarative description of one offset field: how the
// offset and its element count are laid out in the byte stream, how wide they
// are, and how the pointed-to data is aligned and padded on write. The
// per-format schemas are built almost entirely out of these rules; the
// generic engine in the relo package never hard-codes a layout.
package format

import (
	"fmt"

	"github.com/arkheio/relbin/errs"
)

type (
	// OffsetLayout selects how an offset field and its paired count are
	// ordered in the byte stream.
	OffsetLayout uint8

	// OffsetWidth is the byte width of a stored offset or count.
	OffsetWidth uint8

	// CompressionType identifies a payload or envelope compression codec.
	CompressionType uint8

	// PoolOrder selects the physical emission order of a string pool.
	PoolOrder uint8
)

const (
	// LayoutOffsetCount stores the offset immediately followed by the count.
	LayoutOffsetCount OffsetLayout = 0x1
	// LayoutCountOffset stores the count immediately followed by the offset.
	LayoutCountOffset OffsetLayout = 0x2
	// LayoutOffsetOnly stores the offset alone; the element count is
	// supplied externally (another header field, or implied by the schema).
	LayoutOffsetOnly OffsetLayout = 0x3
)

const (
	Width16 OffsetWidth = 2
	Width32 OffsetWidth = 4
	Width64 OffsetWidth = 8
)

const (
	CompressionNone CompressionType = 0x1
	CompressionZlib CompressionType = 0x2
	CompressionZstd CompressionType = 0x3
	CompressionS2   CompressionType = 0x4
	CompressionLZ4  CompressionType = 0x5
)

const (
	// OrderInsertion emits pool strings in first-insertion order.
	OrderInsertion PoolOrder = 0x1
	// OrderLexical emits pool strings sorted by byte value.
	OrderLexical PoolOrder = 0x2
)

func (l OffsetLayout) String() string {
	switch l {
	case LayoutOffsetCount:
		return "OffsetCount"
	case LayoutCountOffset:
		return "CountOffset"
	case LayoutOffsetOnly:
		return "OffsetOnly"
	default:
		return "Unknown"
	}
}

func (w OffsetWidth) String() string {
	switch w {
	case Width16:
		return "Width16"
	case Width32:
		return "Width32"
	case Width64:
		return "Width64"
	default:
		return "Unknown"
	}
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZlib:
		return "Zlib"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (o PoolOrder) String() string {
	switch o {
	case OrderInsertion:
		return "Insertion"
	case OrderLexical:
		return "Lexical"
	default:
		return "Unknown"
	}
}

// Max returns the largest value representable at this width.
func (w OffsetWidth) Max() uint64 {
	switch w {
	case Width16:
		return 0xFFFF
	case Width32:
		return 0xFFFFFFFF
	default:
		return 0xFFFFFFFFFFFFFFFF
	}
}

// FieldRule describes the encoding of a single offset field.
//
// The zero value is not valid; schemas declare rules as package-level vars
// and the engine validates them on first use.
type FieldRule struct {
	// Name identifies the field in error messages.
	Name string

	// Layout selects the offset/count ordering variant.
	Layout OffsetLayout

	// Width is the byte width of the stored offset.
	Width OffsetWidth

	// CountWidth is the byte width of the stored count. Zero means the
	// count uses the same width as the offset. Ignored for LayoutOffsetOnly.
	CountWidth OffsetWidth

	// Align is the power-of-two boundary the child data is rounded up to
	// before emission. Zero or one disables alignment.
	Align uint32

	// PadByte fills the gap produced by alignment.
	PadByte byte

	// EmptyAsNull controls the empty-collection convention: when true a
	// zero-length child writes a null offset and emits nothing; when false
	// it writes a valid offset to an empty (but aligned) region.
	EmptyAsNull bool

	// ZeroIsValid marks the rare schema-flagged case where a stored offset
	// of zero is a meaningful position rather than "no data".
	ZeroIsValid bool
}

// EffectiveCountWidth returns the width used for the paired count field.
func (f FieldRule) EffectiveCountWidth() OffsetWidth {
	if f.CountWidth != 0 {
		return f.CountWidth
	}

	return f.Width
}

// Validate checks the rule for internal consistency.
func (f FieldRule) Validate() error {
	switch f.Width {
	case Width16, Width32, Width64:
	default:
		return fmt.Errorf("%w: field %q: offset width %d", errs.ErrInvalidFieldRule, f.Name, f.Width)
	}

	switch f.Layout {
	case LayoutOffsetCount, LayoutCountOffset:
		switch f.EffectiveCountWidth() {
		case Width16, Width32, Width64:
		default:
			return fmt.Errorf("%w: field %q: count width %d", errs.ErrInvalidFieldRule, f.Name, f.CountWidth)
		}
	case LayoutOffsetOnly:
	default:
		return fmt.Errorf("%w: field %q: layout %d", errs.ErrInvalidFieldRule, f.Name, f.Layout)
	}

	if f.Align > 1 && f.Align&(f.Align-1) != 0 {
		return fmt.Errorf("%w: field %q: alignment %d is not a power of two", errs.ErrInvalidFieldRule, f.Name, f.Align)
	}

	return nil
}
