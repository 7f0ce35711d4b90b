// Package stream provides the positioned cursor and primitive codec the
// offset engine is built on.
//
// Reader and Writer operate on in-memory byte buffers with an explicit
// cursor: sequential reads and writes of fixed-width integers, floats, byte
// arrays, and NUL-terminated strings, plus Tell/Seek, scoped
// seek-read-restore (Reader.At), placeholder patching (Writer.PatchUintN),
// and alignment padding (Writer.Align). Byte order is supplied by an
// endian.EndianEngine and is fixed per cursor.
//
// Neither type is safe for concurrent use; each parse or write owns its own
// cursor.
package stream

import (
	"fmt"
	"math"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
)

// Reader is a sequential cursor over an in-memory byte buffer.
type Reader struct {
	data   []byte
	pos    int64
	engine endian.EndianEngine
}

// NewReader creates a reader positioned at the start of data.
func NewReader(data []byte, engine endian.EndianEngine) *Reader {
	return &Reader{data: data, engine: engine}
}

// Engine returns the reader's byte order engine.
func (r *Reader) Engine() endian.EndianEngine {
	return r.engine
}

// Len returns the total buffer length.
func (r *Reader) Len() int64 {
	return int64(len(r.data))
}

// Tell returns the current cursor position.
func (r *Reader) Tell() int64 {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int64 {
	return int64(len(r.data)) - r.pos
}

// Seek moves the cursor to an absolute position inside the buffer.
func (r *Reader) Seek(pos int64) error {
	if pos < 0 || pos > int64(len(r.data)) {
		return fmt.Errorf("%w: position %d, buffer length %d", errs.ErrSeekOutOfRange, pos, len(r.data))
	}
	r.pos = pos

	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int64) error {
	return r.Seek(r.pos + n)
}

// At runs fn with the cursor moved to pos, then restores the original
// position regardless of fn's outcome. This is the seek-read-restore
// primitive behind offset resolution: pointer chasing through fn never
// disturbs the caller's sequential parse.
func (r *Reader) At(pos int64, fn func(*Reader) error) error {
	saved := r.pos
	if err := r.Seek(pos); err != nil {
		return err
	}
	defer func() { r.pos = saved }()

	return fn(r)
}

// Bytes reads n bytes and advances the cursor. The returned slice aliases
// the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", errs.ErrInvalidCount, n)
	}
	if r.Remaining() < int64(n) {
		return nil, fmt.Errorf("%w: need %d bytes at position %d, %d remain", errs.ErrShortBuffer, n, r.pos, r.Remaining())
	}

	b := r.data[r.pos : r.pos+int64(n)]
	r.pos += int64(n)

	return b, nil
}

// Peek returns the next n bytes without advancing the cursor.
func (r *Reader) Peek(n int) ([]byte, error) {
	saved := r.pos
	b, err := r.Bytes(n)
	r.pos = saved

	return b, err
}

// Uint8 reads an unsigned 8-bit integer.
func (r *Reader) Uint8() (uint8, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

// Uint16 reads an unsigned 16-bit integer.
func (r *Reader) Uint16() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint16(b), nil
}

// Uint32 reads an unsigned 32-bit integer.
func (r *Reader) Uint32() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint32(b), nil
}

// Uint64 reads an unsigned 64-bit integer.
func (r *Reader) Uint64() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}

	return r.engine.Uint64(b), nil
}

// Int8 reads a signed 8-bit integer.
func (r *Reader) Int8() (int8, error) {
	v, err := r.Uint8()
	return int8(v), err
}

// Int16 reads a signed 16-bit integer.
func (r *Reader) Int16() (int16, error) {
	v, err := r.Uint16()
	return int16(v), err
}

// Int32 reads a signed 32-bit integer.
func (r *Reader) Int32() (int32, error) {
	v, err := r.Uint32()
	return int32(v), err
}

// Int64 reads a signed 64-bit integer.
func (r *Reader) Int64() (int64, error) {
	v, err := r.Uint64()
	return int64(v), err
}

// Float32 reads an IEEE 754 single-precision float.
func (r *Reader) Float32() (float32, error) {
	v, err := r.Uint32()
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(v), nil
}

// Float64 reads an IEEE 754 double-precision float.
func (r *Reader) Float64() (float64, error) {
	v, err := r.Uint64()
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(v), nil
}

// UintN reads an unsigned integer of the given width.
func (r *Reader) UintN(width format.OffsetWidth) (uint64, error) {
	switch width {
	case format.Width16:
		v, err := r.Uint16()
		return uint64(v), err
	case format.Width32:
		v, err := r.Uint32()
		return uint64(v), err
	case format.Width64:
		return r.Uint64()
	default:
		return 0, fmt.Errorf("%w: width %d", errs.ErrInvalidFieldRule, width)
	}
}

// CString reads a NUL-terminated byte string and advances past the
// terminator.
func (r *Reader) CString() (string, error) {
	start := r.pos
	for i := r.pos; i < int64(len(r.data)); i++ {
		if r.data[i] == 0 {
			r.pos = i + 1
			return string(r.data[start:i]), nil
		}
	}

	return "", fmt.Errorf("%w: unterminated string at position %d", errs.ErrShortBuffer, start)
}

// Float32Array reads n consecutive single-precision floats.
func (r *Reader) Float32Array(n int) ([]float32, error) {
	b, err := r.Bytes(n * 4)
	if err != nil {
		return nil, err
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(r.engine.Uint32(b[i*4:]))
	}

	return out, nil
}
