package stream

import (
	"fmt"
	"math"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/pool"
)

// Writer is a positioned cursor over a growable byte buffer.
//
// Writes at the end of the buffer extend it; writes inside the buffer
// overwrite in place, which is how pass 2 of the deferred-offset protocol
// backpatches placeholders. The backing buffer comes from the container
// buffer pool; call Release when the serialized bytes have been copied out.
type Writer struct {
	buf    *pool.ByteBuffer
	pos    int64
	engine endian.EndianEngine
}

// NewWriter creates an empty writer with a pooled backing buffer.
func NewWriter(engine endian.EndianEngine) *Writer {
	return &Writer{
		buf:    pool.GetContainerBuffer(),
		engine: engine,
	}
}

// Engine returns the writer's byte order engine.
func (w *Writer) Engine() endian.EndianEngine {
	return w.engine
}

// Bytes returns the written bytes. The slice aliases the pooled buffer and
// is invalidated by Release.
func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Detach returns a copy of the written bytes and releases the pooled buffer.
func (w *Writer) Detach() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	w.Release()

	return out
}

// Release returns the backing buffer to the pool. The writer must not be
// used afterwards.
func (w *Writer) Release() {
	pool.PutContainerBuffer(w.buf)
	w.buf = nil
}

// Len returns the total number of bytes emitted so far.
func (w *Writer) Len() int64 {
	return int64(w.buf.Len())
}

// Tell returns the current cursor position.
func (w *Writer) Tell() int64 {
	return w.pos
}

// Seek moves the cursor to an absolute position. Seeking past the end of
// the emitted bytes is an error; use Align or WriteBytes to extend.
func (w *Writer) Seek(pos int64) error {
	if pos < 0 || pos > w.Len() {
		return fmt.Errorf("%w: position %d, buffer length %d", errs.ErrSeekOutOfRange, pos, w.Len())
	}
	w.pos = pos

	return nil
}

// SeekEnd moves the cursor past all bytes emitted so far.
func (w *Writer) SeekEnd() {
	w.pos = w.Len()
}

// write copies p at the cursor, extending the buffer when the write reaches
// past the current end.
func (w *Writer) write(p []byte) {
	end := w.pos + int64(len(p))
	if end > w.Len() {
		w.buf.ExtendOrGrow(int(end - w.Len()))
	}
	copy(w.buf.B[w.pos:end], p)
	w.pos = end
}

// WriteBytes writes p at the cursor.
func (w *Writer) WriteBytes(p []byte) error {
	w.write(p)
	return nil
}

// WriteUint8 writes an unsigned 8-bit integer.
func (w *Writer) WriteUint8(v uint8) error {
	w.write([]byte{v})
	return nil
}

// WriteUint16 writes an unsigned 16-bit integer.
func (w *Writer) WriteUint16(v uint16) error {
	var b [2]byte
	w.engine.PutUint16(b[:], v)
	w.write(b[:])

	return nil
}

// WriteUint32 writes an unsigned 32-bit integer.
func (w *Writer) WriteUint32(v uint32) error {
	var b [4]byte
	w.engine.PutUint32(b[:], v)
	w.write(b[:])

	return nil
}

// WriteUint64 writes an unsigned 64-bit integer.
func (w *Writer) WriteUint64(v uint64) error {
	var b [8]byte
	w.engine.PutUint64(b[:], v)
	w.write(b[:])

	return nil
}

// WriteInt8 writes a signed 8-bit integer.
func (w *Writer) WriteInt8(v int8) error {
	return w.WriteUint8(uint8(v))
}

// WriteInt16 writes a signed 16-bit integer.
func (w *Writer) WriteInt16(v int16) error {
	return w.WriteUint16(uint16(v))
}

// WriteInt32 writes a signed 32-bit integer.
func (w *Writer) WriteInt32(v int32) error {
	return w.WriteUint32(uint32(v))
}

// WriteInt64 writes a signed 64-bit integer.
func (w *Writer) WriteInt64(v int64) error {
	return w.WriteUint64(uint64(v))
}

// WriteFloat32 writes an IEEE 754 single-precision float.
func (w *Writer) WriteFloat32(v float32) error {
	return w.WriteUint32(math.Float32bits(v))
}

// WriteFloat64 writes an IEEE 754 double-precision float.
func (w *Writer) WriteFloat64(v float64) error {
	return w.WriteUint64(math.Float64bits(v))
}

// WriteUintN writes an unsigned integer of the given width. Values that do
// not fit the width are rejected.
func (w *Writer) WriteUintN(v uint64, width format.OffsetWidth) error {
	if v > width.Max() {
		return fmt.Errorf("%w: value %#x at width %s", errs.ErrOffsetOverflow, v, width)
	}

	switch width {
	case format.Width16:
		return w.WriteUint16(uint16(v))
	case format.Width32:
		return w.WriteUint32(uint32(v))
	case format.Width64:
		return w.WriteUint64(v)
	default:
		return fmt.Errorf("%w: width %d", errs.ErrInvalidFieldRule, width)
	}
}

// WriteCString writes s followed by a NUL terminator.
func (w *Writer) WriteCString(s string) error {
	w.write([]byte(s))
	w.write([]byte{0})

	return nil
}

// WriteFloat32Array writes vs as consecutive single-precision floats.
func (w *Writer) WriteFloat32Array(vs []float32) error {
	for _, v := range vs {
		if err := w.WriteFloat32(v); err != nil {
			return err
		}
	}

	return nil
}

// PatchUintN overwrites a previously written integer at pos without moving
// the cursor. This is the backpatch primitive of the data-emission pass.
func (w *Writer) PatchUintN(pos int64, v uint64, width format.OffsetWidth) error {
	if v > width.Max() {
		return fmt.Errorf("%w: value %#x at width %s", errs.ErrOffsetOverflow, v, width)
	}
	if pos < 0 || pos+int64(width) > w.Len() {
		return fmt.Errorf("%w: patch at %d width %d, buffer length %d", errs.ErrSeekOutOfRange, pos, width, w.Len())
	}

	b := w.buf.B[pos : pos+int64(width)]
	switch width {
	case format.Width16:
		w.engine.PutUint16(b, uint16(v))
	case format.Width32:
		w.engine.PutUint32(b, uint32(v))
	case format.Width64:
		w.engine.PutUint64(b, v)
	default:
		return fmt.Errorf("%w: width %d", errs.ErrInvalidFieldRule, width)
	}

	return nil
}

// Align rounds the cursor up to the next multiple of boundary, filling the
// gap with pad bytes. Boundaries of 0 and 1 are no-ops. Alignment is
// idempotent: aligning an aligned cursor writes nothing.
func (w *Writer) Align(boundary uint32, pad byte) error {
	if boundary <= 1 {
		return nil
	}
	if boundary&(boundary-1) != 0 {
		return fmt.Errorf("%w: alignment %d is not a power of two", errs.ErrInvalidFieldRule, boundary)
	}

	rem := w.pos % int64(boundary)
	if rem == 0 {
		return nil
	}

	gap := int64(boundary) - rem
	padding := make([]byte, gap)
	if pad != 0 {
		for i := range padding {
			padding[i] = pad
		}
	}
	w.write(padding)

	return nil
}
