package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
)

func newLEWriter() *Writer {
	return NewWriter(endian.GetLittleEndianEngine())
}

func TestWriterPrimitives(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteUint8(0x01))
	require.NoError(w.WriteUint16(0x0302))
	require.NoError(w.WriteUint32(0x07060504))
	require.NoError(w.WriteFloat32(1.0))

	require.Equal([]byte{
		0x01,
		0x02, 0x03,
		0x04, 0x05, 0x06, 0x07,
		0x00, 0x00, 0x80, 0x3F,
	}, w.Bytes())
	require.Equal(int64(11), w.Tell())
	require.Equal(w.Len(), w.Tell())
}

func TestWriterRoundTripWithReader(t *testing.T) {
	require := require.New(t)

	w := NewWriter(endian.GetBigEndianEngine())
	require.NoError(w.WriteInt16(-12345))
	require.NoError(w.WriteUint64(0xDEADBEEF00C0FFEE))
	require.NoError(w.WriteFloat64(3.5))
	require.NoError(w.WriteCString("mesh_body"))
	require.NoError(w.WriteFloat32Array([]float32{0.5, -1.25}))

	r := NewReader(w.Bytes(), endian.GetBigEndianEngine())

	i16, err := r.Int16()
	require.NoError(err)
	require.Equal(int16(-12345), i16)

	u64, err := r.Uint64()
	require.NoError(err)
	require.Equal(uint64(0xDEADBEEF00C0FFEE), u64)

	f64, err := r.Float64()
	require.NoError(err)
	require.Equal(3.5, f64)

	s, err := r.CString()
	require.NoError(err)
	require.Equal("mesh_body", s)

	vs, err := r.Float32Array(2)
	require.NoError(err)
	require.Equal([]float32{0.5, -1.25}, vs)

	require.Equal(int64(0), r.Remaining())
}

func TestWriterSeekOverwrite(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteUint32(0))
	require.NoError(w.WriteUint32(0x11111111))

	require.NoError(w.Seek(0))
	require.NoError(w.WriteUint32(0x22222222))

	require.Equal([]byte{0x22, 0x22, 0x22, 0x22, 0x11, 0x11, 0x11, 0x11}, w.Bytes())
	require.Equal(int64(4), w.Tell())
	require.Equal(int64(8), w.Len())

	w.SeekEnd()
	require.Equal(int64(8), w.Tell())

	require.ErrorIs(w.Seek(9), errs.ErrSeekOutOfRange)
}

func TestWriterPatchUintN(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteUint32(0))
	require.NoError(w.WriteUint16(0))
	require.NoError(w.WriteUint8(0xFF))

	require.NoError(w.PatchUintN(0, 0xAABBCCDD, format.Width32))
	require.NoError(w.PatchUintN(4, 0x1234, format.Width16))

	// Patching never moves the cursor.
	require.Equal(int64(7), w.Tell())
	require.Equal([]byte{0xDD, 0xCC, 0xBB, 0xAA, 0x34, 0x12, 0xFF}, w.Bytes())
}

func TestWriterPatchErrors(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteUint16(0))

	require.ErrorIs(w.PatchUintN(1, 0, format.Width32), errs.ErrSeekOutOfRange)
	require.ErrorIs(w.PatchUintN(0, 0x10000, format.Width16), errs.ErrOffsetOverflow)
}

func TestWriterWriteUintNOverflow(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.ErrorIs(w.WriteUintN(0x10000, format.Width16), errs.ErrOffsetOverflow)
	require.NoError(w.WriteUintN(0xFFFF, format.Width16))
	require.Equal([]byte{0xFF, 0xFF}, w.Bytes())
}

func TestWriterAlign(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteBytes([]byte{1, 2, 3}))
	require.NoError(w.Align(8, 0xFF))
	require.Equal(int64(8), w.Tell())
	require.Equal([]byte{1, 2, 3, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, w.Bytes())

	// Idempotent: aligning an aligned cursor writes nothing.
	require.NoError(w.Align(8, 0xFF))
	require.Equal(int64(8), w.Tell())

	// Boundary 0 and 1 are no-ops.
	require.NoError(w.Align(0, 0x00))
	require.NoError(w.Align(1, 0x00))
	require.Equal(int64(8), w.Tell())
}

func TestWriterAlignProperties(t *testing.T) {
	require := require.New(t)

	for _, boundary := range []uint32{2, 4, 8, 16, 4096} {
		for _, prefix := range []int{0, 1, 3, 7, 15, 17} {
			w := newLEWriter()
			require.NoError(w.WriteBytes(make([]byte, prefix)))

			before := w.Tell()
			require.NoError(w.Align(boundary, 0x00))
			after := w.Tell()

			require.GreaterOrEqual(after, before)
			require.Less(after-before, int64(boundary))
			require.Zero(after % int64(boundary))

			w.Release()
		}
	}
}

func TestWriterAlignRejectsNonPowerOfTwo(t *testing.T) {
	w := newLEWriter()
	require.ErrorIs(t, w.Align(6, 0x00), errs.ErrInvalidFieldRule)
}

func TestWriterDetach(t *testing.T) {
	require := require.New(t)

	w := newLEWriter()
	require.NoError(w.WriteUint32(0x01020304))
	out := w.Detach()
	require.Equal([]byte{0x04, 0x03, 0x02, 0x01}, out)
}
