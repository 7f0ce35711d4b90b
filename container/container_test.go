package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/stream"
)

var testMagic = MagicOf("MODL")

func leReader(data []byte) *stream.Reader {
	return stream.NewReader(data, endian.GetLittleEndianEngine())
}

func leWriter() *stream.Writer {
	return stream.NewWriter(endian.GetLittleEndianEngine())
}

func TestReadHeader(t *testing.T) {
	require := require.New(t)

	data := []byte{'M', 'O', 'D', 'L', 0x0A, 0x00, 0x00, 0x00}

	h, err := ReadHeader(leReader(data), testMagic, 10)
	require.NoError(err)
	require.Equal(testMagic, h.Magic)
	require.Equal(uint32(10), h.Version)
}

func TestReadHeaderAcceptsVersionSet(t *testing.T) {
	require := require.New(t)

	data := []byte{'M', 'O', 'D', 'L', 0x09, 0x00, 0x00, 0x00}

	_, err := ReadHeader(leReader(data), testMagic, 9, 10)
	require.NoError(err)

	_, err = ReadHeader(leReader(data), testMagic, 10)
	require.ErrorIs(err, errs.ErrVersionMismatch)
	require.ErrorContains(err, "version 9")
	require.ErrorContains(err, "[10]")
}

func TestReadHeaderBadMagic(t *testing.T) {
	require := require.New(t)

	data := []byte{'J', 'U', 'N', 'K', 0x0A, 0x00, 0x00, 0x00}

	_, err := ReadHeader(leReader(data), testMagic, 10)
	require.ErrorIs(err, errs.ErrInvalidMagic)
	require.ErrorContains(err, `"MODL"`)
	require.ErrorContains(err, `"JUNK"`)
}

func TestReadHeaderShortBuffer(t *testing.T) {
	_, err := ReadHeader(leReader([]byte{'M', 'O'}), testMagic, 10)
	require.ErrorIs(t, err, errs.ErrShortBuffer)

	_, err = ReadHeader(leReader([]byte{'M', 'O', 'D', 'L', 0x0A}), testMagic, 10)
	require.ErrorIs(t, err, errs.ErrShortBuffer)
}

func TestWriteHeader(t *testing.T) {
	require := require.New(t)

	w := leWriter()
	defer w.Release()

	require.NoError(WriteHeader(w, Header{Magic: testMagic, Version: 10}))
	require.Equal([]byte{'M', 'O', 'D', 'L', 0x0A, 0x00, 0x00, 0x00}, w.Bytes())
	require.Equal(int64(HeaderSize), w.Len())
}

func TestMagicOfRejectsBadLength(t *testing.T) {
	require.Panics(t, func() { MagicOf("TOOLONG") })
	require.Panics(t, func() { MagicOf("AB") })
}
