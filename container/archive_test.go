package container

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
)

func testArchive() *Archive {
	return &Archive{Entries: []Entry{
		{Tag: MagicOf("MODL"), Name: "props/crate", Data: bytes.Repeat([]byte{0xAB}, 40)},
		{Tag: MagicOf("TXTR"), Name: "props/crate_diffuse", Data: []byte{1, 2, 3}},
		{Tag: MagicOf("SKEL"), Name: "chars/guard", Data: nil},
	}}
}

func TestArchiveRoundTrip(t *testing.T) {
	require := require.New(t)

	a := testArchive()
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)

	decoded, err := DecodeArchive(encoded, endian.GetLittleEndianEngine())
	require.NoError(err)
	require.Equal(a.Entries, decoded.Entries)

	// Re-encoding the decoded archive reproduces the bytes exactly.
	reencoded, err := decoded.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)
	require.Equal(encoded, reencoded)
}

func TestArchiveLayout(t *testing.T) {
	require := require.New(t)

	a := &Archive{Entries: []Entry{
		{Tag: MagicOf("MODL"), Name: "hero", Data: []byte{0xCA, 0xFE}},
	}}
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)

	// Header + count + one 24-byte entry record end at 36; the payload is
	// aligned up to 48.
	require.Equal([]byte("PACK"), encoded[0:4])
	require.Equal(uint32(ArchiveVersion), binary.LittleEndian.Uint32(encoded[4:8]))
	require.Equal(uint32(1), binary.LittleEndian.Uint32(encoded[8:12]))

	require.Equal([]byte("MODL"), encoded[12:16])
	require.Equal(a.Entries[0].ID(), binary.LittleEndian.Uint64(encoded[16:24]))

	dataOffset := binary.LittleEndian.Uint32(encoded[24:28])
	dataLength := binary.LittleEndian.Uint32(encoded[28:32])
	require.Equal(uint32(48), dataOffset, "payload starts on a 16-byte boundary")
	require.Equal(uint32(2), dataLength)
	require.Equal([]byte{0xCA, 0xFE}, encoded[48:50])

	nameOffset := binary.LittleEndian.Uint32(encoded[32:36])
	require.Equal(uint32(50), nameOffset, "name pool follows the payloads")
	require.Equal([]byte("hero\x00"), encoded[50:55])
}

func TestArchiveEmptyPayloadIsNullOffset(t *testing.T) {
	require := require.New(t)

	a := &Archive{Entries: []Entry{{Tag: MagicOf("SKEL"), Name: "empty"}}}
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)

	require.Equal(uint32(0), binary.LittleEndian.Uint32(encoded[24:28]))

	decoded, err := DecodeArchive(encoded, endian.GetLittleEndianEngine())
	require.NoError(err)
	require.Nil(decoded.Entries[0].Data)
}

func TestArchiveFind(t *testing.T) {
	require := require.New(t)

	a := testArchive()

	e, err := a.Find("props/crate_diffuse")
	require.NoError(err)
	require.Equal(MagicOf("TXTR"), e.Tag)
	require.Equal([]byte{1, 2, 3}, e.Data)

	e, err = a.FindID(Entry{Name: "chars/guard"}.ID())
	require.NoError(err)
	require.Equal("chars/guard", e.Name)

	_, err = a.Find("missing/asset")
	require.ErrorIs(err, errs.ErrEntryNotFound)
}

func TestDecodeArchiveTamperedID(t *testing.T) {
	require := require.New(t)

	a := testArchive()
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)

	encoded[16] ^= 0xFF // corrupt the first entry's stored id
	_, err = DecodeArchive(encoded, endian.GetLittleEndianEngine())
	require.ErrorIs(err, errs.ErrHashMismatch)
}

func TestDecodeArchiveBadFraming(t *testing.T) {
	require := require.New(t)

	a := testArchive()
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)

	t.Run("bad magic", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		bad[0] = 'J'
		_, err := DecodeArchive(bad, endian.GetLittleEndianEngine())
		require.ErrorIs(err, errs.ErrInvalidMagic)
	})

	t.Run("bad version", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		bad[4] = 99
		_, err := DecodeArchive(bad, endian.GetLittleEndianEngine())
		require.ErrorIs(err, errs.ErrVersionMismatch)
	})

	t.Run("entry count exceeds buffer", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		binary.LittleEndian.PutUint32(bad[8:12], 0xFFFF)
		_, err := DecodeArchive(bad, endian.GetLittleEndianEngine())
		require.ErrorIs(err, errs.ErrInvalidCount)
	})

	t.Run("data out of range", func(t *testing.T) {
		bad := bytes.Clone(encoded)
		binary.LittleEndian.PutUint32(bad[28:32], 0xFFFF) // first entry's length
		_, err := DecodeArchive(bad, endian.GetLittleEndianEngine())
		require.ErrorIs(err, errs.ErrOffsetOutOfRange)
	})
}

func TestDecodeArchiveEmpty(t *testing.T) {
	require := require.New(t)

	a := &Archive{}
	encoded, err := a.Encode(endian.GetLittleEndianEngine())
	require.NoError(err)
	require.Len(encoded, 12)

	decoded, err := DecodeArchive(encoded, endian.GetLittleEndianEngine())
	require.NoError(err)
	require.Empty(decoded.Entries)
}
