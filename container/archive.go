package container

import (
	"fmt"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/hash"
	"github.com/arkheio/relbin/relo"
	"github.com/arkheio/relbin/stream"
)

// ArchiveMagic tags the flat archive wrapper.
var ArchiveMagic = MagicOf("PACK")

// ArchiveVersion is the only accepted archive layout version.
const ArchiveVersion = 1

// archiveEntrySize is the byte size of one entry record:
// tag (4) + id (8) + data offset (4) + data length (4) + name offset (4).
const archiveEntrySize = 24

// payloadAlign keeps entry payloads on 16-byte boundaries so embedded
// containers start aligned regardless of their neighbors' sizes.
const payloadAlign = 16

var archiveNameRule = format.FieldRule{
	Name:        "archive.entry.name",
	Layout:      format.LayoutOffsetOnly,
	Width:       format.Width32,
	EmptyAsNull: true,
}

// Entry is one packed blob: a 4-byte type tag matching the payload's
// container magic, a lookup name, and the raw payload bytes.
type Entry struct {
	Tag  Magic
	Name string
	Data []byte
}

// ID returns the entry's 64-bit lookup identifier, derived from its name.
func (e Entry) ID() uint64 {
	return hash.ID(e.Name)
}

// Archive is a flat sequence of packed containers. Entries keep their packed
// order; lookups go through Find and FindID.
type Archive struct {
	Entries []Entry
}

// Find returns the first entry with the given name.
func (a *Archive) Find(name string) (*Entry, error) {
	return a.FindID(hash.ID(name))
}

// FindID returns the first entry whose name hashes to id.
func (a *Archive) FindID(id uint64) (*Entry, error) {
	for i := range a.Entries {
		if a.Entries[i].ID() == id {
			return &a.Entries[i], nil
		}
	}

	return nil, fmt.Errorf("%w: id %#016x", errs.ErrEntryNotFound, id)
}

// Encode serializes the archive:
//
//	offset  size  field
//	0       4     "PACK"
//	4       4     version (u32)
//	8       4     entry count (u32)
//	12      24*N  entry records
//	...           payloads, each 16-aligned, in entry order
//	...           name pool, lexical order, deduplicated
//
// Entry offsets are relative to the archive start. An empty payload keeps a
// null data offset.
func (a *Archive) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	if err := WriteHeader(w, Header{Magic: ArchiveMagic, Version: ArchiveVersion}); err != nil {
		return nil, err
	}
	if err := w.WriteUintN(uint64(len(a.Entries)), format.Width32); err != nil {
		return nil, fmt.Errorf("archive entry count: %w", err)
	}

	names := relo.NewStringPool(format.OrderLexical)

	dataPlaceholders := make([]int64, len(a.Entries))
	for i, e := range a.Entries {
		if err := w.WriteBytes(e.Tag[:]); err != nil {
			return nil, err
		}
		if err := w.WriteUint64(e.ID()); err != nil {
			return nil, err
		}

		dataPlaceholders[i] = w.Tell()
		if err := w.WriteUint32(0); err != nil {
			return nil, err
		}
		if err := w.WriteUintN(uint64(len(e.Data)), format.Width32); err != nil {
			return nil, fmt.Errorf("archive entry %q: data length: %w", e.Name, err)
		}

		if err := names.Defer(w, archiveNameRule, e.Name); err != nil {
			return nil, err
		}
	}

	for i, e := range a.Entries {
		if len(e.Data) == 0 {
			continue
		}

		if err := w.Align(payloadAlign, 0x00); err != nil {
			return nil, err
		}
		pos := w.Tell()
		if err := w.WriteBytes(e.Data); err != nil {
			return nil, err
		}
		if err := w.PatchUintN(dataPlaceholders[i], uint64(pos), format.Width32); err != nil {
			return nil, fmt.Errorf("archive entry %q: %w", e.Name, err)
		}
	}

	if err := names.Flush(w, 0, 1, 0x00); err != nil {
		return nil, err
	}

	return w.Detach(), nil
}

// DecodeArchive parses a PACK blob. Entry payloads are copied out of data,
// so the input buffer may be released afterwards.
//
// Each entry's stored id must match the hash of its resolved name; a
// mismatch means the table was edited without rehashing and fails the whole
// archive.
func DecodeArchive(data []byte, engine endian.EndianEngine) (*Archive, error) {
	r := stream.NewReader(data, engine)

	if _, err := ReadHeader(r, ArchiveMagic, ArchiveVersion); err != nil {
		return nil, err
	}

	count, err := r.Uint32()
	if err != nil {
		return nil, fmt.Errorf("archive entry count: %w", err)
	}
	if int64(count)*archiveEntrySize > r.Remaining() {
		return nil, fmt.Errorf("%w: %d entries in %d remaining bytes", errs.ErrInvalidCount, count, r.Remaining())
	}

	a := &Archive{Entries: make([]Entry, count)}
	for i := range a.Entries {
		e := &a.Entries[i]

		tag, err := r.Bytes(4)
		if err != nil {
			return nil, err
		}
		copy(e.Tag[:], tag)

		id, err := r.Uint64()
		if err != nil {
			return nil, err
		}

		dataOffset, err := r.Uint32()
		if err != nil {
			return nil, err
		}
		dataLength, err := r.Uint32()
		if err != nil {
			return nil, err
		}

		e.Name, err = relo.ReadResolveString(r, 0, archiveNameRule)
		if err != nil {
			return nil, err
		}

		if id != hash.ID(e.Name) {
			return nil, fmt.Errorf("%w: entry %d (%q): stored id %#016x, name hashes to %#016x",
				errs.ErrHashMismatch, i, e.Name, id, hash.ID(e.Name))
		}

		if dataOffset == 0 {
			continue
		}
		if int64(dataOffset)+int64(dataLength) > r.Len() {
			return nil, fmt.Errorf("%w: entry %q: data at %d+%d exceeds %d bytes",
				errs.ErrOffsetOutOfRange, e.Name, dataOffset, dataLength, r.Len())
		}

		e.Data = make([]byte, dataLength)
		copy(e.Data, data[dataOffset:int64(dataOffset)+int64(dataLength)])
	}

	return a, nil
}
