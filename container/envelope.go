package container

import (
	"fmt"

	"github.com/arkheio/relbin/compress"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/stream"
)

// EnvelopeMagic tags the common compression envelope.
var EnvelopeMagic = MagicOf("ZCMP")

// EnvelopeHeaderSize is the byte size of the envelope header:
// magic (4) + tag (8) + codec (1) + reserved (3) + sizes (4+4).
const EnvelopeHeaderSize = 24

// envelopeTagSize is the fixed width of the ASCII content tag, NUL padded.
const envelopeTagSize = 8

// Envelope is the decoded form of a ZCMP-wrapped payload.
//
// Tag is a short ASCII label describing the wrapped content (typically the
// inner container's magic); Payload is the inflated body, ready for the
// container parser.
type Envelope struct {
	Tag     string
	Codec   format.CompressionType
	Payload []byte
}

// SealEnvelope compresses payload with the given codec and frames it:
//
//	offset  size  field
//	0       4     "ZCMP"
//	4       8     ASCII tag, NUL padded
//	12      1     codec discriminant
//	13      3     reserved, zero
//	16      4     compressed size (u32)
//	20      4     decompressed size (u32)
//	24      ...   compressed payload
func SealEnvelope(tag string, codec format.CompressionType, payload []byte, engine endian.EndianEngine) ([]byte, error) {
	if len(tag) > envelopeTagSize {
		return nil, fmt.Errorf("%w: tag %q exceeds %d bytes", errs.ErrInvalidEnvelope, tag, envelopeTagSize)
	}

	c, err := compress.GetCodec(codec)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errs.ErrInvalidEnvelope, err)
	}

	compressed, err := c.Compress(payload)
	if err != nil {
		return nil, fmt.Errorf("envelope %q: %w", tag, err)
	}

	w := stream.NewWriter(engine)
	defer w.Release()

	var tagBytes [envelopeTagSize]byte
	copy(tagBytes[:], tag)

	_ = w.WriteBytes(EnvelopeMagic[:])
	_ = w.WriteBytes(tagBytes[:])
	_ = w.WriteUint8(uint8(codec))
	_ = w.WriteBytes([]byte{0, 0, 0})
	if err := w.WriteUintN(uint64(len(compressed)), format.Width32); err != nil {
		return nil, fmt.Errorf("envelope %q: compressed size: %w", tag, err)
	}
	if err := w.WriteUintN(uint64(len(payload)), format.Width32); err != nil {
		return nil, fmt.Errorf("envelope %q: decompressed size: %w", tag, err)
	}
	_ = w.WriteBytes(compressed)

	return w.Detach(), nil
}

// OpenEnvelope validates the ZCMP frame, inflates the payload, and checks
// that exactly the recorded number of bytes came back.
func OpenEnvelope(data []byte, engine endian.EndianEngine) (*Envelope, error) {
	if len(data) < EnvelopeHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", errs.ErrInvalidEnvelope, len(data), EnvelopeHeaderSize)
	}

	r := stream.NewReader(data, engine)

	magic, _ := r.Bytes(4)
	if [4]byte(magic) != EnvelopeMagic {
		return nil, fmt.Errorf("%w: expected %q, got %q", errs.ErrInvalidMagic, EnvelopeMagic, magic)
	}

	tagBytes, _ := r.Bytes(envelopeTagSize)
	tag := string(trimNulTail(tagBytes))

	codecByte, _ := r.Uint8()
	_, _ = r.Bytes(3) // reserved

	compSize, _ := r.Uint32()
	decompSize, _ := r.Uint32()

	if r.Remaining() != int64(compSize) {
		return nil, fmt.Errorf("%w: envelope %q: %d compressed bytes recorded, %d present",
			errs.ErrSizeMismatch, tag, compSize, r.Remaining())
	}

	codec := format.CompressionType(codecByte)
	c, err := compress.GetCodec(codec)
	if err != nil {
		return nil, fmt.Errorf("%w: envelope %q: %s", errs.ErrInvalidEnvelope, tag, err)
	}

	compressed, _ := r.Bytes(int(compSize))
	payload, err := c.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("envelope %q: %w", tag, err)
	}

	if len(payload) != int(decompSize) {
		return nil, fmt.Errorf("%w: envelope %q: inflated to %d bytes, header records %d",
			errs.ErrSizeMismatch, tag, len(payload), decompSize)
	}

	return &Envelope{Tag: tag, Codec: codec, Payload: payload}, nil
}

func trimNulTail(b []byte) []byte {
	for len(b) > 0 && b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}

	return b
}
