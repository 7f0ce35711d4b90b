package schema

import (
	"fmt"

	"github.com/arkheio/relbin/compress"
	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/options"
	"github.com/arkheio/relbin/relo"
	"github.com/arkheio/relbin/stream"
)

// TextureMagic tags texture containers.
var TextureMagic = container.MagicOf("TXTR")

// TextureVersion is the only accepted texture layout version.
const TextureVersion = 1

var (
	txtrNameRule = format.FieldRule{
		Name:        "texture.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
	// The original producer pads the gap before pixel data with 0xFF to a
	// 16-byte boundary; round-trip identity depends on reproducing it.
	txtrPayloadRule = format.FieldRule{
		Name:        "texture.payload",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       16,
		PadByte:     0xFF,
		EmptyAsNull: true,
	}
)

// PixelFormat is the surface format discriminant. Unknown values fail the
// decode: block dimensions and payload sizes are format-dependent, so there
// is no safe default.
type PixelFormat uint8

const (
	PixelRGBA8 PixelFormat = 0x1
	PixelBC1   PixelFormat = 0x2
	PixelBC3   PixelFormat = 0x3
	PixelBC7   PixelFormat = 0x4
)

func (p PixelFormat) String() string {
	switch p {
	case PixelRGBA8:
		return "RGBA8"
	case PixelBC1:
		return "BC1"
	case PixelBC3:
		return "BC3"
	case PixelBC7:
		return "BC7"
	default:
		return "Unknown"
	}
}

func (p PixelFormat) valid() bool {
	return p >= PixelRGBA8 && p <= PixelBC7
}

// BlockDims returns the format's block width, block height, and bytes per
// block.
func (p PixelFormat) BlockDims() (w, h, size uint32) {
	switch p {
	case PixelBC1:
		return 4, 4, 8
	case PixelBC3, PixelBC7:
		return 4, 4, 16
	default:
		return 1, 1, 4
	}
}

// TextureTiled marks surfaces stored in the GPU's tiled layout rather than
// row-linear order.
const TextureTiled uint8 = 0x1

// SurfaceDesc describes one surface for the external swizzle collaborator.
type SurfaceDesc struct {
	Width         uint16
	Height        uint16
	Depth         uint16
	Layers        uint8
	Mips          uint8
	BlockWidth    uint32
	BlockHeight   uint32
	BytesPerBlock uint32
}

// SurfaceTransform converts between tiled and linear pixel layouts. The
// codec treats it as an opaque transform over the decoded payload; the GPU
// tiling scheme itself lives outside this module.
type SurfaceTransform func(desc SurfaceDesc, data []byte) ([]byte, error)

// Texture is a decoded TXTR container. Payload holds all mip levels and
// layers packed contiguously, inflated from the stored codec.
type Texture struct {
	Name         string
	Width        uint16
	Height       uint16
	Depth        uint16
	Layers       uint8
	Mips         uint8
	Format       PixelFormat
	Flags        uint8
	PayloadCodec format.CompressionType
	Payload      []byte
}

// Tiled reports whether the payload is in the GPU tiled layout.
func (t *Texture) Tiled() bool {
	return t.Flags&TextureTiled != 0
}

// Desc returns the surface description handed to a SurfaceTransform.
func (t *Texture) Desc() SurfaceDesc {
	bw, bh, bpb := t.Format.BlockDims()

	return SurfaceDesc{
		Width:         t.Width,
		Height:        t.Height,
		Depth:         t.Depth,
		Layers:        t.Layers,
		Mips:          t.Mips,
		BlockWidth:    bw,
		BlockHeight:   bh,
		BytesPerBlock: bpb,
	}
}

type textureDecodeConfig struct {
	transform SurfaceTransform
}

// TextureDecodeOption configures DecodeTexture.
type TextureDecodeOption = options.Option[*textureDecodeConfig]

// WithSurfaceTransform applies an external deswizzle transform to tiled
// payloads after inflation. Linear payloads pass through untouched. A
// transformed texture no longer round-trips byte-identically; it is meant
// for consumption, not re-encoding.
func WithSurfaceTransform(fn SurfaceTransform) TextureDecodeOption {
	return options.NoError(func(cfg *textureDecodeConfig) {
		cfg.transform = fn
	})
}

// DecodeTexture parses a TXTR blob.
//
// Header layout after the magic/version frame:
//
//	name offset (u32, pooled)
//	width, height, depth (u16 each)
//	layers, mips (u8 each)
//	pixel format, flags, payload codec (u8 each)
//	payload offset + stored size (u32 each, 16-aligned, 0xFF pad)
//
// The header is 31 bytes, so the payload reference is always followed by at
// least one 0xFF pad byte before the 16-aligned pixel data.
func DecodeTexture(data []byte, engine endian.EndianEngine, opts ...TextureDecodeOption) (*Texture, error) {
	var cfg textureDecodeConfig
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	r := stream.NewReader(data, engine)
	base := r.Tell()

	if _, err := container.ReadHeader(r, TextureMagic, TextureVersion); err != nil {
		return nil, err
	}

	t := &Texture{}
	var err error

	if t.Name, err = relo.ReadResolveString(r, base, txtrNameRule); err != nil {
		return nil, err
	}
	if t.Width, err = r.Uint16(); err != nil {
		return nil, err
	}
	if t.Height, err = r.Uint16(); err != nil {
		return nil, err
	}
	if t.Depth, err = r.Uint16(); err != nil {
		return nil, err
	}
	if t.Layers, err = r.Uint8(); err != nil {
		return nil, err
	}
	if t.Mips, err = r.Uint8(); err != nil {
		return nil, err
	}

	pf, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	t.Format = PixelFormat(pf)
	if !t.Format.valid() {
		return nil, fmt.Errorf("%w: texture %q: pixel format %#02x", errs.ErrUnknownDiscriminant, t.Name, pf)
	}

	if t.Flags, err = r.Uint8(); err != nil {
		return nil, err
	}

	codecByte, err := r.Uint8()
	if err != nil {
		return nil, err
	}
	t.PayloadCodec = format.CompressionType(codecByte)
	codec, err := compress.GetCodec(t.PayloadCodec)
	if err != nil {
		return nil, fmt.Errorf("%w: texture %q: payload codec %#02x", errs.ErrUnknownDiscriminant, t.Name, codecByte)
	}

	payloadRef, err := relo.ReadRef(r, txtrPayloadRule)
	if err != nil {
		return nil, err
	}
	stored, err := relo.ResolveBytes(r, base, payloadRef, txtrPayloadRule, int(payloadRef.Count))
	if err != nil {
		return nil, err
	}
	if t.Payload, err = codec.Decompress(stored); err != nil {
		return nil, fmt.Errorf("texture %q: %w", t.Name, err)
	}

	if cfg.transform != nil && t.Tiled() {
		if t.Payload, err = cfg.transform(t.Desc(), t.Payload); err != nil {
			return nil, fmt.Errorf("texture %q: surface transform: %w", t.Name, err)
		}
		t.Flags &^= TextureTiled
	}

	return t, nil
}

// Encode serializes the texture, compressing the payload with the texture's
// PayloadCodec.
func (t *Texture) Encode(engine endian.EndianEngine) ([]byte, error) {
	if !t.Format.valid() {
		return nil, fmt.Errorf("%w: texture %q: pixel format %#02x", errs.ErrUnknownDiscriminant, t.Name, uint8(t.Format))
	}
	codec, err := compress.GetCodec(t.PayloadCodec)
	if err != nil {
		return nil, fmt.Errorf("%w: texture %q: payload codec %s", errs.ErrUnknownDiscriminant, t.Name, t.PayloadCodec)
	}

	stored, err := codec.Compress(t.Payload)
	if err != nil {
		return nil, fmt.Errorf("texture %q: %w", t.Name, err)
	}

	w := stream.NewWriter(engine)
	defer w.Release()

	base := w.Tell()
	if err := container.WriteHeader(w, container.Header{Magic: TextureMagic, Version: TextureVersion}); err != nil {
		return nil, err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderInsertion)

	if err := names.Defer(w, txtrNameRule, t.Name); err != nil {
		return nil, err
	}
	if err := w.WriteUint16(t.Width); err != nil {
		return nil, err
	}
	if err := w.WriteUint16(t.Height); err != nil {
		return nil, err
	}
	if err := w.WriteUint16(t.Depth); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(t.Layers); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(t.Mips); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(uint8(t.Format)); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(t.Flags); err != nil {
		return nil, err
	}
	if err := w.WriteUint8(uint8(t.PayloadCodec)); err != nil {
		return nil, err
	}

	err = dw.Defer(txtrPayloadRule, uint64(len(stored)), func(w *stream.Writer) error {
		return w.WriteBytes(stored)
	})
	if err != nil {
		return nil, err
	}

	if err := dw.Flush(); err != nil {
		return nil, err
	}
	if err := names.Flush(w, base, 1, 0x00); err != nil {
		return nil, err
	}

	return w.Detach(), nil
}
