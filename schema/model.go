package schema

import (
	"fmt"

	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/hash"
	"github.com/arkheio/relbin/relo"
	"github.com/arkheio/relbin/stream"
)

// ModelMagic tags model containers.
var ModelMagic = container.MagicOf("MODL")

// ModelVersion is the only accepted model layout version.
const ModelVersion = 10

var (
	modlNameRule = format.FieldRule{
		Name:        "model.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
	modlMeshesRule = format.FieldRule{
		Name:        "model.meshes",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	modlMaterialsRule = format.FieldRule{
		Name:        "model.materials",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	modlVertexDataRule = format.FieldRule{
		Name:        "model.vertexData",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       16,
		EmptyAsNull: true,
	}
	modlIndexDataRule = format.FieldRule{
		Name:        "model.indexData",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       16,
		EmptyAsNull: true,
	}
	modlSkeletonRule = format.FieldRule{
		Name:        "model.skeleton",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		Align:       16,
		EmptyAsNull: true,
	}
)

// BlendMode is the material blending discriminant. Unknown values are a
// fatal decode error: defaulting silently would render geometry with the
// wrong pipeline state.
type BlendMode uint8

const (
	BlendOpaque    BlendMode = 0x1
	BlendAlphaTest BlendMode = 0x2
	BlendAlpha     BlendMode = 0x3
	BlendAdditive  BlendMode = 0x4
)

func (b BlendMode) String() string {
	switch b {
	case BlendOpaque:
		return "Opaque"
	case BlendAlphaTest:
		return "AlphaTest"
	case BlendAlpha:
		return "Alpha"
	case BlendAdditive:
		return "Additive"
	default:
		return "Unknown"
	}
}

func (b BlendMode) valid() bool {
	return b >= BlendOpaque && b <= BlendAdditive
}

// Mesh is one draw range into the model's shared vertex and index buffers.
type Mesh struct {
	Name          string
	MaterialIndex uint16
	Flags         uint16
	VertexStart   uint32
	VertexCount   uint32
	IndexStart    uint32
	IndexCount    uint32
}

// Material carries the render state for meshes referencing it. The stored
// name hash is the table-driven CRC-32 of the name, verified on decode.
type Material struct {
	Name        string
	BlendMode   BlendMode
	DoubleSided bool
	BaseColor   [4]float32
}

// Bounds is the model's axis-aligned bounding box.
type Bounds struct {
	Min [3]float32
	Max [3]float32
}

// Model is a decoded MODL container.
//
// VertexData is an opaque interleaved vertex blob; Indices are 16-bit.
// Skeleton, when present, was embedded as a nested SKEL container with its
// own magic and base offset.
type Model struct {
	Name       string
	Bounds     Bounds
	Meshes     []Mesh
	Materials  []Material
	VertexData []byte
	Indices    []uint16
	Skeleton   *Skeleton
}

// DecodeModel parses a MODL blob.
//
// Header layout after the magic/version frame (base = container start):
//
//	name offset (u32, pooled)
//	bounds min/max (6 × f32)
//	meshes offset+count (u32 each, 8-aligned)
//	materials offset+count (u32 each, 8-aligned)
//	vertex data offset+size (u32 each, 16-aligned)
//	index data offset+count (u32 each, 16-aligned)
//	skeleton offset (u32, 16-aligned, nullable)
func DecodeModel(data []byte, engine endian.EndianEngine) (*Model, error) {
	r := stream.NewReader(data, engine)
	base := r.Tell()

	if _, err := container.ReadHeader(r, ModelMagic, ModelVersion); err != nil {
		return nil, err
	}

	m := &Model{}
	var err error

	if m.Name, err = relo.ReadResolveString(r, base, modlNameRule); err != nil {
		return nil, err
	}
	if err = readFloat3(r, &m.Bounds.Min); err != nil {
		return nil, err
	}
	if err = readFloat3(r, &m.Bounds.Max); err != nil {
		return nil, err
	}

	m.Meshes, err = relo.ReadResolveSlice(r, base, modlMeshesRule, func(r *stream.Reader) (Mesh, error) {
		return decodeMesh(r, base)
	})
	if err != nil {
		return nil, err
	}

	m.Materials, err = relo.ReadResolveSlice(r, base, modlMaterialsRule, func(r *stream.Reader) (Material, error) {
		return decodeMaterial(r, base)
	})
	if err != nil {
		return nil, err
	}

	vertexRef, err := relo.ReadRef(r, modlVertexDataRule)
	if err != nil {
		return nil, err
	}
	if m.VertexData, err = relo.ResolveBytes(r, base, vertexRef, modlVertexDataRule, int(vertexRef.Count)); err != nil {
		return nil, err
	}

	m.Indices, err = relo.ReadResolveSlice(r, base, modlIndexDataRule, func(r *stream.Reader) (uint16, error) {
		return r.Uint16()
	})
	if err != nil {
		return nil, err
	}

	skelRef, err := relo.ReadRef(r, modlSkeletonRule)
	if err != nil {
		return nil, err
	}
	err = relo.Resolve(r, base, skelRef, modlSkeletonRule, func(r *stream.Reader) error {
		// The embedded skeleton is a full container with its own base.
		m.Skeleton, err = decodeSkeletonAt(r, r.Tell())
		return err
	})
	if err != nil {
		return nil, err
	}

	return m, nil
}

func decodeMesh(r *stream.Reader, base int64) (Mesh, error) {
	var m Mesh
	var err error

	if m.Name, err = relo.ReadResolveString(r, base, modlNameRule); err != nil {
		return m, err
	}
	if m.MaterialIndex, err = r.Uint16(); err != nil {
		return m, err
	}
	if m.Flags, err = r.Uint16(); err != nil {
		return m, err
	}
	if m.VertexStart, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.VertexCount, err = r.Uint32(); err != nil {
		return m, err
	}
	if m.IndexStart, err = r.Uint32(); err != nil {
		return m, err
	}
	m.IndexCount, err = r.Uint32()

	return m, err
}

func decodeMaterial(r *stream.Reader, base int64) (Material, error) {
	var m Material
	var err error

	if m.Name, err = relo.ReadResolveString(r, base, modlNameRule); err != nil {
		return m, err
	}

	stored, err := r.Uint32()
	if err != nil {
		return m, err
	}
	if stored != hash.Crc([]byte(m.Name)) {
		return m, fmt.Errorf("%w: material %q: stored %#08x, name hashes to %#08x",
			errs.ErrHashMismatch, m.Name, stored, hash.Crc([]byte(m.Name)))
	}

	mode, err := r.Uint8()
	if err != nil {
		return m, err
	}
	m.BlendMode = BlendMode(mode)
	if !m.BlendMode.valid() {
		return m, fmt.Errorf("%w: material %q: blend mode %#02x", errs.ErrUnknownDiscriminant, m.Name, mode)
	}

	ds, err := r.Uint8()
	if err != nil {
		return m, err
	}
	m.DoubleSided = ds != 0

	// Reserved pad word keeps the color 4-aligned within the record.
	if _, err = r.Uint16(); err != nil {
		return m, err
	}

	err = readFloat4(r, &m.BaseColor)

	return m, err
}

// Encode serializes the model. Children are emitted in a fixed order —
// meshes, materials, vertex data, indices, embedded skeleton — with the name
// pool last, matching the layout the original toolchain produced.
func (m *Model) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	base := w.Tell()
	if err := container.WriteHeader(w, container.Header{Magic: ModelMagic, Version: ModelVersion}); err != nil {
		return nil, err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderInsertion)

	if err := names.Defer(w, modlNameRule, m.Name); err != nil {
		return nil, err
	}
	if err := writeFloat3(w, m.Bounds.Min); err != nil {
		return nil, err
	}
	if err := writeFloat3(w, m.Bounds.Max); err != nil {
		return nil, err
	}

	err := dw.Defer(modlMeshesRule, uint64(len(m.Meshes)), func(w *stream.Writer) error {
		for i := range m.Meshes {
			if err := encodeMesh(w, names, &m.Meshes[i]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = dw.Defer(modlMaterialsRule, uint64(len(m.Materials)), func(w *stream.Writer) error {
		for i := range m.Materials {
			if err := encodeMaterial(w, names, &m.Materials[i]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	err = dw.Defer(modlVertexDataRule, uint64(len(m.VertexData)), func(w *stream.Writer) error {
		return w.WriteBytes(m.VertexData)
	})
	if err != nil {
		return nil, err
	}

	err = dw.Defer(modlIndexDataRule, uint64(len(m.Indices)), func(w *stream.Writer) error {
		for _, idx := range m.Indices {
			if err := w.WriteUint16(idx); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	var skelEmit relo.EmitFunc
	if m.Skeleton != nil {
		skelEmit = func(w *stream.Writer) error {
			return m.Skeleton.encodeInto(w)
		}
	}
	if err := dw.Defer(modlSkeletonRule, 1, skelEmit); err != nil {
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

func encodeMesh(w *stream.Writer, names *relo.StringPool, m *Mesh) error {
	if err := names.Defer(w, modlNameRule, m.Name); err != nil {
		return err
	}
	if err := w.WriteUint16(m.MaterialIndex); err != nil {
		return err
	}
	if err := w.WriteUint16(m.Flags); err != nil {
		return err
	}
	if err := w.WriteUint32(m.VertexStart); err != nil {
		return err
	}
	if err := w.WriteUint32(m.VertexCount); err != nil {
		return err
	}
	if err := w.WriteUint32(m.IndexStart); err != nil {
		return err
	}

	return w.WriteUint32(m.IndexCount)
}

func encodeMaterial(w *stream.Writer, names *relo.StringPool, m *Material) error {
	if !m.BlendMode.valid() {
		return fmt.Errorf("%w: material %q: blend mode %#02x", errs.ErrUnknownDiscriminant, m.Name, uint8(m.BlendMode))
	}

	if err := names.Defer(w, modlNameRule, m.Name); err != nil {
		return err
	}
	if err := w.WriteUint32(hash.Crc([]byte(m.Name))); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(m.BlendMode)); err != nil {
		return err
	}

	var ds uint8
	if m.DoubleSided {
		ds = 1
	}
	if err := w.WriteUint8(ds); err != nil {
		return err
	}
	if err := w.WriteUint16(0); err != nil {
		return err
	}

	return writeFloat4(w, m.BaseColor)
}
