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

// SkeletonMagic tags skeleton containers.
var SkeletonMagic = container.MagicOf("SKEL")

// SkeletonVersion is the only accepted skeleton layout version.
const SkeletonVersion = 2

var (
	skelBonesRule = format.FieldRule{
		Name:        "skeleton.bones",
		Layout:      format.LayoutCountOffset,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	skelNameRule = format.FieldRule{
		Name:        "skeleton.bone.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
)

// RootBone marks a bone with no parent.
const RootBone = int16(-1)

// Bone is one joint in the hierarchy. Parent is an index into the bone
// array, RootBone for roots. The name hash stored alongside the name is the
// 32-bit mixing hash with seed 0; decoders verify it, and runtime lookups
// use it without touching the strings.
type Bone struct {
	Name        string
	Parent      int16
	Flags       uint16
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
}

// Skeleton is a decoded SKEL container.
type Skeleton struct {
	Bones []Bone
}

// FindBone returns the index of the bone whose name hashes to the same
// value as name. Returns ErrEntryNotFound when no bone matches.
func (s *Skeleton) FindBone(name string) (int, error) {
	h := hash.Name(name)
	for i := range s.Bones {
		if hash.Name(s.Bones[i].Name) == h {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: bone %q", errs.ErrEntryNotFound, name)
}

// DecodeSkeleton parses a standalone SKEL blob.
func DecodeSkeleton(data []byte, engine endian.EndianEngine) (*Skeleton, error) {
	r := stream.NewReader(data, engine)
	return decodeSkeletonAt(r, r.Tell())
}

// decodeSkeletonAt parses a skeleton whose container starts at the reader's
// cursor. The base for every offset inside is the container's first byte,
// which is how embedded skeletons inside MODL bodies stay position
// independent.
func decodeSkeletonAt(r *stream.Reader, base int64) (*Skeleton, error) {
	if _, err := container.ReadHeader(r, SkeletonMagic, SkeletonVersion); err != nil {
		return nil, err
	}

	bones, err := relo.ReadResolveSlice(r, base, skelBonesRule, func(r *stream.Reader) (Bone, error) {
		return decodeBone(r, base)
	})
	if err != nil {
		return nil, err
	}

	return &Skeleton{Bones: bones}, nil
}

func decodeBone(r *stream.Reader, base int64) (Bone, error) {
	var b Bone
	var err error

	if b.Name, err = relo.ReadResolveString(r, base, skelNameRule); err != nil {
		return b, err
	}

	stored, err := r.Uint32()
	if err != nil {
		return b, err
	}
	if stored != hash.Name(b.Name) {
		return b, fmt.Errorf("%w: bone %q: stored %#08x, name hashes to %#08x",
			errs.ErrHashMismatch, b.Name, stored, hash.Name(b.Name))
	}

	if b.Parent, err = r.Int16(); err != nil {
		return b, err
	}
	if b.Flags, err = r.Uint16(); err != nil {
		return b, err
	}
	if err = readFloat3(r, &b.Translation); err != nil {
		return b, err
	}
	if err = readFloat4(r, &b.Rotation); err != nil {
		return b, err
	}
	if err = readFloat3(r, &b.Scale); err != nil {
		return b, err
	}

	return b, nil
}

// Encode serializes the skeleton as a standalone container.
func (s *Skeleton) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	if err := s.encodeInto(w); err != nil {
		return nil, err
	}

	return w.Detach(), nil
}

// encodeInto emits the skeleton at the writer's cursor with the container's
// first byte as the offset base. The bone name pool flushes last, in
// insertion order, inside this container's scope.
func (s *Skeleton) encodeInto(w *stream.Writer) error {
	base := w.Tell()

	if err := container.WriteHeader(w, container.Header{Magic: SkeletonMagic, Version: SkeletonVersion}); err != nil {
		return err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderInsertion)

	err := dw.Defer(skelBonesRule, uint64(len(s.Bones)), func(w *stream.Writer) error {
		for i := range s.Bones {
			if err := encodeBone(w, names, &s.Bones[i]); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	if err := dw.Flush(); err != nil {
		return err
	}

	return names.Flush(w, base, 1, 0x00)
}

func encodeBone(w *stream.Writer, names *relo.StringPool, b *Bone) error {
	if err := names.Defer(w, skelNameRule, b.Name); err != nil {
		return err
	}
	if err := w.WriteUint32(hash.Name(b.Name)); err != nil {
		return err
	}
	if err := w.WriteInt16(b.Parent); err != nil {
		return err
	}
	if err := w.WriteUint16(b.Flags); err != nil {
		return err
	}
	if err := writeFloat3(w, b.Translation); err != nil {
		return err
	}
	if err := writeFloat4(w, b.Rotation); err != nil {
		return err
	}

	return writeFloat3(w, b.Scale)
}

func readFloat3(r *stream.Reader, out *[3]float32) error {
	vs, err := r.Float32Array(3)
	if err != nil {
		return err
	}
	copy(out[:], vs)

	return nil
}

func readFloat4(r *stream.Reader, out *[4]float32) error {
	vs, err := r.Float32Array(4)
	if err != nil {
		return err
	}
	copy(out[:], vs)

	return nil
}

func writeFloat3(w *stream.Writer, v [3]float32) error {
	return w.WriteFloat32Array(v[:])
}

func writeFloat4(w *stream.Writer, v [4]float32) error {
	return w.WriteFloat32Array(v[:])
}
