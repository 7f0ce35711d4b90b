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

// ShaderMagic tags shader containers.
var ShaderMagic = container.MagicOf("SHDR")

// ShaderVersion is the only accepted shader layout version.
const ShaderVersion = 1

var (
	shdrNameRule = format.FieldRule{
		Name:        "shader.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
	shdrStagesRule = format.FieldRule{
		Name:        "shader.stages",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	shdrBytecodeRule = format.FieldRule{
		Name:        "shader.stage.bytecode",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       16,
		EmptyAsNull: true,
	}
)

// StageKind is the pipeline stage discriminant.
type StageKind uint8

const (
	StageVertex   StageKind = 0x1
	StageFragment StageKind = 0x2
	StageCompute  StageKind = 0x3
)

func (k StageKind) String() string {
	switch k {
	case StageVertex:
		return "Vertex"
	case StageFragment:
		return "Fragment"
	case StageCompute:
		return "Compute"
	default:
		return "Unknown"
	}
}

func (k StageKind) valid() bool {
	return k >= StageVertex && k <= StageCompute
}

// Stage is one compiled pipeline stage. Entry is the entry point symbol; its
// CRC-32 is stored next to it for fast runtime matching and verified on
// decode. Bytecode is the opaque compiled blob, 16-aligned in the file.
type Stage struct {
	Kind     StageKind
	Entry    string
	Bytecode []byte
}

// Shader is a decoded SHDR container.
type Shader struct {
	Name   string
	Stages []Stage
}

// DecodeShader parses a SHDR blob.
func DecodeShader(data []byte, engine endian.EndianEngine) (*Shader, error) {
	r := stream.NewReader(data, engine)
	base := r.Tell()

	if _, err := container.ReadHeader(r, ShaderMagic, ShaderVersion); err != nil {
		return nil, err
	}

	s := &Shader{}
	var err error

	if s.Name, err = relo.ReadResolveString(r, base, shdrNameRule); err != nil {
		return nil, err
	}

	s.Stages, err = relo.ReadResolveSlice(r, base, shdrStagesRule, func(r *stream.Reader) (Stage, error) {
		return decodeStage(r, base)
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

func decodeStage(r *stream.Reader, base int64) (Stage, error) {
	var s Stage
	var err error

	if s.Entry, err = relo.ReadResolveString(r, base, shdrNameRule); err != nil {
		return s, err
	}

	stored, err := r.Uint32()
	if err != nil {
		return s, err
	}
	if stored != hash.Crc([]byte(s.Entry)) {
		return s, fmt.Errorf("%w: stage entry %q: stored %#08x, name hashes to %#08x",
			errs.ErrHashMismatch, s.Entry, stored, hash.Crc([]byte(s.Entry)))
	}

	kind, err := r.Uint8()
	if err != nil {
		return s, err
	}
	s.Kind = StageKind(kind)
	if !s.Kind.valid() {
		return s, fmt.Errorf("%w: stage entry %q: kind %#02x", errs.ErrUnknownDiscriminant, s.Entry, kind)
	}

	if _, err = r.Bytes(3); err != nil { // reserved
		return s, err
	}

	ref, err := relo.ReadRef(r, shdrBytecodeRule)
	if err != nil {
		return s, err
	}
	s.Bytecode, err = relo.ResolveBytes(r, base, ref, shdrBytecodeRule, int(ref.Count))

	return s, err
}

// Encode serializes the shader. Stage records form one block, bytecode blobs
// follow in stage order, and entry point strings flush last in lexical order
// (the original linker sorted its symbol pool).
func (s *Shader) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	base := w.Tell()
	if err := container.WriteHeader(w, container.Header{Magic: ShaderMagic, Version: ShaderVersion}); err != nil {
		return nil, err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderLexical)

	if err := names.Defer(w, shdrNameRule, s.Name); err != nil {
		return nil, err
	}

	err := dw.Defer(shdrStagesRule, uint64(len(s.Stages)), func(w *stream.Writer) error {
		for i := range s.Stages {
			if err := encodeStage(w, dw, names, &s.Stages[i]); err != nil {
				return err
			}
		}

		return nil
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

func encodeStage(w *stream.Writer, dw *relo.Writer, names *relo.StringPool, s *Stage) error {
	if !s.Kind.valid() {
		return fmt.Errorf("%w: stage entry %q: kind %#02x", errs.ErrUnknownDiscriminant, s.Entry, uint8(s.Kind))
	}

	if err := names.Defer(w, shdrNameRule, s.Entry); err != nil {
		return err
	}
	if err := w.WriteUint32(hash.Crc([]byte(s.Entry))); err != nil {
		return err
	}
	if err := w.WriteUint8(uint8(s.Kind)); err != nil {
		return err
	}
	if err := w.WriteBytes([]byte{0, 0, 0}); err != nil { // reserved
		return err
	}

	bytecode := s.Bytecode

	return dw.Defer(shdrBytecodeRule, uint64(len(bytecode)), func(w *stream.Writer) error {
		return w.WriteBytes(bytecode)
	})
}
