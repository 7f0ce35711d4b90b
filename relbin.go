// Package relbin is a bidirectional codec for a family of offset-based
// game-asset container formats.
//
// Every container is a flat byte region whose variable-length children are
// reached through relative offsets resolved against a per-container base.
// Reading chases offsets without disturbing the sequential parse; writing
// runs two passes — placeholders first, then aligned child emission with
// backpatching. The core correctness contract is round-trip identity:
// re-encoding a decoded container reproduces the original bytes exactly.
//
// # Core Features
//
//   - Declarative per-field offset rules (layout variant, width, alignment,
//     pad byte, empty/null conventions) driving one generic engine
//   - Deduplicating string pools with deterministic emission order
//   - Nested containers with independent base offsets
//   - Compression envelopes (ZCMP) and flat archives (PACK)
//   - Hash-verified name tables (xxHash64, CRC-32, 32-bit mixing hash)
//
// # Basic Usage
//
// Decoding an asset of unknown type:
//
//	import "github.com/arkheio/relbin"
//
//	kind, _ := relbin.Detect(data)
//	switch kind {
//	case relbin.KindModel:
//	    model, err := relbin.DecodeModel(data)
//	    ...
//	case relbin.KindEnvelope:
//	    env, _ := relbin.OpenEnvelope(data)
//	    // recurse on env.Payload
//	}
//
// Encoding:
//
//	blob, err := model.Encode(relbin.DefaultEngine())
//
// # Package Structure
//
// This package provides convenient top-level wrappers. For fine-grained
// control use the subpackages directly: stream (cursors), relo (the offset
// engine), schema (per-format codecs), container (framing, envelopes,
// archives), and compress (payload codecs).
package relbin

import (
	"fmt"

	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/internal/hash"
	"github.com/arkheio/relbin/schema"
)

// Kind identifies a container family by its magic tag.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindModel
	KindSkeleton
	KindAnimation
	KindTexture
	KindShader
	KindScene
	KindArchive
	KindEnvelope
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "Model"
	case KindSkeleton:
		return "Skeleton"
	case KindAnimation:
		return "Animation"
	case KindTexture:
		return "Texture"
	case KindShader:
		return "Shader"
	case KindScene:
		return "Scene"
	case KindArchive:
		return "Archive"
	case KindEnvelope:
		return "Envelope"
	default:
		return "Unknown"
	}
}

var magicKinds = map[container.Magic]Kind{
	schema.ModelMagic:       KindModel,
	schema.SkeletonMagic:    KindSkeleton,
	schema.AnimationMagic:   KindAnimation,
	schema.TextureMagic:     KindTexture,
	schema.ShaderMagic:      KindShader,
	schema.SceneMagic:       KindScene,
	container.ArchiveMagic:  KindArchive,
	container.EnvelopeMagic: KindEnvelope,
}

// Detect identifies a blob by its leading magic tag without parsing it.
func Detect(data []byte) (Kind, error) {
	if len(data) < 4 {
		return KindUnknown, fmt.Errorf("%w: %d bytes, magic needs 4", errs.ErrShortBuffer, len(data))
	}

	var m container.Magic
	copy(m[:], data)

	if kind, ok := magicKinds[m]; ok {
		return kind, nil
	}

	return KindUnknown, fmt.Errorf("%w: %q", errs.ErrInvalidMagic, m)
}

// DefaultEngine returns the byte order the shipped formats use.
func DefaultEngine() endian.EndianEngine {
	return endian.GetLittleEndianEngine()
}

// AssetID returns the 64-bit identifier archives use for entry lookup.
func AssetID(name string) uint64 {
	return hash.ID(name)
}

// NameHash returns the 32-bit mixing hash bone and track names are stored
// under.
func NameHash(name string) uint32 {
	return hash.Name(name)
}

// DecodeModel parses a MODL blob in the default byte order.
func DecodeModel(data []byte) (*schema.Model, error) {
	return schema.DecodeModel(data, DefaultEngine())
}

// DecodeSkeleton parses a SKEL blob in the default byte order.
func DecodeSkeleton(data []byte) (*schema.Skeleton, error) {
	return schema.DecodeSkeleton(data, DefaultEngine())
}

// DecodeAnimation parses an ANIM blob in the default byte order.
func DecodeAnimation(data []byte) (*schema.Animation, error) {
	return schema.DecodeAnimation(data, DefaultEngine())
}

// DecodeTexture parses a TXTR blob in the default byte order.
func DecodeTexture(data []byte, opts ...schema.TextureDecodeOption) (*schema.Texture, error) {
	return schema.DecodeTexture(data, DefaultEngine(), opts...)
}

// DecodeShader parses a SHDR blob in the default byte order.
func DecodeShader(data []byte) (*schema.Shader, error) {
	return schema.DecodeShader(data, DefaultEngine())
}

// DecodeScene parses a SCNE blob in the default byte order.
func DecodeScene(data []byte) (*schema.Scene, error) {
	return schema.DecodeScene(data, DefaultEngine())
}

// DecodeArchive parses a PACK blob in the default byte order.
func DecodeArchive(data []byte) (*container.Archive, error) {
	return container.DecodeArchive(data, DefaultEngine())
}

// OpenEnvelope unwraps a ZCMP blob in the default byte order.
func OpenEnvelope(data []byte) (*container.Envelope, error) {
	return container.OpenEnvelope(data, DefaultEngine())
}
