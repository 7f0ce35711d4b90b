// Package container provides the outer framing shared by every asset format:
// the magic/version header, the ZCMP compression envelope, and the PACK
// archive wrapper.
//
// Schemas in the schema package read and write their bodies through the relo
// engine; this package owns everything outside the body — identifying a blob,
// rejecting versions with incompatible layouts, inflating compressed
// payloads, and locating entries inside packed archives.
package container

import (
	"fmt"

	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/stream"
)

// Magic is a four-character code identifying a container's schema.
type Magic [4]byte

// MagicOf builds a Magic from a four-character string literal.
func MagicOf(s string) Magic {
	if len(s) != 4 {
		panic(fmt.Sprintf("magic tag must be 4 bytes, got %q", s))
	}

	var m Magic
	copy(m[:], s)

	return m
}

func (m Magic) String() string {
	return string(m[:])
}

// HeaderSize is the byte size of the magic/version header.
const HeaderSize = 8

// Header is the leading frame of every container: a 4-byte ASCII magic tag
// followed by a u32 version.
type Header struct {
	Magic   Magic
	Version uint32
}

// ReadHeader consumes the header at the reader's cursor and validates it.
//
// A magic mismatch reports the expected and actual tags; a version outside
// accepted reports the accepted set. Both are fatal for the container, since
// field layout depends on them.
func ReadHeader(r *stream.Reader, want Magic, accepted ...uint32) (Header, error) {
	var h Header

	b, err := r.Bytes(4)
	if err != nil {
		return h, fmt.Errorf("container header: %w", err)
	}
	copy(h.Magic[:], b)

	if h.Magic != want {
		return h, fmt.Errorf("%w: expected %q, got %q", errs.ErrInvalidMagic, want, h.Magic)
	}

	h.Version, err = r.Uint32()
	if err != nil {
		return h, fmt.Errorf("container header: %w", err)
	}

	for _, v := range accepted {
		if h.Version == v {
			return h, nil
		}
	}

	return h, fmt.Errorf("%w: %s version %d, accepted %v", errs.ErrVersionMismatch, want, h.Version, accepted)
}

// WriteHeader emits the magic/version frame at the writer's cursor.
func WriteHeader(w *stream.Writer, h Header) error {
	if err := w.WriteBytes(h.Magic[:]); err != nil {
		return err
	}

	return w.WriteUint32(h.Version)
}
