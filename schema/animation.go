package schema

import (
	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/internal/hash"
	"github.com/arkheio/relbin/relo"
	"github.com/arkheio/relbin/stream"
)

// AnimationMagic tags animation containers.
var AnimationMagic = container.MagicOf("ANIM")

// AnimationVersion is the only accepted animation layout version.
const AnimationVersion = 3

var (
	animNameRule = format.FieldRule{
		Name:        "animation.name",
		Layout:      format.LayoutOffsetOnly,
		Width:       format.Width32,
		EmptyAsNull: true,
	}
	animTracksRule = format.FieldRule{
		Name:        "animation.tracks",
		Layout:      format.LayoutOffsetCount,
		Width:       format.Width32,
		Align:       8,
		EmptyAsNull: true,
	}
	// Key arrays dominate animation payloads, so their reference carries a
	// 64-bit offset; the count stays 32-bit. 16-alignment keeps key blocks
	// SIMD-loadable.
	animKeysRule = format.FieldRule{
		Name:        "animation.track.keys",
		Layout:      format.LayoutCountOffset,
		Width:       format.Width64,
		CountWidth:  format.Width32,
		Align:       16,
		EmptyAsNull: true,
	}
)

// Key is one keyframe sample: a time in ticks and a four-component value
// (quaternion for rotation tracks, xyz+w for the rest).
type Key struct {
	Time  float32
	Value [4]float32
}

// Track animates one target, addressed by the 32-bit mixing hash of the
// target bone's name. Storing only the hash keeps track records fixed-size;
// the skeleton's name table recovers the string when needed.
type Track struct {
	TargetHash uint32
	Keys       []Key
}

// Animation is a decoded ANIM container.
type Animation struct {
	Name     string
	Duration float32
	TickRate float32
	Tracks   []Track
}

// TrackFor returns the hash key used to look up the track animating the
// given bone name.
func TrackFor(boneName string) uint32 {
	return hash.Name(boneName)
}

// DecodeAnimation parses an ANIM blob.
func DecodeAnimation(data []byte, engine endian.EndianEngine) (*Animation, error) {
	r := stream.NewReader(data, engine)
	base := r.Tell()

	if _, err := container.ReadHeader(r, AnimationMagic, AnimationVersion); err != nil {
		return nil, err
	}

	a := &Animation{}
	var err error

	if a.Name, err = relo.ReadResolveString(r, base, animNameRule); err != nil {
		return nil, err
	}
	if a.Duration, err = r.Float32(); err != nil {
		return nil, err
	}
	if a.TickRate, err = r.Float32(); err != nil {
		return nil, err
	}

	a.Tracks, err = relo.ReadResolveSlice(r, base, animTracksRule, func(r *stream.Reader) (Track, error) {
		return decodeTrack(r, base)
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

func decodeTrack(r *stream.Reader, base int64) (Track, error) {
	var t Track
	var err error

	if t.TargetHash, err = r.Uint32(); err != nil {
		return t, err
	}

	t.Keys, err = relo.ReadResolveSlice(r, base, animKeysRule, decodeKey)

	return t, err
}

func decodeKey(r *stream.Reader) (Key, error) {
	var k Key
	var err error

	if k.Time, err = r.Float32(); err != nil {
		return k, err
	}
	err = readFloat4(r, &k.Value)

	return k, err
}

// Encode serializes the animation. Track records are emitted as one block;
// each track's key array follows in track order, then the name pool.
func (a *Animation) Encode(engine endian.EndianEngine) ([]byte, error) {
	w := stream.NewWriter(engine)
	defer w.Release()

	base := w.Tell()
	if err := container.WriteHeader(w, container.Header{Magic: AnimationMagic, Version: AnimationVersion}); err != nil {
		return nil, err
	}

	dw := relo.NewWriter(w, base)
	names := relo.NewStringPool(format.OrderInsertion)

	if err := names.Defer(w, animNameRule, a.Name); err != nil {
		return nil, err
	}
	if err := w.WriteFloat32(a.Duration); err != nil {
		return nil, err
	}
	if err := w.WriteFloat32(a.TickRate); err != nil {
		return nil, err
	}

	err := dw.Defer(animTracksRule, uint64(len(a.Tracks)), func(w *stream.Writer) error {
		// Key arrays are deferred from inside this emit callback; they join
		// the visitation order after the track block and are flushed by the
		// same pass.
		for i := range a.Tracks {
			if err := encodeTrack(w, dw, &a.Tracks[i]); err != nil {
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

func encodeTrack(w *stream.Writer, dw *relo.Writer, t *Track) error {
	if err := w.WriteUint32(t.TargetHash); err != nil {
		return err
	}

	keys := t.Keys

	return dw.Defer(animKeysRule, uint64(len(keys)), func(w *stream.Writer) error {
		for i := range keys {
			if err := encodeKey(w, &keys[i]); err != nil {
				return err
			}
		}

		return nil
	})
}

func encodeKey(w *stream.Writer, k *Key) error {
	if err := w.WriteFloat32(k.Time); err != nil {
		return err
	}

	return writeFloat4(w, k.Value)
}
