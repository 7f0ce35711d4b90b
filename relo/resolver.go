package relo

import (
	"fmt"

	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/stream"
)

// Ref is a decoded offset/count reference. For LayoutOffsetOnly fields the
// count is zero and must be supplied externally by the schema.
type Ref struct {
	Offset uint64
	Count  uint64
}

// Present reports whether the reference points at data. An offset of zero
// conventionally means "no data" unless the rule declares zero valid.
func (ref Ref) Present(rule format.FieldRule) bool {
	return ref.Offset != 0 || rule.ZeroIsValid
}

// ReadRef decodes an offset/count reference at the reader's cursor according
// to the field rule.
func ReadRef(r *stream.Reader, rule format.FieldRule) (Ref, error) {
	if err := rule.Validate(); err != nil {
		return Ref{}, err
	}

	var ref Ref
	var err error

	switch rule.Layout {
	case format.LayoutOffsetCount:
		if ref.Offset, err = r.UintN(rule.Width); err == nil {
			ref.Count, err = r.UintN(rule.EffectiveCountWidth())
		}
	case format.LayoutCountOffset:
		if ref.Count, err = r.UintN(rule.EffectiveCountWidth()); err == nil {
			ref.Offset, err = r.UintN(rule.Width)
		}
	case format.LayoutOffsetOnly:
		ref.Offset, err = r.UintN(rule.Width)
	}
	if err != nil {
		return Ref{}, fmt.Errorf("field %q: %w", rule.Name, err)
	}

	return ref, nil
}

// Resolve seeks to base+offset, runs fn, and restores the reader's cursor.
// Absent references (see Ref.Present) return nil without seeking.
func Resolve(r *stream.Reader, base int64, ref Ref, rule format.FieldRule, fn func(*stream.Reader) error) error {
	if !ref.Present(rule) {
		return nil
	}

	target := base + int64(ref.Offset)
	if target < 0 || target > r.Len() {
		return fmt.Errorf("%w: field %q: base %#x + offset %#x exceeds buffer length %d",
			errs.ErrOffsetOutOfRange, rule.Name, base, ref.Offset, r.Len())
	}

	return r.At(target, fn)
}

// ResolveBytes resolves a reference to a raw byte region of length n.
// Returns nil for absent references. The result is a copy.
func ResolveBytes(r *stream.Reader, base int64, ref Ref, rule format.FieldRule, n int) ([]byte, error) {
	if !ref.Present(rule) {
		return nil, nil
	}

	var out []byte
	err := Resolve(r, base, ref, rule, func(r *stream.Reader) error {
		b, err := r.Bytes(n)
		if err != nil {
			return fmt.Errorf("field %q: %w", rule.Name, err)
		}
		out = append([]byte(nil), b...)

		return nil
	})

	return out, err
}

// ResolveString resolves a reference to a NUL-terminated string. Absent
// references decode to the empty string.
func ResolveString(r *stream.Reader, base int64, ref Ref, rule format.FieldRule) (string, error) {
	if !ref.Present(rule) {
		return "", nil
	}

	var out string
	err := Resolve(r, base, ref, rule, func(r *stream.Reader) error {
		s, err := r.CString()
		if err != nil {
			return fmt.Errorf("field %q: %w", rule.Name, err)
		}
		out = s

		return nil
	})

	return out, err
}

// ResolveSlice resolves a reference to ref.Count elements decoded by elem.
// Absent references decode to nil. The element decoder may itself resolve
// nested references; the enclosing cursor is unaffected either way.
func ResolveSlice[T any](r *stream.Reader, base int64, ref Ref, rule format.FieldRule, elem func(*stream.Reader) (T, error)) ([]T, error) {
	if !ref.Present(rule) || ref.Count == 0 {
		return nil, nil
	}

	// Every element occupies at least one byte, so a count beyond the
	// buffer length can never decode; reject it before allocating.
	if ref.Count > uint64(r.Len()) {
		return nil, fmt.Errorf("%w: field %q: count %d exceeds buffer length %d",
			errs.ErrInvalidCount, rule.Name, ref.Count, r.Len())
	}

	out := make([]T, 0, ref.Count)
	err := Resolve(r, base, ref, rule, func(r *stream.Reader) error {
		for i := uint64(0); i < ref.Count; i++ {
			v, err := elem(r)
			if err != nil {
				return fmt.Errorf("field %q[%d]: %w", rule.Name, i, err)
			}
			out = append(out, v)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// ReadResolveSlice combines ReadRef and ResolveSlice for the common
// paired-count layouts.
func ReadResolveSlice[T any](r *stream.Reader, base int64, rule format.FieldRule, elem func(*stream.Reader) (T, error)) ([]T, error) {
	ref, err := ReadRef(r, rule)
	if err != nil {
		return nil, err
	}

	return ResolveSlice(r, base, ref, rule, elem)
}

// ReadResolveString combines ReadRef and ResolveString for offset-only
// string fields.
func ReadResolveString(r *stream.Reader, base int64, rule format.FieldRule) (string, error) {
	ref, err := ReadRef(r, rule)
	if err != nil {
		return "", err
	}

	return ResolveString(r, base, ref, rule)
}
