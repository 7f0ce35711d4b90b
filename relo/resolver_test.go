package relo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkheio/relbin/endian"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/stream"
)

var testArrayRule = format.FieldRule{
	Name:        "test.array",
	Layout:      format.LayoutOffsetCount,
	Width:       format.Width32,
	Align:       4,
	EmptyAsNull: true,
}

var testStringRule = format.FieldRule{
	Name:        "test.name",
	Layout:      format.LayoutOffsetOnly,
	Width:       format.Width32,
	EmptyAsNull: true,
}

func leReader(data []byte) *stream.Reader {
	return stream.NewReader(data, endian.GetLittleEndianEngine())
}

func TestReadRefLayouts(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		name string
		rule format.FieldRule
		data []byte
		want Ref
	}{
		{
			name: "offset then count",
			rule: format.FieldRule{Name: "f", Layout: format.LayoutOffsetCount, Width: format.Width32},
			data: []byte{0x10, 0, 0, 0, 0x03, 0, 0, 0},
			want: Ref{Offset: 0x10, Count: 3},
		},
		{
			name: "count then offset",
			rule: format.FieldRule{Name: "f", Layout: format.LayoutCountOffset, Width: format.Width32},
			data: []byte{0x03, 0, 0, 0, 0x10, 0, 0, 0},
			want: Ref{Offset: 0x10, Count: 3},
		},
		{
			name: "offset only",
			rule: format.FieldRule{Name: "f", Layout: format.LayoutOffsetOnly, Width: format.Width16},
			data: []byte{0x20, 0},
			want: Ref{Offset: 0x20},
		},
		{
			name: "64-bit offset with 32-bit count",
			rule: format.FieldRule{Name: "f", Layout: format.LayoutCountOffset, Width: format.Width64, CountWidth: format.Width32},
			data: []byte{0x02, 0, 0, 0, 0x40, 0, 0, 0, 0, 0, 0, 0},
			want: Ref{Offset: 0x40, Count: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := ReadRef(leReader(tt.data), tt.rule)
			require.NoError(err)
			require.Equal(tt.want, ref)
		})
	}
}

func TestReadRefInvalidRule(t *testing.T) {
	_, err := ReadRef(leReader(nil), format.FieldRule{Name: "bad"})
	require.ErrorIs(t, err, errs.ErrInvalidFieldRule)
}

func TestResolveRestoresCursor(t *testing.T) {
	require := require.New(t)

	// Layout: [0..3] header word, [4..7] child word.
	data := []byte{0xAA, 0xAA, 0xAA, 0xAA, 0x2A, 0, 0, 0}
	r := leReader(data)
	require.NoError(r.Seek(2))

	called := false
	err := Resolve(r, 0, Ref{Offset: 4}, testArrayRule, func(r *stream.Reader) error {
		called = true
		v, err := r.Uint32()
		require.NoError(err)
		require.Equal(uint32(42), v)
		return nil
	})
	require.NoError(err)
	require.True(called)
	require.Equal(int64(2), r.Tell())
}

func TestResolveZeroOffsetIsAbsent(t *testing.T) {
	require := require.New(t)

	r := leReader([]byte{1, 2, 3, 4})
	require.NoError(r.Seek(3))

	called := false
	err := Resolve(r, 0, Ref{Offset: 0}, testArrayRule, func(r *stream.Reader) error {
		called = true
		return nil
	})
	require.NoError(err)
	require.False(called, "zero offset must never trigger a seek")
	require.Equal(int64(3), r.Tell())
}

func TestResolveZeroIsValidOverride(t *testing.T) {
	require := require.New(t)

	rule := testArrayRule
	rule.ZeroIsValid = true

	r := leReader([]byte{0x07, 0, 0, 0})
	called := false
	err := Resolve(r, 0, Ref{Offset: 0}, rule, func(r *stream.Reader) error {
		called = true
		v, err := r.Uint32()
		require.NoError(err)
		require.Equal(uint32(7), v)
		return nil
	})
	require.NoError(err)
	require.True(called)
}

func TestResolveOutOfRange(t *testing.T) {
	require := require.New(t)

	r := leReader(make([]byte, 8))
	err := Resolve(r, 4, Ref{Offset: 100}, testArrayRule, func(r *stream.Reader) error { return nil })
	require.ErrorIs(err, errs.ErrOffsetOutOfRange)
	require.ErrorContains(err, "test.array")
}

func TestResolveBytesAndString(t *testing.T) {
	require := require.New(t)

	data := []byte{0, 0, 0, 0, 'p', 'a', 'k', 0, 0xDE, 0xAD}
	r := leReader(data)

	b, err := ResolveBytes(r, 0, Ref{Offset: 8}, testArrayRule, 2)
	require.NoError(err)
	require.Equal([]byte{0xDE, 0xAD}, b)

	s, err := ResolveString(r, 0, Ref{Offset: 4}, testStringRule)
	require.NoError(err)
	require.Equal("pak", s)

	// Absent cases.
	b, err = ResolveBytes(r, 0, Ref{}, testArrayRule, 2)
	require.NoError(err)
	require.Nil(b)

	s, err = ResolveString(r, 0, Ref{}, testStringRule)
	require.NoError(err)
	require.Equal("", s)
}

func TestResolveSliceNested(t *testing.T) {
	require := require.New(t)

	// Two elements at offset 4; each element is {value u16, stringOffset u32}
	// with strings at offsets 16 and 21 (relative to base 0).
	data := []byte{
		0xFF, 0xFF, 0xFF, 0xFF, // header filler
		0x01, 0x00, 0x10, 0x00, 0x00, 0x00, // elem 0: 1, off 16
		0x02, 0x00, 0x15, 0x00, 0x00, 0x00, // elem 1: 2, off 21
		'f', 'i', 'r', 's', 't', 0x00,
		's', 'e', 'c', 'o', 'n', 'd', 0x00,
	}
	r := leReader(data)
	require.NoError(r.Seek(1))

	type elem struct {
		value uint16
		name  string
	}

	got, err := ResolveSlice(r, 0, Ref{Offset: 4, Count: 2}, testArrayRule, func(r *stream.Reader) (elem, error) {
		var e elem
		v, err := r.Uint16()
		if err != nil {
			return e, err
		}
		e.value = v

		off, err := r.UintN(format.Width32)
		if err != nil {
			return e, err
		}
		e.name, err = ResolveString(r, 0, Ref{Offset: off}, testStringRule)

		return e, err
	})
	require.NoError(err)
	require.Equal([]elem{{1, "first"}, {2, "second"}}, got)
	require.Equal(int64(1), r.Tell(), "nested resolution must not move the caller's cursor")
}

func TestResolveSliceCountTooLarge(t *testing.T) {
	r := leReader(make([]byte, 16))
	_, err := ResolveSlice(r, 0, Ref{Offset: 4, Count: 1 << 40}, testArrayRule, func(r *stream.Reader) (byte, error) {
		return r.Uint8()
	})
	require.ErrorIs(t, err, errs.ErrInvalidCount)
}

func TestReadResolveSlice(t *testing.T) {
	require := require.New(t)

	// offset=8, count=2, elements u32 at 8.
	data := []byte{
		0x08, 0, 0, 0, 0x02, 0, 0, 0,
		0x0A, 0, 0, 0, 0x0B, 0, 0, 0,
	}
	r := leReader(data)

	got, err := ReadResolveSlice(r, 0, testArrayRule, func(r *stream.Reader) (uint32, error) {
		return r.Uint32()
	})
	require.NoError(err)
	require.Equal([]uint32{10, 11}, got)
	require.Equal(int64(8), r.Tell(), "cursor sits after the offset/count pair")
}
