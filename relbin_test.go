package relbin

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arkheio/relbin/container"
	"github.com/arkheio/relbin/errs"
	"github.com/arkheio/relbin/format"
	"github.com/arkheio/relbin/schema"
)

func TestDetect(t *testing.T) {
	require := require.New(t)

	tests := []struct {
		data []byte
		want Kind
	}{
		{[]byte("MODL...."), KindModel},
		{[]byte("SKEL...."), KindSkeleton},
		{[]byte("ANIM...."), KindAnimation},
		{[]byte("TXTR...."), KindTexture},
		{[]byte("SHDR...."), KindShader},
		{[]byte("SCNE...."), KindScene},
		{[]byte("PACK...."), KindArchive},
		{[]byte("ZCMP...."), KindEnvelope},
	}

	for _, tt := range tests {
		kind, err := Detect(tt.data)
		require.NoError(err)
		require.Equal(tt.want, kind)
	}
}

func TestDetectUnknownAndShort(t *testing.T) {
	require := require.New(t)

	_, err := Detect([]byte("JUNKJUNK"))
	require.ErrorIs(err, errs.ErrInvalidMagic)

	_, err = Detect([]byte("MO"))
	require.ErrorIs(err, errs.ErrShortBuffer)
}

func TestTopLevelRoundTrip(t *testing.T) {
	require := require.New(t)

	s := &schema.Skeleton{Bones: []schema.Bone{
		{Name: "bone_root", Parent: schema.RootBone, Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}},
	}}
	encoded, err := s.Encode(DefaultEngine())
	require.NoError(err)

	kind, err := Detect(encoded)
	require.NoError(err)
	require.Equal(KindSkeleton, kind)

	decoded, err := DecodeSkeleton(encoded)
	require.NoError(err)
	require.Equal(s, decoded)
}

func TestEnvelopeDispatch(t *testing.T) {
	require := require.New(t)

	a := &schema.Animation{Name: "idle", TickRate: 30}
	inner, err := a.Encode(DefaultEngine())
	require.NoError(err)

	sealed, err := container.SealEnvelope("ANIM", format.CompressionZstd, inner, DefaultEngine())
	require.NoError(err)

	kind, err := Detect(sealed)
	require.NoError(err)
	require.Equal(KindEnvelope, kind)

	env, err := OpenEnvelope(sealed)
	require.NoError(err)
	require.Equal("ANIM", env.Tag)

	kind, err = Detect(env.Payload)
	require.NoError(err)
	require.Equal(KindAnimation, kind)

	decoded, err := DecodeAnimation(env.Payload)
	require.NoError(err)
	require.Equal(a, decoded)
}

func TestArchiveOfContainers(t *testing.T) {
	require := require.New(t)

	model := &schema.Model{Name: "crate"}
	modelBytes, err := model.Encode(DefaultEngine())
	require.NoError(err)

	a := &container.Archive{Entries: []container.Entry{
		{Tag: schema.ModelMagic, Name: "props/crate", Data: modelBytes},
	}}
	packed, err := a.Encode(DefaultEngine())
	require.NoError(err)

	kind, err := Detect(packed)
	require.NoError(err)
	require.Equal(KindArchive, kind)

	decoded, err := DecodeArchive(packed)
	require.NoError(err)

	entry, err := decoded.FindID(AssetID("props/crate"))
	require.NoError(err)

	m, err := DecodeModel(entry.Data)
	require.NoError(err)
	require.Equal("crate", m.Name)
}

func TestNameHashMatchesSchema(t *testing.T) {
	require.Equal(t, schema.TrackFor("bone_root"), NameHash("bone_root"))
}
