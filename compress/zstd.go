package compress

// ZstdCompressor provides Zstandard compression for asset payloads.
//
// Best suited for archive entries that are written once and shipped:
// compression is slower than S2 or LZ4 but the ratio on mesh and animation
// data is considerably better.
//
// The Compress/Decompress methods live in zstd_pure.go (default) and
// zstd_cgo.go (cgo_zstd build tag, links libzstd via valyala/gozstd).
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
