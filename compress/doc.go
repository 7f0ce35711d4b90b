// Package compress provides the payload codecs used by compressed asset
// envelopes and archive entries.
//
// Container payloads are compressed as a whole after encoding; the envelope
// header records which algorithm was applied so decoders can dispatch
// without guessing.
//
// The package defines three core interfaces:
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// Supported algorithms:
//   - None: passthrough (format.CompressionNone)
//   - Zlib: legacy envelopes from older toolchains (format.CompressionZlib)
//   - Zstd: best ratio for cold asset storage (format.CompressionZstd)
//   - S2: balanced speed and ratio (format.CompressionS2)
//   - LZ4: fastest decompression, used for texture payloads (format.CompressionLZ4)
//
// Zstd has two implementations selected at build time: the pure-Go
// klauspost/compress encoder by default, and valyala/gozstd behind the
// cgo_zstd build tag for toolchains that link libzstd.
//
// All codec implementations are safe for concurrent use.
package compress
