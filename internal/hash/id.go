// Package hash provides the hash functions used for container and name lookups.
//
// Three functions cover three different roles in the asset formats:
//
//   - ID: xxHash64 for archive entry identification (fast 64-bit lookups).
//   - Crc: table-driven CRC-32, used by material and shader name tables.
//   - Mix32: MurmurHash3 32-bit, used by skeleton bone and animation track
//     name tables. The formats store Mix32 of the name with seed 0 next to
//     the name offset so lookups can skip string comparison.
//
// All three are deterministic for fixed input; Crc and Mix32 hash the empty
// byte sequence to 0.
package hash

import (
	"hash/crc32"

	"github.com/cespare/xxhash/v2"
	"github.com/spaolacci/murmur3"
)

// ID computes the xxHash64 of the given string.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

// Crc computes the table-driven CRC-32 (IEEE polynomial) of data.
func Crc(data []byte) uint32 {
	return crc32.ChecksumIEEE(data)
}

// Mix32 computes the 32-bit MurmurHash3 of data with the given seed.
func Mix32(data []byte, seed uint32) uint32 {
	return murmur3.Sum32WithSeed(data, seed)
}

// Name hashes a symbol name the way the asset formats store it: MurmurHash3
// 32-bit with seed 0.
func Name(name string) uint32 {
	return murmur3.Sum32WithSeed([]byte(name), 0)
}
