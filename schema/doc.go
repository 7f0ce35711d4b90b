// Package schema implements the shipped container formats on top of the relo
// engine: MODL models, SKEL skeletons, ANIM animations, TXTR textures, SHDR
// shaders, and SCNE scene graphs.
//
// Each format is a thin layer of field rules and record codecs; the offset
// protocol, string pooling, and alignment all come from the relo package.
// Every format guarantees round-trip identity: re-encoding a decoded
// container reproduces the original bytes exactly, padding included.
//
// Field rules are declared as package-level vars next to the format they
// belong to. Their layout variants, widths, alignments, and pad bytes are
// fixed per format version; changing any of them is a format break and
// requires a new accepted version.
package schema
