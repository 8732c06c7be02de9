// Package filter implements the blob filter pipeline.
//
// Filters transform the encoded bytes of a blob before they are stored. When
// writing, filters run in pipeline order; when reading they run in reverse, so
// a blob written with [Shuffle, Zstd] is decompressed first and unshuffled
// second.
//
// # Supported Filters
//
//   - Deflate (ID 1): zlib compression via [Deflate], backed by
//     github.com/klauspost/compress/zlib. Client data [0] is the level.
//
//   - Shuffle (ID 2): byte shuffling via [Shuffle]. Groups byte 0 of every
//     element, then byte 1, and so on. Client data [0] is the element size.
//
//   - Fletcher32 (ID 3): checksum via [Fletcher32Filter]. Appends a 32-bit
//     Fletcher checksum and verifies it on read.
//
//   - LZ4 (ID 32004): block compression via [LZ4], backed by
//     github.com/pierrec/lz4/v4. Client data [0] is the block size.
//
//   - Zstandard (ID 32015): frame compression via [Zstd], backed by
//     github.com/klauspost/compress/zstd. Client data [0] is the level.
//
// Unknown filters fail the read unless the pipeline marks them optional, in
// which case they are skipped.
//
// # Key Types
//
//   - [Filter]: interface implemented by all filters
//   - [Pipeline]: an ordered list of filters built from a pipeline message
package filter
