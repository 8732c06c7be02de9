// Package superblock reads and writes the fixed block at offset 0 of every
// container file.
//
// Layout (little-endian):
//
//	signature     8 bytes, 0x89 'L' 'N' 'Q' '\r' '\n' 0x1a '\n'
//	version       uint8
//	offset size   uint8, 4 or 8
//	length size   uint8, 4 or 8
//	flags         uint8
//	eof address   offset
//	root address  offset
//	checksum      uint64, XXH3-64 over everything above
//
// The signature follows the PNG/HDF5 pattern: a high-bit byte catches 7-bit
// transfers and the CR LF, ^Z and LF bytes catch newline translation.
//
// Writers reserve [Size] bytes at offset 0, lay out every object after it and
// write the superblock last, so a file with a valid superblock is complete.
package superblock
