// Package crc32c computes CRC32 checksums using the Castagnoli polynomial,
// used by the persistent CBOR storage footer and by the owned byte buffer.
package crc32c

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// Checksum returns the CRC32-C of data.
func Checksum(data []byte) uint32 {
	return crc32.Checksum(data, table)
}
