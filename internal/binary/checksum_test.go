package binary

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumDetectsSingleBitFlip(t *testing.T) {
	data := []byte("superblock payload")
	sum := Checksum(data)
	assert.True(t, VerifyChecksum(data, sum))

	flipped := append([]byte(nil), data...)
	flipped[3] ^= 0x01
	assert.False(t, VerifyChecksum(flipped, sum))
}

func TestChecksumLengthVariations(t *testing.T) {
	seen := make(map[uint64]int)
	for length := 0; length <= 24; length++ {
		data := make([]byte, length)
		for i := range data {
			data[i] = byte(i)
		}
		seen[Checksum(data)] = length
	}
	assert.Len(t, seen, 25)
}

func TestFletcher32(t *testing.T) {
	assert.Equal(t, uint32(0), Fletcher32(nil))

	// "abcde" is the classic reference vector for Fletcher-32 over 16-bit words.
	assert.Equal(t, uint32(0xF04FC729), Fletcher32([]byte("abcde")))

	odd := []byte{0x01, 0x02, 0x03}
	even := []byte{0x01, 0x02, 0x03, 0x00}
	assert.Equal(t, Fletcher32(even), Fletcher32(odd), "odd input is zero padded")

	data := []byte("test data for verification")
	sum := Fletcher32(data)
	assert.True(t, VerifyFletcher32(data, sum))
	assert.False(t, VerifyFletcher32(data, sum+1))
}

func BenchmarkChecksum(b *testing.B) {
	data := make([]byte, 4096)
	for i := range data {
		data[i] = byte(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Checksum(data)
	}
}

func TestLookup3Checksum(t *testing.T) {
	assert.Equal(t, uint32(0xdeadbeef), Lookup3Checksum(nil))
	assert.Equal(t, uint32(0x17770551), Lookup3Checksum([]byte("Four score and seven years ago")))
	assert.NotEqual(t, Lookup3Checksum([]byte("Four score and seven years ago")),
		Lookup3Checksum([]byte("Four score and seven years agO")))
}
