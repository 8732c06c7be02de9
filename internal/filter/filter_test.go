package filter

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// sampleData looks like a little-endian int64 offsets column: small,
// monotonically increasing values with mostly zero high bytes.
func sampleData(n int) []byte {
	out := make([]byte, 0, 8*n)
	for i := 0; i < n; i++ {
		out = binary.LittleEndian.AppendUint64(out, uint64(i*3))
	}
	return out
}

func TestRoundTripAllFilters(t *testing.T) {
	inputs := map[string][]byte{
		"empty":    {},
		"small":    []byte("hello"),
		"offsets":  sampleData(5000),
		"random":   randomBytes(10000),
		"repeated": bytes.Repeat([]byte{0xAB}, 3*DefaultLZ4BlockSize/2),
	}
	for id, ctor := range Registry {
		for name, in := range inputs {
			t.Run(Name(id)+"/"+name, func(t *testing.T) {
				f := ctor(nil)
				assert.Equal(t, id, f.ID())

				enc, err := f.Encode(in)
				require.NoError(t, err)
				dec, err := f.Decode(enc)
				require.NoError(t, err)
				assert.Equal(t, len(in), len(dec))
				assert.True(t, bytes.Equal(in, dec))
			})
		}
	}
}

func randomBytes(n int) []byte {
	r := rand.New(rand.NewPCG(1, 2))
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(r.IntN(256))
	}
	return out
}

func TestDeflateReadsStandardZlib(t *testing.T) {
	original := []byte("Hello, World! This is test data for compression testing.")

	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(original)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	decompressed, err := NewDeflate(nil).Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, original, decompressed)
}

func TestShuffleLayout(t *testing.T) {
	original := []byte{
		0x01, 0x02, 0x03, 0x04, // Element 0
		0x11, 0x12, 0x13, 0x14, // Element 1
		0x21, 0x22, 0x23, 0x24, // Element 2
		0x31, 0x32, 0x33, 0x34, // Element 3
		0xFF, // Trailing byte
	}
	shuffled := []byte{
		0x01, 0x11, 0x21, 0x31, // All byte 0s
		0x02, 0x12, 0x22, 0x32, // All byte 1s
		0x03, 0x13, 0x23, 0x33, // All byte 2s
		0x04, 0x14, 0x24, 0x34, // All byte 3s
		0xFF,
	}

	f := NewShuffle([]uint32{4})
	got, err := f.Encode(original)
	require.NoError(t, err)
	assert.Equal(t, shuffled, got)

	back, err := f.Decode(shuffled)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}

func TestFletcher32DetectsCorruption(t *testing.T) {
	f := NewFletcher32(nil)
	enc, err := f.Encode([]byte("abcde"))
	require.NoError(t, err)
	assert.Equal(t, uint32(0xF04FC729), binary.LittleEndian.Uint32(enc[5:]))

	enc[0] ^= 1
	_, err = f.Decode(enc)
	assert.ErrorIs(t, err, ErrChecksumMismatch)

	_, err = f.Decode([]byte{1, 2})
	assert.Error(t, err)
}

func TestLZ4Corruption(t *testing.T) {
	f := NewLZ4([]uint32{64})
	enc, err := f.Encode(sampleData(100))
	require.NoError(t, err)

	_, err = f.Decode(enc[:len(enc)-1])
	assert.Error(t, err)

	_, err = f.Decode(append(append([]byte(nil), enc...), 0))
	assert.ErrorContains(t, err, "trailing")

	huge := append([]byte(nil), enc...)
	binary.BigEndian.PutUint64(huge, 1<<40)
	_, err = f.Decode(huge)
	assert.ErrorContains(t, err, "inconsistent")
}

func TestPipelineOrder(t *testing.T) {
	fp := &message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: message.FilterShuffle, ClientData: []uint32{8}},
		{ID: message.FilterZstd, ClientData: []uint32{3}},
		{ID: message.FilterFletcher32},
	}}
	p, err := NewPipeline(fp)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Len())

	in := sampleData(1000)
	enc, err := p.Encode(in)
	require.NoError(t, err)
	assert.Less(t, len(enc), len(in))

	// The last filter applied on write is the outermost layer.
	_, err = NewFletcher32(nil).Decode(enc)
	require.NoError(t, err)

	dec, err := p.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, in, dec)
}

func TestPipelineUnknownFilters(t *testing.T) {
	_, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{{ID: 4}}})
	assert.True(t, errors.Is(err, ErrUnsupported))

	p, err := NewPipeline(&message.FilterPipeline{Filters: []message.FilterInfo{
		{ID: 4, Flags: message.FilterFlagOptional},
		{ID: message.FilterDeflate},
	}})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Len())

	empty, err := NewPipeline(nil)
	require.NoError(t, err)
	assert.True(t, empty.Empty())
	out, err := empty.Decode([]byte{1})
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, out)
}

func TestName(t *testing.T) {
	assert.Equal(t, "zstd", Name(message.FilterZstd))
	assert.Equal(t, "filter(4)", Name(4))
}
