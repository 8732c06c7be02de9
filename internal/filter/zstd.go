package filter

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Decoders are level independent, so one pool serves every Zstd filter.
var zstdDecoderPool sync.Pool

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Encoders are pooled per level.
var zstdEncoderPools sync.Map // zstd.EncoderLevel -> *sync.Pool

func getZstdEncoder(level zstd.EncoderLevel) (*zstd.Encoder, *sync.Pool, error) {
	p, _ := zstdEncoderPools.LoadOrStore(level, &sync.Pool{})
	pool := p.(*sync.Pool)
	if v := pool.Get(); v != nil {
		return v.(*zstd.Encoder), pool, nil
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	return enc, pool, err
}

// Zstd implements Zstandard compression. Each stored blob is one zstd frame.
type Zstd struct {
	level zstd.EncoderLevel
}

// NewZstd creates a new Zstandard filter.
// Client data: [0] = compression level (1-22, or default if empty)
func NewZstd(clientData []uint32) *Zstd {
	level := zstd.SpeedDefault
	if len(clientData) > 0 && clientData[0] > 0 {
		level = zstd.EncoderLevelFromZstd(int(clientData[0]))
	}
	return &Zstd{level: level}
}

func (f *Zstd) ID() uint16 {
	return message.FilterZstd
}

func (f *Zstd) Encode(input []byte) ([]byte, error) {
	enc, pool, err := getZstdEncoder(f.level)
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer pool.Put(enc)
	return enc.EncodeAll(input, nil), nil
}

func (f *Zstd) Decode(input []byte) ([]byte, error) {
	dec, err := getZstdDecoder()
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer putZstdDecoder(dec)

	out, err := dec.DecodeAll(input, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
