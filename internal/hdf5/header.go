package hdf5

import (
	"bytes"
	"encoding/binary"
	"fmt"

	binpkg "github.com/robert-malhotra/go-lnqm/internal/binary"
)

// Header message types read by this package.
const (
	msgNIL          uint16 = 0x00
	msgDataspace    uint16 = 0x01
	msgLinkInfo     uint16 = 0x02
	msgDatatype     uint16 = 0x03
	msgLink         uint16 = 0x06
	msgLayout       uint16 = 0x08
	msgAttribute    uint16 = 0x0C
	msgContinuation uint16 = 0x10
	msgSymbolTable  uint16 = 0x11
)

// flagShared marks a message stored elsewhere in the file.
const flagShared = 0x02

const (
	maxHeaderBlocks = 1024
	maxBlockSize    = 64 << 20
)

var (
	headerSignature       = []byte{'O', 'H', 'D', 'R'}
	continuationSignature = []byte{'O', 'C', 'H', 'K'}
)

type rawMessage struct {
	typ   uint16
	flags uint8
	data  []byte
}

type block struct {
	address uint64
	length  uint64
}

// readMessages returns the messages of the object header at address,
// following continuation blocks.
func (r *Reader) readMessages(address uint64) ([]rawMessage, error) {
	sig, err := r.data.At(int64(address)).Peek(4)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(sig, headerSignature) {
		return r.readMessagesV2(address)
	}
	return r.readMessagesV1(address)
}

func (r *Reader) readBlock(b block) ([]byte, error) {
	if b.length > maxBlockSize {
		return nil, fmt.Errorf("%w: header block of %d bytes at %d", ErrCorrupt, b.length, b.address)
	}
	return r.data.At(int64(b.address)).ReadBytes(int(b.length))
}

func (r *Reader) continuation(data []byte) (block, error) {
	cr := binpkg.NewBytesReader(data, r.sb.Config)
	addr, err := cr.ReadOffset()
	if err != nil {
		return block{}, fmt.Errorf("%w: continuation message: %w", ErrCorrupt, err)
	}
	length, err := cr.ReadLength()
	if err != nil {
		return block{}, fmt.Errorf("%w: continuation message: %w", ErrCorrupt, err)
	}
	return block{address: addr, length: length}, nil
}

// readMessagesV1 reads a version 1 header: a 16-byte prefix, then messages
// framed as type(2) size(2) flags(1) reserved(3) and padded to 8 bytes.
func (r *Reader) readMessagesV1(address uint64) ([]rawMessage, error) {
	prefix, err := r.data.At(int64(address)).ReadBytes(16)
	if err != nil {
		return nil, err
	}
	if prefix[0] != 1 {
		return nil, fmt.Errorf("%w: object header version %d at %d", ErrUnsupported, prefix[0], address)
	}
	size := binary.LittleEndian.Uint32(prefix[8:12])

	var msgs []rawMessage
	blocks := []block{{address: address + 16, length: uint64(size)}}
	for i := 0; i < len(blocks); i++ {
		if i == maxHeaderBlocks {
			return nil, fmt.Errorf("%w: more than %d header blocks", ErrCorrupt, maxHeaderBlocks)
		}
		data, err := r.readBlock(blocks[i])
		if err != nil {
			return nil, err
		}
		for pos := 0; pos+8 <= len(data); {
			typ := binary.LittleEndian.Uint16(data[pos:])
			n := int(binary.LittleEndian.Uint16(data[pos+2:]))
			flags := data[pos+4]
			pos += 8
			if pos+n > len(data) {
				return nil, fmt.Errorf("%w: message 0x%x overruns header block", ErrCorrupt, typ)
			}
			body := data[pos : pos+n]
			pos += n

			if typ == msgContinuation {
				next, err := r.continuation(body)
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, next)
				continue
			}
			if typ != msgNIL {
				msgs = append(msgs, rawMessage{typ: typ, flags: flags, data: body})
			}
		}
	}
	return msgs, nil
}

// readMessagesV2 reads a version 2 header. The first chunk and every
// continuation chunk end with a lookup3 checksum.
func (r *Reader) readMessagesV2(address uint64) ([]rawMessage, error) {
	hr := r.data.At(int64(address))
	head, err := hr.ReadBytes(6)
	if err != nil {
		return nil, err
	}
	if head[4] != 2 {
		return nil, fmt.Errorf("%w: object header version %d at %d", ErrUnsupported, head[4], address)
	}
	flags := head[5]
	if flags&0x20 != 0 {
		hr.Skip(16) // access, modification, change and birth times
	}
	if flags&0x10 != 0 {
		hr.Skip(4) // attribute phase change values
	}
	chunk0, err := hr.ReadUintN(1 << (flags & 0x03))
	if err != nil {
		return nil, err
	}
	if chunk0 > maxBlockSize {
		return nil, fmt.Errorf("%w: header chunk of %d bytes at %d", ErrCorrupt, chunk0, address)
	}
	prefixLen := uint64(hr.Pos()) - address
	ordered := flags&0x04 != 0

	first, err := r.readBlock(block{address: address, length: prefixLen + chunk0 + 4})
	if err != nil {
		return nil, err
	}
	if err := verifyChunk(first, address); err != nil {
		return nil, err
	}

	msgs, blocks, err := r.parseMessagesV2(first[prefixLen:len(first)-4], ordered, nil)
	if err != nil {
		return nil, err
	}
	for i := 0; i < len(blocks); i++ {
		if i == maxHeaderBlocks {
			return nil, fmt.Errorf("%w: more than %d header blocks", ErrCorrupt, maxHeaderBlocks)
		}
		data, err := r.readBlock(blocks[i])
		if err != nil {
			return nil, err
		}
		if len(data) < 8 || !bytes.Equal(data[:4], continuationSignature) {
			return nil, fmt.Errorf("%w: no continuation signature at %d", ErrCorrupt, blocks[i].address)
		}
		if err := verifyChunk(data, blocks[i].address); err != nil {
			return nil, err
		}
		var more []rawMessage
		if more, blocks, err = r.parseMessagesV2(data[4:len(data)-4], ordered, blocks); err != nil {
			return nil, err
		}
		msgs = append(msgs, more...)
	}
	return msgs, nil
}

func verifyChunk(data []byte, address uint64) error {
	body := data[:len(data)-4]
	want := binary.LittleEndian.Uint32(data[len(data)-4:])
	if got := binpkg.Lookup3Checksum(body); got != want {
		return fmt.Errorf("%w: object header chunk at %d stored %08x, computed %08x",
			ErrChecksumMismatch, address, want, got)
	}
	return nil
}

// parseMessagesV2 splits a chunk into messages framed as type(1) size(2)
// flags(1) and, when creation order is tracked, order(2). Trailing bytes too
// short for a frame are a gap.
func (r *Reader) parseMessagesV2(data []byte, ordered bool, blocks []block) ([]rawMessage, []block, error) {
	frame := 4
	if ordered {
		frame = 6
	}
	var msgs []rawMessage
	for pos := 0; pos+frame <= len(data); {
		typ := uint16(data[pos])
		n := int(binary.LittleEndian.Uint16(data[pos+1:]))
		flags := data[pos+3]
		pos += frame
		if pos+n > len(data) {
			return nil, nil, fmt.Errorf("%w: message 0x%x overruns header chunk", ErrCorrupt, typ)
		}
		body := data[pos : pos+n]
		pos += n

		switch typ {
		case msgContinuation:
			next, err := r.continuation(body)
			if err != nil {
				return nil, nil, err
			}
			blocks = append(blocks, next)
		case msgNIL:
		default:
			msgs = append(msgs, rawMessage{typ: typ, flags: flags, data: body})
		}
	}
	return msgs, blocks, nil
}
