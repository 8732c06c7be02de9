package object

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Signature opens every object header.
var Signature = []byte{'O', 'B', 'J', 'H'}

// Version is the only header version understood.
const Version = 1

const (
	prefixSize   = 4 + 1 + 1 + 2 + 4
	frameSize    = 2 + 4
	checksumSize = 8
)

// Errors
var (
	ErrInvalidHeader      = errors.New("invalid object header")
	ErrUnsupportedVersion = errors.New("unsupported object header version")
	ErrChecksumMismatch   = errors.New("object header checksum mismatch")
)

// Kind tells groups and blobs apart.
type Kind uint8

const (
	KindGroup Kind = 1
	KindBlob  Kind = 2
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindBlob:
		return "blob"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Header is a parsed object header.
type Header struct {
	// Address is the file address where this header was found.
	Address uint64

	Kind     Kind
	Messages []message.Message
}

// Read parses and verifies the object header at address.
func Read(r *binary.Reader, address uint64) (*Header, error) {
	hr := r.At(int64(address))

	prefix, err := hr.ReadBytes(prefixSize)
	if err != nil {
		return nil, fmt.Errorf("reading object header at %d: %w", address, err)
	}
	if string(prefix[:4]) != string(Signature) {
		return nil, fmt.Errorf("%w: bad signature at address %d", ErrInvalidHeader, address)
	}
	if prefix[4] != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, prefix[4])
	}

	order := r.ByteOrder()
	h := &Header{Address: address, Kind: Kind(prefix[5])}
	if h.Kind != KindGroup && h.Kind != KindBlob {
		return nil, fmt.Errorf("%w: %s at address %d", ErrInvalidHeader, h.Kind, address)
	}
	count := order.Uint16(prefix[6:8])
	payloadLen := order.Uint32(prefix[8:12])

	payload, err := hr.ReadBytes(int(payloadLen))
	if err != nil {
		return nil, fmt.Errorf("reading object header payload: %w", err)
	}
	stored, err := hr.ReadUint64()
	if err != nil {
		return nil, fmt.Errorf("reading object header checksum: %w", err)
	}

	covered := make([]byte, 0, len(prefix)+len(payload))
	covered = append(append(covered, prefix...), payload...)
	if !binary.VerifyChecksum(covered, stored) {
		return nil, fmt.Errorf("%w at address %d", ErrChecksumMismatch, address)
	}

	pr := binary.NewBytesReader(payload, r.Config())
	h.Messages = make([]message.Message, 0, count)
	for i := 0; i < int(count); i++ {
		typ, err := pr.ReadUint16()
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		size, err := pr.ReadUint32()
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		body, err := pr.ReadBytes(int(size))
		if err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		msg, err := message.Parse(message.Type(typ), body, r.Config())
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
		}
		h.Messages = append(h.Messages, msg)
	}
	if pr.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidHeader, pr.Remaining())
	}
	return h, nil
}

// GetMessage returns the first message of the given type, or nil if not found.
func (h *Header) GetMessage(typ message.Type) message.Message {
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			return msg
		}
	}
	return nil
}

// GetMessages returns all messages of the given type.
func (h *Header) GetMessages(typ message.Type) []message.Message {
	var result []message.Message
	for _, msg := range h.Messages {
		if msg.Type() == typ {
			result = append(result, msg)
		}
	}
	return result
}

// Dataspace returns the dataspace message if present.
func (h *Header) Dataspace() *message.Dataspace {
	msg, _ := h.GetMessage(message.TypeDataspace).(*message.Dataspace)
	return msg
}

// Datatype returns the datatype message if present.
func (h *Header) Datatype() *message.Datatype {
	msg, _ := h.GetMessage(message.TypeDatatype).(*message.Datatype)
	return msg
}

// Layout returns the layout message if present.
func (h *Header) Layout() *message.Layout {
	msg, _ := h.GetMessage(message.TypeLayout).(*message.Layout)
	return msg
}

// FilterPipeline returns the filter pipeline message if present.
func (h *Header) FilterPipeline() *message.FilterPipeline {
	msg, _ := h.GetMessage(message.TypeFilterPipeline).(*message.FilterPipeline)
	return msg
}

// Links returns the group's member links in stored order.
func (h *Header) Links() []*message.Link {
	var links []*message.Link
	for _, msg := range h.GetMessages(message.TypeLink) {
		links = append(links, msg.(*message.Link))
	}
	return links
}

// Attributes returns all attribute messages.
func (h *Header) Attributes() []*message.Attribute {
	var attrs []*message.Attribute
	for _, msg := range h.GetMessages(message.TypeAttribute) {
		attrs = append(attrs, msg.(*message.Attribute))
	}
	return attrs
}

// Attribute returns the named attribute, or nil.
func (h *Header) Attribute(name string) *message.Attribute {
	for _, a := range h.Attributes() {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// IsGroup reports whether the header describes a group.
func (h *Header) IsGroup() bool { return h.Kind == KindGroup }

// IsBlob reports whether the header describes a blob.
func (h *Header) IsBlob() bool { return h.Kind == KindBlob }
