package object

import (
	"fmt"
	"math"

	"github.com/robert-malhotra/go-lnqm/internal/binary"
	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Size returns the number of bytes WriteHeader will emit for msgs.
func Size(cfg binary.Config, msgs []message.Serializable) int {
	n := prefixSize + checksumSize
	for _, m := range msgs {
		n += frameSize + m.SerializedSize(cfg)
	}
	return n
}

// WriteHeader writes an object header at the writer's position. The header is
// staged in memory so the checksum can be appended. It returns the number of
// bytes written.
func WriteHeader(w *binary.Writer, kind Kind, msgs []message.Serializable) (int64, error) {
	if len(msgs) > math.MaxUint16 {
		return 0, fmt.Errorf("%w: %d messages", ErrInvalidHeader, len(msgs))
	}
	cfg := w.Config()
	total := Size(cfg, msgs)
	payloadLen := total - prefixSize - checksumSize
	if uint64(payloadLen) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: payload of %d bytes", ErrInvalidHeader, payloadLen)
	}

	buf := binary.NewBuffer(total)
	bw := binary.NewWriter(buf, cfg)
	if err := bw.WriteBytes(Signature); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(Version); err != nil {
		return 0, err
	}
	if err := bw.WriteUint8(uint8(kind)); err != nil {
		return 0, err
	}
	if err := bw.WriteUint16(uint16(len(msgs))); err != nil {
		return 0, err
	}
	if err := bw.WriteUint32(uint32(payloadLen)); err != nil {
		return 0, err
	}

	for _, m := range msgs {
		size := m.SerializedSize(cfg)
		if err := bw.WriteUint16(uint16(m.Type())); err != nil {
			return 0, err
		}
		if err := bw.WriteUint32(uint32(size)); err != nil {
			return 0, err
		}
		start := bw.Pos()
		if err := m.Serialize(bw); err != nil {
			return 0, fmt.Errorf("serializing %s message: %w", m.Type(), err)
		}
		if got := int(bw.Pos() - start); got != size {
			return 0, fmt.Errorf("%s message: wrote %d bytes, declared %d", m.Type(), got, size)
		}
	}

	if err := bw.WriteUint64(binary.Checksum(buf.Bytes())); err != nil {
		return 0, err
	}
	if err := w.WriteBytes(buf.Bytes()); err != nil {
		return 0, err
	}
	return int64(buf.Len()), nil
}

// NewGroupMessages builds the messages of a group header. Links are written in
// the given order.
func NewGroupMessages(links []*message.Link, attrs []*message.Attribute) []message.Serializable {
	msgs := make([]message.Serializable, 0, len(links)+len(attrs))
	for _, l := range links {
		msgs = append(msgs, l)
	}
	for _, a := range attrs {
		msgs = append(msgs, a)
	}
	return msgs
}

// NewBlobMessages builds the messages of a blob header. The filter pipeline is
// omitted when nil or empty.
func NewBlobMessages(dt *message.Datatype, ds *message.Dataspace, layout *message.Layout,
	pipeline *message.FilterPipeline, attrs []*message.Attribute) []message.Serializable {
	msgs := []message.Serializable{dt, ds, layout}
	if pipeline != nil && len(pipeline.Filters) > 0 {
		msgs = append(msgs, pipeline)
	}
	for _, a := range attrs {
		msgs = append(msgs, a)
	}
	return msgs
}
