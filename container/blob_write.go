package container

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-lnqm/internal/dtype"
	"github.com/robert-malhotra/go-lnqm/internal/filter"
	"github.com/robert-malhotra/go-lnqm/internal/message"
	"github.com/robert-malhotra/go-lnqm/internal/object"
)

// maxCompactSize is the largest stored payload kept inside the object header.
const maxCompactSize = 64

// CreateBlob writes a new blob holding data, which must be a slice of
// int8-64, uint8-64, int, uint, float32, float64 or string. The element type
// decides the stored datatype.
func (g *Group) CreateBlob(name string, data any, opts ...BlobOption) (*Blob, error) {
	if err := g.prepareMember(name); err != nil {
		return nil, err
	}

	options := defaultBlobOptions()
	for _, opt := range opts {
		opt(options)
	}

	v := reflect.ValueOf(data)
	if v.Kind() != reflect.Slice {
		return nil, fmt.Errorf("blob %s: data must be a slice, got %T", name, data)
	}
	n := uint64(v.Len())

	datatype, err := dtype.FromGo(data)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", name, err)
	}

	shape := options.shape
	if shape == nil {
		shape = []uint64{n}
	}
	dataspace := message.NewDataspace(shape...)
	count, err := dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", name, err)
	}
	if count != n {
		return nil, fmt.Errorf("blob %s: shape %v holds %d elements, data has %d",
			name, shape, count, n)
	}

	raw, err := dtype.Encode(datatype, data)
	if err != nil {
		return nil, fmt.Errorf("blob %s: encoding data: %w", name, err)
	}

	fp := options.pipeline(dtype.ElementSize(datatype))
	pipeline, err := filter.NewPipeline(fp)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", name, err)
	}
	stored, err := pipeline.Encode(raw)
	if err != nil {
		return nil, fmt.Errorf("blob %s: %w", name, err)
	}

	var layout *message.Layout
	if len(stored) <= maxCompactSize {
		layout = message.NewCompactLayout(stored, uint64(len(raw)))
	} else {
		addr, err := g.file.writeData(stored)
		if err != nil {
			return nil, fmt.Errorf("blob %s: writing data: %w", name, err)
		}
		layout = message.NewContiguousLayout(addr, uint64(len(stored)), uint64(len(raw)))
	}

	attrs := make([]*message.Attribute, 0, len(options.attributes))
	for _, def := range options.attributes {
		attr, err := newAttribute(def.name, def.value)
		if err != nil {
			return nil, fmt.Errorf("blob %s: %w", name, err)
		}
		attrs = append(attrs, attr)
	}

	msgs := object.NewBlobMessages(datatype, dataspace, layout, fp, attrs)
	addr, err := g.file.writeHeader(object.KindBlob, msgs)
	if err != nil {
		return nil, fmt.Errorf("blob %s: writing header: %w", name, err)
	}
	g.node.members = append(g.node.members, &member{name: name, addr: addr})

	return g.file.openBlobAt(addr, joinPath(g.path, name))
}
