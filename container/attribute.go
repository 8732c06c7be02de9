package container

import (
	"fmt"
	"reflect"

	"github.com/robert-malhotra/go-lnqm/internal/dtype"
	"github.com/robert-malhotra/go-lnqm/internal/message"
)

// Attribute represents a small named value attached to a group or blob.
type Attribute struct {
	msg *message.Attribute
}

// Name returns the attribute name.
func (a *Attribute) Name() string {
	return a.msg.Name
}

// Shape returns the dimensions of the attribute value.
func (a *Attribute) Shape() []uint64 {
	if a.msg.Dataspace.IsScalar() {
		return nil
	}
	return a.msg.Dataspace.Dimensions
}

// IsScalar returns true if the attribute is a scalar value.
func (a *Attribute) IsScalar() bool {
	return a.msg.Dataspace.IsScalar()
}

// TypeName returns a short name of the element type.
func (a *Attribute) TypeName() string {
	return a.msg.Datatype.String()
}

// Value decodes the attribute. Scalars decode to string, int64, uint64 or
// float64; arrays to the matching slice type.
func (a *Attribute) Value() (any, error) {
	dt := a.msg.Datatype
	n, err := a.msg.Dataspace.NumElements()
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s: %w", ErrCorrupt, a.msg.Name, err)
	}

	var vals any
	switch {
	case dt.IsString():
		vals, err = dtype.DecodeStrings(a.msg.Data, n)
	case dt.IsFloat():
		vals, err = dtype.ConvertToSlice[float64](dt, a.msg.Data, n)
	case dt.IsInteger() && dt.Signed:
		vals, err = dtype.ConvertToSlice[int64](dt, a.msg.Data, n)
	case dt.IsInteger():
		vals, err = dtype.ConvertToSlice[uint64](dt, a.msg.Data, n)
	default:
		return nil, fmt.Errorf("%w: attribute %s of type %s", ErrUnsupported, a.msg.Name, dt)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: attribute %s: %w", ErrCorrupt, a.msg.Name, err)
	}
	if !a.IsScalar() {
		return vals, nil
	}
	return reflect.ValueOf(vals).Index(0).Interface(), nil
}

// ReadString reads a scalar string attribute.
func (a *Attribute) ReadString() (string, error) {
	v, err := a.Value()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("attribute %s is %s, not a string", a.msg.Name, a.TypeName())
	}
	return s, nil
}

// ReadInt64 reads a scalar integer attribute.
func (a *Attribute) ReadInt64() (int64, error) {
	v, err := a.Value()
	if err != nil {
		return 0, err
	}
	switch x := v.(type) {
	case int64:
		return x, nil
	case uint64:
		return int64(x), nil
	default:
		return 0, fmt.Errorf("attribute %s is %s, not an integer", a.msg.Name, a.TypeName())
	}
}

// newAttribute builds an attribute message for a Go value.
func newAttribute(name string, value any) (*message.Attribute, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty attribute name", ErrInvalidPath)
	}
	dt, err := dtype.FromGo(value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}
	data, err := dtype.Encode(dt, value)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}

	ds := message.NewDataspace()
	if v := reflect.ValueOf(value); v.Kind() == reflect.Slice || v.Kind() == reflect.Array {
		ds = message.NewDataspace(uint64(v.Len()))
	}
	return &message.Attribute{Name: name, Datatype: dt, Dataspace: ds, Data: data}, nil
}
