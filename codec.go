package lnqm

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/robert-malhotra/go-lnqm/container"
	"github.com/robert-malhotra/go-lnqm/internal/conv"
)

// Container layout.
const (
	DataGroup   = "data"
	SlicesGroup = "slices"

	FormatName    = "lnqm"
	FormatVersion = 1

	formatAttr      = "format"
	versionAttr     = "version"
	unitAttr        = "unit"
	descriptionAttr = "description"
)

// Decode reads a store from the /data and /slices groups of f.
//
// Unsigned 64-bit buffers and offsets are reinterpreted as int64; float
// buffers keep their stored precision; string blobs become text fields.
// With WithSchema the file must hold exactly the schema's fields with the
// declared kinds and strides. Decode never returns a partial store.
func Decode(f *container.File, opts ...Option) (*Store, error) {
	return decode(context.Background(), f, applyOptions(defaultOptions(), opts))
}

func decode(ctx context.Context, f *container.File, o options) (*Store, error) {
	if err := checkFormat(f.Root()); err != nil {
		return nil, err
	}

	dataG, err := openGroup(f, DataGroup)
	if err != nil {
		return nil, err
	}
	slicesG, err := openGroup(f, SlicesGroup)
	if err != nil {
		return nil, err
	}

	dataNames, err := dataG.Members()
	if err != nil {
		return nil, ioErr(err)
	}
	sliceNames, err := slicesG.Members()
	if err != nil {
		return nil, ioErr(err)
	}
	if missing := difference(dataNames, sliceNames); len(missing) > 0 {
		return nil, fmt.Errorf("%w: fields %v have data but no slices", ErrSchemaMismatch, missing)
	}
	if missing := difference(sliceNames, dataNames); len(missing) > 0 {
		return nil, fmt.Errorf("%w: fields %v have slices but no data", ErrSchemaMismatch, missing)
	}

	order := dataNames
	if o.schema != nil {
		if !o.schema.sameNames(dataNames) {
			return nil, fmt.Errorf("%w: file has fields %v, schema expects %v",
				ErrSchemaMismatch, dataNames, o.schema.Names())
		}
		order = o.schema.Names()
	}
	if len(order) == 0 {
		return emptyStore(), nil
	}

	log := o.logger.WithPath(f.Path())
	fields := make([]Field, 0, len(order))
	columns := make(map[string]Column, len(order))
	offsets := make(map[string]SliceIndex, len(order))
	for _, name := range order {
		declared, hasDecl := o.schema.Field(name)
		field, col, err := decodeData(dataG, name, declared, hasDecl)
		if err != nil {
			return nil, fieldErr(name, err)
		}
		idx, err := decodeOffsets(slicesG, name)
		if err != nil {
			return nil, fieldErr(name, err)
		}
		log.LogField(ctx, "field decoded", name, field.Elem.String(), col.Len())

		fields = append(fields, field)
		columns[name] = col
		offsets[name] = idx
	}

	schema, err := NewSchema(fields...)
	if err != nil {
		return nil, err
	}
	return NewStore(schema, columns, offsets)
}

// checkFormat rejects files tagged with another format or a newer version.
// Untagged files are accepted.
func checkFormat(root *container.Group) error {
	if a := root.Attr(formatAttr); a != nil {
		format, err := a.ReadString()
		if err != nil {
			return ioErr(err)
		}
		if format != FormatName {
			return fmt.Errorf("%w: file format is %q, not %q", ErrSchemaMismatch, format, FormatName)
		}
	}
	if a := root.Attr(versionAttr); a != nil {
		version, err := a.ReadInt64()
		if err != nil {
			return ioErr(err)
		}
		if version > FormatVersion {
			return fmt.Errorf("%w: format version %d is newer than %d", ErrSchemaMismatch, version, FormatVersion)
		}
	}
	return nil
}

func openGroup(f *container.File, name string) (*container.Group, error) {
	g, err := f.OpenGroup(name)
	switch {
	case errors.Is(err, container.ErrNotFound), errors.Is(err, container.ErrNotGroup):
		return nil, fmt.Errorf("%w: no %s group", ErrSchemaMismatch, name)
	case err != nil:
		return nil, ioErr(err)
	}
	return g, nil
}

func openBlob(g *container.Group, name string) (*container.Blob, error) {
	b, err := g.OpenBlob(name)
	switch {
	case errors.Is(err, container.ErrNotBlob):
		return nil, fmt.Errorf("%w: %s/%s is a group", ErrSchemaMismatch, g.Path(), name)
	case err != nil:
		return nil, ioErr(err)
	}
	return b, nil
}

func decodeData(g *container.Group, name string, declared Field, hasDecl bool) (Field, Column, error) {
	blob, err := openBlob(g, name)
	if err != nil {
		return Field{}, Column{}, err
	}

	field := Field{Name: name, Stride: 1}
	if hasDecl {
		field.Unit, field.Description = declared.Unit, declared.Description
	} else {
		field.Unit = stringAttr(blob, unitAttr)
		field.Description = stringAttr(blob, descriptionAttr)
	}

	if blob.IsString() {
		if hasDecl && !declared.IsText() {
			return Field{}, Column{}, fmt.Errorf("%w: string blob for numeric field", ErrSchemaMismatch)
		}
		if blob.Rank() != 1 {
			return Field{}, Column{}, fmt.Errorf("%w: text blob has shape %v", ErrSchemaMismatch, blob.Shape())
		}
		texts, err := blob.ReadStrings()
		if err != nil {
			return Field{}, Column{}, ioErr(err)
		}
		field.Kind = KindText
		return field, TextColumn(texts), nil
	}

	if hasDecl && declared.IsText() {
		return Field{}, Column{}, fmt.Errorf("%w: %s blob for text field", ErrSchemaMismatch, blob.TypeName())
	}
	stride, err := rowStride(blob.Shape())
	if err != nil {
		return Field{}, Column{}, err
	}
	if hasDecl && declared.stride() != stride {
		return Field{}, Column{}, fmt.Errorf("%w: stored stride %d, schema declares %d",
			ErrSchemaMismatch, stride, declared.stride())
	}
	buf, err := readBuffer(blob)
	if err != nil {
		return Field{}, Column{}, err
	}
	field.Kind = KindNumeric
	field.Elem = buf.Elem()
	field.Stride = stride
	return field, NumericColumn(buf), nil
}

// rowStride returns the product of the trailing dimensions.
func rowStride(shape []uint64) (int, error) {
	if len(shape) == 0 {
		return 0, fmt.Errorf("%w: scalar data blob", ErrSchemaMismatch)
	}
	stride := 1
	for _, d := range shape[1:] {
		n, err := conv.Uint64ToInt(d)
		if err != nil {
			return 0, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
		}
		if stride, err = conv.MulInt(stride, n); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrCorruptIndex, err)
		}
	}
	if stride == 0 {
		return 0, fmt.Errorf("%w: zero-width rows in shape %v", ErrSchemaMismatch, shape)
	}
	return stride, nil
}

// readBuffer reads a numeric blob, reinterpreting uint64 as int64.
func readBuffer(b *container.Blob) (Buffer, error) {
	var (
		buf Buffer
		err error
	)
	switch t := b.TypeName(); t {
	case "float64":
		var v []float64
		v, err = b.ReadFloat64()
		buf = Float64Buffer(v)
	case "float32":
		var v []float32
		v, err = b.ReadFloat32()
		buf = Float32Buffer(v)
	case "int64", "uint64":
		var v []int64
		v, err = b.ReadInt64()
		buf = Int64Buffer(v)
	default:
		return Buffer{}, fmt.Errorf("%w: data blob holds %s", ErrUnsupportedElementType, t)
	}
	if err != nil {
		return Buffer{}, ioErr(err)
	}
	return buf, nil
}

func decodeOffsets(g *container.Group, name string) (SliceIndex, error) {
	blob, err := openBlob(g, name)
	if err != nil {
		return nil, err
	}
	if t := blob.TypeName(); t != "int64" && t != "uint64" {
		return nil, fmt.Errorf("%w: slices blob holds %s", ErrUnsupportedElementType, t)
	}
	if blob.Rank() != 1 {
		return nil, fmt.Errorf("%w: slices blob has shape %v", ErrCorruptIndex, blob.Shape())
	}
	v, err := blob.ReadInt64()
	if err != nil {
		return nil, ioErr(err)
	}
	return SliceIndex(v), nil
}

func stringAttr(b *container.Blob, name string) string {
	a := b.Attr(name)
	if a == nil {
		return ""
	}
	s, err := a.ReadString()
	if err != nil {
		return ""
	}
	return s
}

// Encode writes s into the /data and /slices groups of f, which must have
// been returned by container.Create.
//
// int64 buffers and all offsets are stored as uint64. Unless
// WithAllowNegative is given, a negative value fails the field with
// ErrNegativeValue before any of its blobs are written.
func Encode(f *container.File, s *Store, opts ...Option) error {
	return encode(context.Background(), f, s, applyOptions(defaultOptions(), opts))
}

func encode(ctx context.Context, f *container.File, s *Store, o options) error {
	if s == nil {
		s = emptyStore()
	}
	if err := s.Validate(); err != nil {
		return err
	}

	root := f.Root()
	if err := root.SetAttr(formatAttr, FormatName); err != nil {
		return ioErr(err)
	}
	if err := root.SetAttr(versionAttr, int64(FormatVersion)); err != nil {
		return ioErr(err)
	}
	dataG, err := root.CreateGroup(DataGroup)
	if err != nil {
		return ioErr(err)
	}
	slicesG, err := root.CreateGroup(SlicesGroup)
	if err != nil {
		return ioErr(err)
	}

	log := o.logger.WithPath(f.Path())
	for _, field := range s.schema.fields {
		if err := encodeField(dataG, slicesG, field, s.columns[field.Name], s.slices[field.Name], o); err != nil {
			return fieldErr(field.Name, err)
		}
		log.LogField(ctx, "field encoded", field.Name, field.Elem.String(), s.columns[field.Name].Len())
	}
	return nil
}

func encodeField(dataG, slicesG *container.Group, field Field, col Column, idx SliceIndex, o options) error {
	blobOpts := o.blobOptions()
	dataOpts := slices.Clone(blobOpts)
	if field.Unit != "" {
		dataOpts = append(dataOpts, container.WithAttribute(unitAttr, field.Unit))
	}
	if field.Description != "" {
		dataOpts = append(dataOpts, container.WithAttribute(descriptionAttr, field.Description))
	}

	var data any
	if col.Kind() == KindText {
		data = col.Texts()
	} else {
		buf := col.Buffer()
		switch buf.Elem() {
		case ElemFloat64:
			data = buf.Float64s()
		case ElemFloat32:
			data = buf.Float32s()
		case ElemInt64:
			if !o.allowNegative {
				if i := slices.IndexFunc(buf.Int64s(), func(v int64) bool { return v < 0 }); i >= 0 {
					return fmt.Errorf("%w: element %d is %d", ErrNegativeValue, i, buf.Int64s()[i])
				}
			}
			data = toUint64(buf.Int64s())
		default:
			return fmt.Errorf("%w: %v", ErrUnsupportedElementType, buf.Elem())
		}
		if stride := field.stride(); stride > 1 {
			rows := uint64(buf.Len() / stride)
			dataOpts = append(dataOpts, container.WithShape(rows, uint64(stride)))
		}
	}

	if _, err := dataG.CreateBlob(field.Name, data, dataOpts...); err != nil {
		return ioErr(err)
	}
	if _, err := slicesG.CreateBlob(field.Name, toUint64(idx), blobOpts...); err != nil {
		return ioErr(err)
	}
	return nil
}

// toUint64 reinterprets v bit for bit.
func toUint64(v []int64) []uint64 {
	out := make([]uint64, len(v))
	for i, x := range v {
		out[i] = uint64(x)
	}
	return out
}

// difference returns the names in a that are not in b.
func difference(a, b []string) []string {
	var out []string
	for _, name := range a {
		if !slices.Contains(b, name) {
			out = append(out, name)
		}
	}
	return out
}

func ioErr(err error) error {
	return fmt.Errorf("%w: %w", ErrIO, err)
}
