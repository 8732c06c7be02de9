package lnqm

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/go-lnqm/container"
)

// Dataset is a loaded collection of samples.
//
// A Dataset is immutable; it is safe to read from many goroutines.
type Dataset struct {
	store *Store
	opts  options

	uidOnce  sync.Once
	uidIndex map[string]int
}

// New returns an empty dataset with no fields and no samples.
func New(opts ...Option) *Dataset {
	return &Dataset{
		store: emptyStore(),
		opts:  applyOptions(defaultOptions(), opts),
	}
}

// FromStore wraps a store, for example one returned by Builder.Build.
func FromStore(s *Store, opts ...Option) *Dataset {
	if s == nil {
		return New(opts...)
	}
	return &Dataset{
		store: s,
		opts:  applyOptions(defaultOptions(), opts),
	}
}

// Load reads a dataset from the container file at path.
//
// Errors opening or reading the file wrap ErrIO; a missing file also
// matches fs.ErrNotExist. Load either returns a complete dataset or an
// error, never both.
func Load(path string, opts ...Option) (*Dataset, error) {
	return LoadContext(context.Background(), path, opts...)
}

// LoadContext is like Load but logs with ctx.
func LoadContext(ctx context.Context, path string, opts ...Option) (*Dataset, error) {
	o := applyOptions(defaultOptions(), opts)
	store, err := loadStore(ctx, path, o)
	if err != nil {
		o.logger.LogLoad(ctx, path, 0, 0, err)
		return nil, err
	}
	o.logger.LogLoad(ctx, path, store.Len(), store.Schema().Len(), nil)
	return &Dataset{store: store, opts: o}, nil
}

func loadStore(ctx context.Context, path string, o options) (*Store, error) {
	f, err := container.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, ioErr(err))
	}
	defer f.Close()

	store, err := decode(ctx, f, o)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return store, nil
}

// LoadAll loads several files concurrently and returns the datasets in the
// order of paths. It stops at the first error.
func LoadAll(ctx context.Context, paths []string, opts ...Option) ([]*Dataset, error) {
	out := make([]*Dataset, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ds, err := LoadContext(ctx, path, opts...)
			if err != nil {
				return err
			}
			out[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes the dataset to path. The file appears only once it is
// complete; on failure any existing file at path is left untouched.
//
// Options given to New or Load apply first, then opts.
func (d *Dataset) Save(path string, opts ...Option) error {
	return d.SaveContext(context.Background(), path, opts...)
}

// SaveContext is like Save but logs with ctx.
func (d *Dataset) SaveContext(ctx context.Context, path string, opts ...Option) error {
	o := applyOptions(d.opts, opts)
	size, err := d.save(ctx, path, o)
	o.logger.LogSave(ctx, path, d.Len(), size, err)
	return err
}

func (d *Dataset) save(ctx context.Context, path string, o options) (uint64, error) {
	f, err := container.Create(path)
	if err != nil {
		return 0, fmt.Errorf("save %s: %w", path, ioErr(err))
	}
	if err := encode(ctx, f, d.store, o); err != nil {
		f.Abort()
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	size := f.Size()
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, ioErr(err))
	}
	return size, nil
}

// Len returns the number of samples.
func (d *Dataset) Len() int { return d.store.Len() }

// IsEmpty reports whether the dataset has no fields.
func (d *Dataset) IsEmpty() bool { return d.store.IsEmpty() }

// Fields returns the field names in schema order.
func (d *Dataset) Fields() []string { return d.store.Schema().Names() }

// Schema returns the dataset's schema.
func (d *Dataset) Schema() *Schema { return d.store.Schema() }

// Store returns the underlying columnar store.
func (d *Dataset) Store() *Store { return d.store }

// Sample returns sample i. Its numeric values share memory with the
// dataset.
func (d *Dataset) Sample(i int) (Sample, error) {
	return d.store.Sample(i)
}

// All iterates over every sample in order.
func (d *Dataset) All() iter.Seq2[int, Sample] {
	return func(yield func(int, Sample) bool) {
		for i := range d.Len() {
			s, err := d.store.Sample(i)
			if err != nil {
				return
			}
			if !yield(i, s) {
				return
			}
		}
	}
}

// IndexOf returns the index of the sample with the given uid. The lookup
// table is built on first use.
func (d *Dataset) IndexOf(uid string) (int, bool) {
	d.uidOnce.Do(d.buildUIDIndex)
	i, ok := d.uidIndex[uid]
	return i, ok
}

func (d *Dataset) buildUIDIndex() {
	col, ok := d.store.Column(UIDField)
	if !ok || col.Kind() != KindText {
		return
	}
	idx := make(map[string]int, col.Len())
	for i, uid := range col.Texts() {
		if _, dup := idx[uid]; !dup {
			idx[uid] = i
		}
	}
	d.uidIndex = idx
}

// Select returns a new dataset holding the samples whose indices are set
// in indices, in ascending order. Every index must be below Len.
func (d *Dataset) Select(indices *roaring.Bitmap) (*Dataset, error) {
	if indices == nil {
		indices = roaring.New()
	}
	if !indices.IsEmpty() {
		if last := int(indices.Maximum()); last >= d.Len() {
			return nil, fmt.Errorf("%w: sample %d of %d", ErrOutOfRange, last, d.Len())
		}
	}

	b := NewBuilder(d.Schema())
	it := indices.Iterator()
	for it.HasNext() {
		s, err := d.store.Sample(int(it.Next()))
		if err != nil {
			return nil, err
		}
		if err := b.Append(s); err != nil {
			return nil, err
		}
	}
	s, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &Dataset{store: s, opts: d.opts}, nil
}
