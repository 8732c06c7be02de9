// Package lnqm stores LnQM quantum-chemistry samples in a columnar layout
// and persists them to container files.
//
// A dataset holds, per field, one flat buffer with the values of every
// sample concatenated in sample order, plus a slice index of N+1 offsets
// marking where each sample's run starts and ends. Sample i of field f is
// the run [offsets[i]*stride, offsets[i+1]*stride) of its buffer; text
// fields such as "uid" hold exactly one string per sample.
//
// # Quick Start
//
//	ds, err := lnqm.Load("lnqm.lnqm", lnqm.WithSchema(lnqm.DefaultSchema()))
//	if err != nil {
//		log.Fatal(err)
//	}
//	s, err := ds.Sample(0)
//	if err != nil {
//		log.Fatal(err)
//	}
//	uid, _ := s.UID()
//	coord, _ := s.Float64s("coord") // x0 y0 z0 x1 y1 z1 ...
//
// # File Layout
//
// The container holds two groups, /data and /slices, with one blob per
// field in each. Integer buffers and all offsets are stored as uint64 and
// read back as int64 bit for bit; floats keep their precision; text fields
// are variable-length UTF-8 strings. Fields with a stride above one are
// stored as [rows, stride] arrays, so files can be read without a schema.
//
// By default, saving a negative integer fails with ErrNegativeValue.
// WithAllowNegative stores it as its two's-complement bit pattern instead,
// which Load turns back into the original value.
package lnqm
