// Package container reads and writes grouped binary container files.
//
// A container is a tree of named groups whose leaves are blobs: typed,
// shaped arrays of fixed-width numbers or variable-length UTF-8 strings.
// Groups and blobs can carry small attributes.
//
// # Reading
//
//	f, err := container.Open("samples.lnqm")
//	if err != nil {
//		return err
//	}
//	defer f.Close()
//
//	coord, err := f.OpenBlob("/data/coord")
//	vals, err := coord.ReadFloat64()
//	fmt.Println(coord.Shape()) // [rows 3]
//
// Open also reads HDF5 files such as those written by h5py. Groups with
// symbol tables or compact links map onto Group; datasets with contiguous
// or compact storage of numbers and strings map onto Blob. Such files are
// read-only through this package and report Format() == FormatHDF5.
//
// # Writing
//
// Create writes to a temporary file next to the target path. Close lays out
// every pending group header, writes the superblock and renames the file
// into place; Abort discards it. A reader never observes a half-written
// container at the target path.
//
//	f, err := container.Create("out.lnqm")
//	data, err := f.Root().CreateGroup("data")
//	_, err = data.CreateBlob("coord", xyz,
//		container.WithShape(uint64(len(xyz)/3), 3),
//		container.WithCompression(container.CompressionZstd, 0),
//	)
//	err = f.Close()
//
// # File Layout
//
// All integers are little-endian. The superblock sits at offset 0 and
// points at the root group's object header. Object headers are lists of
// typed messages (link, datatype, dataspace, layout, filter pipeline,
// attribute) protected by an XXH3-64 checksum. Blob payloads are stored
// contiguously after running through an optional filter pipeline (shuffle,
// deflate, LZ4, Zstandard, Fletcher-32).
package container
