// Package hdf5 reads the subset of the HDF5 file format that h5py writes
// for datasets: superblocks of every version, object headers of versions 1
// and 2, symbol-table and compact link groups, contiguous and compact
// layouts, and variable-length strings held in global heaps.
//
// Objects are returned as object.Header values built from the same message
// types the native container uses, so the container package serves both
// formats through one Group and Blob API. Chunked storage, dense link
// storage and committed datatypes are reported as unsupported.
package hdf5
