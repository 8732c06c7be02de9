// Package dtype maps between container datatypes and Go values.
//
// Supported element types:
//
//	Container class     | Go type
//	--------------------|-----------------------------------------
//	Fixed-point         | int8/16/32/64 or uint8/16/32/64
//	Floating-point      | float32 (4 bytes) or float64 (8 bytes)
//	Var-len string      | string
//
// # Reading Data
//
// Use [ConvertToSlice] to decode raw bytes into a typed slice. Any numeric
// datatype may be decoded into any numeric Go type; values are converted the
// way a Go conversion expression would convert them.
//
//	vals, err := dtype.ConvertToSlice[int64](dt, raw, n)
//
// Variable-length strings are stored inline as a uint32 byte length followed
// by the UTF-8 bytes. Use [DecodeStrings] to read them.
//
// # Writing Data
//
// Use [FromGo] to pick a datatype for a Go slice and [Encode] to turn the
// slice into bytes:
//
//	dt, err := dtype.FromGo([]float32{1, 2})
//	raw, err := dtype.Encode(dt, []float32{1, 2})
package dtype
