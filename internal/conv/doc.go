// Package conv provides checked integer conversions for offsets and sizes
// read from untrusted files.
package conv
