package container

import "errors"

// Common errors
var (
	ErrNotContainer = errors.New("not a container file")
	ErrNotFound     = errors.New("object not found")
	ErrNotBlob      = errors.New("object is not a blob")
	ErrNotGroup     = errors.New("object is not a group")
	ErrExists       = errors.New("object already exists")
	ErrClosed       = errors.New("file is closed")
	ErrReadOnly     = errors.New("file is not writable")
	ErrChecksum     = errors.New("checksum mismatch")
	ErrCorrupt      = errors.New("corrupt container structure")
	ErrUnsupported  = errors.New("unsupported feature")
	ErrInvalidPath  = errors.New("invalid path")
)
