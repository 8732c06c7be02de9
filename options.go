package lnqm

import "github.com/robert-malhotra/go-lnqm/container"

// Option configures loading, saving and encoding.
type Option func(*options)

type options struct {
	schema        *Schema
	logger        *Logger
	allowNegative bool
	compression   container.Compression
	level         int
	shuffle       bool
	checksum      bool
}

func defaultOptions() options {
	return options{
		logger:      NoopLogger(),
		compression: container.CompressionNone,
	}
}

func applyOptions(base options, opts []Option) options {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// WithSchema sets the expected fields. On load the file must hold exactly
// these fields with matching kinds and strides; without a schema the
// fields are inferred from the file.
func WithSchema(s *Schema) Option {
	return func(o *options) {
		o.schema = s
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithAllowNegative makes saving store negative integers as their
// two's-complement bit pattern instead of failing with ErrNegativeValue.
func WithAllowNegative() Option {
	return func(o *options) {
		o.allowNegative = true
	}
}

// WithCompression compresses every blob written. Level 0 selects the
// codec's default.
func WithCompression(c container.Compression, level int) Option {
	return func(o *options) {
		o.compression = c
		o.level = level
	}
}

// WithShuffle byte-shuffles numeric blobs before compression.
func WithShuffle() Option {
	return func(o *options) {
		o.shuffle = true
	}
}

// WithChecksum appends a Fletcher-32 checksum to every blob written.
func WithChecksum() Option {
	return func(o *options) {
		o.checksum = true
	}
}

func (o options) blobOptions() []container.BlobOption {
	var opts []container.BlobOption
	if o.shuffle {
		opts = append(opts, container.WithShuffle())
	}
	if o.compression != "" && o.compression != container.CompressionNone {
		opts = append(opts, container.WithCompression(o.compression, o.level))
	}
	if o.checksum {
		opts = append(opts, container.WithFletcher32())
	}
	return opts
}
