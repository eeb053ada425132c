package keybase

import (
	"io/fs"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keybase/pkg/codec"
)

type options struct {
	codec  codec.Codec
	logger hclog.Logger
	strict bool
	mode   fs.FileMode
}

// Option configures Open.
type Option func(*options)

// WithCodec sets the file format. The default is chosen from the file
// extension by codec.ForPath.
func WithCodec(c codec.Codec) Option {
	return func(o *options) { o.codec = c }
}

// WithLogger sets the logger. Connections log through a named sub-logger.
func WithLogger(l hclog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithStrictLoad makes Open fail with ErrCorrupt instead of starting from an
// empty mapping when the file cannot be decoded.
func WithStrictLoad(strict bool) Option {
	return func(o *options) { o.strict = strict }
}

// WithFileMode sets the permissions Save uses when it creates the file.
func WithFileMode(mode fs.FileMode) Option {
	return func(o *options) { o.mode = mode }
}

func buildOptions(path string, opts []Option) *options {
	o := &options{
		logger: hclog.NewNullLogger(),
		mode:   0o644,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.codec == nil {
		o.codec = codec.ForPath(path)
	}
	return o
}
