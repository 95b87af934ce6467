package publish

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kamusis/modelpub/internal/client"
	"github.com/kamusis/modelpub/internal/logging"
	"github.com/kamusis/modelpub/internal/schema"
)

// DefaultStagingDir is where generated schemas are written before upload.
const DefaultStagingDir = "models"

// API is the subset of the HTTP client the publishers need.
type API interface {
	PostMultipart(ctx context.Context, path string, form *client.Form) (*client.Response, error)
	PutMultipart(ctx context.Context, path string, form *client.Form) (*client.Response, error)
}

type options struct {
	logger     zerolog.Logger
	stagingDir string
	exporter   schema.Exporter
}

// Option configures the publishers and the orchestrator.
type Option func(*options)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithStagingDir sets the local directory generated schemas are written to.
func WithStagingDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.stagingDir = dir
		}
	}
}

// WithExporter replaces the schema exporter.
func WithExporter(e schema.Exporter) Option {
	return func(o *options) {
		if e != nil {
			o.exporter = e
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:     *logging.Default(),
		stagingDir: DefaultStagingDir,
		exporter:   schema.XMLExporter{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
