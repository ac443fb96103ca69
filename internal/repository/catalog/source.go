package catalog

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/circuitrank/internal/domain/circuit"
)

// FileSource re-reads a catalog file on every Load.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource creates a source for path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// Path returns the catalog file path.
func (s *FileSource) Path() string { return s.path }

// Load reads the catalog. Undecodable elements are logged and dropped.
func (s *FileSource) Load(ctx context.Context) ([]circuit.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := LoadFile(s.path)
	if err != nil {
		return nil, err
	}
	for _, skipped := range c.Skipped {
		s.logger.Warn("Catalog element skipped", zap.String("path", s.path), zap.Error(skipped))
	}
	s.logger.Debug("Catalog loaded",
		zap.String("path", s.path),
		zap.Int("records", len(c.Records)),
		zap.Int("skipped", len(c.Skipped)),
	)
	return c.Records, nil
}
