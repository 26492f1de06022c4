package classify

import (
	"fmt"
	"log/slog"

	"github.com/aspn-firehose/firehose/internal/codegen/backend"
	"github.com/aspn-firehose/firehose/internal/codegen/schema"
)

// Convert visits every schema in order and then renders the backend.
// Any error aborts the run before Generate is reached.
func Convert(b backend.Backend, schemas []*schema.Schema, logger *slog.Logger) error {
	c := New(b, logger)
	for _, s := range schemas {
		if err := c.Struct(s); err != nil {
			return err
		}
	}
	if err := b.Generate(); err != nil {
		return fmt.Errorf("%s: generate: %w", b.Config().Format, err)
	}
	return nil
}
