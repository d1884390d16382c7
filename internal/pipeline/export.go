package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/roach88/otioseq/internal/codec"
	"github.com/roach88/otioseq/internal/export"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/timeline"
)

// ExportOptions configures Export.
type ExportOptions struct {
	// Root is the sequence to export. Empty uses the configured import root.
	Root string

	// Path is the output file. Without a suffix the export suffix is added.
	Path string

	// DryRun collects the timeline without writing it.
	DryRun bool
}

// ExportResult reports what Export did.
type ExportResult struct {
	*export.Result

	// Path is the file written; empty on a dry run.
	Path string
}

// Export runs the export flow.
func (p *Pipeline) Export(ctx context.Context, opts ExportOptions) (*ExportResult, error) {
	c, path, err := p.exportCodec(opts.Path)
	if err != nil {
		return nil, err
	}

	root := opts.Root
	if root == "" {
		root = p.cfg.Import.Root
	}
	if root == "" {
		return nil, fmt.Errorf("export: no root sequence given")
	}

	collected, err := export.Collect(ctx, p.host, root, hooks.NewDispatcher(p.hooks))
	if err != nil {
		return nil, err
	}
	for _, w := range collected.Warnings {
		slog.Warn("unsupported feature", "feature", w.Feature, "item", w.Item, "message", w.Message)
	}

	res := &ExportResult{Result: collected}
	if opts.DryRun {
		return res, nil
	}

	if err := writeTimeline(c, path, collected.Timeline); err != nil {
		return nil, err
	}
	res.Path = path
	slog.Info("timeline exported", "root", root, "path", path, "codec", c.Name())
	return res, nil
}

// writeTimeline encodes tl to a temporary file beside path and renames it
// into place, so readers never see a partial file.
func writeTimeline(c codec.Codec, path string, tl *timeline.Timeline) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".otioseq-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if err := c.Encode(tmp, tl); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
