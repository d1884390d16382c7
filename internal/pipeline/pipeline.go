package pipeline

import (
	"errors"
	"fmt"

	"github.com/roach88/otioseq/internal/codec"
	"github.com/roach88/otioseq/internal/config"
	"github.com/roach88/otioseq/internal/hooks"
	"github.com/roach88/otioseq/internal/host"
)

// ErrAdaptersDisabled is returned when adapters.register is false.
var ErrAdaptersDisabled = errors.New("timeline adapters are disabled (adapters.register = false)")

// Pipeline wires the host, codecs, hooks and configuration together.
type Pipeline struct {
	host   *host.Host
	cfg    *config.Config
	codecs *codec.Registry
	hooks  *hooks.Registry
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCodecs replaces the built-in codec registry.
func WithCodecs(r *codec.Registry) Option {
	return func(p *Pipeline) { p.codecs = r }
}

// WithHooks sets the hook registry. The default is an empty registry.
func WithHooks(r *hooks.Registry) Option {
	return func(p *Pipeline) { p.hooks = r }
}

// New returns a pipeline over h. A nil cfg uses config.Default.
func New(h *host.Host, cfg *config.Config, opts ...Option) *Pipeline {
	if cfg == nil {
		def := config.Default()
		cfg = &def
	}
	p := &Pipeline{
		host:   h,
		cfg:    cfg,
		codecs: codec.Default(),
		hooks:  hooks.NewRegistry(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Codecs returns the codec registry.
func (p *Pipeline) Codecs() *codec.Registry {
	return p.codecs
}

// importCodec returns the codec for path if imports of its suffix are allowed.
func (p *Pipeline) importCodec(path string) (codec.Codec, error) {
	if !p.cfg.Adapters.Register {
		return nil, ErrAdaptersDisabled
	}
	suffix := codec.SuffixOf(path)
	if !p.cfg.ImportAllowed(suffix) {
		return nil, fmt.Errorf("import of .%s files is not allowed (adapters.import_suffixes)", suffix)
	}
	return p.codecs.ForPath(path)
}

// exportCodec returns the configured export codec and the output path,
// adding the export suffix when path has none.
func (p *Pipeline) exportCodec(path string) (codec.Codec, string, error) {
	if !p.cfg.Adapters.Register {
		return nil, "", ErrAdaptersDisabled
	}
	c, err := p.codecs.Lookup(p.cfg.Adapters.ExportSuffix)
	if err != nil {
		return nil, "", err
	}
	suffix := codec.SuffixOf(path)
	if suffix == "" {
		return c, path + "." + p.cfg.Adapters.ExportSuffix, nil
	}
	if other, err := p.codecs.Lookup(suffix); err != nil || other.Name() != c.Name() {
		return nil, "", fmt.Errorf("export writes %s files; %s has suffix .%s", c.Name(), path, suffix)
	}
	return c, path, nil
}
