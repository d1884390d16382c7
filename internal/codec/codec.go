package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/otioseq/internal/timeline"
)

// ErrUnknownSuffix is returned when no codec claims a file suffix.
var ErrUnknownSuffix = errors.New("no codec for suffix")

// Codec reads and writes one timeline file format.
type Codec interface {
	// Name identifies the codec in listings ("json").
	Name() string

	// Suffixes lists the file suffixes the codec claims, without dots.
	Suffixes() []string

	Decode(r io.Reader) (*timeline.Timeline, error)
	Encode(w io.Writer, tl *timeline.Timeline) error
}

// Registry maps file suffixes to codecs.
type Registry struct {
	codecs   []Codec
	bySuffix map[string]Codec
}

// NewRegistry returns a registry holding codecs. A later codec claiming an
// already claimed suffix takes it over.
func NewRegistry(codecs ...Codec) *Registry {
	r := &Registry{bySuffix: make(map[string]Codec)}
	for _, c := range codecs {
		r.codecs = append(r.codecs, c)
		for _, s := range c.Suffixes() {
			r.bySuffix[NormalizeSuffix(s)] = c
		}
	}
	return r
}

// Default returns a registry with every built-in codec.
func Default() *Registry {
	return NewRegistry(JSON{}, YAML{})
}

// Codecs returns the registered codecs in registration order.
func (r *Registry) Codecs() []Codec {
	return append([]Codec(nil), r.codecs...)
}

// Suffixes returns every claimed suffix, sorted.
func (r *Registry) Suffixes() []string {
	out := make([]string, 0, len(r.bySuffix))
	for s := range r.bySuffix {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the codec claiming suffix. The suffix may carry a leading
// dot and is matched case-insensitively.
func (r *Registry) Lookup(suffix string) (Codec, error) {
	c, ok := r.bySuffix[NormalizeSuffix(suffix)]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownSuffix, suffix, strings.Join(r.Suffixes(), ", "))
	}
	return c, nil
}

// ForPath returns the codec for path's extension.
func (r *Registry) ForPath(path string) (Codec, error) {
	return r.Lookup(SuffixOf(path))
}

// SuffixOf returns path's extension, normalized.
func SuffixOf(path string) string {
	return NormalizeSuffix(filepath.Ext(path))
}

// NormalizeSuffix lowercases s and drops a leading dot.
func NormalizeSuffix(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
}
