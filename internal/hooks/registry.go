package hooks

import (
	"fmt"
	"maps"
	"sync"

	"github.com/roach88/otioseq/internal/timeline"
)

// Stage identifies an extension point.
type Stage string

const (
	// PreImportTimeline runs on the decoded timeline before planning.
	// Chained: each hook receives the previous hook's result.
	PreImportTimeline Stage = "pre_import_timeline"

	// PreImportItem runs on each Stack/Clip lacking a sequence path.
	// In place: hooks mutate the shared node.
	PreImportItem Stage = "pre_import_item"

	// PostExportTimeline runs on the assembled timeline before encoding.
	// Chained.
	PostExportTimeline Stage = "post_export_timeline"

	// PostExportClip runs on each exported Clip. In place.
	PostExportClip Stage = "post_export_clip"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{PreImportTimeline, PreImportItem, PostExportTimeline, PostExportClip}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	for _, known := range Stages {
		if s == known {
			return true
		}
	}
	return false
}

// Chained reports whether hooks at s return a replacement timeline.
func (s Stage) Chained() bool {
	return s == PreImportTimeline || s == PostExportTimeline
}

// Func is the single calling convention shared by every stage. The first
// parameter is always the domain node; args may be nil. Returning a nil node
// means the hook mutated node in place.
type Func func(node timeline.Node, args map[string]any) (timeline.Node, error)

// Registration is one registered hook.
type Registration struct {
	Name  string
	Stage Stage
	Fn    Func

	// Args are bound at registration; call-site args are layered on top.
	Args map[string]any
}

// Registry holds hooks per stage in registration order.
//
// Thread-safety: registration and lookup are guarded by a mutex so a
// registry can be rebuilt on configuration reload while nothing is running.
type Registry struct {
	mu    sync.RWMutex
	hooks map[Stage][]Registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[Stage][]Registration)}
}

// Register appends a hook to stage.
func (r *Registry) Register(stage Stage, name string, fn Func, args map[string]any) error {
	if !stage.Valid() {
		return fmt.Errorf("register hook %q: unknown stage %q", name, stage)
	}
	if fn == nil {
		return fmt.Errorf("register hook %q: nil function", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[stage] = append(r.hooks[stage], Registration{
		Name:  name,
		Stage: stage,
		Fn:    fn,
		Args:  maps.Clone(args),
	})
	return nil
}

// Hooks returns a copy of the registrations for stage.
func (r *Registry) Hooks(stage Stage) []Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Registration(nil), r.hooks[stage]...)
}

// Has reports whether any hook is registered for stage.
func (r *Registry) Has(stage Stage) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.hooks[stage]) > 0
}

// Reset removes every registration.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = make(map[Stage][]Registration)
}
