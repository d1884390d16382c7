package hooks

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/roach88/otioseq/internal/syncerr"
	"github.com/roach88/otioseq/internal/timeline"
)

// Dispatcher invokes registered hooks. A nil *Dispatcher has no hooks.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a dispatcher over r.
func NewDispatcher(r *Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// Has reports whether any hook is registered for stage.
func (d *Dispatcher) Has(stage Stage) bool {
	return d != nil && d.registry != nil && d.registry.Has(stage)
}

// Invoke runs every hook registered for stage, in registration order.
//
// For chained stages each hook receives the previous result and the final
// result is returned. For in-place stages every hook receives node itself;
// a returned replacement of the same concrete type is copied into node.
// Any hook error aborts the chain with a HookError naming the hook.
func (d *Dispatcher) Invoke(stage Stage, node timeline.Node, args map[string]any) (timeline.Node, error) {
	if !d.Has(stage) {
		return node, nil
	}

	cur := node
	for _, reg := range d.registry.Hooks(stage) {
		callArgs := mergeArgs(reg.Args, args)

		slog.Debug("invoking hook", "stage", stage, "hook", reg.Name, "node", cur.NodeName())
		out, err := reg.Fn(cur, callArgs)
		if err != nil {
			return nil, syncerr.NewHookError(string(stage), reg.Name, err)
		}
		if isNil(out) {
			continue
		}

		if stage.Chained() {
			if _, ok := out.(*timeline.Timeline); !ok {
				return nil, syncerr.NewHookError(string(stage), reg.Name,
					fmt.Errorf("returned %T, want *timeline.Timeline", out))
			}
			cur = out
			continue
		}

		if err := replaceInPlace(cur, out); err != nil {
			return nil, syncerr.NewHookError(string(stage), reg.Name, err)
		}
	}
	return cur, nil
}

// InvokeTimeline is Invoke for the chained timeline stages.
func (d *Dispatcher) InvokeTimeline(stage Stage, tl *timeline.Timeline, args map[string]any) (*timeline.Timeline, error) {
	out, err := d.Invoke(stage, tl, args)
	if err != nil {
		return nil, err
	}
	return out.(*timeline.Timeline), nil
}

// isNil reports whether n is nil or a nil pointer in an interface.
func isNil(n timeline.Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *timeline.Timeline:
		return v == nil
	case *timeline.Stack:
		return v == nil
	case *timeline.Clip:
		return v == nil
	}
	return false
}

func replaceInPlace(dst, src timeline.Node) error {
	if dst == src {
		return nil
	}
	switch d := dst.(type) {
	case *timeline.Clip:
		s, ok := src.(*timeline.Clip)
		if !ok {
			return fmt.Errorf("returned %T for a *timeline.Clip", src)
		}
		*d = *s
	case *timeline.Stack:
		s, ok := src.(*timeline.Stack)
		if !ok {
			return fmt.Errorf("returned %T for a *timeline.Stack", src)
		}
		*d = *s
	default:
		return fmt.Errorf("cannot replace %T in place", dst)
	}
	return nil
}

func mergeArgs(bound, call map[string]any) map[string]any {
	if len(bound) == 0 {
		return call
	}
	if len(call) == 0 {
		return bound
	}
	merged := maps.Clone(bound)
	maps.Copy(merged, call)
	return merged
}
