package hooks

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/roach88/otioseq/internal/sequence"
	"github.com/roach88/otioseq/internal/timeline"
)

// Factory builds a hook from its configured arguments.
type Factory func(args map[string]any) (Func, error)

type builtin struct {
	stages  []Stage
	factory Factory
}

var builtins = map[string]builtin{
	"sequence_path_template": {
		stages:  []Stage{PreImportItem},
		factory: newSequencePathTemplate,
	},
	"image_sequence_media": {
		stages:  []Stage{PostExportClip},
		factory: newImageSequenceMedia,
	},
	"set_metadata": {
		stages:  Stages,
		factory: newSetMetadata,
	},
}

// BuiltinNames lists the hooks available from configuration.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterBuiltin builds the named hook and registers it on r for stage.
func RegisterBuiltin(r *Registry, stage Stage, name string, args map[string]any) error {
	b, ok := builtins[name]
	if !ok {
		return fmt.Errorf("unknown hook %q (available: %s)", name, strings.Join(BuiltinNames(), ", "))
	}
	allowed := false
	for _, s := range b.stages {
		if s == stage {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("hook %q cannot run at stage %q", name, stage)
	}
	fn, err := b.factory(args)
	if err != nil {
		return fmt.Errorf("hook %q: %w", name, err)
	}
	return r.Register(stage, name, fn, args)
}

// newSequencePathTemplate maps the root stack to a fixed sequence and every
// other Stack/Clip to a path built from its name.
//
// Args:
//   - root_path: sequence for the root stack (required)
//   - root_stack_name: name identifying the root stack (default "tracks")
//   - clip_template: path template for clips; {name} is replaced by the
//     sanitized node name (default "/Game/Levels/shots/{name}/{name}.{name}")
//   - stack_template: template for nested stacks (default clip_template)
func newSequencePathTemplate(args map[string]any) (Func, error) {
	rootPath, err := stringArg(args, "root_path", "")
	if err != nil {
		return nil, err
	}
	if rootPath == "" {
		return nil, fmt.Errorf("root_path is required")
	}
	rootName, err := stringArg(args, "root_stack_name", "tracks")
	if err != nil {
		return nil, err
	}
	clipTmpl, err := stringArg(args, "clip_template", "/Game/Levels/shots/{name}/{name}.{name}")
	if err != nil {
		return nil, err
	}
	stackTmpl, err := stringArg(args, "stack_template", clipTmpl)
	if err != nil {
		return nil, err
	}

	return func(node timeline.Node, _ map[string]any) (timeline.Node, error) {
		switch n := node.(type) {
		case *timeline.Stack:
			if n.Name == rootName {
				timeline.SetSubSequencePath(n, rootPath)
			} else {
				timeline.SetSubSequencePath(n, expandName(stackTmpl, n.Name))
			}
		case *timeline.Clip:
			timeline.SetSubSequencePath(n, expandName(clipTmpl, n.Name))
		}
		return nil, nil
	}, nil
}

// newImageSequenceMedia points each exported clip at the frames a render of
// its sub-sequence is expected to produce.
//
// Args:
//   - render_dir: base output directory (default "Saved/MovieRenders")
//   - suffix: frame file extension (default ".png")
//   - padding: frame number zero padding (default 4)
func newImageSequenceMedia(args map[string]any) (Func, error) {
	renderDir, err := stringArg(args, "render_dir", "Saved/MovieRenders")
	if err != nil {
		return nil, err
	}
	suffix, err := stringArg(args, "suffix", ".png")
	if err != nil {
		return nil, err
	}
	padding, err := intArg(args, "padding", 4)
	if err != nil {
		return nil, err
	}

	return func(node timeline.Node, _ map[string]any) (timeline.Node, error) {
		clip, ok := node.(*timeline.Clip)
		if !ok {
			return nil, nil
		}
		seqPath, ok := timeline.SubSequencePath(clip)
		if !ok {
			return nil, nil
		}
		available := clip.MediaReference.AvailableRange
		if available == nil {
			return nil, fmt.Errorf("clip %q has no available range", clip.Name)
		}

		shot := sequence.AssetName(seqPath)
		clip.MediaReference = timeline.MediaReference{
			Kind:           timeline.MediaImageSequence,
			AvailableRange: available,
			ImageSequence: &timeline.ImageSequence{
				TargetURLBase:    filepath.ToSlash(filepath.Join(renderDir, shot)) + "/",
				NamePrefix:       shot + ".",
				NameSuffix:       suffix,
				StartFrame:       available.Start.Frames(available.Start.Rate),
				FrameStep:        1,
				Rate:             available.Start.Rate,
				FrameZeroPadding: padding,
			},
		}
		return nil, nil
	}, nil
}

// newSetMetadata writes a fixed value at a dotted metadata key.
//
// Args:
//   - key: dotted key path (required)
//   - value: value to store (required)
func newSetMetadata(args map[string]any) (Func, error) {
	key, err := stringArg(args, "key", "")
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, fmt.Errorf("key is required")
	}
	value, ok := args["value"]
	if !ok {
		return nil, fmt.Errorf("value is required")
	}
	return func(node timeline.Node, _ map[string]any) (timeline.Node, error) {
		node.Meta().Set(key, value)
		return nil, nil
	}, nil
}

var nameReplacer = strings.NewReplacer(" ", "_", ".", "_", "/", "_", ":", "_", "\\", "_")

func expandName(tmpl, name string) string {
	return strings.ReplaceAll(tmpl, "{name}", nameReplacer.Replace(name))
}

func stringArg(args map[string]any, key, def string) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q: want string, got %T", key, v)
	}
	return s, nil
}

func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("argument %q: want integer, got %T", key, v)
	}
}
