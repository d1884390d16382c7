package timeline

import "strings"

// Metadata is free-form, nested key-value data attached to a node.
type Metadata map[string]any

// Recognized metadata key path carrying a node's sequence asset path.
const (
	MetadataNamespace   = "unreal"
	MetadataSubSequence = "sub_sequence"
)

// SubSequenceKey is the dotted form of the recognized key path.
var SubSequenceKey = MetadataNamespace + "." + MetadataSubSequence

// Lookup walks a dotted key path ("unreal.sub_sequence") through nested maps.
func (m Metadata) Lookup(path string) (any, bool) {
	var cur any = map[string]any(m)
	for _, part := range strings.Split(path, ".") {
		next, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = next[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes value at a dotted key path, creating intermediate maps.
func (m Metadata) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := map[string]any(m)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			next = map[string]any{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Delete removes the value at a dotted key path, if present.
func (m Metadata) Delete(path string) {
	parts := strings.Split(path, ".")
	cur := map[string]any(m)
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, parts[len(parts)-1])
}

// asMap accepts both map[string]any and Metadata, which decoders and hooks
// produce interchangeably.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Metadata:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

// SubSequencePath returns the sequence asset path stored on n, if any.
// Empty strings count as absent.
func SubSequencePath(n Node) (string, bool) {
	v, ok := n.Meta().Lookup(SubSequenceKey)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// SetSubSequencePath stores a sequence asset path on n.
func SetSubSequencePath(n Node, path string) {
	n.Meta().Set(SubSequenceKey, path)
}
