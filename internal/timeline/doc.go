// Package timeline is the abstract editorial model exchanged with timeline
// files: a Timeline holds a root Stack of Tracks, and each Track holds an
// ordered, contiguous run of Clips, Gaps, nested Stacks and Transitions.
//
// The model mirrors the OpenTimelineIO schema closely enough that a codec
// can translate either way, but it is not a reimplementation of it: only the
// constructs the sequence mapping reads or writes are represented.
//
// A node's target sequence asset lives in metadata under the nested key
// path unreal.sub_sequence; see SubSequencePath and SetSubSequencePath.
package timeline
