// Package hooks implements the hook dispatcher: ordered lists of function
// values registered at four extension points of the import and export
// pipelines.
//
// Every hook shares one calling convention (see Func). Timeline-level stages
// are chained and may return a replacement timeline; item- and clip-level
// stages mutate the node they are given. A hook error is fatal to the whole
// operation.
//
// Hooks are trusted extension points: the dispatcher does not recover from
// panics and does not retry.
package hooks
