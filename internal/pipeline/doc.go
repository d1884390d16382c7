// Package pipeline runs the end-to-end import and export flows.
//
// Import decodes a timeline file, runs pre-import hooks, plans the sequence
// hierarchy, reconciles it against the host, asks for approval and applies
// the plan in one host transaction. Nothing touches the host before the
// approval callback returns true.
//
// Export collects the live hierarchy into a timeline and writes it with the
// configured export codec, replacing the target file atomically.
package pipeline
