// Package pe parses, edits, and re-emits the container structure of a
// Portable Executable image: the early headers, the section table, and
// the allocation of sections to file offsets.
//
// It does not understand what lives inside a section beyond the
// special-cased .rsrc resource tree (see the sibling rsrc package); a
// caller that wants to edit code or data just replaces Section.RawData
// and lets Write recompute layout.
package pe
