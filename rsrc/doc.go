// Package rsrc decodes and encodes the directory/data/string tree stored
// in a PE image's .rsrc section. It has no dependency on package pe: the
// tree it builds carries no absolute addresses once decoded, so it can be
// inspected and mutated independent of the container that holds it.
package rsrc
