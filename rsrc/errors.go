package rsrc

import "errors"

var (
	// ErrResourceShapeInvalid is returned when a tree fails to encode:
	// an entry with neither children nor a payload, a non-root
	// directory with no children, or a missing directory offset during
	// pointer patching.
	ErrResourceShapeInvalid = errors.New("rsrc: invalid resource tree shape")

	// ErrMalformed is returned when decoding or shifting finds a
	// pointer or length that runs past the end of the section buffer.
	ErrMalformed = errors.New("rsrc: malformed resource data")

	// ErrPathNotFound is returned by Lookup when no child matches a
	// path segment by name or by numeric ID.
	ErrPathNotFound = errors.New("rsrc: path not found")

	// ErrPathNotADirectory is returned by Lookup when a path segment
	// resolves partway through to a data entry.
	ErrPathNotADirectory = errors.New("rsrc: path component is not a directory")
)
