package pe

import "errors"

// Sentinel errors returned by Parse, Write and Rsrc. Use errors.Is to
// test for a specific kind; diagnostics wrap these with the offending
// section tag or offset via fmt.Errorf("%w: ...", ...).
var (
	ErrNotAPE                 = errors.New("pe: not a PE image")
	ErrSymbolTablePresent     = errors.New("pe: COFF symbol table present")
	ErrOptionalHeaderTooSmall = errors.New("pe: optional header smaller than 0x78 bytes")
	ErrUnsupportedOptionalMagic = errors.New("pe: optional header magic is not PE32 (0x010B)")
	ErrHeadersSizeMismatch    = errors.New("pe: SizeOfHeaders does not match expected headers size")
	ErrRelocationsPresent     = errors.New("pe: section carries relocations")
	ErrLineNumbersPresent     = errors.New("pe: section carries COFF line numbers")
	ErrSectionRVAOverlap      = errors.New("pe: sections overlap in virtual address space")
	ErrResourceMissing        = errors.New("pe: image has no .rsrc section")
)
