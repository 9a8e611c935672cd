// Package firmware loads program images for upload.
//
// Two formats are understood:
//
//	.bin          raw memory image, uploaded as-is
//	.hex / .ihx   Intel HEX; segments are merged into one image starting at
//	              the lowest address, gaps are zero-filled
//
// An Intel HEX image carries its own base address, which callers may use as
// the load address when none is given explicitly.
package firmware
