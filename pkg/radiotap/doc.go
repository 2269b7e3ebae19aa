// Package radiotap decodes the radiotap header that precedes captured 802.11
// frames.
//
// A header starts with a fixed 4-byte prefix (version, pad, little-endian
// length) followed by one or more 32-bit presence words. Bit 31 of a word
// announces another word. Every other set bit marks a field whose alignment
// and size come from the active namespace: the built-in standard namespace or
// a vendor namespace registered by (OUI, sub-namespace).
//
// Decoding is split in two steps:
//
//	h, err := radiotap.ParseHeader(buf)
//	for f, err := range radiotap.Fields(h, reg) {
//		...
//	}
//
// Field descriptors borrow the input buffer. Use [FieldDescriptor.Copy] to
// keep one past the lifetime of the buffer.
package radiotap
