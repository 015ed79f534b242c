// Package match decides whether a coupon image already exists in a
// reference collection.
//
// A candidate is a duplicate when its content hash equals the hash of any
// record in the collection, or when grayscale template matching with the
// normalized correlation coefficient (TM_CCOEFF_NORMED) reaches Threshold
// at some sliding position. The smaller image slides over the larger one;
// if neither image fits inside the other the pair is not similar.
//
// Nothing in this package reports decode or geometry problems to callers of
// IsDuplicate or Index.Contains: an image that cannot be compared simply does
// not match.
package match
