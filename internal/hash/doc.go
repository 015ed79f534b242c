// Package hash provides the image fingerprints used by couponcheck.
//
// Content computes an identity hash of raw bytes (murmur3, 64-bit). It is
// stable across runs and processes, so two downloads of the same file always
// compare equal. Perceptual computes a DCT-based pHash of a decoded image.
// The perceptual hash only orders candidates for visual comparison; it never
// decides a match on its own.
package hash
