package hash

import (
	"fmt"
	"image"
	"math/bits"

	"github.com/corona10/goimagehash"
)

// Perceptual computes the DCT-based perceptual hash of img.
func Perceptual(img image.Image) (uint64, error) {
	h, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return 0, fmt.Errorf("failed to compute pHash: %w", err)
	}
	return h.GetHash(), nil
}

// HammingDistance returns the number of differing bits between two hashes.
// 0 means the perceptual hashes are identical.
func HammingDistance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
