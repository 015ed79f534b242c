package hash

import (
	"github.com/spaolacci/murmur3"
)

// Content returns the identity hash of data.
func Content(data []byte) uint64 {
	return murmur3.Sum64(data)
}
