package hasher

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// ContentHash computes the xxHash64 of data as 16 zero-padded hex chars,
// truncated to hexLen when 0 < hexLen < 16.
func ContentHash(data []byte, hexLen int) string {
	return truncate(xxhash.Sum64(data), hexLen)
}

// StringHash is ContentHash for a string, without copying it.
func StringHash(s string, hexLen int) string {
	return truncate(xxhash.Sum64String(s), hexLen)
}

func truncate(sum uint64, hexLen int) string {
	full := fmt.Sprintf("%016x", sum)
	if hexLen > 0 && hexLen < len(full) {
		return full[:hexLen]
	}
	return full
}
