package recorder

import (
	"encoding/hex"

	"github.com/spaolacci/murmur3"

	"github.com/replaykit/replaykit/pkg/types"
)

// NewResource builds a content-addressed resource from raw bytes. The
// identifier is the hex form of the murmur3-128 content hash, so identical
// content always produces the same reference regardless of which element or
// capture it came from.
func NewResource(data []byte, contentType string) types.Resource {
	h1, h2 := murmur3.Sum128(data)
	var sum [16]byte
	for i := 0; i < 8; i++ {
		sum[i] = byte(h1 >> (56 - 8*i))
		sum[8+i] = byte(h2 >> (56 - 8*i))
	}
	return types.Resource{
		ID:          hex.EncodeToString(sum[:]),
		ContentType: contentType,
		Data:        data,
	}
}
