package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/reconkeeper/internal/common"
)

// ErrPartLayout is returned when the granted URLs cannot be covered by
// contiguous, non-empty byte ranges of the negotiated part size.
var ErrPartLayout = errors.New("granted urls do not match part layout")

// PartRange is the byte range sent to one granted URL.
type PartRange struct {
	Number int
	Offset int64
	Size   int64
}

// RequestedParts returns the part count to ask for in an intent: zero for
// files at or below the multipart threshold, otherwise
// ceil(size / MinPartSize) capped at MaxParts.
func RequestedParts(size int64) int {
	if size <= common.MultipartThreshold {
		return 0
	}
	n := ceilDiv(size, common.MinPartSize)
	if n > common.MaxParts {
		return common.MaxParts
	}
	return int(n)
}

// PlanParts splits size bytes over urls granted URLs. A single URL carries
// the whole file. Otherwise every part is
// max(MinPartSize, ceil(size / urls)) bytes except a shorter last part.
func PlanParts(size int64, urls int) ([]PartRange, error) {
	if urls <= 0 {
		return nil, fmt.Errorf("%w: no urls granted", ErrPartLayout)
	}
	if urls == 1 {
		return []PartRange{{Number: 1, Offset: 0, Size: size}}, nil
	}

	partSize := ceilDiv(size, int64(urls))
	if partSize < common.MinPartSize {
		partSize = common.MinPartSize
	}
	if n := ceilDiv(size, partSize); n != int64(urls) {
		return nil, fmt.Errorf("%w: %d bytes in parts of %d need %d urls, got %d", ErrPartLayout, size, partSize, n, urls)
	}

	ranges := make([]PartRange, urls)
	var off int64
	for i := range ranges {
		sz := partSize
		if rest := size - off; rest < sz {
			sz = rest
		}
		ranges[i] = PartRange{Number: i + 1, Offset: off, Size: sz}
		off += sz
	}
	return ranges, nil
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}
