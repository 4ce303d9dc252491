package services

import (
	"testing"

	"github.com/dmitrijs2005/reconkeeper/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestedParts(t *testing.T) {
	tests := []struct {
		size int64
		want int
	}{
		{size: 1, want: 0},
		{size: common.MultipartThreshold, want: 0},
		{size: common.MultipartThreshold + 1, want: 2},
		{size: 12 * common.MiB, want: 3},
		{size: 15 * common.MiB, want: 3},
		{size: 10000 * common.MinPartSize, want: 10000},
		{size: 10000*common.MinPartSize + 1, want: common.MaxParts},
		{size: 1 << 40, want: common.MaxParts},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RequestedParts(tt.size), "size=%d", tt.size)
	}
}

// checkRanges asserts contiguity, exact coverage and equal sizes but the last.
func checkRanges(t *testing.T, size int64, ranges []PartRange) {
	t.Helper()
	var off int64
	for i, r := range ranges {
		require.Equal(t, i+1, r.Number)
		require.Equal(t, off, r.Offset)
		require.Positive(t, r.Size)
		if i < len(ranges)-1 {
			require.Equal(t, ranges[0].Size, r.Size)
		} else {
			require.LessOrEqual(t, r.Size, ranges[0].Size)
		}
		off += r.Size
	}
	require.Equal(t, size, off)
}

func TestPlanParts_CoversFileExactly(t *testing.T) {
	sizes := []int64{
		common.MultipartThreshold + 1,
		12 * common.MiB,
		15 * common.MiB,
		123456789,
		10000*common.MinPartSize + 1,
		3 << 40,
	}
	for _, size := range sizes {
		n := RequestedParts(size)
		ranges, err := PlanParts(size, n)
		require.NoError(t, err, "size=%d", size)
		require.Len(t, ranges, n)
		checkRanges(t, size, ranges)
		if n > 1 {
			assert.GreaterOrEqual(t, ranges[0].Size, common.MinPartSize)
		}
	}
}

func TestPlanParts_TwelveMiB(t *testing.T) {
	ranges, err := PlanParts(12*common.MiB, 3)
	require.NoError(t, err)
	assert.Equal(t, []PartRange{
		{Number: 1, Offset: 0, Size: 5 * common.MiB},
		{Number: 2, Offset: 5 * common.MiB, Size: 5 * common.MiB},
		{Number: 3, Offset: 10 * common.MiB, Size: 2 * common.MiB},
	}, ranges)
}

func TestPlanParts_SingleURL(t *testing.T) {
	ranges, err := PlanParts(9*common.MiB, 1)
	require.NoError(t, err)
	assert.Equal(t, []PartRange{{Number: 1, Offset: 0, Size: 9 * common.MiB}}, ranges)
}

func TestPlanParts_LayoutErrors(t *testing.T) {
	_, err := PlanParts(12*common.MiB, 0)
	require.ErrorIs(t, err, ErrPartLayout)

	_, err = PlanParts(12*common.MiB, 5)
	require.ErrorIs(t, err, ErrPartLayout, "five urls would leave empty parts")

	_, err = PlanParts(common.MiB, 2)
	require.ErrorIs(t, err, ErrPartLayout)
}
