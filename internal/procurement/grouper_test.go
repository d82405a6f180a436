package procurement

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGroupByVendorPreservesFirstAppearanceOrder(t *testing.T) {
	lines := []PartLine{
		{ID: 1, VendorID: 3},
		{ID: 2, VendorID: 1},
		{ID: 3, VendorID: 3},
		{ID: 4},
		{ID: 5, VendorID: 1},
	}

	grouping := GroupByVendor(lines)
	require.Len(t, grouping.Groups, 2)
	require.Equal(t, int64(3), grouping.Groups[0].VendorID)
	require.Equal(t, int64(1), grouping.Groups[1].VendorID)
	require.Len(t, grouping.Groups[0].Lines, 2)
	require.Equal(t, int64(1), grouping.Groups[0].Lines[0].ID)
	require.Equal(t, int64(3), grouping.Groups[0].Lines[1].ID)

	require.Len(t, grouping.Unassigned, 1)
	require.Equal(t, int64(4), grouping.Unassigned[0].ID)
}

func TestGroupByVendorEmptyInput(t *testing.T) {
	grouping := GroupByVendor(nil)
	require.Empty(t, grouping.Groups)
	require.Empty(t, grouping.Unassigned)
}
