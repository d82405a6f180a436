package procurement

// VendorGroup is one prospective purchase order: every line resolved to
// the same vendor.
type VendorGroup struct {
	VendorID int64
	Lines    []PartLine
}

// Grouping is the outcome of partitioning part lines by vendor. Lines
// without a vendor stay out of order creation and wait for manual
// assignment.
type Grouping struct {
	Groups     []VendorGroup
	Unassigned []PartLine
}

// GroupByVendor partitions lines by vendor. Group order follows the first
// appearance of each vendor in the input and line order is preserved, so
// the same input always yields the same orders.
func GroupByVendor(lines []PartLine) Grouping {
	var grouping Grouping
	index := make(map[int64]int)
	for _, line := range lines {
		if line.VendorID == 0 {
			grouping.Unassigned = append(grouping.Unassigned, line)
			continue
		}
		i, ok := index[line.VendorID]
		if !ok {
			i = len(grouping.Groups)
			index[line.VendorID] = i
			grouping.Groups = append(grouping.Groups, VendorGroup{VendorID: line.VendorID})
		}
		grouping.Groups[i].Lines = append(grouping.Groups[i].Lines, line)
	}
	return grouping
}
