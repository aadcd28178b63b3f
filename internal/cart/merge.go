package cart

import (
	"fmt"
	"strings"
)

// MergePolicy decides what happens to anonymous lines when a device signs in.
type MergePolicy string

const (
	// MergeNone keeps the signed-in owner's remote cart as is.
	MergeNone MergePolicy = "none"
	// MergeUnion folds anonymous lines into the remote cart by product.
	MergeUnion MergePolicy = "union"
)

// ParseMergePolicy converts configuration input into a MergePolicy. Empty input
// selects MergeNone.
func ParseMergePolicy(value string) (MergePolicy, error) {
	switch MergePolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", MergeNone:
		return MergeNone, nil
	case MergeUnion:
		return MergeUnion, nil
	default:
		return "", fmt.Errorf("invalid cart merge policy %q", value)
	}
}

// unionLines returns remote with every anonymous line folded in. Lines for a
// product already present keep the remote snapshot and sum quantities.
func unionLines(remote, anonymous []Line, maxQty int) ([]Line, bool) {
	merged := cloneLines(remote)
	changed := false
	for _, line := range anonymous {
		if line.Quantity <= 0 {
			continue
		}
		if idx := indexOf(merged, line.ProductID); idx >= 0 {
			merged[idx].Quantity = clampQuantity(merged[idx].Quantity+line.Quantity, maxQty)
		} else {
			line.Quantity = clampQuantity(line.Quantity, maxQty)
			merged = append(merged, line)
		}
		changed = true
	}
	return merged, changed
}

func clampQuantity(qty, maxQty int) int {
	if maxQty > 0 && qty > maxQty {
		return maxQty
	}
	return qty
}
