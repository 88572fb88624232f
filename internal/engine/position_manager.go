package engine

import "llm-crypto-trader/internal/types"

// positionManager tracks which cycle items hold a live position while the
// sequencer sells and buys through a cycle. Indexes refer to the item slice.
type positionManager struct {
	items  []types.CycleItem
	held   map[int]bool
	sold   map[int]bool
	bought map[int]bool
	stuck  map[int]bool
}

// newPositionManager marks every item whose start-of-cycle value exceeds dust as held.
func newPositionManager(items []types.CycleItem, dust float64) *positionManager {
	pm := &positionManager{
		items:  items,
		held:   make(map[int]bool, len(items)),
		sold:   map[int]bool{},
		bought: map[int]bool{},
		stuck:  map[int]bool{},
	}
	for i, it := range items {
		if it.Balance.PositionValue(it.Price) > dust {
			pm.held[i] = true
		}
	}
	return pm
}

func (pm *positionManager) isHeld(i int) bool { return pm.held[i] }

func (pm *positionManager) wasSold(i int) bool { return pm.sold[i] }

func (pm *positionManager) markSold(i int) {
	delete(pm.held, i)
	pm.sold[i] = true
}

func (pm *positionManager) markBought(i int) {
	pm.held[i] = true
	pm.bought[i] = true
}

// markStuck excludes a holding whose sell failed from further swaps.
func (pm *positionManager) markStuck(i int) { pm.stuck[i] = true }

// count is the number of held items. Used when the account cannot be valued.
func (pm *positionManager) count() int {
	return len(pm.held)
}

// weakest returns the held item with the lowest confidence that may be sold
// to make room for candidate, or -1. Items that failed evaluation, were sold,
// failed to sell or were bought this cycle are not eligible. Ties go to the earlier item.
func (pm *positionManager) weakest(candidate int) int {
	idx := -1
	for i := range pm.items {
		if i == candidate || !pm.held[i] || pm.sold[i] || pm.bought[i] || pm.stuck[i] || pm.items[i].Err != nil {
			continue
		}
		if idx < 0 || pm.items[i].Decision.Confidence < pm.items[idx].Decision.Confidence {
			idx = i
		}
	}
	return idx
}
