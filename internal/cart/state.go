package cart

import "github.com/shopspring/decimal"

// State holds the cart lines in first-insertion order. Ids are unique and every
// quantity is at least one.
type State struct {
	items []Item
}

// NewState builds a state from already-valid lines.
func NewState(items ...Item) State {
	return State{items: cloneItems(items)}
}

// Items returns a copy of the lines.
func (s State) Items() []Item {
	return cloneItems(s.items)
}

// Len is the number of distinct lines.
func (s State) Len() int {
	return len(s.items)
}

// Units is the sum of all quantities.
func (s State) Units() int {
	units := 0
	for _, item := range s.items {
		units += item.Quantity
	}
	return units
}

// Find returns the line for id.
func (s State) Find(id ItemID) (Item, bool) {
	if idx := s.index(id); idx >= 0 {
		return s.items[idx], true
	}
	return Item{}, false
}

// Total sums price times quantity over every line.
func (s State) Total() decimal.Decimal {
	return Total(s.items)
}

func (s State) index(id ItemID) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

// Total sums price times quantity. String prices are coerced, so
// [{49 x2}, {"₹39" x1}] totals 137.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
