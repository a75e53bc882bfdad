package cart

// Reduce applies action to state and returns the next state. It never fails
// and never mutates the input.
func Reduce(state State, action Action) State {
	switch action.Kind {
	case KindAddToCart:
		return addToCart(state, action.Item)
	case KindRemoveFromCart:
		return removeFromCart(state, action.ID, action.Quantity)
	case KindClearCart:
		return State{items: []Item{}}
	case KindLoadCart:
		return State{items: repair(action.Items)}
	default:
		return state
	}
}

// addToCart bumps an existing line by one, up to MaxQuantity. New lines always
// start at one unit, whatever quantity the payload carries.
func addToCart(state State, item Item) State {
	if item.ID == "" {
		return state
	}
	items := cloneItems(state.items)
	if idx := state.index(item.ID); idx >= 0 {
		if items[idx].Quantity < MaxQuantity {
			items[idx].Quantity++
		}
		return State{items: items}
	}
	item.Quantity = 1
	return State{items: append(items, item)}
}

func removeFromCart(state State, id ItemID, quantity int) State {
	idx := state.index(id)
	if idx < 0 {
		return state
	}
	if quantity <= 0 {
		quantity = 1
	}
	items := cloneItems(state.items)
	remaining := items[idx].Quantity - quantity
	if remaining <= 0 {
		return State{items: append(items[:idx], items[idx+1:]...)}
	}
	items[idx].Quantity = remaining
	return State{items: items}
}

// repair restores the line invariants on loaded data. Lines without an id or
// with a non-positive quantity are dropped and duplicates fold into the first
// occurrence. Quantities are capped at MaxQuantity.
func repair(loaded []Item) []Item {
	items := make([]Item, 0, len(loaded))
	seen := make(map[ItemID]int, len(loaded))
	for _, item := range loaded {
		if item.ID == "" || item.Quantity <= 0 {
			continue
		}
		item.Quantity = min(item.Quantity, MaxQuantity)
		if idx, ok := seen[item.ID]; ok {
			items[idx].Quantity = min(items[idx].Quantity+item.Quantity, MaxQuantity)
			continue
		}
		seen[item.ID] = len(items)
		items = append(items, item)
	}
	return items
}
