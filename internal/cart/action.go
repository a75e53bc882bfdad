package cart

// ActionKind names a reducer action.
type ActionKind string

const (
	KindAddToCart      ActionKind = "cart/addToCart"
	KindRemoveFromCart ActionKind = "cart/removeFromCart"
	KindClearCart      ActionKind = "cart/clearCart"
	KindLoadCart       ActionKind = "cart/loadCart"
)

// Action is a single dispatchable cart transition.
type Action struct {
	Kind     ActionKind
	Item     Item
	ID       ItemID
	Quantity int
	Items    []Item
}

// AddToCart adds one unit of item, creating the line when it is new.
func AddToCart(item Item) Action {
	return Action{Kind: KindAddToCart, Item: item}
}

// RemoveFromCart decrements the line by quantity. A non-positive quantity
// removes a single unit.
func RemoveFromCart(id ItemID, quantity int) Action {
	return Action{Kind: KindRemoveFromCart, ID: id, Quantity: quantity}
}

// ClearCart empties the cart.
func ClearCart() Action {
	return Action{Kind: KindClearCart}
}

// LoadCart replaces the lines with items read from the durable store.
func LoadCart(items []Item) Action {
	return Action{Kind: KindLoadCart, Items: cloneItems(items)}
}

// Persisted reports whether the resulting state is written to the durable store.
func (a Action) Persisted() bool {
	switch a.Kind {
	case KindAddToCart, KindRemoveFromCart, KindClearCart:
		return true
	default:
		return false
	}
}

func (a Action) op() Op {
	if a.Kind == KindClearCart {
		return OpDelete
	}
	return OpSet
}
