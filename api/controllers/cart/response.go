package cart

import (
	"github.com/angelmondragon/storefront-cart/internal/cart"
	"github.com/shopspring/decimal"
)

// CartView is the outbound cart read model.
type CartView struct {
	Items []cart.Item     `json:"items"`
	Lines int             `json:"lines"`
	Units int             `json:"units"`
	Total decimal.Decimal `json:"total"`
}

func newCartView(state cart.State) CartView {
	return CartView{
		Items: state.Items(),
		Lines: state.Len(),
		Units: state.Units(),
		Total: state.Total(),
	}
}
