package cart

import (
	"strings"

	"github.com/angelmondragon/storefront-cart/api/validators"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// AddItemRequest is the catalog product payload for addToCart. The quantity is
// accepted but ignored: every add is one unit.
type AddItemRequest struct {
	ID       cart.ItemID   `json:"id" validate:"max=128"`
	LegacyID cart.ItemID   `json:"_id" validate:"max=128"`
	Name     string        `json:"name" validate:"max=256"`
	Price    cart.Price    `json:"price"`
	Category string        `json:"category" validate:"max=128"`
	Image    string        `json:"image" validate:"omitempty,max=2048"`
	ImageURL string        `json:"imageUrl" validate:"omitempty,max=2048"`
	Quantity cart.Quantity `json:"quantity"`
}

// RemoveItemRequest is the optional body for removeFromCart.
type RemoveItemRequest struct {
	Quantity *int `json:"quantity" validate:"omitempty,min=1,max=10000"`
}

func (req AddItemRequest) toItem() (cart.Item, error) {
	id := cart.ItemID(strings.TrimSpace(string(req.ID)))
	if id == "" {
		id = cart.ItemID(strings.TrimSpace(string(req.LegacyID)))
	}
	if id == "" {
		return cart.Item{}, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"id": "is required"})
	}
	image := strings.TrimSpace(req.Image)
	if image == "" {
		image = strings.TrimSpace(req.ImageURL)
	}
	return cart.Item{
		ID:       id,
		Name:     validators.SanitizeText(req.Name, 256),
		Category: validators.SanitizeText(req.Category, 128),
		Image:    image,
		Price:    req.Price,
		Quantity: 1,
	}, nil
}

func (req RemoveItemRequest) amount() int {
	if req.Quantity == nil {
		return 1
	}
	return *req.Quantity
}
