package cart

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-cart/api/responses"
	"github.com/angelmondragon/storefront-cart/api/validators"
	"github.com/angelmondragon/storefront-cart/internal/cart"
	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
	"github.com/angelmondragon/storefront-cart/pkg/logger"
)

// Dispatcher is the state container the handlers drive.
type Dispatcher interface {
	Dispatch(ctx context.Context, action cart.Action) cart.State
	State() cart.State
}

// CartFetch returns the current lines and total.
func CartFetch(store Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		responses.WriteSuccess(w, newCartView(store.State()))
	}
}

// CartAddItem dispatches addToCart.
func CartAddItem(store Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		var payload AddItemRequest
		if err := validators.DecodeJSONBody(r, &payload, validators.AllowUnknownFields()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := payload.toItem()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := store.Dispatch(r.Context(), cart.AddToCart(item))
		responses.WriteSuccess(w, newCartView(state))
	}
}

// CartRemoveItem dispatches removeFromCart. Unknown ids leave the cart as is.
func CartRemoveItem(store Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}

		id, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload RemoveItemRequest
		if err := validators.DecodeJSONBody(r, &payload, validators.AllowEmptyBody()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state := store.Dispatch(r.Context(), cart.RemoveFromCart(id, payload.amount()))
		responses.WriteSuccess(w, newCartView(state))
	}
}

// CartClear dispatches clearCart.
func CartClear(store Dispatcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cart store unavailable"))
			return
		}
		state := store.Dispatch(r.Context(), cart.ClearCart())
		responses.WriteSuccess(w, newCartView(state))
	}
}

func itemIDParam(r *http.Request) (cart.ItemID, error) {
	raw := chi.URLParam(r, "id")
	id, err := url.PathUnescape(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required")
	}
	return cart.ItemID(id), nil
}
