package cart

import (
	"bytes"
	"encoding/json"

	pkgerrors "github.com/angelmondragon/storefront-cart/pkg/errors"
)

// EncodeItems renders the durable snapshot: a JSON array of lines.
func EncodeItems(items []Item) (string, error) {
	if items == nil {
		items = []Item{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart items")
	}
	return string(b), nil
}

// DecodeItems parses a durable snapshot. Anything other than a JSON array of
// lines is reported as corrupt data.
func DecodeItems(raw string) ([]Item, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 || data[0] != '[' {
		return nil, pkgerrors.New(pkgerrors.CodeCorruptData, "stored cart is not a JSON array")
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeCorruptData, err, "decode stored cart")
	}
	return items, nil
}
