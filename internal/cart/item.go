package cart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// MaxQuantity caps the units on a single line.
const MaxQuantity = 10000

// ItemID identifies a product line. Catalog payloads send either a string
// (`_id`) or a number; both are kept as text so equality is exact.
type ItemID string

// UnmarshalJSON accepts a JSON string or number.
func (id *ItemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ItemID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("item id must be a string or number: %w", err)
	}
	*id = ItemID(n.String())
	return nil
}

func (id ItemID) String() string {
	return string(id)
}

// Quantity is a unit count read from a payload. A JSON number is truncated
// and capped at MaxQuantity; anything else counts as one unit.
type Quantity int

// UnmarshalJSON never fails, so one odd line cannot reject a whole cart.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	*q = 1
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] == '"' {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return nil
	}
	if v, err := n.Int64(); err == nil {
		*q = clampQuantity(v)
		return nil
	}
	f, err := n.Float64()
	if math.IsNaN(f) || (err != nil && !math.IsInf(f, 0)) {
		return nil
	}
	switch {
	case f >= MaxQuantity:
		*q = MaxQuantity
	case f <= 0:
		*q = 0
	default:
		*q = Quantity(int64(f))
	}
	return nil
}

func clampQuantity(v int64) Quantity {
	switch {
	case v > MaxQuantity:
		return MaxQuantity
	case v < 0:
		return 0
	default:
		return Quantity(v)
	}
}

// Item is one cart line.
type Item struct {
	ID       ItemID
	Name     string
	Category string
	Image    string
	Price    Price
	Quantity int
}

type itemJSON struct {
	ID       ItemID    `json:"id"`
	LegacyID ItemID    `json:"_id,omitempty"`
	Name     string    `json:"name"`
	Price    Price     `json:"price"`
	Category string    `json:"category"`
	Image    string    `json:"image,omitempty"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Quantity *Quantity `json:"quantity,omitempty"`
}

// MarshalJSON writes the persisted line shape. The image is written under both
// keys so older readers keep rendering it.
func (i Item) MarshalJSON() ([]byte, error) {
	qty := Quantity(i.Quantity)
	return json.Marshal(itemJSON{
		ID:       i.ID,
		Name:     i.Name,
		Price:    i.Price,
		Category: i.Category,
		Image:    i.Image,
		ImageURL: i.Image,
		Quantity: &qty,
	})
}

// UnmarshalJSON reads both the persisted shape and raw catalog payloads.
// A missing quantity counts as one unit.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	id := raw.ID
	if id == "" {
		id = raw.LegacyID
	}
	image := raw.Image
	if image == "" {
		image = raw.ImageURL
	}
	qty := 1
	if raw.Quantity != nil {
		qty = int(*raw.Quantity)
	}
	*i = Item{
		ID:       id,
		Name:     raw.Name,
		Category: raw.Category,
		Image:    image,
		Price:    raw.Price,
		Quantity: qty,
	}
	return nil
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Amount().Mul(decimalFromInt(i.Quantity))
}
