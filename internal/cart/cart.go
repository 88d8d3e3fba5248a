package cart

// Package cart implements the pre-checkout shopping cart. A Cart is owned by
// a single goroutine (one per client session); it does no locking of its own.

import (
	"encoding/json"
	"fmt"
)

// Item is one cart line. Lines are identified by (SKU, Size, Color); the same
// product in a different size or color is a separate line.
type Item struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Price    int    `json:"price"`
	Quantity int    `json:"quantity"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Image    string `json:"image,omitempty"`
}

type lineKey struct {
	sku   string
	size  string
	color string
}

func (i Item) key() lineKey {
	return lineKey{sku: i.SKU, size: i.Size, color: i.Color}
}

// Cart accumulates items before checkout. The zero value is not usable; call
// New.
type Cart struct {
	lines map[lineKey]*Item
	order []lineKey
}

func New() *Cart {
	return &Cart{lines: make(map[lineKey]*Item)}
}

// Add appends an item, or increments the quantity of an existing line with
// the same SKU, size and color.
func (c *Cart) Add(item Item) error {
	if item.SKU == "" {
		return fmt.Errorf("item sku is required")
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("item quantity must be positive, got %d", item.Quantity)
	}

	key := item.key()
	if existing, ok := c.lines[key]; ok {
		existing.Quantity += item.Quantity
		return nil
	}
	line := item
	c.lines[key] = &line
	c.order = append(c.order, key)
	return nil
}

// UpdateQuantity sets an existing line's quantity. Zero or negative removes
// the line. Unknown lines are a no-op.
func (c *Cart) UpdateQuantity(sku, size, color string, quantity int) {
	key := lineKey{sku: sku, size: size, color: color}
	if _, ok := c.lines[key]; !ok {
		return
	}
	if quantity <= 0 {
		c.remove(key)
		return
	}
	c.lines[key].Quantity = quantity
}

// Remove drops a line entirely.
func (c *Cart) Remove(sku, size, color string) {
	c.remove(lineKey{sku: sku, size: size, color: color})
}

func (c *Cart) remove(key lineKey) {
	if _, ok := c.lines[key]; !ok {
		return
	}
	delete(c.lines, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart.
func (c *Cart) Clear() {
	c.lines = make(map[lineKey]*Item)
	c.order = nil
}

// Items returns the lines in insertion order. The slice is a copy; mutating
// it does not affect the cart.
func (c *Cart) Items() []Item {
	items := make([]Item, 0, len(c.order))
	for _, key := range c.order {
		items = append(items, *c.lines[key])
	}
	return items
}

// TotalItems is the sum of line quantities.
func (c *Cart) TotalItems() int {
	total := 0
	for _, line := range c.lines {
		total += line.Quantity
	}
	return total
}

// TotalPrice is the cart subtotal in pesos.
func (c *Cart) TotalPrice() int {
	total := 0
	for _, line := range c.lines {
		total += line.Price * line.Quantity
	}
	return total
}

// Save serializes the cart for client-side persistence.
func (c *Cart) Save() ([]byte, error) {
	return json.Marshal(c.Items())
}

// Load rebuilds a cart from a Save payload. Corrupt payloads yield an error
// and an untouched empty cart rather than a partial one.
func Load(data []byte) (*Cart, error) {
	cart := New()
	if len(data) == 0 {
		return cart, nil
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return New(), fmt.Errorf("failed to decode cart: %w", err)
	}
	for _, item := range items {
		if err := cart.Add(item); err != nil {
			return New(), fmt.Errorf("failed to restore cart line %s: %w", item.SKU, err)
		}
	}
	return cart, nil
}
