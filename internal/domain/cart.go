package domain

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// Cart action names accepted by Cart.Apply.
const (
	CartIncrement = "inc"
	CartDecrement = "dec"
)

// Cart maps a string-encoded item id to a quantity. Every stored quantity is >= 1.
type Cart map[string]int

func cartKey(itemID int64) string {
	return strconv.FormatInt(itemID, 10)
}

// Add increments the quantity of itemID, inserting it with quantity 1 when absent.
func (c *Cart) Add(itemID int64) {
	if *c == nil {
		*c = Cart{}
	}
	(*c)[cartKey(itemID)]++
}

// Apply runs an increment or decrement on an existing entry. Entries that are
// absent and unknown actions are left untouched; it reports whether the cart changed.
func (c Cart) Apply(itemID int64, action string) bool {
	key := cartKey(itemID)
	qty, ok := c[key]
	if !ok {
		return false
	}
	switch action {
	case CartIncrement:
		c[key] = qty + 1
	case CartDecrement:
		if qty-1 <= 0 {
			delete(c, key)
		} else {
			c[key] = qty - 1
		}
	default:
		return false
	}
	return true
}

// Remove deletes the entry for itemID if present.
func (c Cart) Remove(itemID int64) {
	delete(c, cartKey(itemID))
}

// Clear empties the cart in place.
func (c Cart) Clear() {
	for k := range c {
		delete(c, k)
	}
}

func (c Cart) Quantity(itemID int64) int {
	return c[cartKey(itemID)]
}

// Count is the sum of all quantities.
func (c Cart) Count() int {
	n := 0
	for _, q := range c {
		n += q
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c) == 0
}

// ItemIDs returns the ids referenced by the cart in ascending order. Keys that
// do not parse as ids are skipped.
func (c Cart) ItemIDs() []int64 {
	ids := make([]int64, 0, len(c))
	for k := range c {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// CartLine is one resolved cart entry.
type CartLine struct {
	Item      Item            `json:"item"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

// CartView is the cart joined with the catalog.
type CartView struct {
	Lines []CartLine      `json:"lines"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Resolve joins the cart with the given catalog entries. Entries whose item is
// missing from catalog are dropped from the lines and the total.
func (c Cart) Resolve(catalog map[int64]Item) CartView {
	view := CartView{Lines: []CartLine{}, Total: decimal.Zero}
	for _, id := range c.ItemIDs() {
		item, ok := catalog[id]
		if !ok {
			continue
		}
		qty := c.Quantity(id)
		line := item.Price.Mul(decimal.NewFromInt(int64(qty)))
		view.Lines = append(view.Lines, CartLine{Item: item, Quantity: qty, LineTotal: line})
		view.Total = view.Total.Add(line)
		view.Count += qty
	}
	return view
}
