package domain

import (
	"fmt"
	"slices"
)

type ProductID int64

type Product struct {
	ID       ProductID
	Name     string
	Price    Money
	ImageURL string
}

// LineItem is a product held in the cart. Amount is at least 1 while the item is present.
type LineItem struct {
	Product

	Amount int
}

// Cart is an ordered collection of line items, unique by product ID.
// Its methods never modify the receiver's backing array.
type Cart struct {
	Items []LineItem
}

type StockRecord struct {
	ProductID ProductID
	Amount    int
}

type UpdateProductAmount struct {
	ProductID ProductID
	Amount    int
}

func (c Cart) Find(id ProductID) (LineItem, bool) {
	i := c.index(id)
	if i < 0 {
		return LineItem{}, false
	}

	return c.Items[i], true
}

func (c Cart) Contains(id ProductID) bool {
	return c.index(id) >= 0
}

// AmountOf returns the amount held for id, or 0 when the product is absent.
func (c Cart) AmountOf(id ProductID) int {
	item, ok := c.Find(id)
	if !ok {
		return 0
	}

	return item.Amount
}

func (c Cart) Len() int {
	return len(c.Items)
}

// Quantity is the total number of units across all line items.
func (c Cart) Quantity() int {
	total := 0
	for _, item := range c.Items {
		total += item.Amount
	}

	return total
}

func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}

	return Cart{Items: slices.Clone(c.Items)}
}

// WithAmount returns a copy of the cart with the amount of id replaced.
// An absent id yields an unchanged copy.
func (c Cart) WithAmount(id ProductID, amount int) Cart {
	next := c.Clone()

	if i := next.index(id); i >= 0 {
		next.Items[i].Amount = amount
	}

	return next
}

func (c Cart) Append(item LineItem) Cart {
	next := c.Clone()
	next.Items = append(next.Items, item)

	return next
}

func (c Cart) Without(id ProductID) Cart {
	next := c.Clone()
	next.Items = slices.DeleteFunc(next.Items, func(item LineItem) bool {
		return item.ID == id
	})

	return next
}

func (c Cart) Validate() error {
	seen := make(map[ProductID]struct{}, len(c.Items))

	for _, item := range c.Items {
		if item.Amount < 1 {
			return fmt.Errorf("product[%d] amount[%d] is not positive", item.ID, item.Amount)
		}

		if _, ok := seen[item.ID]; ok {
			return fmt.Errorf("product[%d] is duplicated", item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	return nil
}

func (c Cart) index(id ProductID) int {
	return slices.IndexFunc(c.Items, func(item LineItem) bool {
		return item.ID == id
	})
}
