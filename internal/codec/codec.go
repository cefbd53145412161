// Package codec converts carts to and from the persisted JSON snapshot.
//
// A snapshot is a JSON array of line items in cart order:
//
//	[{"id":42,"name":"Sneaker","price":"179.9","currency":"BRL","imageUrl":"...","amount":2}]
package codec

import (
	"encoding/json"
	"fmt"

	"github.com/nikolayk812/cartstate/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type lineItem struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	ImageURL string          `json:"imageUrl"`
	Amount   int             `json:"amount"`
}

func MarshalCart(cart domain.Cart) ([]byte, error) {
	items := make([]lineItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, mapDomainToLineItem(item))
	}

	blob, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return blob, nil
}

// UnmarshalCart parses a snapshot and rejects carts that break line item invariants.
func UnmarshalCart(blob []byte) (domain.Cart, error) {
	var items []lineItem
	if err := json.Unmarshal(blob, &items); err != nil {
		return domain.Cart{}, fmt.Errorf("json.Unmarshal: %w", err)
	}

	cart, err := mapLineItemsToDomain(items)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("mapLineItemsToDomain: %w", err)
	}

	if err := cart.Validate(); err != nil {
		return domain.Cart{}, fmt.Errorf("cart.Validate: %w", err)
	}

	return cart, nil
}

func mapDomainToLineItem(item domain.LineItem) lineItem {
	return lineItem{
		ID:       int64(item.ID),
		Name:     item.Name,
		Price:    item.Price.Amount,
		Currency: item.Price.Currency.String(),
		ImageURL: item.ImageURL,
		Amount:   item.Amount,
	}
}

func mapLineItemToDomain(item lineItem) (domain.LineItem, error) {
	parsedCurrency, err := currency.ParseISO(item.Currency)
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("currency[%s] is not valid: %w", item.Currency, err)
	}

	return domain.LineItem{
		Product: domain.Product{
			ID:       domain.ProductID(item.ID),
			Name:     item.Name,
			Price:    domain.Money{Amount: item.Price, Currency: parsedCurrency},
			ImageURL: item.ImageURL,
		},
		Amount: item.Amount,
	}, nil
}

func mapLineItemsToDomain(items []lineItem) (domain.Cart, error) {
	var cart domain.Cart

	for _, item := range items {
		mapped, err := mapLineItemToDomain(item)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("mapLineItemToDomain: %w", err)
		}

		cart.Items = append(cart.Items, mapped)
	}

	return cart, nil
}
