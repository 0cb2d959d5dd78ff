// Package pos holds the point-of-sale cart and turns a paid cart into a
// certified invoice-receipt (FR).
package pos

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"gestao/internal/platform/money"
)

var (
	ErrItemNotFound    = errors.New("cart item not found")
	ErrInvalidDiscount = errors.New("discount must be between 0 and 100")
	ErrInvalidPrice    = errors.New("unit price must not be negative")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

var hundred = decimal.NewFromInt(100)

type Product struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Item is one cart line. Prices include VAT.
type Item struct {
	ID          string          `json:"id"`
	ProductID   string          `json:"productId"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	DiscountPct decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Total       decimal.Decimal `json:"total"`
}

func (i *Item) recalc() {
	i.Total = i.Quantity.Mul(i.UnitPrice).Mul(hundred.Sub(i.DiscountPct)).Div(hundred)
}

// Cart is owned by one checkout session and is not safe for concurrent use.
type Cart struct {
	items          []Item
	globalDiscount decimal.Decimal
	vatRate        decimal.Decimal
}

// NewCart returns an empty cart; vatRate is a percentage such as 14.
func NewCart(vatRate decimal.Decimal) *Cart {
	return &Cart{vatRate: vatRate}
}

// Add puts one unit of p in the cart; a product already present gains one unit.
func (c *Cart) Add(p Product) (Item, error) {
	if p.Price.IsNegative() {
		return Item{}, ErrInvalidPrice
	}
	for i := range c.items {
		if c.items[i].ProductID == p.ID {
			c.items[i].Quantity = c.items[i].Quantity.Add(decimal.NewFromInt(1))
			c.items[i].recalc()
			return c.items[i], nil
		}
	}
	item := Item{
		ID:          p.ID,
		ProductID:   p.ID,
		Description: p.Name,
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   p.Price,
		TaxRate:     c.vatRate,
	}
	item.recalc()
	c.items = append(c.items, item)
	return item, nil
}

// AddLine puts qty units of p in the cart with a line discount. Repeated
// products accumulate quantity and take the latest discount.
func (c *Cart) AddLine(p Product, qty, discountPct decimal.Decimal) (Item, error) {
	if !qty.IsPositive() {
		return Item{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidQuantity)
	}
	if err := checkPercent(discountPct); err != nil {
		return Item{}, err
	}
	item, err := c.Add(p)
	if err != nil {
		return Item{}, err
	}
	qty = item.Quantity.Sub(decimal.NewFromInt(1)).Add(qty)
	if err := c.SetQuantity(item.ID, qty); err != nil {
		return Item{}, err
	}
	if err := c.SetLineDiscount(item.ID, discountPct); err != nil {
		return Item{}, err
	}
	for _, it := range c.items {
		if it.ID == item.ID {
			return it, nil
		}
	}
	return Item{}, ErrItemNotFound
}

// SetQuantity changes the quantity of a line; zero or less removes it.
func (c *Cart) SetQuantity(itemID string, qty decimal.Decimal) error {
	for i := range c.items {
		if c.items[i].ID != itemID {
			continue
		}
		if !qty.IsPositive() {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
		c.items[i].Quantity = qty
		c.items[i].recalc()
		return nil
	}
	return ErrItemNotFound
}

func (c *Cart) SetLineDiscount(itemID string, pct decimal.Decimal) error {
	if err := checkPercent(pct); err != nil {
		return err
	}
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].DiscountPct = pct
			c.items[i].recalc()
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) SetGlobalDiscount(pct decimal.Decimal) error {
	if err := checkPercent(pct); err != nil {
		return err
	}
	c.globalDiscount = pct
	return nil
}

func (c *Cart) Items() []Item {
	return append([]Item(nil), c.items...)
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

func (c *Cart) GlobalDiscount() decimal.Decimal {
	return c.globalDiscount
}

func (c *Cart) VATRate() decimal.Decimal {
	return c.vatRate
}

func (c *Cart) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Total)
	}
	return total
}

func (c *Cart) DiscountAmount() decimal.Decimal {
	return c.Subtotal().Mul(c.globalDiscount).Div(hundred)
}

// Total is the amount due, VAT included.
func (c *Cart) Total() decimal.Decimal {
	return money.Round2(c.Subtotal().Sub(c.DiscountAmount()))
}

// NetAmount is the total without VAT.
func (c *Cart) NetAmount() decimal.Decimal {
	return money.Round2(c.Total().Div(decimal.NewFromInt(1).Add(c.vatRate.Div(hundred))))
}

// TaxAmount is the VAT contained in the total.
func (c *Cart) TaxAmount() decimal.Decimal {
	return c.Total().Sub(c.NetAmount())
}

// Change is what the client gets back; never negative.
func (c *Cart) Change(received decimal.Decimal) decimal.Decimal {
	change := received.Sub(c.Total())
	if change.IsNegative() {
		return decimal.Zero
	}
	return change
}

// Clear resets the cart for the next sale.
func (c *Cart) Clear() {
	c.items = nil
	c.globalDiscount = decimal.Zero
}

func checkPercent(pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return fmt.Errorf("%w: %s", ErrInvalidDiscount, pct.String())
	}
	return nil
}
