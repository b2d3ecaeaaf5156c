// Package cart keeps the transient order being composed on the order screen.
// A cart lives only as long as its screen; nothing is persisted.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrLineNotFound is returned by Increment for a menu that is not in the cart.
var ErrLineNotFound = errors.New("cart: line not found")

// ErrEmpty is returned when submitting a cart without lines.
var ErrEmpty = errors.New("cart: no lines to order")

// Item is the menu entry added to the cart.
type Item struct {
	MenuID string
	Name   string
	Price  decimal.Decimal
	Image  string
}

// Line is one menu item with its quantity. Qty is always at least 1.
type Line struct {
	Item
	Qty int
}

// Total returns price * qty.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart is an ordered bag of lines keyed by menu id. It is safe for concurrent use.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add puts item in the cart with quantity 1, or increments its line.
func (c *Cart) Add(item Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(item.MenuID); i >= 0 {
		c.lines[i].Qty++
		return
	}
	c.lines = append(c.lines, Line{Item: item, Qty: 1})
}

// Increment bumps the quantity of ref's line.
func (c *Cart) Increment(ref string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(ref)
	if i < 0 {
		return ErrLineNotFound
	}
	c.lines[i].Qty++
	return nil
}

// Decrement lowers the quantity of ref's line and removes the line when it
// reaches zero. An absent ref is a no-op.
func (c *Cart) Decrement(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.index(ref)
	if i < 0 {
		return
	}
	if c.lines[i].Qty <= 1 {
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		return
	}
	c.lines[i].Qty--
}

// Quantity returns ref's quantity, 0 when absent.
func (c *Cart) Quantity(ref string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i := c.index(ref); i >= 0 {
		return c.lines[i].Qty
	}
	return 0
}

// Subtotal is the exact sum of price * qty over all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Total())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return c.Len() == 0
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
}

func (c *Cart) index(ref string) int {
	for i, l := range c.lines {
		if l.MenuID == ref {
			return i
		}
	}
	return -1
}

// Detail is one ordered menu item on the wire.
type Detail struct {
	MenuID string `json:"menuId"`
	Qty    int    `json:"qty"`
}

// Order is the transaction create payload. A nil TableID is a take away order.
type Order struct {
	UserID  string   `json:"userId"`
	TableID *string  `json:"tableId"`
	Details []Detail `json:"transactionDetails"`
}

// Order builds the create payload from the current lines.
func (c *Cart) Order(userID string, tableID *string) Order {
	c.mu.Lock()
	defer c.mu.Unlock()

	details := make([]Detail, len(c.lines))
	for i, l := range c.lines {
		details[i] = Detail{MenuID: l.MenuID, Qty: l.Qty}
	}
	return Order{UserID: userID, TableID: tableID, Details: details}
}

// ClearPolicy decides when Submit empties the cart.
type ClearPolicy int

const (
	// ClearAlways empties the cart once submission finished, whatever the result.
	ClearAlways ClearPolicy = iota
	// ClearOnSuccess keeps the lines after a failed submission so the user can retry.
	ClearOnSuccess
)

// Submitter sends an order to the API.
type Submitter interface {
	SubmitOrder(ctx context.Context, order Order) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, order Order) error

func (f SubmitterFunc) SubmitOrder(ctx context.Context, order Order) error {
	return f(ctx, order)
}

// Submit sends the cart's order and applies policy. An empty cart is not sent.
func (c *Cart) Submit(ctx context.Context, s Submitter, userID string, tableID *string, policy ClearPolicy) error {
	if c.Empty() {
		return ErrEmpty
	}

	err := s.SubmitOrder(ctx, c.Order(userID, tableID))
	if err == nil || policy == ClearAlways {
		c.Clear()
	}
	return err
}
