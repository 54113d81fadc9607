// Package cart keeps a member's shop cart: an ordered list of line items and
// at most one active promotion, persisted through an injected Store.
//
// Every operation is a read-modify-write of the whole list. Writers sharing a
// store from different processes can lose updates (last write wins).
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"bigboss/internal/core"
)

// Category says which promotions can touch a line.
type Category string

const (
	CategoryMembership Category = "membership"
	CategoryShop       Category = "shop"
)

const (
	cartKey  = "gymCart"
	promoKey = "activePromo"
)

var (
	ErrInvalidPromotion = errors.New("invalid promotion")
	ErrInvalidItem      = errors.New("invalid cart item")
)

// Item is what the storefront submits when a product is added.
type Item struct {
	Name      string     `json:"name"`
	Options   string     `json:"options"`
	Category  Category   `json:"category"`
	UnitPrice core.Money `json:"unitPrice"`
}

// Line is one distinct entry in the cart, keyed by (Name, Options).
type Line struct {
	Name      string     `json:"name"`
	Options   string     `json:"options"`
	Category  Category   `json:"category"`
	Quantity  int        `json:"quantity"`
	UnitPrice core.Money `json:"unitPrice"`
	LineTotal core.Money `json:"lineTotal"`
}

// Promotion is a percentage discount on every line of one category.
type Promotion struct {
	Kind            string   `json:"kind"`
	DiscountPercent int      `json:"discountPercent"`
	AppliesTo       Category `json:"appliesTo"`
}

func (c Category) valid() bool {
	return c == CategoryMembership || c == CategoryShop
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidItem)
	}
	if i.UnitPrice.Cents < 0 {
		return fmt.Errorf("%w: negative price", ErrInvalidItem)
	}
	if i.Category != "" && !i.Category.valid() {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidItem, i.Category)
	}
	return nil
}

func (p Promotion) Validate() error {
	if p.DiscountPercent < 0 || p.DiscountPercent > 100 {
		return fmt.Errorf("%w: discount must be 0-100", ErrInvalidPromotion)
	}
	if !p.AppliesTo.valid() {
		return fmt.Errorf("%w: appliesTo must be %q or %q", ErrInvalidPromotion, CategoryMembership, CategoryShop)
	}
	return nil
}

func (l Line) matches(name, options string) bool {
	return l.Name == name && l.Options == options
}

// reprice recomputes LineTotal from UnitPrice, Quantity and the active promotion.
func (l *Line) reprice(promo *Promotion) {
	total := l.UnitPrice.Times(l.Quantity)
	if promo != nil && promo.AppliesTo == l.Category {
		total = total.Discount(promo.DiscountPercent)
	}
	l.LineTotal = total
}

// Cart is the aggregator for one session's cart. The mutex serializes callers
// in this process only.
type Cart struct {
	mu      sync.Mutex
	store   Store
	session string
	logger  *slog.Logger
}

// New binds a cart to a store. session namespaces the keys so one store can
// hold many carts; an empty session uses the bare keys.
func New(store Store, session string) *Cart {
	return &Cart{
		store:   store,
		session: session,
		logger:  slog.Default().With("component", "cart", "cart_session", session),
	}
}

func (c *Cart) key(name string) string {
	if c.session == "" {
		return name
	}
	return c.session + ":" + name
}

// loadLines returns the persisted list. Absent, unreadable or corrupt data
// yields an empty cart.
func (c *Cart) loadLines(ctx context.Context) []Line {
	data, ok, err := c.store.Load(ctx, c.key(cartKey))
	if err != nil {
		c.logger.WarnContext(ctx, "Cart load failed, starting empty", "error", err)
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}
	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		c.logger.WarnContext(ctx, "Cart data corrupt, starting empty", "error", err)
		return nil
	}
	valid := lines[:0]
	for _, l := range lines {
		if l.Quantity < 1 || l.UnitPrice.Cents < 0 {
			continue
		}
		valid = append(valid, l)
	}
	return valid
}

func (c *Cart) saveLines(ctx context.Context, lines []Line) error {
	if lines == nil {
		lines = []Line{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := c.store.Save(ctx, c.key(cartKey), data); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (c *Cart) loadPromotion(ctx context.Context) *Promotion {
	data, ok, err := c.store.Load(ctx, c.key(promoKey))
	if err != nil {
		c.logger.WarnContext(ctx, "Promotion load failed, ignoring", "error", err)
		return nil
	}
	if !ok || len(data) == 0 {
		return nil
	}
	var p Promotion
	if err := json.Unmarshal(data, &p); err != nil || p.Validate() != nil {
		c.logger.WarnContext(ctx, "Promotion data corrupt, ignoring")
		return nil
	}
	return &p
}

// Lines returns the current cart contents.
func (c *Cart) Lines(ctx context.Context) []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadLines(ctx)
}

// Promotion returns the active promotion, or nil.
func (c *Cart) Promotion(ctx context.Context) *Promotion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadPromotion(ctx)
}

// AddItem merges into the line with the same (name, options) or appends a
// new line with quantity 1.
func (c *Cart) AddItem(ctx context.Context, item Item) ([]Line, error) {
	if err := item.Validate(); err != nil {
		return nil, err
	}
	if item.Category == "" {
		item.Category = CategoryShop
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.loadLines(ctx)
	promo := c.loadPromotion(ctx)

	merged := false
	for i := range lines {
		if lines[i].matches(item.Name, item.Options) {
			lines[i].Quantity++
			lines[i].reprice(promo)
			merged = true
			break
		}
	}
	if !merged {
		l := Line{
			Name:      item.Name,
			Options:   item.Options,
			Category:  item.Category,
			Quantity:  1,
			UnitPrice: item.UnitPrice,
		}
		l.reprice(promo)
		lines = append(lines, l)
	}

	if err := c.saveLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// RemoveItem deletes the line at index. Out-of-range indexes leave the cart
// untouched.
func (c *Cart) RemoveItem(ctx context.Context, index int) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.loadLines(ctx)
	if index < 0 || index >= len(lines) {
		return lines, nil
	}
	lines = append(lines[:index], lines[index+1:]...)
	if err := c.saveLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// IncreaseQuantity adds one to the line at index.
func (c *Cart) IncreaseQuantity(ctx context.Context, index int) ([]Line, error) {
	return c.adjust(ctx, index, 1)
}

// DecreaseQuantity removes one from the line at index; a line at quantity 1
// is removed.
func (c *Cart) DecreaseQuantity(ctx context.Context, index int) ([]Line, error) {
	return c.adjust(ctx, index, -1)
}

func (c *Cart) adjust(ctx context.Context, index, delta int) ([]Line, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := c.loadLines(ctx)
	if index < 0 || index >= len(lines) {
		return lines, nil
	}
	if lines[index].Quantity+delta < 1 {
		lines = append(lines[:index], lines[index+1:]...)
	} else {
		lines[index].Quantity += delta
		lines[index].reprice(c.loadPromotion(ctx))
	}
	if err := c.saveLines(ctx, lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// ApplyPromotion replaces the active promotion and reprices every line.
// Promotions never stack.
func (c *Cart) ApplyPromotion(ctx context.Context, promo Promotion) ([]Line, error) {
	if err := promo.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data, err := json.Marshal(promo)
	if err != nil {
		return nil, fmt.Errorf("encode promotion: %w", err)
	}
	previous := c.loadPromotion(ctx)
	if err := c.store.Save(ctx, c.key(promoKey), data); err != nil {
		return nil, fmt.Errorf("save promotion: %w", err)
	}

	lines := c.loadLines(ctx)
	for i := range lines {
		lines[i].reprice(&promo)
	}
	if err := c.saveLines(ctx, lines); err != nil {
		// The stored lines still carry the previous prices.
		c.restorePromotion(ctx, previous)
		return nil, err
	}
	c.logger.InfoContext(ctx, "Promotion applied",
		"kind", promo.Kind,
		"discount_percent", promo.DiscountPercent,
		"applies_to", promo.AppliesTo)
	return lines, nil
}

func (c *Cart) restorePromotion(ctx context.Context, previous *Promotion) {
	var err error
	if previous == nil {
		err = c.store.Delete(ctx, c.key(promoKey))
	} else {
		var data []byte
		if data, err = json.Marshal(previous); err == nil {
			err = c.store.Save(ctx, c.key(promoKey), data)
		}
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "Promotion rollback failed", "error", err)
	}
}

// CalculateTotal sums every line total. An empty cart totals zero.
func (c *Cart) CalculateTotal(ctx context.Context) core.Money {
	var total core.Money
	for _, l := range c.Lines(ctx) {
		total = total.Add(l.LineTotal)
	}
	return total
}

// ClearCart removes the persisted lines.
func (c *Cart) ClearCart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, c.key(cartKey)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// ClearPromotion removes the persisted promotion and puts the remaining lines
// back at full price.
func (c *Cart) ClearPromotion(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Delete(ctx, c.key(promoKey)); err != nil {
		return fmt.Errorf("clear promotion: %w", err)
	}
	lines := c.loadLines(ctx)
	if len(lines) == 0 {
		return nil
	}
	for i := range lines {
		lines[i].reprice(nil)
	}
	return c.saveLines(ctx, lines)
}
