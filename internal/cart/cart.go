// Package cart holds the shopping cart and wishlist kept in signed browser cookies.
package cart

import "errors"

// Limits keep the encoded cookies under the 4KB browsers accept.
const (
	MaxLines         = 20
	MaxQuantity      = 99
	MaxWishlistItems = 40

	NoticeAlreadyInWishlist = "already in wishlist"
	NoticeAddedToWishlist   = "added to wishlist"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 99")
	ErrCartFull        = errors.New("cart is full")
	ErrWishlistFull    = errors.New("wishlist is full")
	ErrLineNotFound    = errors.New("item is not in the cart")
)

type Line struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) find(productID, variantID string) int {
	for i, l := range c.Lines {
		if l.ProductID == productID && l.VariantID == variantID {
			return i
		}
	}
	return -1
}

// Add merges quantities for the same product and variant.
func (c *Cart) Add(productID, variantID string, qty int) error {
	if qty < 1 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}

	if i := c.find(productID, variantID); i >= 0 {
		merged := c.Lines[i].Quantity + qty
		if merged > MaxQuantity {
			return ErrInvalidQuantity
		}
		c.Lines[i].Quantity = merged
		return nil
	}

	if len(c.Lines) >= MaxLines {
		return ErrCartFull
	}
	c.Lines = append(c.Lines, Line{ProductID: productID, VariantID: variantID, Quantity: qty})
	return nil
}

// Update sets the quantity of a line; zero removes it.
func (c *Cart) Update(productID, variantID string, qty int) error {
	if qty < 0 || qty > MaxQuantity {
		return ErrInvalidQuantity
	}

	i := c.find(productID, variantID)
	if i < 0 {
		return ErrLineNotFound
	}
	if qty == 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return nil
	}
	c.Lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(productID, variantID string) bool {
	i := c.find(productID, variantID)
	if i < 0 {
		return false
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	return true
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

func (c *Cart) ProductIDs() []string {
	seen := make(map[string]bool, len(c.Lines))
	ids := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	return ids
}

type Wishlist struct {
	ProductIDs []string `json:"product_ids"`
}

func (w *Wishlist) Contains(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return true
		}
	}
	return false
}

// Add appends productID unless present and returns the notice to show the customer.
func (w *Wishlist) Add(productID string) (bool, string, error) {
	if w.Contains(productID) {
		return false, NoticeAlreadyInWishlist, nil
	}
	if len(w.ProductIDs) >= MaxWishlistItems {
		return false, "", ErrWishlistFull
	}
	w.ProductIDs = append(w.ProductIDs, productID)
	return true, NoticeAddedToWishlist, nil
}

func (w *Wishlist) Remove(productID string) bool {
	for i, id := range w.ProductIDs {
		if id == productID {
			w.ProductIDs = append(w.ProductIDs[:i], w.ProductIDs[i+1:]...)
			return true
		}
	}
	return false
}

func (w *Wishlist) Clear() {
	w.ProductIDs = nil
}
