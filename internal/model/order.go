package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusAwaitingProof       OrderStatus = "awaiting_proof"
	OrderStatusPendingVerification OrderStatus = "pending_verification"
	OrderStatusPaid                OrderStatus = "paid"
	OrderStatusFulfilled           OrderStatus = "fulfilled"
	OrderStatusCancelled           OrderStatus = "cancelled"
	OrderStatusRejected            OrderStatus = "rejected"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAwaitingProof:       {OrderStatusPendingVerification, OrderStatusCancelled},
	OrderStatusPendingVerification: {OrderStatusPaid, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusPaid:                {OrderStatusFulfilled, OrderStatusCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusAwaitingProof, OrderStatusPendingVerification, OrderStatusPaid,
		OrderStatusFulfilled, OrderStatusCancelled, OrderStatusRejected:
		return true
	}
	return false
}

// CanTransitionTo reports whether an admin may move an order from s to next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsProof reports whether a payment proof may still be uploaded.
func (s OrderStatus) AcceptsProof() bool {
	return s == OrderStatusAwaitingProof || s == OrderStatusPendingVerification
}

type Order struct {
	ID            string        `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID        string        `gorm:"size:36;index;not null" json:"user_id"`
	Status        OrderStatus   `gorm:"size:32;index;not null" json:"status"`
	PaymentMethod PaymentMethod `gorm:"size:32;not null" json:"payment_method"`

	ShippingName       string `gorm:"size:255;not null" json:"shipping_name"`
	ShippingEmail      string `gorm:"size:255;not null" json:"shipping_email"`
	ShippingPhone      string `gorm:"size:32" json:"shipping_phone"`
	ShippingAddress    string `gorm:"type:text;not null" json:"shipping_address"`
	ShippingCity       string `gorm:"size:128;not null" json:"shipping_city"`
	ShippingPostalCode string `gorm:"size:32" json:"shipping_postal_code"`
	ShippingCountry    string `gorm:"size:64;not null" json:"shipping_country"`

	Subtotal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Total    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency string          `gorm:"size:8;not null" json:"currency"`

	ProofKey         string `gorm:"size:255" json:"-"`
	HasProof         bool   `gorm:"-" json:"has_proof"`
	PaymentReference string `gorm:"size:128" json:"payment_reference,omitempty"`
	Notes            string `gorm:"type:text" json:"notes,omitempty"`

	Items []OrderItem `gorm:"constraint:OnDelete:CASCADE" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID uint `gorm:"primaryKey" json:"id"`
	// FK → orders.id
	OrderID string `gorm:"size:36;index;not null" json:"-"`
	// FK → products.id
	ProductID    string          `gorm:"size:36;index;not null" json:"product_id"`
	Name         string          `gorm:"size:255;not null" json:"name"`
	VariantID    string          `gorm:"size:36" json:"variant_id,omitempty"`
	VariantLabel string          `gorm:"size:128" json:"variant_label,omitempty"`
	Quantity     int             `gorm:"not null" json:"quantity"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"unit_price"`

	CreatedAt time.Time `json:"created_at"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// LibraryItem is a digital good granted to a customer once an order is paid.
type LibraryItem struct {
	UserID    string    `gorm:"primaryKey;size:36;" json:"-"`
	ProductID string    `gorm:"primaryKey;size:36;index;not null" json:"product_id"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
