package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductKind string

const (
	ProductKindGame      ProductKind = "game"
	ProductKindGiftCard  ProductKind = "gift_card"
	ProductKindStreaming ProductKind = "streaming"
	ProductKindSoftware  ProductKind = "software"
	ProductKindOther     ProductKind = "other"
)

func (k ProductKind) Valid() bool {
	switch k {
	case ProductKindGame, ProductKindGiftCard, ProductKindStreaming, ProductKindSoftware, ProductKindOther:
		return true
	}
	return false
}

type Product struct {
	ID             string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Name           string          `gorm:"size:255;not null" json:"name"`
	Slug           string          `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description    string          `gorm:"type:text" json:"description"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Currency       string          `gorm:"size:8;not null" json:"currency"`
	CategoryID     string          `gorm:"size:36;index;not null" json:"category_id"`
	Kind           ProductKind     `gorm:"size:32;index;not null" json:"kind"`
	Stock          int             `gorm:"not null;default:0" json:"stock"`
	ImageURL       string          `gorm:"type:text" json:"image_url"`
	ImageKey       string          `gorm:"size:255" json:"-"`
	Featured       bool            `gorm:"index;not null;default:false" json:"featured"`
	IsNew          bool            `gorm:"index;not null;default:false" json:"is_new"`
	IsDigital      bool            `gorm:"not null" json:"is_digital"`
	IsSubscription bool            `gorm:"not null;default:false" json:"is_subscription"`
	IsGiftCard     bool            `gorm:"not null;default:false" json:"is_gift_card"`

	Denominations  []Denomination  `gorm:"constraint:OnDelete:CASCADE" json:"denominations,omitempty"`
	Editions       []Edition       `gorm:"constraint:OnDelete:CASCADE" json:"editions,omitempty"`
	LicenseTypes   []LicenseType   `gorm:"constraint:OnDelete:CASCADE" json:"license_types,omitempty"`
	StreamingPlans []StreamingPlan `gorm:"constraint:OnDelete:CASCADE" json:"streaming_plans,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Variant is a purchasable option of a product, backed by one of its sub-records.
type Variant struct {
	ID    string
	Label string
	Price decimal.Decimal
}

// FindVariant looks up a sub-record by id across every variant kind.
func (p *Product) FindVariant(variantID string) (Variant, bool) {
	for _, d := range p.Denominations {
		if d.ID == variantID {
			return Variant{ID: d.ID, Label: d.Value.StringFixed(2) + " " + p.Currency, Price: d.Price}, true
		}
	}
	for _, e := range p.Editions {
		if e.ID == variantID {
			return Variant{ID: e.ID, Label: e.Name, Price: e.Price}, true
		}
	}
	for _, l := range p.LicenseTypes {
		if l.ID == variantID {
			return Variant{ID: l.ID, Label: l.Name, Price: l.Price}, true
		}
	}
	for _, s := range p.StreamingPlans {
		if s.ID == variantID {
			return Variant{ID: s.ID, Label: s.Name, Price: s.Price}, true
		}
	}
	return Variant{}, false
}

type Denomination struct {
	ID        string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProductID string          `gorm:"size:36;index;not null" json:"-"`
	Value     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"value"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

type Edition struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProductID   string          `gorm:"size:36;index;not null" json:"-"`
	Name        string          `gorm:"size:128;not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

type LicenseType struct {
	ID           string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProductID    string          `gorm:"size:36;index;not null" json:"-"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Devices      int             `gorm:"not null;default:1" json:"devices"`
	DurationDays int             `json:"duration_days"` // 0 = lifetime
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

type StreamingPlan struct {
	ID             string          `gorm:"primaryKey;size:36;not null" json:"id"`
	ProductID      string          `gorm:"size:36;index;not null" json:"-"`
	Name           string          `gorm:"size:128;not null" json:"name"`
	DurationMonths int             `gorm:"not null" json:"duration_months"`
	Price          decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
}

type Category struct {
	ID           string  `gorm:"primaryKey;size:36;not null" json:"id"`
	Name         string  `gorm:"size:128;not null" json:"name"`
	Slug         string  `gorm:"size:128;uniqueIndex;not null" json:"slug"`
	ParentID     *string `gorm:"size:36;index" json:"parent_id"`
	DisplayOrder int     `gorm:"not null;default:0" json:"display_order"`
	ShowInNavbar bool    `gorm:"not null" json:"show_in_navbar"`
	Fixed        bool    `gorm:"not null;default:false" json:"fixed"` // seeded top-level parent

	Children []*Category `gorm:"-" json:"children,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil || *c.ParentID == ""
}

type GiftCard struct {
	ID            string  `gorm:"primaryKey;size:36;not null" json:"id"`
	Name          string  `gorm:"size:255;not null" json:"name"`
	Slug          string  `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	ImageURL      string  `gorm:"type:text" json:"image_url"`
	ImageKey      string  `gorm:"size:255" json:"-"`
	Active        bool    `gorm:"index;not null" json:"active"`
	Denominations Amounts `gorm:"type:text" json:"denominations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Banner struct {
	ID           string `gorm:"primaryKey;size:36;not null" json:"id"`
	Title        string `gorm:"size:255;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	ImageURL     string `gorm:"type:text" json:"image_url"`
	ImageKey     string `gorm:"size:255" json:"-"`
	Link         string `gorm:"type:text" json:"link"`
	DisplayOrder int    `gorm:"index;not null;default:0" json:"display_order"`
	Active       bool   `gorm:"not null" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type Profile struct {
	ID           string `gorm:"primaryKey;size:36;not null" json:"id"`
	Email        string `gorm:"size:255;uniqueIndex;not null" json:"email"`
	FullName     string `gorm:"size:255" json:"full_name"`
	Role         Role   `gorm:"size:16;index;not null;default:user" json:"role"`
	AvatarURL    string `gorm:"type:text" json:"avatar_url"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Provider     string `gorm:"size:32;not null;default:password" json:"provider"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ShippingAddress struct {
	ID         string `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID     string `gorm:"size:36;index;not null" json:"-"`
	Label      string `gorm:"size:64" json:"label"`
	FullName   string `gorm:"size:255;not null" json:"full_name"`
	Phone      string `gorm:"size:32" json:"phone"`
	Address    string `gorm:"type:text;not null" json:"address"`
	City       string `gorm:"size:128;not null" json:"city"`
	PostalCode string `gorm:"size:32" json:"postal_code"`
	Country    string `gorm:"size:64;not null" json:"country"`
	IsDefault  bool   `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UserPaymentMethod struct {
	ID            string        `gorm:"primaryKey;size:36;not null" json:"id"`
	UserID        string        `gorm:"size:36;index;not null" json:"-"`
	Kind          PaymentMethod `gorm:"size:32;not null" json:"kind"`
	Provider      string        `gorm:"size:32;not null" json:"provider"`
	ProviderToken string        `gorm:"size:128;uniqueIndex;not null" json:"-"`
	Label         string        `gorm:"size:64" json:"label"`
	IsDefault     bool          `gorm:"not null;default:false" json:"is_default"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
