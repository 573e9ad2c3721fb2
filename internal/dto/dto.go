package dto

import (
	"time"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/checkout"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"github.com/shopspring/decimal"
)

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

// --- catalog ---

type ProductQuery struct {
	Category string
	Kind     model.ProductKind
	Featured *bool
	IsNew    *bool
	Search   string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	Sort     string
	Limit    int
	Offset   int
}

type DenominationInput struct {
	ID    string          `json:"id"`
	Value decimal.Decimal `json:"value"`
	Price decimal.Decimal `json:"price"`
}

type EditionInput struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type LicenseTypeInput struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Devices      int             `json:"devices"`
	DurationDays int             `json:"duration_days"`
	Price        decimal.Decimal `json:"price"`
}

type StreamingPlanInput struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	DurationMonths int             `json:"duration_months"`
	Price          decimal.Decimal `json:"price"`
}

type ProductInput struct {
	Name           string            `json:"name"`
	Slug           string            `json:"slug"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	Currency       string            `json:"currency"`
	CategoryID     string            `json:"category_id"`
	Kind           model.ProductKind `json:"kind"`
	Stock          int               `json:"stock"`
	Featured       bool              `json:"featured"`
	IsNew          bool              `json:"is_new"`
	IsDigital      bool              `json:"is_digital"`
	IsSubscription bool              `json:"is_subscription"`
	IsGiftCard     bool              `json:"is_gift_card"`

	Denominations  []DenominationInput  `json:"denominations"`
	Editions       []EditionInput       `json:"editions"`
	LicenseTypes   []LicenseTypeInput   `json:"license_types"`
	StreamingPlans []StreamingPlanInput `json:"streaming_plans"`
}

type StockAdjustment struct {
	Delta int `json:"delta"`
}

type CategoryInput struct {
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	ParentID     *string `json:"parent_id"`
	DisplayOrder *int    `json:"display_order"`
	ShowInNavbar *bool   `json:"show_in_navbar"`
}

type ReorderRequest struct {
	IDs []string `json:"ids"`
}

type GiftCardInput struct {
	Name          string            `json:"name"`
	Slug          string            `json:"slug"`
	Active        *bool             `json:"active"`
	Denominations []decimal.Decimal `json:"denominations"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type BannerInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	Active      *bool  `json:"active"`
}

// --- cart ---

type CartLineRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type CartLineView struct {
	ProductID    string          `json:"product_id"`
	VariantID    string          `json:"variant_id,omitempty"`
	Name         string          `json:"name"`
	VariantLabel string          `json:"variant_label,omitempty"`
	ImageURL     string          `json:"image_url"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	Quantity     int             `json:"quantity"`
	LineTotal    decimal.Decimal `json:"line_total"`
	InStock      bool            `json:"in_stock"`
}

type CartView struct {
	Lines    []CartLineView  `json:"lines"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Currency string          `json:"currency"`
	// lines that no longer match the catalog; checkout refuses them
	Unavailable []CartLineRequest `json:"unavailable,omitempty"`
}

type WishlistView struct {
	Items  []*model.Product `json:"items"`
	Notice string           `json:"notice,omitempty"`
}

type WishlistAddRequest struct {
	ProductID string `json:"product_id"`
}

// --- checkout & orders ---

type PaymentView struct {
	Method        model.PaymentMethod `json:"method,omitempty"`
	SavedMethodID string              `json:"saved_method_id,omitempty"`
	NonceProvided bool                `json:"nonce_provided"`
}

type CheckoutView struct {
	Step     checkout.Step     `json:"step"`
	Shipping checkout.Shipping `json:"shipping"`
	Payment  PaymentView       `json:"payment"`
	Cart     *CartView         `json:"cart"`
}

type CheckoutResult struct {
	Order         *model.Order `json:"order"`
	ProofUploaded bool         `json:"proof_uploaded"`
	Warning       string       `json:"warning,omitempty"`
}

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status"`
	Notes  string            `json:"notes"`
}

// --- users ---

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionResponse struct {
	State     auth.State `json:"state"`
	User      *auth.User `json:"user,omitempty"`
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

type CreateProfileRequest struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

type UpdateMeRequest struct {
	FullName  *string `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
}

type UpdateRoleRequest struct {
	Role model.Role `json:"role"`
}

type AddressInput struct {
	Label      string `json:"label"`
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	IsDefault  bool   `json:"is_default"`
}

type AddPaymentMethodRequest struct {
	Nonce     string `json:"nonce"`
	IsDefault bool   `json:"is_default"`
}

// --- reviews ---

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewList struct {
	Reviews []*model.Review `json:"reviews"`
	Average float64         `json:"average_rating"`
	Count   int64           `json:"count"`
}
