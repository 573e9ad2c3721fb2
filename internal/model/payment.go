package model

import "time"

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEWallet      PaymentMethod = "e_wallet"
	PaymentMethodCard         PaymentMethod = "card"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodEWallet, PaymentMethodCard:
		return true
	}
	return false
}

// RequiresProof is true for offline methods settled by an uploaded receipt.
func (m PaymentMethod) RequiresProof() bool {
	return m == PaymentMethodBankTransfer || m == PaymentMethodEWallet
}

// Review is stored in the document store, not the relational database.
type Review struct {
	ID         string    `bson:"_id" json:"id"`
	ProductID  string    `bson:"product_id" json:"product_id"`
	UserID     string    `bson:"user_id" json:"user_id"`
	AuthorName string    `bson:"author_name" json:"author_name"`
	Rating     int       `bson:"rating" json:"rating"`
	Comment    string    `bson:"comment" json:"comment"`
	Approved   bool      `bson:"approved" json:"approved"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
}
