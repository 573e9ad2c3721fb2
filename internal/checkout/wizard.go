// Package checkout implements the linear shipping → payment → proof wizard.
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
)

type Step string

const (
	StepShipping Step = "shipping"
	StepPayment  Step = "payment"
	StepProof    Step = "proof"
)

var ErrWrongStep = errors.New("action not allowed at this checkout step")

type Shipping struct {
	AddressID  string `json:"address_id,omitempty"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type Payment struct {
	Method        model.PaymentMethod `json:"method"`
	Nonce         string              `json:"nonce,omitempty"`
	SavedMethodID string              `json:"saved_method_id,omitempty"`
}

// ValidationError lists the offending fields and why.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msgs := make([]string, len(names))
	for i, name := range names {
		msgs[i] = name + " " + e.Fields[name]
	}
	return "invalid checkout details: " + strings.Join(msgs, ", ")
}

type Wizard struct {
	Step     Step     `json:"step"`
	Shipping Shipping `json:"shipping"`
	Payment  Payment  `json:"payment"`
}

func New() *Wizard {
	return &Wizard{Step: StepShipping}
}

func (s Shipping) validate() error {
	fields := map[string]string{}
	required := map[string]string{
		"full_name": s.FullName,
		"email":     s.Email,
		"address":   s.Address,
		"city":      s.City,
		"country":   s.Country,
	}
	for name, v := range required {
		if strings.TrimSpace(v) == "" {
			fields[name] = "is required"
		}
	}
	if _, ok := fields["email"]; !ok {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			fields["email"] = "is not a valid address"
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// SubmitShipping stores the shipping details and advances to the payment step only.
func (w *Wizard) SubmitShipping(s Shipping) error {
	if w.Step != StepShipping {
		return fmt.Errorf("%w: at %s", ErrWrongStep, w.Step)
	}
	s.Email = strings.TrimSpace(s.Email)
	if err := s.validate(); err != nil {
		return err
	}

	w.Shipping = s
	w.Step = StepPayment
	return nil
}

func (w *Wizard) SelectPayment(p Payment) error {
	if w.Step != StepPayment {
		return fmt.Errorf("%w: at %s", ErrWrongStep, w.Step)
	}
	if !p.Method.Valid() {
		return &ValidationError{Fields: map[string]string{"method": "is not supported"}}
	}

	if p.Method == model.PaymentMethodCard {
		if p.Nonce == "" && p.SavedMethodID == "" {
			return &ValidationError{Fields: map[string]string{"nonce": "or saved_method_id is required for card payments"}}
		}
	} else {
		p.Nonce = ""
		p.SavedMethodID = ""
	}

	w.Payment = p
	w.Step = StepProof
	return nil
}

// Back moves one step towards shipping, keeping everything entered so far.
func (w *Wizard) Back() error {
	switch w.Step {
	case StepPayment:
		w.Step = StepShipping
	case StepProof:
		w.Step = StepPayment
	default:
		return fmt.Errorf("%w: already at %s", ErrWrongStep, w.Step)
	}
	return nil
}

func (w *Wizard) ReadyToSubmit() error {
	if w.Step != StepProof {
		return fmt.Errorf("%w: at %s", ErrWrongStep, w.Step)
	}
	return nil
}

func (w *Wizard) Encode() (string, error) {
	b, err := json.Marshal(w)
	if err != nil {
		return "", fmt.Errorf("encode wizard: %w", err)
	}
	return string(b), nil
}

// Decode falls back to a fresh wizard when the stored state is unusable.
func Decode(raw string) *Wizard {
	if raw == "" {
		return New()
	}

	var w Wizard
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return New()
	}
	switch w.Step {
	case StepShipping, StepPayment, StepProof:
		return &w
	}
	return New()
}
