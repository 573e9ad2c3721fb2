package checkout

import (
	"testing"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validShipping() Shipping {
	return Shipping{
		FullName: "Ada Lovelace",
		Email:    "ada@example.com",
		Phone:    "+44 20 0000",
		Address:  "12 Analytical Engine Rd",
		City:     "London",
		Country:  "UK",
	}
}

func TestWizard_ContinueGoesToPaymentOnly(t *testing.T) {
	w := New()
	require.NoError(t, w.SubmitShipping(validShipping()))
	assert.Equal(t, StepPayment, w.Step)

	assert.ErrorIs(t, w.SubmitShipping(validShipping()), ErrWrongStep)
	assert.ErrorIs(t, w.ReadyToSubmit(), ErrWrongStep)
}

func TestWizard_BackKeepsFields(t *testing.T) {
	w := New()
	s := validShipping()
	require.NoError(t, w.SubmitShipping(s))

	require.NoError(t, w.Back())
	assert.Equal(t, StepShipping, w.Step)
	assert.Equal(t, s, w.Shipping)

	require.NoError(t, w.SubmitShipping(w.Shipping))
	require.NoError(t, w.SelectPayment(Payment{Method: model.PaymentMethodEWallet}))
	assert.Equal(t, StepProof, w.Step)

	require.NoError(t, w.Back())
	assert.Equal(t, StepPayment, w.Step)
	assert.Equal(t, model.PaymentMethodEWallet, w.Payment.Method)
	assert.Equal(t, s, w.Shipping)

	require.NoError(t, w.Back())
	assert.ErrorIs(t, w.Back(), ErrWrongStep)
}

func TestWizard_ShippingValidation(t *testing.T) {
	w := New()
	s := validShipping()
	s.City = " "
	s.Email = "not-an-email"

	err := w.SubmitShipping(s)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["city"])
	assert.Equal(t, "is not a valid address", verr.Fields["email"])
	assert.Equal(t, "invalid checkout details: city is required, email is not a valid address", err.Error())
	assert.Equal(t, StepShipping, w.Step)
}

func TestWizard_PaymentRules(t *testing.T) {
	w := New()
	require.NoError(t, w.SubmitShipping(validShipping()))

	var verr *ValidationError
	assert.ErrorAs(t, w.SelectPayment(Payment{Method: "cash"}), &verr)
	assert.ErrorAs(t, w.SelectPayment(Payment{Method: model.PaymentMethodCard}), &verr)
	assert.Equal(t, StepPayment, w.Step)

	require.NoError(t, w.SelectPayment(Payment{Method: model.PaymentMethodBankTransfer, Nonce: "ignored"}))
	assert.Empty(t, w.Payment.Nonce)
	require.NoError(t, w.ReadyToSubmit())
}

func TestWizard_EncodeDecode(t *testing.T) {
	w := New()
	require.NoError(t, w.SubmitShipping(validShipping()))
	require.NoError(t, w.SelectPayment(Payment{Method: model.PaymentMethodCard, Nonce: "fake-valid-nonce"}))

	raw, err := w.Encode()
	require.NoError(t, err)
	assert.Equal(t, w, Decode(raw))

	assert.Equal(t, New(), Decode(""))
	assert.Equal(t, New(), Decode("{broken"))
	assert.Equal(t, New(), Decode(`{"step":"teleport"}`))
}
