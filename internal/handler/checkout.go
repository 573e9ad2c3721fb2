package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/auth"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/checkout"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/middleware"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

const wizardSessionKey = "checkout_wizard"

// CheckoutHandler keeps the wizard in the server session and the cart in its cookie.
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	sessions        *auth.SessionManager
	jar             *cart.Jar
}

func NewCheckoutHandler(
	checkoutService service.CheckoutService,
	sessions *auth.SessionManager,
	jar *cart.Jar,
) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		sessions:        sessions,
		jar:             jar,
	}
}

func (h *CheckoutHandler) wizard(c echo.Context) *checkout.Wizard {
	return checkout.Decode(h.sessions.Value(c.Request(), wizardSessionKey))
}

func (h *CheckoutHandler) saveWizard(c echo.Context, w *checkout.Wizard) error {
	raw, err := w.Encode()
	if err != nil {
		return err
	}
	return h.sessions.SetValues(c.Response(), c.Request(), map[string]string{wizardSessionKey: raw})
}

func (h *CheckoutHandler) render(c echo.Context, w *checkout.Wizard) error {
	ctx := c.Request().Context()

	view, err := h.checkoutService.View(ctx, w, h.jar.LoadCart(c.Request()))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, view)
}

func (h *CheckoutHandler) Get(c echo.Context) error {
	return h.render(c, h.wizard(c))
}

func (h *CheckoutHandler) SubmitShipping(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req checkout.Shipping
	if err := bind(c, &req); err != nil {
		return err
	}

	w := h.wizard(c)
	if err := h.checkoutService.SubmitShipping(ctx, *user, w, req); err != nil {
		return err
	}
	if err := h.saveWizard(c, w); err != nil {
		return err
	}

	return h.render(c, w)
}

func (h *CheckoutHandler) SelectPayment(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req checkout.Payment
	if err := bind(c, &req); err != nil {
		return err
	}

	w := h.wizard(c)
	if err := h.checkoutService.SelectPayment(ctx, *user, w, req); err != nil {
		return err
	}
	if err := h.saveWizard(c, w); err != nil {
		return err
	}

	return h.render(c, w)
}

func (h *CheckoutHandler) Back(c echo.Context) error {
	w := h.wizard(c)
	if err := h.checkoutService.Back(w); err != nil {
		return err
	}
	if err := h.saveWizard(c, w); err != nil {
		return err
	}

	return h.render(c, w)
}

// Submit places the order. The proof is read from the optional "proof" multipart field.
func (h *CheckoutHandler) Submit(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	proof, closeProof, err := upload(c, "proof")
	if err != nil {
		return err
	}
	defer closeProof()

	w := h.wizard(c)
	ct := h.jar.LoadCart(c.Request())

	result, err := h.checkoutService.Submit(ctx, *user, w, ct, proof)
	if err != nil {
		return err
	}

	if err := h.sessions.DeleteValues(c.Response(), c.Request(), wizardSessionKey); err != nil {
		return err
	}
	if err := h.jar.SaveCart(c.Response(), ct); err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
