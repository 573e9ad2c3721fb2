package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/cart"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

// CartHandler serves the cookie-held cart and wishlist. Cookies are written
// before the body since headers cannot change afterwards.
type CartHandler struct {
	cartService service.CartService
	jar         *cart.Jar
}

func NewCartHandler(cartService service.CartService, jar *cart.Jar) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		jar:         jar,
	}
}

func (h *CartHandler) renderCart(c echo.Context, status int, ct *cart.Cart) error {
	ctx := c.Request().Context()

	view, err := h.cartService.View(ctx, ct)
	if err != nil {
		return err
	}

	return c.JSON(status, view)
}

func (h *CartHandler) GetCart(c echo.Context) error {
	return h.renderCart(c, http.StatusOK, h.jar.LoadCart(c.Request()))
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CartLineRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	ct := h.jar.LoadCart(c.Request())
	if err := h.cartService.Add(ctx, ct, req); err != nil {
		return err
	}
	if err := h.jar.SaveCart(c.Response(), ct); err != nil {
		return err
	}

	return h.renderCart(c, http.StatusOK, ct)
}

// UpdateCartLine sets the quantity of the line for :productID; zero removes it.
func (h *CartHandler) UpdateCartLine(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CartLineRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	req.ProductID = c.Param("productID")

	ct := h.jar.LoadCart(c.Request())
	if err := h.cartService.Update(ctx, ct, req); err != nil {
		return err
	}
	if err := h.jar.SaveCart(c.Response(), ct); err != nil {
		return err
	}

	return h.renderCart(c, http.StatusOK, ct)
}

func (h *CartHandler) RemoveCartLine(c echo.Context) error {
	ct := h.jar.LoadCart(c.Request())
	if !ct.Remove(c.Param("productID"), c.QueryParam("variant_id")) {
		return echo.NewHTTPError(http.StatusNotFound, cart.ErrLineNotFound.Error())
	}
	if err := h.jar.SaveCart(c.Response(), ct); err != nil {
		return err
	}

	return h.renderCart(c, http.StatusOK, ct)
}

func (h *CartHandler) ClearCart(c echo.Context) error {
	ct := h.jar.LoadCart(c.Request())
	ct.Clear()
	if err := h.jar.SaveCart(c.Response(), ct); err != nil {
		return err
	}

	return h.renderCart(c, http.StatusOK, ct)
}

func (h *CartHandler) renderWishlist(c echo.Context, wl *cart.Wishlist, notice string) error {
	ctx := c.Request().Context()

	view, err := h.cartService.Wishlist(ctx, wl)
	if err != nil {
		return err
	}
	view.Notice = notice

	return c.JSON(http.StatusOK, view)
}

func (h *CartHandler) GetWishlist(c echo.Context) error {
	return h.renderWishlist(c, h.jar.LoadWishlist(c.Request()), "")
}

func (h *CartHandler) AddToWishlist(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.WishlistAddRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	wl := h.jar.LoadWishlist(c.Request())
	notice, err := h.cartService.AddToWishlist(ctx, wl, req.ProductID)
	if err != nil {
		return err
	}
	if err := h.jar.SaveWishlist(c.Response(), wl); err != nil {
		return err
	}

	return h.renderWishlist(c, wl, notice)
}

func (h *CartHandler) RemoveFromWishlist(c echo.Context) error {
	wl := h.jar.LoadWishlist(c.Request())
	if wl.Remove(c.Param("productID")) {
		if err := h.jar.SaveWishlist(c.Response(), wl); err != nil {
			return err
		}
	}

	return h.renderWishlist(c, wl, "")
}

func (h *CartHandler) ClearWishlist(c echo.Context) error {
	wl := h.jar.LoadWishlist(c.Request())
	wl.Clear()
	if err := h.jar.SaveWishlist(c.Response(), wl); err != nil {
		return err
	}

	return h.renderWishlist(c, wl, "")
}
