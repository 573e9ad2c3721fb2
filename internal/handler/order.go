package handler

import (
	"fmt"
	"net/http"
	"path"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/middleware"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	orderService service.OrderService
}

func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.orderService.ListMine(ctx, user.ID, limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) GetMine(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	order, err := h.orderService.GetMine(ctx, user.ID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UploadProof(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	file, closeFile, err := requireUpload(c, "proof")
	if err != nil {
		return err
	}
	defer closeFile()

	order, err := h.orderService.UploadProof(ctx, user.ID, c.Param("id"), file.Filename, file.Size, file.Reader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

// Proof streams the stored payment proof to the order owner or an admin.
func (h *OrderHandler) Proof(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	body, obj, err := h.orderService.OpenProof(ctx, *user, c.Param("id"))
	if err != nil {
		return err
	}
	defer body.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", path.Base(obj.Key)))
	c.Response().Header().Set("Cache-Control", "private, no-store")
	if obj.Size > 0 {
		c.Response().Header().Set(echo.HeaderContentLength, fmt.Sprint(obj.Size))
	}

	return c.Stream(http.StatusOK, obj.ContentType, body)
}

func (h *OrderHandler) Library(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	items, err := h.orderService.Library(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, items)
}

func (h *OrderHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.orderService.List(ctx, model.OrderStatus(c.QueryParam("status")), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *OrderHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	order, err := h.orderService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.UpdateOrderStatusRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.orderService.UpdateStatus(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, order)
}
