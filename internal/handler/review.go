package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/middleware"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
	}
}

func (h *ReviewHandler) ListForProduct(c echo.Context) error {
	ctx := c.Request().Context()

	reviews, err := h.reviewService.ListForProduct(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.ReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.reviewService.Create(ctx, *user, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) ListPending(c echo.Context) error {
	ctx := c.Request().Context()

	reviews, err := h.reviewService.ListPending(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, reviews)
}

func (h *ReviewHandler) Approve(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.reviewService.Approve(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.reviewService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
