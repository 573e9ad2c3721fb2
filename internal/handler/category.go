package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	categoryService service.CategoryService
}

func NewCategoryHandler(categoryService service.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

func (h *CategoryHandler) Tree(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.categoryService.Tree(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Navbar(c echo.Context) error {
	ctx := c.Request().Context()

	categories, err := h.categoryService.Navbar(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	category, err := h.categoryService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}

	category, err := h.categoryService.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.categoryService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CategoryHandler) Reorder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ReorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.categoryService.Reorder(ctx, req.IDs); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
