package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/model"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService service.ProductService
}

func NewProductHandler(productService service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func productQuery(c echo.Context) (dto.ProductQuery, error) {
	var q dto.ProductQuery
	var kind string

	err := echo.QueryParamsBinder(c).
		String("category", &q.Category).
		String("kind", &kind).
		String("search", &q.Search).
		String("sort", &q.Sort).
		Int("limit", &q.Limit).
		Int("offset", &q.Offset).
		CustomFunc("featured", optionalBool(&q.Featured)).
		CustomFunc("is_new", optionalBool(&q.IsNew)).
		CustomFunc("min_price", optionalDecimal(&q.MinPrice)).
		CustomFunc("max_price", optionalDecimal(&q.MaxPrice)).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters").SetInternal(err)
	}

	q.Kind = model.ProductKind(kind)
	return q, nil
}

func (h *ProductHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	q, err := productQuery(c)
	if err != nil {
		return err
	}

	page, err := h.productService.List(ctx, q)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *ProductHandler) Featured(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _, err := pagination(c)
	if err != nil {
		return err
	}

	products, err := h.productService.Featured(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) NewArrivals(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _, err := pagination(c)
	if err != nil {
		return err
	}

	products, err := h.productService.NewArrivals(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, products)
}

// Get accepts a slug or an id.
func (h *ProductHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	product, err := h.productService.Lookup(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductInput
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ProductInput
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.productService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *ProductHandler) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()

	file, closeFile, err := requireUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	product, err := h.productService.UploadImage(ctx, c.Param("id"), file.Filename, file.Size, file.Reader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) AdjustStock(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.StockAdjustment
	if err := bind(c, &req); err != nil {
		return err
	}

	product, err := h.productService.AdjustStock(ctx, c.Param("id"), req.Delta)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, product)
}
