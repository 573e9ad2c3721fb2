package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

type GiftCardHandler struct {
	giftCardService service.GiftCardService
}

func NewGiftCardHandler(giftCardService service.GiftCardService) *GiftCardHandler {
	return &GiftCardHandler{
		giftCardService: giftCardService,
	}
}

func (h *GiftCardHandler) ListActive(c echo.Context) error {
	ctx := c.Request().Context()

	cards, err := h.giftCardService.ListActive(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cards)
}

func (h *GiftCardHandler) GetBySlug(c echo.Context) error {
	ctx := c.Request().Context()

	card, err := h.giftCardService.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	cards, err := h.giftCardService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cards)
}

func (h *GiftCardHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GiftCardInput
	if err := bind(c, &req); err != nil {
		return err
	}

	card, err := h.giftCardService.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, card)
}

func (h *GiftCardHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.GiftCardInput
	if err := bind(c, &req); err != nil {
		return err
	}

	card, err := h.giftCardService.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) SetActive(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetActiveRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	card, err := h.giftCardService.SetActive(ctx, c.Param("id"), req.Active)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, card)
}

func (h *GiftCardHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.giftCardService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *GiftCardHandler) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()

	file, closeFile, err := requireUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	card, err := h.giftCardService.UploadImage(ctx, c.Param("id"), file.Filename, file.Size, file.Reader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, card)
}

type BannerHandler struct {
	bannerService service.BannerService
}

func NewBannerHandler(bannerService service.BannerService) *BannerHandler {
	return &BannerHandler{
		bannerService: bannerService,
	}
}

func (h *BannerHandler) ListActive(c echo.Context) error {
	ctx := c.Request().Context()

	banners, err := h.bannerService.ListActive(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, banners)
}

func (h *BannerHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	banners, err := h.bannerService.List(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, banners)
}

func (h *BannerHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.BannerInput
	if err := bind(c, &req); err != nil {
		return err
	}

	banner, err := h.bannerService.Create(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, banner)
}

func (h *BannerHandler) Update(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.BannerInput
	if err := bind(c, &req); err != nil {
		return err
	}

	banner, err := h.bannerService.Update(ctx, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, banner)
}

func (h *BannerHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.bannerService.Delete(ctx, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *BannerHandler) Reorder(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.ReorderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.bannerService.Reorder(ctx, req.IDs); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *BannerHandler) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()

	file, closeFile, err := requireUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	banner, err := h.bannerService.UploadImage(ctx, c.Param("id"), file.Filename, file.Size, file.Reader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, banner)
}
