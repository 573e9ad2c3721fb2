package handler

import (
	"net/http"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/dto"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/middleware"
	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
)

// UserHandler serves the signed-in customer's own account, service-role
// profile provisioning and admin user management.
type UserHandler struct {
	userService    service.UserService
	accountService service.AccountService
}

func NewUserHandler(userService service.UserService, accountService service.AccountService) *UserHandler {
	return &UserHandler{
		userService:    userService,
		accountService: accountService,
	}
}

func (h *UserHandler) GetMe(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	profile, err := h.userService.GetMe(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.UpdateMeRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.UpdateMe(ctx, user.ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UploadAvatar(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	file, closeFile, err := requireUpload(c, "file")
	if err != nil {
		return err
	}
	defer closeFile()

	profile, err := h.userService.UploadAvatar(ctx, user.ID, file.Filename, file.Size, file.Reader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	addresses, err := h.accountService.ListAddresses(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, addresses)
}

func (h *UserHandler) AddAddress(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.AddressInput
	if err := bind(c, &req); err != nil {
		return err
	}

	address, err := h.accountService.AddAddress(ctx, user.ID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, address)
}

func (h *UserHandler) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.AddressInput
	if err := bind(c, &req); err != nil {
		return err
	}

	address, err := h.accountService.UpdateAddress(ctx, user.ID, c.Param("id"), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, address)
}

func (h *UserHandler) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	if err := h.accountService.DeleteAddress(ctx, user.ID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) ListPaymentMethods(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	methods, err := h.accountService.ListPaymentMethods(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, methods)
}

func (h *UserHandler) AddPaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	var req dto.AddPaymentMethodRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.GetMe(ctx, user.ID)
	if err != nil {
		return err
	}

	method, err := h.accountService.AddPaymentMethod(ctx, profile, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, method)
}

func (h *UserHandler) DeletePaymentMethod(c echo.Context) error {
	ctx := c.Request().Context()
	user := middleware.CurrentUser(c)

	if err := h.accountService.DeletePaymentMethod(ctx, user.ID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// CreateProfile is called by trusted backends after an identity is created.
func (h *UserHandler) CreateProfile(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateProfileRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.CreateProfile(ctx, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	limit, offset, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.userService.List(ctx, c.QueryParam("search"), limit, offset)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	profile, err := h.userService.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateRole(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.CurrentUser(c)

	var req dto.UpdateRoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	profile, err := h.userService.UpdateRole(ctx, actor.ID, c.Param("id"), req.Role)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	actor := middleware.CurrentUser(c)

	if err := h.userService.Delete(ctx, actor.ID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
