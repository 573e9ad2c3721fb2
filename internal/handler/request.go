package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/nicholas357/E-commerce-fullstack-2.0-sub002/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return nil
}

func pagination(c echo.Context) (int, int, error) {
	var limit, offset int
	err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("offset", &offset).
		BindError()
	if err != nil {
		return 0, 0, echo.NewHTTPError(http.StatusBadRequest, "limit and offset must be integers")
	}
	return limit, offset, nil
}

func optionalBool(dst **bool) func([]string) []error {
	return func(values []string) []error {
		v, err := strconv.ParseBool(values[0])
		if err != nil {
			return []error{err}
		}
		*dst = &v
		return nil
	}
}

func optionalDecimal(dst **decimal.Decimal) func([]string) []error {
	return func(values []string) []error {
		v, err := decimal.NewFromString(values[0])
		if err != nil {
			return []error{err}
		}
		*dst = &v
		return nil
	}
}

// upload opens a multipart file field. A missing field yields nil without error.
func upload(c echo.Context, field string) (*service.FileUpload, func(), error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "unreadable upload").SetInternal(err)
	}
	return fileUpload(fh, f), func() { f.Close() }, nil
}

// requireUpload is upload for endpoints where the file is mandatory.
func requireUpload(c echo.Context, field string) (*service.FileUpload, func(), error) {
	file, closeFn, err := upload(c, field)
	if err != nil {
		return nil, nil, err
	}
	if file == nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "missing file field "+field)
	}
	return file, closeFn, nil
}

func fileUpload(fh *multipart.FileHeader, f multipart.File) *service.FileUpload {
	return &service.FileUpload{
		Filename: fh.Filename,
		Size:     fh.Size,
		Reader:   f,
	}
}
