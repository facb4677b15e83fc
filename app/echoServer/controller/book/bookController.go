package book

import (
	"log/slog"
	"net/http"

	"bookrental/app/echoServer/jwtx"
	"bookrental/app/echoServer/validation"
	"bookrental/model"
	booksvc "bookrental/service/book"
	"bookrental/util/httpx"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc booksvc.Service
	Log *slog.Logger
}

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
}

// GET /v1/books
func (h *Controller) List(c echo.Context) error {
	rows, err := h.Svc.List(c.Request().Context())
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}

// GET /v1/books/:id
func (h *Controller) Detail(c echo.Context) error {
	row, err := h.Svc.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, row)
}

// POST /v1/books  (admin)
func (h *Controller) Create(c echo.Context) error {
	who, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return unauthorized()
	}
	var req model.BookInput
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.Svc.Create(c.Request().Context(), who, req)
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

// PUT /v1/books/:id  (admin)
func (h *Controller) Update(c echo.Context) error {
	who, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return unauthorized()
	}
	var req model.BookInput
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.Svc.Update(c.Request().Context(), who, c.Param("id"), req)
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}

// DELETE /v1/books/:id  (admin)
func (h *Controller) Delete(c echo.Context) error {
	who, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return unauthorized()
	}
	if err := h.Svc.Delete(c.Request().Context(), who, c.Param("id")); err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// PATCH /v1/books/:id/stock  (admin)
func (h *Controller) SetStock(c echo.Context) error {
	who, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return unauthorized()
	}
	var req SetStockReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}
	b, err := h.Svc.SetStock(c.Request().Context(), who, c.Param("id"), *req.StockQuantity)
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, b)
}
