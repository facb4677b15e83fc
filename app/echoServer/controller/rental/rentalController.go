package rental

import (
	"log/slog"
	"net/http"

	"bookrental/app/echoServer/jwtx"
	"bookrental/app/echoServer/validation"
	"bookrental/model"
	rs "bookrental/service/rental"
	"bookrental/util/httpx"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc rs.Service
	Log *slog.Logger
}

func (h *Controller) identity(c echo.Context) (model.Identity, error) {
	who, err := jwtx.IdentityFromContext(c)
	if err != nil {
		return who, echo.NewHTTPError(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}
	return who, nil
}

// POST /v1/rentals
func (h *Controller) Rent(c echo.Context) error {
	who, err := h.identity(c)
	if err != nil {
		return err
	}
	var req RentReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	out, err := h.Svc.Rent(c.Request().Context(), who, req.BookID)
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// PATCH /v1/rentals/:id/return
func (h *Controller) Return(c echo.Context) error {
	who, err := h.identity(c)
	if err != nil {
		return err
	}
	out, err := h.Svc.Return(c.Request().Context(), who, c.Param("id"))
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, out)
}

// GET /v1/rentals/my
func (h *Controller) ListMine(c echo.Context) error {
	who, err := h.identity(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.ListMine(c.Request().Context(), who)
	return h.list(c, rows, err)
}

// GET /v1/rentals  (admin)
func (h *Controller) ListAll(c echo.Context) error {
	who, err := h.identity(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.ListAll(c.Request().Context(), who)
	return h.list(c, rows, err)
}

// GET /v1/rentals/users/:userId  (admin)
func (h *Controller) ListForUser(c echo.Context) error {
	who, err := h.identity(c)
	if err != nil {
		return err
	}
	rows, err := h.Svc.ListForUser(c.Request().Context(), who, c.Param("userId"))
	return h.list(c, rows, err)
}

func (h *Controller) list(c echo.Context, rows []model.RentalView, err error) error {
	if err != nil {
		return httpx.Fail(c, h.Log, err)
	}
	if rows == nil {
		rows = []model.RentalView{}
	}
	return c.JSON(http.StatusOK, echo.Map{"data": rows})
}
