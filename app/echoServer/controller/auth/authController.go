package auth

import (
	"log/slog"
	"net/http"

	"bookrental/app/echoServer/validation"
	"bookrental/model"
	authsvc "bookrental/service/auth"
	"bookrental/util/httpx"

	"github.com/labstack/echo/v4"
)

type Controller struct {
	Svc authsvc.Service
	Log *slog.Logger
}

// Register a new user
// @Summary      Register user
// @Description  Register a new user with email/username uniqueness and validation
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.RegisterReq  true  "Register payload"
// @Success      201  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      409  {object}  map[string]any "email/username already taken"
// @Failure      500  {object}  map[string]any "internal server error"
// @Router       /v1/users/register [post]
func (ct *Controller) Register(c echo.Context) error {
	var req model.RegisterReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	u, token, err := ct.Svc.Register(c.Request().Context(), req)
	if err != nil {
		return httpx.Fail(c, ct.Log, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered",
		"user":    u,
		"token":   token,
	})
}

// Login
// @Summary      Login
// @Description  Login with email + password, returns JWT
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        payload  body  model.LoginReq  true  "Login payload"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      401  {object}  map[string]any
// @Failure      500  {object}  map[string]any
// @Router       /v1/users/login [post]
func (ct *Controller) Login(c echo.Context) error {
	var req model.LoginReq
	if err := validation.Bind(c, &req); err != nil {
		return err
	}

	u, token, err := ct.Svc.Login(c.Request().Context(), req)
	if err != nil {
		return httpx.Fail(c, ct.Log, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message": "login success",
		"token":   token,
		"user":    u,
	})
}
